package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/picme-app/picme/app/models"
	"github.com/picme-app/picme/app/repository"
	"github.com/picme-app/picme/internal/pkg/entitlements"
	"github.com/picme-app/picme/internal/pkg/usercontext"
	"github.com/picme-app/picme/internal/pkg/utils"
)

type profileRequest struct {
	DisplayName *string `json:"display_name" validate:"omitempty,max=100"`
	Bio         *string `json:"bio" validate:"omitempty,max=1000"`
	AvatarURL   *string `json:"avatar_url" validate:"omitempty,url,max=500"`
	CoverURL    *string `json:"cover_url" validate:"omitempty,url,max=500"`
	Theme       *string `json:"theme" validate:"omitempty,max=50"`
	CustomCSS   *string `json:"custom_css"`
	Published   *bool   `json:"published"`
}

// HandleGetProfile returns the caller's profile, creating the row on first
// access.
func HandleGetProfile(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	factory := repository.GetGlobalFactory()

	profile, err := factory.GetProfileRepository().GetOrCreate(userCtx.UserID)
	if err != nil {
		log.Errorf("[Profile] Load failed for user %d: %v", userCtx.UserID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_error", "Failed to load profile")
	}

	// Fall back to Gravatar when no avatar was uploaded
	if profile.AvatarURL == "" {
		if user, err := factory.GetUserRepository().GetByID(userCtx.UserID); err == nil {
			profile.AvatarURL = utils.GetGravatarURL(user.Email, 200)
		}
	}

	return c.JSON(fiber.Map{
		"profile": profile,
	})
}

// HandleUpdateProfile edits the portfolio page settings. Custom CSS requires
// a plan with the custom style feature and is sanitized before it is stored.
func HandleUpdateProfile(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	factory := repository.GetGlobalFactory()

	profile, err := factory.GetProfileRepository().GetOrCreate(userCtx.UserID)
	if err != nil {
		log.Errorf("[Profile] Load failed for user %d: %v", userCtx.UserID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_error", "Failed to load profile")
	}

	var req profileRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_body", "Cannot parse request body")
	}
	if err := validate.Struct(&req); err != nil {
		return jsonValidationError(c, err)
	}

	if req.DisplayName != nil {
		profile.DisplayName = *req.DisplayName
	}
	if req.Bio != nil {
		profile.Bio = *req.Bio
	}
	if req.AvatarURL != nil {
		profile.AvatarURL = *req.AvatarURL
	}
	if req.CoverURL != nil {
		profile.CoverURL = *req.CoverURL
	}
	if req.Theme != nil {
		profile.Theme = *req.Theme
	}
	if req.Published != nil {
		profile.Published = *req.Published
	}

	if req.CustomCSS != nil && !applyCustomCSS(c, userCtx.UserID, profile, *req.CustomCSS) {
		return nil
	}

	if err := factory.GetProfileRepository().Save(profile); err != nil {
		log.Errorf("[Profile] Save failed for user %d: %v", userCtx.UserID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_error", "Failed to save profile")
	}

	return c.JSON(fiber.Map{
		"profile": profile,
	})
}

// HandleUpdateCustomCSS replaces only the page styling.
func HandleUpdateCustomCSS(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	factory := repository.GetGlobalFactory()

	profile, err := factory.GetProfileRepository().GetOrCreate(userCtx.UserID)
	if err != nil {
		log.Errorf("[Profile] Load failed for user %d: %v", userCtx.UserID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_error", "Failed to load profile")
	}

	var req struct {
		CustomCSS string `json:"custom_css"`
	}
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_body", "Cannot parse request body")
	}

	if !applyCustomCSS(c, userCtx.UserID, profile, req.CustomCSS) {
		return nil
	}

	if err := factory.GetProfileRepository().Save(profile); err != nil {
		log.Errorf("[Profile] Save failed for user %d: %v", userCtx.UserID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_error", "Failed to save profile")
	}

	return c.JSON(fiber.Map{
		"profile": profile,
	})
}

// applyCustomCSS gates, validates and sanitizes page styling before it lands
// on the profile. On failure it writes the error response and returns false.
func applyCustomCSS(c *fiber.Ctx, userID uint, profile *models.Profile, css string) bool {
	if css == "" {
		// Clearing custom CSS is allowed on every plan
		profile.CustomCSS = ""
		return true
	}

	if err := gate.RequireFeature(c.Context(), userID, entitlements.FeatureCustomStyle); err != nil {
		if handleEntitlementError(c, err) {
			return false
		}
		log.Errorf("[Profile] Feature check failed for user %d: %v", userID, err)
		_ = jsonError(c, fiber.StatusInternalServerError, "internal_error", "Failed to check plan features")
		return false
	}

	plan, _, err := gate.EffectiveLimits(c.Context(), userID)
	if err != nil {
		log.Errorf("[Profile] Plan lookup failed for user %d: %v", userID, err)
		_ = jsonError(c, fiber.StatusInternalServerError, "internal_error", "Failed to check plan features")
		return false
	}
	if msg := utils.ValidateCSS(css, entitlements.CustomCSSMaxLines(plan)); msg != "" {
		_ = jsonError(c, fiber.StatusBadRequest, "invalid_css", msg)
		return false
	}

	profile.CustomCSS = utils.SanitizeCSS(css)
	return true
}
