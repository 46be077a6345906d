package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/picme-app/picme/app/models"
	"github.com/picme-app/picme/app/repository"
	"github.com/picme-app/picme/internal/pkg/entitlements"
	"github.com/picme-app/picme/internal/pkg/usercontext"
)

type socialLinkRequest struct {
	Platform string `json:"platform" validate:"required,max=50"`
	URL      string `json:"url" validate:"required,url,max=500"`
	Icon     string `json:"icon" validate:"max=100"`
	Visible  *bool  `json:"visible"`
}

// HandleListSocialLinks returns all of the caller's links.
func HandleListSocialLinks(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	links, err := repository.GetGlobalFactory().GetSocialLinkRepository().GetByUserID(userCtx.UserID)
	if err != nil {
		log.Errorf("[SocialLink] Listing failed for user %d: %v", userCtx.UserID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_error", "Failed to load social links")
	}

	return c.JSON(fiber.Map{
		"social_links": links,
	})
}

// HandleCreateSocialLink adds a link, subject to the plan limit.
func HandleCreateSocialLink(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req socialLinkRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_body", "Cannot parse request body")
	}
	if err := validate.Struct(&req); err != nil {
		return jsonValidationError(c, err)
	}

	if err := gate.CheckCreate(c.Context(), userCtx.UserID, entitlements.ResourceSocialLinks); err != nil {
		if handleEntitlementError(c, err) {
			return nil
		}
		log.Errorf("[SocialLink] Limit check failed for user %d: %v", userCtx.UserID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_error", "Failed to check plan limits")
	}

	link := &models.SocialLink{
		UserID:   userCtx.UserID,
		Platform: req.Platform,
		URL:      req.URL,
		Icon:     req.Icon,
		Visible:  true,
	}
	if req.Visible != nil {
		link.Visible = *req.Visible
	}

	if err := repository.GetGlobalFactory().GetSocialLinkRepository().Create(link); err != nil {
		log.Errorf("[SocialLink] Create failed for user %d: %v", userCtx.UserID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_error", "Failed to save social link")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"social_link": link,
	})
}

// HandleUpdateSocialLink edits an existing link.
func HandleUpdateSocialLink(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	link, ok := findOwnSocialLink(c, userCtx.UserID)
	if !ok {
		return nil
	}

	var req socialLinkRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_body", "Cannot parse request body")
	}
	if err := validate.Struct(&req); err != nil {
		return jsonValidationError(c, err)
	}

	link.Platform = req.Platform
	link.URL = req.URL
	link.Icon = req.Icon
	if req.Visible != nil {
		link.Visible = *req.Visible
	}

	if err := repository.GetGlobalFactory().GetSocialLinkRepository().Update(link); err != nil {
		log.Errorf("[SocialLink] Update failed for link %d: %v", link.ID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_error", "Failed to update social link")
	}

	return c.JSON(fiber.Map{
		"social_link": link,
	})
}

// HandleDeleteSocialLink removes a link.
func HandleDeleteSocialLink(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	link, ok := findOwnSocialLink(c, userCtx.UserID)
	if !ok {
		return nil
	}

	if err := repository.GetGlobalFactory().GetSocialLinkRepository().Delete(link.ID); err != nil {
		log.Errorf("[SocialLink] Delete failed for link %d: %v", link.ID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_error", "Failed to delete social link")
	}

	return c.JSON(fiber.Map{
		"message": "Social link deleted",
	})
}

// HandleReorderSocialLinks rewrites the display order from an id sequence.
func HandleReorderSocialLinks(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req struct {
		IDs []uint `json:"ids" validate:"required,min=1"`
	}
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_body", "Cannot parse request body")
	}
	if err := validate.Struct(&req); err != nil {
		return jsonValidationError(c, err)
	}

	if err := repository.GetGlobalFactory().GetSocialLinkRepository().Reorder(userCtx.UserID, req.IDs); err != nil {
		log.Errorf("[SocialLink] Reorder failed for user %d: %v", userCtx.UserID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_error", "Failed to reorder social links")
	}

	return c.JSON(fiber.Map{
		"message": "Order updated",
	})
}

func findOwnSocialLink(c *fiber.Ctx, userID uint) (*models.SocialLink, bool) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		_ = jsonError(c, fiber.StatusBadRequest, "invalid_id", "Invalid social link id")
		return nil, false
	}

	link, err := repository.GetGlobalFactory().GetSocialLinkRepository().GetByID(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_ = jsonError(c, fiber.StatusNotFound, "link_not_found", "Social link not found")
		} else {
			log.Errorf("[SocialLink] Lookup failed for link %d: %v", id, err)
			_ = jsonError(c, fiber.StatusInternalServerError, "internal_error", "Failed to load social link")
		}
		return nil, false
	}
	if link.UserID != userID {
		_ = jsonError(c, fiber.StatusNotFound, "link_not_found", "Social link not found")
		return nil, false
	}

	return link, true
}
