package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/picme-app/picme/internal/pkg/entitlements"
	"github.com/picme-app/picme/internal/pkg/usercontext"
)

// analyticsDays reads and clamps the ?days query parameter.
func analyticsDays(c *fiber.Ctx) int {
	days := c.QueryInt("days", 30)
	if days < 1 {
		days = 1
	}
	if days > 365 {
		days = 365
	}
	return days
}

func requireAnalytics(c *fiber.Ctx, userID uint) bool {
	if err := gate.RequireFeature(c.Context(), userID, entitlements.FeatureAnalytics); err != nil {
		if !handleEntitlementError(c, err) {
			log.Errorf("[Analytics] Feature check failed for user %d: %v", userID, err)
			_ = jsonError(c, fiber.StatusInternalServerError, "internal_error", "Failed to check plan features")
		}
		return false
	}
	return true
}

// HandleAnalyticsSummary returns visit totals and top referrers for the
// caller's page.
func HandleAnalyticsSummary(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !requireAnalytics(c, userCtx.UserID) {
		return nil
	}

	summary, err := analyticsService.GetSummary(userCtx.UserID, analyticsDays(c))
	if err != nil {
		log.Errorf("[Analytics] Summary failed for user %d: %v", userCtx.UserID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_error", "Failed to load analytics")
	}

	return c.JSON(summary)
}

// HandleAnalyticsTimeline returns per-day view counts for the caller's page.
func HandleAnalyticsTimeline(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !requireAnalytics(c, userCtx.UserID) {
		return nil
	}

	days := analyticsDays(c)
	timeline, err := analyticsService.GetTimeline(userCtx.UserID, days)
	if err != nil {
		log.Errorf("[Analytics] Timeline failed for user %d: %v", userCtx.UserID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_error", "Failed to load analytics")
	}

	return c.JSON(fiber.Map{
		"days":     days,
		"timeline": timeline,
	})
}
