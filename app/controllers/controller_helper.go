package controllers

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/picme-app/picme/internal/pkg/entitlements"
)

var validate = validator.New()

// GetClientIP determines the actual client IP address considering proxies
func GetClientIP(c *fiber.Ctx) string {
	// 1. Check for Cloudflare header
	if cfIP := c.Get("CF-Connecting-IP"); cfIP != "" {
		return cfIP
	}

	// 2. Check for X-Forwarded-For header (standard proxy header)
	if xff := c.Get("X-Forwarded-For"); xff != "" {
		// X-Forwarded-For can contain a list of IPs - the first one is the original client IP
		xffList := strings.Split(xff, ",")
		if len(xffList) > 0 {
			return strings.TrimSpace(xffList[0])
		}
	}

	// 3. If no proxy headers were found, use the normal IP address
	ipAddr := c.IP()

	// For ::ffff: IPv4-mapped-IPv6 addresses
	if strings.HasPrefix(ipAddr, "::ffff:") && strings.Contains(ipAddr, ".") {
		return strings.TrimPrefix(ipAddr, "::ffff:")
	}

	return ipAddr
}

// handleEntitlementError maps gate errors to JSON responses. Returns true if
// the error was an entitlement denial and a response was written.
func handleEntitlementError(c *fiber.Ctx, err error) bool {
	var limitErr *entitlements.LimitError
	if errors.As(err, &limitErr) {
		c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":    "plan_limit_reached",
			"message":  limitErr.Error(),
			"resource": limitErr.Resource,
			"limit":    limitErr.Limit,
		})
		return true
	}

	var storageErr *entitlements.StorageError
	if errors.As(err, &storageErr) {
		c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":       "storage_quota_reached",
			"message":     storageErr.Error(),
			"limit_bytes": storageErr.LimitBytes,
		})
		return true
	}

	var featureErr *entitlements.FeatureError
	if errors.As(err, &featureErr) {
		c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":         "feature_not_available",
			"message":       featureErr.Error(),
			"feature":       featureErr.Feature,
			"required_plan": featureErr.RequiredPlan,
		})
		return true
	}

	return false
}

func jsonError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error":   code,
		"message": message,
	})
}

func jsonValidationError(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error":   "validation_failed",
		"message": err.Error(),
	})
}
