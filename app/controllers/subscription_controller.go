package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/picme-app/picme/internal/pkg/billing"
	"github.com/picme-app/picme/internal/pkg/entitlements"
	"github.com/picme-app/picme/internal/pkg/usercontext"
)

// HandleBillingWebhook receives provider events. Signature failures get a 400
// so the provider stops retrying tampered deliveries; transient processing
// failures get a 500 so the delivery is retried.
func HandleBillingWebhook(c *fiber.Ctx) error {
	err := billingService.HandleWebhook(c.Body(), c.Get("Stripe-Signature"))
	if err != nil {
		var verErr *billing.VerificationError
		if errors.As(err, &verErr) {
			log.Warnf("[Billing] Webhook signature verification failed: %v", verErr)
			return jsonError(c, fiber.StatusBadRequest, "invalid_signature", "Webhook signature verification failed")
		}
		log.Errorf("[Billing] Webhook processing failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "webhook_failed", "Event could not be processed")
	}

	return c.JSON(fiber.Map{
		"received": true,
	})
}

// HandleSubscriptionStatus returns the caller's plan, subscription state and
// effective limits.
func HandleSubscriptionStatus(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	status, err := billingService.Status(userCtx.UserID)
	if err != nil {
		log.Errorf("[Billing] Status lookup failed for user %d: %v", userCtx.UserID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_error", "Failed to load subscription status")
	}

	return c.JSON(status)
}

// HandleCreateCheckout starts a hosted checkout for a paid plan.
func HandleCreateCheckout(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req struct {
		PlanType string `json:"plan_type" validate:"required"`
	}
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_body", "Cannot parse request body")
	}
	if err := validate.Struct(&req); err != nil {
		return jsonValidationError(c, err)
	}

	plan := entitlements.NormalizePlan(req.PlanType)
	session, err := billingService.CreateCheckout(c.Context(), userCtx.UserID, plan)
	if err != nil {
		switch {
		case errors.Is(err, billing.ErrNotConfigured):
			return jsonError(c, fiber.StatusServiceUnavailable, "billing_disabled", "Billing is not configured")
		case errors.Is(err, billing.ErrNotPurchasable):
			return jsonError(c, fiber.StatusBadRequest, "invalid_plan", "This plan cannot be purchased")
		default:
			log.Errorf("[Billing] Checkout creation failed for user %d: %v", userCtx.UserID, err)
			return jsonError(c, fiber.StatusBadGateway, "provider_error", "Failed to create checkout session")
		}
	}

	return c.JSON(fiber.Map{
		"session_id":   session.ID,
		"checkout_url": session.URL,
	})
}

// HandleCancelSubscription schedules cancellation at the period end.
func HandleCancelSubscription(c *fiber.Ctx) error {
	return handleCancelFlag(c, true)
}

// HandleResumeSubscription clears a pending cancellation.
func HandleResumeSubscription(c *fiber.Ctx) error {
	return handleCancelFlag(c, false)
}

func handleCancelFlag(c *fiber.Ctx, cancel bool) error {
	userCtx := usercontext.GetUserContext(c)

	var status *billing.StatusResponse
	var err error
	if cancel {
		status, err = billingService.Cancel(c.Context(), userCtx.UserID)
	} else {
		status, err = billingService.Resume(c.Context(), userCtx.UserID)
	}
	if err != nil {
		switch {
		case errors.Is(err, billing.ErrNotConfigured):
			return jsonError(c, fiber.StatusServiceUnavailable, "billing_disabled", "Billing is not configured")
		case errors.Is(err, billing.ErrNoSubscription):
			return jsonError(c, fiber.StatusNotFound, "no_subscription", "No active subscription to modify")
		default:
			log.Errorf("[Billing] Subscription update failed for user %d: %v", userCtx.UserID, err)
			return jsonError(c, fiber.StatusBadGateway, "provider_error", "Failed to update subscription")
		}
	}

	return c.JSON(status)
}
