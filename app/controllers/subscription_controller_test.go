package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/picme-app/picme/internal/pkg/billing"
)

func newWebhookTestApp(t *testing.T, cfg *billing.Config) *fiber.App {
	t.Helper()

	prev := billingService
	billingService = billing.NewService(cfg, nil, nil, nil)
	t.Cleanup(func() { billingService = prev })

	app := fiber.New()
	app.Post("/api/subscriptions/webhook", HandleBillingWebhook)
	return app
}

func TestHandleBillingWebhookRejectsWithoutSecret(t *testing.T) {
	app := newWebhookTestApp(t, &billing.Config{})

	req := httptest.NewRequest(http.MethodPost, "/api/subscriptions/webhook", strings.NewReader(`{}`))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "invalid_signature", body["error"])
}

func TestHandleBillingWebhookRejectsBadSignature(t *testing.T) {
	app := newWebhookTestApp(t, &billing.Config{WebhookSecret: "whsec_test"})

	req := httptest.NewRequest(http.MethodPost, "/api/subscriptions/webhook", strings.NewReader(`{"id":"evt_1"}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=deadbeef")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "invalid_signature", body["error"])
}
