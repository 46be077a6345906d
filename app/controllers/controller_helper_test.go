package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/picme-app/picme/internal/pkg/entitlements"
)

func TestGetClientIP(t *testing.T) {
	app := fiber.New()
	app.Get("/ip", func(c *fiber.Ctx) error {
		return c.SendString(GetClientIP(c))
	})

	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{
			name:    "cloudflare header wins",
			headers: map[string]string{"CF-Connecting-IP": "203.0.113.7", "X-Forwarded-For": "198.51.100.1"},
			want:    "203.0.113.7",
		},
		{
			name:    "first forwarded entry",
			headers: map[string]string{"X-Forwarded-For": "198.51.100.1, 10.0.0.1"},
			want:    "198.51.100.1",
		},
		{
			name:    "no proxy headers",
			headers: nil,
			want:    "0.0.0.0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ip", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			body, readErr := io.ReadAll(resp.Body)
			require.NoError(t, readErr)
			assert.Equal(t, tt.want, string(body))
		})
	}
}

func TestHandleEntitlementError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		handled  bool
		wantCode string
	}{
		{
			name:     "limit error",
			err:      &entitlements.LimitError{Resource: entitlements.ResourceArtworks, Limit: 5},
			handled:  true,
			wantCode: "plan_limit_reached",
		},
		{
			name:     "storage error",
			err:      &entitlements.StorageError{LimitBytes: 52428800},
			handled:  true,
			wantCode: "storage_quota_reached",
		},
		{
			name:     "feature error",
			err:      &entitlements.FeatureError{Feature: entitlements.FeatureAnalytics, RequiredPlan: entitlements.PlanPro},
			handled:  true,
			wantCode: "feature_not_available",
		},
		{
			name:    "unrelated error passes through",
			err:     errors.New("database down"),
			handled: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/check", func(c *fiber.Ctx) error {
				if handleEntitlementError(c, tt.err) {
					return nil
				}
				return c.SendStatus(fiber.StatusInternalServerError)
			})

			req := httptest.NewRequest(http.MethodGet, "/check", nil)
			resp, err := app.Test(req, -1)
			require.NoError(t, err)

			if !tt.handled {
				assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
				return
			}

			assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
			var body map[string]any
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.wantCode, body["error"])
		})
	}
}

func TestJSONError(t *testing.T) {
	app := fiber.New()
	app.Get("/fail", func(c *fiber.Ctx) error {
		return jsonError(c, fiber.StatusConflict, "email_taken", "This email is already registered")
	})

	req := httptest.NewRequest(http.MethodGet, "/fail", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "email_taken", body["error"])
	assert.Equal(t, "This email is already registered", body["message"])
}
