package billing

import (
	"github.com/picme-app/picme/internal/pkg/entitlements"
	"github.com/picme-app/picme/internal/pkg/env"
)

// Config carries the billing provider settings. An empty SecretKey puts the
// whole subsystem into disabled mode: status falls back to the stored plan
// and checkout/cancel/resume return ErrNotConfigured.
type Config struct {
	SecretKey     string
	WebhookSecret string
	FrontendURL   string
	PriceIDs      map[entitlements.Plan]string
}

// LoadConfig reads the billing configuration from the environment.
func LoadConfig() *Config {
	return &Config{
		SecretKey:     env.GetEnv("STRIPE_SECRET_KEY", ""),
		WebhookSecret: env.GetEnv("STRIPE_WEBHOOK_SECRET", ""),
		FrontendURL:   env.GetEnv("FRONTEND_URL", "http://localhost:3000"),
		PriceIDs: map[entitlements.Plan]string{
			entitlements.PlanStarter: env.GetEnv("STRIPE_PRICE_STARTER", ""),
			entitlements.PlanPro:     env.GetEnv("STRIPE_PRICE_PRO", ""),
			entitlements.PlanStudio:  env.GetEnv("STRIPE_PRICE_STUDIO", ""),
		},
	}
}

// Enabled reports whether the provider API key is present.
func (c *Config) Enabled() bool {
	return c != nil && c.SecretKey != ""
}

// PriceIDFor returns the configured price id for a paid plan.
func (c *Config) PriceIDFor(plan entitlements.Plan) (string, bool) {
	id, ok := c.PriceIDs[plan]
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// PlanForPrice resolves a price id back to the plan it sells.
func (c *Config) PlanForPrice(priceID string) (entitlements.Plan, bool) {
	if priceID == "" {
		return "", false
	}
	for plan, id := range c.PriceIDs {
		if id == priceID {
			return plan, true
		}
	}
	return "", false
}
