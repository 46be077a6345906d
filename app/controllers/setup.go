package controllers

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2/log"

	"github.com/picme-app/picme/app/repository"
	"github.com/picme-app/picme/internal/pkg/analytics"
	"github.com/picme-app/picme/internal/pkg/billing"
	"github.com/picme-app/picme/internal/pkg/entitlements"
	"github.com/picme-app/picme/internal/pkg/storage"
	"github.com/picme-app/picme/internal/pkg/token"
)

// Shared services the controllers work against. Setup wires them once at
// startup, after the repository factory has been initialized.
var (
	gate             *entitlements.Gate
	billingService   *billing.Service
	analyticsService *analytics.Service
	tokenManager     *token.Manager
	storageConfig    *storage.Config
	uploader         storage.Uploader
)

// Setup builds the controller-level services from environment configuration
// and the global repository factory.
func Setup() error {
	factory := repository.GetGlobalFactory()
	if factory == nil {
		return fmt.Errorf("repository factory not initialized")
	}

	users := factory.GetUserRepository()
	artworks := factory.GetArtworkRepository()
	socialLinks := factory.GetSocialLinkRepository()
	posts := factory.GetPostRepository()
	categories := factory.GetCategoryRepository()

	billingCfg := billing.LoadConfig()
	var billingClient billing.Client
	if billingCfg.Enabled() {
		billingClient = billing.NewStripeClient(billingCfg.SecretKey)
		log.Info("[Billing] Stripe client initialized")
	} else {
		log.Info("[Billing] No secret key configured, billing endpoints disabled")
	}
	billingService = billing.NewService(billingCfg, billingClient, users, factory.GetSubscriptionRepository())

	gate = entitlements.NewGate(func(_ context.Context, userID uint) (entitlements.Plan, error) {
		return billingService.ResolvePlan(userID)
	})
	gate.RegisterCounter(entitlements.ResourceArtworks, func(_ context.Context, userID uint) (int64, error) {
		return artworks.CountByUserID(userID)
	})
	gate.RegisterCounter(entitlements.ResourceSocialLinks, func(_ context.Context, userID uint) (int64, error) {
		return socialLinks.CountByUserID(userID)
	})
	gate.RegisterCounter(entitlements.ResourcePosts, func(_ context.Context, userID uint) (int64, error) {
		return posts.CountByUserID(userID)
	})
	gate.RegisterCounter(entitlements.ResourceCategories, func(_ context.Context, userID uint) (int64, error) {
		return categories.CountByUserID(userID)
	})
	gate.RegisterStorageCounter(func(_ context.Context, userID uint) (int64, error) {
		return artworks.SumFileSizeByUserID(userID)
	})

	analyticsService = analytics.NewService(factory.GetPageViewRepository())
	tokenManager = token.NewManagerFromEnv()

	cfg, err := storage.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load storage config: %w", err)
	}
	storageConfig = cfg
	if cfg.IsEnabled() {
		client, err := storage.NewClient(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize storage client: %w", err)
		}
		uploader = client
	} else {
		log.Info("[Storage] S3 disabled, artwork uploads unavailable")
	}

	return nil
}

// TokenManager exposes the signer so the JWT middleware can share it.
func TokenManager() *token.Manager {
	return tokenManager
}

// Uploader exposes the storage client for background workers. Nil when
// storage is not configured.
func Uploader() storage.Uploader {
	return uploader
}
