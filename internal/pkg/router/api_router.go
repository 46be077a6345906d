package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/picme-app/picme/app/controllers"
	"github.com/picme-app/picme/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	// The billing webhook sits outside the rate limited group so provider
	// retries are never throttled away. It authenticates via signature.
	app.Post("/api/subscriptions/webhook", controllers.HandleBillingWebhook)

	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	auth := api.Group("/auth")
	auth.Post("/register", controllers.HandleRegister)
	auth.Get("/activate", controllers.HandleActivate)
	auth.Post("/login", controllers.HandleLogin)
	auth.Post("/password-reset/request", controllers.HandleRequestPasswordReset)
	auth.Post("/password-reset/confirm", controllers.HandleResetPassword)
	auth.Get("/me", middleware.RequireAuth, controllers.HandleMe)

	subscriptions := api.Group("/subscriptions", middleware.RequireAuth)
	subscriptions.Get("/status", controllers.HandleSubscriptionStatus)
	subscriptions.Post("/checkout", controllers.HandleCreateCheckout)
	subscriptions.Post("/cancel", controllers.HandleCancelSubscription)
	subscriptions.Post("/resume", controllers.HandleResumeSubscription)

	profile := api.Group("/profile", middleware.RequireAuth)
	profile.Get("/", controllers.HandleGetProfile)
	profile.Put("/", controllers.HandleUpdateProfile)
	profile.Put("/custom-css", controllers.HandleUpdateCustomCSS)

	artworks := api.Group("/artworks", middleware.RequireAuth)
	artworks.Get("/", controllers.HandleListArtworks)
	artworks.Post("/", controllers.HandleUploadArtwork)
	artworks.Put("/reorder", controllers.HandleReorderArtworks)
	artworks.Put("/:id", controllers.HandleUpdateArtwork)
	artworks.Delete("/:id", controllers.HandleDeleteArtwork)

	api.Get("/tags", middleware.RequireAuth, controllers.HandleListTags)

	links := api.Group("/social-links", middleware.RequireAuth)
	links.Get("/", controllers.HandleListSocialLinks)
	links.Post("/", controllers.HandleCreateSocialLink)
	links.Put("/reorder", controllers.HandleReorderSocialLinks)
	links.Put("/:id", controllers.HandleUpdateSocialLink)
	links.Delete("/:id", controllers.HandleDeleteSocialLink)

	posts := api.Group("/posts", middleware.RequireAuth)
	posts.Get("/", controllers.HandleListPosts)
	posts.Post("/", controllers.HandleCreatePost)
	posts.Put("/:id", controllers.HandleUpdatePost)
	posts.Post("/:id/publish", controllers.HandlePublishPost)
	posts.Post("/:id/unpublish", controllers.HandleUnpublishPost)
	posts.Delete("/:id", controllers.HandleDeletePost)

	categories := api.Group("/categories", middleware.RequireAuth)
	categories.Get("/", controllers.HandleListCategories)
	categories.Post("/", controllers.HandleCreateCategory)
	categories.Put("/:id", controllers.HandleUpdateCategory)
	categories.Delete("/:id", controllers.HandleDeleteCategory)

	analytics := api.Group("/analytics", middleware.RequireAuth)
	analytics.Get("/summary", controllers.HandleAnalyticsSummary)
	analytics.Get("/timeline", controllers.HandleAnalyticsTimeline)

	admin := api.Group("/admin", middleware.RequireAdmin)
	admin.Get("/users", controllers.HandleAdminListUsers)
	admin.Put("/users/:id/status", controllers.HandleAdminSetUserStatus)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
