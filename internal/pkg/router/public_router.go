package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/picme-app/picme/app/controllers"
)

type PublicRouter struct {
}

// InstallRouter registers the anonymous portfolio page routes. They still run
// behind the JWT middleware so owners viewing their own page are recognized,
// but they never require a login.
func (h PublicRouter) InstallRouter(app *fiber.App) {
	public := app.Group("/api/public")
	public.Get("/:username", controllers.HandlePublicPage)
	public.Get("/:username/posts/:id", controllers.HandlePublicPost)
}

func NewPublicRouter() *PublicRouter {
	return &PublicRouter{}
}
