package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/picme-app/picme/app/controllers"
	"github.com/picme-app/picme/app/repository"
	"github.com/picme-app/picme/internal/pkg/cache"
	"github.com/picme-app/picme/internal/pkg/database"
	"github.com/picme-app/picme/internal/pkg/env"
	"github.com/picme-app/picme/internal/pkg/jobqueue"
	"github.com/picme-app/picme/internal/pkg/metrics/counter"
	"github.com/picme-app/picme/internal/pkg/middleware"
	"github.com/picme-app/picme/internal/pkg/router"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()
	repository.InitializeFactory(database.GetDB())

	if err := controllers.Setup(); err != nil {
		log.Fatalf("failed to initialize services: %v", err)
	}

	// background workers: async object deletion and batched view counts
	jobqueue.Initialize(controllers.Uploader(), 2)
	counter.StartFlusher(time.Minute)

	// init fiber app
	app := fiber.New(fiber.Config{
		AppName:   "picme",
		BodyLimit: 30 * 1024 * 1024, // multipart uploads, 30 MiB
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// resolves the bearer token on every request, never rejects by itself
	app.Use(middleware.JWTAuth(controllers.TokenManager()))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// fiber metrics
	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			env.GetEnv("METRICS_USER", "admin"): env.GetEnv("METRICS_PASSWORD", "test"),
		},
	}), monitor.New())

	// SWAGGER / OPENAPI
	if basePath := findBasePath(); basePath != "" {
		openAPICfg := swagger.Config{
			BasePath: "/docs/api/",
			FilePath: basePath + "public/docs/v1/openapi.yml",
			Path:     "v1",
		}
		app.Use(swagger.New(openAPICfg))
	}

	// ROUTER
	router.InstallRouter(app)

	return app
}

// findBasePath locates the project root so the binary works both from the
// repo root and from cmd/picme.
func findBasePath() string {
	basePaths := []string{
		"./",        // Current directory
		"../../",    // From cmd/picme to project root
		"../../../", // Fallback
	}
	for _, path := range basePaths {
		if _, err := os.Stat(path + "public/docs/v1/openapi.yml"); err == nil {
			return path
		}
	}
	return ""
}
