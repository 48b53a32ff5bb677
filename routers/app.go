// Package routers assembles the fiber application from the per-area route
// packages.
package routers

import (
	"time"

	"github.com/roxas19/DRP/config"
	"github.com/roxas19/DRP/middleware"
	authRoutes "github.com/roxas19/DRP/routers/authRoutes"
	courseRoutes "github.com/roxas19/DRP/routers/courseRoutes"
	discussionRoutes "github.com/roxas19/DRP/routers/discussionRoutes"
	livestreamRoutes "github.com/roxas19/DRP/routers/livestreamRoutes"
	userProfileRoutes "github.com/roxas19/DRP/routers/userRoutes"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// Options toggles middleware that gets in the way of tests.
type Options struct {
	DisableLogger  bool
	DisableLimiter bool
}

func NewApp(opts Options) *fiber.App {
	app := fiber.New(fiber.Config{
		JSONEncoder: sonic.Marshal,
		JSONDecoder: sonic.Unmarshal,
		BodyLimit:   20 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(middleware.RequestID)
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE",
		AllowHeaders: "Content-Type,Authorization",
	}))
	if !opts.DisableLogger {
		app.Use(logger.New(logger.Config{
			Format: "[${time}] ${ip} ${locals:requestId} ${method} ${path} ${status} ${latency}\n",
		}))
	}
	if !opts.DisableLimiter {
		app.Use(limiter.New(limiter.Config{
			Max:        120,
			Expiration: time.Minute,
		}))
	}

	// Uploaded resources
	app.Static("/media", config.AppConfig.MediaRoot)

	app.Get("/health", func(c *fiber.Ctx) error {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "OK", nil)
	})

	authRoutes.SetupAuthRoutes(app)
	userProfileRoutes.SetupUserRoutes(app)
	courseRoutes.SetupCourseRoutes(app)
	discussionRoutes.SetupDiscussionRoutes(app)
	livestreamRoutes.SetupLivestreamRoutes(app)

	return app
}
