package routes

import (
	"errors"
	"time"

	"github.com/anjiri1684/english_practice/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	log "github.com/sirupsen/logrus"
)

// NewApp builds the HTTP application with every route group mounted.
func NewApp(limiter *middleware.RateLimiter, allowOrigins string) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:       "English Practice",
		CaseSensitive: true,
		StrictRouting: true,
		ReadTimeout:   15 * time.Second,
		WriteTimeout:  120 * time.Second,
		IdleTimeout:   60 * time.Second,
		ErrorHandler:  errorHandler,
	})

	if allowOrigins == "" {
		allowOrigins = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:  allowOrigins,
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization",
		AllowMethods:  "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders: "Content-Length, Content-Disposition, Retry-After",
		MaxAge:        86400,
	}))
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "success",
			"message": "Welcome to English Practice API",
		})
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1")
	AuthRoutes(api)
	ProfileRoutes(api)
	TokenRoutes(api)
	SessionRoutes(api, limiter)
	EssayRoutes(api, limiter)
	PaymentRoutes(api)
	ReferralRoutes(api)
	AdminRoutes(api)

	return app
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}

	if code >= fiber.StatusInternalServerError {
		log.WithFields(log.Fields{"path": c.Path(), "method": c.Method()}).WithError(err).Error("[ERROR] request failed")
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}
