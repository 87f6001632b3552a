package di

import (
	"context"
	"time"

	"evconnect/internal/auth"
	authhttp "evconnect/internal/auth/adapter/http"
	"evconnect/internal/shared/utils"
	"evconnect/internal/station"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// HTTPConfig holds the settings NewApp needs
type HTTPConfig struct {
	AppName          string
	AllowOrigins     string
	AllowCredentials bool
}

// NewApp builds the Fiber application and mounts the routes of every initialized module:
// /users for auth, /ev for stations, plus / and /health.
func (c *Container) NewApp(cfg HTTPConfig) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
		ErrorHandler: utils.NewErrorHandler(c.Logger),
	})

	app.Use(recover.New())
	app.Use(utils.RequestID())
	app.Use(utils.RequestLogger(c.Logger))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowCredentials: cfg.AllowCredentials && cfg.AllowOrigins != "*",
		AllowMethods:     "GET,POST,HEAD,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(authhttp.SecurityHeaders())

	authModule, authErr := GetService[*auth.AuthModule](c)
	stationModule, stationErr := GetService[*station.StationModule](c)

	app.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.SendString("Hello From Server!")
	})

	app.Get("/health", func(ctx *fiber.Ctx) error {
		healthCtx, cancel := context.WithTimeout(ctx.UserContext(), 5*time.Second)
		defer cancel()

		if err := c.HealthCheck(healthCtx); err != nil {
			c.Logger.Errorf("Health check failed: %v", err)
			return ctx.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status":  "UNHEALTHY",
				"error":   err.Error(),
				"message": "One or more services are unhealthy",
			})
		}

		return ctx.JSON(fiber.Map{
			"status":    "HEALTHY",
			"message":   "EV Connect API is running",
			"timestamp": time.Now().UTC(),
			"modules": fiber.Map{
				"auth":     authErr == nil,
				"stations": stationErr == nil,
				"cache":    c.Redis != nil,
			},
		})
	})

	if authErr != nil {
		return app
	}

	authModule.RegisterRoutes(app.Group("/users"))
	if stationErr == nil {
		stationModule.RegisterRoutes(app.Group("/ev"), authModule.GetMiddleware().Protect())
	}
	return app
}
