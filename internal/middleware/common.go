package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/gradebench/gradebench-api/internal/observability"
)

// Register attaches the common middlewares used across the API.
func Register(app *fiber.App) {
	app.Use(recover.New())
	app.Use(CorrelationID())
	app.Use(observability.Middleware())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
	}))
}
