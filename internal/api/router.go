package api

import (
	"mostashar/internal/api/handlers"
	"mostashar/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

func SetupRouter(
	docHandler *handlers.DocumentHandler,
	queryHandler *handlers.QueryHandler,
	appLogger *zap.Logger,
) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit: 32 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-Organization-ID",
	}))
	app.Use(logger.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1", middleware.TenantMiddleware(appLogger))

	documents := api.Group("/documents")
	documents.Post("", docHandler.Upload)
	documents.Get("", docHandler.List)
	documents.Get("/:id", docHandler.Get)
	documents.Post("/:id/reprocess", docHandler.Reprocess)
	documents.Delete("/:id", docHandler.Archive)

	api.Post("/query", queryHandler.Query)
	api.Get("/suggest", queryHandler.Suggest)

	return app
}
