package api

import (
	"grana/internal/api/handlers"
	"grana/pkg/auth"
	"grana/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

type Handlers struct {
	Auth        *handlers.AuthHandler
	Statement   *handlers.StatementHandler
	Transaction *handlers.TransactionHandler
	Category    *handlers.CategoryHandler
	Dashboard   *handlers.DashboardHandler
	Export      *handlers.ExportHandler
	Admin       *handlers.AdminHandler
}

func SetupRouter(h Handlers, jwtManager *auth.JWTManager, bodyLimit int, appLogger *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit: bodyLimit,
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

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))
	app.Use(logger.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Auth routes (public)
	authGroup := app.Group("/user/auth")
	authGroup.Post("/register", h.Auth.Register)
	authGroup.Post("/login", h.Auth.Login)
	authGroup.Post("/refresh", h.Auth.RefreshToken)

	// Protected routes
	protected := app.Group("/api/v1", middleware.AuthMiddleware(jwtManager, appLogger))

	statements := protected.Group("/statements")
	statements.Post("/upload", h.Statement.Upload)
	statements.Get("/strategies", h.Statement.Strategies)

	transactions := protected.Group("/transactions")
	transactions.Get("/unclassified", h.Transaction.ListUnclassified)
	transactions.Get("/stats", h.Transaction.Stats)
	transactions.Put("/:id/category", h.Transaction.SetCategory)

	categories := protected.Group("/categories")
	categories.Post("", h.Category.Create)
	categories.Get("", h.Category.List)
	categories.Put("/:id", h.Category.Update)
	categories.Delete("/:id", h.Category.Delete)
	categories.Post("/keywords", h.Category.AddKeyword)

	protected.Get("/dashboard", h.Dashboard.Overview)

	export := protected.Group("/export")
	export.Get("/csv", h.Export.CSV)
	export.Get("/excel", h.Export.Excel)
	export.Get("/backup", h.Export.Backup)
	protected.Post("/import/backup", h.Export.Restore)

	// Admin routes
	admin := protected.Group("/admin", middleware.AdminOnly())
	admin.Get("/config", h.Admin.ListConfig)
	admin.Put("/config", h.Admin.SetConfig)
	admin.Get("/users", h.Admin.ListUsers)

	return app
}
