package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"gorm.io/gorm"

	"github.com/readflowhq/readflow-backend/internal/config"
	"github.com/readflowhq/readflow-backend/internal/handlers"
	"github.com/readflowhq/readflow-backend/internal/middleware"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	db *gorm.DB,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	postHandler *handlers.PostHandler,
	commentHandler *handlers.CommentHandler,
	categoryHandler *handlers.CategoryHandler,
	reportHandler *handlers.ReportHandler,
	adminHandler *handlers.AdminHandler,
	healthHandler *handlers.HealthHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	protected := []fiber.Handler{middleware.JWTProtected(cfg), middleware.UserRequired(db)}

	// Auth is public. Stricter rate limit: 10 req/min per IP.
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/send-otp", authHandler.SendOTP)
	auth.Post("/verify-otp", authHandler.VerifyOTP)
	auth.Get("/refresh", authHandler.Refresh)
	auth.Post("/logout", protected[0], protected[1], authHandler.Logout)
	auth.Get("/google", authHandler.GoogleRedirect)
	auth.Get("/google/callback", authHandler.GoogleCallback)
	auth.Post("/admin/login", authHandler.AdminLogin)
	auth.Post("/admin/signup", authHandler.AdminSignup)

	// Profile
	user := api.Group("/user", protected...)
	user.Get("/me", userHandler.Me)
	user.Post("/profile", userHandler.UpdateProfile)

	// Posts. Reading is public, writing requires a session.
	posts := api.Group("/posts")
	posts.Get("/", postHandler.Feed)
	posts.Get("/search", postHandler.Search)
	posts.Get("/:id", postHandler.Get)
	posts.Get("/:id/comments", commentHandler.List)
	posts.Post("/", append(protected, postHandler.Create)...)
	posts.Put("/:id", append(protected, postHandler.Update)...)
	posts.Delete("/:id", append(protected, postHandler.Delete)...)
	posts.Post("/:id/like", append(protected, postHandler.ToggleLike)...)
	posts.Post("/:id/comments", append(protected, commentHandler.Add)...)

	comments := api.Group("/comments", protected...)
	comments.Delete("/:id", commentHandler.Delete)

	// Public category listing
	api.Get("/categories", categoryHandler.List)

	reports := api.Group("/reports", protected...)
	reports.Post("/", reportHandler.Create)

	// Admin, everything behind the role gate
	admin := api.Group("/admin", append(protected, middleware.AdminRequired())...)
	admin.Get("/dashboard", adminHandler.Dashboard)
	admin.Get("/users", adminHandler.ListUsers)
	admin.Get("/users/:id", adminHandler.GetUser)
	admin.Put("/users/:id", adminHandler.UpdateUser)
	admin.Patch("/users/:id/toggle", adminHandler.ToggleUser)
	admin.Delete("/users/:id", adminHandler.DeleteUser)
	admin.Post("/users/bulk", adminHandler.BulkUserAction)
	admin.Get("/analytics", adminHandler.Analytics)
	admin.Get("/export/users", adminHandler.ExportUsers)
	admin.Post("/maintenance", adminHandler.RunMaintenance)
	admin.Get("/audit-logs", adminHandler.AuditLogs)
	admin.Post("/notifications", adminHandler.SendNotification)
	admin.Get("/reports", reportHandler.List)
	admin.Patch("/reports/:id", reportHandler.Action)
	admin.Get("/categories", categoryHandler.ListAll)
	admin.Post("/categories", categoryHandler.Create)
	admin.Put("/categories/:id", categoryHandler.Update)
	admin.Delete("/categories/:id", categoryHandler.Delete)
}
