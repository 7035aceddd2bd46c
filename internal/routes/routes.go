package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/gorefurbish/backend/internal/handlers"
	"github.com/gorefurbish/backend/internal/middleware"
	"github.com/gorefurbish/backend/internal/services"
)

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, users *handlers.UserHandler, products *handlers.ProductHandler, health *handlers.HealthHandler, tokens *services.TokenService) {

	// Root endpoint
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Hello, GoRefurbish Server is running!",
			"version": health.Version,
			"endpoints": fiber.Map{
				"health":   "/health",
				"users":    "/api/users",
				"products": "/api/products",
			},
		})
	})

	app.Get("/health", health.Check)

	api := app.Group("/api")
	authenticate := middleware.Authenticate(tokens)

	// Authentication routes
	userRouter := api.Group("/users")
	userRouter.Post("/signup", users.Signup)
	userRouter.Post("/signin", users.Signin)
	userRouter.Post("/logout", users.Logout)
	userRouter.Post("/forgot-password", users.ForgotPassword)
	userRouter.Post("/verify-otp", users.VerifyOTP)
	userRouter.Post("/reset-password", users.ResetPassword)

	// Protected routes
	userRouter.Get("/current", authenticate, users.CurrentUser)
	userRouter.Patch("/update", authenticate, users.UpdateUser)

	// Product routes
	productRouter := api.Group("/products")
	productRouter.Get("/", products.GetAllProducts)
	productRouter.Post("/", authenticate, products.UploadProduct)
}
