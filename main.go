package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/gorefurbish/backend/database"
	"github.com/gorefurbish/backend/internal/config"
	"github.com/gorefurbish/backend/internal/handlers"
	"github.com/gorefurbish/backend/internal/jobs"
	"github.com/gorefurbish/backend/internal/models"
	"github.com/gorefurbish/backend/internal/routes"
	"github.com/gorefurbish/backend/internal/security"
	"github.com/gorefurbish/backend/internal/services"
	"github.com/gorefurbish/backend/internal/storage"
)

const version = "1.0.0"

func main() {
	// Load .env file for local development
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found - using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Initialize storage
	var store storage.Store
	if cfg.UseMemoryStore {
		log.Println("⚠️  Using in-memory storage (not for production!)")
		store = storage.NewMemoryStore()
	} else {
		log.Println("📦 Connecting to PostgreSQL database...")
		db, err := database.Connect(cfg.Database)
		if err != nil {
			log.Fatal("Failed to connect to database:", err)
		}

		log.Println("🔄 Running database migrations...")
		if err := db.AutoMigrate(
			&models.User{},
			&models.Product{},
			&models.OTP{},
		); err != nil {
			log.Fatal("Failed to migrate database:", err)
		}
		log.Println("✅ Database migrations completed!")

		store = storage.NewDatabaseStore(db)
	}

	// Credential protection
	guard, err := security.NewCredentialGuard(cfg.Security.EncryptionKey)
	if err != nil {
		log.Fatal("Failed to initialize credential guard:", err)
	}

	// Core services
	otpService := services.NewOTPService(store, cfg.OTP.TTL)

	tokenService, err := services.NewTokenService(cfg.JWT)
	if err != nil {
		log.Fatal("Failed to initialize token service:", err)
	}

	emailService, err := services.NewEmailService(cfg.Email)
	if err != nil {
		log.Fatal("Failed to initialize email service:", err)
	}
	log.Println("✅ Email service initialized")

	smsService, err := services.NewSMSService(cfg.SMS)
	if err != nil {
		log.Println("⚠️  Twilio credentials not found - SMS delivery disabled")
		smsService = nil
	} else {
		log.Println("✅ SMS service initialized")
	}

	mediaService, err := services.NewMediaService(context.Background(), cfg.Media)
	if err != nil {
		log.Fatal("Failed to initialize media storage:", err)
	}
	log.Println("✅ Media storage initialized")

	// Background sweep for expired OTP records
	cleanupJob := jobs.NewCleanupJob(store, cfg.OTP.SweepEvery)
	cleanupJob.Start()

	// Create fiber app
	app := fiber.New(fiber.Config{
		AppName: "GoRefurbish Backend v" + version,
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
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigin,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		AllowCredentials: true,
	}))

	// Handlers and routes
	userHandler := handlers.NewUserHandler(store, guard, otpService, tokenService, emailService, smsService)
	productHandler := handlers.NewProductHandler(store, mediaService)
	healthHandler := handlers.NewHealthHandler(version)

	routes.SetupRoutes(app, userHandler, productHandler, healthHandler, tokenService)

	// Graceful shutdown
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		log.Println("Shutting down server...")
		cleanupJob.Stop()
		if err := app.Shutdown(); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("🚀 Server is running on http://localhost:%s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal("Server error:", err)
	}
}
