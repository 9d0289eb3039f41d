package main

import (
	"context"
	"log"
	"os"

	"yuksekolah_go/config"
	"yuksekolah_go/controllers"
	"yuksekolah_go/database"
	"yuksekolah_go/database/seeders"
	"yuksekolah_go/middleware"
	"yuksekolah_go/routes"
	"yuksekolah_go/services"
	"yuksekolah_go/services/notifications"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
)

func init() {
	setupLogging()

	config.LoadConfig()

	database.Connect()

	if os.Getenv("RUN_SEED") == "true" {
		seeders.SeedAll()
	}

	// Pull maintenance_mode / allow_registration from the old flat file once
	if err := services.NewSettingsService().ImportLegacySettings(); err != nil {
		logrus.WithError(err).Warn("Failed to import legacy settings file")
	}

	// Hourly flush of cached activity logs, nightly archive to S3
	services.NewLogArchiveService().StartLogMaintenanceScheduler()
}

func main() {
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		BodyLimit:    int(config.AppConfig.MaxFileSize) * 2,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(helmet.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: config.AppConfig.FrontendURL + ",http://localhost:3000",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Custom middleware
	app.Use(middleware.LoggerMiddleware())
	app.Use(middleware.LogActivityMiddleware())

	// Health check endpoint
	healthController := controllers.NewHealthController(services.NewHealthService("Yuksekolah API", "1.0.0"))
	app.Get("/health", healthController.Health)

	// Drain the Redis notification queue into the database
	notifications.NewService().StartWorker(context.Background())

	routes.SetupRoutes(app)

	// 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":  "Route not found",
			"path":   c.Path(),
			"method": c.Method(),
		})
	})

	addr := ":" + config.AppConfig.Port
	log.Printf("Server starting on port %s (env=%s)", config.AppConfig.Port, config.AppConfig.AppEnv)

	if err := app.Listen(addr); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

// setupLogging configures the logging system
func setupLogging() {
	if err := os.MkdirAll("logs", 0755); err != nil {
		log.Printf("Warning: Could not create logs directory: %v", err)
	}

	logrus.SetFormatter(&logrus.JSONFormatter{})

	if level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		logrus.SetLevel(level)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}

	if os.Getenv("APP_ENV") == "development" || os.Getenv("APP_ENV") == "" {
		logrus.SetOutput(os.Stdout)
	} else {
		file, err := os.OpenFile("logs/app.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err == nil {
			logrus.SetOutput(file)
		}
	}
}

// customErrorHandler handles application errors
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	} else if config.AppConfig != nil && config.AppConfig.AppDebug {
		message = err.Error()
	}

	logrus.WithFields(logrus.Fields{
		"error":  err.Error(),
		"path":   c.Path(),
		"method": c.Method(),
		"ip":     c.IP(),
		"status": code,
	}).Error("Request error")

	return c.Status(code).JSON(fiber.Map{
		"error":  message,
		"code":   code,
		"path":   c.Path(),
		"method": c.Method(),
	})
}
