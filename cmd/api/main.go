package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"

	"hopelog_backend/internal/controller"
	"hopelog_backend/internal/middleware"
	"hopelog_backend/internal/model"
	"hopelog_backend/internal/service"
	"hopelog_backend/pkg/config"
	"hopelog_backend/pkg/cron"
	"hopelog_backend/pkg/database"
	"hopelog_backend/pkg/email"
	"hopelog_backend/pkg/featurelimit"
	"hopelog_backend/pkg/paypal"
	"hopelog_backend/pkg/seed"
	"hopelog_backend/pkg/utils/jwt"
)

func setupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Subscription routes
	subscriptions := api.Group("/subscription")
	subscriptions.Get("/plans", controller.ListPlans)

	subProtected := subscriptions.Use(middleware.AuthMiddleware())
	subProtected.Post("/create-order", controller.CreateOrder)
	subProtected.Post("/capture-order", controller.CaptureOrder)
	subProtected.Post("/cancel", controller.CancelSubscription)
	subProtected.Get("/current", controller.GetCurrentSubscription)
	subProtected.Get("/history", controller.GetSubscriptionHistory)
	subProtected.Get("/usage", controller.GetUsage)

	// Admin settings routes
	admin := api.Group("/admin", middleware.AuthMiddleware(), middleware.AdminMiddleware())
	admin.Get("/paypal-settings", controller.GetPayPalSettings)
	admin.Post("/paypal-settings", controller.UpdatePayPalSettings)
}

func main() {
	cfg := config.Load()
	jwt.Init(cfg.JWT.Secret)

	if cfg.Email.ResendAPIKey != "" {
		if err := email.InitEmailService(cfg.Email.ResendAPIKey); err != nil {
			log.Fatal("Could not initialize email service:", err)
		}
	} else {
		log.Println("RESEND_API_KEY not set, subscription emails disabled")
	}

	if cfg.Database.URL == "" {
		log.Fatal("DATABASE_URL is not set in .env")
	}

	database.InitDB(cfg.Database.URL)
	err := database.MigrateDatabase(
		&model.User{},
		&model.SubscriptionPlan{},
		&model.Subscription{},
		&model.Payment{},
		&model.CheckoutOrder{},
		&model.FeatureLimit{},
		&model.UserUsage{},
		&model.SystemSetting{},
	)
	if err != nil {
		log.Printf("Migration warning: %v", err)
	}

	seed.SeedSubscriptionPlans(database.DB)
	seed.SeedFeatureLimits(database.DB)
	seed.SeedAdminUser(database.DB)

	paypalClient := paypal.NewClient(database.DB)
	subscriptionService := service.NewSubscriptionService(database.DB, paypalClient, cfg.App.BaseURL)
	featureLimitService := featurelimit.NewService(database.DB)

	controller.InitSubscriptionController(subscriptionService, featureLimitService)
	controller.InitSettingsController(paypalClient)
	cron.InitSubscriptionExpiryCron()

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New())

	setupRoutes(app)

	log.Printf("Server is running on port %s", cfg.Server.Port)
	log.Fatal(app.Listen(":" + cfg.Server.Port))
}
