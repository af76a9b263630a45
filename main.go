package main

import (
	"context"
	"log"
	"os"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"emailsuite/analytics"
	"emailsuite/config"
	"emailsuite/middleware"
	"emailsuite/notify"
	"emailsuite/routes"
	"emailsuite/storage"
	"emailsuite/tracker"
	"emailsuite/utils"
	"emailsuite/worker"
)

func main() {
	logger := log.New(os.Stdout, "SERVER: ", log.Ldate|log.Ltime|log.Lshortfile)

	// Load configuration
	if err := config.LoadConfig(); err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Structured logger for the tracking pipeline
	appLog := logrus.New()
	appLog.SetFormatter(&logrus.JSONFormatter{})
	if config.AppConfig.Environment == "development" {
		appLog.SetLevel(logrus.DebugLevel)
	}

	if config.AppConfig.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         config.AppConfig.SentryDSN,
			Environment: config.AppConfig.Environment,
		}); err != nil {
			logger.Printf("Sentry init failed: %v", err)
		}
	}

	if err := config.ConnectDB(); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := config.ConnectRedis(); err != nil {
		logger.Fatalf("Failed to connect to Redis: %v", err)
	}

	// Wire the tracking pipeline
	store := storage.NewTrackingStore(config.DB)
	publisher := notify.NewPublisher(config.RedisClient, appLog)

	var locator tracker.Locator
	if config.AppConfig.GeoIPDBPath != "" {
		maxmind, err := tracker.NewMaxMindLocator(config.AppConfig.GeoIPDBPath)
		if err != nil {
			logger.Printf("GeoIP database unavailable, falling back to local lookup: %v", err)
			locator = tracker.NewLocalLocator()
		} else {
			defer maxmind.Close()
			locator = maxmind
		}
	} else {
		locator = tracker.NewLocalLocator()
	}

	recorder := tracker.NewRecorder(store, locator, publisher, appLog)
	reports := analytics.NewService(store, appLog)

	mailer := utils.NewSMTPMailer(
		config.AppConfig.SMTPHost,
		config.AppConfig.SMTPPort,
		config.AppConfig.SMTPUsername,
		config.AppConfig.SMTPPassword,
	)
	sender := utils.NewCampaignSender(config.DB, mailer, publisher, log.New(os.Stdout, "SENDER: ", log.LstdFlags))

	// Create Fiber app
	app := fiber.New()
	app.Use(middleware.CORS())

	// Campaign scheduler
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	scheduler := worker.NewSchedulerWorker(config.DB, sender, log.New(os.Stdout, "SCHEDULER: ", log.LstdFlags))
	go scheduler.Start(ctx)

	routes.SetupRoutes(app, routes.Deps{
		DB:        config.DB,
		Recorder:  recorder,
		Analytics: reports,
		Publisher: publisher,
		Sender:    sender,
	})

	logger.Printf("🚀 Server starting on port %s", config.AppConfig.ServerPort)
	if err := app.Listen(":" + config.AppConfig.ServerPort); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}
