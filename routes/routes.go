package routes

import (
	"log"
	"os"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/websocket/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"emailsuite/analytics"
	controller "emailsuite/controllers"
	"emailsuite/middleware"
	"emailsuite/notify"
	"emailsuite/tracker"
	"emailsuite/utils"
)

// Deps carries the shared services the route handlers are built on. Handlers
// receive everything through here; nothing reaches for package-level state.
type Deps struct {
	DB        *gorm.DB
	Recorder  *tracker.Recorder
	Analytics *analytics.Service
	Publisher *notify.Publisher
	Sender    *utils.CampaignSender
}

func SetupAuthRoutes(app *fiber.App, d Deps) {
	auth := app.Group("/auth", logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Public auth endpoints
	auth.Post("/register", middleware.AuthRateLimiter(), controller.Register)
	auth.Post("/login", middleware.AuthRateLimiter(), controller.Login)
	auth.Post("/refresh", controller.RefreshToken)

	// Protected auth endpoints
	protectedAuth := auth.Group("", middleware.Protected())
	protectedAuth.Get("/me", controller.GetMe)

	// Payment routes
	payment := app.Group("/payment")
	payment.Post("/webhook", controller.HandlePaymentWebhook)
	payment.Get("/plans", controller.ListPlans)
	protectedPayment := payment.Group("", middleware.Protected())
	protectedPayment.Post("/create-intent", controller.CreatePaymentIntent)
	protectedPayment.Get("/transactions", controller.GetTransactions)
}

func SetupAPIRoutes(app *fiber.App, d Deps) {
	campaignController := controller.NewCampaignController(
		d.DB, log.New(os.Stdout, "CAMPAIGN: ", log.LstdFlags), d.Sender, d.Publisher, d.Analytics)
	trackingController := controller.NewTrackingController(
		d.DB, log.New(os.Stdout, "TRACKING: ", log.LstdFlags), d.Recorder, d.Analytics)
	dashboardController := controller.NewDashboardController(
		d.DB, log.New(os.Stdout, "DASHBOARD: ", log.LstdFlags))

	// Public tracking endpoints. These are hit by recipients' mail clients
	// and carry no credentials; the opaque tracking ID is the capability.
	app.Get("/track/pixel/:trackingID", trackingController.TrackPixel)
	app.Get("/track/click/:trackingID", trackingController.TrackClick)
	app.Post("/track/open/:trackingID", trackingController.RecordOpen)
	app.Get("/track/analytics/:trackingID", trackingController.TrackAnalytics)

	// API group with versioning and protection
	api := app.Group("/api/v1", middleware.Protected(), logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Dashboard routes
	dashboard := api.Group("/dashboard")
	dashboard.Get("/stats", dashboardController.GetDashboardStats)
	dashboard.Get("/recent-campaigns", dashboardController.GetRecentCampaigns)

	// Campaign routes
	campaign := api.Group("/campaigns")
	campaign.Post("/", campaignController.CreateCampaign)
	campaign.Get("/", campaignController.GetCampaigns)
	campaign.Get("/:id", campaignController.GetCampaign)
	campaign.Put("/:id", campaignController.UpdateCampaign)
	campaign.Delete("/:id", campaignController.DeleteCampaign)
	campaign.Post("/:id/recipients", campaignController.AddRecipients)
	campaign.Post("/:id/start", campaignController.StartCampaign)
	campaign.Post("/:id/pause", campaignController.PauseCampaign)
	campaign.Post("/:id/resume", campaignController.ResumeCampaign)
	campaign.Get("/:id/analytics", campaignController.GetCampaignAnalytics)

	// Tracked message routes
	messages := api.Group("/messages")
	messages.Get("/", trackingController.GetMessages)
	messages.Get("/:trackingID/analytics", trackingController.GetMessageAnalytics)

	// WebSocket live feed for tracking events and alerts
	app.Get("/api/v1/tracking/ws", middleware.Protected(), websocket.New(func(c *websocket.Conn) {
		controller.HandleTrackingWS(c)
	}))
}

func SetupRoutes(app *fiber.App, d Deps) {
	// Initialize Stripe
	controller.InitStripe()

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	SetupAuthRoutes(app, d)
	SetupAPIRoutes(app, d)

	// 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "Not Found",
			"message": "The requested resource was not found",
		})
	})
}
