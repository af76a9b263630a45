package controller

import (
	"encoding/base64"
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"emailsuite/analytics"
	"emailsuite/models"
	"emailsuite/tracker"
	"emailsuite/utils"
)

// trackingPixel is a 1x1 transparent PNG
var trackingPixel, _ = base64.StdEncoding.DecodeString(
	"iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAAC0lEQVR4nGNgAAIAAAUAAXpeqz8AAAAASUVORK5CYII=")

type TrackingController struct {
	DB        *gorm.DB
	Logger    *log.Logger
	Recorder  *tracker.Recorder
	Analytics *analytics.Service
}

func NewTrackingController(db *gorm.DB, logger *log.Logger, recorder *tracker.Recorder, reports *analytics.Service) *TrackingController {
	return &TrackingController{
		DB:        db,
		Logger:    logger,
		Recorder:  recorder,
		Analytics: reports,
	}
}

// TrackPixel serves the open-tracking pixel. The pixel is always returned
// with 200, even on unknown IDs or storage failure: a broken image in a
// recipient's mail client is never acceptable.
func (tc *TrackingController) TrackPixel(c *fiber.Ctx) error {
	trackingID := c.Params("trackingID")

	if err := tc.Recorder.RecordOpen(c.Context(), trackingID, tracker.Metadata{
		IP:        c.IP(),
		UserAgent: c.Get("User-Agent"),
	}); err != nil {
		tc.Logger.Printf("Failed to record open for %s: %v", trackingID, err)
	}

	c.Set("Content-Type", "image/png")
	c.Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	c.Set("Pragma", "no-cache")
	c.Set("Expires", "0")
	return c.Status(fiber.StatusOK).Send(trackingPixel)
}

// TrackClick records the click and redirects to the original destination.
// The redirect always happens: losing the recipient on a tracking failure
// is worse than losing the event.
func (tc *TrackingController) TrackClick(c *fiber.Ctx) error {
	trackingID := c.Params("trackingID")
	destination := c.Query("url")
	if destination == "" {
		destination = "/"
	}

	if err := tc.Recorder.RecordClick(c.Context(), trackingID, destination, tracker.Metadata{
		IP:        c.IP(),
		UserAgent: c.Get("User-Agent"),
	}); err != nil {
		tc.Logger.Printf("Failed to record click for %s: %v", trackingID, err)
	}

	return c.Redirect(destination, fiber.StatusFound)
}

type RecordOpenRequest struct {
	Timestamp *time.Time `json:"timestamp"`
}

// RecordOpen is the JSON ingestion endpoint for callers that cannot use the
// pixel, such as webhook relays from sending providers.
func (tc *TrackingController) RecordOpen(c *fiber.Ctx) error {
	trackingID := c.Params("trackingID")

	var req RecordOpenRequest
	// Body is optional
	_ = c.BodyParser(&req)

	meta := tracker.Metadata{
		IP:        c.IP(),
		UserAgent: c.Get("User-Agent"),
	}
	if req.Timestamp != nil {
		meta.Timestamp = *req.Timestamp
	}

	if err := tc.Recorder.RecordOpen(c.Context(), trackingID, meta); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to record open",
		})
	}

	// Unknown tracking IDs are deliberately indistinguishable from
	// recorded ones
	return c.JSON(fiber.Map{
		"success": true,
	})
}

// TrackAnalytics is the unauthenticated per-message report endpoint. Like
// the pixel and click handlers, the opaque tracking ID is the capability.
func (tc *TrackingController) TrackAnalytics(c *fiber.Ctx) error {
	trackingID := c.Params("trackingID")

	report, err := tc.Analytics.MessageReport(c.Context(), trackingID)
	if err != nil {
		if errors.Is(err, analytics.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Message not found",
			})
		}
		tc.Logger.Printf("Message analytics failed for %s: %v", trackingID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to compute message analytics",
		})
	}

	return c.JSON(utils.SuccessResponse(report))
}

// GetMessageAnalytics returns the per-message report for the owner
func (tc *TrackingController) GetMessageAnalytics(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	trackingID := c.Params("trackingID")

	var msg models.TrackedMessage
	if err := tc.DB.Where("tracking_id = ? AND user_id = ?", trackingID, user.ID).First(&msg).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Message not found",
		})
	}

	report, err := tc.Analytics.MessageReport(c.Context(), trackingID)
	if err != nil {
		if errors.Is(err, analytics.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Message not found",
			})
		}
		tc.Logger.Printf("Message analytics failed for %s: %v", trackingID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to compute message analytics",
		})
	}

	return c.JSON(utils.SuccessResponse(report))
}

// GetMessages lists the user's tracked messages, most recent first
func (tc *TrackingController) GetMessages(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := tc.DB.Model(&models.TrackedMessage{}).Where("user_id = ?", user.ID)
	if campaignID := utils.ParseUint(c.Query("campaign_id")); campaignID != 0 {
		query = query.Where("campaign_id = ?", campaignID)
	}

	var total int64
	query.Count(&total)

	var messages []models.TrackedMessage
	if err := query.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&messages).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch messages", err)
	}

	return c.JSON(utils.PaginatedResponse{
		Data:  messages,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}
