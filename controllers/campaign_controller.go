package controller

import (
	"log"
	"strings"
	"time"

	"github.com/badoux/checkmail"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"emailsuite/analytics"
	"emailsuite/models"
	"emailsuite/notify"
	"emailsuite/utils"
)

type CampaignController struct {
	DB        *gorm.DB
	Logger    *log.Logger
	Sender    *utils.CampaignSender
	Alerts    *notify.Publisher
	Analytics *analytics.Service
}

func NewCampaignController(db *gorm.DB, logger *log.Logger, sender *utils.CampaignSender, alerts *notify.Publisher, reports *analytics.Service) *CampaignController {
	return &CampaignController{
		DB:        db,
		Logger:    logger,
		Sender:    sender,
		Alerts:    alerts,
		Analytics: reports,
	}
}

type CreateCampaignRequest struct {
	Name        string     `json:"name" validate:"required,max=200"`
	Subject     string     `json:"subject" validate:"required,max=200"`
	Description string     `json:"description"`
	HTMLBody    string     `json:"html_body" validate:"required"`
	TrackOpens  *bool      `json:"track_opens"`
	TrackClicks *bool      `json:"track_clicks"`
	ScheduledAt *time.Time `json:"scheduled_at"`
}

func (cc *CampaignController) CreateCampaign(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var req CreateCampaignRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	campaign := models.Campaign{
		UserID:      user.ID,
		Name:        req.Name,
		Subject:     req.Subject,
		Description: req.Description,
		HTMLBody:    req.HTMLBody,
		Status:      "draft",
		TrackOpens:  true,
		TrackClicks: true,
		ScheduledAt: req.ScheduledAt,
	}
	if req.TrackOpens != nil {
		campaign.TrackOpens = *req.TrackOpens
	}
	if req.TrackClicks != nil {
		campaign.TrackClicks = *req.TrackClicks
	}
	if req.ScheduledAt != nil {
		campaign.Status = "scheduled"
	}

	if err := cc.DB.Create(&campaign).Error; err != nil {
		cc.Logger.Printf("Failed to create campaign: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create campaign",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(campaign))
}

func (cc *CampaignController) GetCampaigns(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var total int64
	cc.DB.Model(&models.Campaign{}).Where("user_id = ?", user.ID).Count(&total)

	var campaigns []models.Campaign
	if err := cc.DB.Where("user_id = ?", user.ID).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&campaigns).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch campaigns", err)
	}

	return c.JSON(utils.PaginatedResponse{
		Data:  campaigns,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

func (cc *CampaignController) GetCampaign(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	campaign, err := cc.ownedCampaign(c, user)
	if campaign == nil {
		return err
	}

	var recipientCount int64
	cc.DB.Model(&models.CampaignRecipient{}).Where("campaign_id = ?", campaign.ID).Count(&recipientCount)

	return c.JSON(fiber.Map{
		"success":         true,
		"data":            campaign,
		"recipient_count": recipientCount,
	})
}

type UpdateCampaignRequest struct {
	Name        *string    `json:"name"`
	Subject     *string    `json:"subject"`
	Description *string    `json:"description"`
	HTMLBody    *string    `json:"html_body"`
	TrackOpens  *bool      `json:"track_opens"`
	TrackClicks *bool      `json:"track_clicks"`
	ScheduledAt *time.Time `json:"scheduled_at"`
}

func (cc *CampaignController) UpdateCampaign(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	campaign, err := cc.ownedCampaign(c, user)
	if campaign == nil {
		return err
	}

	// Only campaigns that have not started sending can be edited
	if campaign.Status != "draft" && campaign.Status != "scheduled" && campaign.Status != "paused" {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Campaign can no longer be edited",
		})
	}

	var req UpdateCampaignRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Name != nil {
		campaign.Name = *req.Name
	}
	if req.Subject != nil {
		campaign.Subject = *req.Subject
	}
	if req.Description != nil {
		campaign.Description = *req.Description
	}
	if req.HTMLBody != nil {
		campaign.HTMLBody = *req.HTMLBody
	}
	if req.TrackOpens != nil {
		campaign.TrackOpens = *req.TrackOpens
	}
	if req.TrackClicks != nil {
		campaign.TrackClicks = *req.TrackClicks
	}
	if req.ScheduledAt != nil {
		campaign.ScheduledAt = req.ScheduledAt
		if campaign.Status == "draft" {
			campaign.Status = "scheduled"
		}
	}

	if err := cc.DB.Save(campaign).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update campaign", err)
	}

	return c.JSON(utils.SuccessResponse(campaign))
}

func (cc *CampaignController) DeleteCampaign(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	campaign, err := cc.ownedCampaign(c, user)
	if campaign == nil {
		return err
	}

	if campaign.Status == "sending" {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Campaign is currently sending and cannot be deleted",
		})
	}

	tx := cc.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	// Delete events before messages, messages before the campaign. The
	// message-id subquery must run while the tracked messages still exist.
	for _, table := range []interface{}{&models.OpenEvent{}, &models.ClickEvent{}} {
		messageIDs := tx.Model(&models.TrackedMessage{}).Select("id").Where("campaign_id = ?", campaign.ID)
		if err := tx.Where("message_id IN (?)", messageIDs).Delete(table).Error; err != nil {
			tx.Rollback()
			cc.Logger.Printf("Failed to delete tracking events: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to delete campaign dependencies",
			})
		}
	}

	for _, table := range []interface{}{&models.TrackedMessage{}, &models.CampaignRecipient{}} {
		if err := tx.Where("campaign_id = ?", campaign.ID).Delete(table).Error; err != nil {
			tx.Rollback()
			cc.Logger.Printf("Failed to delete related records: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to delete campaign dependencies",
			})
		}
	}

	if err := tx.Delete(campaign).Error; err != nil {
		tx.Rollback()
		cc.Logger.Printf("Failed to delete campaign: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete campaign",
		})
	}

	if err := tx.Commit().Error; err != nil {
		cc.Logger.Printf("Transaction commit failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to complete deletion",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Campaign deleted",
	})
}

type AddRecipientsRequest struct {
	Recipients []struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	} `json:"recipients" validate:"required,min=1"`
}

func (cc *CampaignController) AddRecipients(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	campaign, err := cc.ownedCampaign(c, user)
	if campaign == nil {
		return err
	}

	if campaign.Status != "draft" && campaign.Status != "scheduled" && campaign.Status != "paused" {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Recipients cannot be added after sending has started",
		})
	}

	var req AddRecipientsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if len(req.Recipients) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "At least one recipient is required",
		})
	}

	var recipients []models.CampaignRecipient
	var rejected []string
	for _, r := range req.Recipients {
		email := strings.TrimSpace(strings.ToLower(r.Email))
		if err := checkmail.ValidateFormat(email); err != nil {
			rejected = append(rejected, r.Email)
			continue
		}
		recipients = append(recipients, models.CampaignRecipient{
			CampaignID: campaign.ID,
			Email:      email,
			Name:       r.Name,
		})
	}

	if len(recipients) > 0 {
		if err := cc.DB.Create(&recipients).Error; err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to add recipients", err)
		}
	}

	cc.DB.Model(&models.Campaign{}).Where("id = ?", campaign.ID).
		UpdateColumn("total_recipients", gorm.Expr(
			"(SELECT COUNT(*) FROM campaign_recipients WHERE campaign_id = ? AND deleted_at IS NULL)", campaign.ID))

	return c.JSON(fiber.Map{
		"success":  true,
		"added":    len(recipients),
		"rejected": rejected,
	})
}

// ownedCampaign loads the campaign from the :id param and enforces ownership.
// On failure the response has already been written and nil is returned for
// the campaign.
func (cc *CampaignController) ownedCampaign(c *fiber.Ctx, user *models.User) (*models.Campaign, error) {
	id := utils.ParseUint(c.Params("id"))
	if id == 0 {
		return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid campaign ID",
		})
	}

	var campaign models.Campaign
	if err := cc.DB.Where("id = ? AND user_id = ?", id, user.ID).First(&campaign).Error; err != nil {
		return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Campaign not found",
		})
	}
	return &campaign, nil
}
