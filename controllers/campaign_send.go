package controller

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"emailsuite/models"
	"emailsuite/notify"
)

// StartCampaign kicks off sending in the background and returns immediately.
// Once sending has begun it runs to completion: pausing only affects
// campaigns that have not started yet.
func (cc *CampaignController) StartCampaign(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	campaign, err := cc.ownedCampaign(c, user)
	if campaign == nil {
		return err
	}

	if campaign.Status != "draft" && campaign.Status != "scheduled" && campaign.Status != "paused" {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Campaign is already " + campaign.Status,
		})
	}

	var recipientCount int64
	cc.DB.Model(&models.CampaignRecipient{}).Where("campaign_id = ?", campaign.ID).Count(&recipientCount)
	if recipientCount == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Campaign has no recipients",
		})
	}

	if user.EmailCredits < int(recipientCount) {
		return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{
			"error":            "Not enough email credits",
			"credits":          user.EmailCredits,
			"credits_required": recipientCount,
		})
	}

	go func() {
		result, err := cc.Sender.SendCampaign(context.Background(), campaign)
		if err != nil {
			cc.Logger.Printf("Campaign %d send failed: %v", campaign.ID, err)
			cc.DB.Model(&models.Campaign{}).Where("id = ?", campaign.ID).
				Update("status", "paused")
			cc.Alerts.PublishAlert(notify.Alert{
				UserID:  campaign.UserID,
				Title:   "Campaign failed",
				Message: "Campaign " + campaign.Name + " could not be sent: " + err.Error(),
				Type:    "error",
			})
			return
		}
		cc.Logger.Printf("Campaign %d finished: %d sent, %d failed", campaign.ID, result.Sent, result.Failed)
		cc.Alerts.PublishAlert(notify.Alert{
			UserID:  campaign.UserID,
			Title:   "Campaign completed",
			Message: "Campaign " + campaign.Name + " finished sending",
			Type:    "success",
		})
	}()

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"success": true,
		"message": "Campaign sending started",
	})
}

// PauseCampaign flips a scheduled campaign back out of the send queue. It
// does not stop a send already in flight.
func (cc *CampaignController) PauseCampaign(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	campaign, err := cc.ownedCampaign(c, user)
	if campaign == nil {
		return err
	}

	if campaign.Status != "scheduled" && campaign.Status != "draft" {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Only scheduled campaigns can be paused",
		})
	}

	if err := cc.DB.Model(campaign).Update("status", "paused").Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to pause campaign",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Campaign paused",
	})
}

func (cc *CampaignController) ResumeCampaign(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	campaign, err := cc.ownedCampaign(c, user)
	if campaign == nil {
		return err
	}

	if campaign.Status != "paused" {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Only paused campaigns can be resumed",
		})
	}

	status := "draft"
	if campaign.ScheduledAt != nil {
		status = "scheduled"
	}
	if err := cc.DB.Model(campaign).Update("status", status).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to resume campaign",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"status":  status,
	})
}
