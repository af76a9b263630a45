package controller

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"emailsuite/analytics"
	"emailsuite/models"
	"emailsuite/utils"
)

type DashboardController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewDashboardController(db *gorm.DB, logger *log.Logger) *DashboardController {
	return &DashboardController{
		DB:     db,
		Logger: logger,
	}
}

type DashboardStats struct {
	TotalCampaigns  int64   `json:"total_campaigns"`
	TotalEmailsSent int64   `json:"total_emails_sent"`
	TotalOpens      int64   `json:"total_opens"`
	TotalClicks     int64   `json:"total_clicks"`
	OpenRate        float64 `json:"open_rate"`
	ClickRate       float64 `json:"click_rate"`
	EmailCredits    int     `json:"email_credits"`
}

type RecentCampaign struct {
	ID        uint    `json:"id"`
	Name      string  `json:"name"`
	Status    string  `json:"status"`
	SentCount int     `json:"sent_count"`
	OpenRate  float64 `json:"open_rate"`
	ClickRate float64 `json:"click_rate"`
}

// GetDashboardStats returns the account-wide numbers for the overview cards
func (dc *DashboardController) GetDashboardStats(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	stats := DashboardStats{EmailCredits: user.EmailCredits}

	dc.DB.Model(&models.Campaign{}).
		Where("user_id = ?", user.ID).
		Count(&stats.TotalCampaigns)

	dc.DB.Model(&models.TrackedMessage{}).
		Where("user_id = ?", user.ID).
		Count(&stats.TotalEmailsSent)

	dc.DB.Model(&models.OpenEvent{}).
		Joins("JOIN tracked_messages ON tracked_messages.id = open_events.message_id").
		Where("tracked_messages.user_id = ?", user.ID).
		Count(&stats.TotalOpens)

	dc.DB.Model(&models.ClickEvent{}).
		Joins("JOIN tracked_messages ON tracked_messages.id = click_events.message_id").
		Where("tracked_messages.user_id = ?", user.ID).
		Count(&stats.TotalClicks)

	var emailsWithOpens, emailsWithClicks int64
	dc.DB.Model(&models.OpenEvent{}).
		Joins("JOIN tracked_messages ON tracked_messages.id = open_events.message_id").
		Where("tracked_messages.user_id = ?", user.ID).
		Distinct("open_events.message_id").
		Count(&emailsWithOpens)
	dc.DB.Model(&models.ClickEvent{}).
		Joins("JOIN tracked_messages ON tracked_messages.id = click_events.message_id").
		Where("tracked_messages.user_id = ?", user.ID).
		Distinct("click_events.message_id").
		Count(&emailsWithClicks)

	stats.OpenRate = analytics.CampaignOpenRate(int(emailsWithOpens), int(stats.TotalEmailsSent))
	stats.ClickRate = analytics.CampaignOpenRate(int(emailsWithClicks), int(stats.TotalEmailsSent))

	return c.JSON(utils.SuccessResponse(stats))
}

// GetRecentCampaigns returns the last few campaigns with their headline rates
func (dc *DashboardController) GetRecentCampaigns(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var campaigns []models.Campaign
	if err := dc.DB.Where("user_id = ?", user.ID).
		Order("created_at DESC").
		Limit(5).
		Find(&campaigns).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch campaigns", err)
	}

	recent := make([]RecentCampaign, 0, len(campaigns))
	for _, campaign := range campaigns {
		entry := RecentCampaign{
			ID:        campaign.ID,
			Name:      campaign.Name,
			Status:    campaign.Status,
			SentCount: campaign.SentCount,
		}

		var total, withOpens, withClicks int64
		dc.DB.Model(&models.TrackedMessage{}).
			Where("campaign_id = ?", campaign.ID).
			Count(&total)
		dc.DB.Model(&models.OpenEvent{}).
			Joins("JOIN tracked_messages ON tracked_messages.id = open_events.message_id").
			Where("tracked_messages.campaign_id = ?", campaign.ID).
			Distinct("open_events.message_id").
			Count(&withOpens)
		dc.DB.Model(&models.ClickEvent{}).
			Joins("JOIN tracked_messages ON tracked_messages.id = click_events.message_id").
			Where("tracked_messages.campaign_id = ?", campaign.ID).
			Distinct("click_events.message_id").
			Count(&withClicks)

		entry.OpenRate = analytics.CampaignOpenRate(int(withOpens), int(total))
		entry.ClickRate = analytics.CampaignOpenRate(int(withClicks), int(total))
		recent = append(recent, entry)
	}

	return c.JSON(utils.SuccessResponse(recent))
}
