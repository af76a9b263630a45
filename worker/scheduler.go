package worker

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"

	"emailsuite/models"
	"emailsuite/utils"
)

// SchedulerWorker picks up campaigns whose scheduled time has passed and
// hands them to the sender. Paused campaigns are never picked up; a send
// already handed off runs to completion regardless of later status changes.
type SchedulerWorker struct {
	DB     *gorm.DB
	Sender *utils.CampaignSender
	Logger *log.Logger

	Interval time.Duration
}

func NewSchedulerWorker(db *gorm.DB, sender *utils.CampaignSender, logger *log.Logger) *SchedulerWorker {
	return &SchedulerWorker{
		DB:       db,
		Sender:   sender,
		Logger:   logger,
		Interval: 30 * time.Second,
	}
}

func (sw *SchedulerWorker) Start(ctx context.Context) {
	// Initial delay to let the server start up
	time.Sleep(10 * time.Second)

	sw.Logger.Println("Campaign scheduler started")

	ticker := time.NewTicker(sw.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			sw.Logger.Println("Campaign scheduler shutting down...")
			return
		case <-ticker.C:
			sw.processDueCampaigns(ctx)
		}
	}
}

func (sw *SchedulerWorker) processDueCampaigns(ctx context.Context) {
	var due []models.Campaign
	if err := sw.DB.Where("status = ? AND scheduled_at IS NOT NULL AND scheduled_at <= ?",
		"scheduled", time.Now()).Find(&due).Error; err != nil {
		sw.Logger.Printf("Error fetching due campaigns: %v", err)
		return
	}

	for i := range due {
		campaign := due[i]

		// Claim the campaign before launching so the next tick skips it
		res := sw.DB.Model(&models.Campaign{}).
			Where("id = ? AND status = ?", campaign.ID, "scheduled").
			Update("status", "sending")
		if res.Error != nil {
			sw.Logger.Printf("Error claiming campaign %d: %v", campaign.ID, res.Error)
			continue
		}
		if res.RowsAffected == 0 {
			continue
		}

		go func(campaign models.Campaign) {
			result, err := sw.Sender.SendCampaign(ctx, &campaign)
			if err != nil {
				sw.Logger.Printf("Scheduled campaign %d failed: %v", campaign.ID, err)
				sw.DB.Model(&models.Campaign{}).Where("id = ?", campaign.ID).
					Update("status", "paused")
				return
			}
			sw.Logger.Printf("Scheduled campaign %d finished: %d sent, %d failed",
				campaign.ID, result.Sent, result.Failed)
		}(campaign)
	}
}
