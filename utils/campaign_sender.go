package utils

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"gorm.io/gorm"

	"emailsuite/config"
	"emailsuite/metrics"
	"emailsuite/models"
	"emailsuite/notify"
)

// sendBatchSize is how many recipients are in flight at once. Batch N+1 is
// not started until batch N has fully settled.
const sendBatchSize = 10

// AlertPublisher is satisfied by notify.Publisher
type AlertPublisher interface {
	PublishAlert(a notify.Alert)
}

// SendError captures one recipient's failure reason
type SendError struct {
	Recipient string `json:"recipient"`
	Reason    string `json:"reason"`
}

// SendResult is the final summary of one campaign send
type SendResult struct {
	Sent         int         `json:"sent"`
	Failed       int         `json:"failed"`
	ErrorDetails []SendError `json:"error_details,omitempty"`
}

// CampaignSender fans a campaign out to its recipients in fixed-size
// batches. One recipient's failure never aborts the batch or the campaign;
// failures are collected into the result. There is no way to cancel a send
// already in flight: pausing a campaign only flips its status flag, which
// stops future scheduling.
type CampaignSender struct {
	DB     *gorm.DB
	Mailer Mailer
	Alerts AlertPublisher
	Logger *log.Logger

	BaseURL   string
	FromEmail string
	FromName  string

	// ProgressEvery throttles progress alerts to one per this many
	// successful sends (plus one for the final batch)
	ProgressEvery int
}

func NewCampaignSender(db *gorm.DB, mailer Mailer, alerts AlertPublisher, logger *log.Logger) *CampaignSender {
	progressEvery := config.AppConfig.CampaignProgressEvery
	if progressEvery <= 0 {
		progressEvery = 50
	}
	return &CampaignSender{
		DB:            db,
		Mailer:        mailer,
		Alerts:        alerts,
		Logger:        logger,
		BaseURL:       config.AppConfig.TrackingBaseURL,
		FromEmail:     config.AppConfig.FromEmail,
		FromName:      config.AppConfig.FromName,
		ProgressEvery: progressEvery,
	}
}

// SendCampaign delivers the campaign to every recipient and records the
// outcome on the campaign row.
func (cs *CampaignSender) SendCampaign(ctx context.Context, campaign *models.Campaign) (*SendResult, error) {
	var recipients []models.CampaignRecipient
	if err := cs.DB.WithContext(ctx).Where("campaign_id = ?", campaign.ID).Order("id").Find(&recipients).Error; err != nil {
		return nil, fmt.Errorf("loading recipients: %w", err)
	}

	now := time.Now()
	campaign.Status = "sending"
	campaign.StartedAt = &now
	campaign.TotalRecipients = len(recipients)
	if err := cs.DB.WithContext(ctx).Save(campaign).Error; err != nil {
		return nil, fmt.Errorf("marking campaign as sending: %w", err)
	}

	result := &SendResult{}
	notified := 0

	for start := 0; start < len(recipients); start += sendBatchSize {
		end := start + sendBatchSize
		if end > len(recipients) {
			end = len(recipients)
		}
		batch := recipients[start:end]

		var (
			wg sync.WaitGroup
			mu sync.Mutex
		)
		for i := range batch {
			recipient := batch[i]
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := cs.sendToRecipient(ctx, campaign, recipient)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					result.Failed++
					result.ErrorDetails = append(result.ErrorDetails, SendError{
						Recipient: recipient.Email,
						Reason:    err.Error(),
					})
					metrics.CampaignSends.WithLabelValues("failed").Inc()
					cs.Logger.Printf("Failed to send to %s: %v", recipient.Email, err)
				} else {
					result.Sent++
					metrics.CampaignSends.WithLabelValues("sent").Inc()
				}
			}()
		}
		wg.Wait()

		finalBatch := end == len(recipients)
		if result.Sent/cs.ProgressEvery > notified || finalBatch {
			notified = result.Sent / cs.ProgressEvery
			cs.Alerts.PublishAlert(notify.Alert{
				UserID:  campaign.UserID,
				Title:   "Campaign progress",
				Message: fmt.Sprintf("%q: %d of %d emails sent", campaign.Name, result.Sent, len(recipients)),
				Type:    "info",
			})
		}
	}

	done := time.Now()
	campaign.Status = "sent"
	campaign.CompletedAt = &done
	campaign.SentCount = result.Sent
	campaign.FailedCount = result.Failed
	if err := cs.DB.WithContext(ctx).Save(campaign).Error; err != nil {
		return result, fmt.Errorf("marking campaign as sent: %w", err)
	}

	if result.Sent > 0 {
		if err := cs.DB.WithContext(ctx).Model(&models.User{}).
			Where("id = ?", campaign.UserID).
			UpdateColumn("email_credits", gorm.Expr("email_credits - ?", result.Sent)).Error; err != nil {
			cs.Logger.Printf("Failed to deduct credits for user %d: %v", campaign.UserID, err)
		}
	}

	return result, nil
}

// sendToRecipient issues a tracking ID, persists the tracked message,
// injects tracking into the body and hands the email to the mailer.
func (cs *CampaignSender) sendToRecipient(ctx context.Context, campaign *models.Campaign, recipient models.CampaignRecipient) error {
	msg := models.TrackedMessage{
		TrackingID: NewTrackingID(),
		UserID:     campaign.UserID,
		CampaignID: &campaign.ID,
		Recipient:  recipient.Email,
		Subject:    campaign.Subject,
	}
	if err := cs.DB.WithContext(ctx).Create(&msg).Error; err != nil {
		return fmt.Errorf("creating tracked message: %w", err)
	}

	body := InjectTracking(campaign.HTMLBody, cs.BaseURL, msg.TrackingID, campaign.TrackOpens, campaign.TrackClicks)

	providerID, err := cs.Mailer.Send(Email{
		From:     cs.FromEmail,
		FromName: cs.FromName,
		To:       recipient.Email,
		Subject:  campaign.Subject,
		Body:     body,
	})
	if err != nil {
		return err
	}

	if providerID != "" {
		if err := cs.DB.WithContext(ctx).Model(&msg).
			UpdateColumn("provider_message_id", providerID).Error; err != nil {
			cs.Logger.Printf("Failed to backfill provider message id for %s: %v", msg.TrackingID, err)
		}
	}
	return nil
}
