package models

import (
	"time"

	"gorm.io/gorm"
)

// Campaign represents an email campaign
type Campaign struct {
	gorm.Model
	UserID uint `gorm:"not null;index" json:"user_id"`

	// Campaign details
	Name        string `gorm:"not null" json:"name"`
	Subject     string `gorm:"not null" json:"subject"`
	Description string `json:"description"`
	HTMLBody    string `gorm:"type:text" json:"html_body"`

	// Scheduling
	Status      string     `gorm:"default:'draft'" json:"status"` // draft, scheduled, sending, sent, paused
	ScheduledAt *time.Time `json:"scheduled_at"`
	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`

	// Tracking settings
	TrackOpens  bool `gorm:"default:true" json:"track_opens"`
	TrackClicks bool `gorm:"default:true" json:"track_clicks"`

	// Send outcome (denormalized for listing)
	TotalRecipients int `gorm:"default:0" json:"total_recipients"`
	SentCount       int `gorm:"default:0" json:"sent_count"`
	FailedCount     int `gorm:"default:0" json:"failed_count"`

	// Relations
	Recipients []CampaignRecipient `gorm:"foreignKey:CampaignID;constraint:OnDelete:CASCADE" json:"recipients,omitempty"`
	Messages   []TrackedMessage    `gorm:"foreignKey:CampaignID;constraint:OnDelete:CASCADE" json:"messages,omitempty"`
}

// CampaignRecipient is one address a campaign will be sent to
type CampaignRecipient struct {
	gorm.Model
	CampaignID uint   `gorm:"not null;index" json:"campaign_id"`
	Email      string `gorm:"not null" json:"email"`
	Name       string `json:"name"`

	// Relations
	Campaign Campaign `json:"-"`
}
