package models

import (
	"time"

	"gorm.io/gorm"
)

// TrackedMessage is one outbound tracked email. The tracking ID is issued at
// send time and is immutable; only ProviderMessageID is ever backfilled.
type TrackedMessage struct {
	gorm.Model
	TrackingID string `gorm:"uniqueIndex;not null" json:"tracking_id"`
	UserID     uint   `gorm:"not null;index" json:"user_id"`
	CampaignID *uint  `gorm:"index" json:"campaign_id,omitempty"`

	Recipient string `gorm:"not null" json:"recipient"`
	Subject   string `json:"subject"`

	// Backfilled once the SMTP provider returns its own message id
	ProviderMessageID string `json:"provider_message_id,omitempty"`

	// Relations
	User       User         `json:"-"`
	Campaign   *Campaign    `json:"-"`
	OpenEvents []OpenEvent  `gorm:"foreignKey:MessageID;constraint:OnDelete:CASCADE" json:"open_events,omitempty"`
	ClickEvents []ClickEvent `gorm:"foreignKey:MessageID;constraint:OnDelete:CASCADE" json:"click_events,omitempty"`
}

// OpenEvent records one fetch of the tracking pixel. Append-only; repeat
// opens from the same client are expected and meaningful.
type OpenEvent struct {
	gorm.Model
	MessageID uint `gorm:"not null;index" json:"message_id"`

	IPAddress  string    `json:"ip_address"`
	UserAgent  string    `json:"user_agent"`
	DeviceType string    `json:"device_type"` // desktop, mobile, tablet
	Location   string    `json:"location"`
	Timestamp  time.Time `gorm:"not null;index" json:"timestamp"`

	// Relations
	Message TrackedMessage `json:"-"`
}

// ClickEvent records one traversal of a rewritten link. URL is the original
// destination, not the tracking URL.
type ClickEvent struct {
	gorm.Model
	MessageID uint `gorm:"not null;index" json:"message_id"`

	URL       string    `gorm:"not null" json:"url"`
	IPAddress string    `json:"ip_address"`
	UserAgent string    `json:"user_agent"`
	Timestamp time.Time `gorm:"not null;index" json:"timestamp"`

	// Relations
	Message TrackedMessage `json:"-"`
}
