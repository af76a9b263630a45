package notify

import (
	"fmt"
	"time"
)

type EventType string

const (
	EventOpenRecorded    EventType = "open_recorded"
	EventClickRecorded   EventType = "click_recorded"
	EventSpikeDetected   EventType = "open_spike"
	EventRevivalDetected EventType = "email_revival"
)

// TrackingEvent is the envelope broadcast on a user's tracking channel.
// Exactly one payload pointer is set, matching Type.
type TrackingEvent struct {
	Type      EventType        `json:"type"`
	UserID    uint             `json:"user_id"`
	Timestamp time.Time        `json:"timestamp"`
	Open      *OpenRecorded    `json:"open,omitempty"`
	Click     *ClickRecorded   `json:"click,omitempty"`
	Spike     *SpikeDetected   `json:"spike,omitempty"`
	Revival   *RevivalDetected `json:"revival,omitempty"`
}

// OpenRecorded is published after each stored pixel fetch
type OpenRecorded struct {
	TrackingID string    `json:"tracking_id"`
	Recipient  string    `json:"recipient"`
	Subject    string    `json:"subject"`
	DeviceType string    `json:"device_type"`
	Location   string    `json:"location"`
	OpenedAt   time.Time `json:"opened_at"`
}

// ClickRecorded is published after each stored link click
type ClickRecorded struct {
	TrackingID string    `json:"tracking_id"`
	Recipient  string    `json:"recipient"`
	URL        string    `json:"url"`
	ClickedAt  time.Time `json:"clicked_at"`
}

// SpikeDetected signals a burst of opens for one message
type SpikeDetected struct {
	TrackingID string `json:"tracking_id"`
	Recipient  string `json:"recipient"`
	Subject    string `json:"subject"`
	OpenCount  int    `json:"open_count"`
}

// RevivalDetected signals an open long after the first one
type RevivalDetected struct {
	TrackingID string `json:"tracking_id"`
	Recipient  string `json:"recipient"`
	Subject    string `json:"subject"`
	Days       int    `json:"days"`
}

// Alert is a user-facing notification for the dashboard bell
type Alert struct {
	UserID  uint   `json:"user_id"`
	Title   string `json:"title"`
	Message string `json:"message"`
	Type    string `json:"type"` // info, warning, success
}

// TrackingChannel names the per-user channel carrying TrackingEvent payloads
func TrackingChannel(userID uint) string {
	return fmt.Sprintf("tracking_events:%d", userID)
}

// AlertChannel names the per-user channel carrying Alert payloads
func AlertChannel(userID uint) string {
	return fmt.Sprintf("notification_alerts:%d", userID)
}
