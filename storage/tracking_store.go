package storage

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"emailsuite/models"
)

// TrackingStore is the gorm-backed persistence layer for tracked messages
// and their events. It satisfies both tracker.Store and analytics.Store.
type TrackingStore struct {
	db *gorm.DB
}

func NewTrackingStore(db *gorm.DB) *TrackingStore {
	return &TrackingStore{db: db}
}

// MessageByTrackingID returns (nil, nil) when the tracking ID is unknown
func (s *TrackingStore) MessageByTrackingID(ctx context.Context, trackingID string) (*models.TrackedMessage, error) {
	var msg models.TrackedMessage
	err := s.db.WithContext(ctx).Where("tracking_id = ?", trackingID).First(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (s *TrackingStore) SaveOpen(ctx context.Context, event *models.OpenEvent) error {
	return s.db.WithContext(ctx).Create(event).Error
}

func (s *TrackingStore) SaveClick(ctx context.Context, event *models.ClickEvent) error {
	return s.db.WithContext(ctx).Create(event).Error
}

// OpensByMessage returns the message's opens in insertion order
func (s *TrackingStore) OpensByMessage(ctx context.Context, messageID uint) ([]models.OpenEvent, error) {
	var opens []models.OpenEvent
	err := s.db.WithContext(ctx).
		Where("message_id = ?", messageID).
		Order("id").
		Find(&opens).Error
	return opens, err
}

func (s *TrackingStore) ClicksByMessage(ctx context.Context, messageID uint) ([]models.ClickEvent, error) {
	var clicks []models.ClickEvent
	err := s.db.WithContext(ctx).
		Where("message_id = ?", messageID).
		Order("id").
		Find(&clicks).Error
	return clicks, err
}

// CampaignByID returns (nil, nil) when the campaign does not exist
func (s *TrackingStore) CampaignByID(ctx context.Context, id uint) (*models.Campaign, error) {
	var campaign models.Campaign
	err := s.db.WithContext(ctx).First(&campaign, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &campaign, nil
}

// MessagesByCampaign loads every tracked message sent for the campaign,
// matched on the explicit foreign key
func (s *TrackingStore) MessagesByCampaign(ctx context.Context, campaignID uint) ([]models.TrackedMessage, error) {
	var messages []models.TrackedMessage
	err := s.db.WithContext(ctx).
		Where("campaign_id = ?", campaignID).
		Order("id").
		Find(&messages).Error
	return messages, err
}
