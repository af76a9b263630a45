package models

import "gorm.io/gorm"

// Plan represents available credit packages
type Plan struct {
	gorm.Model
	Name        string `gorm:"not null;uniqueIndex" json:"name"` // free, starter, grow
	Description string `json:"description"`

	// Email credits
	EmailCredits int `gorm:"not null" json:"email_credits"`
	EmailPrice   int `gorm:"not null" json:"email_price"` // in cents

	// Features
	TrackingEnabled bool `gorm:"default:true" json:"tracking_enabled"`
	DailySendLimit  int  `gorm:"default:500" json:"daily_send_limit"`

	// For display purposes
	DisplayPrice string `gorm:"-" json:"display_price"` // e.g. "$20"
	IsPopular    bool   `gorm:"default:false" json:"is_popular"`

	StripePriceID   string `json:"stripe_price_id"`                            // price_xxx from Stripe dashboard
	BillingInterval string `json:"billing_interval" gorm:"default:'one_time'"` // one_time, monthly, yearly
}

// CreditTransaction records credit purchases and usage
type CreditTransaction struct {
	gorm.Model
	UserID uint  `gorm:"not null;index" json:"user_id"`
	PlanID *uint `json:"plan_id,omitempty"`

	// Credit changes
	EmailCredits int `gorm:"not null" json:"email_credits"` // Positive for purchases, negative for usage

	// Financial information
	Amount        int    `json:"amount"` // in cents
	Currency      string `gorm:"default:'USD'" json:"currency"`
	PaymentStatus string `gorm:"default:'pending'" json:"payment_status"` // pending, completed, failed, refunded

	// Metadata
	Description string `json:"description"`

	StripePaymentIntentID string `json:"stripe_payment_intent_id"`
	ReceiptURL            string `json:"receipt_url,omitempty"`

	// Relations
	User User  `json:"-"`
	Plan *Plan `json:"plan,omitempty"`
}
