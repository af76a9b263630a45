package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a user account in the system
type User struct {
	gorm.Model

	// Authentication fields
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`

	// Profile information
	Name     *string `json:"name,omitempty"`
	Company  *string `json:"company,omitempty"`
	Timezone string  `gorm:"default:'UTC'" json:"timezone"`

	// Account status
	IsActive bool `gorm:"default:true" json:"is_active"`

	// Credit-based plan information
	PlanID       *uint  `json:"plan_id,omitempty"`
	PlanName     string `gorm:"default:'free'" json:"plan_name"`   // free, starter, grow
	EmailCredits int    `gorm:"default:5000" json:"email_credits"` // free credits for new users

	// Stripe integration
	StripeCustomerID *string `gorm:"index" json:"stripe_customer_id,omitempty"`

	// Relations
	Campaigns    []Campaign          `gorm:"foreignKey:UserID" json:"campaigns,omitempty"`
	Messages     []TrackedMessage    `gorm:"foreignKey:UserID" json:"messages,omitempty"`
	Transactions []CreditTransaction `gorm:"foreignKey:UserID" json:"transactions,omitempty"`
}

// RefreshToken stores issued refresh tokens so they can be revoked
type RefreshToken struct {
	gorm.Model
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Token     string    `gorm:"uniqueIndex;not null" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	Revoked   bool      `gorm:"default:false" json:"revoked"`

	// Relations
	User User `json:"-"`
}
