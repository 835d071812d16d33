package models

import (
	"time"
)

// Subscription statuses
const (
	SubscriptionStatusActive    = "active"
	SubscriptionStatusExpired   = "expired"
	SubscriptionStatusCancelled = "cancelled"
	// Reserved for future payment flows, not used by the lifecycle engine
	SubscriptionStatusPending = "pending"
)

// Subscription represents a time-bound entitlement attached to an API key.
// A key without a subscription (or with a disabled one) is unrestricted.
type Subscription struct {
	ID           uint       `json:"-" gorm:"primaryKey"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	APIKeyUID    string     `json:"api_key_uid" gorm:"type:uuid;not null;unique;index"`
	Enabled      bool       `json:"enabled"`
	Status       string     `json:"status" gorm:"type:varchar(20);not null;default:'active';index"`
	StartDate    time.Time  `json:"start_date" gorm:"not null"`
	EndDate      time.Time  `json:"end_date" gorm:"not null;index"`
	AutoRenew    bool       `json:"auto_renew" gorm:"default:false"`
	RenewalDate  *time.Time `json:"renewal_date"`
	Price        float64    `json:"price"`
	Currency     string     `json:"currency" gorm:"type:varchar(10);default:'USD'"`
	DurationDays int        `json:"duration_days"`
}

// TableName specifies the table name for the Subscription model
func (Subscription) TableName() string {
	return "subscriptions"
}
