package models

import (
	"time"
)

// API key types
const (
	KeyTypeAdmin  = "admin"
	KeyTypeNormal = "normal"
)

// APIKey represents an issued API key
type APIKey struct {
	ID         uint       `json:"-" gorm:"primaryKey"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	UID        string     `json:"uid" gorm:"type:uuid;not null;unique;index"`
	Key        string     `json:"-" gorm:"type:varchar(255);not null;unique;index"`
	Name       string     `json:"name" gorm:"type:varchar(255)"`
	Type       string     `json:"type" gorm:"type:varchar(20);not null;default:'normal';index"`
	// No column default: gorm would skip a zero-value field carrying one on
	// Create, making it impossible to insert a deactivated key
	IsActive   bool       `json:"is_active" gorm:"index"`
	UsageCount int64      `json:"usage_count" gorm:"default:0"`
	LastUsedAt *time.Time `json:"last_used_at"`

	// Relationships
	Subscription *Subscription `json:"subscription,omitempty" gorm:"foreignKey:APIKeyUID;references:UID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the APIKey model
func (APIKey) TableName() string {
	return "api_keys"
}

// IsAdmin reports whether the key grants access to management operations
func (k *APIKey) IsAdmin() bool {
	return k.Type == KeyTypeAdmin
}
