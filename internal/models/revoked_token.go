package models

import (
	"time"
)

// RevokedToken marks a session token as invalidated before its natural expiry.
// An entry is only meaningful until ExpiresAt; past that the token would be
// rejected by expiry anyway, so lookups may delete it.
type RevokedToken struct {
	ID        uint      `json:"-" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	Token     string    `json:"token" gorm:"type:varchar(500);not null;unique;index"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null;index"`
}

// TableName specifies the table name for the RevokedToken model
func (RevokedToken) TableName() string {
	return "revoked_tokens"
}
