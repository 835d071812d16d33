package models

import (
	"time"
)

// Audit actions emitted by the lifecycle engine and admin operations
const (
	AuditActionKeyCreated            = "key_created"
	AuditActionKeyUpdated            = "key_updated"
	AuditActionKeyDeleted            = "key_deleted"
	AuditActionLogin                 = "login"
	AuditActionLogout                = "logout"
	AuditActionTokenRefreshed        = "token_refreshed"
	AuditActionSubscriptionActivated = "subscription_activated"
	AuditActionSubscriptionRenewed   = "subscription_renewed"
	AuditActionSubscriptionCancelled = "subscription_cancelled"
	AuditActionSubscriptionExpired   = "subscription_expired"
	AuditActionSubscriptionAutoRenew = "subscription_auto_renewed"
	AuditActionMaintenanceSweep      = "maintenance_sweep"
)

// AuditLog is an append-only record of an admin or lifecycle action
type AuditLog struct {
	ID        string    `json:"id" gorm:"primaryKey;type:uuid"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
	// Empty for system-wide actions like the maintenance sweep
	APIKeyUID string    `json:"api_key_uid" gorm:"type:varchar(36);index"`
	Action    string    `json:"action" gorm:"type:varchar(50);not null;index"`
	Detail    string    `json:"detail" gorm:"type:varchar(500)"`
}

// TableName specifies the table name for the AuditLog model
func (AuditLog) TableName() string {
	return "audit_logs"
}
