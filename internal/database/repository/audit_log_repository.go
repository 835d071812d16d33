package repository

import (
	"github.com/nexkey/nexkey-admin-backend/internal/models"
	"gorm.io/gorm"
)

// AuditLogRepository handles database operations for audit records
type AuditLogRepository struct {
	db *gorm.DB
}

// NewAuditLogRepository creates a new AuditLogRepository instance
func NewAuditLogRepository(db *gorm.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

// Append adds an audit record; audit logs are never updated or deleted
func (r *AuditLogRepository) Append(entry *models.AuditLog) error {
	return r.db.Create(entry).Error
}

// List retrieves audit records, newest first, optionally filtered by key uid
func (r *AuditLogRepository) List(apiKeyUID string, offset, limit int) ([]models.AuditLog, int64, error) {
	var entries []models.AuditLog
	var total int64

	query := r.db.Model(&models.AuditLog{})
	if apiKeyUID != "" {
		query = query.Where("api_key_uid = ?", apiKeyUID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&entries).Error
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}
