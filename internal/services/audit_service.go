package services

import (
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nexkey/nexkey-admin-backend/internal/database/repository"
	"github.com/nexkey/nexkey-admin-backend/internal/models"
)

// AuditService appends audit records and optionally fans them out to RabbitMQ.
// Audit writes are best-effort: failures are logged, never propagated, so a
// logging outage cannot block a lifecycle transition.
type AuditService struct {
	auditRepo *repository.AuditLogRepository
	rabbitMQ  *RabbitMQService
}

// NewAuditService creates a new AuditService. rabbitMQ may be nil when event
// fan-out is not configured.
func NewAuditService(auditRepo *repository.AuditLogRepository, rabbitMQ *RabbitMQService) *AuditService {
	return &AuditService{
		auditRepo: auditRepo,
		rabbitMQ:  rabbitMQ,
	}
}

// Record appends an audit entry for an action on a key
func (s *AuditService) Record(apiKeyUID, action, detail string) {
	entry := &models.AuditLog{
		ID:        uuid.New().String(),
		CreatedAt: time.Now(),
		APIKeyUID: apiKeyUID,
		Action:    action,
		Detail:    detail,
	}

	if err := s.auditRepo.Append(entry); err != nil {
		logrus.Errorf("Failed to append audit entry %s for key %s: %v", action, apiKeyUID, err)
	}

	if s.rabbitMQ != nil {
		err := s.rabbitMQ.PublishMessage(AuditEventQueue, map[string]interface{}{
			"id":          entry.ID,
			"api_key_uid": entry.APIKeyUID,
			"action":      entry.Action,
			"detail":      entry.Detail,
			"created_at":  entry.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			logrus.Warnf("Failed to publish audit event %s: %v", action, err)
		}
	}
}

// List returns audit entries, newest first
func (s *AuditService) List(apiKeyUID string, page, pageSize int) ([]models.AuditLog, int64, error) {
	offset := (page - 1) * pageSize
	return s.auditRepo.List(apiKeyUID, offset, pageSize)
}
