// Package apikey handles issuing and managing API keys.
package apikey

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nexkey/nexkey-admin-backend/internal/apperrors"
	"github.com/nexkey/nexkey-admin-backend/internal/database/repository"
	"github.com/nexkey/nexkey-admin-backend/internal/models"
	"github.com/nexkey/nexkey-admin-backend/internal/services"
	"github.com/nexkey/nexkey-admin-backend/internal/utils"
)

// CreateRequest carries the parameters for issuing a new key
type CreateRequest struct {
	Name string `json:"name" binding:"required"`
	Type string `json:"type"`
}

// UpdateRequest carries the updatable fields of a key
type UpdateRequest struct {
	Name     *string `json:"name"`
	IsActive *bool   `json:"is_active"`
}

// Service handles API key operations
type Service struct {
	apiKeyRepo *repository.APIKeyRepository
	audit      *services.AuditService
}

// NewService creates a new API key service
func NewService(db *gorm.DB, audit *services.AuditService) *Service {
	return &Service{
		apiKeyRepo: repository.NewAPIKeyRepository(db),
		audit:      audit,
	}
}

// Create issues a new API key. The secret key value is returned once here and
// never serialized afterwards.
func (s *Service) Create(req CreateRequest) (*models.APIKey, string, error) {
	keyType := req.Type
	if keyType == "" {
		keyType = models.KeyTypeNormal
	}
	if keyType != models.KeyTypeAdmin && keyType != models.KeyTypeNormal {
		return nil, "", apperrors.New(apperrors.ErrorTypeWrongKeyType,
			fmt.Sprintf("unknown key type %q", keyType))
	}

	key, err := generateRandomKey()
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate API key: %w", err)
	}

	apiKey := &models.APIKey{
		UID:      uuid.New().String(),
		Key:      key,
		Name:     req.Name,
		Type:     keyType,
		IsActive: true,
	}

	created, err := s.apiKeyRepo.Create(apiKey)
	if err != nil {
		return nil, "", apperrors.Storage(err)
	}

	s.audit.Record(created.UID, models.AuditActionKeyCreated, fmt.Sprintf("type=%s name=%s", keyType, req.Name))

	return created, key, nil
}

// Get retrieves a key by uid
func (s *Service) Get(uid string) (*models.APIKey, error) {
	apiKey, err := s.apiKeyRepo.GetByUID(uid)
	if err != nil {
		return nil, apperrors.Storage(err)
	}
	if apiKey == nil {
		return nil, apperrors.New(apperrors.ErrorTypeNotFound, "API key not found")
	}
	return apiKey, nil
}

// List retrieves keys with pagination
func (s *Service) List(page, pageSize int) ([]models.APIKey, int64, error) {
	page, pageSize = utils.ValidateAndNormalizePagination(page, pageSize)
	offset := utils.CalculateOffset(page, pageSize)

	apiKeys, total, err := s.apiKeyRepo.List(offset, pageSize)
	if err != nil {
		return nil, 0, apperrors.Storage(err)
	}
	return apiKeys, total, nil
}

// Update applies field changes to a key
func (s *Service) Update(uid string, req UpdateRequest) (*models.APIKey, error) {
	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) == 0 {
		return s.Get(uid)
	}

	apiKey, err := s.apiKeyRepo.Update(uid, updates)
	if err != nil {
		return nil, apperrors.Storage(err)
	}
	if apiKey == nil {
		return nil, apperrors.New(apperrors.ErrorTypeNotFound, "API key not found")
	}

	s.audit.Record(uid, models.AuditActionKeyUpdated, fmt.Sprintf("fields=%d", len(updates)))

	return apiKey, nil
}

// Delete removes a key; its subscription cascades with it. Outstanding
// session tokens are not invalidated here, the gatekeeper's key-resolution
// step rejects them.
func (s *Service) Delete(uid string) error {
	deleted, err := s.apiKeyRepo.Delete(uid)
	if err != nil {
		return apperrors.Storage(err)
	}
	if !deleted {
		return apperrors.New(apperrors.ErrorTypeNotFound, "API key not found")
	}

	s.audit.Record(uid, models.AuditActionKeyDeleted, "")
	return nil
}

// EnsureBootstrapAdminKey creates an initial admin API key when none exists,
// so a fresh deployment can log in to the dashboard. The secret is logged
// once and cannot be recovered afterwards.
func (s *Service) EnsureBootstrapAdminKey() (string, error) {
	_, total, err := s.apiKeyRepo.List(0, 1)
	if err != nil {
		return "", apperrors.Storage(err)
	}
	if total > 0 {
		return "", nil
	}

	_, key, err := s.Create(CreateRequest{Name: "bootstrap-admin", Type: models.KeyTypeAdmin})
	if err != nil {
		return "", err
	}
	return key, nil
}

// generateRandomKey generates a random 32-byte hex string
func generateRandomKey() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
