package repository

import (
	"errors"
	"time"

	"github.com/nexkey/nexkey-admin-backend/internal/models"
	"gorm.io/gorm"
)

// APIKeyRepository handles database operations for APIKey entities
type APIKeyRepository struct {
	db *gorm.DB
}

// NewAPIKeyRepository creates a new APIKeyRepository instance
func NewAPIKeyRepository(db *gorm.DB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

// GetByUID retrieves an API key by its uid
func (r *APIKeyRepository) GetByUID(uid string) (*models.APIKey, error) {
	var apiKey models.APIKey
	if err := r.db.Where("uid = ?", uid).First(&apiKey).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // Return nil, nil when not found
		}
		return nil, err
	}
	return &apiKey, nil
}

// GetByKey retrieves an API key by its secret key value
func (r *APIKeyRepository) GetByKey(key string) (*models.APIKey, error) {
	var apiKey models.APIKey
	if err := r.db.Where("key = ?", key).First(&apiKey).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &apiKey, nil
}

// Create adds a new API key
func (r *APIKeyRepository) Create(apiKey *models.APIKey) (*models.APIKey, error) {
	if err := r.db.Create(apiKey).Error; err != nil {
		return nil, err
	}
	return apiKey, nil
}

// Update modifies an existing API key by uid
func (r *APIKeyRepository) Update(uid string, updates map[string]interface{}) (*models.APIKey, error) {
	// First check if the API key exists
	var apiKey models.APIKey
	if err := r.db.Where("uid = ?", uid).First(&apiKey).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if err := r.db.Model(&models.APIKey{}).Where("uid = ?", uid).Updates(updates).Error; err != nil {
		return nil, err
	}

	return r.GetByUID(uid)
}

// SetActive flips the authoritative on/off switch of a key
func (r *APIKeyRepository) SetActive(uid string, isActive bool) error {
	return r.db.Model(&models.APIKey{}).Where("uid = ?", uid).Update("is_active", isActive).Error
}

// RecordUsage increments the usage counter and stamps last_used_at
func (r *APIKeyRepository) RecordUsage(uid string) error {
	now := time.Now()
	return r.db.Model(&models.APIKey{}).Where("uid = ?", uid).Updates(map[string]interface{}{
		"usage_count":  gorm.Expr("usage_count + 1"),
		"last_used_at": now,
	}).Error
}

// List retrieves API keys with pagination
func (r *APIKeyRepository) List(offset, limit int) ([]models.APIKey, int64, error) {
	var apiKeys []models.APIKey
	var total int64

	if err := r.db.Model(&models.APIKey{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&apiKeys).Error
	if err != nil {
		return nil, 0, err
	}
	return apiKeys, total, nil
}

// Delete removes an API key by uid; the subscription cascades with it
func (r *APIKeyRepository) Delete(uid string) (bool, error) {
	result := r.db.Unscoped().Delete(&models.APIKey{}, "uid = ?", uid)
	if result.Error != nil {
		return false, result.Error
	}
	// If no rows were affected, the API key was not found
	return result.RowsAffected > 0, nil
}
