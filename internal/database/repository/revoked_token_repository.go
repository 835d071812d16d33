package repository

import (
	"errors"
	"time"

	"github.com/nexkey/nexkey-admin-backend/internal/models"
	"gorm.io/gorm"
)

// RevokedTokenRepository handles database operations for the token revocation set
type RevokedTokenRepository struct {
	db *gorm.DB
}

// NewRevokedTokenRepository creates a new RevokedTokenRepository instance
func NewRevokedTokenRepository(db *gorm.DB) *RevokedTokenRepository {
	return &RevokedTokenRepository{db: db}
}

// Add inserts a token into the revocation set. Re-revoking an already revoked
// token just refreshes the recorded expiry.
func (r *RevokedTokenRepository) Add(token string, expiresAt time.Time) error {
	existing, err := r.getByToken(token)
	if err != nil {
		return err
	}
	if existing != nil {
		return r.db.Model(&models.RevokedToken{}).Where("token = ?", token).
			Update("expires_at", expiresAt).Error
	}
	return r.db.Create(&models.RevokedToken{Token: token, ExpiresAt: expiresAt}).Error
}

// IsRevoked reports whether the token is in the revocation set. An entry whose
// recorded expiry has passed counts as not revoked and is deleted on sight so
// the set stays bounded.
func (r *RevokedTokenRepository) IsRevoked(token string, now time.Time) (bool, error) {
	entry, err := r.getByToken(token)
	if err != nil {
		return false, err
	}
	if entry == nil {
		return false, nil
	}
	if entry.ExpiresAt.Before(now) {
		// Stale entry, the token would be rejected by expiry anyway
		if err := r.db.Unscoped().Delete(&models.RevokedToken{}, "token = ?", token).Error; err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

// DeleteExpired purges entries whose recorded expiry has passed and returns
// how many were removed
func (r *RevokedTokenRepository) DeleteExpired(now time.Time) (int64, error) {
	result := r.db.Unscoped().Where("expires_at < ?", now).Delete(&models.RevokedToken{})
	return result.RowsAffected, result.Error
}

func (r *RevokedTokenRepository) getByToken(token string) (*models.RevokedToken, error) {
	var entry models.RevokedToken
	if err := r.db.Where("token = ?", token).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}
