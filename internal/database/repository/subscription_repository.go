package repository

import (
	"errors"
	"time"

	"github.com/nexkey/nexkey-admin-backend/internal/models"
	"gorm.io/gorm"
)

// SubscriptionRepository handles database operations for Subscription entities
type SubscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new SubscriptionRepository instance
func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// GetByAPIKeyUID retrieves the subscription attached to an API key
func (r *SubscriptionRepository) GetByAPIKeyUID(apiKeyUID string) (*models.Subscription, error) {
	var sub models.Subscription
	if err := r.db.Where("api_key_uid = ?", apiKeyUID).First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // Return nil, nil when not found
		}
		return nil, err
	}
	return &sub, nil
}

// Create adds a new subscription
func (r *SubscriptionRepository) Create(sub *models.Subscription) error {
	return r.db.Create(sub).Error
}

// Save persists the full subscription record
func (r *SubscriptionRepository) Save(sub *models.Subscription) error {
	return r.db.Save(sub).Error
}

// Update applies partial updates to the subscription of a key
func (r *SubscriptionRepository) Update(apiKeyUID string, updates map[string]interface{}) error {
	return r.db.Model(&models.Subscription{}).Where("api_key_uid = ?", apiKeyUID).Updates(updates).Error
}

// ListOverdue returns enabled, active subscriptions whose end date is in the past
func (r *SubscriptionRepository) ListOverdue(now time.Time) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.Where("enabled = ? AND status = ? AND end_date < ?",
		true, models.SubscriptionStatusActive, now).Find(&subs).Error
	return subs, err
}

// ListDueForAutoRenew returns enabled, active, auto-renew subscriptions whose
// end date falls within the given window
func (r *SubscriptionRepository) ListDueForAutoRenew(now time.Time, window time.Duration) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.Where("enabled = ? AND status = ? AND auto_renew = ? AND end_date >= ? AND end_date <= ?",
		true, models.SubscriptionStatusActive, true, now, now.Add(window)).Find(&subs).Error
	return subs, err
}
