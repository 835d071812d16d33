package repository

import (
	"github.com/nexkey/nexkey-admin-backend/internal/models"
	"gorm.io/gorm"
)

// PaymentRepository handles database operations for the payment ledger
type PaymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new PaymentRepository instance
func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Append adds a ledger entry; payments are never updated or deleted
func (r *PaymentRepository) Append(payment *models.Payment) error {
	return r.db.Create(payment).Error
}

// ListByAPIKeyUID retrieves payments for a key, newest first, with pagination
func (r *PaymentRepository) ListByAPIKeyUID(apiKeyUID string, offset, limit int) ([]models.Payment, int64, error) {
	var payments []models.Payment
	var total int64

	query := r.db.Model(&models.Payment{}).Where("api_key_uid = ?", apiKeyUID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&payments).Error
	if err != nil {
		return nil, 0, err
	}
	return payments, total, nil
}

// ListAll retrieves the full ledger, newest first
func (r *PaymentRepository) ListAll() ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.Order("created_at DESC").Find(&payments).Error
	return payments, err
}
