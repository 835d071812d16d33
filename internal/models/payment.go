package models

import (
	"time"
)

// Payment methods recorded in the ledger
const (
	PaymentMethodActivation = "activation"
	PaymentMethodRenewal    = "renewal"
	PaymentMethodAutoRenew  = "auto_renew"
)

// Payment is an append-only ledger entry for a subscription charge
type Payment struct {
	ID        string    `json:"id" gorm:"primaryKey;type:uuid"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
	APIKeyUID string    `json:"api_key_uid" gorm:"type:uuid;not null;index"`
	Amount    float64   `json:"amount"`
	Currency  string    `json:"currency" gorm:"type:varchar(10);default:'USD'"`
	Method    string    `json:"method" gorm:"type:varchar(20);not null"`
	Reference string    `json:"reference" gorm:"type:varchar(255)"`
}

// TableName specifies the table name for the Payment model
func (Payment) TableName() string {
	return "payments"
}
