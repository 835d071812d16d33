// Package export builds Excel workbooks for the admin dashboard.
package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/nexkey/nexkey-admin-backend/internal/database/repository"
)

// Service handles Excel export of billing and usage data
type Service struct {
	paymentRepo *repository.PaymentRepository
	apiKeyRepo  *repository.APIKeyRepository
}

// NewService creates a new export service
func NewService(paymentRepo *repository.PaymentRepository, apiKeyRepo *repository.APIKeyRepository) *Service {
	return &Service{
		paymentRepo: paymentRepo,
		apiKeyRepo:  apiKeyRepo,
	}
}

// ExportPayments builds an xlsx workbook with the full payment ledger plus a
// key usage sheet, returned as bytes for the download response
func (s *Service) ExportPayments() ([]byte, string, error) {
	payments, err := s.paymentRepo.ListAll()
	if err != nil {
		return nil, "", fmt.Errorf("failed to list payments: %w", err)
	}

	f := excelize.NewFile()

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"D9D9D9"},
			Pattern: 1,
		},
	})

	// Payments sheet
	paymentSheet := "Payments"
	defaultSheetName := f.GetSheetName(0)
	if err := f.SetSheetName(defaultSheetName, paymentSheet); err != nil {
		return nil, "", fmt.Errorf("failed to rename sheet: %w", err)
	}
	f.SetActiveSheet(0)

	paymentColumns := []string{"id", "api_key_uid", "amount", "currency", "method", "reference", "created_at"}
	for i, col := range paymentColumns {
		cell := fmt.Sprintf("%s1", columnToLetter(i+1))
		f.SetCellValue(paymentSheet, cell, col)
	}
	f.SetCellStyle(paymentSheet, "A1", fmt.Sprintf("%s1", columnToLetter(len(paymentColumns))), headerStyle)

	for row, p := range payments {
		values := []interface{}{
			p.ID, p.APIKeyUID, p.Amount, p.Currency, p.Method, p.Reference,
			p.CreatedAt.Format(time.RFC3339),
		}
		for col, v := range values {
			cell := fmt.Sprintf("%s%d", columnToLetter(col+1), row+2)
			f.SetCellValue(paymentSheet, cell, v)
		}
	}

	// Key usage sheet
	usageSheet := "Keys"
	if _, err := f.NewSheet(usageSheet); err != nil {
		return nil, "", fmt.Errorf("failed to create sheet: %w", err)
	}

	keyColumns := []string{"uid", "name", "type", "is_active", "usage_count", "last_used_at", "created_at"}
	for i, col := range keyColumns {
		cell := fmt.Sprintf("%s1", columnToLetter(i+1))
		f.SetCellValue(usageSheet, cell, col)
	}
	f.SetCellStyle(usageSheet, "A1", fmt.Sprintf("%s1", columnToLetter(len(keyColumns))), headerStyle)

	apiKeys, _, err := s.apiKeyRepo.List(0, 10000)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list keys: %w", err)
	}
	for row, k := range apiKeys {
		lastUsed := ""
		if k.LastUsedAt != nil {
			lastUsed = k.LastUsedAt.Format(time.RFC3339)
		}
		values := []interface{}{
			k.UID, k.Name, k.Type, k.IsActive, k.UsageCount, lastUsed,
			k.CreatedAt.Format(time.RFC3339),
		}
		for col, v := range values {
			cell := fmt.Sprintf("%s%d", columnToLetter(col+1), row+2)
			f.SetCellValue(usageSheet, cell, v)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, "", fmt.Errorf("failed to write workbook: %w", err)
	}

	filename := fmt.Sprintf("payments_%d.xlsx", time.Now().Unix())
	return buf.Bytes(), filename, nil
}

// columnToLetter converts a 1-based column index to its Excel letter
func columnToLetter(col int) string {
	letter := ""
	for col > 0 {
		col--
		letter = string(rune('A'+col%26)) + letter
		col /= 26
	}
	return letter
}
