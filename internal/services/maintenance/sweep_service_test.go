package maintenance

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/nexkey/nexkey-admin-backend/internal/database"
	"github.com/nexkey/nexkey-admin-backend/internal/database/repository"
	"github.com/nexkey/nexkey-admin-backend/internal/models"
	"github.com/nexkey/nexkey-admin-backend/internal/services"
	"github.com/nexkey/nexkey-admin-backend/internal/services/subscription"
)

func newTestSweep(t *testing.T) (*SweepService, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	audit := services.NewAuditService(repository.NewAuditLogRepository(db), nil)
	lifecycle := subscription.NewService(db, audit, 7, 30)
	revokedRepo := repository.NewRevokedTokenRepository(db)
	return NewSweepService(lifecycle, revokedRepo, audit, 24*time.Hour, 24*time.Hour), db
}

func seedKey(t *testing.T, db *gorm.DB) *models.APIKey {
	t.Helper()
	apiKey := &models.APIKey{
		UID:      uuid.New().String(),
		Key:      uuid.New().String(),
		Name:     "sweep key",
		Type:     models.KeyTypeNormal,
		IsActive: true,
	}
	require.NoError(t, db.Create(apiKey).Error)
	return apiKey
}

func TestRunEmpty(t *testing.T) {
	svc, _ := newTestSweep(t)

	result, err := svc.Run(time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, result.ExpiredCount)
	assert.Equal(t, 0, result.AutoRenewedCount)
	assert.Equal(t, 0, result.CleanedTokenCount)
}

func TestRunFullSweep(t *testing.T) {
	svc, db := newTestSweep(t)
	now := time.Now()

	// Overdue subscription without auto-renew gets expired
	overdueKey := seedKey(t, db)
	require.NoError(t, db.Create(&models.Subscription{
		APIKeyUID: overdueKey.UID,
		Enabled:   true,
		Status:    models.SubscriptionStatusActive,
		StartDate: now.AddDate(0, 0, -40),
		EndDate:   now.AddDate(0, 0, -10),
	}).Error)

	// Subscription due within the window gets auto-renewed instead
	dueKey := seedKey(t, db)
	require.NoError(t, db.Create(&models.Subscription{
		APIKeyUID:    dueKey.UID,
		Enabled:      true,
		Status:       models.SubscriptionStatusActive,
		StartDate:    now.AddDate(0, 0, -30),
		EndDate:      now.Add(6 * time.Hour),
		AutoRenew:    true,
		DurationDays: 30,
	}).Error)

	// One stale and one live revocation entry
	require.NoError(t, db.Create(&models.RevokedToken{Token: "stale", ExpiresAt: now.Add(-time.Hour)}).Error)
	require.NoError(t, db.Create(&models.RevokedToken{Token: "live", ExpiresAt: now.Add(time.Hour)}).Error)

	result, err := svc.Run(now)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ExpiredCount)
	assert.Equal(t, 1, result.AutoRenewedCount)
	assert.Equal(t, 1, result.CleanedTokenCount)

	var remaining int64
	require.NoError(t, db.Model(&models.RevokedToken{}).Count(&remaining).Error)
	assert.Equal(t, int64(1), remaining)

	// The sweep leaves an audit trail
	var entries []models.AuditLog
	require.NoError(t, db.Where("action = ?", models.AuditActionMaintenanceSweep).Find(&entries).Error)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Detail, "expired=1")
}

func TestRunIdempotent(t *testing.T) {
	svc, db := newTestSweep(t)
	now := time.Now()

	overdueKey := seedKey(t, db)
	require.NoError(t, db.Create(&models.Subscription{
		APIKeyUID: overdueKey.UID,
		Enabled:   true,
		Status:    models.SubscriptionStatusActive,
		StartDate: now.AddDate(0, 0, -40),
		EndDate:   now.AddDate(0, 0, -10),
	}).Error)

	first, err := svc.Run(now)
	require.NoError(t, err)
	assert.Equal(t, 1, first.ExpiredCount)

	second, err := svc.Run(now)
	require.NoError(t, err)
	assert.Equal(t, 0, second.ExpiredCount)
}
