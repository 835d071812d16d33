package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/nexkey/nexkey-admin-backend/internal/apperrors"
	"github.com/nexkey/nexkey-admin-backend/internal/database"
	"github.com/nexkey/nexkey-admin-backend/internal/database/repository"
	"github.com/nexkey/nexkey-admin-backend/internal/models"
	"github.com/nexkey/nexkey-admin-backend/internal/services"
	"github.com/nexkey/nexkey-admin-backend/internal/services/subscription"
)

var testSecret = []byte("test-secret")

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func newTestAuthService(t *testing.T, db *gorm.DB) *AuthService {
	t.Helper()
	audit := services.NewAuditService(repository.NewAuditLogRepository(db), nil)
	lifecycle := subscription.NewService(db, audit, 7, 30)
	tokenService := NewTokenService(repository.NewRevokedTokenRepository(db), testSecret, time.Hour, 7*24*time.Hour)
	return NewAuthService(db, tokenService, lifecycle, audit)
}

func createTestKey(t *testing.T, db *gorm.DB, keyType string, isActive bool) *models.APIKey {
	t.Helper()
	apiKey := &models.APIKey{
		UID:      uuid.New().String(),
		Key:      uuid.New().String(),
		Name:     "test key",
		Type:     keyType,
		IsActive: isActive,
	}
	require.NoError(t, db.Create(apiKey).Error)
	return apiKey
}

func TestLogin(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAuthService(t, db)
	apiKey := createTestKey(t, db, models.KeyTypeAdmin, true)

	response, err := svc.Login(apiKey.Key)
	require.NoError(t, err)
	assert.NotEmpty(t, response.AccessToken)
	assert.NotEmpty(t, response.RefreshToken)
	assert.Equal(t, "Bearer", response.TokenType)
	assert.Equal(t, int64(3600), response.ExpiresIn)

	info, err := svc.TokenService().ValidateToken(response.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, apiKey.UID, info.APIKeyUID)
	assert.Equal(t, models.TokenTypeAdmin, info.TokenType)

	info, err = svc.TokenService().ValidateToken(response.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, models.TokenTypeRefresh, info.TokenType)
}

func TestLoginUnknownKey(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAuthService(t, db)

	_, err := svc.Login("no-such-key")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidCredential))
}

func TestLoginInactiveKey(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAuthService(t, db)
	apiKey := createTestKey(t, db, models.KeyTypeAdmin, false)

	// The fixture must round-trip as inactive
	var stored models.APIKey
	require.NoError(t, db.Where("uid = ?", apiKey.UID).First(&stored).Error)
	require.False(t, stored.IsActive)

	_, err := svc.Login(apiKey.Key)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInactiveKey))
}

func TestLoginNonAdminKey(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAuthService(t, db)
	apiKey := createTestKey(t, db, models.KeyTypeNormal, true)

	_, err := svc.Login(apiKey.Key)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeWrongKeyType))
}

func TestLoginExpiredSubscription(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAuthService(t, db)
	apiKey := createTestKey(t, db, models.KeyTypeAdmin, true)

	require.NoError(t, db.Create(&models.Subscription{
		APIKeyUID: apiKey.UID,
		Enabled:   true,
		Status:    models.SubscriptionStatusActive,
		StartDate: time.Now().AddDate(0, 0, -60),
		EndDate:   time.Now().AddDate(0, 0, -30),
	}).Error)

	_, err := svc.Login(apiKey.Key)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeSubscriptionExpired))

	// The rejected login reconciled the stale record
	var reloaded models.Subscription
	require.NoError(t, db.Where("api_key_uid = ?", apiKey.UID).First(&reloaded).Error)
	assert.Equal(t, models.SubscriptionStatusExpired, reloaded.Status)
}

func TestRefreshRotation(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAuthService(t, db)
	apiKey := createTestKey(t, db, models.KeyTypeAdmin, true)

	first, err := svc.Login(apiKey.Key)
	require.NoError(t, err)

	second, err := svc.Refresh(first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	assert.NotEqual(t, first.AccessToken, second.AccessToken)

	// A refresh token works exactly once
	_, err = svc.Refresh(first.RefreshToken)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeTokenRevoked))

	// The rotated-in token is still good
	_, err = svc.Refresh(second.RefreshToken)
	require.NoError(t, err)
}

func TestRefreshWithAccessToken(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAuthService(t, db)
	apiKey := createTestKey(t, db, models.KeyTypeAdmin, true)

	response, err := svc.Login(apiKey.Key)
	require.NoError(t, err)

	_, err = svc.Refresh(response.AccessToken)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeWrongTokenType))
}

func TestRefreshAfterKeyDeletion(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAuthService(t, db)
	apiKey := createTestKey(t, db, models.KeyTypeAdmin, true)

	response, err := svc.Login(apiKey.Key)
	require.NoError(t, err)

	require.NoError(t, db.Where("uid = ?", apiKey.UID).Delete(&models.APIKey{}).Error)

	_, err = svc.Refresh(response.RefreshToken)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestAuthorize(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAuthService(t, db)
	apiKey := createTestKey(t, db, models.KeyTypeAdmin, true)

	response, err := svc.Login(apiKey.Key)
	require.NoError(t, err)

	authorized, err := svc.Authorize(response.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, apiKey.UID, authorized.UID)
}

func TestAuthorizeEmptyToken(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAuthService(t, db)

	_, err := svc.Authorize("")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeMissingCredential))
}

func TestAuthorizeMalformedToken(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAuthService(t, db)

	_, err := svc.Authorize("not.a.token")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeTokenMalformed))
}

func TestAuthorizeRefreshTokenRejected(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAuthService(t, db)
	apiKey := createTestKey(t, db, models.KeyTypeAdmin, true)

	response, err := svc.Login(apiKey.Key)
	require.NoError(t, err)

	// Refresh tokens never authorize admin operations
	_, err = svc.Authorize(response.RefreshToken)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeWrongTokenType))
}

func TestAuthorizeAfterLogout(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAuthService(t, db)
	apiKey := createTestKey(t, db, models.KeyTypeAdmin, true)

	response, err := svc.Login(apiKey.Key)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(response.AccessToken))

	_, err = svc.Authorize(response.AccessToken)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeTokenRevoked))
}

func TestAuthorizeDeactivatedKey(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAuthService(t, db)
	apiKey := createTestKey(t, db, models.KeyTypeAdmin, true)

	response, err := svc.Login(apiKey.Key)
	require.NoError(t, err)

	// Deactivation takes effect on the next request, not at token expiry
	require.NoError(t, db.Model(&models.APIKey{}).Where("uid = ?", apiKey.UID).Update("is_active", false).Error)

	_, err = svc.Authorize(response.AccessToken)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInactiveKey))
}

func TestAuthorizeDeletedKey(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAuthService(t, db)
	apiKey := createTestKey(t, db, models.KeyTypeAdmin, true)

	response, err := svc.Login(apiKey.Key)
	require.NoError(t, err)

	require.NoError(t, db.Where("uid = ?", apiKey.UID).Delete(&models.APIKey{}).Error)

	_, err = svc.Authorize(response.AccessToken)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestLogoutIdempotent(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAuthService(t, db)
	apiKey := createTestKey(t, db, models.KeyTypeAdmin, true)

	response, err := svc.Login(apiKey.Key)
	require.NoError(t, err)

	assert.NoError(t, svc.Logout(response.AccessToken))
	assert.NoError(t, svc.Logout(response.AccessToken))

	// Garbage tokens also log out cleanly
	assert.NoError(t, svc.Logout("not.a.token"))
}
