package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexkey/nexkey-admin-backend/internal/apperrors"
	"github.com/nexkey/nexkey-admin-backend/internal/database/repository"
	"github.com/nexkey/nexkey-admin-backend/internal/models"
)

func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	db := newTestDB(t)
	return NewTokenService(repository.NewRevokedTokenRepository(db), testSecret, time.Hour, 7*24*time.Hour)
}

// signToken builds a token with arbitrary time bounds, bypassing the service
func signToken(t *testing.T, secret []byte, tokenType string, issuedAt, expiresAt time.Time) string {
	t.Helper()
	claims := &models.JWTClaims{
		APIKeyUID: "key-1",
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
			Issuer:    tokenIssuer,
			Subject:   "key-1",
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)
	return signed
}

func TestGenerateAndValidate(t *testing.T) {
	svc := newTestTokenService(t)

	access, err := svc.GenerateAccessToken("key-1")
	require.NoError(t, err)
	refresh, err := svc.GenerateRefreshToken("key-1")
	require.NoError(t, err)
	assert.NotEqual(t, access, refresh)

	info, err := svc.ValidateToken(access)
	require.NoError(t, err)
	assert.Equal(t, "key-1", info.APIKeyUID)
	assert.Equal(t, models.TokenTypeAdmin, info.TokenType)
	assert.WithinDuration(t, time.Now().Add(time.Hour), info.ExpiresAt, 5*time.Second)

	info, err = svc.ValidateToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, models.TokenTypeRefresh, info.TokenType)
}

func TestValidateExpiredToken(t *testing.T) {
	svc := newTestTokenService(t)

	expired := signToken(t, testSecret, models.TokenTypeAdmin,
		time.Now().Add(-2*time.Hour), time.Now().Add(-time.Hour))

	_, err := svc.ValidateToken(expired)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeTokenExpired))
}

func TestValidateWrongSecret(t *testing.T) {
	svc := newTestTokenService(t)

	forged := signToken(t, []byte("other-secret"), models.TokenTypeAdmin,
		time.Now(), time.Now().Add(time.Hour))

	_, err := svc.ValidateToken(forged)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeTokenMalformed))
}

func TestValidateGarbage(t *testing.T) {
	svc := newTestTokenService(t)

	for _, tokenString := range []string{"", "garbage", "a.b.c"} {
		_, err := svc.ValidateToken(tokenString)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeTokenMalformed))
	}
}

func TestRevoke(t *testing.T) {
	svc := newTestTokenService(t)

	access, err := svc.GenerateAccessToken("key-1")
	require.NoError(t, err)

	revoked, err := svc.IsRevoked(access)
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, svc.Revoke(access, 0))

	revoked, err = svc.IsRevoked(access)
	require.NoError(t, err)
	assert.True(t, revoked)

	// Revoking twice just refreshes the entry
	require.NoError(t, svc.Revoke(access, 0))
}

func TestRevokeInvalidToken(t *testing.T) {
	svc := newTestTokenService(t)

	err := svc.Revoke("not.a.token", 0)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeTokenMalformed))
}

func TestRevocationEntryExpires(t *testing.T) {
	db := newTestDB(t)
	revokedRepo := repository.NewRevokedTokenRepository(db)
	svc := NewTokenService(revokedRepo, testSecret, time.Hour, 7*24*time.Hour)

	access, err := svc.GenerateAccessToken("key-1")
	require.NoError(t, err)

	// Entry whose retention window has already passed
	require.NoError(t, revokedRepo.Add(access, time.Now().Add(-time.Minute)))

	revoked, err := svc.IsRevoked(access)
	require.NoError(t, err)
	assert.False(t, revoked)

	// The stale row was pruned by the lookup
	var count int64
	require.NoError(t, db.Model(&models.RevokedToken{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}
