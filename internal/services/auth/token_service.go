package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/nexkey/nexkey-admin-backend/internal/apperrors"
	"github.com/nexkey/nexkey-admin-backend/internal/database/repository"
	"github.com/nexkey/nexkey-admin-backend/internal/models"
)

const tokenIssuer = "nexkey-admin-backend"

// TokenService mints, verifies, and revokes the signed session tokens of the
// admin dashboard. Verification is a pure cryptographic check; only the
// revocation set touches storage.
type TokenService struct {
	revokedRepo     *repository.RevokedTokenRepository
	jwtSecret       []byte
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
}

// NewTokenService creates a new TokenService
func NewTokenService(revokedRepo *repository.RevokedTokenRepository, jwtSecret []byte, accessTTL, refreshTTL time.Duration) *TokenService {
	if accessTTL <= 0 {
		accessTTL = time.Hour
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &TokenService{
		revokedRepo:     revokedRepo,
		jwtSecret:       jwtSecret,
		accessTokenTTL:  accessTTL,
		refreshTokenTTL: refreshTTL,
	}
}

// AccessTokenTTL returns the configured access token lifetime
func (s *TokenService) AccessTokenTTL() time.Duration {
	return s.accessTokenTTL
}

// RefreshTokenTTL returns the configured refresh token lifetime
func (s *TokenService) RefreshTokenTTL() time.Duration {
	return s.refreshTokenTTL
}

// GenerateAccessToken mints a short-lived admin session token for a key
func (s *TokenService) GenerateAccessToken(apiKeyUID string) (string, error) {
	return s.generate(apiKeyUID, models.TokenTypeAdmin, s.accessTokenTTL)
}

// GenerateRefreshToken mints a long-lived refresh token for a key
func (s *TokenService) GenerateRefreshToken(apiKeyUID string) (string, error) {
	return s.generate(apiKeyUID, models.TokenTypeRefresh, s.refreshTokenTTL)
}

func (s *TokenService) generate(apiKeyUID, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &models.JWTClaims{
		APIKeyUID: apiKeyUID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   apiKeyUID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateToken verifies signature and time bounds and returns the embedded
// identity and token type. No storage access; revocation is checked
// separately via IsRevoked.
func (s *TokenService) ValidateToken(tokenString string) (*models.TokenInfo, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return s.jwtSecret, nil
	}, jwt.WithExpirationRequired())

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.New(apperrors.ErrorTypeTokenExpired, "token has expired")
		}
		return nil, apperrors.New(apperrors.ErrorTypeTokenMalformed, "token is invalid")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, apperrors.New(apperrors.ErrorTypeTokenMalformed, "token is invalid")
	}

	return &models.TokenInfo{
		APIKeyUID: claims.APIKeyUID,
		TokenType: claims.TokenType,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// IsRevoked reports whether the token is in the revocation set. Stale entries
// are pruned by the lookup itself.
func (s *TokenService) IsRevoked(tokenString string) (bool, error) {
	revoked, err := s.revokedRepo.IsRevoked(tokenString, time.Now())
	if err != nil {
		return false, apperrors.Storage(err)
	}
	return revoked, nil
}

// Revoke puts a verified token into the revocation set. With ttl <= 0 the
// entry lives for the token's remaining lifetime, or one hour when that
// cannot be determined.
func (s *TokenService) Revoke(tokenString string, ttl time.Duration) error {
	info, err := s.ValidateToken(tokenString)
	if err != nil {
		return err
	}

	expiry := time.Now().Add(ttl)
	if ttl <= 0 {
		remaining := time.Until(info.ExpiresAt)
		if remaining <= 0 {
			remaining = time.Hour
		}
		expiry = time.Now().Add(remaining)
	}

	if err := s.revokedRepo.Add(tokenString, expiry); err != nil {
		return apperrors.Storage(err)
	}
	return nil
}
