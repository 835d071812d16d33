package auth

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/nexkey/nexkey-admin-backend/internal/apperrors"
	"github.com/nexkey/nexkey-admin-backend/internal/database/repository"
	"github.com/nexkey/nexkey-admin-backend/internal/models"
	"github.com/nexkey/nexkey-admin-backend/internal/services"
	"github.com/nexkey/nexkey-admin-backend/internal/services/subscription"
)

// AuthService implements the admin session flows: login with a raw API key,
// token refresh with rotation, idempotent logout, and the composed
// authorization check every protected route runs through.
type AuthService struct {
	tokenService *TokenService
	apiKeyRepo   *repository.APIKeyRepository
	lifecycle    *subscription.Service
	audit        *services.AuditService
}

// NewAuthService creates a new AuthService
func NewAuthService(db *gorm.DB, tokenService *TokenService, lifecycle *subscription.Service, audit *services.AuditService) *AuthService {
	return &AuthService{
		tokenService: tokenService,
		apiKeyRepo:   repository.NewAPIKeyRepository(db),
		lifecycle:    lifecycle,
		audit:        audit,
	}
}

// TokenService exposes the underlying token manager
func (s *AuthService) TokenService() *TokenService {
	return s.tokenService
}

// Login authenticates with a raw admin API key and mints a session pair. The
// key must be active, of admin type, and carry a valid subscription; the
// subscription check reconciles overdue records as a side effect, so a login
// attempt against a lapsed key also flips its stored status.
func (s *AuthService) Login(rawKey string) (*models.AuthResponse, error) {
	apiKey, err := s.apiKeyRepo.GetByKey(rawKey)
	if err != nil {
		return nil, apperrors.Storage(err)
	}
	if apiKey == nil {
		return nil, apperrors.New(apperrors.ErrorTypeInvalidCredential, "invalid API key")
	}

	if err := s.checkKeyUsable(apiKey); err != nil {
		return nil, err
	}

	response, err := s.issuePair(apiKey.UID)
	if err != nil {
		return nil, err
	}

	s.audit.Record(apiKey.UID, models.AuditActionLogin, "")
	return response, nil
}

// Refresh exchanges a valid, unrevoked refresh token for a brand-new
// access+refresh pair and revokes the used refresh token, so each refresh
// token works exactly once. Key and subscription state are re-validated: a
// refresh must not resurrect access for an expired subscription.
func (s *AuthService) Refresh(refreshToken string) (*models.AuthResponse, error) {
	revoked, err := s.tokenService.IsRevoked(refreshToken)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, apperrors.New(apperrors.ErrorTypeTokenRevoked, "refresh token has been revoked")
	}

	info, err := s.tokenService.ValidateToken(refreshToken)
	if err != nil {
		return nil, err
	}
	if info.TokenType != models.TokenTypeRefresh {
		return nil, apperrors.New(apperrors.ErrorTypeWrongTokenType, "not a refresh token")
	}

	apiKey, err := s.apiKeyRepo.GetByUID(info.APIKeyUID)
	if err != nil {
		return nil, apperrors.Storage(err)
	}
	if apiKey == nil {
		return nil, apperrors.New(apperrors.ErrorTypeNotFound, "API key no longer exists")
	}

	if err := s.checkKeyUsable(apiKey); err != nil {
		return nil, err
	}

	response, err := s.issuePair(apiKey.UID)
	if err != nil {
		return nil, err
	}

	// Rotation: the used refresh token must never mint another pair
	if err := s.tokenService.Revoke(refreshToken, s.tokenService.RefreshTokenTTL()); err != nil {
		return nil, err
	}

	s.audit.Record(apiKey.UID, models.AuditActionTokenRefreshed, "")
	return response, nil
}

// Logout revokes an access token for its remaining lifetime. Best-effort and
// idempotent: an already expired or otherwise invalid token is treated as
// logged out.
func (s *AuthService) Logout(accessToken string) error {
	info, err := s.tokenService.ValidateToken(accessToken)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeStorageFailure) {
			return err
		}
		// Expired or malformed tokens cannot be used anyway
		return nil
	}

	if err := s.tokenService.Revoke(accessToken, 0); err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeStorageFailure) {
			return err
		}
		logrus.Warnf("Logout revoke failed for key %s: %v", info.APIKeyUID, err)
		return nil
	}

	s.audit.Record(info.APIKeyUID, models.AuditActionLogout, "")
	return nil
}

// Authorize is the request gatekeeper: the ordered, short-circuiting check
// every admin-protected operation runs before its business logic. Token
// revocation, signature and expiry, token type, key resolution, key activity
// and type, and subscription validity are checked in that order; the first
// failure wins. On success the authorized key is returned; usage counters are
// left to the caller.
func (s *AuthService) Authorize(tokenString string) (*models.APIKey, error) {
	if tokenString == "" {
		return nil, apperrors.New(apperrors.ErrorTypeMissingCredential, "bearer token required")
	}

	revoked, err := s.tokenService.IsRevoked(tokenString)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, apperrors.New(apperrors.ErrorTypeTokenRevoked, "token has been revoked")
	}

	info, err := s.tokenService.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	if info.TokenType != models.TokenTypeAdmin {
		return nil, apperrors.New(apperrors.ErrorTypeWrongTokenType, "admin access token required")
	}

	// Tokens outlive key deletion; resolving the key is the backstop
	apiKey, err := s.apiKeyRepo.GetByUID(info.APIKeyUID)
	if err != nil {
		return nil, apperrors.Storage(err)
	}
	if apiKey == nil {
		return nil, apperrors.New(apperrors.ErrorTypeNotFound, "API key no longer exists")
	}

	if err := s.checkKeyUsable(apiKey); err != nil {
		return nil, err
	}

	return apiKey, nil
}

// RecordUsage bumps the usage counters of a key after a successful
// authorization. Best-effort; failures are logged.
func (s *AuthService) RecordUsage(apiKeyUID string) {
	if err := s.apiKeyRepo.RecordUsage(apiKeyUID); err != nil {
		logrus.Warnf("Failed to record usage for key %s: %v", apiKeyUID, err)
	}
}

// checkKeyUsable enforces the shared key-level rules: active flag, admin
// type, and subscription validity (with inline expiry reconciliation)
func (s *AuthService) checkKeyUsable(apiKey *models.APIKey) error {
	if !apiKey.IsActive {
		return apperrors.New(apperrors.ErrorTypeInactiveKey, "API key is deactivated")
	}
	if !apiKey.IsAdmin() {
		return apperrors.New(apperrors.ErrorTypeWrongKeyType, "API key does not grant admin access")
	}
	return s.lifecycle.Validate(apiKey.UID, time.Now())
}

func (s *AuthService) issuePair(apiKeyUID string) (*models.AuthResponse, error) {
	accessToken, err := s.tokenService.GenerateAccessToken(apiKeyUID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.tokenService.GenerateRefreshToken(apiKeyUID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &models.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.tokenService.AccessTokenTTL().Seconds()),
	}, nil
}
