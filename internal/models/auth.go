package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token types embedded in JWT claims
const (
	TokenTypeAdmin   = "admin"
	TokenTypeRefresh = "refresh"
)

// LoginRequest represents the admin login request payload
type LoginRequest struct {
	APIKey string `json:"api_key" binding:"required"`
}

// RefreshTokenRequest represents the refresh token request
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// AuthResponse represents the authentication response
type AuthResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// JWTClaims represents the JWT claims for admin session tokens
type JWTClaims struct {
	APIKeyUID string `json:"api_key_uid"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenInfo represents the verified content of a session token
type TokenInfo struct {
	APIKeyUID string    `json:"api_key_uid"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
}
