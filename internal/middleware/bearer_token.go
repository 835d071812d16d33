package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nexkey/nexkey-admin-backend/internal/apperrors"
	"github.com/nexkey/nexkey-admin-backend/internal/services/auth"
)

// Context keys set by the bearer middleware
const (
	ContextAPIKeyUID = "api_key_uid"
	ContextAPIKey    = "api_key"
)

// BearerTokenMiddleware runs the request gatekeeper for every protected route
type BearerTokenMiddleware struct {
	authService *auth.AuthService
}

// NewBearerTokenMiddleware creates a new BearerTokenMiddleware
func NewBearerTokenMiddleware(authService *auth.AuthService) *BearerTokenMiddleware {
	return &BearerTokenMiddleware{authService: authService}
}

// BearerTokenAuthMiddleware extracts the bearer token, runs the composed
// authorization check, and sets the authorized key in the request context.
// Usage counters are bumped after a successful check, best-effort.
func (m *BearerTokenMiddleware) BearerTokenAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			AbortWithError(c, apperrors.New(apperrors.ErrorTypeMissingCredential, "bearer token required"))
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		apiKey, err := m.authService.Authorize(tokenString)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		m.authService.RecordUsage(apiKey.UID)

		c.Set(ContextAPIKeyUID, apiKey.UID)
		c.Set(ContextAPIKey, apiKey)

		c.Next()
	}
}
