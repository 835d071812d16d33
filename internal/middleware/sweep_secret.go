package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// SweepSecretMiddleware gates the maintenance trigger endpoint behind a
// shared secret presented as a bearer token. The configured value is a bcrypt
// hash of the secret, so the secret itself never sits in the environment.
// With no hash configured the endpoint is disabled.
func SweepSecretMiddleware(secretHash string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secretHash == "" {
			c.JSON(http.StatusForbidden, gin.H{
				"success": false,
				"error":   "maintenance endpoint is not configured",
			})
			c.Abort()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "maintenance secret required",
			})
			c.Abort()
			return
		}
		secret := strings.TrimPrefix(authHeader, "Bearer ")

		if err := bcrypt.CompareHashAndPassword([]byte(secretHash), []byte(secret)); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "invalid maintenance secret",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
