package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/nexkey/nexkey-admin-backend/internal/apperrors"
)

// AbortWithError writes the typed error as a JSON response and aborts the
// request. Internal causes stay out of the response body.
func AbortWithError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		c.JSON(status, gin.H{"success": false, "error": appErr.Message, "type": appErr.Type})
	} else {
		c.JSON(status, gin.H{"success": false, "error": "internal error"})
	}
	c.Abort()
}
