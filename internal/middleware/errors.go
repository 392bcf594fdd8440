package middleware

import (
	"github.com/gin-gonic/gin"

	"authgate/api/internal/apperrors"
)

// AbortWithError renders err as {"error", "message"} and stops the chain.
// Errors outside the taxonomy are rendered as a generic internal error.
func AbortWithError(c *gin.Context, err error) {
	appErr := apperrors.From(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(appErr.StatusCode, appErr)
}
