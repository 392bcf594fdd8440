package middleware

import (
	"github.com/gin-gonic/gin"

	"authgate/api/internal/apperrors"
	"authgate/api/internal/models"
)

func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	roleSet := make(map[models.UserRole]struct{}, len(roles))
	for _, role := range roles {
		roleSet[role] = struct{}{}
	}

	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			AbortWithError(c, apperrors.ErrAuthRequired)
			return
		}

		if _, ok := roleSet[user.Role]; !ok {
			AbortWithError(c, apperrors.ErrAdminRequired)
			return
		}

		c.Next()
	}
}

// RequireAdmin must run after Auth.
func RequireAdmin() gin.HandlerFunc {
	return RequireRoles(models.UserRoleAdmin)
}
