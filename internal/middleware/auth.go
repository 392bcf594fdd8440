package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"authgate/api/internal/models"
)

const (
	SessionCookie  = "session_token"
	currentUserKey = "current_user"
)

// UserResolver identifies the caller from a session token and a bearer token.
type UserResolver interface {
	ResolveCurrentUser(ctx context.Context, sessionToken, bearer string) (models.User, error)
}

// Auth resolves the caller and stores it on the context. Requests without a
// valid session cookie or bearer token are rejected with 401.
func Auth(resolver UserResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionToken, _ := c.Cookie(SessionCookie)

		user, err := resolver.ResolveCurrentUser(c.Request.Context(), sessionToken, BearerToken(c))
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(currentUserKey, user)
		c.Next()
	}
}

// BearerToken returns the token of an "Authorization: Bearer" header.
func BearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func CurrentUser(c *gin.Context) (models.User, bool) {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return models.User{}, false
	}
	user, ok := v.(models.User)
	return user, ok
}
