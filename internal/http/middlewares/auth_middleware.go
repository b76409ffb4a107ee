package middlewares

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/quintalabs/storefront/internal/auth"
	"github.com/quintalabs/storefront/internal/config"
	"github.com/quintalabs/storefront/internal/domain/user"

	"github.com/gin-gonic/gin"
)

// Keep this interface small so tests can fake it easily.
type TokenResolver interface {
	UserByTokenHash(ctx context.Context, tokenHash string) (user.User, error)
}

type AuthMiddleware struct {
	tokens TokenResolver
}

func NewAuthMiddleware(tokens TokenResolver) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

const ctxUserKey = "auth.user"

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")

		if !strings.HasPrefix(authHeader, "Bearer ") {
			abortUnauthenticated(c)
			return
		}

		raw := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

		if raw == "" {
			abortUnauthenticated(c)
			return
		}

		cctx, cancel := config.WithTimeout(2 * time.Second)

		defer cancel()

		u, err := m.tokens.UserByTokenHash(cctx, auth.HashToken(raw))

		if err != nil {
			abortUnauthenticated(c)
			return
		}

		c.Set(ctxUserKey, u)

		c.Next()
	}
}

func abortUnauthenticated(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"status":  "error",
		"message": "Unauthenticated",
	})
}

// CurrentUser returns the user resolved by RequireAuth.
func CurrentUser(c *gin.Context) (user.User, bool) {
	v, ok := c.Get(ctxUserKey)

	if !ok {
		return user.User{}, false
	}

	u, ok := v.(user.User)
	return u, ok
}
