package middleware

import (
	"strings"

	"github.com/adminblog/core/internal/pkg/jwt"
	"github.com/adminblog/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

const ContextKeyClaims = "auth_claims"

// Verifier checks an administrator token.
type Verifier interface {
	Verify(token string) (*jwt.Claims, error)
}

// Auth returns a middleware that rejects the request with 401 unless it
// carries a valid "Authorization: Bearer <token>" header. Handlers behind it
// never run for unauthenticated callers.
func Auth(v Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := v.Verify(NormalizeToken(c.GetHeader("Authorization")))
		if err != nil {
			response.Unauthorized(c)
			return
		}
		c.Set(ContextKeyClaims, claims)
		c.Next()
	}
}

// CurrentClaims returns the claims stored by Auth, or nil.
func CurrentClaims(c *gin.Context) *jwt.Claims {
	v, _ := c.Get(ContextKeyClaims)
	claims, _ := v.(*jwt.Claims)
	return claims
}

// NormalizeToken trims spaces and strips optional Bearer prefix.
func NormalizeToken(raw string) string {
	token := strings.TrimSpace(raw)
	if token == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		return strings.TrimSpace(token[7:])
	}
	return token
}
