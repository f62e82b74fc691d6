package auth

import (
	"net/http"
	"strings"

	"bet_wallet/internal/logger"

	"github.com/gin-gonic/gin"
)

const claimsKey = "auth_claims"

type Verifier interface {
	Verify(raw string) (*Claims, error)
}

// Middleware rejects requests without a valid bearer token and stores the
// verified claims on the gin context.
func Middleware(v Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, raw, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(raw) == "" {
			abort(c, http.StatusUnauthorized, "missing bearer token")
			return
		}

		claims, err := v.Verify(strings.TrimSpace(raw))
		if err != nil {
			logger.Warn(c.Request.Context()).Err(err).Msg("rejected token")
			abort(c, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// RequireSelf rejects requests whose path parameter names a different player
// than the token subject.
func RequireSelf(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := ClaimsFrom(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "missing bearer token")
			return
		}
		if !strings.EqualFold(c.Param(param), claims.PlayerID) {
			abort(c, http.StatusForbidden, "token does not belong to this player")
			return
		}
		c.Next()
	}
}

func ClaimsFrom(c *gin.Context) (*Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*Claims)
	return claims, ok
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message})
}
