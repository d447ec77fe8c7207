package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/AdarshMishraIndia/SyncMart-WebApp/internal/sessions"
	"github.com/AdarshMishraIndia/SyncMart-WebApp/pkg/logger"
	"github.com/gin-gonic/gin"
)

// Context keys set by AuthMiddleware.
const (
	ClaimsKey = "claims"
	EmailKey  = "email"
	TokenKey  = "accessToken"
)

// Token is minimal interface for a verified token that can expose claims
type Token interface {
	Claims(v interface{}) error
}

// Verifier is the minimal interface the middleware depends on
type Verifier interface {
	Verify(ctx context.Context, raw string) (Token, error)
}

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": msg})
}

// BearerToken returns the token of an "Authorization: Bearer <token>" header.
func BearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	tok := strings.TrimSpace(header[len(prefix):])
	return tok, tok != ""
}

// AuthMiddleware verifies Bearer tokens, rejects revoked ones and stores the
// claims and the caller's email on the context.
func AuthMiddleware(ver Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" {
			unauthorized(c, "missing Authorization header")
			return
		}
		token, ok := BearerToken(auth)
		if !ok {
			unauthorized(c, "invalid Authorization header")
			return
		}

		revoked, err := sessions.IsAccessTokenBlacklisted(c.Request.Context(), token)
		if err != nil {
			logger.Warnf("blacklist lookup failed: %v", err)
		}
		if revoked {
			unauthorized(c, "token revoked")
			return
		}

		verified, err := ver.Verify(c.Request.Context(), token)
		if err != nil {
			unauthorized(c, "invalid token")
			return
		}
		var claims map[string]interface{}
		if err := verified.Claims(&claims); err != nil {
			unauthorized(c, "failed to parse claims")
			return
		}

		c.Set(ClaimsKey, claims)
		c.Set(TokenKey, token)
		if email, _ := claims["email"].(string); email != "" {
			c.Set(EmailKey, email)
		}
		c.Next()
	}
}

// CurrentEmail returns the authenticated caller's email, "" when absent.
func CurrentEmail(c *gin.Context) string {
	return c.GetString(EmailKey)
}

// limitKey prefers the authenticated email and falls back to client IP.
func limitKey(c *gin.Context) string {
	if email := CurrentEmail(c); email != "" {
		return "email:" + email
	}
	ip := c.ClientIP()
	if ip == "" {
		ip = "unknown"
	}
	return "ip:" + ip
}
