package middleware

import (
	"net/http"
	"strings"

	"beer-tasting-go/internal/auth"
	"beer-tasting-go/internal/config"
	"beer-tasting-go/internal/revocation"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Context keys set by RequireAuth.
const (
	ContextUserID      = "userID"
	ContextUsername    = "username"
	ContextTokenID     = "tokenID"
	ContextTokenExpiry = "tokenExpiry"
)

func RequireAuth(cfg config.Config, revoked revocation.Store, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := TokenFromRequest(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		claims, err := auth.ParseAndValidateToken(token, cfg)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		if revoked != nil && claims.ID != "" {
			isRevoked, err := revoked.IsRevoked(c.Request.Context(), claims.ID)
			if err != nil {
				logger.Error("revocation lookup failed", zap.Int64("user_id", claims.UserID), zap.Error(err))
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "auth backend unavailable"})
				return
			}
			if isRevoked {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token revoked"})
				return
			}
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUsername, claims.Username)
		c.Set(ContextTokenID, claims.ID)
		if claims.ExpiresAt != nil {
			c.Set(ContextTokenExpiry, claims.ExpiresAt.Time)
		}
		c.Next()
	}
}

// TokenFromRequest prefers the Authorization header and falls back to the login cookie.
func TokenFromRequest(c *gin.Context) string {
	authz := c.GetHeader("Authorization")
	if authz != "" {
		parts := strings.SplitN(authz, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if v, err := c.Cookie(auth.AuthCookieName); err == nil {
		if t := strings.TrimSpace(v); t != "" {
			return t
		}
	}
	return ""
}
