package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"pianosheets/internal/auth"
	"pianosheets/internal/handlers/render"
)

// ClaimsKey is the context key holding validated token claims
const ClaimsKey = "claims"

// RequireScraperToken rejects requests without a valid bearer token signed
// with key. With no key configured the guarded routes are unavailable.
func RequireScraperToken(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" {
			render.Error(c, http.StatusServiceUnavailable, "Admin endpoints disabled")
			c.Abort()
			return
		}

		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			render.Error(c, http.StatusUnauthorized, "Authorization required")
			c.Abort()
			return
		}

		claims, err := auth.ValidateToken(key, strings.TrimSpace(token))
		if err != nil {
			slog.Warn("Rejected admin token", "path", c.FullPath(), "error", err)
			render.Error(c, http.StatusUnauthorized, "Invalid token")
			c.Abort()
			return
		}

		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// recovery converts panics into the generic 500 body
func recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		slog.Error("Handler panicked", "path", c.Request.URL.Path, "panic", recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	})
}
