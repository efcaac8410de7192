package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"example.com/fleetops/services/scheduler/internal/models"
	"example.com/fleetops/services/scheduler/internal/repository"
)

// contextKey is a type for context keys
type contextKey string

// APIKeyContextKey holds the authenticated API key in the request context
const APIKeyContextKey contextKey = "api_key"

// APIKeyAuth middleware validates API tokens from the Authorization header
// and enforces the required access level. Approve/reject routes require the
// EIC approver level.
func APIKeyAuth(repo repository.ReferenceRepository, log *logrus.Logger, requiredLevel models.AuthorizationLevel) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")

		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization header required",
			})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid Authorization header format. Expected: 'Bearer {token}'",
			})
			c.Abort()
			return
		}

		token := parts[1]

		apiKey, err := repo.GetAPIKeyByKey(c.Request.Context(), token)
		if err != nil {
			log.WithError(err).Warn("Invalid API key")
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid API key",
			})
			c.Abort()
			return
		}

		if apiKey.ExpiresAt != nil && apiKey.ExpiresAt.Before(time.Now()) {
			log.Warn("Expired API key")
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "API key expired",
			})
			c.Abort()
			return
		}

		if apiKey.AuthorizationLevel < requiredLevel {
			log.Warnf("Insufficient permissions. Required: %d, Provided: %d",
				requiredLevel, apiKey.AuthorizationLevel)
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Insufficient permissions",
			})
			c.Abort()
			return
		}

		// Update last used timestamp
		now := time.Now()
		apiKey.LastUsedAt = &now
		go func() {
			// Update in a goroutine to avoid blocking the request
			if err := repo.UpdateAPIKey(context.Background(), apiKey); err != nil {
				log.WithError(err).Warn("Failed to update API key usage")
			}
		}()

		c.Set(string(APIKeyContextKey), apiKey)
		c.Next()
	}
}

// ActorFromContext returns the display name of the authenticated API key,
// used for audit fields on shifts.
func ActorFromContext(c *gin.Context) string {
	value, exists := c.Get(string(APIKeyContextKey))
	if !exists {
		return ""
	}
	apiKey, ok := value.(*models.APIKey)
	if !ok {
		return ""
	}
	return apiKey.Name
}
