package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/belegpilot/extraction-service/internal/repository"
)

// KeyPrefixContextKey is the gin context key under which the authenticated
// API key prefix is stored for downstream handlers.
const KeyPrefixContextKey = "apiKeyPrefix"

// keyPrefixLen is how many plaintext characters identify a key in logs and
// stored records.
const keyPrefixLen = 12

// APIKeyMiddleware creates a middleware that validates the X-API-Key header
// against the active keys in the database. The plaintext key is never
// stored; each active key holds a bcrypt digest to compare against.
func APIKeyMiddleware(keys repository.APIKeyRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.GetHeader("X-API-Key")
		if apiKey == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"status":  "Unauthorized",
				"message": "X-API-Key header is required",
			})
			c.Abort()
			return
		}

		activeKeys, err := keys.ListActiveKeys(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"status":  "Internal Server Error",
				"message": "Failed to validate API key",
			})
			c.Abort()
			return
		}

		// the stored prefix narrows the bcrypt comparisons to matching keys
		prefix := keyPrefix(apiKey)
		for _, key := range activeKeys {
			if key.KeyPrefix != prefix {
				continue
			}
			if bcrypt.CompareHashAndPassword([]byte(key.KeyHash), []byte(apiKey)) == nil {
				// best effort, a failed touch must not block the request
				_ = keys.TouchKey(c.Request.Context(), key.ID)

				c.Set(KeyPrefixContextKey, key.KeyPrefix)
				c.Next()
				return
			}
		}

		c.JSON(http.StatusUnauthorized, gin.H{
			"status":  "Unauthorized",
			"message": "Invalid API key",
		})
		c.Abort()
	}
}

// KeyPrefixFromContext returns the authenticated key prefix, if any
func KeyPrefixFromContext(c *gin.Context) string {
	if value, ok := c.Get(KeyPrefixContextKey); ok {
		if prefix, ok := value.(string); ok {
			return prefix
		}
	}
	return ""
}

func keyPrefix(apiKey string) string {
	if len(apiKey) <= keyPrefixLen {
		return apiKey
	}
	return apiKey[:keyPrefixLen]
}
