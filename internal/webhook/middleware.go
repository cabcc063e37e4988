package webhook

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	apiKeyHeader     = "X-Webhook-API-Key"
	ctxPartnerKeyRef = "webhookKeyRef"
)

// HashKey returns the SHA-256 hex digest of an API key.
func HashKey(plaintext string) string {
	h := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(h[:])
}

// APIKeyAuthMiddleware validates the X-Webhook-API-Key header against the
// configured partner keys and stores a short key reference on the context.
func APIKeyAuthMiddleware(keys []string) gin.HandlerFunc {
	hashes := make([][]byte, 0, len(keys))
	for _, key := range keys {
		if key = strings.TrimSpace(key); key != "" {
			hashes = append(hashes, []byte(HashKey(key)))
		}
	}

	return func(c *gin.Context) {
		apiKey := c.GetHeader(apiKeyHeader)
		if apiKey == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing API key"})
			return
		}

		presented := []byte(HashKey(apiKey))
		matched := false
		for _, h := range hashes {
			if subtle.ConstantTimeCompare(presented, h) == 1 {
				matched = true
			}
		}
		if !matched {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid API key"})
			return
		}

		c.Set(ctxPartnerKeyRef, string(presented[:12]))
		c.Next()
	}
}
