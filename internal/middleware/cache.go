package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

// ImmutableCache sets Cache-Control for content-addressed files. Cached
// audio is keyed by a hash of its inputs and never rewritten, so the
// client may keep it for the full max-age without revalidating.
func ImmutableCache(maxAgeSeconds int) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", fmt.Sprintf("public, max-age=%d, immutable", maxAgeSeconds))
		c.Next()
	}
}
