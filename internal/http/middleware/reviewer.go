package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	ReviewerHeader = "X-Reviewer"
	ReviewerKey    = "reviewer"
)

// Reviewer records the acting reviewer for audit events. Requests without an
// X-Reviewer header act as fallback.
func Reviewer(fallback string) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := strings.TrimSpace(c.GetHeader(ReviewerHeader))
		if name == "" {
			name = fallback
		}
		c.Set(ReviewerKey, name)
		c.Next()
	}
}

// Timeout bounds the request context. Zero disables it.
func Timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
