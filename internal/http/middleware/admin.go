package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

const AdminHeader = "X-Admin-Key"

// AdminKey guards the ticket status endpoint used by downstream collaborators.
// The local demo runs without a key, which leaves those routes open.
func AdminKey(required string) gin.HandlerFunc {
	want := []byte(required)
	return func(c *gin.Context) {
		if len(want) == 0 {
			c.Next()
			return
		}
		got := []byte(c.GetHeader(AdminHeader))
		if subtle.ConstantTimeCompare(got, want) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "UNAUTHORIZED",
					"message": "Missing or invalid admin key",
					"details": AdminHeader,
				},
			})
			return
		}
		c.Next()
	}
}
