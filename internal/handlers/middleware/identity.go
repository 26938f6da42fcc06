package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const userIDKey = "userID"

// Identity installs the verified user id from the X-User-Id header. Token
// verification happens at the auth edge; requests reaching this service are
// already authenticated and carry the resolved identity.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.GetHeader("X-User-Id"), 10, 64)
		if err != nil || id <= 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Set(userIDKey, id)
		c.Next()
	}
}

// UserID returns the identity installed by Identity.
func UserID(c *gin.Context) int64 {
	return c.GetInt64(userIDKey)
}
