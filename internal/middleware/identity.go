package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const userIDContextKey = "userID"

// userIDHeader carries the authenticated user identity established by the
// gateway in front of this service.
const userIDHeader = "X-User-ID"

// IdentityMiddleware extracts the caller identity from the gateway header and
// stores it in the gin context. Requests without an identity are rejected.
func IdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(userIDHeader)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing user identity"})
			return
		}
		c.Set(userIDContextKey, userID)
		c.Next()
	}
}

// GetUserIDFromContext retrieves the caller's user id set by IdentityMiddleware.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	userID, ok := c.Get(userIDContextKey)
	if !ok {
		return "", false
	}
	id, ok := userID.(string)
	return id, ok && id != ""
}
