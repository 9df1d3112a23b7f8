package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const userIDKey = "user_id"

// UserContext resolves the calling user from the X-User-ID header set by the
// upstream gateway. Requests without a valid user ID are rejected.
func UserContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("X-User-ID")
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   gin.H{"code": "UNAUTHORIZED", "message": "missing user context"},
			})
			return
		}
		userID, err := uuid.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   gin.H{"code": "UNAUTHORIZED", "message": "invalid user context"},
			})
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// GetUserID extracts the user ID placed by UserContext.
func GetUserID(c *gin.Context) (uuid.UUID, error) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return uuid.Nil, fmt.Errorf("user context missing from request")
	}
	userID, ok := v.(uuid.UUID)
	if !ok {
		return uuid.Nil, fmt.Errorf("user context has unexpected type")
	}
	return userID, nil
}
