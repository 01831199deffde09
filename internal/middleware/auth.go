package middleware

import (
	"github.com/gin-gonic/gin"
)

// DevelopmentAuthMiddleware is a simple auth middleware for development
func DevelopmentAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get user ID from context (set by IstioAuth)
		userIDVal, _ := c.Get("user_id")
		userID := ""
		if userIDVal != nil {
			userID = userIDVal.(string)
		}
		if userID == "" {
			userID = c.GetHeader("X-User-ID")
		}
		if userID == "" {
			userID = "00000000-0000-0000-0000-000000000001" // Valid UUID for dev
		}

		// Set both camelCase and snake_case for compatibility with RBAC middleware
		c.Set("userId", userID)
		c.Set("user_id", userID)

		if email := c.GetHeader("X-User-Email"); email != "" {
			c.Set("user_email", email)
		}
		if name := c.GetHeader("X-User-Name"); name != "" {
			c.Set("user_name", name)
		}

		c.Next()
	}
}
