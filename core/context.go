package core

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	userKey    = "user_id"
	staffKey   = "is_staff"
	sessionKey = "session_id"
)

// SetUser stores the authenticated caller on the request context
func SetUser(c *gin.Context, userID string, staff bool) {
	c.Set(userKey, userID)
	c.Set(staffKey, staff)
}

// SetSessionID stores the session backing the current request
func SetSessionID(c *gin.Context, sessionID string) {
	c.Set(sessionKey, sessionID)
}

// GetUserID retrieves the authenticated user ID from the context.
// Returns "" if no user ID is found in context
func GetUserID(c *gin.Context) string {
	if id, exists := c.Get(userKey); exists {
		if userID, ok := id.(string); ok {
			return userID
		}
	}
	return ""
}

func GetSessionID(c *gin.Context) string {
	return c.GetString(sessionKey)
}

func IsStaff(c *gin.Context) bool {
	return c.GetBool(staffKey)
}

// RequireStaff aborts with 403 unless the caller is a staff user.
// It must run after the authentication middleware.
func RequireStaff(c *gin.Context) {
	if GetUserID(c) == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}
	if !IsStaff(c) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Staff permission required"})
		return
	}
	c.Next()
}
