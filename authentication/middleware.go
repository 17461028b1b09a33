package authentication

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/gsarmaonline/swapmart/core"
)

const (
	bearerSchema         = "Bearer "
	tokenSchema          = "Token "
	defaultTokenDuration = time.Hour * 24 // 24 hours
)

// Headers carrying the caller's location, set by the proxy in front of the
// server. The first non-empty one wins.
var locationHeaders = []string{"X-Client-Location", "CF-IPCountry"}

func clientFrom(c *gin.Context) Client {
	client := Client{IP: c.ClientIP(), UserAgent: c.Request.UserAgent()}
	for _, header := range locationHeaders {
		if loc := c.GetHeader(header); loc != "" {
			client.Location = loc
			break
		}
	}
	return client
}

// AuthMiddleware authenticates the request from its token and the stored
// session behind it
func (sessMgr *SessionManager) AuthMiddleware(c *gin.Context) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "Authorization header is required",
		})
		return
	}

	var tokenString string
	switch {
	case strings.HasPrefix(authHeader, bearerSchema):
		tokenString = strings.TrimPrefix(authHeader, bearerSchema)
	case strings.HasPrefix(authHeader, tokenSchema):
		tokenString = strings.TrimPrefix(authHeader, tokenSchema)
	default:
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "Authorization header must start with 'Bearer' or 'Token'",
		})
		return
	}

	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "Token is required",
		})
		return
	}

	session := NewSession(sessMgr.secretKey)
	session.Token = tokenString

	claims, err := session.parseToken()
	if err != nil {
		message := "Invalid token"
		if err == errExpiredToken {
			message = "Token has expired"
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": message,
		})
		return
	}

	var stored Session
	err = sessMgr.db.Preload("User").
		Where("id = ? AND token = ?", claims.SessionID, tokenString).
		First(&stored).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Session has been revoked"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to load session"})
		return
	}

	if stored.User == nil || !stored.User.IsActive {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User inactive or deleted"})
		return
	}

	stored.UpdateLastUsed(clientFrom(c))
	if err := sessMgr.db.Model(&Session{}).Where("id = ?", stored.ID).Updates(map[string]interface{}{
		"last_used_at":  stored.LastUsedAt,
		"last_used_ip":  stored.LastUsedIP,
		"last_used_loc": stored.LastUsedLoc,
		"user_agent":    stored.UserAgent,
	}).Error; err != nil {
		sessMgr.logger.Warn("failed to record session use", zap.String("session_id", stored.ID), zap.Error(err))
	}

	core.SetUser(c, stored.User.ID, stored.User.IsStaff)
	core.SetSessionID(c, stored.ID)
	c.Next()
}

// GetUserID retrieves the authenticated user ID from the context.
// Returns "" if no user ID is found in context
func (sessMgr *SessionManager) GetUserID(c *gin.Context) string {
	return core.GetUserID(c)
}
