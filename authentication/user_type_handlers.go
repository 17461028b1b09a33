package authentication

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gsarmaonline/swapmart/core"
)

type UserTypeRequest struct {
	Name string `json:"name" binding:"required,max=255"`
}

// GetUserTypesHandler lists user types, newest first
func (sessMgr *SessionManager) GetUserTypesHandler(c *gin.Context) {
	var userTypes []UserType
	if err := sessMgr.db.Scopes(core.NewestFirst).Find(&userTypes).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch user types"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_types": userTypes})
}

func (sessMgr *SessionManager) GetUserTypeHandler(c *gin.Context) {
	var userType UserType
	if err := sessMgr.db.First(&userType, "id = ?", c.Param("id")).Error; err != nil {
		core.WriteError(c, err, "user type")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_type": userType})
}

func (sessMgr *SessionManager) CreateUserTypeHandler(c *gin.Context) {
	var req UserTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userType := &UserType{Name: strings.TrimSpace(req.Name)}
	if err := sessMgr.db.Create(userType).Error; err != nil {
		core.WriteError(c, err, "user type")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user_type": userType})
}

func (sessMgr *SessionManager) UpdateUserTypeHandler(c *gin.Context) {
	var req UserTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var userType UserType
	if err := sessMgr.db.First(&userType, "id = ?", c.Param("id")).Error; err != nil {
		core.WriteError(c, err, "user type")
		return
	}

	userType.Name = strings.TrimSpace(req.Name)
	if err := sessMgr.db.Save(&userType).Error; err != nil {
		core.WriteError(c, err, "user type")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_type": userType})
}

// DeleteUserTypeHandler removes a user type that no account references
func (sessMgr *SessionManager) DeleteUserTypeHandler(c *gin.Context) {
	var userType UserType
	if err := sessMgr.db.First(&userType, "id = ?", c.Param("id")).Error; err != nil {
		core.WriteError(c, err, "user type")
		return
	}

	if err := sessMgr.db.Delete(&userType).Error; err != nil {
		core.WriteError(c, err, "user type")
		return
	}
	c.Status(http.StatusNoContent)
}
