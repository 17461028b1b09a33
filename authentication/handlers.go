package authentication

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/gsarmaonline/swapmart/core"
	"github.com/gsarmaonline/swapmart/storage"
)

const invalidCredentials = "Unable to authenticate with provided credentials."

type (
	LoginRequest struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}

	LoginResponse struct {
		User    *User    `json:"user"`
		Session *Session `json:"session"`
	}

	RegisterRequest struct {
		Email            string `json:"email" binding:"required,email"`
		Password         string `json:"password" binding:"required,min=5"`
		UserType         string `json:"user_type" binding:"required"`
		FirstName        string `json:"first_name"`
		LastName         string `json:"last_name"`
		BirthDate        string `json:"birth_date"`
		Gender           string `json:"gender"`
		PhoneNumber      string `json:"phone_number"`
		CoverPhotoPath   string `json:"cover_photo_path"`
		ProfileImagePath string `json:"profile_image_path"`
		Bio              string `json:"bio"`
		City             string `json:"city"`
		Address          string `json:"address"`
		Country          string `json:"country"`
		State            string `json:"state"`
		Street           string `json:"street"`
		ZipCode          string `json:"zip_code"`
		VerificationCode string `json:"verification_code" binding:"omitempty,max=10"`
	}

	UpdateUserRequest struct {
		Email       *string `json:"email,omitempty" binding:"omitempty,email"`
		Password    *string `json:"password,omitempty" binding:"omitempty,min=5"`
		UserType    *string `json:"user_type,omitempty"`
		FirstName   *string `json:"first_name,omitempty"`
		LastName    *string `json:"last_name,omitempty"`
		BirthDate   *string `json:"birth_date,omitempty"`
		Gender      *string `json:"gender,omitempty"`
		PhoneNumber *string `json:"phone_number,omitempty"`
		Bio         *string `json:"bio,omitempty"`
		City        *string `json:"city,omitempty"`
		Address     *string `json:"address,omitempty"`
		Country     *string `json:"country,omitempty"`
		State       *string `json:"state,omitempty"`
		Street      *string `json:"street,omitempty"`
		ZipCode     *string `json:"zip_code,omitempty"`
	}

	ConfirmEmailRequest struct {
		Code string `json:"code" binding:"required"`
	}
)

// RegisterHandler creates a new user account
func (sessMgr *SessionManager) RegisterHandler(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Check if email already exists
	var count int64
	if err := sessMgr.db.Model(&User{}).Where("email = ?", NormalizeEmail(req.Email)).Count(&count).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check email"})
		return
	}
	if count > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user with this email already exists", "field": "email"})
		return
	}

	if err := sessMgr.userTypeExists(req.UserType); err != nil {
		core.WriteError(c, err, "user type")
		return
	}

	user := &User{
		Email:            req.Email,
		UserTypeID:       req.UserType,
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		BirthDate:        req.BirthDate,
		Gender:           req.Gender,
		PhoneNumber:      req.PhoneNumber,
		CoverPhotoPath:   req.CoverPhotoPath,
		ProfileImagePath: req.ProfileImagePath,
		Bio:              req.Bio,
		City:             req.City,
		Address:          req.Address,
		Country:          req.Country,
		State:            req.State,
		Street:           req.Street,
		ZipCode:          req.ZipCode,
		VerificationCode: req.VerificationCode,
		IsActive:         true,
		IsFirstLogin:     true,
	}
	user.SetPassword(req.Password)
	if err := sessMgr.db.Create(user).Error; err != nil {
		core.WriteError(c, emailTaken(err), "user")
		return
	}

	sessMgr.logger.Info("user registered", zap.String("user_id", user.ID))
	c.JSON(http.StatusCreated, gin.H{"user": sessMgr.present(user)})
}

// LoginHandler authenticates the credentials and issues a session token
func (sessMgr *SessionManager) LoginHandler(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user User
	err := sessMgr.db.Where("email = ?", NormalizeEmail(req.Email)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{"error": invalidCredentials})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to find user"})
		return
	}

	if err := user.ComparePassword(req.Password); err != nil || !user.IsActive {
		c.JSON(http.StatusBadRequest, gin.H{"error": invalidCredentials})
		return
	}

	session := NewSession(sessMgr.secretKey)
	if err := session.Start(&user, clientFrom(c), sessMgr.tokenTTL); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session token"})
		return
	}

	if err := sessMgr.db.Omit("User").Create(session).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	// is_first_login stays true in this response so clients can onboard
	now := time.Now()
	if err := sessMgr.db.Model(&User{}).Where("id = ?", user.ID).UpdateColumns(map[string]interface{}{
		"last_login":     now,
		"is_first_login": false,
	}).Error; err != nil {
		sessMgr.logger.Warn("failed to record login", zap.String("user_id", user.ID), zap.Error(err))
	}
	user.LastLogin = &now

	c.JSON(http.StatusOK, LoginResponse{
		User:    sessMgr.present(&user),
		Session: session,
	})
}

// LogoutHandler invalidates the current session
func (sessMgr *SessionManager) LogoutHandler(c *gin.Context) {
	userID := sessMgr.GetUserID(c)
	sessionID := core.GetSessionID(c)
	if userID == "" || sessionID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	err := sessMgr.db.Where("id = ? AND user_id = ?", sessionID, userID).Delete(&Session{}).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to logout"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Successfully logged out"})
}

// GetMeHandler returns the authenticated user
func (sessMgr *SessionManager) GetMeHandler(c *gin.Context) {
	user, ok := sessMgr.loadCurrentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": sessMgr.present(user)})
}

// UpdateMeHandler updates the authenticated user's profile. PUT and PATCH
// both apply only the fields present in the body.
func (sessMgr *SessionManager) UpdateMeHandler(c *gin.Context) {
	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, ok := sessMgr.loadCurrentUser(c)
	if !ok {
		return
	}

	if req.Email != nil && NormalizeEmail(*req.Email) != user.Email {
		var count int64
		if err := sessMgr.db.Model(&User{}).
			Where("email = ? AND id <> ?", NormalizeEmail(*req.Email), user.ID).
			Count(&count).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check email"})
			return
		}
		if count > 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user with this email already exists", "field": "email"})
			return
		}
		user.Email = *req.Email
		user.IsEmailConfirmed = false
	}
	if req.UserType != nil {
		if err := sessMgr.userTypeExists(*req.UserType); err != nil {
			core.WriteError(c, err, "user type")
			return
		}
		user.UserTypeID = *req.UserType
	}
	if req.Password != nil {
		user.SetPassword(*req.Password)
	}

	for _, f := range []struct {
		src *string
		dst *string
	}{
		{req.FirstName, &user.FirstName},
		{req.LastName, &user.LastName},
		{req.BirthDate, &user.BirthDate},
		{req.Gender, &user.Gender},
		{req.PhoneNumber, &user.PhoneNumber},
		{req.Bio, &user.Bio},
		{req.City, &user.City},
		{req.Address, &user.Address},
		{req.Country, &user.Country},
		{req.State, &user.State},
		{req.Street, &user.Street},
		{req.ZipCode, &user.ZipCode},
	} {
		if f.src != nil {
			*f.dst = *f.src
		}
	}
	user.IsProfileChanged = true

	if err := sessMgr.db.Save(user).Error; err != nil {
		core.WriteError(c, emailTaken(err), "user")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": sessMgr.present(user)})
}

// DeleteMeHandler deletes the authenticated user's account along with
// everything it owns
func (sessMgr *SessionManager) DeleteMeHandler(c *gin.Context) {
	user, ok := sessMgr.loadCurrentUser(c)
	if !ok {
		return
	}

	purge, err := sessMgr.blobOwners.Collect(sessMgr.db, "user_id", user.ID)
	if err != nil {
		sessMgr.logger.Error("failed to collect stored files", zap.String("user_id", user.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
		return
	}

	if err := sessMgr.db.Delete(user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
		return
	}

	purge(c.Request.Context())
	sessMgr.deleteBlob(c, user.ProfileImagePath)
	sessMgr.deleteBlob(c, user.CoverPhotoPath)
	c.Status(http.StatusNoContent)
}

// UploadImageHandler stores a profile or cover image for the caller.
// The kind query parameter selects which one; profile is the default.
func (sessMgr *SessionManager) UploadImageHandler(c *gin.Context) {
	kind := c.DefaultQuery("kind", "profile")
	if kind != "profile" && kind != "cover" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "kind must be 'profile' or 'cover'"})
		return
	}
	if sessMgr.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "image storage is not configured"})
		return
	}

	fh, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required", "field": "image"})
		return
	}

	user, ok := sessMgr.loadCurrentUser(c)
	if !ok {
		return
	}

	key, err := storage.SaveImage(c.Request.Context(), sessMgr.store, storage.KindUser, fh, sessMgr.maxUpload)
	if err != nil {
		if errors.Is(err, storage.ErrNotImage) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "field": "image"})
			return
		}
		if errors.Is(err, storage.ErrTooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error(), "field": "image"})
			return
		}
		sessMgr.logger.Error("failed to store image", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store image"})
		return
	}

	column, old := "profile_image_path", user.ProfileImagePath
	if kind == "cover" {
		column, old = "cover_photo_path", user.CoverPhotoPath
	}
	if err := sessMgr.db.Model(&User{}).Where("id = ?", user.ID).UpdateColumn(column, key).Error; err != nil {
		sessMgr.deleteBlob(c, key)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
		return
	}
	sessMgr.deleteBlob(c, old)

	if kind == "cover" {
		user.CoverPhotoPath = key
	} else {
		user.ProfileImagePath = key
	}
	c.JSON(http.StatusOK, gin.H{"user": sessMgr.present(user)})
}

// ConfirmEmailHandler marks the caller's email as confirmed when the
// verification code matches
func (sessMgr *SessionManager) ConfirmEmailHandler(c *gin.Context) {
	var req ConfirmEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, ok := sessMgr.loadCurrentUser(c)
	if !ok {
		return
	}

	if subtle.ConstantTimeCompare([]byte(req.Code), []byte(user.VerificationCode)) != 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid verification code", "field": "code"})
		return
	}

	if err := sessMgr.db.Model(&User{}).Where("id = ?", user.ID).
		UpdateColumn("is_email_confirmed", true).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to confirm email"})
		return
	}
	user.IsEmailConfirmed = true

	c.JSON(http.StatusOK, gin.H{"user": sessMgr.present(user)})
}

// emailTaken reports a unique index violation on users, which can only be
// the email, the same way as the explicit duplicate check
func emailTaken(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return core.ErrInvalidField{Field: "email", Message: "user with this email already exists"}
	}
	return err
}

func (sessMgr *SessionManager) loadCurrentUser(c *gin.Context) (*User, bool) {
	userID := sessMgr.GetUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return nil, false
	}

	var user User
	if err := sessMgr.db.First(&user, "id = ?", userID).Error; err != nil {
		core.WriteError(c, err, "user")
		return nil, false
	}
	return &user, true
}

func (sessMgr *SessionManager) userTypeExists(id string) error {
	var count int64
	if err := sessMgr.db.Model(&UserType{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return core.ErrInvalidField{Field: "user_type", Message: "user type does not exist"}
	}
	return nil
}

// present fills the public URLs of stored images
func (sessMgr *SessionManager) present(user *User) *User {
	if sessMgr.store != nil {
		if user.ProfileImagePath != "" {
			user.ProfileImageURL = sessMgr.store.URL(user.ProfileImagePath)
		}
		if user.CoverPhotoPath != "" {
			user.CoverPhotoURL = sessMgr.store.URL(user.CoverPhotoPath)
		}
	}
	return user
}

func (sessMgr *SessionManager) deleteBlob(c *gin.Context, key string) {
	if key == "" || sessMgr.store == nil {
		return
	}
	if err := sessMgr.store.Delete(c.Request.Context(), key); err != nil {
		sessMgr.logger.Warn("failed to delete stored image", zap.String("key", key), zap.Error(err))
	}
}
