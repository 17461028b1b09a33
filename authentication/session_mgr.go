package authentication

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/gsarmaonline/swapmart/core"
	"github.com/gsarmaonline/swapmart/storage"
)

type (
	SessionManager struct {
		ctx    context.Context
		db     *gorm.DB
		store  storage.Store
		logger *zap.Logger

		secretKey   []byte
		tokenTTL    time.Duration
		maxUpload   int64
		rateLimiter gin.HandlerFunc
		blobOwners  core.BlobOwners
	}

	SessionConfig struct {
		SecretKey []byte
		TokenTTL  time.Duration
		Store     storage.Store
		Logger    *zap.Logger
		MaxUpload int64
		// Applied to the register and token endpoints when set
		RateLimiter gin.HandlerFunc
	}
)

var _ core.Plugin = (*SessionManager)(nil)

func NewSessionManager(ctx context.Context, db *gorm.DB, cfg SessionConfig) (sessionMgr *SessionManager, err error) {
	if len(cfg.SecretKey) == 0 {
		return nil, errors.New("JWT secret key is not set")
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = defaultTokenDuration
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	sessionMgr = &SessionManager{
		ctx:         ctx,
		db:          db,
		store:       cfg.Store,
		logger:      cfg.Logger.Named("authentication"),
		secretKey:   cfg.SecretKey,
		tokenTTL:    cfg.TokenTTL,
		maxUpload:   cfg.MaxUpload,
		rateLimiter: cfg.RateLimiter,
	}
	return
}

// AddBlobOwner registers a plugin whose stored files must be purged when an
// account is deleted
func (sessionMgr *SessionManager) AddBlobOwner(owner core.BlobOwner) {
	sessionMgr.blobOwners = append(sessionMgr.blobOwners, owner)
}

func (sessionMgr *SessionManager) RegisterModels(db *gorm.DB) (err error) {
	err = db.AutoMigrate(&UserType{}, &User{}, &Session{})
	return
}

func (sessionMgr *SessionManager) RegisterRoutes(api *gin.RouterGroup) {
	public := []gin.HandlerFunc{}
	if sessionMgr.rateLimiter != nil {
		public = append(public, sessionMgr.rateLimiter)
	}

	user := api.Group("/user")
	user.POST("/create", append(public, sessionMgr.RegisterHandler)...)
	user.POST("/token", append(public, sessionMgr.LoginHandler)...)

	auth := user.Group("", sessionMgr.AuthMiddleware)
	auth.POST("/logout", sessionMgr.LogoutHandler)
	auth.GET("/me", sessionMgr.GetMeHandler)
	auth.PUT("/me", sessionMgr.UpdateMeHandler)
	auth.PATCH("/me", sessionMgr.UpdateMeHandler)
	auth.DELETE("/me", sessionMgr.DeleteMeHandler)
	auth.POST("/me/image", sessionMgr.UploadImageHandler)
	auth.POST("/me/confirm-email", sessionMgr.ConfirmEmailHandler)

	userTypes := api.Group("/user_type")
	userTypes.GET("", sessionMgr.GetUserTypesHandler)
	userTypes.GET("/:id", sessionMgr.GetUserTypeHandler)
	staff := userTypes.Group("", sessionMgr.AuthMiddleware, core.RequireStaff)
	staff.POST("", sessionMgr.CreateUserTypeHandler)
	staff.PUT("/:id", sessionMgr.UpdateUserTypeHandler)
	staff.PATCH("/:id", sessionMgr.UpdateUserTypeHandler)
	staff.DELETE("/:id", sessionMgr.DeleteUserTypeHandler)
}

// CreateSuperuser creates an active staff + superuser account, creating the
// named user type if needed.
func (sessionMgr *SessionManager) CreateSuperuser(ctx context.Context, email, password, userTypeName string) (*User, error) {
	var user *User
	err := sessionMgr.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var userType UserType
		if err := tx.Where(UserType{Name: userTypeName}).FirstOrCreate(&userType).Error; err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&User{}).Where("email = ?", NormalizeEmail(email)).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return core.ErrConflict{Message: "user with this email already exists"}
		}

		user = &User{
			Email:       email,
			UserTypeID:  userType.ID,
			IsActive:    true,
			IsStaff:     true,
			IsSuperuser: true,
		}
		user.SetPassword(password)
		return tx.Create(user).Error
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}
