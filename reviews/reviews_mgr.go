package reviews

import (
	"context"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/gsarmaonline/swapmart/core"
)

type ReviewManager struct {
	ctx  context.Context
	db   *gorm.DB
	auth gin.HandlerFunc
}

var _ core.Plugin = (*ReviewManager)(nil)

func NewReviewManager(ctx context.Context, db *gorm.DB, auth gin.HandlerFunc) *ReviewManager {
	return &ReviewManager{ctx: ctx, db: db, auth: auth}
}

func (rm *ReviewManager) RegisterModels(db *gorm.DB) error {
	return db.AutoMigrate(&Review{})
}

func (rm *ReviewManager) RegisterRoutes(api *gin.RouterGroup) {
	owned := api.Group("/review", rm.auth)
	owned.GET("", rm.GetReviewsHandler)
	owned.GET("/:id", rm.GetReviewHandler)
	owned.POST("", rm.CreateReviewHandler)
	owned.PUT("/:id", rm.UpdateReviewHandler)
	owned.PATCH("/:id", rm.UpdateReviewHandler)
	owned.DELETE("/:id", rm.DeleteReviewHandler)

	api.GET("/marketplace/item/:id/reviews", rm.GetItemReviewsHandler)
}
