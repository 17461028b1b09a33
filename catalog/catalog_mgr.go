package catalog

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/gsarmaonline/swapmart/core"
)

// CatalogManager serves categories and sub-categories. Reads are public,
// writes need a staff caller.
type CatalogManager struct {
	ctx        context.Context
	db         *gorm.DB
	auth       gin.HandlerFunc
	logger     *zap.Logger
	blobOwners core.BlobOwners
}

var _ core.Plugin = (*CatalogManager)(nil)

func NewCatalogManager(ctx context.Context, db *gorm.DB, auth gin.HandlerFunc) *CatalogManager {
	return &CatalogManager{ctx: ctx, db: db, auth: auth, logger: zap.NewNop()}
}

// AddBlobOwner registers a plugin whose stored files must be purged when a
// category or sub-category is deleted
func (cm *CatalogManager) AddBlobOwner(owner core.BlobOwner) {
	cm.blobOwners = append(cm.blobOwners, owner)
}

func (cm *CatalogManager) SetLogger(logger *zap.Logger) {
	cm.logger = logger.Named("catalog")
}

func (cm *CatalogManager) RegisterModels(db *gorm.DB) error {
	return db.AutoMigrate(&Category{}, &SubCategory{})
}

func (cm *CatalogManager) RegisterRoutes(api *gin.RouterGroup) {
	categories := api.Group("/category")
	categories.GET("", cm.GetCategoriesHandler)
	categories.GET("/:id", cm.GetCategoryHandler)
	staff := categories.Group("", cm.auth, core.RequireStaff)
	staff.POST("", cm.CreateCategoryHandler)
	staff.PUT("/:id", cm.UpdateCategoryHandler)
	staff.PATCH("/:id", cm.UpdateCategoryHandler)
	staff.DELETE("/:id", cm.DeleteCategoryHandler)

	subCategories := api.Group("/sub_category")
	subCategories.GET("", cm.GetSubCategoriesHandler)
	subCategories.GET("/:id", cm.GetSubCategoryHandler)
	staff = subCategories.Group("", cm.auth, core.RequireStaff)
	staff.POST("", cm.CreateSubCategoryHandler)
	staff.PUT("/:id", cm.UpdateSubCategoryHandler)
	staff.PATCH("/:id", cm.UpdateSubCategoryHandler)
	staff.DELETE("/:id", cm.DeleteSubCategoryHandler)
}
