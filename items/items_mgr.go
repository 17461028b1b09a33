package items

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/gsarmaonline/swapmart/core"
	"github.com/gsarmaonline/swapmart/storage"
)

type (
	ItemManager struct {
		ctx    context.Context
		db     *gorm.DB
		store  storage.Store
		auth   gin.HandlerFunc
		logger *zap.Logger

		maxUpload int64
	}

	ItemConfig struct {
		Store     storage.Store
		Auth      gin.HandlerFunc
		Logger    *zap.Logger
		MaxUpload int64
	}
)

var (
	_ core.Plugin    = (*ItemManager)(nil)
	_ core.BlobOwner = (*ItemManager)(nil)
)

func NewItemManager(ctx context.Context, db *gorm.DB, cfg ItemConfig) *ItemManager {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &ItemManager{
		ctx:    ctx,
		db:     db,
		store:  cfg.Store,
		auth:   cfg.Auth,
		logger: cfg.Logger.Named("items"),

		maxUpload: cfg.MaxUpload,
	}
}

func (im *ItemManager) RegisterModels(db *gorm.DB) error {
	return db.AutoMigrate(&Item{}, &ItemImage{})
}

func (im *ItemManager) RegisterRoutes(api *gin.RouterGroup) {
	owned := api.Group("/item", im.auth)
	owned.GET("", im.GetItemsHandler)
	owned.GET("/:id", im.GetItemHandler)
	owned.POST("", im.CreateItemHandler)
	owned.PUT("/:id", im.UpdateItemHandler)
	owned.PATCH("/:id", im.UpdateItemHandler)
	owned.DELETE("/:id", im.DeleteItemHandler)

	images := api.Group("/item_image", im.auth)
	images.GET("", im.GetItemImagesHandler)
	images.GET("/:id", im.GetItemImageHandler)
	images.POST("", im.CreateItemImageHandler)
	images.PUT("/:id", im.UpdateItemImageHandler)
	images.PATCH("/:id", im.UpdateItemImageHandler)
	images.DELETE("/:id", im.DeleteItemImageHandler)

	marketplace := api.Group("/marketplace/item")
	marketplace.GET("", im.BrowseItemsHandler)
	marketplace.GET("/:id", im.GetListedItemHandler)
}

// Listed restricts a query to items other users can browse
func Listed(db *gorm.DB) *gorm.DB {
	return db.Where("items.status = ? AND items.is_available = ?", StatusActive, true)
}

func (im *ItemManager) deleteBlob(ctx context.Context, key string) {
	if key == "" || im.store == nil {
		return
	}
	if err := im.store.Delete(ctx, key); err != nil {
		im.logger.Warn("failed to delete stored image", zap.String("key", key), zap.Error(err))
	}
}

// cascadeColumns are the item columns whose parent rows cascade into items
var cascadeColumns = map[string]bool{
	"user_id":         true,
	"category_id":     true,
	"sub_category_id": true,
}

// CollectBlobs returns the image keys of every item where column = id
func (im *ItemManager) CollectBlobs(db *gorm.DB, column, id string) ([]string, error) {
	if !cascadeColumns[column] {
		return nil, fmt.Errorf("items: cannot cascade on column %q", column)
	}
	var keys []string
	err := db.Model(&ItemImage{}).
		Where("item_id IN (?)", db.Model(&Item{}).Select("id").Where(column+" = ?", id)).
		Pluck("image", &keys).Error
	return keys, err
}

func (im *ItemManager) PurgeBlobs(ctx context.Context, keys []string) {
	for _, key := range keys {
		im.deleteBlob(ctx, key)
	}
}
