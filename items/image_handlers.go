package items

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gsarmaonline/swapmart/core"
	"github.com/gsarmaonline/swapmart/storage"
)

// GetItemImagesHandler lists the caller's item images, optionally for one
// item only
func (im *ItemManager) GetItemImagesHandler(c *gin.Context) {
	query := im.db.Scopes(core.OwnedBy("user_id", core.GetUserID(c)), core.NewestFirst)
	if item := c.Query("item"); item != "" {
		query = query.Where("item_id = ?", item)
	}

	var images []ItemImage
	if err := query.Find(&images).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch item images"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"item_images": images})
}

func (im *ItemManager) GetItemImageHandler(c *gin.Context) {
	image, ok := im.loadOwnedImage(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"item_image": image})
}

// CreateItemImageHandler stores the multipart "image" file for the item
// named by the "item" form field
func (im *ItemManager) CreateItemImageHandler(c *gin.Context) {
	itemID := c.PostForm("item")
	if itemID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "item is required", "field": "item"})
		return
	}
	fh, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required", "field": "image"})
		return
	}

	userID := core.GetUserID(c)
	if !im.ownsItem(c, userID, itemID) {
		return
	}

	key, ok := im.saveUpload(c, fh)
	if !ok {
		return
	}

	image := &ItemImage{
		Image:  key,
		URL:    im.store.URL(key),
		ItemID: itemID,
		UserID: userID,
	}
	if err := im.db.Create(image).Error; err != nil {
		im.deleteBlob(c.Request.Context(), key)
		core.WriteError(c, err, "item image")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"item_image": image})
}

// UpdateItemImageHandler replaces the stored file and/or moves the image
// to another of the caller's items
func (im *ItemManager) UpdateItemImageHandler(c *gin.Context) {
	image, ok := im.loadOwnedImage(c)
	if !ok {
		return
	}

	if itemID := c.PostForm("item"); itemID != "" && itemID != image.ItemID {
		if !im.ownsItem(c, image.UserID, itemID) {
			return
		}
		image.ItemID = itemID
	}

	var oldKey string
	if fh, err := c.FormFile("image"); err == nil {
		key, ok := im.saveUpload(c, fh)
		if !ok {
			return
		}
		oldKey = image.Image
		image.Image = key
		image.URL = im.store.URL(key)
	}

	if err := im.db.Save(image).Error; err != nil {
		if oldKey != "" {
			im.deleteBlob(c.Request.Context(), image.Image)
		}
		core.WriteError(c, err, "item image")
		return
	}
	im.deleteBlob(c.Request.Context(), oldKey)
	c.JSON(http.StatusOK, gin.H{"item_image": image})
}

// DeleteItemImageHandler deletes the row and its stored file
func (im *ItemManager) DeleteItemImageHandler(c *gin.Context) {
	image, ok := im.loadOwnedImage(c)
	if !ok {
		return
	}

	if err := im.db.Delete(image).Error; err != nil {
		core.WriteError(c, err, "item image")
		return
	}
	im.deleteBlob(c.Request.Context(), image.Image)
	c.Status(http.StatusNoContent)
}

func (im *ItemManager) loadOwnedImage(c *gin.Context) (*ItemImage, bool) {
	var image ItemImage
	err := im.db.Scopes(core.OwnedBy("user_id", core.GetUserID(c))).
		First(&image, "id = ?", c.Param("id")).Error
	if err != nil {
		core.WriteError(c, err, "item image")
		return nil, false
	}
	return &image, true
}

// ownsItem writes a 400 unless userID owns itemID
func (im *ItemManager) ownsItem(c *gin.Context, userID, itemID string) bool {
	var count int64
	if err := im.db.Model(&Item{}).Scopes(core.OwnedBy("user_id", userID)).
		Where("id = ?", itemID).Count(&count).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch item"})
		return false
	}
	if count == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "item does not exist", "field": "item"})
		return false
	}
	return true
}

func (im *ItemManager) saveUpload(c *gin.Context, fh *multipart.FileHeader) (string, bool) {
	if im.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "image storage is not configured"})
		return "", false
	}

	key, err := storage.SaveImage(c.Request.Context(), im.store, storage.KindItem, fh, im.maxUpload)
	switch {
	case err == nil:
		return key, true
	case errors.Is(err, storage.ErrNotImage):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "field": "image"})
	case errors.Is(err, storage.ErrTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error(), "field": "image"})
	default:
		im.logger.Error("failed to store image", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store image"})
	}
	return "", false
}
