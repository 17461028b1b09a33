package items

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/gsarmaonline/swapmart/core"
)

type (
	CreateItemRequest struct {
		Name             string   `json:"name" binding:"required"`
		Description      string   `json:"description"`
		ShortInfo        string   `json:"short_info"`
		Condition        string   `json:"condition" binding:"required"`
		Status           string   `json:"status"`
		State            string   `json:"state"`
		Version          string   `json:"version"`
		DisplayImagePath string   `json:"display_image_path"`
		Price            *float64 `json:"price" binding:"required"`
		IsFree           bool     `json:"is_free"`
		IsAvailable      *bool    `json:"is_available"`
		Category         string   `json:"category" binding:"required"`
		SubCategory      string   `json:"sub_category" binding:"required"`
	}

	UpdateItemRequest struct {
		Name             *string  `json:"name,omitempty"`
		Description      *string  `json:"description,omitempty"`
		ShortInfo        *string  `json:"short_info,omitempty"`
		Condition        *string  `json:"condition,omitempty"`
		Status           *string  `json:"status,omitempty"`
		State            *string  `json:"state,omitempty"`
		Version          *string  `json:"version,omitempty"`
		DisplayImagePath *string  `json:"display_image_path,omitempty"`
		Price            *float64 `json:"price,omitempty"`
		IsFree           *bool    `json:"is_free,omitempty"`
		IsAvailable      *bool    `json:"is_available,omitempty"`
		Category         *string  `json:"category,omitempty"`
		SubCategory      *string  `json:"sub_category,omitempty"`
	}
)

// GetItemsHandler lists the caller's items, newest first. status,
// category, sub_category and is_available narrow the list.
func (im *ItemManager) GetItemsHandler(c *gin.Context) {
	query := im.db.Scopes(core.OwnedBy("user_id", core.GetUserID(c)), core.NewestFirst)

	query, err := filterItems(c, query)
	if err != nil {
		core.WriteError(c, err, "item")
		return
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	available, err := core.ParseBoolQuery(c, "is_available")
	if err != nil {
		core.WriteError(c, err, "item")
		return
	}
	if available != nil {
		query = query.Where("is_available = ?", *available)
	}

	var items []Item
	if err := query.Find(&items).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch items"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (im *ItemManager) GetItemHandler(c *gin.Context) {
	item, ok := im.loadOwnedItem(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": item})
}

// CreateItemHandler creates an item owned by the caller
func (im *ItemManager) CreateItemHandler(c *gin.Context) {
	var req CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item := &Item{
		Name:             req.Name,
		Description:      req.Description,
		ShortInfo:        req.ShortInfo,
		Condition:        req.Condition,
		Status:           req.Status,
		State:            req.State,
		Version:          req.Version,
		DisplayImagePath: req.DisplayImagePath,
		Price:            *req.Price,
		IsFree:           req.IsFree,
		IsAvailable:      true,
		CategoryID:       req.Category,
		SubCategoryID:    req.SubCategory,
		UserID:           core.GetUserID(c),
	}
	if req.IsAvailable != nil {
		item.IsAvailable = *req.IsAvailable
	}

	if err := im.db.Create(item).Error; err != nil {
		core.WriteError(c, err, "item")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"item": item})
}

// UpdateItemHandler applies the fields present in the body to one of the
// caller's items
func (im *ItemManager) UpdateItemHandler(c *gin.Context) {
	var req UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, ok := im.loadOwnedItem(c)
	if !ok {
		return
	}

	for _, f := range []struct {
		src *string
		dst *string
	}{
		{req.Name, &item.Name},
		{req.Description, &item.Description},
		{req.ShortInfo, &item.ShortInfo},
		{req.Condition, &item.Condition},
		{req.Status, &item.Status},
		{req.State, &item.State},
		{req.Version, &item.Version},
		{req.DisplayImagePath, &item.DisplayImagePath},
		{req.Category, &item.CategoryID},
		{req.SubCategory, &item.SubCategoryID},
	} {
		if f.src != nil {
			*f.dst = *f.src
		}
	}
	if req.Price != nil {
		item.Price = *req.Price
	}
	if req.IsFree != nil {
		item.IsFree = *req.IsFree
	}
	if req.IsAvailable != nil {
		item.IsAvailable = *req.IsAvailable
	}

	if err := im.db.Save(item).Error; err != nil {
		core.WriteError(c, err, "item")
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": item})
}

// DeleteItemHandler deletes one of the caller's items together with its
// images and their stored files
func (im *ItemManager) DeleteItemHandler(c *gin.Context) {
	item, ok := im.loadOwnedItem(c)
	if !ok {
		return
	}

	var keys []string
	if err := im.db.Model(&ItemImage{}).Where("item_id = ?", item.ID).Pluck("image", &keys).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch item images"})
		return
	}

	if err := im.db.Delete(item).Error; err != nil {
		core.WriteError(c, err, "item")
		return
	}
	im.PurgeBlobs(c.Request.Context(), keys)
	c.Status(http.StatusNoContent)
}

// loadOwnedItem fetches the :id item if the caller owns it. Items of other
// users answer 404.
func (im *ItemManager) loadOwnedItem(c *gin.Context) (*Item, bool) {
	var item Item
	err := im.db.Scopes(core.OwnedBy("user_id", core.GetUserID(c))).
		First(&item, "id = ?", c.Param("id")).Error
	if err != nil {
		core.WriteError(c, err, "item")
		return nil, false
	}
	return &item, true
}

// filterItems applies the category filters and pagination shared by the
// owner and marketplace listings
func filterItems(c *gin.Context, query *gorm.DB) (*gorm.DB, error) {
	if category := c.Query("category"); category != "" {
		query = query.Where("category_id = ?", category)
	}
	if subCategory := c.Query("sub_category"); subCategory != "" {
		query = query.Where("sub_category_id = ?", subCategory)
	}
	paginate, err := core.Paginate(c)
	if err != nil {
		return nil, err
	}
	return query.Scopes(paginate), nil
}
