package catalog

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gsarmaonline/swapmart/core"
)

type (
	CategoryRequest struct {
		Name string `json:"name" binding:"required,max=255"`
	}

	CreateSubCategoryRequest struct {
		Name     string `json:"name" binding:"required,max=255"`
		Category string `json:"category" binding:"required"`
	}

	UpdateSubCategoryRequest struct {
		Name     *string `json:"name,omitempty" binding:"omitempty,max=255"`
		Category *string `json:"category,omitempty"`
	}
)

// GetCategoriesHandler lists all categories, newest first
func (cm *CatalogManager) GetCategoriesHandler(c *gin.Context) {
	var categories []Category
	if err := cm.db.Scopes(core.NewestFirst).Find(&categories).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch categories"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// GetCategoryHandler returns a category with its sub-categories
func (cm *CatalogManager) GetCategoryHandler(c *gin.Context) {
	var category Category
	err := cm.db.Preload("SubCategories", core.NewestFirst).
		First(&category, "id = ?", c.Param("id")).Error
	if err != nil {
		core.WriteError(c, err, "category")
		return
	}
	c.JSON(http.StatusOK, gin.H{"category": category})
}

func (cm *CatalogManager) CreateCategoryHandler(c *gin.Context) {
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category := &Category{Name: req.Name}
	if err := cm.db.Create(category).Error; err != nil {
		core.WriteError(c, err, "category")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"category": category})
}

func (cm *CatalogManager) UpdateCategoryHandler(c *gin.Context) {
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var category Category
	if err := cm.db.First(&category, "id = ?", c.Param("id")).Error; err != nil {
		core.WriteError(c, err, "category")
		return
	}

	category.Name = req.Name
	if err := cm.db.Save(&category).Error; err != nil {
		core.WriteError(c, err, "category")
		return
	}
	c.JSON(http.StatusOK, gin.H{"category": category})
}

// DeleteCategoryHandler removes a category; its sub-categories and items
// go with it
func (cm *CatalogManager) DeleteCategoryHandler(c *gin.Context) {
	id := c.Param("id")
	purge, err := cm.blobOwners.Collect(cm.db, "category_id", id)
	if err != nil {
		cm.logger.Error("failed to collect stored files", zap.String("category_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete category"})
		return
	}

	result := cm.db.Delete(&Category{}, "id = ?", id)
	if result.Error != nil {
		core.WriteError(c, result.Error, "category")
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "category not found"})
		return
	}
	purge(c.Request.Context())
	c.Status(http.StatusNoContent)
}

// GetSubCategoriesHandler lists sub-categories, optionally only those of
// one category
func (cm *CatalogManager) GetSubCategoriesHandler(c *gin.Context) {
	query := cm.db.Scopes(core.NewestFirst)
	if category := c.Query("category"); category != "" {
		query = query.Where("category_id = ?", category)
	}

	var subCategories []SubCategory
	if err := query.Find(&subCategories).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch sub-categories"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sub_categories": subCategories})
}

func (cm *CatalogManager) GetSubCategoryHandler(c *gin.Context) {
	var subCategory SubCategory
	if err := cm.db.First(&subCategory, "id = ?", c.Param("id")).Error; err != nil {
		core.WriteError(c, err, "sub-category")
		return
	}
	c.JSON(http.StatusOK, gin.H{"sub_category": subCategory})
}

func (cm *CatalogManager) CreateSubCategoryHandler(c *gin.Context) {
	var req CreateSubCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	subCategory := &SubCategory{Name: req.Name, CategoryID: req.Category}
	if err := cm.db.Create(subCategory).Error; err != nil {
		core.WriteError(c, err, "sub-category")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"sub_category": subCategory})
}

func (cm *CatalogManager) UpdateSubCategoryHandler(c *gin.Context) {
	var req UpdateSubCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var subCategory SubCategory
	if err := cm.db.First(&subCategory, "id = ?", c.Param("id")).Error; err != nil {
		core.WriteError(c, err, "sub-category")
		return
	}

	if req.Name != nil {
		subCategory.Name = *req.Name
	}
	if req.Category != nil {
		subCategory.CategoryID = *req.Category
	}
	if err := cm.db.Save(&subCategory).Error; err != nil {
		core.WriteError(c, err, "sub-category")
		return
	}
	c.JSON(http.StatusOK, gin.H{"sub_category": subCategory})
}

func (cm *CatalogManager) DeleteSubCategoryHandler(c *gin.Context) {
	id := c.Param("id")
	purge, err := cm.blobOwners.Collect(cm.db, "sub_category_id", id)
	if err != nil {
		cm.logger.Error("failed to collect stored files", zap.String("sub_category_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete sub-category"})
		return
	}

	result := cm.db.Delete(&SubCategory{}, "id = ?", id)
	if result.Error != nil {
		core.WriteError(c, result.Error, "sub-category")
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "sub-category not found"})
		return
	}
	purge(c.Request.Context())
	c.Status(http.StatusNoContent)
}
