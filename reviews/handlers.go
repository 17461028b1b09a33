package reviews

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gsarmaonline/swapmart/core"
	"github.com/gsarmaonline/swapmart/items"
)

type (
	CreateReviewRequest struct {
		Item    string `json:"item" binding:"required"`
		Rating  int    `json:"rating" binding:"required"`
		Comment string `json:"comment"`
	}

	UpdateReviewRequest struct {
		Item    *string `json:"item,omitempty"`
		Rating  *int    `json:"rating,omitempty"`
		Comment *string `json:"comment,omitempty"`
	}
)

// GetReviewsHandler lists the caller's reviews, newest first
func (rm *ReviewManager) GetReviewsHandler(c *gin.Context) {
	query := rm.db.Scopes(core.OwnedBy("user_id", core.GetUserID(c)), core.NewestFirst)
	if item := c.Query("item"); item != "" {
		query = query.Where("item_id = ?", item)
	}
	paginate, err := core.Paginate(c)
	if err != nil {
		core.WriteError(c, err, "review")
		return
	}

	var reviews []Review
	if err := query.Scopes(paginate).Find(&reviews).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch reviews"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reviews": summarize(reviews)})
}

func (rm *ReviewManager) GetReviewHandler(c *gin.Context) {
	review, ok := rm.loadOwnedReview(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"review": review})
}

func (rm *ReviewManager) CreateReviewHandler(c *gin.Context) {
	var req CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	review := &Review{
		ItemID:  req.Item,
		Rating:  req.Rating,
		Comment: req.Comment,
		UserID:  core.GetUserID(c),
	}
	if err := rm.db.Create(review).Error; err != nil {
		core.WriteError(c, err, "review")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"review": review})
}

func (rm *ReviewManager) UpdateReviewHandler(c *gin.Context) {
	var req UpdateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	review, ok := rm.loadOwnedReview(c)
	if !ok {
		return
	}
	if req.Item != nil {
		review.ItemID = *req.Item
	}
	if req.Rating != nil {
		review.Rating = *req.Rating
	}
	if req.Comment != nil {
		review.Comment = *req.Comment
	}

	if err := rm.db.Save(review).Error; err != nil {
		core.WriteError(c, err, "review")
		return
	}
	c.JSON(http.StatusOK, gin.H{"review": review})
}

func (rm *ReviewManager) DeleteReviewHandler(c *gin.Context) {
	review, ok := rm.loadOwnedReview(c)
	if !ok {
		return
	}
	if err := rm.db.Delete(review).Error; err != nil {
		core.WriteError(c, err, "review")
		return
	}
	c.Status(http.StatusNoContent)
}

// GetItemReviewsHandler lists every review of a listed item, newest first
func (rm *ReviewManager) GetItemReviewsHandler(c *gin.Context) {
	var count int64
	if err := rm.db.Model(&items.Item{}).Scopes(items.Listed).
		Where("id = ?", c.Param("id")).Count(&count).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch item"})
		return
	}
	if count == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
		return
	}

	paginate, err := core.Paginate(c)
	if err != nil {
		core.WriteError(c, err, "review")
		return
	}

	var reviews []Review
	if err := rm.db.Scopes(core.NewestFirst, paginate).
		Where("item_id = ?", c.Param("id")).
		Find(&reviews).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch reviews"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reviews": summarize(reviews)})
}

func (rm *ReviewManager) loadOwnedReview(c *gin.Context) (*Review, bool) {
	var review Review
	err := rm.db.Scopes(core.OwnedBy("user_id", core.GetUserID(c))).
		First(&review, "id = ?", c.Param("id")).Error
	if err != nil {
		core.WriteError(c, err, "review")
		return nil, false
	}
	return &review, true
}
