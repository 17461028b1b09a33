package reviews

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/gsarmaonline/swapmart/authentication"
	"github.com/gsarmaonline/swapmart/core"
	"github.com/gsarmaonline/swapmart/items"
)

const (
	MinRating = 1
	MaxRating = 10
)

type (
	Review struct {
		core.BaseModel

		Comment string `json:"comment"`
		Rating  int    `json:"rating" gorm:"not null"`

		ItemID string               `json:"item" gorm:"type:varchar(36);not null;index"`
		Item   *items.Item          `json:"-" gorm:"constraint:OnDelete:CASCADE"`
		UserID string               `json:"user" gorm:"type:varchar(36);not null;index"`
		User   *authentication.User `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	}

	// ReviewSummary is the list representation of a review; it leaves out
	// the author
	ReviewSummary struct {
		ID        string    `json:"id"`
		Comment   string    `json:"comment"`
		Rating    int       `json:"rating"`
		ItemID    string    `json:"item"`
		CreatedAt time.Time `json:"created_at"`
		UpdatedAt time.Time `json:"updated_at"`
	}
)

func (r *Review) Summary() ReviewSummary {
	return ReviewSummary{
		ID:        r.ID,
		Comment:   r.Comment,
		Rating:    r.Rating,
		ItemID:    r.ItemID,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func summarize(reviews []Review) []ReviewSummary {
	summaries := make([]ReviewSummary, 0, len(reviews))
	for i := range reviews {
		summaries = append(summaries, reviews[i].Summary())
	}
	return summaries
}

// BeforeSave checks the rating range and that the reviewed item exists
// and belongs to someone else
func (r *Review) BeforeSave(tx *gorm.DB) error {
	if r.Rating < MinRating || r.Rating > MaxRating {
		return core.ErrInvalidField{Field: "rating", Message: "must be between 1 and 10"}
	}
	if r.ItemID == "" {
		return core.ErrInvalidField{Field: "item", Message: "is required"}
	}

	var item items.Item
	err := tx.Session(&gorm.Session{NewDB: true}).
		Select("id", "user_id").
		Where("id = ?", r.ItemID).
		Take(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return core.ErrInvalidField{Field: "item", Message: "item does not exist"}
		}
		return err
	}
	if item.UserID == r.UserID {
		return core.ErrInvalidField{Field: "item", Message: "cannot review your own item"}
	}
	return nil
}
