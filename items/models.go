package items

import (
	"errors"
	"math"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/gsarmaonline/swapmart/authentication"
	"github.com/gsarmaonline/swapmart/catalog"
	"github.com/gsarmaonline/swapmart/core"
)

const (
	ConditionNew      = "New"
	ConditionOld      = "Old"
	ConditionUsed     = "Used"
	ConditionLikeNew  = "Used(Like New)"
	StatusActive      = "Active"
	StatusDraft       = "Draft"
	StatusSwapped     = "Swapped"
	maxPrice          = 99999999.99
	maxFieldLength    = 255
	defaultItemStatus = StatusDraft
)

var (
	conditions = []string{ConditionNew, ConditionOld, ConditionUsed, ConditionLikeNew}
	statuses   = []string{StatusActive, StatusDraft, StatusSwapped}
)

type (
	Item struct {
		core.BaseModel

		Name             string  `json:"name" gorm:"not null"`
		Description      string  `json:"description"`
		ShortInfo        string  `json:"short_info"`
		Condition        string  `json:"condition" gorm:"not null"`
		Status           string  `json:"status" gorm:"not null;index"`
		State            string  `json:"state"`
		Version          string  `json:"version"`
		DisplayImagePath string  `json:"display_image_path"`
		Price            float64 `json:"price" gorm:"type:decimal(10,2);not null"`
		IsFree           bool    `json:"is_free"`
		IsAvailable      bool    `json:"is_available" gorm:"not null"`

		CategoryID    string               `json:"category" gorm:"type:varchar(36);not null;index"`
		Category      *catalog.Category    `json:"-" gorm:"constraint:OnDelete:CASCADE"`
		SubCategoryID string               `json:"sub_category" gorm:"type:varchar(36);not null;index"`
		SubCategory   *catalog.SubCategory `json:"-" gorm:"constraint:OnDelete:CASCADE"`
		UserID        string               `json:"user" gorm:"type:varchar(36);not null;index"`
		User          *authentication.User `json:"-" gorm:"constraint:OnDelete:CASCADE"`

		Images []ItemImage `json:"images,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	}

	// ItemImage is an uploaded picture of an item. Image holds the storage
	// key, URL where clients fetch it.
	ItemImage struct {
		core.BaseModel

		Image  string               `json:"image" gorm:"not null"`
		URL    string               `json:"url"`
		ItemID string               `json:"item" gorm:"type:varchar(36);not null;index"`
		Item   *Item                `json:"-" gorm:"constraint:OnDelete:CASCADE"`
		UserID string               `json:"user" gorm:"type:varchar(36);not null;index"`
		User   *authentication.User `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	}
)

func oneOf(value string, choices []string) bool {
	for _, choice := range choices {
		if value == choice {
			return true
		}
	}
	return false
}

// BeforeSave validates choices, price and the category pairing
func (i *Item) BeforeSave(tx *gorm.DB) error {
	i.Name = strings.TrimSpace(i.Name)
	if i.Name == "" {
		return core.ErrInvalidField{Field: "name", Message: "must not be empty"}
	}
	for field, value := range map[string]string{
		"name":        i.Name,
		"description": i.Description,
		"short_info":  i.ShortInfo,
		"state":       i.State,
		"version":     i.Version,
	} {
		if utf8.RuneCountInString(value) > maxFieldLength {
			return core.ErrInvalidField{Field: field, Message: "must be at most 255 characters"}
		}
	}

	if !oneOf(i.Condition, conditions) {
		return core.ErrInvalidField{Field: "condition", Message: "must be one of " + strings.Join(conditions, ", ")}
	}
	if i.Status == "" {
		i.Status = defaultItemStatus
	}
	if !oneOf(i.Status, statuses) {
		return core.ErrInvalidField{Field: "status", Message: "must be one of " + strings.Join(statuses, ", ")}
	}

	if i.Price < 0 || i.Price > maxPrice || math.IsNaN(i.Price) {
		return core.ErrInvalidField{Field: "price", Message: "must be between 0 and 99999999.99"}
	}
	i.Price = math.Round(i.Price*100) / 100

	if i.UserID == "" {
		return core.ErrInvalidField{Field: "user", Message: "is required"}
	}
	if i.CategoryID == "" {
		return core.ErrInvalidField{Field: "category", Message: "is required"}
	}
	if i.SubCategoryID == "" {
		return core.ErrInvalidField{Field: "sub_category", Message: "is required"}
	}

	lookup := tx.Session(&gorm.Session{NewDB: true})

	var count int64
	if err := lookup.Model(&catalog.Category{}).Where("id = ?", i.CategoryID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return core.ErrInvalidField{Field: "category", Message: "category does not exist"}
	}

	var subCategory catalog.SubCategory
	if err := lookup.Select("id", "category_id").Where("id = ?", i.SubCategoryID).Take(&subCategory).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return core.ErrInvalidField{Field: "sub_category", Message: "sub-category does not exist"}
		}
		return err
	}
	if subCategory.CategoryID != i.CategoryID {
		return core.ErrInvalidField{Field: "sub_category", Message: "sub-category does not belong to the category"}
	}
	return nil
}

// BeforeSave requires the image to point at an item its uploader owns
func (img *ItemImage) BeforeSave(tx *gorm.DB) error {
	if img.Image == "" {
		return core.ErrInvalidField{Field: "image", Message: "is required"}
	}
	if img.ItemID == "" {
		return core.ErrInvalidField{Field: "item", Message: "is required"}
	}

	var count int64
	if err := tx.Session(&gorm.Session{NewDB: true}).Model(&Item{}).
		Where("id = ? AND user_id = ?", img.ItemID, img.UserID).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return core.ErrInvalidField{Field: "item", Message: "item does not exist"}
	}
	return nil
}
