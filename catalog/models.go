package catalog

import (
	"strings"

	"gorm.io/gorm"

	"github.com/gsarmaonline/swapmart/core"
)

type (
	Category struct {
		core.BaseModel

		Name string `json:"name" gorm:"not null"`

		SubCategories []SubCategory `json:"sub_categories,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	}

	SubCategory struct {
		core.BaseModel

		Name       string    `json:"name" gorm:"not null"`
		CategoryID string    `json:"category" gorm:"type:varchar(36);not null;index"`
		Category   *Category `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	}
)

func (c *Category) BeforeSave(tx *gorm.DB) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return core.ErrInvalidField{Field: "name", Message: "must not be empty"}
	}
	return nil
}

// BeforeSave checks the name and that the parent category exists
func (s *SubCategory) BeforeSave(tx *gorm.DB) error {
	s.Name = strings.TrimSpace(s.Name)
	if s.Name == "" {
		return core.ErrInvalidField{Field: "name", Message: "must not be empty"}
	}
	if s.CategoryID == "" {
		return core.ErrInvalidField{Field: "category", Message: "is required"}
	}

	var count int64
	if err := tx.Session(&gorm.Session{NewDB: true}).Model(&Category{}).
		Where("id = ?", s.CategoryID).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return core.ErrInvalidField{Field: "category", Message: "category does not exist"}
	}
	return nil
}
