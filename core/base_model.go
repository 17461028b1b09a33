package core

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type (
	// BaseModel carries the UUID primary key and tracking timestamps shared by
	// every table. Models that define their own BeforeCreate must call
	// AssignID themselves.
	BaseModel struct {
		ID        string    `json:"id" gorm:"type:varchar(36);primaryKey"`
		CreatedAt time.Time `json:"created_at"`
		UpdatedAt time.Time `json:"updated_at"`
	}
)

// AssignID sets a fresh UUID unless the caller already chose one
func (m *BaseModel) AssignID() {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
}

func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	m.AssignID()
	return nil
}
