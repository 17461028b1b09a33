package core

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const maxPageSize = 100

// OwnedBy restricts a query to rows whose owner column matches userID
func OwnedBy(column, userID string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(column+" = ?", userID)
	}
}

// NewestFirst orders rows by creation time, latest first
func NewestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("created_at desc")
}

// Paginate reads optional limit/offset query parameters. A missing limit
// means no limit unless an offset is given; limits above maxPageSize are
// clamped.
func Paginate(c *gin.Context) (func(*gorm.DB) *gorm.DB, error) {
	limit, offset := -1, 0
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return nil, ErrInvalidField{Field: "limit", Message: "must be a non-negative integer"}
		}
		limit = min(v, maxPageSize)
	}
	if raw := c.Query("offset"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return nil, ErrInvalidField{Field: "offset", Message: "must be a non-negative integer"}
		}
		offset = v
		if limit < 0 {
			limit = maxPageSize
		}
	}
	return func(db *gorm.DB) *gorm.DB {
		if limit >= 0 {
			db = db.Limit(limit)
		}
		if offset > 0 {
			db = db.Offset(offset)
		}
		return db
	}, nil
}

// ParseBoolQuery reads an optional boolean query parameter
func ParseBoolQuery(c *gin.Context, name string) (*bool, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, ErrInvalidField{Field: name, Message: "must be a boolean"}
	}
	return &v, nil
}
