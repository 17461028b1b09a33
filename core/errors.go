package core

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ErrInvalidField represents a validation error for a specific field
type ErrInvalidField struct {
	Field   string
	Message string
}

func (e ErrInvalidField) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ErrDeleteForbidden represents an error when deletion is not allowed
type ErrDeleteForbidden struct {
	Message string
}

func (e ErrDeleteForbidden) Error() string {
	return e.Message
}

// ErrConflict is returned when a row would duplicate an existing one
type ErrConflict struct {
	Message string
}

func (e ErrConflict) Error() string {
	return e.Message
}

// WriteError maps a model or database error onto the JSON error envelope.
// resource names the row kind in not-found and failure messages.
func WriteError(c *gin.Context, err error, resource string) {
	var (
		invalid   ErrInvalidField
		forbidden ErrDeleteForbidden
		conflict  ErrConflict
	)
	switch {
	case errors.As(err, &invalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": invalid.Error(), "field": invalid.Field})
	case errors.As(err, &forbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": forbidden.Error()})
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{"error": conflict.Error()})
	case errors.Is(err, gorm.ErrDuplicatedKey):
		c.JSON(http.StatusConflict, gin.H{"error": resource + " already exists"})
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": resource + " not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process " + resource})
	}
}
