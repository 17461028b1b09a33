// Package testutil holds shared fixtures for package tests.
package testutil

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/gsarmaonline/swapmart/core"
	"github.com/gsarmaonline/swapmart/database"
)

// TestUserHeader names the header read by FakeAuth
const TestUserHeader = "X-Test-User"

// NewDB opens a private in-memory SQLite database and migrates models.
// The pool is pinned to one connection so every query sees the same memory
// database.
func NewDB(t *testing.T, models ...interface{}) *gorm.DB {
	t.Helper()

	db, err := database.Open(database.DatabaseConfig{
		Driver:       database.DriverSQLite,
		DSN:          ":memory:",
		MaxOpenConns: 1,
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	db.Logger = db.Logger.LogMode(logger.Silent)

	if err := db.AutoMigrate(models...); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// FakeAuth authenticates the caller named by the X-Test-User header.
// A "staff:" prefix marks the caller as staff.
func FakeAuth(c *gin.Context) {
	id := c.GetHeader(TestUserHeader)
	if id == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
		return
	}
	id, staff := strings.CutPrefix(id, "staff:")
	core.SetUser(c, id, staff)
	c.Next()
}

// PNG is a minimal payload carrying the PNG signature and header chunk
var PNG = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")

// MultipartBody encodes form fields plus an optional file part
func MultipartBody(t *testing.T, fields map[string]string, fileField, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("Failed to write field: %v", err)
		}
	}
	if fileField != "" {
		part, err := w.CreateFormFile(fileField, filename)
		if err != nil {
			t.Fatalf("Failed to create file part: %v", err)
		}
		part.Write(content)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close multipart writer: %v", err)
	}
	return body, w.FormDataContentType()
}

// InsertFirst makes a competing insert land just before the next INSERT
// whose destination rival accepts. rival returns the row to insert for a
// statement destination, or nil to let the statement through. It fires
// once, after the model hooks ran, like a concurrent request that won the
// race.
func InsertFirst(t *testing.T, db *gorm.DB, rival func(dest interface{}) interface{}) {
	t.Helper()

	fired := false
	err := db.Callback().Create().Before("gorm:create").Register("testutil:insert_first", func(tx *gorm.DB) {
		if fired || tx.Error != nil {
			return
		}
		row := rival(tx.Statement.Dest)
		if row == nil {
			return
		}
		fired = true
		if err := tx.Session(&gorm.Session{NewDB: true}).Create(row).Error; err != nil {
			tx.AddError(err)
		}
	})
	if err != nil {
		t.Fatalf("Failed to register insert callback: %v", err)
	}
}
