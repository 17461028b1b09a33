// Package storage persists uploaded images on the local disk or in an
// S3-compatible bucket.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const (
	BackendLocal = "local"
	BackendS3    = "s3"

	KindItem = "item"
	KindUser = "user"

	sniffLen = 3072
)

// rasterImages maps the accepted image types to the extension stored keys
// get. Vector and scriptable formats such as SVG are not accepted.
var rasterImages = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/bmp":  ".bmp",
}

var (
	ErrNotImage   = errors.New("uploaded file is not an image")
	ErrTooLarge   = errors.New("uploaded file exceeds the size limit")
	ErrInvalidKey = errors.New("invalid storage key")
)

type (
	// Store is a flat key/value blob store addressed by slash-separated keys
	Store interface {
		Save(ctx context.Context, key string, r io.Reader, contentType string) error
		Delete(ctx context.Context, key string) error
		URL(key string) string
	}

	StorageConfig struct {
		Backend    string `toml:"backend" env:"SWAPMART_STORAGE_BACKEND"`
		LocalRoot  string `toml:"local_root" env:"SWAPMART_STORAGE_LOCAL_ROOT"`
		BaseURL    string `toml:"base_url" env:"SWAPMART_STORAGE_BASE_URL"`
		S3Bucket   string `toml:"s3_bucket" env:"SWAPMART_STORAGE_S3_BUCKET"`
		S3Region   string `toml:"s3_region" env:"SWAPMART_STORAGE_S3_REGION"`
		S3Endpoint string `toml:"s3_endpoint" env:"SWAPMART_STORAGE_S3_ENDPOINT"`
		MaxUpload  int64  `toml:"max_upload_bytes" env:"SWAPMART_STORAGE_MAX_UPLOAD_BYTES"`
	}
)

// New builds the store selected by cfg.Backend
func New(ctx context.Context, cfg StorageConfig) (Store, error) {
	switch cfg.Backend {
	case BackendLocal, "":
		return NewLocalStore(cfg.LocalRoot, cfg.BaseURL)
	case BackendS3:
		return NewS3Store(ctx, cfg.S3Bucket, cfg.S3Region, cfg.S3Endpoint, cfg.BaseURL)
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Backend)
	}
}

// ImageKey returns uploads/<kind>/<uuid><ext>. The extension comes from the
// sniffed content type, never from the client's file name.
func ImageKey(kind, contentType string) string {
	return path.Join("uploads", kind, uuid.NewString()+rasterImages[contentType])
}

// DetectImage sniffs the head of r and returns the detected raster image
// MIME type and a reader that still yields the full content.
func DetectImage(r io.Reader) (string, io.Reader, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", nil, fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]

	mt := mimetype.Detect(head)
	for ; mt != nil; mt = mt.Parent() {
		if _, ok := rasterImages[mt.String()]; ok {
			return mt.String(), io.MultiReader(bytes.NewReader(head), r), nil
		}
	}
	return "", nil, ErrNotImage
}

// SaveImage validates an uploaded multipart file as an image and stores it
// under a fresh key for kind. maxBytes <= 0 disables the size check.
func SaveImage(ctx context.Context, store Store, kind string, fh *multipart.FileHeader, maxBytes int64) (string, error) {
	if maxBytes > 0 && fh.Size > maxBytes {
		return "", ErrTooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	contentType, body, err := DetectImage(f)
	if err != nil {
		return "", err
	}

	key := ImageKey(kind, contentType)
	if err := store.Save(ctx, key, body, contentType); err != nil {
		return "", err
	}
	return key, nil
}

func validKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") {
		return false
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return false
		}
	}
	return true
}
