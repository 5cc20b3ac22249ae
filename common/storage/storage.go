package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// ErrNotConfigured is returned by uploads when no image bucket is configured
var ErrNotConfigured = errors.New("image storage is not configured")

// ImageStore hosts event images
type ImageStore interface {
	// Upload stores data under key and returns its public URL
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// NoopStore is used when no bucket is configured. Remote image URLs still
// work; uploads of inline images are refused.
type NoopStore struct{}

func (NoopStore) Upload(context.Context, string, []byte, string) (string, error) {
	return "", ErrNotConfigured
}

func (NoopStore) Delete(context.Context, string) error { return nil }

var allowedImageTypes = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// MaxImageBytes caps decoded inline images
const MaxImageBytes = 5 << 20

// IsDataURL reports whether s is an inline data: URL
func IsDataURL(s string) bool {
	return strings.HasPrefix(s, "data:")
}

// ParseImageDataURL decodes "data:image/png;base64,...". It returns the bytes,
// the content type and the file extension to use for the stored object.
func ParseImageDataURL(s string) ([]byte, string, string, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(s, "data:"), ",")
	if !ok || !IsDataURL(s) {
		return nil, "", "", fmt.Errorf("invalid data URL")
	}
	contentType, encoding, _ := strings.Cut(header, ";")
	if encoding != "base64" {
		return nil, "", "", fmt.Errorf("image data URL must be base64 encoded")
	}
	ext, ok := allowedImageTypes[strings.ToLower(contentType)]
	if !ok {
		return nil, "", "", fmt.Errorf("unsupported image type %q", contentType)
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > MaxImageBytes {
		return nil, "", "", fmt.Errorf("image exceeds %d bytes", MaxImageBytes)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", "", fmt.Errorf("invalid base64 image: %w", err)
	}
	return data, strings.ToLower(contentType), ext, nil
}
