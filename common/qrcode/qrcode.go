package qrcode

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/skip2/go-qrcode"
)

// Standard QR size for email and mobile scanning
const DefaultSize = 300

const dataURLPrefix = "data:image/png;base64,"

// GenerateQRCodeBase64 generates a QR code as a PNG data URL.
//
// The result can be used directly in HTML: <img src="{result}" />
func GenerateQRCodeBase64(text string, size int) (string, error) {
	pngBytes, err := GenerateQRCodePngBytes(text, size)
	if err != nil {
		return "", err
	}
	return dataURLPrefix + base64.StdEncoding.EncodeToString(pngBytes), nil
}

// GenerateQRCodePngBytes generates a QR code as PNG bytes
func GenerateQRCodePngBytes(text string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultSize
	}

	// Medium error correction (15% recovery)
	qr, err := qrcode.New(text, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR code: %w", err)
	}

	pngBytes, err := qr.PNG(size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR to PNG: %w", err)
	}

	return pngBytes, nil
}

// DecodeDataURL returns the PNG bytes of a data URL produced by GenerateQRCodeBase64
func DecodeDataURL(dataURL string) ([]byte, error) {
	if !strings.HasPrefix(dataURL, dataURLPrefix) {
		return nil, fmt.Errorf("not a PNG data URL")
	}
	return base64.StdEncoding.DecodeString(strings.TrimPrefix(dataURL, dataURLPrefix))
}
