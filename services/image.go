package services

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
)

const (
	maxImageWidth  = 1200
	maxImageHeight = 1200
	jpegQuality    = 80
)

// CompressImage fits the image inside 1200x1200 without enlarging it and
// re-encodes it as JPEG at quality 80.
func CompressImage(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	img = imaging.Fit(img, maxImageWidth, maxImageHeight, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// IsImage sniffs the leading bytes. The declared part type only counts when
// sniffing finds no known format at all (HEIC from phones): text such as SVG
// is always refused.
func IsImage(data []byte, declared string) bool {
	sniffed := http.DetectContentType(data)
	if strings.HasPrefix(sniffed, "image/") {
		return true
	}
	if sniffed != "application/octet-stream" {
		return false
	}
	declared = strings.ToLower(strings.TrimSpace(declared))
	return strings.HasPrefix(declared, "image/") && !strings.HasPrefix(declared, "image/svg")
}
