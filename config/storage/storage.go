package storage

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

const placeholderBase = "https://mock-storage.example.com/"

// BlobStore keeps prescription images and hands back the URL clients fetch
// them from. Delete of a URL the store did not issue is a no-op.
type BlobStore interface {
	Upload(ctx context.Context, key, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, url string) error
}

// ObjectKey builds a collision-free key under folder: <folder>/<unix-ms>-<uuid>-<name>.
func ObjectKey(folder, fileName string, now time.Time) string {
	return fmt.Sprintf("%s/%d-%s-%s", strings.Trim(folder, "/"), now.UnixMilli(), uuid.NewString(), sanitize(fileName))
}

// PlaceholderURL is what gets stored when the real upload fails.
func PlaceholderURL(key string) string {
	return placeholderBase + key
}

func IsPlaceholder(url string) bool {
	return strings.HasPrefix(url, placeholderBase)
}

func sanitize(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	out := strings.Trim(b.String(), ".-")
	if out == "" {
		return "image"
	}
	return out
}
