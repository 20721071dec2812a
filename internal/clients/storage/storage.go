package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/clearform/assurance-backend/internal/platform/logger"
)

// BucketCategory selects which logical bucket a key lives in.
type BucketCategory string

const (
	// BucketCategoryArtifact holds canonical rendered document outputs.
	BucketCategoryArtifact BucketCategory = "artifact"
	// BucketCategoryPack holds assembled defence pack bundles.
	BucketCategoryPack BucketCategory = "pack"
	// BucketCategoryEvidence holds uploaded supporting files.
	BucketCategoryEvidence BucketCategory = "evidence"
)

type BucketService interface {
	Upload(ctx context.Context, category BucketCategory, key string, file io.Reader) error
	Download(ctx context.Context, category BucketCategory, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, category BucketCategory, key string) error
	ListKeys(ctx context.Context, category BucketCategory, prefix string) ([]string, error)
	GetPublicURL(category BucketCategory, key string) string
}

// New selects the backing store from STORAGE_BACKEND: "gcs" for Google
// Cloud Storage, "local" for an on-disk tree under STORAGE_LOCAL_DIR.
func New(log *logger.Logger) (BucketService, error) {
	backend := strings.ToLower(strings.TrimSpace(os.Getenv("STORAGE_BACKEND")))
	switch backend {
	case "", "gcs":
		return NewGCSBucketService(log)
	case "local":
		return NewLocalBucketService(os.Getenv("STORAGE_LOCAL_DIR"), log)
	default:
		return nil, fmt.Errorf("unknown STORAGE_BACKEND %q", backend)
	}
}

func contentTypeForKey(key string) string {
	s := strings.ToLower(strings.TrimSpace(key))
	if s == "" {
		return ""
	}
	switch {
	case strings.HasSuffix(s, ".json"):
		return "application/json"
	case strings.HasSuffix(s, ".zip"):
		return "application/zip"
	case strings.HasSuffix(s, ".pdf"):
		return "application/pdf"
	case strings.HasSuffix(s, ".png"):
		return "image/png"
	case strings.HasSuffix(s, ".jpg"), strings.HasSuffix(s, ".jpeg"):
		return "image/jpeg"
	default:
		return ""
	}
}
