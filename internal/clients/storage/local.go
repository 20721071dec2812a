package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/clearform/assurance-backend/internal/platform/logger"
)

// localBucketService stores objects as files under root/<category>/<key>.
// Used for development and tests; the production deployment uses GCS.
type localBucketService struct {
	log  *logger.Logger
	root string
}

func NewLocalBucketService(root string, log *logger.Logger) (BucketService, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("missing env var STORAGE_LOCAL_DIR")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir %q: %w", root, err)
	}
	return &localBucketService{
		log:  log.With("service", "BucketService"),
		root: root,
	}, nil
}

func (bs *localBucketService) path(category BucketCategory, key string) (string, error) {
	cleaned := filepath.Clean("/" + key)
	p := filepath.Join(bs.root, string(category), cleaned)
	base := filepath.Join(bs.root, string(category))
	if p != base && !strings.HasPrefix(p, base+string(os.PathSeparator)) {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return p, nil
}

func (bs *localBucketService) Upload(_ context.Context, category BucketCategory, key string, file io.Reader) error {
	p, err := bs.path(category, key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.Create(p)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, file); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func (bs *localBucketService) Download(_ context.Context, category BucketCategory, key string) (io.ReadCloser, error) {
	p, err := bs.path(category, key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("failed to open object %q: %w", key, err)
	}
	return f, nil
}

func (bs *localBucketService) Delete(_ context.Context, category BucketCategory, key string) error {
	p, err := bs.path(category, key)
	if err != nil {
		return err
	}
	return os.Remove(p)
}

func (bs *localBucketService) ListKeys(_ context.Context, category BucketCategory, prefix string) ([]string, error) {
	base := filepath.Join(bs.root, string(category))
	var keys []string
	err := filepath.Walk(base, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(base, path)
		if relErr != nil {
			return relErr
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

func (bs *localBucketService) GetPublicURL(category BucketCategory, key string) string {
	return "file://" + filepath.Join(bs.root, string(category), key)
}
