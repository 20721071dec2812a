package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/clearform/assurance-backend/internal/platform/logger"
)

type bucketConfig struct {
	name      string
	cdnDomain string
}

type gcsBucketService struct {
	log            *logger.Logger
	storageClient  *gcs.Client
	artifactBucket bucketConfig
	packBucket     bucketConfig
	evidenceBucket bucketConfig
}

func NewGCSBucketService(log *logger.Logger) (BucketService, error) {
	serviceLog := log.With("service", "BucketService")

	artifactBucketName := os.Getenv("ARTIFACT_GCS_BUCKET_NAME")
	packBucketName := os.Getenv("PACK_GCS_BUCKET_NAME")
	evidenceBucketName := os.Getenv("EVIDENCE_GCS_BUCKET_NAME")
	if artifactBucketName == "" {
		return nil, fmt.Errorf("missing env var ARTIFACT_GCS_BUCKET_NAME")
	}
	if packBucketName == "" {
		return nil, fmt.Errorf("missing env var PACK_GCS_BUCKET_NAME")
	}
	if evidenceBucketName == "" {
		evidenceBucketName = artifactBucketName
	}

	ctx := context.Background()
	opts := clientOptionsFromEnv()
	opts = append(opts, option.WithScopes(gcs.ScopeReadWrite))
	stClient, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &gcsBucketService{
		log:           serviceLog,
		storageClient: stClient,
		artifactBucket: bucketConfig{
			name:      artifactBucketName,
			cdnDomain: os.Getenv("ARTIFACT_CDN_DOMAIN"),
		},
		packBucket: bucketConfig{
			name:      packBucketName,
			cdnDomain: os.Getenv("PACK_CDN_DOMAIN"),
		},
		evidenceBucket: bucketConfig{
			name: evidenceBucketName,
		},
	}, nil
}

func clientOptionsFromEnv() []option.ClientOption {
	creds := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON"))
	if creds == "" {
		creds = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	opts := []option.ClientOption{}
	if creds == "" {
		return opts
	}
	if strings.HasPrefix(creds, "{") {
		opts = append(opts, option.WithCredentialsJSON([]byte(creds)))
	} else {
		opts = append(opts, option.WithCredentialsFile(creds))
	}
	return opts
}

func (bs *gcsBucketService) getBucketConfig(category BucketCategory) (bucketConfig, error) {
	switch category {
	case BucketCategoryArtifact:
		return bs.artifactBucket, nil
	case BucketCategoryPack:
		return bs.packBucket, nil
	case BucketCategoryEvidence:
		return bs.evidenceBucket, nil
	default:
		return bucketConfig{}, fmt.Errorf("unknown bucket category: %s", category)
	}
}

func (bs *gcsBucketService) Upload(ctx context.Context, category BucketCategory, key string, file io.Reader) error {
	cfg, err := bs.getBucketConfig(category)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := bs.storageClient.Bucket(cfg.name).Object(key).NewWriter(ctx)
	if ct := contentTypeForKey(key); ct != "" {
		w.ContentType = ct
	}
	if _, err := io.Copy(w, file); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return nil
}

// readCloserWithCancel ties the download context's lifetime to the
// reader: cancelling before the caller reads would yield 0 bytes.
type readCloserWithCancel struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (r *readCloserWithCancel) Close() error {
	err := r.ReadCloser.Close()
	if r.cancel != nil {
		r.cancel()
	}
	return err
}

func (bs *gcsBucketService) Download(ctx context.Context, category BucketCategory, key string) (io.ReadCloser, error) {
	cfg, err := bs.getBucketConfig(category)
	if err != nil {
		return nil, err
	}
	dctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	rd, err := bs.storageClient.Bucket(cfg.name).Object(key).NewReader(dctx)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open GCS object %q in bucket %q: %w", key, cfg.name, err)
	}
	return &readCloserWithCancel{ReadCloser: rd, cancel: cancel}, nil
}

func (bs *gcsBucketService) Delete(ctx context.Context, category BucketCategory, key string) error {
	cfg, err := bs.getBucketConfig(category)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	o := bs.storageClient.Bucket(cfg.name).Object(key)
	if err := o.Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete GCS object %q in bucket %q: %w", key, cfg.name, err)
	}
	return nil
}

func (bs *gcsBucketService) ListKeys(ctx context.Context, category BucketCategory, prefix string) ([]string, error) {
	cfg, err := bs.getBucketConfig(category)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	it := bs.storageClient.Bucket(cfg.name).Objects(ctx, &gcs.Query{Prefix: prefix})
	out := []string{}
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, attrs.Name)
	}
	return out, nil
}

func (bs *gcsBucketService) GetPublicURL(category BucketCategory, key string) string {
	cfg, err := bs.getBucketConfig(category)
	if err != nil {
		return key
	}
	if cfg.cdnDomain != "" {
		return fmt.Sprintf("https://%s/%s", cfg.cdnDomain, key)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", cfg.name, key)
}
