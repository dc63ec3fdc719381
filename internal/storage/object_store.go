package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"moodadmin/api/internal/config"
	"moodadmin/api/internal/models"
)

// ObjectStore holds uploaded audio: voice clips under the voices bucket,
// meditation audio under its own bucket.
type ObjectStore struct {
	client *minio.Client
	cfg    config.StorageConfig
}

func NewObjectStore(cfg config.StorageConfig) (*ObjectStore, error) {
	endpoint := cfg.Endpoint
	useSSL := cfg.UseSSL

	if strings.HasPrefix(endpoint, "http") {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("parse endpoint: %w", err)
		}
		endpoint = u.Host
		useSSL = u.Scheme == "https"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}

	return &ObjectStore{
		client: client,
		cfg:    cfg,
	}, nil
}

func (s *ObjectStore) EnsureBuckets(ctx context.Context) error {
	for _, bucket := range []string{s.cfg.BucketVoices, s.cfg.BucketMeditations} {
		exists, err := s.client.BucketExists(ctx, bucket)
		if err != nil {
			return fmt.Errorf("bucket exists %s: %w", bucket, err)
		}
		if !exists {
			if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: s.cfg.Region}); err != nil {
				return fmt.Errorf("create bucket %s: %w", bucket, err)
			}
		}
	}
	return nil
}

// UploadVoice stores a tab's audio clip and returns its download URL. The
// original filename stays part of the key so re-uploads of the same file
// overwrite in place, as category saves expect.
func (s *ObjectStore) UploadVoice(ctx context.Context, mood models.Mood, versionName string, tab models.Tab, filename string, contentType string, r io.Reader, size int64) (string, error) {
	key := path.Join("voices", string(mood), versionName, string(tab), filename)
	return s.put(ctx, s.cfg.BucketVoices, key, contentType, r, size)
}

// UploadMeditationAudio stores meditation audio under a timestamped key so
// successive uploads never collide.
func (s *ObjectStore) UploadMeditationAudio(ctx context.Context, entryID string, filename string, contentType string, r io.Reader, size int64) (string, error) {
	key := path.Join("meditations", entryID, fmt.Sprintf("%d_%s", time.Now().Unix(), filename))
	return s.put(ctx, s.cfg.BucketMeditations, key, contentType, r, size)
}

func (s *ObjectStore) put(ctx context.Context, bucket string, key string, contentType string, r io.Reader, size int64) (string, error) {
	_, err := s.client.PutObject(ctx, bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	return s.publicURL(bucket, key), nil
}

func (s *ObjectStore) publicURL(bucket, key string) string {
	base := strings.TrimSuffix(s.cfg.Endpoint, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}
	return fmt.Sprintf("%s/%s/%s", base, bucket, key)
}

func (s *ObjectStore) Client() *minio.Client {
	return s.client
}
