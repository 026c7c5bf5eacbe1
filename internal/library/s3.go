package library

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// S3 keeps the album as a key prefix in an S3-compatible bucket.
type S3 struct {
	client   *minio.Client
	bucket   string
	region   string
	album    string
	initOnce sync.Once
	initErr  error
}

func NewS3(cfg S3Config, album string) (*S3, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("s3 access key and secret key are required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}

	return &S3{client: client, bucket: bucket, region: region, album: album}, nil
}

func (s *S3) Album() string { return s.album }

func (s *S3) Root() string { return "" }

func (s *S3) ensureBucket(ctx context.Context) error {
	s.initOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucket)
		if err != nil {
			s.initErr = err
			return
		}
		if exists {
			return
		}
		s.initErr = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region})
	})
	return s.initErr
}

func (s *S3) Save(ctx context.Context, filePath string) (Asset, error) {
	if err := s.ensureBucket(ctx); err != nil {
		return Asset{}, fmt.Errorf("ensure bucket: %w", err)
	}

	name := filepath.Base(filePath)
	key, err := s.freeKey(ctx, name)
	if err != nil {
		return Asset{}, err
	}

	if _, err := s.client.FPutObject(ctx, s.bucket, key, filePath, minio.PutObjectOptions{
		ContentType: "video/mp4",
	}); err != nil {
		return Asset{}, fmt.Errorf("upload %s: %w", name, err)
	}
	return Asset{Album: s.album, Name: path.Base(key), Location: "s3://" + s.bucket + "/" + key}, nil
}

// freeKey returns album/name, or album/name_N when that key is taken.
func (s *S3) freeKey(ctx context.Context, name string) (string, error) {
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 0; i < 10000; i++ {
		candidate := name
		if i > 0 {
			candidate = fmt.Sprintf("%s_%d%s", stem, i, ext)
		}
		key := objectKey(s.album, candidate)
		_, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
		if err == nil {
			continue
		}
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return key, nil
		}
		return "", fmt.Errorf("stat %s: %w", key, err)
	}
	return "", fmt.Errorf("no free key for %s", name)
}

func objectKey(album, name string) string {
	return strings.Trim(album, "/") + "/" + strings.TrimLeft(name, "/")
}
