package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
)

const s3Scheme = "s3://"

// ParseS3URL splits "s3://bucket/key" into bucket and key.
func ParseS3URL(location string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(location, s3Scheme)
	if !ok {
		return "", "", fmt.Errorf("not an s3 url: %q", location)
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("s3 url must be s3://bucket/key: %q", location)
	}
	return bucket, key, nil
}

// IsS3 reports whether location points at an S3 object.
func IsS3(location string) bool {
	return strings.HasPrefix(location, s3Scheme)
}

// Resolve returns the store holding location and the key of the object in it.
// S3 stores use the default AWS credential chain.
func Resolve(ctx context.Context, location string) (BlobStore, string, error) {
	if IsS3(location) {
		bucket, key, err := ParseS3URL(location)
		if err != nil {
			return nil, "", err
		}
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load aws config: %w", err)
		}
		return NewS3Store(cfg, bucket), key, nil
	}

	return NewLocalStore(filepath.Dir(location)), filepath.Base(location), nil
}
