package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

// Store persists raw adjudication transcripts (judge output kept for
// offline diagnosis) under opaque keys.
type Store interface {
	// Put stores a transcript under the given key, overwriting any
	// previous content
	Put(ctx context.Context, key string, data io.Reader) error

	// Get retrieves a transcript by key
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes a transcript by key
	Delete(ctx context.Context, key string) error
}

// StoreType represents the storage backend type
type StoreType string

const (
	StoreTypeLocal StoreType = "local"
	StoreTypeS3    StoreType = "s3"
)

// StoreConfig holds configuration for transcript storage
type StoreConfig struct {
	Type         StoreType
	LocalPath    string // For local storage
	S3Bucket     string // For S3 storage
	S3Region     string // For S3 storage
	AWSAccessKey string
	AWSSecretKey string
}

// NewStore creates a transcript store from configuration
func NewStore(cfg StoreConfig) (Store, error) {
	switch cfg.Type {
	case StoreTypeLocal:
		return NewLocalStore(cfg.LocalPath)
	case StoreTypeS3:
		return NewS3Store(cfg)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

// NewStoreFromEnv creates a transcript store from environment variables
func NewStoreFromEnv() (Store, error) {
	storeType := os.Getenv("STORAGE_TYPE")
	if storeType == "" {
		storeType = "local" // Default to local for development
	}

	switch StoreType(storeType) {
	case StoreTypeLocal:
		localPath := os.Getenv("STORAGE_LOCAL_PATH")
		if localPath == "" {
			localPath = "./storage/transcripts"
		}
		return NewLocalStore(localPath)

	case StoreTypeS3:
		cfg := StoreConfig{
			Type:         StoreTypeS3,
			S3Bucket:     os.Getenv("AWS_S3_BUCKET"),
			S3Region:     os.Getenv("AWS_REGION"),
			AWSAccessKey: os.Getenv("AWS_ACCESS_KEY_ID"),
			AWSSecretKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		}
		if cfg.S3Region == "" {
			cfg.S3Region = "us-east-1" // Default region
		}
		if cfg.S3Bucket == "" {
			return nil, errors.New("AWS_S3_BUCKET environment variable is required for S3 storage")
		}
		return NewS3Store(cfg)

	default:
		return nil, fmt.Errorf("unknown storage type: %s", storeType)
	}
}
