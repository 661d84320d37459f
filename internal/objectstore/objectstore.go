package objectstore

import (
	"context"
	"fmt"

	"docvec/internal/config"
	"docvec/internal/objectstore/dir"
	"docvec/internal/objectstore/s3"
)

// Store is the source of truth for which documents should be ingested.
type Store interface {
	// List maps document names to the keys Get accepts.
	List(ctx context.Context) (map[string]string, error)
	Get(ctx context.Context, key string) ([]byte, error)
}

// Open builds the object store selected by cfg.Source.
func Open(ctx context.Context, cfg config.ReconcileConfig) (Store, error) {
	switch cfg.Source {
	case "s3":
		if cfg.S3 == nil {
			return nil, fmt.Errorf("s3 config missing")
		}
		st, err := s3.Open(ctx, s3.Config{Bucket: cfg.S3.Bucket, Prefix: cfg.S3.Prefix, Region: cfg.S3.Region})
		if err != nil {
			return nil, err
		}
		return st, nil
	case "dir":
		if cfg.Dir == nil || cfg.Dir.Path == "" {
			return nil, fmt.Errorf("dir config missing")
		}
		return dir.New(nil, cfg.Dir.Path), nil
	default:
		return nil, fmt.Errorf("unknown object store: %s", cfg.Source)
	}
}
