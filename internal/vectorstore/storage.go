package vectorstore

import (
	"context"
	"fmt"
	"time"

	"docvec/internal/config"
	"docvec/internal/domain"
	"docvec/internal/vectorstore/memory"
	"docvec/internal/vectorstore/mongo"
	"docvec/internal/vectorstore/pgvector"
	"docvec/internal/vectorstore/qdrant"
	"docvec/internal/vectorstore/redis"
	"docvec/internal/vectorstore/sqlite"
)

// Open connects to the record store selected by cfg.Type. The returned store
// must be closed by the caller.
func Open(ctx context.Context, cfg config.VectorStoreConfig) (domain.RecordStore, error) {
	switch cfg.Type {
	case "memory", "":
		return memory.NewStorage(), nil
	case "mongo":
		if cfg.Mongo == nil {
			return nil, fmt.Errorf("mongo config missing")
		}
		st, err := mongo.Open(ctx, mongo.Config{
			URI:        cfg.Mongo.URI,
			Database:   cfg.Mongo.Database,
			Collection: cfg.Mongo.Collection,
		})
		if err != nil {
			return nil, err
		}
		return st, nil
	case "sqlite":
		if cfg.SQLite == nil {
			return nil, fmt.Errorf("sqlite config missing")
		}
		st, err := sqlite.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		return st, nil
	case "pgvector":
		if cfg.PGVector == nil {
			return nil, fmt.Errorf("pgvector config missing")
		}
		st, err := pgvector.Open(ctx, pgvector.Config{
			DSN:       cfg.PGVector.DSN,
			Table:     cfg.PGVector.Table,
			Dimension: cfg.PGVector.Dimension,
		})
		if err != nil {
			return nil, err
		}
		return st, nil
	case "qdrant":
		if cfg.Qdrant == nil {
			return nil, fmt.Errorf("qdrant config missing")
		}
		st := qdrant.NewStorage(qdrant.Config{
			URL:        cfg.Qdrant.URL,
			APIKey:     cfg.Qdrant.APIKey,
			Collection: cfg.Qdrant.Collection,
			Dimension:  cfg.Qdrant.Dimension,
			Timeout:    time.Duration(cfg.Qdrant.TimeoutSecs) * time.Second,
		})
		if err := st.Init(ctx); err != nil {
			return nil, err
		}
		return st, nil
	case "redis":
		if cfg.Redis == nil {
			return nil, fmt.Errorf("redis config missing")
		}
		st, err := redis.Open(ctx, redis.Config{URL: cfg.Redis.URL, Prefix: cfg.Redis.Prefix})
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown vector store: %s", cfg.Type)
	}
}
