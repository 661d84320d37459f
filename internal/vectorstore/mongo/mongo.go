package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"docvec/internal/domain"
)

// Config contains connection details for a MongoDB collection.
type Config struct {
	URI        string
	Database   string
	Collection string
}

// Storage keeps one document per vector record in a MongoDB collection.
type Storage struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// Open connects, pings and ensures the collection's unique indexes.
func Open(ctx context.Context, cfg Config) (*Storage, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI).SetConnectTimeout(10*time.Second))
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo: ping: %w", err)
	}
	s := New(client.Database(cfg.Database).Collection(cfg.Collection))
	s.client = client
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

// New wraps an existing collection. The caller owns the client.
func New(coll *mongo.Collection) *Storage {
	return &Storage{coll: coll}
}

// EnsureIndexes creates the unique position indexes backing duplicate detection.
func (s *Storage) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "document_name", Value: 1}, {Key: "page_number", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("document_name_page_number"),
		},
		{
			Keys:    bson.D{{Key: "document_id", Value: 1}, {Key: "page_number", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("document_id_page_number"),
		},
	})
	if err != nil {
		return fmt.Errorf("mongo: create indexes: %w", err)
	}
	return nil
}

func (s *Storage) Exists(ctx context.Context, documentName string) (bool, error) {
	opts := options.FindOne().SetProjection(bson.D{{Key: "_id", Value: 1}})
	err := s.coll.FindOne(ctx, bson.D{{Key: "document_name", Value: documentName}}, opts).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: mongo: find document: %w", domain.ErrPersistence, err)
	}
	return true, nil
}

func (s *Storage) Insert(ctx context.Context, r domain.VectorRecord) error {
	if _, err := s.coll.InsertOne(ctx, r); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: mongo: %s page %s: %w", domain.ErrDuplicateDocument, r.DocumentName, r.PageNumber, err)
		}
		return fmt.Errorf("%w: mongo: insert record: %w", domain.ErrPersistence, err)
	}
	return nil
}

func (s *Storage) DeleteByNameOrID(ctx context.Context, input string) (int64, error) {
	filter := bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "document_name", Value: input}},
		bson.D{{Key: "document_id", Value: input}},
	}}}
	res, err := s.coll.DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("%w: mongo: delete records: %w", domain.ErrPersistence, err)
	}
	return res.DeletedCount, nil
}

func (s *Storage) DocumentNames(ctx context.Context) ([]string, error) {
	values, err := s.coll.Distinct(ctx, "document_name", bson.D{})
	if err != nil {
		return nil, fmt.Errorf("%w: mongo: list documents: %w", domain.ErrPersistence, err)
	}
	names := make([]string, 0, len(values))
	for _, v := range values {
		if name, ok := v.(string); ok {
			names = append(names, name)
		}
	}
	return names, nil
}

func (s *Storage) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}
