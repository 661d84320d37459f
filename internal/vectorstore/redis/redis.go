package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"docvec/internal/domain"
)

// Config contains connection details for redis.
type Config struct {
	URL    string
	Prefix string
}

// Storage keeps each record in a hash and indexes records by document name and
// id in sets. Position keys are claimed with SETNX before a record is written.
type Storage struct {
	client *redis.Client
	prefix string
}

// Open parses the URL, connects and pings the server.
func Open(ctx context.Context, cfg Config) (*Storage, error) {
	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redis: invalid url: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis: ping failed: %w", err)
	}
	return New(client, cfg.Prefix), nil
}

// New wraps an existing client.
func New(client *redis.Client, prefix string) *Storage {
	if prefix == "" {
		prefix = "docvec"
	}
	return &Storage{client: client, prefix: prefix}
}

func (s *Storage) recordKey(id string) string { return s.prefix + ":record:" + id }
func (s *Storage) nameKey(name string) string { return s.prefix + ":name:" + name }
func (s *Storage) idKey(id string) string     { return s.prefix + ":docid:" + id }
func (s *Storage) documentsKey() string       { return s.prefix + ":documents" }

func (s *Storage) nameClaim(name, page string) string {
	return s.prefix + ":pos:name:" + name + ":" + page
}

func (s *Storage) idClaim(id, page string) string {
	return s.prefix + ":pos:id:" + id + ":" + page
}

func (s *Storage) Exists(ctx context.Context, documentName string) (bool, error) {
	n, err := s.client.Exists(ctx, s.nameKey(documentName)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: redis: find document: %w", domain.ErrPersistence, err)
	}
	return n > 0, nil
}

func (s *Storage) Insert(ctx context.Context, r domain.VectorRecord) error {
	if err := s.claim(ctx, r); err != nil {
		return err
	}
	vec, err := json.Marshal(r.VectorEmbeddings)
	if err != nil {
		return fmt.Errorf("%w: redis: encode vector: %w", domain.ErrPersistence, err)
	}
	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, s.recordKey(r.ID), map[string]any{
			"id":                r.ID,
			"original_text":     r.OriginalText,
			"contextual_text":   r.ContextualText,
			"document_name":     r.DocumentName,
			"document_id":       r.DocumentID,
			"page_number":       r.PageNumber,
			"vector_embeddings": string(vec),
		})
		p.SAdd(ctx, s.nameKey(r.DocumentName), r.ID)
		p.SAdd(ctx, s.idKey(r.DocumentID), r.ID)
		p.SAdd(ctx, s.documentsKey(), r.DocumentName)
		return nil
	})
	if err != nil {
		s.client.Del(context.WithoutCancel(ctx), s.nameClaim(r.DocumentName, r.PageNumber), s.idClaim(r.DocumentID, r.PageNumber))
		return fmt.Errorf("%w: redis: insert record: %w", domain.ErrPersistence, err)
	}
	return nil
}

func (s *Storage) claim(ctx context.Context, r domain.VectorRecord) error {
	nameClaim := s.nameClaim(r.DocumentName, r.PageNumber)
	ok, err := s.client.SetNX(ctx, nameClaim, r.ID, 0).Result()
	if err != nil {
		return fmt.Errorf("%w: redis: claim position: %w", domain.ErrPersistence, err)
	}
	if !ok {
		return fmt.Errorf("%w: redis: %s page %s", domain.ErrDuplicateDocument, r.DocumentName, r.PageNumber)
	}
	ok, err = s.client.SetNX(ctx, s.idClaim(r.DocumentID, r.PageNumber), r.ID, 0).Result()
	if err != nil || !ok {
		s.client.Del(context.WithoutCancel(ctx), nameClaim)
		if err != nil {
			return fmt.Errorf("%w: redis: claim position: %w", domain.ErrPersistence, err)
		}
		return fmt.Errorf("%w: redis: document %s page %s", domain.ErrDuplicateDocument, r.DocumentID, r.PageNumber)
	}
	return nil
}

func (s *Storage) DeleteByNameOrID(ctx context.Context, input string) (int64, error) {
	byName, err := s.client.SMembers(ctx, s.nameKey(input)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: redis: list records: %w", domain.ErrPersistence, err)
	}
	byID, err := s.client.SMembers(ctx, s.idKey(input)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: redis: list records: %w", domain.ErrPersistence, err)
	}
	seen := make(map[string]struct{}, len(byName)+len(byID))
	names := map[string]struct{}{}
	var n int64
	for _, id := range append(byName, byID...) {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		fields, err := s.client.HMGet(ctx, s.recordKey(id), "document_name", "document_id", "page_number").Result()
		if err != nil {
			return n, fmt.Errorf("%w: redis: load record %s: %w", domain.ErrPersistence, id, err)
		}
		name, docID, page := str(fields[0]), str(fields[1]), str(fields[2])
		_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Del(ctx, s.recordKey(id), s.nameClaim(name, page), s.idClaim(docID, page))
			p.SRem(ctx, s.nameKey(name), id)
			p.SRem(ctx, s.idKey(docID), id)
			return nil
		})
		if err != nil {
			return n, fmt.Errorf("%w: redis: delete record %s: %w", domain.ErrPersistence, id, err)
		}
		names[name] = struct{}{}
		n++
	}
	for name := range names {
		left, err := s.client.SCard(ctx, s.nameKey(name)).Result()
		if err != nil {
			return n, fmt.Errorf("%w: redis: count records: %w", domain.ErrPersistence, err)
		}
		if left == 0 {
			if err := s.client.SRem(ctx, s.documentsKey(), name).Err(); err != nil {
				return n, fmt.Errorf("%w: redis: drop document: %w", domain.ErrPersistence, err)
			}
		}
	}
	return n, nil
}

func (s *Storage) DocumentNames(ctx context.Context) ([]string, error) {
	names, err := s.client.SMembers(ctx, s.documentsKey()).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: redis: list documents: %w", domain.ErrPersistence, err)
	}
	return names, nil
}

// Record loads a stored record by id.
func (s *Storage) Record(ctx context.Context, id string) (domain.VectorRecord, error) {
	m, err := s.client.HGetAll(ctx, s.recordKey(id)).Result()
	if err != nil {
		return domain.VectorRecord{}, fmt.Errorf("redis: load record %s: %w", id, err)
	}
	if len(m) == 0 {
		return domain.VectorRecord{}, fmt.Errorf("redis: record %s not found", id)
	}
	r := domain.VectorRecord{
		ID:             m["id"],
		OriginalText:   m["original_text"],
		ContextualText: m["contextual_text"],
		DocumentName:   m["document_name"],
		DocumentID:     m["document_id"],
		PageNumber:     m["page_number"],
	}
	if err := json.Unmarshal([]byte(m["vector_embeddings"]), &r.VectorEmbeddings); err != nil {
		return domain.VectorRecord{}, fmt.Errorf("redis: decode vector %s: %w", id, err)
	}
	return r, nil
}

func (s *Storage) Close(context.Context) error {
	return s.client.Close()
}

func str(v any) string {
	s, _ := v.(string)
	return s
}
