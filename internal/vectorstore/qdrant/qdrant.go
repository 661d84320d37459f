package qdrant

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"docvec/internal/domain"
)

// Storage is a minimal REST client to Qdrant.
// It assumes cosine distance and creates the collection if missing. Qdrant
// has no unique constraints, so duplicate positions are only caught by the
// caller's existence check.
type Storage struct {
	http       *resty.Client
	collection string
	dimension  int
}

type Config struct {
	URL        string
	APIKey     string
	Collection string
	Dimension  int
	Timeout    time.Duration
}

func NewStorage(cfg Config) *Storage {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	h := resty.New().
		SetBaseURL(strings.TrimRight(cfg.URL, "/")).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	if cfg.APIKey != "" {
		h.SetHeader("api-key", cfg.APIKey)
	}
	return &Storage{http: h, collection: cfg.Collection, dimension: cfg.Dimension}
}

// Init creates the collection and the keyword payload indexes used by filters.
func (s *Storage) Init(ctx context.Context) error {
	if s.dimension <= 0 {
		return errors.New("qdrant: invalid dimension")
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     s.dimension,
			"distance": "Cosine",
		},
	}
	resp, err := s.http.R().SetContext(ctx).SetBody(body).Put(s.path(""))
	if err != nil {
		return fmt.Errorf("qdrant: create collection: %w", err)
	}
	// 409 means the collection already exists.
	if resp.IsError() && resp.StatusCode() != http.StatusConflict {
		return fmt.Errorf("qdrant: create collection failed: %s", resp.Status())
	}
	for _, field := range []string{"document_name", "document_id"} {
		idx := map[string]any{"field_name": field, "field_schema": "keyword"}
		if err := s.do(ctx, http.MethodPut, s.path("/index?wait=true"), idx, nil); err != nil {
			return err
		}
	}
	return nil
}

func (s *Storage) Exists(ctx context.Context, documentName string) (bool, error) {
	n, err := s.count(ctx, map[string]any{"must": []any{match("document_name", documentName)}})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Storage) Insert(ctx context.Context, r domain.VectorRecord) error {
	point := map[string]any{
		"id":     r.ID,
		"vector": r.VectorEmbeddings,
		"payload": map[string]any{
			"original_text":   r.OriginalText,
			"contextual_text": r.ContextualText,
			"document_name":   r.DocumentName,
			"document_id":     r.DocumentID,
			"page_number":     r.PageNumber,
		},
	}
	body := map[string]any{"points": []any{point}}
	return s.do(ctx, http.MethodPut, s.path("/points?wait=true"), body, nil)
}

func (s *Storage) DeleteByNameOrID(ctx context.Context, input string) (int64, error) {
	filter := map[string]any{"should": []any{match("document_name", input), match("document_id", input)}}
	n, err := s.count(ctx, filter)
	if err != nil || n == 0 {
		return 0, err
	}
	if err := s.do(ctx, http.MethodPost, s.path("/points/delete?wait=true"), map[string]any{"filter": filter}, nil); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Storage) DocumentNames(ctx context.Context) ([]string, error) {
	seen := map[string]struct{}{}
	var names []string
	var offset any
	for {
		req := map[string]any{
			"limit":        256,
			"with_payload": []string{"document_name"},
			"with_vector":  false,
		}
		if offset != nil {
			req["offset"] = offset
		}
		var resp struct {
			Result struct {
				Points []struct {
					Payload struct {
						DocumentName string `json:"document_name"`
					} `json:"payload"`
				} `json:"points"`
				NextPageOffset any `json:"next_page_offset"`
			} `json:"result"`
		}
		if err := s.do(ctx, http.MethodPost, s.path("/points/scroll"), req, &resp); err != nil {
			return nil, err
		}
		for _, p := range resp.Result.Points {
			if _, ok := seen[p.Payload.DocumentName]; ok {
				continue
			}
			seen[p.Payload.DocumentName] = struct{}{}
			names = append(names, p.Payload.DocumentName)
		}
		if resp.Result.NextPageOffset == nil {
			return names, nil
		}
		offset = resp.Result.NextPageOffset
	}
}

func (s *Storage) Close(context.Context) error { return nil }

func (s *Storage) count(ctx context.Context, filter map[string]any) (int64, error) {
	var resp struct {
		Result struct {
			Count int64 `json:"count"`
		} `json:"result"`
	}
	body := map[string]any{"filter": filter, "exact": true}
	if err := s.do(ctx, http.MethodPost, s.path("/points/count"), body, &resp); err != nil {
		return 0, err
	}
	return resp.Result.Count, nil
}

func (s *Storage) path(suffix string) string {
	return "/collections/" + s.collection + suffix
}

func (s *Storage) do(ctx context.Context, method, url string, body, out any) error {
	req := s.http.R().SetContext(ctx).SetBody(body)
	if out != nil {
		req.SetResult(out)
	}
	resp, err := req.Execute(method, url)
	if err != nil {
		return fmt.Errorf("%w: qdrant %s %s: %w", domain.ErrPersistence, method, url, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%w: qdrant %s %s failed: %s", domain.ErrPersistence, method, url, resp.Status())
	}
	return nil
}

func match(key, value string) map[string]any {
	return map[string]any{"key": key, "match": map[string]any{"value": value}}
}
