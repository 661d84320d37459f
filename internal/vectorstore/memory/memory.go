package memory

import (
	"context"
	"fmt"
	"sync"

	"docvec/internal/domain"
)

// Storage is a process-local record store. It enforces the same position
// uniqueness as the database backends.
type Storage struct {
	mu        sync.RWMutex
	dimension int
	records   []domain.VectorRecord
	byName    map[string]struct{}
	byID      map[string]struct{}
}

func NewStorage() *Storage {
	return &Storage{byName: map[string]struct{}{}, byID: map[string]struct{}{}}
}

func (s *Storage) Exists(_ context.Context, documentName string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.records {
		if s.records[i].DocumentName == documentName {
			return true, nil
		}
	}
	return false, nil
}

func (s *Storage) Insert(_ context.Context, record domain.VectorRecord) error {
	if len(record.VectorEmbeddings) == 0 {
		return fmt.Errorf("%w: memory: empty vector", domain.ErrPersistence)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	nameKey := record.DocumentName + "\x00" + record.PageNumber
	idKey := record.DocumentID + "\x00" + record.PageNumber
	_, nameTaken := s.byName[nameKey]
	_, idTaken := s.byID[idKey]
	if nameTaken || idTaken {
		return fmt.Errorf("%w: memory: %s page %s", domain.ErrDuplicateDocument, record.DocumentName, record.PageNumber)
	}
	if s.dimension == 0 {
		s.dimension = len(record.VectorEmbeddings)
	}
	if len(record.VectorEmbeddings) != s.dimension {
		return fmt.Errorf("%w: memory: vector dimension mismatch", domain.ErrPersistence)
	}
	s.byName[nameKey] = struct{}{}
	s.byID[idKey] = struct{}{}
	rec := record
	rec.VectorEmbeddings = append([]float32(nil), record.VectorEmbeddings...)
	s.records = append(s.records, rec)
	return nil
}

func (s *Storage) DeleteByNameOrID(_ context.Context, input string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.records[:0]
	var n int64
	for _, r := range s.records {
		if r.DocumentName == input || r.DocumentID == input {
			delete(s.byName, r.DocumentName+"\x00"+r.PageNumber)
			delete(s.byID, r.DocumentID+"\x00"+r.PageNumber)
			n++
			continue
		}
		kept = append(kept, r)
	}
	clear(s.records[len(kept):])
	s.records = kept
	if len(s.records) == 0 {
		s.dimension = 0
	}
	return n, nil
}

func (s *Storage) DocumentNames(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := map[string]struct{}{}
	var names []string
	for _, r := range s.records {
		if _, ok := seen[r.DocumentName]; ok {
			continue
		}
		seen[r.DocumentName] = struct{}{}
		names = append(names, r.DocumentName)
	}
	return names, nil
}

// Records returns a copy of the stored records in insertion order.
func (s *Storage) Records() []domain.VectorRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.VectorRecord(nil), s.records...)
}

// Len returns the number of stored records.
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *Storage) Close(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
	s.dimension = 0
	s.byName = map[string]struct{}{}
	s.byID = map[string]struct{}{}
	return nil
}
