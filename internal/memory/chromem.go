package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	chromem "github.com/philippgille/chromem-go"
)

// ChromemStore is the in-process VectorStore used when no database is
// configured. Records live in a mutex-guarded map; a chromem-go collection
// indexes the embedded ones for nearest-neighbor search. Everything is
// ephemeral, matching the hosted deployment mode of the original service.
type ChromemStore struct {
	mu         sync.RWMutex
	records    map[string]MemoryRecord
	embedded   map[string]int // embedded record count per user
	collection *chromem.Collection
}

func NewChromemStore() (*ChromemStore, error) {
	db := chromem.NewDB()
	// Embeddings are always supplied by the caller, so the collection's
	// embedding func must never run.
	noEmbed := func(_ context.Context, _ string) ([]float32, error) {
		return nil, errors.New("embedding must be provided by the caller")
	}
	collection, err := db.GetOrCreateCollection("memories", nil, noEmbed)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	return &ChromemStore{
		records:    make(map[string]MemoryRecord),
		embedded:   make(map[string]int),
		collection: collection,
	}, nil
}

func (s *ChromemStore) Insert(ctx context.Context, rec MemoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(rec.Embedding) > 0 {
		err := s.collection.AddDocument(ctx, chromem.Document{
			ID:        rec.ID,
			Metadata:  map[string]string{"user_id": rec.UserID},
			Embedding: rec.Embedding,
			Content:   rec.Summary,
		})
		if err != nil {
			return fmt.Errorf("index document: %w", err)
		}
		s.embedded[rec.UserID]++
	}
	s.records[rec.ID] = rec
	return nil
}

func (s *ChromemStore) Get(_ context.Context, id string) (MemoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return MemoryRecord{}, ErrNotFound
	}
	return rec, nil
}

func (s *ChromemStore) ListByUser(_ context.Context, userID string) ([]MemoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []MemoryRecord
	for _, rec := range s.records {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *ChromemStore) UpdateMeta(_ context.Context, id, summary, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return ErrNotFound
	}
	rec.Summary = summary
	rec.Title = title
	s.records[id] = rec
	return nil
}

func (s *ChromemStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return ErrNotFound
	}
	if len(rec.Embedding) > 0 {
		if err := s.collection.Delete(ctx, nil, nil, id); err != nil {
			return fmt.Errorf("unindex document: %w", err)
		}
		s.embedded[rec.UserID]--
	}
	delete(s.records, id)
	return nil
}

func (s *ChromemStore) QueryNearest(ctx context.Context, userID string, embedding []float32, limit int) ([]Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// chromem rejects result counts above the candidate set size.
	n := limit
	if available := s.embedded[userID]; n > available {
		n = available
	}
	if n <= 0 {
		return nil, nil
	}

	results, err := s.collection.QueryEmbedding(ctx, embedding, n, map[string]string{"user_id": userID}, nil)
	if err != nil {
		return nil, fmt.Errorf("query collection: %w", err)
	}

	matches := make([]Match, 0, len(results))
	for _, r := range results {
		rec, ok := s.records[r.ID]
		if !ok {
			continue
		}
		matches = append(matches, Match{
			Record:   rec,
			Distance: 1 - float64(r.Similarity),
		})
	}
	return matches, nil
}

func (s *ChromemStore) QueryText(_ context.Context, userID, query string, limit int) ([]MemoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(query)
	var out []MemoryRecord
	for _, rec := range s.records {
		if rec.UserID != userID {
			continue
		}
		haystack := strings.ToLower(rec.Content + "\n" + rec.Summary + "\n" + rec.Title)
		if strings.Contains(haystack, needle) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *ChromemStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

func (s *ChromemStore) Close() error { return nil }
