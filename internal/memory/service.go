package memory

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gmellini/recall/internal/llm"
	"github.com/gmellini/recall/internal/observability"
)

const (
	defaultSearchLimit = 5
	maxFetchLimit      = 20
	// Relevance below this is dropped on the vector path; the lexical
	// fallback is unscored and bypasses the threshold.
	relevanceThreshold = 0.3
	lexicalRelevance   = 0.7
	excerptLength      = 300
	embedInputLimit    = 1000
	firstMessageLimit  = 200
	defaultTitle       = "Untitled Conversation"
)

// Service owns the lifecycle of per-user memory records: summarization on
// save, vector/lexical search with relevance scoring, and ownership
// enforcement on every single-record operation.
type Service struct {
	store     VectorStore
	completer llm.Completer // nil when no provider is configured
	embedder  llm.Embedder  // nil disables the vector search path
	metrics   *observability.Metrics
}

func NewService(store VectorStore, completer llm.Completer, embedder llm.Embedder, metrics *observability.Metrics) *Service {
	return &Service{
		store:     store,
		completer: completer,
		embedder:  embedder,
		metrics:   metrics,
	}
}

// Save summarizes the conversation, embeds it and persists a new record.
// Summary and embedding failures degrade to fallbacks; only a missing user
// or a store failure makes Save fail.
func (s *Service) Save(ctx context.Context, userID string, turns []ConversationTurn, url, title string) (MemoryRecord, error) {
	if strings.TrimSpace(userID) == "" {
		return MemoryRecord{}, ErrMissingUser
	}

	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		lines = append(lines, t.Role+": "+t.Content)
	}
	transcript := strings.Join(lines, "\n")

	summary, topics := s.summarize(ctx, transcript, turns)
	document := buildDocument(summary, topics, transcript)

	var embedding []float32
	if s.embedder != nil {
		input := summary + "\n" + head(transcript, embedInputLimit)
		vec, err := s.embedder.Embed(ctx, input)
		if err != nil {
			// The record is still worth keeping; it just won't be
			// reachable through vector search.
			log.Printf("embedding failed, saving without vector: %v", err)
			s.metrics.UpstreamErrors.WithLabelValues("embedding").Inc()
		} else {
			embedding = vec
		}
	}

	if strings.TrimSpace(title) == "" {
		title = defaultTitle
	}

	rec := MemoryRecord{
		ID:           uuid.NewString(),
		UserID:       userID,
		Content:      document,
		Summary:      summary,
		Title:        title,
		Topics:       topics,
		Embedding:    embedding,
		MessageCount: len(turns),
		URL:          url,
		FirstMessage: head(firstTurnContent(turns), firstMessageLimit),
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.store.Insert(ctx, rec); err != nil {
		return MemoryRecord{}, fmt.Errorf("insert record: %w", err)
	}
	s.refreshStoredGauge(ctx)
	return rec, nil
}

// Search ranks the user's memories against a free-text query. The vector
// path converts cosine distance d to relevance clamp(1-d/2, 0, 1) and keeps
// hits above the threshold; when it fails or finds nothing, a lexical
// substring search takes over with a fixed relevance.
func (s *Service) Search(ctx context.Context, userID, query string, limit int) ([]SearchHit, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrMissingUser
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	fetchLimit := limit
	if fetchLimit > maxFetchLimit {
		fetchLimit = maxFetchLimit
	}

	if hits, ok := s.vectorSearch(ctx, userID, query, fetchLimit); ok {
		if len(hits) > limit {
			hits = hits[:limit]
		}
		return hits, nil
	}

	records, err := s.store.QueryText(ctx, userID, query, fetchLimit)
	if err != nil {
		return nil, fmt.Errorf("lexical search: %w", err)
	}
	hits := make([]SearchHit, 0, len(records))
	for _, rec := range records {
		hits = append(hits, newHit(rec, lexicalRelevance, 2*(1-lexicalRelevance)))
	}
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// vectorSearch runs the embedding + nearest-neighbor path. The second
// return value reports whether its results should be used; false routes
// the caller to the lexical fallback.
func (s *Service) vectorSearch(ctx context.Context, userID, query string, fetchLimit int) ([]SearchHit, bool) {
	if s.embedder == nil {
		s.metrics.SearchFallbacks.WithLabelValues("no_embedder").Inc()
		return nil, false
	}

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		log.Printf("query embedding failed, using lexical search: %v", err)
		s.metrics.UpstreamErrors.WithLabelValues("embedding").Inc()
		s.metrics.SearchFallbacks.WithLabelValues("embed_error").Inc()
		return nil, false
	}

	matches, err := s.store.QueryNearest(ctx, userID, vec, fetchLimit)
	if err != nil {
		log.Printf("vector query failed, using lexical search: %v", err)
		s.metrics.SearchFallbacks.WithLabelValues("store_error").Inc()
		return nil, false
	}
	if len(matches) == 0 {
		s.metrics.SearchFallbacks.WithLabelValues("no_results").Inc()
		return nil, false
	}

	hits := make([]SearchHit, 0, len(matches))
	for _, m := range matches {
		relevance := clamp01(1 - m.Distance/2)
		if relevance <= relevanceThreshold {
			continue
		}
		hits = append(hits, newHit(m.Record, relevance, m.Distance))
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Relevance > hits[j].Relevance })
	return hits, true
}

// List returns all of the user's records, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]MemoryRecord, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrMissingUser
	}
	records, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return records, nil
}

// Update mutates summary and title of a record the caller owns.
func (s *Service) Update(ctx context.Context, userID, id, summary, title string) error {
	if err := s.authorize(ctx, userID, id); err != nil {
		return err
	}
	if err := s.store.UpdateMeta(ctx, id, summary, title); err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	return nil
}

// Delete removes a record the caller owns.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if err := s.authorize(ctx, userID, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	s.refreshStoredGauge(ctx)
	return nil
}

// authorize verifies the record exists and belongs to userID.
func (s *Service) authorize(ctx context.Context, userID, id string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrMissingUser
	}
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if rec.UserID != userID {
		return ErrUnauthorized
	}
	return nil
}

// summarize asks the completion model for a summary and topic list. Any
// provider or parse failure degrades to the deterministic fallback and an
// empty topic list.
func (s *Service) summarize(ctx context.Context, transcript string, turns []ConversationTurn) (string, []string) {
	if s.completer == nil {
		return fallbackSummary(turns), nil
	}
	raw, err := s.completer.Complete(ctx, summaryExtractionSystem, transcript)
	if err != nil {
		log.Printf("summary completion failed, using fallback: %v", err)
		s.metrics.UpstreamErrors.WithLabelValues("completion").Inc()
		s.metrics.SummaryFallbacks.Inc()
		return fallbackSummary(turns), nil
	}
	summary, topics, err := parseSummaryResponse(raw)
	if err != nil {
		log.Printf("summary response unparseable, using fallback: %v", err)
		s.metrics.SummaryFallbacks.Inc()
		return fallbackSummary(turns), nil
	}
	return summary, topics
}

func (s *Service) refreshStoredGauge(ctx context.Context) {
	if n, err := s.store.Count(ctx); err == nil {
		s.metrics.StoredMemories.Set(float64(n))
	}
}

func buildDocument(summary string, topics []string, transcript string) string {
	return summary + "\n\nTopics: " + strings.Join(topics, ", ") + "\n\nFull conversation:\n" + transcript
}

func newHit(rec MemoryRecord, relevance, distance float64) SearchHit {
	content := rec.Content
	if len(content) > excerptLength {
		content = content[:excerptLength] + "..."
	}
	return SearchHit{
		ID:        rec.ID,
		Content:   content,
		Summary:   rec.Summary,
		Title:     rec.Title,
		Topics:    rec.Topics,
		URL:       rec.URL,
		CreatedAt: rec.CreatedAt,
		Relevance: relevance,
		Distance:  distance,
	}
}

func firstTurnContent(turns []ConversationTurn) string {
	if len(turns) == 0 {
		return ""
	}
	return turns[0].Content
}

func head(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
