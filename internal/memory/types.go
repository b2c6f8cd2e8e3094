package memory

import (
	"context"
	"errors"
	"time"
)

// ConversationTurn is one captured exchange of a saved conversation.
// Timestamps arrive as opaque strings from the capture side and are kept
// verbatim.
type ConversationTurn struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp,omitempty"`
}

// MemoryRecord is one summarized conversation owned by a single user.
// Content, Embedding and UserID are immutable after creation; only Summary
// and Title may change.
type MemoryRecord struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Content      string    `json:"content"`
	Summary      string    `json:"summary"`
	Title        string    `json:"title"`
	Topics       []string  `json:"topics"`
	Embedding    []float32 `json:"-"`
	MessageCount int       `json:"message_count"`
	URL          string    `json:"url"`
	FirstMessage string    `json:"first_message"`
	CreatedAt    time.Time `json:"created_at"`
}

// SearchHit is one ranked search result. Content is an excerpt of the
// stored document, capped at 300 characters.
type SearchHit struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Summary   string    `json:"summary"`
	Title     string    `json:"title"`
	Topics    []string  `json:"topics"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
	Relevance float64   `json:"relevance"`
	Distance  float64   `json:"distance"`
}

// Match is a nearest-neighbor result from a VectorStore. Distance is the
// cosine distance of the stored embedding to the query, in [0, 2].
type Match struct {
	Record   MemoryRecord
	Distance float64
}

var (
	ErrMissingUser  = errors.New("memory: missing user id")
	ErrNotFound     = errors.New("memory: record not found")
	ErrUnauthorized = errors.New("memory: record owned by another user")
)

// VectorStore persists memory records and answers nearest-neighbor and
// lexical queries. Implementations must scope QueryNearest, QueryText and
// ListByUser to the given user; ownership checks for single-record
// operations belong to the Service.
type VectorStore interface {
	Insert(ctx context.Context, rec MemoryRecord) error
	Get(ctx context.Context, id string) (MemoryRecord, error)
	// ListByUser returns the user's records sorted newest first.
	ListByUser(ctx context.Context, userID string) ([]MemoryRecord, error)
	UpdateMeta(ctx context.Context, id, summary, title string) error
	Delete(ctx context.Context, id string) error
	QueryNearest(ctx context.Context, userID string, embedding []float32, limit int) ([]Match, error)
	// QueryText matches query as a case-insensitive substring of content,
	// summary or title, newest first.
	QueryText(ctx context.Context, userID, query string, limit int) ([]MemoryRecord, error)
	Count(ctx context.Context) (int, error)
	Close() error
}
