package memory

import (
	"context"
	"errors"
	"testing"
	"time"
)

func mustChromem(t *testing.T) *ChromemStore {
	t.Helper()
	store, err := NewChromemStore()
	if err != nil {
		t.Fatalf("NewChromemStore() error = %v", err)
	}
	return store
}

func TestChromemStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := mustChromem(t)

	rec := MemoryRecord{
		ID:        "m1",
		UserID:    "u1",
		Content:   "summary\n\nFull conversation:\nuser: hello",
		Summary:   "a greeting",
		Title:     "Untitled Conversation",
		CreatedAt: time.Now().UTC(),
	}
	if err := store.Insert(ctx, rec); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	got, err := store.Get(ctx, "m1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Summary != "a greeting" {
		t.Fatalf("Get() = %+v", got)
	}

	if err := store.UpdateMeta(ctx, "m1", "new summary", "new title"); err != nil {
		t.Fatalf("UpdateMeta() error = %v", err)
	}
	got, _ = store.Get(ctx, "m1")
	if got.Summary != "new summary" || got.Title != "new title" {
		t.Fatalf("after update = %+v", got)
	}

	if err := store.Delete(ctx, "m1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Get(ctx, "m1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get() after delete error = %v, want ErrNotFound", err)
	}
	if err := store.Delete(ctx, "m1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Delete() twice error = %v, want ErrNotFound", err)
	}
}

func TestChromemStoreListNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := mustChromem(t)
	base := time.Now().UTC()

	for i, id := range []string{"old", "mid", "new"} {
		rec := MemoryRecord{ID: id, UserID: "u1", CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := store.Insert(ctx, rec); err != nil {
			t.Fatalf("Insert(%s) error = %v", id, err)
		}
	}
	if err := store.Insert(ctx, MemoryRecord{ID: "other", UserID: "u2", CreatedAt: base}); err != nil {
		t.Fatalf("Insert(other) error = %v", err)
	}

	records, err := store.ListByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("len = %d, want 3 (other user's record excluded)", len(records))
	}
	if records[0].ID != "new" || records[2].ID != "old" {
		t.Fatalf("order = %s..%s, want newest first", records[0].ID, records[2].ID)
	}
}

func TestChromemStoreQueryNearest(t *testing.T) {
	ctx := context.Background()
	store := mustChromem(t)

	recs := []MemoryRecord{
		{ID: "x", UserID: "u1", Embedding: []float32{1, 0}},
		{ID: "y", UserID: "u1", Embedding: []float32{0, 1}},
		{ID: "z", UserID: "u2", Embedding: []float32{1, 0}},
	}
	for _, rec := range recs {
		if err := store.Insert(ctx, rec); err != nil {
			t.Fatalf("Insert(%s) error = %v", rec.ID, err)
		}
	}

	// limit above the user's candidate count must not error.
	matches, err := store.QueryNearest(ctx, "u1", []float32{1, 0}, 10)
	if err != nil {
		t.Fatalf("QueryNearest() error = %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("len(matches) = %d, want 2", len(matches))
	}
	if matches[0].Record.ID != "x" {
		t.Fatalf("nearest = %s, want x", matches[0].Record.ID)
	}
	if matches[0].Distance > 0.01 {
		t.Fatalf("distance to identical vector = %v, want ~0", matches[0].Distance)
	}
	for _, m := range matches {
		if m.Record.UserID != "u1" {
			t.Fatalf("match leaked from another user: %+v", m.Record)
		}
	}
}

func TestChromemStoreQueryNearestNoEmbedded(t *testing.T) {
	ctx := context.Background()
	store := mustChromem(t)
	if err := store.Insert(ctx, MemoryRecord{ID: "plain", UserID: "u1"}); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	matches, err := store.QueryNearest(ctx, "u1", []float32{1, 0}, 5)
	if err != nil {
		t.Fatalf("QueryNearest() error = %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("matches = %v, want none for unembedded records", matches)
	}
}

func TestChromemStoreQueryText(t *testing.T) {
	ctx := context.Background()
	store := mustChromem(t)
	base := time.Now().UTC()

	recs := []MemoryRecord{
		{ID: "a", UserID: "u1", Content: "talked about Goroutines", CreatedAt: base},
		{ID: "b", UserID: "u1", Summary: "goroutine leak hunt", CreatedAt: base.Add(time.Minute)},
		{ID: "c", UserID: "u1", Content: "travel plans", CreatedAt: base},
		{ID: "d", UserID: "u2", Content: "goroutines elsewhere", CreatedAt: base},
	}
	for _, rec := range recs {
		if err := store.Insert(ctx, rec); err != nil {
			t.Fatalf("Insert(%s) error = %v", rec.ID, err)
		}
	}

	out, err := store.QueryText(ctx, "u1", "goroutine", 10)
	if err != nil {
		t.Fatalf("QueryText() error = %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("len = %d, want 2 case-insensitive matches", len(out))
	}
	if out[0].ID != "b" {
		t.Fatalf("first = %s, want newest match first", out[0].ID)
	}

	out, err = store.QueryText(ctx, "u1", "goroutine", 1)
	if err != nil {
		t.Fatalf("QueryText() error = %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("limit not applied, len = %d", len(out))
	}
}
