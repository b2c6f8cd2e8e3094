package memory

import (
	"context"
	"strings"
)

// NewVectorStore creates a postgres-backed store when configured, otherwise
// an ephemeral in-process one.
func NewVectorStore(ctx context.Context, databaseURL string, embeddingDim int) (VectorStore, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return NewChromemStore()
	}
	return NewPostgresStore(ctx, databaseURL, embeddingDim)
}
