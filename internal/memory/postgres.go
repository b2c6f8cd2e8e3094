package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists memory records in PostgreSQL with a pgvector
// column for nearest-neighbor search.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string, embeddingDim int) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := initSchema(ctx, pool, embeddingDim); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool, embeddingDim int) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector;`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS memories (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			content TEXT NOT NULL,
			summary TEXT NOT NULL DEFAULT '',
			title TEXT NOT NULL DEFAULT '',
			topics JSONB NOT NULL DEFAULT '[]',
			embedding vector(%d),
			message_count INTEGER NOT NULL DEFAULT 0,
			url TEXT NOT NULL DEFAULT '',
			first_message TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`, embeddingDim),
		`CREATE INDEX IF NOT EXISTS idx_memories_user_created ON memories (user_id, created_at DESC);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

const recordColumns = `id, user_id, content, summary, title, topics, message_count, url, first_message, created_at`

func (s *PostgresStore) Insert(ctx context.Context, rec MemoryRecord) error {
	topics, err := json.Marshal(topicsOrEmpty(rec.Topics))
	if err != nil {
		return fmt.Errorf("encode topics: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO memories (id, user_id, content, summary, title, topics, embedding, message_count, url, first_message, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7::vector, $8, $9, $10, $11)`,
		rec.ID,
		rec.UserID,
		rec.Content,
		rec.Summary,
		rec.Title,
		topics,
		vectorParam(rec.Embedding),
		rec.MessageCount,
		rec.URL,
		rec.FirstMessage,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (MemoryRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM memories WHERE id=$1`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return MemoryRecord{}, ErrNotFound
	}
	if err != nil {
		return MemoryRecord{}, fmt.Errorf("get record: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID string) ([]MemoryRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+recordColumns+` FROM memories WHERE user_id=$1 ORDER BY created_at DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

func (s *PostgresStore) UpdateMeta(ctx context.Context, id, summary, title string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE memories SET summary=$2, title=$3 WHERE id=$1`,
		id, summary, title)
	if err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM memories WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) QueryNearest(ctx context.Context, userID string, embedding []float32, limit int) ([]Match, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+recordColumns+`, embedding <=> $2::vector AS distance
		 FROM memories
		 WHERE user_id=$1 AND embedding IS NOT NULL
		 ORDER BY embedding <=> $2::vector
		 LIMIT $3`,
		userID, vectorParam(embedding), limit)
	if err != nil {
		return nil, fmt.Errorf("nearest query: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		rec, distance, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan match row: %w", err)
		}
		matches = append(matches, Match{Record: rec, Distance: distance})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate match rows: %w", err)
	}
	return matches, nil
}

func (s *PostgresStore) QueryText(ctx context.Context, userID, query string, limit int) ([]MemoryRecord, error) {
	pattern := "%" + query + "%"
	rows, err := s.pool.Query(ctx,
		`SELECT `+recordColumns+` FROM memories
		 WHERE user_id=$1 AND (content ILIKE $2 OR summary ILIKE $2 OR title ILIKE $2)
		 ORDER BY created_at DESC
		 LIMIT $3`,
		userID, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("text query: %w", err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM memories`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func collectRecords(rows pgx.Rows) ([]MemoryRecord, error) {
	var out []MemoryRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record row: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate record rows: %w", err)
	}
	return out, nil
}

func scanRecord(row pgx.Row) (MemoryRecord, error) {
	var rec MemoryRecord
	var topics []byte
	err := row.Scan(&rec.ID, &rec.UserID, &rec.Content, &rec.Summary, &rec.Title,
		&topics, &rec.MessageCount, &rec.URL, &rec.FirstMessage, &rec.CreatedAt)
	if err != nil {
		return MemoryRecord{}, err
	}
	if err := json.Unmarshal(topics, &rec.Topics); err != nil {
		return MemoryRecord{}, fmt.Errorf("decode topics: %w", err)
	}
	return rec, nil
}

func scanMatch(row pgx.Row) (MemoryRecord, float64, error) {
	var rec MemoryRecord
	var topics []byte
	var distance float64
	err := row.Scan(&rec.ID, &rec.UserID, &rec.Content, &rec.Summary, &rec.Title,
		&topics, &rec.MessageCount, &rec.URL, &rec.FirstMessage, &rec.CreatedAt, &distance)
	if err != nil {
		return MemoryRecord{}, 0, err
	}
	if err := json.Unmarshal(topics, &rec.Topics); err != nil {
		return MemoryRecord{}, 0, fmt.Errorf("decode topics: %w", err)
	}
	return rec, distance, nil
}

// vectorParam passes an embedding as a real[] parameter, which the
// ::vector cast in the SQL converts, or NULL when absent.
func vectorParam(vec []float32) any {
	if len(vec) == 0 {
		return nil
	}
	return vec
}

func topicsOrEmpty(topics []string) []string {
	if topics == nil {
		return []string{}
	}
	return topics
}
