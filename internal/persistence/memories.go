package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"github.com/basket/routines/internal/routine"
)

// Memories reads the relational memory store. A nil Memories (no
// DATABASE_URL configured) degrades every query to an empty result set, so
// callers never special-case the missing store.
type Memories struct {
	db *sql.DB
}

var _ routine.MemoryReader = (*Memories)(nil)

// OpenMemories opens the store at url. An empty url yields (nil, nil): the
// caller keeps a nil reader and queries degrade.
func OpenMemories(url string) (*Memories, error) {
	if url == "" {
		return nil, nil
	}
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return &Memories{db: db}, nil
}

// Since returns every memory not marked forgotten created at or after t,
// oldest first. Creation time lives in the row's metadata JSON.
func (m *Memories) Since(ctx context.Context, t time.Time) ([]routine.Memory, error) {
	if m == nil || m.db == nil {
		slog.Warn("no DATABASE_URL configured, returning no memories")
		return nil, nil
	}

	rows, err := m.db.QueryContext(ctx, `
		SELECT id::text, content, (metadata->>'created_at')::timestamptz
		FROM cortex.memories
		WHERE NOT forgotten
		  AND (metadata->>'created_at')::timestamptz >= $1
		ORDER BY (metadata->>'created_at')::timestamptz ASC;
	`, t)
	if err != nil {
		return nil, fmt.Errorf("query memories: %w", err)
	}
	defer rows.Close()

	var out []routine.Memory
	for rows.Next() {
		var mem routine.Memory
		if err := rows.Scan(&mem.ID, &mem.Content, &mem.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan memory: %w", err)
		}
		out = append(out, mem)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("memory rows: %w", err)
	}
	return out, nil
}

// Ping verifies connectivity, for diagnostics. Nil readers report nothing
// to ping.
func (m *Memories) Ping(ctx context.Context) error {
	if m == nil || m.db == nil {
		return nil
	}
	if err := m.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

// Close releases the underlying pool. Nil-safe.
func (m *Memories) Close() error {
	if m == nil || m.db == nil {
		return nil
	}
	return m.db.Close()
}
