// Package catalog persists recovered utterances in PostgreSQL, deduplicated
// by text hash. Re-running extraction over a new game patch then shows which
// lines are new or changed, so translators only review the delta.
package catalog

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/Sunnie-Evergale/stcm2l-psv/internal/stcm2l"
	"github.com/Sunnie-Evergale/stcm2l-psv/internal/textutil"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

const schema = `
CREATE TABLE IF NOT EXISTS script_lines (
    hash       TEXT PRIMARY KEY,
    source     TEXT NOT NULL,
    speaker    TEXT NOT NULL DEFAULT '',
    kind       TEXT NOT NULL,
    body       TEXT NOT NULL,
    first_seen TIMESTAMPTZ NOT NULL DEFAULT now(),
    last_seen  TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Catalog is an in-memory + PostgreSQL-backed store of recovered lines.
type Catalog struct {
	pool  *pgxpool.Pool
	mu    sync.RWMutex
	known map[string]struct{} // hashes already in the store
}

// New creates a catalog backed by the given pool.
func New(pool *pgxpool.Pool) *Catalog {
	return &Catalog{
		pool:  pool,
		known: make(map[string]struct{}),
	}
}

// EnsureSchema creates the backing table when missing.
func (c *Catalog) EnsureSchema(ctx context.Context) error {
	if _, err := c.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure catalog schema: %w", err)
	}
	return nil
}

// Preload loads the known hash set so Upsert can report what is new.
func (c *Catalog) Preload(ctx context.Context) error {
	rows, err := c.pool.Query(ctx, `SELECT hash FROM script_lines`)
	if err != nil {
		return fmt.Errorf("preload catalog: %w", err)
	}
	defer rows.Close()

	c.mu.Lock()
	defer c.mu.Unlock()
	for rows.Next() {
		var hash string
		if err := rows.Scan(&hash); err != nil {
			return fmt.Errorf("scan catalog hash: %w", err)
		}
		c.known[hash] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate catalog hashes: %w", err)
	}

	log.Info().Int("count", len(c.known)).Msg("Preloaded line catalog")
	return nil
}

// Upsert stores the utterances of one script file, returning how many were
// not previously catalogued.
func (c *Catalog) Upsert(ctx context.Context, source string, utterances []stcm2l.Utterance) (int, error) {
	inserted := 0
	for _, u := range utterances {
		if u.Text == "" {
			continue
		}
		hash := textutil.Hash(u.Text)

		_, err := c.pool.Exec(ctx, `
			INSERT INTO script_lines (hash, source, speaker, kind, body)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (hash) DO UPDATE SET last_seen = now()`,
			hash, source, u.Speaker, u.Kind.String(), u.Text,
		)
		if err != nil {
			return inserted, fmt.Errorf("upsert script line: %w", err)
		}

		c.mu.Lock()
		if _, ok := c.known[hash]; !ok {
			c.known[hash] = struct{}{}
			inserted++
		}
		c.mu.Unlock()
	}

	log.Info().Str("source", source).Int("lines", len(utterances)).Int("new", inserted).Msg("Catalogued script lines")
	return inserted, nil
}

// ExportTSV writes the whole catalog to a TSV file for spreadsheet review.
func (c *Catalog) ExportTSV(ctx context.Context, outputPath string) error {
	rows, err := c.pool.Query(ctx, `
		SELECT source, speaker, kind, body FROM script_lines ORDER BY source, first_seen`)
	if err != nil {
		return fmt.Errorf("query catalog: %w", err)
	}
	defer rows.Close()

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create TSV file: %w", err)
	}
	defer f.Close()

	fmt.Fprintln(f, "source\tspeaker\tkind\ttext")

	count := 0
	for rows.Next() {
		var source, speaker, kind, body string
		if err := rows.Scan(&source, &speaker, &kind, &body); err != nil {
			return fmt.Errorf("scan catalog row: %w", err)
		}
		fmt.Fprintf(f, "%s\t%s\t%s\t%s\n", source, speaker, kind, escapeTSV(body))
		count++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate catalog rows: %w", err)
	}

	log.Info().Str("path", outputPath).Int("lines", count).Msg("Exported catalog to TSV")
	return nil
}

// escapeTSV keeps multi-line bodies on one TSV row.
func escapeTSV(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch r {
		case '\t':
			out = append(out, ' ')
		case '\n', '\r':
			out = append(out, '⏎')
		default:
			out = append(out, r)
		}
	}
	return string(out)
}
