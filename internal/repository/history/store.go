// Package history persists command usage counts in SQLite.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/kailas-cloud/searchlang/internal/domain/search/command"
)

const schema = `
CREATE TABLE IF NOT EXISTS command_usage (
	command TEXT PRIMARY KEY,
	count   INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS command_transition (
	prev    TEXT NOT NULL,
	next    TEXT NOT NULL,
	count   INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (prev, next)
);
`

// Store records which commands are used and which follow which.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and applies the schema.
// Use ":memory:" for a throwaway store.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate history db: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close history db: %w", err)
	}
	return nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping history db: %w", err)
	}
	return nil
}

// Record counts each command of a pipeline and each adjacent pair.
func (s *Store) Record(ctx context.Context, commands []string) error {
	if len(commands) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	prev := ""
	for _, cmd := range commands {
		cmd = strings.ToLower(strings.TrimSpace(cmd))
		if cmd == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO command_usage (command, count) VALUES (?, 1)
			ON CONFLICT(command) DO UPDATE SET count = count + 1
		`, cmd); err != nil {
			return fmt.Errorf("record usage of %q: %w", cmd, err)
		}
		if prev != "" {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO command_transition (prev, next, count) VALUES (?, ?, 1)
				ON CONFLICT(prev, next) DO UPDATE SET count = count + 1
			`, prev, cmd); err != nil {
				return fmt.Errorf("record transition %q -> %q: %w", prev, cmd, err)
			}
		}
		prev = cmd
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// TopCommands returns the most used commands.
func (s *Store) TopCommands(ctx context.Context, limit int) ([]command.Count, error) {
	return s.query(ctx, `
		SELECT command, count FROM command_usage
		ORDER BY count DESC, command ASC
		LIMIT ?
	`, limit)
}

// NextCommands returns the commands most often following prev.
func (s *Store) NextCommands(ctx context.Context, prev string, limit int) ([]command.Count, error) {
	return s.query(ctx, `
		SELECT next, count FROM command_transition
		WHERE prev = ?
		ORDER BY count DESC, next ASC
		LIMIT ?
	`, strings.ToLower(prev), limit)
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]command.Count, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	out := []command.Count{}
	for rows.Next() {
		var c command.Count
		if err := rows.Scan(&c.Command, &c.Count); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return out, nil
}
