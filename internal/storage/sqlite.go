package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"methodevo/internal/method"
)

type SQLiteStore struct {
	db *sql.DB
}

// TransitionSummary is the per-transition row persisted alongside the match
// details.
type TransitionSummary struct {
	Position     int
	FromRevision string
	ToRevision   string
	Matches      int
	Added        int
	Deleted      int
	TotalBefore  int
	TotalAfter   int
	Counts       map[method.MatchType]int
}

// NewSQLiteStore creates or opens a SQLite database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS transitions (
			position INTEGER PRIMARY KEY,
			from_rev TEXT,
			to_rev TEXT,
			matches INTEGER,
			added INTEGER,
			deleted INTEGER,
			total_before INTEGER,
			total_after INTEGER,
			counts JSON
		);`,
		`CREATE TABLE IF NOT EXISTS changes (
			from_rev TEXT,
			to_rev TEXT,
			change_type TEXT,
			similarity REAL,
			before_key TEXT,
			after_key TEXT,
			before_lines TEXT,
			after_lines TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_changes_rev ON changes(from_rev, to_rev);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// SaveTransitions replaces any previously stored run with the given ordered
// transition list, including one change row per match, addition and
// deletion.
func (s *SQLiteStore) SaveTransitions(ctx context.Context, transitions []*method.Transition) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"transitions", "changes"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}

	summaryStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO transitions (position, from_rev, to_rev, matches, added, deleted, total_before, total_after, counts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer summaryStmt.Close()

	changeStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO changes (from_rev, to_rev, change_type, similarity, before_key, after_key, before_lines, after_lines)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer changeStmt.Close()

	for i, t := range transitions {
		counts, _ := json.Marshal(t.Counts)
		if _, err := summaryStmt.Exec(i, t.FromRevision, t.ToRevision, len(t.Matches), len(t.Added), len(t.Deleted), t.TotalBefore, t.TotalAfter, counts); err != nil {
			return err
		}

		for _, m := range t.Matches {
			if _, err := changeStmt.Exec(t.FromRevision, t.ToRevision, string(m.Type), m.Similarity,
				m.Before.IdentityKey(), m.After.IdentityKey(), m.Before.LineRange(), m.After.LineRange()); err != nil {
				return err
			}
		}
		for _, r := range t.Added {
			if _, err := changeStmt.Exec(t.FromRevision, t.ToRevision, "added", nil, "", r.IdentityKey(), "", r.LineRange()); err != nil {
				return err
			}
		}
		for _, r := range t.Deleted {
			if _, err := changeStmt.Exec(t.FromRevision, t.ToRevision, "deleted", nil, r.IdentityKey(), "", r.LineRange(), ""); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// LoadSummaries returns the stored transition summaries in snapshot order.
func (s *SQLiteStore) LoadSummaries(ctx context.Context) ([]TransitionSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT position, from_rev, to_rev, matches, added, deleted, total_before, total_after, counts
		FROM transitions ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query transitions: %w", err)
	}
	defer rows.Close()

	var summaries []TransitionSummary
	for rows.Next() {
		var sum TransitionSummary
		var counts []byte
		if err := rows.Scan(&sum.Position, &sum.FromRevision, &sum.ToRevision, &sum.Matches, &sum.Added, &sum.Deleted, &sum.TotalBefore, &sum.TotalAfter, &counts); err != nil {
			return nil, fmt.Errorf("failed to scan transition: %w", err)
		}
		if len(counts) > 0 {
			_ = json.Unmarshal(counts, &sum.Counts)
		}
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// CountChanges returns the number of stored change rows of the given type
// for one transition.
func (s *SQLiteStore) CountChanges(ctx context.Context, fromRev, toRev, changeType string) (int, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM changes WHERE from_rev = ? AND to_rev = ? AND change_type = ?",
		fromRev, toRev, changeType)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
