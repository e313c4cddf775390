// Package store persists completed analyses in Postgres.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

// Store wraps the analyses database.
type Store struct {
	DB *sql.DB
}

// Analysis is one persisted pipeline deliverable.
type Analysis struct {
	ID         string    `json:"id"`
	SourceID   string    `json:"source_id"`
	Summary    string    `json:"summary,omitempty"`
	Confidence float64   `json:"confidence"`
	Notes      string    `json:"notes,omitempty"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewWithDSN opens a Postgres connection and verifies it.
func NewWithDSN(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return &Store{DB: db}, nil
}

// SaveAnalysis inserts one completed analysis and returns its id.
func (s *Store) SaveAnalysis(ctx context.Context, a Analysis) (string, error) {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO analyses (id, source_id, summary, confidence, notes, error, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW())`,
		a.ID, a.SourceID, a.Summary, a.Confidence, a.Notes, a.Error)
	if err != nil {
		return "", fmt.Errorf("failed to insert analysis: %w", err)
	}
	return a.ID, nil
}

// RecentAnalyses returns up to limit analyses, newest first.
func (s *Store) RecentAnalyses(ctx context.Context, limit int) ([]Analysis, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, source_id, summary, confidence, notes, error, created_at
		 FROM analyses ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query analyses: %w", err)
	}
	defer rows.Close()

	var out []Analysis
	for rows.Next() {
		var a Analysis
		if err := rows.Scan(&a.ID, &a.SourceID, &a.Summary, &a.Confidence, &a.Notes, &a.Error, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
