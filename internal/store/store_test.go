package store

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &Store{DB: db}, mock
}

func TestSaveAnalysisAssignsID(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO analyses").
		WithArgs(sqlmock.AnyArg(), "report.pdf", "the summary", 0.8, "ok", "").
		WillReturnResult(sqlmock.NewResult(0, 1))

	id, err := s.SaveAnalysis(context.Background(), Analysis{
		SourceID:   "report.pdf",
		Summary:    "the summary",
		Confidence: 0.8,
		Notes:      "ok",
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if id == "" {
		t.Fatalf("save must assign an id")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveAnalysisKeepsGivenID(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO analyses").
		WithArgs("fixed-id", "scan.pdf", "", 0.0, "", "llm down").
		WillReturnResult(sqlmock.NewResult(0, 1))

	id, err := s.SaveAnalysis(context.Background(), Analysis{
		ID:       "fixed-id",
		SourceID: "scan.pdf",
		Error:    "llm down",
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if id != "fixed-id" {
		t.Fatalf("expected id preserved, got %q", id)
	}
}

func TestSaveAnalysisWrapsError(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO analyses").
		WillReturnError(errors.New("connection reset"))

	if _, err := s.SaveAnalysis(context.Background(), Analysis{SourceID: "x.pdf"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestRecentAnalyses(t *testing.T) {
	s, mock := newMockStore(t)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "source_id", "summary", "confidence", "notes", "error", "created_at"}).
		AddRow("a", "new.pdf", "newest", 0.9, "ok", "", now).
		AddRow("b", "old.pdf", "older", 0.5, "ok", "", now.Add(-time.Hour))

	mock.ExpectQuery("SELECT id, source_id, summary, confidence, notes, error, created_at").
		WithArgs(2).
		WillReturnRows(rows)

	got, err := s.RecentAnalyses(context.Background(), 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}
	if got[0].ID != "a" || got[0].Summary != "newest" {
		t.Fatalf("unexpected first row: %+v", got[0])
	}
}

func TestRecentAnalysesDefaultLimit(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("SELECT id, source_id, summary, confidence, notes, error, created_at").
		WithArgs(20).
		WillReturnRows(sqlmock.NewRows([]string{"id", "source_id", "summary", "confidence", "notes", "error", "created_at"}))

	got, err := s.RecentAnalyses(context.Background(), 0)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no rows, got %d", len(got))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
