package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

var entryRowColumns = []string{
	"id", "application_id", "priority", "status",
	"scheduled_at", "started_at", "completed_at", "error_message", "created_at",
}

func TestPGClaimNextReturnsClaimedEntry(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := &PGRepo{DB: db}

	now := time.Now().UTC()
	started := now
	mock.ExpectQuery("UPDATE application_queue").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(entryRowColumns).
			AddRow("e1", "app-1", 2, "processing", now, started, nil, nil, now))

	entry, err := repo.ClaimNext(context.Background())
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if entry.ID != "e1" || entry.ApplicationID != "app-1" || entry.Priority != 2 {
		t.Fatalf("unexpected entry %+v", entry)
	}
	if entry.Status != EntryProcessing || entry.StartedAt == nil {
		t.Fatalf("claimed entry must be processing with start time, got %+v", entry)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGClaimNextEmptyQueue(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := &PGRepo{DB: db}

	mock.ExpectQuery("UPDATE application_queue").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(entryRowColumns))

	_, err = repo.ClaimNext(context.Background())
	if !errors.Is(err, ErrNoPending) {
		t.Fatalf("expected ErrNoPending, got %v", err)
	}
}

func TestPGMarkFailedRecordsMessage(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := &PGRepo{DB: db}

	mock.ExpectExec("UPDATE application_queue").
		WithArgs("e1", sqlmock.AnyArg(), "discovery timeout").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.MarkFailed(context.Background(), "e1", "discovery timeout"); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGResetToPendingMissingEntry(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := &PGRepo{DB: db}

	mock.ExpectExec("UPDATE application_queue").
		WithArgs("ghost", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.ResetToPending(context.Background(), "ghost")
	if !errors.Is(err, ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound, got %v", err)
	}
}

func TestPGListRetryable(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := &PGRepo{DB: db}

	now := time.Now().UTC()
	completed := now
	mock.ExpectQuery("SELECT (.+) FROM application_queue aq").
		WillReturnRows(sqlmock.NewRows(entryRowColumns).
			AddRow("e1", "app-1", 0, "failed", now, nil, completed, "boom", now).
			AddRow("e2", "app-2", 1, "failed", now, nil, completed, "crash", now))

	entries, err := repo.ListRetryable(context.Background())
	if err != nil {
		t.Fatalf("list retryable: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].ErrorMessage == nil || *entries[0].ErrorMessage != "boom" {
		t.Fatalf("unexpected first entry %+v", entries[0])
	}
}

func TestPGDeleteCompletedBefore(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := &PGRepo{DB: db}

	cutoff := time.Now().UTC().Add(-24 * time.Hour)
	mock.ExpectExec("DELETE FROM application_queue").
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 3))

	purged, err := repo.DeleteCompletedBefore(context.Background(), cutoff)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if purged != 3 {
		t.Fatalf("expected 3 purged, got %d", purged)
	}
}
