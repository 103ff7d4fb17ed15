package queue

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNoPending is returned by ClaimNext when nothing is claimable.
	ErrNoPending = errors.New("no pending queue entry")
	// ErrEntryNotFound is returned when a queue entry does not exist.
	ErrEntryNotFound = errors.New("queue entry not found")
)

// Repo persists queue entries.
//
// ClaimNext must be atomic: it selects the highest-priority, earliest-scheduled
// pending entry whose application is still pipeline-eligible and flips it to
// processing in the same operation, so concurrent claimers can never take the
// same entry.
type Repo interface {
	Insert(ctx context.Context, entry Entry) error
	GetByID(ctx context.Context, id string) (Entry, error)
	ClaimNext(ctx context.Context) (Entry, error)
	MarkCompleted(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, errorMessage string) error
	// ListRetryable returns failed entries whose application still has retry
	// budget (retry_count < max_retries).
	ListRetryable(ctx context.Context) ([]Entry, error)
	// ResetToPending clears timestamps and error and re-schedules the entry.
	ResetToPending(ctx context.Context, id string) error
	CountByStatus(ctx context.Context) (map[EntryStatus]int, error)
	// StuckProcessing returns entries processing for longer than threshold.
	StuckProcessing(ctx context.Context, threshold time.Duration) ([]Entry, error)
	// OldestPendingSince returns the scheduled time of the oldest pending
	// entry, or nil when the queue is drained.
	OldestPendingSince(ctx context.Context) (*time.Time, error)
	// DeleteCompletedBefore purges completed entries older than cutoff.
	DeleteCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
