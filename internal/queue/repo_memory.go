package queue

import (
	"context"
	"sort"
	"sync"
	"time"

	"applyflow-backend/internal/applications"
)

// ApplicationLookup is the slice of the applications repo the queue needs for
// eligibility and retry-budget checks.
type ApplicationLookup interface {
	GetByID(ctx context.Context, id string) (applications.Application, error)
}

// MemoryRepo stores queue entries in memory and is safe for concurrent use.
type MemoryRepo struct {
	Apps ApplicationLookup

	mu   sync.Mutex
	byID map[string]Entry
}

// NewMemoryRepo constructs a MemoryRepo backed by the given application lookup.
func NewMemoryRepo(apps ApplicationLookup) *MemoryRepo {
	return &MemoryRepo{Apps: apps, byID: make(map[string]Entry)}
}

// Insert stores a new queue entry.
func (r *MemoryRepo) Insert(ctx context.Context, entry Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[entry.ID] = entry
	return nil
}

// GetByID returns a queue entry by ID.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.byID[id]
	if !ok {
		return Entry{}, ErrEntryNotFound
	}
	return entry, nil
}

// ClaimNext claims the best pending entry under the repo mutex, mirroring the
// conditional-update semantics of the Postgres implementation.
func (r *MemoryRepo) ClaimNext(ctx context.Context) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}
	now := time.Now().UTC()

	r.mu.Lock()
	candidates := make([]Entry, 0, len(r.byID))
	for _, entry := range r.byID {
		if entry.Status == EntryPending && !entry.ScheduledAt.After(now) {
			candidates = append(candidates, entry)
		}
	}
	r.mu.Unlock()

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Priority != candidates[j].Priority {
			return candidates[i].Priority > candidates[j].Priority
		}
		return candidates[i].ScheduledAt.Before(candidates[j].ScheduledAt)
	})

	for _, candidate := range candidates {
		app, err := r.Apps.GetByID(ctx, candidate.ApplicationID)
		if err != nil || !app.Status.PipelineEligible() {
			continue
		}
		r.mu.Lock()
		entry, ok := r.byID[candidate.ID]
		if !ok || entry.Status != EntryPending {
			r.mu.Unlock()
			continue
		}
		started := now
		entry.Status = EntryProcessing
		entry.StartedAt = &started
		r.byID[entry.ID] = entry
		r.mu.Unlock()
		return entry, nil
	}
	return Entry{}, ErrNoPending
}

// MarkCompleted finishes an entry successfully.
func (r *MemoryRepo) MarkCompleted(ctx context.Context, id string) error {
	return r.finish(ctx, id, EntryCompleted, nil)
}

// MarkFailed finishes an entry with an error message.
func (r *MemoryRepo) MarkFailed(ctx context.Context, id string, errorMessage string) error {
	return r.finish(ctx, id, EntryFailed, &errorMessage)
}

func (r *MemoryRepo) finish(ctx context.Context, id string, status EntryStatus, errorMessage *string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.byID[id]
	if !ok {
		return ErrEntryNotFound
	}
	now := time.Now().UTC()
	entry.Status = status
	entry.CompletedAt = &now
	entry.ErrorMessage = errorMessage
	r.byID[id] = entry
	return nil
}

// ListRetryable returns failed entries whose application has retry budget left.
func (r *MemoryRepo) ListRetryable(ctx context.Context) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	failed := make([]Entry, 0)
	for _, entry := range r.byID {
		if entry.Status == EntryFailed {
			failed = append(failed, entry)
		}
	}
	r.mu.Unlock()

	var retryable []Entry
	for _, entry := range failed {
		app, err := r.Apps.GetByID(ctx, entry.ApplicationID)
		if err != nil {
			continue
		}
		if app.RetryCount < app.MaxRetries {
			retryable = append(retryable, entry)
		}
	}
	sort.Slice(retryable, func(i, j int) bool {
		return retryable[i].ScheduledAt.Before(retryable[j].ScheduledAt)
	})
	return retryable, nil
}

// ResetToPending clears timestamps and the error and re-schedules the entry.
func (r *MemoryRepo) ResetToPending(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.byID[id]
	if !ok {
		return ErrEntryNotFound
	}
	entry.Status = EntryPending
	entry.ScheduledAt = time.Now().UTC()
	entry.StartedAt = nil
	entry.CompletedAt = nil
	entry.ErrorMessage = nil
	r.byID[id] = entry
	return nil
}

// CountByStatus returns entry counts grouped by status.
func (r *MemoryRepo) CountByStatus(ctx context.Context) (map[EntryStatus]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[EntryStatus]int)
	for _, entry := range r.byID {
		counts[entry.Status]++
	}
	return counts, nil
}

// StuckProcessing returns entries processing for longer than threshold.
func (r *MemoryRepo) StuckProcessing(ctx context.Context, threshold time.Duration) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cutoff := time.Now().UTC().Add(-threshold)
	r.mu.Lock()
	defer r.mu.Unlock()
	var stuck []Entry
	for _, entry := range r.byID {
		if entry.Status == EntryProcessing && entry.StartedAt != nil && entry.StartedAt.Before(cutoff) {
			stuck = append(stuck, entry)
		}
	}
	sort.Slice(stuck, func(i, j int) bool {
		return stuck[i].StartedAt.Before(*stuck[j].StartedAt)
	})
	return stuck, nil
}

// OldestPendingSince returns the scheduled time of the oldest pending entry.
func (r *MemoryRepo) OldestPendingSince(ctx context.Context) (*time.Time, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var oldest *time.Time
	for _, entry := range r.byID {
		if entry.Status != EntryPending {
			continue
		}
		scheduled := entry.ScheduledAt
		if oldest == nil || scheduled.Before(*oldest) {
			oldest = &scheduled
		}
	}
	return oldest, nil
}

// DeleteCompletedBefore purges completed entries older than cutoff.
func (r *MemoryRepo) DeleteCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var purged int64
	for id, entry := range r.byID {
		if entry.Status == EntryCompleted && entry.CompletedAt != nil && entry.CompletedAt.Before(cutoff) {
			delete(r.byID, id)
			purged++
		}
	}
	return purged, nil
}

var _ Repo = (*MemoryRepo)(nil)
