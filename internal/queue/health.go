package queue

import (
	"context"
	"time"
)

// Monitor reports aggregate queue health. It only reads; stuck entries are
// surfaced as anomalies, never auto-recovered.
type Monitor struct {
	Repo           Repo
	StuckThreshold time.Duration
}

// NewMonitor constructs a Monitor.
func NewMonitor(repo Repo, stuckThreshold time.Duration) *Monitor {
	if stuckThreshold <= 0 {
		stuckThreshold = 10 * time.Minute
	}
	return &Monitor{Repo: repo, StuckThreshold: stuckThreshold}
}

// Snapshot collects backlog size, failure rate, stuck entries, and the age of
// the oldest pending entry.
func (m *Monitor) Snapshot(ctx context.Context) (HealthSnapshot, error) {
	counts, err := m.Repo.CountByStatus(ctx)
	if err != nil {
		return HealthSnapshot{}, err
	}

	snapshot := HealthSnapshot{
		Pending:    counts[EntryPending],
		Processing: counts[EntryProcessing],
		Completed:  counts[EntryCompleted],
		Failed:     counts[EntryFailed],
		CheckedAt:  time.Now().UTC(),
	}
	if finished := snapshot.Completed + snapshot.Failed; finished > 0 {
		snapshot.FailureRate = float64(snapshot.Failed) / float64(finished)
	}

	stuck, err := m.Repo.StuckProcessing(ctx, m.StuckThreshold)
	if err != nil {
		return HealthSnapshot{}, err
	}
	snapshot.StuckEntries = stuck

	oldest, err := m.Repo.OldestPendingSince(ctx)
	if err != nil {
		return HealthSnapshot{}, err
	}
	if oldest != nil {
		age := snapshot.CheckedAt.Sub(*oldest).Seconds()
		if age < 0 {
			age = 0
		}
		snapshot.OldestPendingAge = &age
	}
	return snapshot, nil
}
