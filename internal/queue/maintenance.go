package queue

import (
	"context"
	"time"

	"applyflow-backend/internal/applications"
	"applyflow-backend/internal/shared/telemetry"
)

// Maintenance performs the retry and cleanup operations that are separate
// from normal claim-and-process flow.
type Maintenance struct {
	Repo Repo
	Apps *applications.Service
}

// RetryFailed resets failed queue entries back to pending for applications
// that still have retry budget, and re-queues the application itself. It does
// not increment retry_count; that already happened when the failure was
// recorded.
func (m *Maintenance) RetryFailed(ctx context.Context) (int, error) {
	entries, err := m.Repo.ListRetryable(ctx)
	if err != nil {
		return 0, err
	}

	reset := 0
	for _, entry := range entries {
		app, err := m.Apps.Get(ctx, entry.ApplicationID)
		if err != nil {
			telemetry.Warn("queue.retry_lookup_failed", map[string]any{
				"application_id": entry.ApplicationID,
				"error":          err.Error(),
			})
			continue
		}
		if app.Status == applications.StatusFailed {
			if err := m.Apps.Transition(ctx, &app, applications.StatusQueued, nil); err != nil {
				telemetry.Warn("queue.retry_requeue_failed", map[string]any{
					"application_id": app.ID,
					"error":          err.Error(),
				})
				continue
			}
		}
		if err := m.Repo.ResetToPending(ctx, entry.ID); err != nil {
			telemetry.Warn("queue.retry_reset_failed", map[string]any{
				"queue_entry_id": entry.ID,
				"error":          err.Error(),
			})
			continue
		}
		reset++
	}

	if reset > 0 {
		telemetry.Info("queue.retry", map[string]any{"reset": reset})
	}
	return reset, nil
}

// Cleanup purges completed entries older than the retention window.
// Applications are never touched.
func (m *Maintenance) Cleanup(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention)
	return m.Repo.DeleteCompletedBefore(ctx, cutoff)
}
