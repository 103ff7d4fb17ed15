package queue

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const entryColumns = `id, application_id, priority, status, scheduled_at, started_at, completed_at, error_message, created_at`

// Insert stores a new queue entry.
func (r *PGRepo) Insert(ctx context.Context, entry Entry) error {
	const query = `
INSERT INTO application_queue (id, application_id, priority, status, scheduled_at, started_at, completed_at, error_message, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.DB.ExecContext(ctx, query,
		entry.ID,
		entry.ApplicationID,
		entry.Priority,
		entry.Status,
		entry.ScheduledAt,
		entry.StartedAt,
		entry.CompletedAt,
		entry.ErrorMessage,
		entry.CreatedAt,
	)
	return err
}

// GetByID returns a queue entry by ID.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM application_queue WHERE id = $1 LIMIT 1`
	return scanEntry(r.DB.QueryRowContext(ctx, query, id))
}

// ClaimNext atomically claims the best pending entry. The conditional update
// with FOR UPDATE SKIP LOCKED keeps concurrent claimers (the poll loop and the
// immediate submission trigger, or multiple worker processes) from taking the
// same row.
func (r *PGRepo) ClaimNext(ctx context.Context) (Entry, error) {
	const query = `
UPDATE application_queue
SET status = 'processing', started_at = $1
WHERE id = (
	SELECT aq.id
	FROM application_queue aq
	JOIN applications a ON a.id = aq.application_id
	WHERE aq.status = 'pending'
	  AND aq.scheduled_at <= $1
	  AND a.status IN ('queued', 'processing', 'email_discovery', 'generating_content')
	ORDER BY aq.priority DESC, aq.scheduled_at ASC
	LIMIT 1
	FOR UPDATE OF aq SKIP LOCKED
)
RETURNING ` + entryColumns
	entry, err := scanEntry(r.DB.QueryRowContext(ctx, query, time.Now().UTC()))
	if errors.Is(err, ErrEntryNotFound) {
		return Entry{}, ErrNoPending
	}
	return entry, err
}

// MarkCompleted finishes an entry successfully.
func (r *PGRepo) MarkCompleted(ctx context.Context, id string) error {
	const query = `
UPDATE application_queue
SET status = 'completed', completed_at = $2, error_message = NULL
WHERE id = $1`
	return r.exec(ctx, query, id, time.Now().UTC())
}

// MarkFailed finishes an entry with an error message.
func (r *PGRepo) MarkFailed(ctx context.Context, id string, errorMessage string) error {
	const query = `
UPDATE application_queue
SET status = 'failed', completed_at = $2, error_message = $3
WHERE id = $1`
	return r.exec(ctx, query, id, time.Now().UTC(), errorMessage)
}

// ListRetryable returns failed entries whose application has retry budget left.
func (r *PGRepo) ListRetryable(ctx context.Context) ([]Entry, error) {
	query := `
SELECT ` + qualifiedEntryColumns("aq") + `
FROM application_queue aq
JOIN applications a ON a.id = aq.application_id
WHERE aq.status = 'failed' AND a.retry_count < a.max_retries
ORDER BY aq.scheduled_at ASC`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// ResetToPending clears timestamps and the error and re-schedules the entry.
func (r *PGRepo) ResetToPending(ctx context.Context, id string) error {
	const query = `
UPDATE application_queue
SET status = 'pending', scheduled_at = $2, started_at = NULL, completed_at = NULL, error_message = NULL
WHERE id = $1`
	return r.exec(ctx, query, id, time.Now().UTC())
}

// CountByStatus returns entry counts grouped by status.
func (r *PGRepo) CountByStatus(ctx context.Context) (map[EntryStatus]int, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT status, COUNT(*) FROM application_queue GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[EntryStatus]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[EntryStatus(status)] = count
	}
	return counts, rows.Err()
}

// StuckProcessing returns entries processing for longer than threshold.
func (r *PGRepo) StuckProcessing(ctx context.Context, threshold time.Duration) ([]Entry, error) {
	query := `
SELECT ` + entryColumns + `
FROM application_queue
WHERE status = 'processing' AND started_at IS NOT NULL AND started_at < $1
ORDER BY started_at ASC`
	rows, err := r.DB.QueryContext(ctx, query, time.Now().UTC().Add(-threshold))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// OldestPendingSince returns the scheduled time of the oldest pending entry.
func (r *PGRepo) OldestPendingSince(ctx context.Context) (*time.Time, error) {
	var scheduledAt sql.NullTime
	err := r.DB.QueryRowContext(ctx, `SELECT MIN(scheduled_at) FROM application_queue WHERE status = 'pending'`).Scan(&scheduledAt)
	if err != nil {
		return nil, err
	}
	if !scheduledAt.Valid {
		return nil, nil
	}
	return &scheduledAt.Time, nil
}

// DeleteCompletedBefore purges completed entries older than cutoff.
func (r *PGRepo) DeleteCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM application_queue WHERE status = 'completed' AND completed_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *PGRepo) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrEntryNotFound
	}
	return nil
}

func qualifiedEntryColumns(alias string) string {
	return alias + ".id, " + alias + ".application_id, " + alias + ".priority, " + alias + ".status, " +
		alias + ".scheduled_at, " + alias + ".started_at, " + alias + ".completed_at, " +
		alias + ".error_message, " + alias + ".created_at"
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (Entry, error) {
	var entry Entry
	var startedAt sql.NullTime
	var completedAt sql.NullTime
	var errorMessage sql.NullString
	err := row.Scan(
		&entry.ID,
		&entry.ApplicationID,
		&entry.Priority,
		&entry.Status,
		&entry.ScheduledAt,
		&startedAt,
		&completedAt,
		&errorMessage,
		&entry.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, ErrEntryNotFound
		}
		return Entry{}, err
	}
	if startedAt.Valid {
		entry.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		entry.CompletedAt = &completedAt.Time
	}
	if errorMessage.Valid {
		entry.ErrorMessage = &errorMessage.String
	}
	return entry, nil
}

var _ Repo = (*PGRepo)(nil)
