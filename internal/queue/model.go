package queue

import "time"

// EntryStatus represents the lifecycle of a queue entry.
type EntryStatus string

const (
	EntryPending    EntryStatus = "pending"
	EntryProcessing EntryStatus = "processing"
	EntryCompleted  EntryStatus = "completed"
	EntryFailed     EntryStatus = "failed"
)

// Entry is one scheduling record pointing at an application. Entries are
// operational and disposable; purging completed ones never touches the
// application.
type Entry struct {
	ID            string      `json:"id"`
	ApplicationID string      `json:"applicationId"`
	Priority      int         `json:"priority"`
	Status        EntryStatus `json:"status"`
	ScheduledAt   time.Time   `json:"scheduledAt"`
	StartedAt     *time.Time  `json:"startedAt,omitempty"`
	CompletedAt   *time.Time  `json:"completedAt,omitempty"`
	ErrorMessage  *string     `json:"errorMessage,omitempty"`
	CreatedAt     time.Time   `json:"createdAt"`
}

// HealthSnapshot aggregates queue state for the monitor. It is advisory and
// never mutates individual records.
type HealthSnapshot struct {
	Pending          int        `json:"pending"`
	Processing       int        `json:"processing"`
	Completed        int        `json:"completed"`
	Failed           int        `json:"failed"`
	FailureRate      float64    `json:"failureRate"`
	StuckEntries     []Entry    `json:"stuckEntries,omitempty"`
	OldestPendingAge *float64   `json:"oldestPendingAgeSeconds,omitempty"`
	CheckedAt        time.Time  `json:"checkedAt"`
}
