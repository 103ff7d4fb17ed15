package resumes

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"
)

// ErrNotFound indicates no resume exists for the client.
var ErrNotFound = errors.New("resume not found")

// Resume references a stored resume file. File storage is an external
// collaborator; the pipeline only needs a reference and a fetchable URL.
type Resume struct {
	ID         string    `json:"id"`
	ClientID   string    `json:"clientId"`
	Name       string    `json:"name"`
	StorageKey string    `json:"storageKey"`
	URL        string    `json:"url"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Repo reads resume references.
type Repo interface {
	LatestForClient(ctx context.Context, clientID string) (Resume, error)
}

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// LatestForClient returns the newest resume for a client.
func (r *PGRepo) LatestForClient(ctx context.Context, clientID string) (Resume, error) {
	const query = `
SELECT id, client_id, name, storage_key, url, created_at
FROM resumes
WHERE client_id = $1
ORDER BY created_at DESC
LIMIT 1`
	var resume Resume
	err := r.DB.QueryRowContext(ctx, query, clientID).Scan(
		&resume.ID, &resume.ClientID, &resume.Name, &resume.StorageKey, &resume.URL, &resume.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Resume{}, ErrNotFound
		}
		return Resume{}, err
	}
	return resume, nil
}

// MemoryRepo stores resumes in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu       sync.RWMutex
	byClient map[string][]Resume
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byClient: make(map[string][]Resume)}
}

// Put stores a resume.
func (r *MemoryRepo) Put(resume Resume) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byClient[resume.ClientID] = append(r.byClient[resume.ClientID], resume)
}

// LatestForClient returns the newest resume for a client.
func (r *MemoryRepo) LatestForClient(ctx context.Context, clientID string) (Resume, error) {
	if err := ctx.Err(); err != nil {
		return Resume{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored := r.byClient[clientID]
	if len(stored) == 0 {
		return Resume{}, ErrNotFound
	}
	latest := stored[0]
	for _, resume := range stored[1:] {
		if resume.CreatedAt.After(latest.CreatedAt) {
			latest = resume
		}
	}
	return latest, nil
}

var (
	_ Repo = (*PGRepo)(nil)
	_ Repo = (*MemoryRepo)(nil)
)
