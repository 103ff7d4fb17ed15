package clients

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"
)

// ErrNotFound indicates the client does not exist.
var ErrNotFound = errors.New("client not found")

// Client is the identity forwarded to the external worker. Client management
// itself belongs to the dashboard; the pipeline only reads.
type Client struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// Repo reads client identities.
type Repo interface {
	GetByID(ctx context.Context, id string) (Client, error)
}

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// GetByID returns a client by ID.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Client, error) {
	const query = `SELECT id, name, email, created_at FROM clients WHERE id = $1 LIMIT 1`
	var client Client
	err := r.DB.QueryRowContext(ctx, query, id).Scan(&client.ID, &client.Name, &client.Email, &client.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Client{}, ErrNotFound
		}
		return Client{}, err
	}
	return client, nil
}

// MemoryRepo stores clients in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu   sync.RWMutex
	byID map[string]Client
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[string]Client)}
}

// Put stores a client.
func (r *MemoryRepo) Put(client Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[client.ID] = client
}

// GetByID returns a client by ID.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Client, error) {
	if err := ctx.Err(); err != nil {
		return Client{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	client, ok := r.byID[id]
	if !ok {
		return Client{}, ErrNotFound
	}
	return client, nil
}

var (
	_ Repo = (*PGRepo)(nil)
	_ Repo = (*MemoryRepo)(nil)
)
