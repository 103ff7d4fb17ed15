package applications

import "context"

// Repo persists applications.
//
// UpdateStatus is a conditional update: it only succeeds when the stored
// status still equals from, so racing writers cannot corrupt the state
// machine. Merge-style setters treat nil fields as "keep existing".
type Repo interface {
	Create(ctx context.Context, app Application) error
	GetByID(ctx context.Context, id string) (Application, error)
	// FindByClientAndJob returns ErrNotFound when no application exists for
	// the pair; anything else feeds the duplicate guard.
	FindByClientAndJob(ctx context.Context, clientID, jobExternalID string) (Application, error)
	List(ctx context.Context, limit, offset int) ([]Application, error)
	UpdateStatus(ctx context.Context, id string, from, to Status, errorMessage *string) error
	MergeDiscovery(ctx context.Context, id string, result DiscoveryResult) error
	SetContent(ctx context.Context, id string, content GeneratedContent) error
	ApplyEdits(ctx context.Context, id string, edits ContentEdits) error
	IncrementRetry(ctx context.Context, id string) error
}
