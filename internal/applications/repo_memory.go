package applications

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo stores applications in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu   sync.RWMutex
	byID map[string]Application
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[string]Application)}
}

// Create stores the application.
func (r *MemoryRepo) Create(ctx context.Context, app Application) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[app.ID] = app
	return nil
}

// GetByID returns an application by its ID.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Application, error) {
	if err := ctx.Err(); err != nil {
		return Application{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	app, ok := r.byID[id]
	if !ok {
		return Application{}, ErrNotFound
	}
	return app, nil
}

// FindByClientAndJob returns the newest application for a (client, job) pair.
func (r *MemoryRepo) FindByClientAndJob(ctx context.Context, clientID, jobExternalID string) (Application, error) {
	if err := ctx.Err(); err != nil {
		return Application{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var found *Application
	for _, app := range r.byID {
		if app.ClientID != clientID || app.Job.ExternalID != jobExternalID {
			continue
		}
		if found == nil || app.CreatedAt.After(found.CreatedAt) {
			copied := app
			found = &copied
		}
	}
	if found == nil {
		return Application{}, ErrNotFound
	}
	return *found, nil
}

// List returns applications ordered newest-first.
func (r *MemoryRepo) List(ctx context.Context, limit, offset int) ([]Application, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	apps := make([]Application, 0, len(r.byID))
	for _, app := range r.byID {
		apps = append(apps, app)
	}
	sort.Slice(apps, func(i, j int) bool { return apps[i].CreatedAt.After(apps[j].CreatedAt) })
	if offset >= len(apps) {
		return nil, nil
	}
	apps = apps[offset:]
	if limit > 0 && limit < len(apps) {
		apps = apps[:limit]
	}
	return apps, nil
}

// UpdateStatus performs a compare-and-set status transition.
func (r *MemoryRepo) UpdateStatus(ctx context.Context, id string, from, to Status, errorMessage *string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	if app.Status != from {
		return ErrStaleStatus
	}
	app.Status = to
	app.Progress = to.Progress()
	app.ErrorMessage = errorMessage
	app.UpdatedAt = time.Now().UTC()
	r.byID[id] = app
	return nil
}

// MergeDiscovery records discovery output; blank values never clear stored ones.
func (r *MemoryRepo) MergeDiscovery(ctx context.Context, id string, result DiscoveryResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	if result.PrimaryEmail != nil && *result.PrimaryEmail != "" {
		email := *result.PrimaryEmail
		app.TargetEmail = &email
	}
	if result.ConfidenceScore != nil {
		score := *result.ConfidenceScore
		app.EmailConfidenceScore = &score
	}
	if result.AlternativeEmails != nil {
		app.AlternativeEmails = append([]string(nil), result.AlternativeEmails...)
	}
	app.UpdatedAt = time.Now().UTC()
	r.byID[id] = app
	return nil
}

// SetContent persists generated content.
func (r *MemoryRepo) SetContent(ctx context.Context, id string, content GeneratedContent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	subject := content.EmailSubject
	body := content.EmailBody
	app.EmailSubject = &subject
	app.EmailBody = &body
	if content.ResumeContent != "" {
		resume := content.ResumeContent
		app.ResumeContent = &resume
	}
	app.UpdatedAt = time.Now().UTC()
	r.byID[id] = app
	return nil
}

// ApplyEdits merges reviewer edits into the application.
func (r *MemoryRepo) ApplyEdits(ctx context.Context, id string, edits ContentEdits) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	if edits.TargetEmail != nil {
		v := *edits.TargetEmail
		app.TargetEmail = &v
	}
	if edits.EmailSubject != nil {
		v := *edits.EmailSubject
		app.EmailSubject = &v
	}
	if edits.EmailBody != nil {
		v := *edits.EmailBody
		app.EmailBody = &v
	}
	if edits.ResumeContent != nil {
		v := *edits.ResumeContent
		app.ResumeContent = &v
	}
	if edits.Notes != nil {
		v := *edits.Notes
		app.Notes = &v
	}
	app.UpdatedAt = time.Now().UTC()
	r.byID[id] = app
	return nil
}

// IncrementRetry counts one failed attempt.
func (r *MemoryRepo) IncrementRetry(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	app.RetryCount++
	app.UpdatedAt = time.Now().UTC()
	r.byID[id] = app
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
