package applications

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"applyflow-backend/internal/shared/telemetry"
)

// Classification is the external scoring collaborator's verdict on a job.
type Classification struct {
	AIApplicable bool
	MatchScore   float64
}

// Classifier scores a job listing's suitability for automated application.
// The pipeline consumes the score; it never computes one.
type Classifier interface {
	Classify(ctx context.Context, job Job) (Classification, error)
}

// Enqueuer inserts a queue entry for an application and can signal the
// processor that work is available.
type Enqueuer interface {
	Enqueue(ctx context.Context, applicationID string, priority int) error
	Kick()
}

// SubmitInput carries one submission request.
type SubmitInput struct {
	ClientID        string
	Job             Job
	WaitForApproval bool
	Notes           string
	Priority        int
}

// Service contains business logic for applications.
type Service struct {
	Repo       Repo
	Queue      Enqueuer
	Classifier Classifier
	MaxRetries int
}

// Submit runs the duplicate guard, creates the application and its queue
// entry, and triggers an immediate processing attempt when no approval hold
// was requested.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (Application, error) {
	if strings.TrimSpace(in.ClientID) == "" || strings.TrimSpace(in.Job.ExternalID) == "" {
		return Application{}, errors.New("clientID and job externalID are required")
	}
	if s.Repo == nil || s.Queue == nil {
		return Application{}, errors.New("missing dependencies")
	}

	if _, err := s.Repo.FindByClientAndJob(ctx, in.ClientID, in.Job.ExternalID); err == nil {
		return Application{}, ErrDuplicate
	} else if !errors.Is(err, ErrNotFound) {
		return Application{}, err
	}

	maxRetries := s.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	now := time.Now().UTC()
	app := Application{
		ID:              uuid.NewString(),
		ClientID:        in.ClientID,
		Job:             in.Job,
		Status:          StatusQueued,
		Progress:        0,
		WaitForApproval: in.WaitForApproval,
		MaxRetries:      maxRetries,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if notes := strings.TrimSpace(in.Notes); notes != "" {
		app.Notes = &notes
	}

	if s.Classifier != nil {
		// Classification is advisory; a collaborator outage never blocks intake.
		if verdict, err := s.Classifier.Classify(ctx, in.Job); err == nil {
			app.AIApplicable = &verdict.AIApplicable
			app.MatchScore = &verdict.MatchScore
		} else {
			telemetry.Warn("application.classify_failed", map[string]any{
				"client_id":       in.ClientID,
				"job_external_id": in.Job.ExternalID,
				"error":           err.Error(),
			})
		}
	}

	if err := s.Repo.Create(ctx, app); err != nil {
		return Application{}, err
	}
	if err := s.Queue.Enqueue(ctx, app.ID, in.Priority); err != nil {
		return Application{}, err
	}

	telemetry.Info("application.submitted", map[string]any{
		"application_id":    app.ID,
		"client_id":         app.ClientID,
		"job_external_id":   app.Job.ExternalID,
		"wait_for_approval": app.WaitForApproval,
	})

	if !in.WaitForApproval {
		// Redundant with the poll on purpose; the processor drains at most one
		// signal per available entry, and claiming is conditional, so the two
		// triggers cannot double-execute.
		s.Queue.Kick()
	}
	return app, nil
}

// Get returns an application by ID.
func (s *Service) Get(ctx context.Context, id string) (Application, error) {
	if strings.TrimSpace(id) == "" {
		return Application{}, errors.New("application id is required")
	}
	return s.Repo.GetByID(ctx, id)
}

// List returns applications ordered newest-first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Application, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.Repo.List(ctx, limit, offset)
}

// Transition validates and persists a status change, keeping the in-memory
// copy in sync on success.
func (s *Service) Transition(ctx context.Context, app *Application, to Status, errorMessage *string) error {
	if app == nil {
		return errors.New("application is required")
	}
	if !app.Status.CanTransition(to) {
		return InvalidTransitionError{From: app.Status, To: to}
	}
	from := app.Status
	if err := s.Repo.UpdateStatus(ctx, app.ID, from, to, errorMessage); err != nil {
		return err
	}
	app.Status = to
	app.Progress = to.Progress()
	app.ErrorMessage = errorMessage
	telemetry.Info("application.status", map[string]any{
		"application_id":    app.ID,
		"status":            string(to),
		"status_transition": string(from) + "->" + string(to),
		"progress":          app.Progress,
	})
	return nil
}

// Fail moves the application to failed, records the cause, and counts the
// attempt against the retry budget.
func (s *Service) Fail(ctx context.Context, app *Application, cause error) error {
	msg := "unknown failure"
	if cause != nil {
		msg = cause.Error()
	}
	if err := s.Transition(ctx, app, StatusFailed, &msg); err != nil {
		return err
	}
	if err := s.Repo.IncrementRetry(ctx, app.ID); err != nil {
		return err
	}
	app.RetryCount++
	return nil
}
