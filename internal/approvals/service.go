package approvals

import (
	"context"
	"errors"
	"strings"

	"applyflow-backend/internal/applications"
	"applyflow-backend/internal/dispatch"
	"applyflow-backend/internal/shared/telemetry"
)

// ErrReasonRequired indicates a rejection without a reason.
var ErrReasonRequired = errors.New("rejection reason is required")

// approvedDispatchPriority marks approved applications as human-waiting so
// the mail dispatcher sends them ahead of automatic traffic.
const approvedDispatchPriority = 1

// Service is the human checkpoint between content generation and dispatch.
type Service struct {
	Apps       *applications.Service
	Repo       applications.Repo
	Dispatcher *dispatch.Dispatcher
}

// Approve merges optional edits into the application, records approval, and
// immediately attempts dispatch. Dispatch failure marks the application
// failed with the cause; there is no silent retry. Approving an application
// that is not awaiting approval fails with an invalid-transition error, so
// re-approving an already-successful application errors rather than no-ops.
func (s *Service) Approve(ctx context.Context, id string, edits applications.ContentEdits) (applications.Application, error) {
	app, err := s.Apps.Get(ctx, id)
	if err != nil {
		return applications.Application{}, err
	}
	if app.Status != applications.StatusAwaitingApproval {
		return app, applications.InvalidTransitionError{From: app.Status, To: applications.StatusApproved}
	}

	if !edits.Empty() {
		// Edits are persisted before any dispatch attempt so the outgoing
		// email always reflects what the reviewer saw and changed.
		if err := s.Repo.ApplyEdits(ctx, app.ID, edits); err != nil {
			return app, err
		}
		app, err = s.Apps.Get(ctx, id)
		if err != nil {
			return applications.Application{}, err
		}
	}

	if err := s.Apps.Transition(ctx, &app, applications.StatusApproved, nil); err != nil {
		return app, err
	}

	if err := s.Dispatcher.Dispatch(ctx, &app, approvedDispatchPriority); err != nil {
		if failErr := s.Apps.Fail(ctx, &app, err); failErr != nil {
			telemetry.Error("approval.fail_record_error", map[string]any{
				"application_id": app.ID,
				"error":          failErr.Error(),
			})
		}
		return app, err
	}
	return app, nil
}

// Reject marks the application failed with the reviewer's reason stored
// verbatim. No dispatch is attempted and the attempt is not counted against
// the retry budget; rejection is a human decision, not a stage failure.
func (s *Service) Reject(ctx context.Context, id, reason string) (applications.Application, error) {
	if strings.TrimSpace(reason) == "" {
		return applications.Application{}, ErrReasonRequired
	}
	app, err := s.Apps.Get(ctx, id)
	if err != nil {
		return applications.Application{}, err
	}
	if app.Status != applications.StatusAwaitingApproval {
		return app, applications.InvalidTransitionError{From: app.Status, To: applications.StatusFailed}
	}

	if err := s.Apps.Transition(ctx, &app, applications.StatusFailed, &reason); err != nil {
		return app, err
	}
	telemetry.Info("application.rejected", map[string]any{
		"application_id": app.ID,
		"reason":         reason,
	})
	return app, nil
}
