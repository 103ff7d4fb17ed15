package bridge

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"applyflow-backend/internal/applications"
	"applyflow-backend/internal/shared/telemetry"
)

// ErrInvalidPayload indicates a callback the worker should fix, not retry.
var ErrInvalidPayload = errors.New("invalid callback payload")

// CallbackService applies worker callbacks to applications. Handling is
// idempotent: duplicate deliveries re-merge the same fields and skip the
// status transition.
type CallbackService struct {
	Apps *applications.Service
	Repo applications.Repo
}

// Handle records the callback result.
func (s *CallbackService) Handle(ctx context.Context, payload CallbackPayload) error {
	switch payload.Status {
	case CallbackSuccess:
		return s.handleSuccess(ctx, payload)
	case CallbackError:
		return s.handleError(ctx, payload)
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidPayload, payload.Status)
	}
}

func (s *CallbackService) handleSuccess(ctx context.Context, payload CallbackPayload) error {
	if strings.TrimSpace(payload.ApplicationID) == "" {
		return fmt.Errorf("%w: success callback without application_id", ErrInvalidPayload)
	}
	if payload.Content == nil || strings.TrimSpace(payload.Content.EmailSubject) == "" || strings.TrimSpace(payload.Content.EmailBody) == "" {
		return fmt.Errorf("%w: success callback without content", ErrInvalidPayload)
	}

	app, err := s.Apps.Get(ctx, payload.ApplicationID)
	if err != nil {
		return err
	}
	if app.Status.Terminal() {
		// Late or duplicate delivery after the application finished.
		return nil
	}

	if err := s.Repo.SetContent(ctx, app.ID, applications.GeneratedContent{
		EmailSubject:  payload.Content.EmailSubject,
		EmailBody:     payload.Content.EmailBody,
		ResumeContent: payload.Content.ResumeContent,
	}); err != nil {
		return err
	}

	if payload.Discovery != nil {
		if err := s.Repo.MergeDiscovery(ctx, app.ID, applications.DiscoveryResult{
			PrimaryEmail:      payload.Discovery.PrimaryEmail,
			ConfidenceScore:   payload.Discovery.ConfidenceScore,
			AlternativeEmails: payload.Discovery.AlternativeEmails,
		}); err != nil {
			return err
		}
	}

	// Externally sourced content is always reviewed by a human before
	// dispatch, regardless of the original wait_for_approval flag.
	switch {
	case app.Status == applications.StatusAwaitingApproval:
		return nil
	case app.Status.CanTransition(applications.StatusAwaitingApproval):
		return s.Apps.Transition(ctx, &app, applications.StatusAwaitingApproval, nil)
	default:
		return fmt.Errorf("callback for application %s in unexpected status %s", app.ID, app.Status)
	}
}

func (s *CallbackService) handleError(ctx context.Context, payload CallbackPayload) error {
	if strings.TrimSpace(payload.ApplicationID) == "" {
		// Nothing to attribute the failure to.
		telemetry.Warn("bridge.callback_error_unattributed", map[string]any{
			"error_code":    payload.ErrorCode,
			"error_message": payload.ErrorMessage,
		})
		return nil
	}

	app, err := s.Apps.Get(ctx, payload.ApplicationID)
	if err != nil {
		return err
	}
	if app.Status.Terminal() {
		return nil
	}
	return s.Apps.Fail(ctx, &app, errors.New(payload.FormatError()))
}
