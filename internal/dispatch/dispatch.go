package dispatch

import (
	"context"
	"errors"
	"strings"
	"time"

	"applyflow-backend/internal/applications"
	"applyflow-backend/internal/notifications"
	"applyflow-backend/internal/resumes"
	"applyflow-backend/internal/shared/metrics"
	"applyflow-backend/internal/shared/telemetry"
	"applyflow-backend/internal/shared/util"
)

// ErrNoTargetEmail indicates dispatch was attempted without a discovered or
// edited recipient address.
var ErrNoTargetEmail = errors.New("no target email for dispatch")

// ErrNoContent indicates dispatch was attempted before content generation.
var ErrNoContent = errors.New("no generated content for dispatch")

// Dispatcher hands finished applications to the notification collaborator and
// drives the terminal status transitions around the handoff.
type Dispatcher struct {
	Apps     *applications.Service
	Notifier notifications.Notifier
	Resumes  resumes.Repo
	URLs     resumes.URLProvider
}

// Dispatch sends the application email. From generating_content it first
// records submitted; from approved it goes straight to successful on success.
// A send failure leaves the caller to record the failed status.
func (d *Dispatcher) Dispatch(ctx context.Context, app *applications.Application, priority int) error {
	if app.TargetEmail == nil || strings.TrimSpace(*app.TargetEmail) == "" {
		return ErrNoTargetEmail
	}
	if app.EmailSubject == nil || app.EmailBody == nil {
		return ErrNoContent
	}

	if app.Status == applications.StatusGeneratingContent {
		if err := d.Apps.Transition(ctx, app, applications.StatusSubmitted, nil); err != nil {
			return err
		}
	}

	msg := notifications.Message{
		ApplicationID: app.ID,
		To:            *app.TargetEmail,
		Subject:       *app.EmailSubject,
		Body:          *app.EmailBody,
		AttachmentURL: d.attachmentURL(ctx, app),
		Priority:      priority,
		EnqueuedAt:    time.Now().UTC().Format(time.RFC3339),
	}
	if err := d.Notifier.Send(ctx, msg); err != nil {
		return err
	}
	metrics.IncDispatchSent()

	if err := d.Apps.Transition(ctx, app, applications.StatusSuccessful, nil); err != nil {
		return err
	}
	telemetry.Info("application.dispatched", map[string]any{
		"application_id": app.ID,
		"to_hash":        util.HashKey(msg.To),
		"priority":       priority,
	})
	return nil
}

// attachmentURL resolves the client's latest resume into a fetchable URL.
// Best-effort: a missing resume produces an email without attachment.
func (d *Dispatcher) attachmentURL(ctx context.Context, app *applications.Application) string {
	if d.Resumes == nil || d.URLs == nil {
		return ""
	}
	resume, err := d.Resumes.LatestForClient(ctx, app.ClientID)
	if err != nil {
		return ""
	}
	url, err := d.URLs.ResolveURL(ctx, resume)
	if err != nil {
		telemetry.Warn("dispatch.resume_url_failed", map[string]any{
			"application_id": app.ID,
			"resume_id":      resume.ID,
			"error":          err.Error(),
		})
		return ""
	}
	return url
}
