package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"applyflow-backend/internal/applications"
	"applyflow-backend/internal/bridge"
	"applyflow-backend/internal/clients"
	"applyflow-backend/internal/discovery"
	"applyflow-backend/internal/dispatch"
	"applyflow-backend/internal/generation"
	"applyflow-backend/internal/queue"
	"applyflow-backend/internal/resumes"
	"applyflow-backend/internal/shared/telemetry"
	"applyflow-backend/internal/shared/util"
)

// Executor drives one application through the pipeline stages. When a bridge
// client is configured and the job is AI-applicable, discovery and generation
// are delegated to the external worker and the run suspends until its
// callback; otherwise the in-process fallback executors complete the run.
type Executor struct {
	Apps       *applications.Service
	Repo       applications.Repo
	Clients    clients.Repo
	Resumes    resumes.Repo
	URLs       resumes.URLProvider
	Discoverer discovery.Discoverer
	Generator  generation.Generator
	Bridge     *bridge.Client
	Dispatcher *dispatch.Dispatcher

	// HTTPClient fetches resume bytes for payload text extraction.
	HTTPClient *http.Client
}

// Run executes the pipeline for a claimed application. Returning
// queue.ErrSuspended means the entry is done but the application waits on an
// external completion (worker callback or human approval).
func (e *Executor) Run(ctx context.Context, app *applications.Application) error {
	if app.Status == applications.StatusQueued {
		if err := e.Apps.Transition(ctx, app, applications.StatusProcessing, nil); err != nil {
			return err
		}
	}

	if e.useBridge(app) {
		return e.runDelegated(ctx, app)
	}
	return e.runLocal(ctx, app)
}

// useBridge reports whether this application should be delegated. Jobs the
// classification collaborator marked as not AI-applicable stay on the
// in-process path.
func (e *Executor) useBridge(app *applications.Application) bool {
	if e.Bridge == nil {
		return false
	}
	if app.AIApplicable != nil && !*app.AIApplicable {
		return false
	}
	return true
}

func (e *Executor) runDelegated(ctx context.Context, app *applications.Application) error {
	payload, err := e.buildForwardPayload(ctx, app)
	if err != nil {
		return err
	}

	if app.Status == applications.StatusProcessing {
		if err := e.Apps.Transition(ctx, app, applications.StatusEmailDiscovery, nil); err != nil {
			return err
		}
	}
	if app.Status == applications.StatusEmailDiscovery {
		if err := e.Apps.Transition(ctx, app, applications.StatusGeneratingContent, nil); err != nil {
			return err
		}
	}

	if err := e.Bridge.Forward(ctx, payload); err != nil {
		return fmt.Errorf("bridge forward: %w", err)
	}
	telemetry.Info("pipeline.delegated", map[string]any{
		"application_id": app.ID,
		"client_id":      app.ClientID,
	})
	return queue.ErrSuspended
}

func (e *Executor) runLocal(ctx context.Context, app *applications.Application) error {
	if app.Status == applications.StatusProcessing {
		result, err := e.Discoverer.Discover(ctx, *app)
		if err != nil {
			return fmt.Errorf("email discovery: %w", err)
		}
		if err := e.Repo.MergeDiscovery(ctx, app.ID, result); err != nil {
			return fmt.Errorf("persist discovery: %w", err)
		}
		if err := e.reload(ctx, app); err != nil {
			return err
		}
		if err := e.Apps.Transition(ctx, app, applications.StatusEmailDiscovery, nil); err != nil {
			return err
		}
	}

	if app.Status == applications.StatusEmailDiscovery {
		client, err := e.Clients.GetByID(ctx, app.ClientID)
		if err != nil {
			return fmt.Errorf("client lookup: %w", err)
		}
		content, err := e.Generator.Generate(ctx, generation.Input{
			App:        *app,
			ClientName: client.Name,
			ResumeText: e.resumeText(ctx, app),
		})
		if err != nil {
			return fmt.Errorf("content generation: %w", err)
		}
		if err := e.Repo.SetContent(ctx, app.ID, content); err != nil {
			return fmt.Errorf("persist content: %w", err)
		}
		if err := e.reload(ctx, app); err != nil {
			return err
		}
		if err := e.Apps.Transition(ctx, app, applications.StatusGeneratingContent, nil); err != nil {
			return err
		}
	}

	if app.Status != applications.StatusGeneratingContent {
		return fmt.Errorf("pipeline cannot continue from status %s", app.Status)
	}

	if app.WaitForApproval {
		if err := e.Apps.Transition(ctx, app, applications.StatusAwaitingApproval, nil); err != nil {
			return err
		}
		return queue.ErrSuspended
	}

	if err := e.Dispatcher.Dispatch(ctx, app, 0); err != nil {
		return fmt.Errorf("dispatch: %w", err)
	}
	return nil
}

// buildForwardPayload assembles the bridge handoff: client identity, resume
// reference with a fetchable URL and best-effort extracted text, job fields,
// the approval flag, and notes.
func (e *Executor) buildForwardPayload(ctx context.Context, app *applications.Application) (bridge.ForwardPayload, error) {
	client, err := e.Clients.GetByID(ctx, app.ClientID)
	if err != nil {
		return bridge.ForwardPayload{}, fmt.Errorf("client lookup: %w", err)
	}

	payload := bridge.ForwardPayload{
		ApplicationID: app.ID,
		Client: bridge.ClientPayload{
			ID:    client.ID,
			Name:  client.Name,
			Email: client.Email,
		},
		Job: bridge.JobPayload{
			ExternalID:     app.Job.ExternalID,
			Title:          app.Job.Title,
			Company:        app.Job.Company,
			CompanyWebsite: app.Job.CompanyWebsite,
		},
		WaitForApproval: app.WaitForApproval,
	}
	if app.Notes != nil {
		payload.Notes = *app.Notes
	}

	resume, err := e.Resumes.LatestForClient(ctx, app.ClientID)
	if err != nil {
		return bridge.ForwardPayload{}, fmt.Errorf("resume lookup: %w", err)
	}
	url, err := e.URLs.ResolveURL(ctx, resume)
	if err != nil {
		return bridge.ForwardPayload{}, fmt.Errorf("resume url: %w", err)
	}
	name, err := util.SanitizeFileName(resume.Name)
	if err != nil {
		name = "resume.pdf"
	}
	payload.Resume = bridge.ResumePayload{
		ID:   resume.ID,
		URL:  url,
		Name: name,
	}
	if text, err := resumes.FetchText(ctx, e.httpClient(), url); err == nil {
		payload.Resume.Text = text
	} else {
		telemetry.Warn("pipeline.resume_text_failed", map[string]any{
			"application_id": app.ID,
			"resume_id":      resume.ID,
			"error":          err.Error(),
		})
	}
	return payload, nil
}

// resumeText extracts text for the local generator, best-effort.
func (e *Executor) resumeText(ctx context.Context, app *applications.Application) string {
	resume, err := e.Resumes.LatestForClient(ctx, app.ClientID)
	if err != nil {
		return ""
	}
	url, err := e.URLs.ResolveURL(ctx, resume)
	if err != nil {
		return ""
	}
	text, err := resumes.FetchText(ctx, e.httpClient(), url)
	if err != nil {
		return ""
	}
	return text
}

func (e *Executor) httpClient() *http.Client {
	if e.HTTPClient != nil {
		return e.HTTPClient
	}
	return &http.Client{Timeout: 20 * time.Second}
}

// reload refreshes the in-memory application after a merge-style persist so
// later stages see the stored fields.
func (e *Executor) reload(ctx context.Context, app *applications.Application) error {
	fresh, err := e.Apps.Get(ctx, app.ID)
	if err != nil {
		return err
	}
	*app = fresh
	return nil
}

var _ queue.Runner = (*Executor)(nil)
