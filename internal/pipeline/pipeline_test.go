package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"applyflow-backend/internal/applications"
	"applyflow-backend/internal/bridge"
	"applyflow-backend/internal/clients"
	"applyflow-backend/internal/discovery"
	"applyflow-backend/internal/dispatch"
	"applyflow-backend/internal/generation"
	"applyflow-backend/internal/notifications"
	"applyflow-backend/internal/queue"
	"applyflow-backend/internal/resumes"
)

type nopQueue struct{}

func (nopQueue) Enqueue(ctx context.Context, applicationID string, priority int) error { return nil }
func (nopQueue) Kick()                                                                {}

type pipelineFixture struct {
	executor *Executor
	apps     *applications.Service
	repo     *applications.MemoryRepo
	resumes  *resumes.MemoryRepo
	notifier *notifications.MemoryNotifier
}

func newPipelineFixture() *pipelineFixture {
	repo := applications.NewMemoryRepo()
	apps := &applications.Service{Repo: repo, Queue: nopQueue{}, MaxRetries: 3}
	clientRepo := clients.NewMemoryRepo()
	clientRepo.Put(clients.Client{ID: "client-1", Name: "Dana Reyes", Email: "dana@example.com"})
	resumeRepo := resumes.NewMemoryRepo()
	notifier := notifications.NewMemoryNotifier()

	executor := &Executor{
		Apps:       apps,
		Repo:       repo,
		Clients:    clientRepo,
		Resumes:    resumeRepo,
		URLs:       &resumes.StaticURLProvider{BaseURL: "http://localhost:9000/resumes"},
		Discoverer: discovery.PatternDiscoverer{},
		Generator:  generation.TemplateGenerator{},
		Dispatcher: &dispatch.Dispatcher{Apps: apps, Notifier: notifier},
	}
	return &pipelineFixture{
		executor: executor,
		apps:     apps,
		repo:     repo,
		resumes:  resumeRepo,
		notifier: notifier,
	}
}

func submitPipelineApp(t *testing.T, f *pipelineFixture, waitForApproval bool) applications.Application {
	t.Helper()
	app, err := f.apps.Submit(context.Background(), applications.SubmitInput{
		ClientID: "client-1",
		Job: applications.Job{
			ExternalID:     "job-1",
			Title:          "Backend Engineer",
			Company:        "Acme",
			CompanyWebsite: "https://www.acme.example",
		},
		WaitForApproval: waitForApproval,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	return app
}

func TestRunLocalCompletesWithoutApproval(t *testing.T) {
	f := newPipelineFixture()
	app := submitPipelineApp(t, f, false)

	if err := f.executor.Run(context.Background(), &app); err != nil {
		t.Fatalf("run: %v", err)
	}
	if app.Status != applications.StatusSuccessful {
		t.Fatalf("expected successful, got %s", app.Status)
	}
	if app.TargetEmail == nil || *app.TargetEmail != "careers@acme.example" {
		t.Fatalf("expected discovered target, got %v", app.TargetEmail)
	}

	sent := f.notifier.Sent()
	if len(sent) != 1 {
		t.Fatalf("expected one dispatched message, got %d", len(sent))
	}
	if sent[0].Subject != "Application for Backend Engineer at Acme" {
		t.Fatalf("unexpected subject %q", sent[0].Subject)
	}
}

func TestRunLocalSuspendsForApproval(t *testing.T) {
	f := newPipelineFixture()
	app := submitPipelineApp(t, f, true)

	err := f.executor.Run(context.Background(), &app)
	if !errors.Is(err, queue.ErrSuspended) {
		t.Fatalf("expected ErrSuspended, got %v", err)
	}
	if app.Status != applications.StatusAwaitingApproval {
		t.Fatalf("expected awaiting_approval, got %s", app.Status)
	}
	if app.EmailSubject == nil || app.EmailBody == nil {
		t.Fatalf("content must be generated before the approval gate")
	}
	if len(f.notifier.Sent()) != 0 {
		t.Fatalf("nothing may be dispatched before approval")
	}
}

func TestRunDelegatedForwardsAndSuspends(t *testing.T) {
	var received bridge.ForwardPayload
	var gotSecret string
	worker := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSecret = r.Header.Get("X-Bridge-Secret")
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer worker.Close()

	resumeSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("plain resume bytes"))
	}))
	defer resumeSrv.Close()

	f := newPipelineFixture()
	f.resumes.Put(resumes.Resume{ID: "res-1", ClientID: "client-1", Name: "dana.pdf", URL: resumeSrv.URL})

	client, err := bridge.NewClient(worker.URL, "bridge-secret")
	if err != nil {
		t.Fatalf("bridge client: %v", err)
	}
	f.executor.Bridge = client

	app := submitPipelineApp(t, f, false)
	runErr := f.executor.Run(context.Background(), &app)
	if !errors.Is(runErr, queue.ErrSuspended) {
		t.Fatalf("expected ErrSuspended, got %v", runErr)
	}
	if app.Status != applications.StatusGeneratingContent {
		t.Fatalf("delegated run must park at generating_content, got %s", app.Status)
	}

	if gotSecret != "bridge-secret" {
		t.Fatalf("expected bridge secret header, got %q", gotSecret)
	}
	if received.ApplicationID != app.ID {
		t.Fatalf("expected application %s in payload, got %s", app.ID, received.ApplicationID)
	}
	if received.Client.Name != "Dana Reyes" {
		t.Fatalf("unexpected client payload %+v", received.Client)
	}
	if received.Job.Title != "Backend Engineer" || received.Job.CompanyWebsite != "https://www.acme.example" {
		t.Fatalf("unexpected job payload %+v", received.Job)
	}
	if received.Resume.URL != resumeSrv.URL || received.Resume.Name != "dana.pdf" {
		t.Fatalf("unexpected resume payload %+v", received.Resume)
	}
	if len(f.notifier.Sent()) != 0 {
		t.Fatalf("delegated run must not dispatch")
	}
}

func TestRunDelegatedRequiresResume(t *testing.T) {
	worker := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer worker.Close()

	f := newPipelineFixture()
	client, err := bridge.NewClient(worker.URL, "")
	if err != nil {
		t.Fatalf("bridge client: %v", err)
	}
	f.executor.Bridge = client

	app := submitPipelineApp(t, f, false)
	runErr := f.executor.Run(context.Background(), &app)
	if runErr == nil || errors.Is(runErr, queue.ErrSuspended) {
		t.Fatalf("expected resume lookup failure, got %v", runErr)
	}
}

func TestRunSkipsBridgeWhenNotAIApplicable(t *testing.T) {
	// Unreachable endpoint: touching the bridge would fail the run.
	client, err := bridge.NewClient("http://127.0.0.1:1", "")
	if err != nil {
		t.Fatalf("bridge client: %v", err)
	}

	f := newPipelineFixture()
	f.executor.Bridge = client

	app := submitPipelineApp(t, f, false)
	notApplicable := false
	app.AIApplicable = &notApplicable

	if err := f.executor.Run(context.Background(), &app); err != nil {
		t.Fatalf("run: %v", err)
	}
	if app.Status != applications.StatusSuccessful {
		t.Fatalf("expected local completion, got %s", app.Status)
	}
}
