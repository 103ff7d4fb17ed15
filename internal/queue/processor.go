package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"applyflow-backend/internal/applications"
	"applyflow-backend/internal/shared/metrics"
	"applyflow-backend/internal/shared/telemetry"
)

// ErrSuspended signals that the pipeline handed work to an external
// collaborator or a human reviewer; the queue entry is done even though the
// application is not terminal yet.
var ErrSuspended = errors.New("pipeline suspended awaiting external completion")

// Runner executes the pipeline stages for one claimed application.
type Runner interface {
	Run(ctx context.Context, app *applications.Application) error
}

const cleanupInterval = time.Hour

// Processor owns the polling loop that claims queue entries and drives them
// through the pipeline. One logical processor is assumed; claiming is atomic
// so extra instances degrade safely instead of double-executing.
type Processor struct {
	Repo             Repo
	Apps             *applications.Service
	Runner           Runner
	PollInterval     time.Duration
	CleanupRetention time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	wake    chan struct{}
}

// NewProcessor constructs a Processor.
func NewProcessor(repo Repo, apps *applications.Service, runner Runner, pollInterval, retention time.Duration) *Processor {
	if pollInterval <= 0 {
		pollInterval = 30 * time.Second
	}
	return &Processor{
		Repo:             repo,
		Apps:             apps,
		Runner:           runner,
		PollInterval:     pollInterval,
		CleanupRetention: retention,
		wake:             make(chan struct{}, 1),
	}
}

// Enqueue inserts a pending queue entry for the application.
func (p *Processor) Enqueue(ctx context.Context, applicationID string, priority int) error {
	now := time.Now().UTC()
	return p.Repo.Insert(ctx, Entry{
		ID:            uuid.NewString(),
		ApplicationID: applicationID,
		Priority:      priority,
		Status:        EntryPending,
		ScheduledAt:   now,
		CreatedAt:     now,
	})
}

// Kick signals the loop that work may be available. The buffered channel
// collapses bursts into a single wake-up, so the immediate submission trigger
// and the timer cannot stack redundant runs.
func (p *Processor) Kick() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Start begins the background loop. Starting an already-running processor is
// an error.
func (p *Processor) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return errors.New("queue processor already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.running = true
	p.wg.Add(1)
	go p.loop(runCtx)
	return nil
}

// Stop terminates the loop and waits for the in-flight entry to finish.
func (p *Processor) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	cancel := p.cancel
	p.running = false
	p.cancel = nil
	p.mu.Unlock()

	cancel()
	p.wg.Wait()
}

// Running reports whether the loop is active.
func (p *Processor) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Processor) loop(ctx context.Context) {
	defer p.wg.Done()

	poll := time.NewTicker(p.PollInterval)
	defer poll.Stop()
	cleanup := time.NewTicker(cleanupInterval)
	defer cleanup.Stop()

	// Drain whatever is already queued before the first tick.
	p.drain(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-poll.C:
			p.drain(ctx)
		case <-p.wake:
			p.drain(ctx)
		case <-cleanup.C:
			p.runCleanup(ctx)
		}
	}
}

// drain claims and processes entries until the queue is empty. Claim or
// lookup failures are transient: they are logged and the entry stays pending
// for the next poll.
func (p *Processor) drain(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		entry, err := p.Repo.ClaimNext(ctx)
		if errors.Is(err, ErrNoPending) {
			return
		}
		if err != nil {
			telemetry.Error("queue.claim_failed", map[string]any{"error": err.Error()})
			return
		}
		p.process(ctx, entry)
	}
}

func (p *Processor) process(ctx context.Context, entry Entry) {
	defer func() {
		if rec := recover(); rec != nil {
			msg := fmt.Sprintf("panic: %v", rec)
			telemetry.Error("queue.process_panic", map[string]any{
				"queue_entry_id": entry.ID,
				"application_id": entry.ApplicationID,
				"error":          msg,
			})
			p.finishFailed(ctx, entry, errors.New(msg))
		}
	}()

	app, err := p.Apps.Get(ctx, entry.ApplicationID)
	if err != nil {
		telemetry.Error("queue.application_lookup_failed", map[string]any{
			"queue_entry_id": entry.ID,
			"application_id": entry.ApplicationID,
			"error":          err.Error(),
		})
		if markErr := p.Repo.MarkFailed(ctx, entry.ID, "application lookup: "+err.Error()); markErr != nil {
			telemetry.Error("queue.mark_failed_error", map[string]any{"queue_entry_id": entry.ID, "error": markErr.Error()})
		}
		return
	}

	metrics.IncPipelineStarted()
	started := time.Now()
	runErr := p.Runner.Run(ctx, &app)
	metrics.ObservePipelineDurationMs(float64(time.Since(started).Microseconds()) / 1000.0)
	switch {
	case runErr == nil, errors.Is(runErr, ErrSuspended):
		if errors.Is(runErr, ErrSuspended) {
			metrics.IncPipelineSuspended()
		} else {
			metrics.IncPipelineCompleted()
		}
		if err := p.Repo.MarkCompleted(ctx, entry.ID); err != nil {
			telemetry.Error("queue.mark_completed_error", map[string]any{"queue_entry_id": entry.ID, "error": err.Error()})
		}
	default:
		metrics.IncPipelineFailed()
		p.finishFailed(ctx, entry, runErr)
	}
}

func (p *Processor) finishFailed(ctx context.Context, entry Entry, cause error) {
	app, err := p.Apps.Get(ctx, entry.ApplicationID)
	if err == nil && !app.Status.Terminal() {
		if failErr := p.Apps.Fail(ctx, &app, cause); failErr != nil {
			telemetry.Error("queue.fail_application_error", map[string]any{
				"application_id": entry.ApplicationID,
				"error":          failErr.Error(),
			})
		}
	}
	if err := p.Repo.MarkFailed(ctx, entry.ID, cause.Error()); err != nil {
		telemetry.Error("queue.mark_failed_error", map[string]any{"queue_entry_id": entry.ID, "error": err.Error()})
	}
}

func (p *Processor) runCleanup(ctx context.Context) {
	if p.CleanupRetention <= 0 {
		return
	}
	cutoff := time.Now().UTC().Add(-p.CleanupRetention)
	purged, err := p.Repo.DeleteCompletedBefore(ctx, cutoff)
	if err != nil {
		telemetry.Error("queue.cleanup_failed", map[string]any{"error": err.Error()})
		return
	}
	if purged > 0 {
		telemetry.Info("queue.cleanup", map[string]any{"purged": purged})
	}
}

var _ applications.Enqueuer = (*Processor)(nil)
