package queue

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"applyflow-backend/internal/applications"
)

func newQueueRouter(t *testing.T) (*gin.Engine, *applications.Service, *MemoryRepo, *Processor) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc, queueRepo, processor := newQueueFixture(t, stubRunner{})
	monitor := NewMonitor(queueRepo, 10*time.Minute)
	maintenance := &Maintenance{Repo: queueRepo, Apps: svc}
	r := gin.New()
	api := r.Group("/api/v1")
	NewHandler(monitor, maintenance, processor).RegisterRoutes(api)
	return r, svc, queueRepo, processor
}

func TestQueueHealthEndpoint(t *testing.T) {
	r, svc, _, processor := newQueueRouter(t)
	submitTestApplication(t, svc, 0)
	processor.drain(context.Background())
	submitTestApplication(t, svc, 0)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/queue/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var snapshot HealthSnapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snapshot); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snapshot.Pending != 1 || snapshot.Completed != 1 {
		t.Fatalf("unexpected snapshot %+v", snapshot)
	}
	if snapshot.OldestPendingAge == nil {
		t.Fatalf("expected oldest pending age for the queued entry")
	}
}

func TestQueueRetryEndpoint(t *testing.T) {
	r, svc, queueRepo, processor := newQueueRouter(t)
	failOnce(t, svc, processor, queueRepo)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/queue/retry", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Reset int `json:"reset"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Reset != 1 {
		t.Fatalf("expected 1 reset entry, got %d", resp.Reset)
	}
	counts, _ := queueRepo.CountByStatus(context.Background())
	if counts[EntryPending] != 1 {
		t.Fatalf("expected pending entry after retry, got %v", counts)
	}
}
