package applications

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newTestRouter(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(svc).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func submitBody(t *testing.T) *bytes.Buffer {
	t.Helper()
	payload := map[string]any{
		"clientId": "client-1",
		"job": map[string]any{
			"externalId":     "job-123",
			"title":          "Backend Engineer",
			"company":        "Acme",
			"companyWebsite": "https://acme.example",
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return bytes.NewBuffer(body)
}

func TestSubmitAccepted(t *testing.T) {
	svc := &Service{Repo: NewMemoryRepo(), Queue: &fakeEnqueuer{}}
	r := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/applications", submitBody(t))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", resp.Code, resp.Body.String())
	}
	var decoded map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if decoded["applicationId"] == "" || decoded["applicationId"] == nil {
		t.Fatalf("expected applicationId in response")
	}
	if decoded["status"] != "queued" {
		t.Fatalf("expected status queued, got %v", decoded["status"])
	}
}

func TestSubmitDuplicateConflict(t *testing.T) {
	svc := &Service{Repo: NewMemoryRepo(), Queue: &fakeEnqueuer{}}
	r := newTestRouter(svc)

	first := httptest.NewRequest(http.MethodPost, "/api/v1/applications", submitBody(t))
	first.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(httptest.NewRecorder(), first)

	second := httptest.NewRequest(http.MethodPost, "/api/v1/applications", submitBody(t))
	second.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, second)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.Code)
	}
	var decoded struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if decoded.Error.Code != ErrorCodeDuplicate {
		t.Fatalf("expected code %s, got %s", ErrorCodeDuplicate, decoded.Error.Code)
	}
}

func TestSubmitMissingClientRejected(t *testing.T) {
	svc := &Service{Repo: NewMemoryRepo(), Queue: &fakeEnqueuer{}}
	r := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/applications", bytes.NewBufferString(`{"job":{"externalId":"job-1"}}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestGetApplication(t *testing.T) {
	repo := NewMemoryRepo()
	svc := &Service{Repo: repo, Queue: &fakeEnqueuer{}}
	app, err := svc.Submit(context.Background(), SubmitInput{ClientID: "client-1", Job: testJob()})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	r := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/applications/"+app.ID, nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var decoded ApplicationResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if decoded.ID != app.ID || decoded.Status != StatusQueued {
		t.Fatalf("unexpected response: %+v", decoded)
	}
}

func TestGetApplicationNotFound(t *testing.T) {
	svc := &Service{Repo: NewMemoryRepo(), Queue: &fakeEnqueuer{}}
	r := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/applications/missing", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}
