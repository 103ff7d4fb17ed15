package bridge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"applyflow-backend/internal/applications"
)

func newCallbackRouter(secret string) (*gin.Engine, *applications.MemoryRepo) {
	gin.SetMode(gin.TestMode)
	svc, repo, _ := newCallbackFixture()
	r := gin.New()
	api := r.Group("/api/v1")
	NewHandler(svc, secret).RegisterRoutes(api)
	return r, repo
}

func postCallback(r *gin.Engine, secret, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/callbacks/applications", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set("X-Callback-Secret", secret)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCallbackEndpointRejectsBadSecret(t *testing.T) {
	r, _ := newCallbackRouter("topsecret")

	body := `{"application_id":"app-1","status":"success"}`
	if w := postCallback(r, "", body); w.Code != http.StatusUnauthorized {
		t.Fatalf("missing secret: expected 401, got %d", w.Code)
	}
	if w := postCallback(r, "wrong", body); w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong secret: expected 401, got %d", w.Code)
	}
}

func TestCallbackEndpointRejectsMalformedJSON(t *testing.T) {
	r, _ := newCallbackRouter("topsecret")

	w := postCallback(r, "topsecret", "{not json")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestCallbackEndpointRejectsInvalidPayload(t *testing.T) {
	r, repo := newCallbackRouter("topsecret")
	seedDelegated(t, repo, "app-1", applications.StatusGeneratingContent)

	// Success without generated content is a worker bug, not a retry case.
	w := postCallback(r, "topsecret", `{"application_id":"app-1","status":"success"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error.Code != "validation_error" {
		t.Fatalf("expected validation_error, got %q", resp.Error.Code)
	}
}

func TestCallbackEndpointAcknowledgesDespitePersistenceFailure(t *testing.T) {
	r, _ := newCallbackRouter("topsecret")

	// The application does not exist, so recording fails, but the worker
	// still gets a 200 so it does not retry forever.
	body := `{"application_id":"ghost","status":"success","content":{"email_subject":"S","email_body":"B"}}`
	w := postCallback(r, "topsecret", body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if received, _ := resp["received"].(bool); !received {
		t.Fatalf("expected received ack, got %v", resp)
	}
}

func TestCallbackEndpointRecordsSuccess(t *testing.T) {
	r, repo := newCallbackRouter("topsecret")
	seedDelegated(t, repo, "app-1", applications.StatusGeneratingContent)

	body := `{"application_id":"app-1","status":"success","content":{"email_subject":"S","email_body":"B"},"discovery":{"primary_email":"careers@acme.example","confidence_score":0.7}}`
	w := postCallback(r, "topsecret", body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	app, err := repo.GetByID(context.Background(), "app-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if app.Status != applications.StatusAwaitingApproval {
		t.Fatalf("expected awaiting_approval, got %s", app.Status)
	}
	if app.TargetEmail == nil || *app.TargetEmail != "careers@acme.example" {
		t.Fatalf("discovery not merged: %v", app.TargetEmail)
	}
}
