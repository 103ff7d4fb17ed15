package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"applyflow-backend/internal/applications"
)

const secretHeader = "X-Bridge-Secret"

// Classifier asks the external scoring service whether a job is suitable for
// automated application. The verdict is advisory: submission proceeds without
// it when the service is unreachable.
type Classifier struct {
	url        string
	secret     string
	httpClient *http.Client
}

// New constructs a classifier for the configured endpoint.
func New(url, secret string) (*Classifier, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("CLASSIFY_URL is required")
	}
	return &Classifier{
		url:    url,
		secret: secret,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

type classifyRequest struct {
	ExternalID     string `json:"external_id"`
	Title          string `json:"title"`
	Company        string `json:"company"`
	CompanyWebsite string `json:"company_website,omitempty"`
}

type classifyResponse struct {
	AIApplicable bool    `json:"ai_applicable"`
	MatchScore   float64 `json:"match_score"`
}

// Classify posts the job listing and returns the service's verdict.
func (c *Classifier) Classify(ctx context.Context, job applications.Job) (applications.Classification, error) {
	body, err := json.Marshal(classifyRequest{
		ExternalID:     job.ExternalID,
		Title:          job.Title,
		Company:        job.Company,
		CompanyWebsite: job.CompanyWebsite,
	})
	if err != nil {
		return applications.Classification{}, fmt.Errorf("encode classify payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return applications.Classification{}, fmt.Errorf("build classify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.secret != "" {
		req.Header.Set(secretHeader, c.secret)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return applications.Classification{}, fmt.Errorf("classify request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return applications.Classification{}, fmt.Errorf("classify returned status %d", resp.StatusCode)
	}

	var decoded classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return applications.Classification{}, fmt.Errorf("decode classify response: %w", err)
	}
	return applications.Classification{
		AIApplicable: decoded.AIApplicable,
		MatchScore:   decoded.MatchScore,
	}, nil
}

var _ applications.Classifier = (*Classifier)(nil)
