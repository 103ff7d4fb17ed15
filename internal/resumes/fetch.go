package resumes

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// maxResumeBytes caps resume downloads; anything larger is not a resume.
const maxResumeBytes = 10 << 20

// FetchText downloads a resume from url and extracts its plain text. Used to
// enrich the bridge payload; callers treat failures as "no text available".
func FetchText(ctx context.Context, httpClient *http.Client, url string) (string, error) {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build resume request: %w", err)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch resume: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch resume: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResumeBytes))
	if err != nil {
		return "", fmt.Errorf("read resume: %w", err)
	}
	return ExtractText(ctx, data)
}
