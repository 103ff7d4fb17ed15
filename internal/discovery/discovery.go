package discovery

import (
	"context"
	"net/url"
	"strings"

	"applyflow-backend/internal/applications"
)

// Discoverer finds a contact email for an application's target company.
type Discoverer interface {
	Discover(ctx context.Context, app applications.Application) (applications.DiscoveryResult, error)
}

// prefixes ordered by how likely each mailbox is to accept applications.
var prefixes = []struct {
	name       string
	confidence float64
}{
	{"careers", 0.55},
	{"jobs", 0.45},
	{"hr", 0.35},
	{"recruiting", 0.30},
	{"hello", 0.20},
}

// PatternDiscoverer derives candidate mailboxes from the company website
// domain. It is the in-process fallback when no external discovery worker is
// configured; confidence scores reflect that these are guesses.
type PatternDiscoverer struct{}

// Discover returns pattern-based candidates for the company domain. An
// application without a usable company website yields an empty result, not an
// error; the approval gate can still fill in the address by hand.
func (PatternDiscoverer) Discover(ctx context.Context, app applications.Application) (applications.DiscoveryResult, error) {
	if err := ctx.Err(); err != nil {
		return applications.DiscoveryResult{}, err
	}
	domain := DomainFromWebsite(app.Job.CompanyWebsite)
	if domain == "" {
		return applications.DiscoveryResult{}, nil
	}

	primary := prefixes[0].name + "@" + domain
	confidence := prefixes[0].confidence
	alternatives := make([]string, 0, len(prefixes)-1)
	for _, p := range prefixes[1:] {
		alternatives = append(alternatives, p.name+"@"+domain)
	}
	return applications.DiscoveryResult{
		PrimaryEmail:      &primary,
		ConfidenceScore:   &confidence,
		AlternativeEmails: alternatives,
	}, nil
}

// DomainFromWebsite normalizes a company website into a bare domain suitable
// for building mailbox addresses. Returns "" when nothing usable remains.
func DomainFromWebsite(website string) string {
	raw := strings.TrimSpace(strings.ToLower(website))
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Hostname() == "" {
		return ""
	}
	host := strings.TrimPrefix(parsed.Hostname(), "www.")
	if !strings.Contains(host, ".") {
		return ""
	}
	return host
}

var _ Discoverer = PatternDiscoverer{}
