package discovery

import (
	"context"
	"testing"

	"applyflow-backend/internal/applications"
)

func TestDomainFromWebsite(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"https://www.acme.example", "acme.example"},
		{"http://acme.example/careers", "acme.example"},
		{"acme.example", "acme.example"},
		{"WWW.ACME.EXAMPLE", "acme.example"},
		{"localhost", ""},
		{"   ", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := DomainFromWebsite(tc.in); got != tc.want {
			t.Fatalf("DomainFromWebsite(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestPatternDiscovererPrefersCareersMailbox(t *testing.T) {
	app := applications.Application{
		Job: applications.Job{CompanyWebsite: "https://www.acme.example"},
	}

	result, err := PatternDiscoverer{}.Discover(context.Background(), app)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if result.PrimaryEmail == nil || *result.PrimaryEmail != "careers@acme.example" {
		t.Fatalf("expected careers mailbox, got %v", result.PrimaryEmail)
	}
	if result.ConfidenceScore == nil || *result.ConfidenceScore != 0.55 {
		t.Fatalf("expected confidence 0.55, got %v", result.ConfidenceScore)
	}
	if len(result.AlternativeEmails) != 4 {
		t.Fatalf("expected 4 alternates, got %v", result.AlternativeEmails)
	}
	if result.AlternativeEmails[0] != "jobs@acme.example" {
		t.Fatalf("expected jobs mailbox first, got %s", result.AlternativeEmails[0])
	}
}

func TestPatternDiscovererNoWebsite(t *testing.T) {
	result, err := PatternDiscoverer{}.Discover(context.Background(), applications.Application{})
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if result.PrimaryEmail != nil || result.ConfidenceScore != nil || result.AlternativeEmails != nil {
		t.Fatalf("expected empty result, got %+v", result)
	}
}
