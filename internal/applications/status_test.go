package applications

import "testing"

func TestStatusTransitionTable(t *testing.T) {
	allowed := []struct {
		from Status
		to   Status
	}{
		{StatusQueued, StatusProcessing},
		{StatusProcessing, StatusEmailDiscovery},
		{StatusEmailDiscovery, StatusGeneratingContent},
		{StatusGeneratingContent, StatusAwaitingApproval},
		{StatusGeneratingContent, StatusSubmitted},
		{StatusAwaitingApproval, StatusApproved},
		{StatusAwaitingApproval, StatusFailed},
		{StatusApproved, StatusSuccessful},
		{StatusSubmitted, StatusSuccessful},
		{StatusQueued, StatusFailed},
		{StatusProcessing, StatusFailed},
		{StatusFailed, StatusQueued},
	}
	for _, tc := range allowed {
		if !tc.from.CanTransition(tc.to) {
			t.Fatalf("expected %s -> %s to be allowed", tc.from, tc.to)
		}
	}

	denied := []struct {
		from Status
		to   Status
	}{
		{StatusQueued, StatusEmailDiscovery},
		{StatusProcessing, StatusGeneratingContent},
		{StatusGeneratingContent, StatusSuccessful},
		{StatusAwaitingApproval, StatusSubmitted},
		{StatusSuccessful, StatusFailed},
		{StatusSuccessful, StatusQueued},
		{StatusSuccessful, StatusApproved},
		{StatusApproved, StatusAwaitingApproval},
		{StatusFailed, StatusProcessing},
	}
	for _, tc := range denied {
		if tc.from.CanTransition(tc.to) {
			t.Fatalf("expected %s -> %s to be rejected", tc.from, tc.to)
		}
	}
}

func TestStatusProgressCheckpoints(t *testing.T) {
	expected := map[Status]int{
		StatusQueued:            0,
		StatusProcessing:        10,
		StatusEmailDiscovery:    30,
		StatusGeneratingContent: 60,
		StatusAwaitingApproval:  80,
		StatusApproved:          85,
		StatusSubmitted:         90,
		StatusSuccessful:        100,
		StatusFailed:            0,
	}
	for status, progress := range expected {
		if got := status.Progress(); got != progress {
			t.Fatalf("progress for %s: expected %d, got %d", status, progress, got)
		}
	}
}

func TestStatusTerminal(t *testing.T) {
	if !StatusSuccessful.Terminal() {
		t.Fatalf("successful should be terminal")
	}
	if !StatusFailed.Terminal() {
		t.Fatalf("failed should be terminal")
	}
	for _, status := range []Status{StatusQueued, StatusProcessing, StatusEmailDiscovery, StatusGeneratingContent, StatusAwaitingApproval, StatusApproved, StatusSubmitted} {
		if status.Terminal() {
			t.Fatalf("%s should not be terminal", status)
		}
	}
}

func TestStatusPipelineEligible(t *testing.T) {
	eligible := []Status{StatusQueued, StatusProcessing, StatusEmailDiscovery, StatusGeneratingContent}
	for _, status := range eligible {
		if !status.PipelineEligible() {
			t.Fatalf("%s should be pipeline eligible", status)
		}
	}
	excluded := []Status{StatusAwaitingApproval, StatusApproved, StatusSubmitted, StatusSuccessful, StatusFailed}
	for _, status := range excluded {
		if status.PipelineEligible() {
			t.Fatalf("%s should not be pipeline eligible", status)
		}
	}
}
