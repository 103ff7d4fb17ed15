package applications

// Status represents the lifecycle state of an application.
type Status string

const (
	StatusQueued            Status = "queued"
	StatusProcessing        Status = "processing"
	StatusEmailDiscovery    Status = "email_discovery"
	StatusGeneratingContent Status = "generating_content"
	StatusAwaitingApproval  Status = "awaiting_approval"
	StatusApproved          Status = "approved"
	StatusSubmitted         Status = "submitted"
	StatusSuccessful        Status = "successful"
	StatusFailed            Status = "failed"
)

// allowedTransitions is the closed transition table. Failure is reachable from
// any non-terminal state; failed->queued exists only for the explicit retry
// operation.
var allowedTransitions = map[Status][]Status{
	StatusQueued:            {StatusProcessing, StatusFailed},
	StatusProcessing:        {StatusEmailDiscovery, StatusFailed},
	StatusEmailDiscovery:    {StatusGeneratingContent, StatusFailed},
	StatusGeneratingContent: {StatusAwaitingApproval, StatusSubmitted, StatusFailed},
	StatusAwaitingApproval:  {StatusApproved, StatusFailed},
	StatusApproved:          {StatusSuccessful, StatusFailed},
	StatusSubmitted:         {StatusSuccessful, StatusFailed},
	StatusSuccessful:        {},
	StatusFailed:            {StatusQueued},
}

// progressCheckpoints maps each state to the progress recorded on entry.
var progressCheckpoints = map[Status]int{
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

// Valid reports whether the status is a known lifecycle state.
func (s Status) Valid() bool {
	_, ok := allowedTransitions[s]
	return ok
}

// Terminal reports whether the status admits no further transitions except
// the retry escape from failed.
func (s Status) Terminal() bool {
	return s == StatusSuccessful || s == StatusFailed
}

// PipelineEligible reports whether an application in this state may be picked
// up by the queue processor. Suspended and terminal states are excluded.
func (s Status) PipelineEligible() bool {
	switch s {
	case StatusQueued, StatusProcessing, StatusEmailDiscovery, StatusGeneratingContent:
		return true
	}
	return false
}

// CanTransition reports whether moving from s to next is allowed.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Progress returns the progress checkpoint recorded when entering s.
func (s Status) Progress() int {
	return progressCheckpoints[s]
}
