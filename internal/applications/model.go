package applications

import "time"

// Job identifies the listing an application targets. Display fields come from
// the external aggregation collaborator and are stored verbatim.
type Job struct {
	ExternalID     string `json:"externalId"`
	Title          string `json:"title"`
	Company        string `json:"company"`
	CompanyWebsite string `json:"companyWebsite"`
}

// Application tracks one attempt to apply a client to a job through the
// automated pipeline.
type Application struct {
	ID       string `json:"id"`
	ClientID string `json:"clientId"`
	Job      Job    `json:"job"`

	// Classification input from the external scoring collaborator.
	AIApplicable *bool    `json:"aiApplicable,omitempty"`
	MatchScore   *float64 `json:"matchScore,omitempty"`

	Status          Status  `json:"status"`
	Progress        int     `json:"progress"`
	WaitForApproval bool    `json:"waitForApproval"`
	RetryCount      int     `json:"retryCount"`
	MaxRetries      int     `json:"maxRetries"`
	ErrorMessage    *string `json:"errorMessage,omitempty"`

	// Generated content, persisted as it becomes available.
	EmailSubject  *string `json:"emailSubject,omitempty"`
	EmailBody     *string `json:"emailBody,omitempty"`
	ResumeContent *string `json:"resumeContent,omitempty"`

	// Discovery results.
	TargetEmail          *string  `json:"targetEmail,omitempty"`
	EmailConfidenceScore *float64 `json:"emailConfidenceScore,omitempty"`
	AlternativeEmails    []string `json:"alternativeEmails,omitempty"`

	Notes     *string   `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ContentEdits carries reviewer-supplied overrides applied before dispatch.
// Nil fields are left untouched.
type ContentEdits struct {
	TargetEmail   *string `json:"targetEmail,omitempty"`
	EmailSubject  *string `json:"emailSubject,omitempty"`
	EmailBody     *string `json:"emailBody,omitempty"`
	ResumeContent *string `json:"resumeContent,omitempty"`
	Notes         *string `json:"notes,omitempty"`
}

// Empty reports whether the edits would change nothing.
func (e ContentEdits) Empty() bool {
	return e.TargetEmail == nil && e.EmailSubject == nil && e.EmailBody == nil &&
		e.ResumeContent == nil && e.Notes == nil
}

// DiscoveryResult is the outcome of the email discovery stage. Nil fields mean
// "no information"; merging never clears previously known values.
type DiscoveryResult struct {
	PrimaryEmail      *string  `json:"primaryEmail,omitempty"`
	ConfidenceScore   *float64 `json:"confidenceScore,omitempty"`
	AlternativeEmails []string `json:"alternativeEmails,omitempty"`
}

// GeneratedContent is the outcome of the content generation stage.
type GeneratedContent struct {
	EmailSubject  string `json:"emailSubject"`
	EmailBody     string `json:"emailBody"`
	ResumeContent string `json:"resumeContent,omitempty"`
}
