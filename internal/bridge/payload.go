package bridge

import "strings"

// Wire formats use snake_case: the external worker is a separate system with
// its own conventions, fixed by the integration contract.

// ForwardPayload is the outbound handoff for discovery and generation work.
type ForwardPayload struct {
	ApplicationID   string         `json:"application_id"`
	Client          ClientPayload  `json:"client"`
	Resume          ResumePayload  `json:"resume"`
	Job             JobPayload     `json:"job"`
	WaitForApproval bool           `json:"wait_for_approval"`
	Notes           string         `json:"notes,omitempty"`
}

// ClientPayload identifies who the application is for.
type ClientPayload struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// ResumePayload references the resume the worker should use.
type ResumePayload struct {
	ID   string `json:"id"`
	URL  string `json:"url"`
	Name string `json:"name"`
	Text string `json:"text,omitempty"`
}

// JobPayload carries the job fields.
type JobPayload struct {
	ExternalID     string `json:"external_id"`
	Title          string `json:"title"`
	Company        string `json:"company"`
	CompanyWebsite string `json:"company_website,omitempty"`
}

// Callback statuses.
const (
	CallbackSuccess = "success"
	CallbackError   = "error"
)

// CallbackPayload is what the external worker posts back. Success carries
// content and discovery; error carries a code and message.
type CallbackPayload struct {
	ApplicationID string            `json:"application_id"`
	JobID         string            `json:"job_id,omitempty"`
	Status        string            `json:"status"`
	Content       *ContentPayload   `json:"content,omitempty"`
	Discovery     *DiscoveryPayload `json:"discovery,omitempty"`
	ErrorCode     string            `json:"error_code,omitempty"`
	ErrorMessage  string            `json:"error_message,omitempty"`
}

// ContentPayload is the generated application content.
type ContentPayload struct {
	EmailSubject  string `json:"email_subject"`
	EmailBody     string `json:"email_body"`
	ResumeContent string `json:"resume_content,omitempty"`
}

// DiscoveryPayload is the discovery result. All fields are nullable; a
// missing value means "no information", never "clear what you have".
type DiscoveryPayload struct {
	PrimaryEmail      *string  `json:"primary_email"`
	ConfidenceScore   *float64 `json:"confidence_score"`
	AlternativeEmails []string `json:"alternative_emails"`
}

// FormatError renders the stored error message as "<code>: <message>".
func (p CallbackPayload) FormatError() string {
	code := strings.TrimSpace(p.ErrorCode)
	msg := strings.TrimSpace(p.ErrorMessage)
	switch {
	case code == "":
		return msg
	case msg == "":
		return code
	default:
		return code + ": " + msg
	}
}
