package applications

import "time"

// SubmitRequest is the submission payload.
type SubmitRequest struct {
	ClientID        string `json:"clientId" binding:"required"`
	Job             Job    `json:"job" binding:"required"`
	WaitForApproval bool   `json:"waitForApproval"`
	Notes           string `json:"notes"`
	Priority        int    `json:"priority"`
}

// ApplicationResponse is the outward-facing representation of an application.
type ApplicationResponse struct {
	ID                   string    `json:"id"`
	ClientID             string    `json:"clientId"`
	Job                  Job       `json:"job"`
	Status               Status    `json:"status"`
	Progress             int       `json:"progress"`
	WaitForApproval      bool      `json:"waitForApproval"`
	RetryCount           int       `json:"retryCount"`
	MaxRetries           int       `json:"maxRetries"`
	ErrorMessage         *string   `json:"errorMessage,omitempty"`
	EmailSubject         *string   `json:"emailSubject,omitempty"`
	EmailBody            *string   `json:"emailBody,omitempty"`
	TargetEmail          *string   `json:"targetEmail,omitempty"`
	EmailConfidenceScore *float64  `json:"emailConfidenceScore,omitempty"`
	AlternativeEmails    []string  `json:"alternativeEmails,omitempty"`
	Notes                *string   `json:"notes,omitempty"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

func toApplicationResponse(app Application) ApplicationResponse {
	return ApplicationResponse{
		ID:                   app.ID,
		ClientID:             app.ClientID,
		Job:                  app.Job,
		Status:               app.Status,
		Progress:             app.Progress,
		WaitForApproval:      app.WaitForApproval,
		RetryCount:           app.RetryCount,
		MaxRetries:           app.MaxRetries,
		ErrorMessage:         app.ErrorMessage,
		EmailSubject:         app.EmailSubject,
		EmailBody:            app.EmailBody,
		TargetEmail:          app.TargetEmail,
		EmailConfidenceScore: app.EmailConfidenceScore,
		AlternativeEmails:    app.AlternativeEmails,
		Notes:                app.Notes,
		CreatedAt:            app.CreatedAt,
		UpdatedAt:            app.UpdatedAt,
	}
}
