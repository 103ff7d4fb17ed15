package applications

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const applicationColumns = `
id, client_id, job_external_id, job_title, job_company, job_company_website,
ai_applicable, match_score, status, progress, wait_for_approval,
retry_count, max_retries, error_message,
email_subject, email_body, resume_content,
target_email, email_confidence_score, alternative_emails,
notes, created_at, updated_at`

// Create inserts a new application.
func (r *PGRepo) Create(ctx context.Context, app Application) error {
	const query = `
INSERT INTO applications (
	id, client_id, job_external_id, job_title, job_company, job_company_website,
	ai_applicable, match_score, status, progress, wait_for_approval,
	retry_count, max_retries, error_message,
	email_subject, email_body, resume_content,
	target_email, email_confidence_score, alternative_emails,
	notes, created_at, updated_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)`
	alternatives, err := marshalEmails(app.AlternativeEmails)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, query,
		app.ID,
		app.ClientID,
		app.Job.ExternalID,
		app.Job.Title,
		app.Job.Company,
		app.Job.CompanyWebsite,
		app.AIApplicable,
		app.MatchScore,
		app.Status,
		app.Progress,
		app.WaitForApproval,
		app.RetryCount,
		app.MaxRetries,
		app.ErrorMessage,
		app.EmailSubject,
		app.EmailBody,
		app.ResumeContent,
		app.TargetEmail,
		app.EmailConfidenceScore,
		alternatives,
		app.Notes,
		app.CreatedAt,
		app.UpdatedAt,
	)
	return err
}

// GetByID returns an application by ID.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE id = $1 LIMIT 1`
	row := r.DB.QueryRowContext(ctx, query, id)
	return scanApplication(row)
}

// FindByClientAndJob returns the application for a (client, job) pair.
func (r *PGRepo) FindByClientAndJob(ctx context.Context, clientID, jobExternalID string) (Application, error) {
	query := `SELECT ` + applicationColumns + `
FROM applications
WHERE client_id = $1 AND job_external_id = $2
ORDER BY created_at DESC
LIMIT 1`
	row := r.DB.QueryRowContext(ctx, query, clientID, jobExternalID)
	return scanApplication(row)
}

// List returns applications ordered newest-first.
func (r *PGRepo) List(ctx context.Context, limit, offset int) ([]Application, error) {
	query := `SELECT ` + applicationColumns + `
FROM applications
ORDER BY created_at DESC
LIMIT $1 OFFSET $2`
	rows, err := r.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var apps []Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, app)
	}
	return apps, rows.Err()
}

// UpdateStatus moves the application from one status to another, refusing to
// write if the stored status has changed underneath the caller.
func (r *PGRepo) UpdateStatus(ctx context.Context, id string, from, to Status, errorMessage *string) error {
	const query = `
UPDATE applications
SET status = $3, progress = $4, error_message = $5, updated_at = $6
WHERE id = $1 AND status = $2`
	res, err := r.DB.ExecContext(ctx, query, id, from, to, to.Progress(), errorMessage, time.Now().UTC())
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		var current string
		err := r.DB.QueryRowContext(ctx, `SELECT status FROM applications WHERE id = $1`, id).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return ErrStaleStatus
	}
	return nil
}

// MergeDiscovery records discovery output without clearing known values: a
// missing or blank primary email never overwrites a stored target_email.
func (r *PGRepo) MergeDiscovery(ctx context.Context, id string, result DiscoveryResult) error {
	const query = `
UPDATE applications
SET target_email = COALESCE(NULLIF($2, ''), target_email),
    email_confidence_score = COALESCE($3, email_confidence_score),
    alternative_emails = COALESCE($4, alternative_emails),
    updated_at = $5
WHERE id = $1`
	primary := ""
	if result.PrimaryEmail != nil {
		primary = *result.PrimaryEmail
	}
	alternatives, err := marshalEmails(result.AlternativeEmails)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, query, id, primary, result.ConfidenceScore, alternatives, time.Now().UTC())
	if err != nil {
		return err
	}
	return checkFound(res)
}

// SetContent persists generated content. Subject and body are last-write-wins;
// resume content is only replaced when a new value is supplied.
func (r *PGRepo) SetContent(ctx context.Context, id string, content GeneratedContent) error {
	const query = `
UPDATE applications
SET email_subject = $2,
    email_body = $3,
    resume_content = COALESCE(NULLIF($4, ''), resume_content),
    updated_at = $5
WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query, id, content.EmailSubject, content.EmailBody, content.ResumeContent, time.Now().UTC())
	if err != nil {
		return err
	}
	return checkFound(res)
}

// ApplyEdits merges reviewer edits; nil fields keep their stored values.
func (r *PGRepo) ApplyEdits(ctx context.Context, id string, edits ContentEdits) error {
	const query = `
UPDATE applications
SET target_email = COALESCE($2, target_email),
    email_subject = COALESCE($3, email_subject),
    email_body = COALESCE($4, email_body),
    resume_content = COALESCE($5, resume_content),
    notes = COALESCE($6, notes),
    updated_at = $7
WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query, id,
		edits.TargetEmail, edits.EmailSubject, edits.EmailBody, edits.ResumeContent, edits.Notes,
		time.Now().UTC())
	if err != nil {
		return err
	}
	return checkFound(res)
}

// IncrementRetry counts one failed attempt against the retry budget.
func (r *PGRepo) IncrementRetry(ctx context.Context, id string) error {
	const query = `UPDATE applications SET retry_count = retry_count + 1, updated_at = $2 WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return err
	}
	return checkFound(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApplication(row rowScanner) (Application, error) {
	var app Application
	var aiApplicable sql.NullBool
	var matchScore sql.NullFloat64
	var errorMessage sql.NullString
	var emailSubject sql.NullString
	var emailBody sql.NullString
	var resumeContent sql.NullString
	var targetEmail sql.NullString
	var confidence sql.NullFloat64
	var alternatives sql.NullString
	var notes sql.NullString

	err := row.Scan(
		&app.ID,
		&app.ClientID,
		&app.Job.ExternalID,
		&app.Job.Title,
		&app.Job.Company,
		&app.Job.CompanyWebsite,
		&aiApplicable,
		&matchScore,
		&app.Status,
		&app.Progress,
		&app.WaitForApproval,
		&app.RetryCount,
		&app.MaxRetries,
		&errorMessage,
		&emailSubject,
		&emailBody,
		&resumeContent,
		&targetEmail,
		&confidence,
		&alternatives,
		&notes,
		&app.CreatedAt,
		&app.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Application{}, ErrNotFound
		}
		return Application{}, err
	}

	if aiApplicable.Valid {
		app.AIApplicable = &aiApplicable.Bool
	}
	if matchScore.Valid {
		app.MatchScore = &matchScore.Float64
	}
	if errorMessage.Valid {
		app.ErrorMessage = &errorMessage.String
	}
	if emailSubject.Valid {
		app.EmailSubject = &emailSubject.String
	}
	if emailBody.Valid {
		app.EmailBody = &emailBody.String
	}
	if resumeContent.Valid {
		app.ResumeContent = &resumeContent.String
	}
	if targetEmail.Valid {
		app.TargetEmail = &targetEmail.String
	}
	if confidence.Valid {
		app.EmailConfidenceScore = &confidence.Float64
	}
	if alternatives.Valid && alternatives.String != "" {
		if err := json.Unmarshal([]byte(alternatives.String), &app.AlternativeEmails); err != nil {
			return Application{}, err
		}
	}
	if notes.Valid {
		app.Notes = &notes.String
	}
	return app, nil
}

func marshalEmails(emails []string) (any, error) {
	if emails == nil {
		return nil, nil
	}
	payload, err := json.Marshal(emails)
	if err != nil {
		return nil, err
	}
	return string(payload), nil
}

func checkFound(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Repo = (*PGRepo)(nil)
