package generation

import (
	"context"
	"fmt"
	"strings"

	"applyflow-backend/internal/applications"
)

// Input bundles everything the generator may use.
type Input struct {
	App        applications.Application
	ClientName string
	ResumeText string
}

// Generator produces application email content. The real copywriting lives in
// the external worker behind the bridge; this interface also admits the
// in-process fallback used when no bridge is configured.
type Generator interface {
	Generate(ctx context.Context, in Input) (applications.GeneratedContent, error)
}

// TemplateGenerator renders a plain cover email from the job fields. It keeps
// the pipeline functional without the external worker.
type TemplateGenerator struct{}

// Generate builds subject and body from the job and client fields.
func (TemplateGenerator) Generate(ctx context.Context, in Input) (applications.GeneratedContent, error) {
	if err := ctx.Err(); err != nil {
		return applications.GeneratedContent{}, err
	}

	title := strings.TrimSpace(in.App.Job.Title)
	if title == "" {
		title = "your open position"
	}
	company := strings.TrimSpace(in.App.Job.Company)
	name := strings.TrimSpace(in.ClientName)
	if name == "" {
		name = "the candidate"
	}

	subject := fmt.Sprintf("Application for %s", title)
	if company != "" {
		subject = fmt.Sprintf("Application for %s at %s", title, company)
	}

	var body strings.Builder
	body.WriteString("Hello,\n\n")
	if company != "" {
		fmt.Fprintf(&body, "I am writing on behalf of %s to apply for the %s role at %s.\n\n", name, title, company)
	} else {
		fmt.Fprintf(&body, "I am writing on behalf of %s to apply for the %s role.\n\n", name, title)
	}
	if in.App.Notes != nil && strings.TrimSpace(*in.App.Notes) != "" {
		fmt.Fprintf(&body, "%s\n\n", strings.TrimSpace(*in.App.Notes))
	}
	body.WriteString("The resume is attached. We would welcome the chance to discuss the role.\n\n")
	fmt.Fprintf(&body, "Kind regards,\n%s\n", name)

	return applications.GeneratedContent{
		EmailSubject:  subject,
		EmailBody:     body.String(),
		ResumeContent: in.ResumeText,
	}, nil
}

var _ Generator = TemplateGenerator{}
