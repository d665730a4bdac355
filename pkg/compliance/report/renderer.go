package report

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"
)

// ProseRenderer turns structured section content into text. Implementations
// may call a language model; they must not add facts that are not in
// content.
type ProseRenderer interface {
	RenderProse(ctx context.Context, section string, content any) (string, error)
}

// ProseRendererFunc adapts a function to ProseRenderer.
type ProseRendererFunc func(ctx context.Context, section string, content any) (string, error)

// RenderProse calls f.
func (f ProseRendererFunc) RenderProse(ctx context.Context, section string, content any) (string, error) {
	return f(ctx, section, content)
}

const briefTemplate = `Negotiation brief{{with .EntityName}} for {{.}}{{end}}
Overall: {{if .RequiredOK}}all required checks satisfied{{else}}required checks failing{{end}}
{{range .Sections}}
[{{upper (print .Status)}}] {{.RuleID}} {{.Title}}: {{.Summary}}{{end}}
{{if .Strengths}}
Strengths:{{range .Strengths}}
- {{.}}{{end}}
{{end}}{{if .Risks}}
Risks:{{range .Risks}}
- {{.}}{{end}}
{{end}}`

const emailTemplate = `Hello{{with .EntityName}} {{.}}{{end}},

Thank you for your GSA onboarding submission.
{{if .HasActionItems}}
Before we can proceed, please provide or correct the following:
{{range $i, $item := .MissingItems}}
{{inc $i}}. {{$item}}{{end}}
{{else}}
We did not find any missing items in your submission.
{{end}}{{if .UnderReview}}
Some items are still being reviewed by our team. We will contact you if anything else is needed.
{{end}}
Best regards,
GSA Onboarding Team
`

// TemplateRenderer renders prose from fixed text templates. Its output is
// a deterministic function of the content.
type TemplateRenderer struct {
	templates map[string]*template.Template
}

// NewTemplateRenderer parses the built-in templates.
func NewTemplateRenderer() *TemplateRenderer {
	funcs := template.FuncMap{
		"upper": strings.ToUpper,
		"inc":   func(i int) int { return i + 1 },
	}
	return &TemplateRenderer{templates: map[string]*template.Template{
		SectionBrief: template.Must(template.New(SectionBrief).Funcs(funcs).Parse(briefTemplate)),
		SectionEmail: template.Must(template.New(SectionEmail).Funcs(funcs).Parse(emailTemplate)),
	}}
}

// RenderProse executes the template registered for section.
func (r *TemplateRenderer) RenderProse(ctx context.Context, section string, content any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	tmpl, ok := r.templates[section]
	if !ok {
		return "", fmt.Errorf("no template for section %q", section)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, content); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", section, err)
	}
	return strings.TrimSpace(buf.String()), nil
}
