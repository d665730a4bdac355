package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"getgsa/onboarding/pkg/compliance"
	"getgsa/onboarding/pkg/compliance/report"
	"getgsa/onboarding/pkg/providers"
	"getgsa/onboarding/pkg/telemetry/tracing"
)

const proseSystemPrompt = `You write for a GSA onboarding review team.
Use only the facts in the JSON you are given. Do not add requirements, numbers or names that are not in it.
Write plain text without markdown.`

var sectionInstructions = map[string]string{
	report.SectionBrief: "Write a short internal negotiation brief: overall status, then one line per rule, then strengths and risks.",
	report.SectionEmail: "Write a polite email to the applicant. List every missing item as a numbered list. If there are none, say so. Sign as GSA Onboarding Team.",
}

// LLMRenderer writes report prose with a language model.
type LLMRenderer struct {
	provider providers.Provider
	model    string
}

var _ report.ProseRenderer = (*LLMRenderer)(nil)

// NewLLMRenderer returns a renderer backed by provider.
func NewLLMRenderer(provider providers.Provider, model string) *LLMRenderer {
	return &LLMRenderer{provider: provider, model: model}
}

// RenderProse asks the model to write section from content.
func (r *LLMRenderer) RenderProse(ctx context.Context, section string, content any) (string, error) {
	instruction, ok := sectionInstructions[section]
	if !ok {
		return "", fmt.Errorf("unknown prose section %q", section)
	}
	facts, err := json.MarshalIndent(content, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode %s content: %w", section, err)
	}

	resp, err := r.provider.Complete(ctx, &providers.CompletionRequest{
		Model: r.model,
		Messages: []providers.Message{
			{Role: providers.RoleSystem, Content: proseSystemPrompt},
			{Role: providers.RoleUser, Content: instruction + "\n\n" + string(facts)},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return "", &ResponseError{Collaborator: CollaboratorProse, Cause: errors.New("empty completion")}
	}
	return text, nil
}

type fallbackRenderer struct {
	primary  report.ProseRenderer
	fallback report.ProseRenderer
	opts     Options
}

// RendererWithFallback decorates primary so that a failure is answered by
// fallback. With a nil fallback the error is wrapped as a
// *compliance.CollaboratorUnavailableError and the synthesizer flags the
// section for human review.
func RendererWithFallback(primary, fallback report.ProseRenderer, opts Options) report.ProseRenderer {
	return &fallbackRenderer{primary: primary, fallback: fallback, opts: opts}
}

func (f *fallbackRenderer) RenderProse(ctx context.Context, section string, content any) (string, error) {
	ctx, span := f.opts.Tracer.Start(ctx, "report.render_prose")
	defer span.End()

	start := time.Now()
	callCtx := ctx
	if f.opts.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, f.opts.Timeout)
		defer cancel()
	}

	text, err := f.primary.RenderProse(callCtx, section, content)
	if err == nil {
		f.opts.Metrics.RecordAssistantCall(CollaboratorProse, OutcomeSuccess, time.Since(start))
		tracing.SetAssistantAttributes(span, CollaboratorProse, false)
		return text, nil
	}
	f.opts.Metrics.RecordAssistantError(CollaboratorProse, errorType(err))

	if ctx.Err() != nil || f.fallback == nil {
		f.opts.Metrics.RecordAssistantCall(CollaboratorProse, OutcomeError, time.Since(start))
		tracing.SetError(span, err)
		return "", compliance.NewCollaboratorUnavailable(CollaboratorProse, err)
	}

	f.opts.logger().WarnContext(ctx, "prose renderer failed, using fallback",
		"section", section,
		"error_type", errorType(err),
		"error", err,
	)
	tracing.SetAssistantAttributes(span, CollaboratorProse, true)
	text, ferr := f.fallback.RenderProse(ctx, section, content)
	if ferr != nil {
		f.opts.Metrics.RecordAssistantCall(CollaboratorProse, OutcomeError, time.Since(start))
		joined := errors.Join(err, ferr)
		tracing.SetError(span, joined)
		return "", compliance.NewCollaboratorUnavailable(CollaboratorProse, joined)
	}
	f.opts.Metrics.RecordAssistantCall(CollaboratorProse, OutcomeFallback, time.Since(start))
	return text, nil
}
