package report

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"getgsa/onboarding/pkg/compliance"
	"getgsa/onboarding/pkg/compliance/abstain"
	"getgsa/onboarding/pkg/compliance/rules"
)

// clientActions phrases each problem code as a request to the applicant.
var clientActions = map[compliance.ProblemCode]string{
	compliance.CodeMissingUEI:              "A valid 12-character Unique Entity Identifier (UEI)",
	compliance.CodeMissingDUNS:             "A valid 9-digit DUNS number",
	compliance.CodeSAMInactive:             "Proof of an active SAM.gov registration",
	compliance.CodeMissingEntityName:       "Your legal entity name as registered in SAM.gov",
	compliance.CodeEntityNameMismatch:      "A consistent legal entity name across all documents",
	compliance.CodeMissingNAICS:            "The NAICS codes your offer covers",
	compliance.CodeNAICSSINMappingError:    "NAICS codes that map to a Special Item Number (SIN) on this schedule",
	compliance.CodePastPerformanceMinValue: "At least one past performance project valued at $25,000 or more",
	compliance.CodePastPerformanceOutdated: "At least one past performance project completed within the last 36 months",
	compliance.CodePricingIncomplete:       "Pricing with labor categories, hourly rates and hours or total value",
	compliance.CodePIINotRedacted:          "Documents with all personal information (emails, phone numbers, SSNs) redacted",
}

// Synthesizer builds the checklist, brief and client email for a verdict.
type Synthesizer struct {
	// Pack supplies rule titles and citation text. DefaultPack is used when nil.
	Pack *rules.RulePack

	// Renderer produces prose. A TemplateRenderer is used when nil.
	Renderer ProseRenderer

	// Gate decides which extracted fields may address the client email. It
	// must be the gate the verdict was evaluated with; the pack gate is used
	// when Threshold is zero.
	Gate abstain.Gate

	Logger *slog.Logger
}

// NewSynthesizer returns a synthesizer for pack using renderer.
func NewSynthesizer(pack *rules.RulePack, renderer ProseRenderer, logger *slog.Logger) *Synthesizer {
	return &Synthesizer{Pack: pack, Renderer: renderer, Logger: logger}
}

func (s *Synthesizer) pack() *rules.RulePack {
	if s.Pack == nil {
		return rules.DefaultPack()
	}
	return s.Pack
}

func (s *Synthesizer) gate(pack *rules.RulePack) abstain.Gate {
	if s.Gate.Threshold > 0 {
		return s.Gate
	}
	return pack.Gate()
}

func (s *Synthesizer) renderer() ProseRenderer {
	if s.Renderer == nil {
		return NewTemplateRenderer()
	}
	return s.Renderer
}

func (s *Synthesizer) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default().With("component", "report")
	}
	return s.Logger
}

// Synthesize builds the report. fields are the extracted fields of the
// request; only decided entity name and POC email values are used, for
// addressing. A renderer failure flags the affected section for human review
// instead of failing the report; the only error returned is ctx's.
func (s *Synthesizer) Synthesize(ctx context.Context, verdict compliance.ComplianceVerdict, fields []compliance.ExtractedField) (Report, error) {
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}
	pack := s.pack()
	entity, recipient := addressing(fields, s.gate(pack))

	rep := Report{
		Checklist: BuildChecklist(verdict, pack),
		Citations: BuildCitations(verdict, pack),
	}

	rep.Brief = BuildBrief(verdict, pack)
	text, err := s.renderer().RenderProse(ctx, SectionBrief, BriefContent{
		EntityName: entity,
		RequiredOK: verdict.RequiredOK,
		Sections:   rep.Brief.Sections,
		Strengths:  rep.Brief.Strengths,
		Risks:      rep.Brief.Risks,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Report{}, ctxErr
		}
		s.logger().Warn("Brief prose unavailable", "error", err)
		text = HumanReviewMarker
		rep.Brief.RequiresHumanReview = true
	}
	rep.Brief.Text = text

	rep.ClientEmail = BuildClientEmail(verdict)
	rep.ClientEmail.Recipient = recipient
	body, err := s.renderer().RenderProse(ctx, SectionEmail, EmailContent{
		EntityName:     entity,
		MissingItems:   rep.ClientEmail.MissingItems,
		HasActionItems: rep.ClientEmail.HasActionItems,
		UnderReview:    verdict.HasAbstentions(),
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Report{}, ctxErr
		}
		s.logger().Warn("Client email prose unavailable", "error", err)
		body = HumanReviewMarker
		rep.ClientEmail.RequiresHumanReview = true
	}
	rep.ClientEmail.Body = body

	return rep, nil
}

// addressing returns the decided entity name and POC email, skipping values
// that are redaction placeholders.
func addressing(fields []compliance.ExtractedField, gate abstain.Gate) (entity, recipient string) {
	for _, f := range gate.Sanitize(fields) {
		if f.Value == nil || f.Value.Kind != compliance.KindString {
			continue
		}
		v := strings.TrimSpace(f.Value.Text)
		if v == "" || strings.Contains(v, "_REDACTED]") {
			continue
		}
		switch f.Name {
		case compliance.FieldEntityName:
			if entity == "" {
				entity = v
			}
		case compliance.FieldPOCEmail:
			if recipient == "" {
				recipient = v
			}
		}
	}
	return entity, recipient
}

// BuildChecklist flattens every problem of every finding, in rule order.
func BuildChecklist(verdict compliance.ComplianceVerdict, pack *rules.RulePack) Checklist {
	cl := Checklist{RequiredOK: verdict.RequiredOK, Items: []ChecklistItem{}}
	for _, f := range verdict.Findings {
		citation := ""
		if r, ok := pack.Rule(f.RuleID); ok {
			citation = r.Description
		}
		for _, p := range f.Problems {
			status := compliance.StatusFail
			if p.Abstained {
				status = compliance.StatusAbstain
			}
			cl.Items = append(cl.Items, ChecklistItem{
				RuleID:   f.RuleID,
				Code:     p.Code,
				Status:   status,
				Evidence: p.Evidence,
				Reason:   p.Reason,
				Citation: citation,
			})
		}
	}
	return cl
}

// BuildCitations quotes the rule text of every evaluated rule.
func BuildCitations(verdict compliance.ComplianceVerdict, pack *rules.RulePack) []Citation {
	out := make([]Citation, 0, len(verdict.Findings))
	for _, f := range verdict.Findings {
		if r, ok := pack.Rule(f.RuleID); ok {
			out = append(out, Citation{RuleID: r.ID, Chunk: r.Description})
		}
	}
	return out
}

// mostSevere returns the problem that best summarizes a finding: a decided
// problem when one exists, otherwise the first abstained one.
func mostSevere(f compliance.RuleFinding) (compliance.Problem, bool) {
	for _, p := range f.Problems {
		if !p.Abstained {
			return p, true
		}
	}
	if len(f.Problems) > 0 {
		return f.Problems[0], true
	}
	return compliance.Problem{}, false
}

// BuildBrief builds the brief sections, ordered fail, abstain, pass and then
// by rule id, together with strengths and risks. The prose text is left
// empty. On a degraded verdict, sections that abstained for lack of data are
// marked for human review.
func BuildBrief(verdict compliance.ComplianceVerdict, pack *rules.RulePack) Brief {
	b := Brief{Sections: []BriefSection{}, Strengths: []string{}, Risks: []string{}}
	for _, f := range verdict.Findings {
		title := f.RuleID
		if r, ok := pack.Rule(f.RuleID); ok {
			title = r.Title
		}
		sec := BriefSection{RuleID: f.RuleID, Title: title, Status: f.Status, Problems: len(f.Problems)}
		p, ok := mostSevere(f)
		switch f.Status {
		case compliance.StatusPass:
			sec.Summary = "meets requirements"
			b.Strengths = append(b.Strengths, fmt.Sprintf("%s %s meets requirements", f.RuleID, title))
		case compliance.StatusFail:
			sec.Code = p.Code
			sec.Summary = p.Evidence
			b.Risks = append(b.Risks, fmt.Sprintf("%s %s: %s", f.RuleID, title, p.Evidence))
		case compliance.StatusAbstain:
			sec.Code = p.Code
			sec.Summary = fmt.Sprintf("not decided (%s): %s", p.Reason, p.Evidence)
			b.Risks = append(b.Risks, fmt.Sprintf("%s %s needs manual verification: %s", f.RuleID, title, p.Evidence))
		}
		if !ok && f.Status != compliance.StatusPass {
			sec.Summary = HumanReviewMarker
		}
		if verdict.Degraded && f.Status == compliance.StatusAbstain && p.Reason == compliance.ReasonInsufficientData {
			sec.Summary = HumanReviewMarker
			b.RequiresHumanReview = true
		}
		b.Sections = append(b.Sections, sec)
	}

	sort.SliceStable(b.Sections, func(i, j int) bool {
		si, sj := b.Sections[i].Status.Severity(), b.Sections[j].Status.Severity()
		if si != sj {
			return si > sj
		}
		return b.Sections[i].RuleID < b.Sections[j].RuleID
	})
	return b
}

// BuildClientEmail selects the action items for the applicant: decided
// problems of failed findings only, one per problem code, in rule order.
// The body is left empty. A degraded verdict with abstentions may be missing
// action items, so the email is flagged for human review.
func BuildClientEmail(verdict compliance.ComplianceVerdict) ClientEmail {
	email := ClientEmail{
		Subject:             "GSA onboarding submission review",
		MissingItems:        []string{},
		RequiresHumanReview: verdict.Degraded && verdict.HasAbstentions(),
	}
	seen := make(map[compliance.ProblemCode]bool)
	for _, f := range verdict.Findings {
		if f.Status != compliance.StatusFail {
			continue
		}
		for _, p := range f.Problems {
			if p.Abstained || seen[p.Code] {
				continue
			}
			seen[p.Code] = true
			item, ok := clientActions[p.Code]
			if !ok {
				item = string(p.Code)
			}
			email.MissingItems = append(email.MissingItems, fmt.Sprintf("%s (%s)", item, f.RuleID))
		}
	}
	email.HasActionItems = len(email.MissingItems) > 0
	if email.HasActionItems {
		email.Subject = "Action required: GSA onboarding submission"
	}
	return email
}
