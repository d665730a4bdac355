package report

import (
	"getgsa/onboarding/pkg/compliance"
)

// HumanReviewMarker replaces prose that could not be produced.
const HumanReviewMarker = "requires human review"

// ChecklistItem is one problem on the compliance checklist.
type ChecklistItem struct {
	RuleID   string                   `json:"rule_id"`
	Code     compliance.ProblemCode   `json:"code"`
	Status   compliance.Status        `json:"status"`
	Evidence string                   `json:"evidence"`
	Reason   compliance.AbstainReason `json:"reason,omitempty"`
	Citation string                   `json:"citation,omitempty"`
}

// Checklist flattens the problems of every finding.
type Checklist struct {
	RequiredOK bool            `json:"required_ok"`
	Items      []ChecklistItem `json:"problems"`
}

// BriefSection summarizes one rule for the internal negotiation brief.
type BriefSection struct {
	RuleID   string                 `json:"rule_id"`
	Title    string                 `json:"title"`
	Status   compliance.Status      `json:"status"`
	Summary  string                 `json:"summary"`
	Code     compliance.ProblemCode `json:"code,omitempty"`
	Problems int                    `json:"problems"`
}

// Brief is the internal negotiation brief.
type Brief struct {
	Sections            []BriefSection `json:"sections"`
	Strengths           []string       `json:"strengths"`
	Risks               []string       `json:"risks"`
	Text                string         `json:"text"`
	RequiresHumanReview bool           `json:"requires_human_review"`
}

// ClientEmail is the message sent to the applicant. It only ever lists
// decided deficiencies.
type ClientEmail struct {
	Recipient           string   `json:"recipient,omitempty"`
	Subject             string   `json:"subject"`
	MissingItems        []string `json:"missing_items"`
	HasActionItems      bool     `json:"has_action_items"`
	Body                string   `json:"body"`
	RequiresHumanReview bool     `json:"requires_human_review"`
}

// Citation quotes the rule text a finding relies on.
type Citation struct {
	RuleID string `json:"rule_id"`
	Chunk  string `json:"chunk"`
}

// Report bundles the three artifacts of an analysis.
type Report struct {
	Checklist   Checklist   `json:"checklist"`
	Brief       Brief       `json:"brief"`
	ClientEmail ClientEmail `json:"client_email"`
	Citations   []Citation  `json:"citations"`
}

// Prose section names passed to a ProseRenderer.
const (
	SectionBrief = "brief"
	SectionEmail = "client_email"
)

// BriefContent is what a renderer receives for the brief section.
type BriefContent struct {
	EntityName string
	RequiredOK bool
	Sections   []BriefSection
	Strengths  []string
	Risks      []string
}

// EmailContent is what a renderer receives for the client email section.
type EmailContent struct {
	EntityName     string
	MissingItems   []string
	HasActionItems bool
	UnderReview    bool
}
