package compliance

import (
	"strings"
	"time"
)

// Field names produced by the extractors and consumed by the rules.
const (
	FieldUEI             = "uei"
	FieldDUNS            = "duns"
	FieldSAMStatus       = "sam_status"
	FieldEntityName      = "entity_name"
	FieldNAICS           = "naics"
	FieldPastPerformance = "past_performance"
	FieldPricing         = "pricing"
	FieldTotalValue      = "total_value"
	FieldPOCEmail        = "poc_email"
	FieldPOCPhone        = "poc_phone"
)

// Classification is the detected type of an onboarding document.
type Classification string

const (
	ClassProfile         Classification = "profile"
	ClassPastPerformance Classification = "past_performance"
	ClassPricing         Classification = "pricing"
	ClassUnknown         Classification = "unknown"
)

// Valid reports whether c is one of the known classifications.
func (c Classification) Valid() bool {
	switch c {
	case ClassProfile, ClassPastPerformance, ClassPricing, ClassUnknown:
		return true
	}
	return false
}

// AbstainReason explains why a value or decision was withheld.
type AbstainReason string

const (
	ReasonConfidenceTooLow       AbstainReason = "confidence_too_low"
	ReasonInsufficientData       AbstainReason = "insufficient_data"
	ReasonConflictingInformation AbstainReason = "conflicting_information"
	ReasonAmbiguousContent       AbstainReason = "ambiguous_content"
)

// Valid reports whether r belongs to the fixed reason vocabulary.
func (r AbstainReason) Valid() bool {
	switch r {
	case ReasonConfidenceTooLow, ReasonInsufficientData, ReasonConflictingInformation, ReasonAmbiguousContent:
		return true
	}
	return false
}

// ValueKind tags the variant held by a Value.
type ValueKind string

const (
	KindString   ValueKind = "string"
	KindNumber   ValueKind = "number"
	KindList     ValueKind = "list"
	KindProjects ValueKind = "projects"
	KindLabor    ValueKind = "labor"
)

// Value is the payload of an extracted field. Only the member matching Kind
// is meaningful.
type Value struct {
	Kind     ValueKind       `json:"kind"`
	Text     string          `json:"text,omitempty"`
	Number   float64         `json:"number,omitempty"`
	Items    []string        `json:"items,omitempty"`
	Projects []Project       `json:"projects,omitempty"`
	Labor    []LaborCategory `json:"labor,omitempty"`
}

// StringValue returns a string-kind value.
func StringValue(s string) *Value {
	return &Value{Kind: KindString, Text: s}
}

// NumberValue returns a number-kind value.
func NumberValue(n float64) *Value {
	return &Value{Kind: KindNumber, Number: n}
}

// ListValue returns a list-kind value holding a copy of items.
func ListValue(items ...string) *Value {
	return &Value{Kind: KindList, Items: append([]string(nil), items...)}
}

// ProjectsValue returns a projects-kind value.
func ProjectsValue(projects ...Project) *Value {
	return &Value{Kind: KindProjects, Projects: append([]Project(nil), projects...)}
}

// LaborValue returns a labor-kind value.
func LaborValue(labor ...LaborCategory) *Value {
	return &Value{Kind: KindLabor, Labor: append([]LaborCategory(nil), labor...)}
}

// Empty reports whether the value carries no usable content.
func (v *Value) Empty() bool {
	if v == nil {
		return true
	}
	switch v.Kind {
	case KindString:
		return strings.TrimSpace(v.Text) == ""
	case KindList:
		return len(v.Items) == 0
	case KindProjects:
		return len(v.Projects) == 0
	case KindLabor:
		return len(v.Labor) == 0
	}
	return false
}

// Equal reports whether two scalar values are the same. Lists are compared
// element-wise. Projects and labor values are merged, never compared, and
// always report false.
func (v *Value) Equal(o *Value) bool {
	if v == nil || o == nil {
		return v == o
	}
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindString:
		return strings.TrimSpace(v.Text) == strings.TrimSpace(o.Text)
	case KindNumber:
		return v.Number == o.Number
	case KindList:
		if len(v.Items) != len(o.Items) {
			return false
		}
		for i := range v.Items {
			if v.Items[i] != o.Items[i] {
				return false
			}
		}
		return true
	}
	return false
}

// Project is a past-performance engagement listed by the applicant.
type Project struct {
	Title          string     `json:"title,omitempty"`
	Client         string     `json:"client,omitempty"`
	Value          *float64   `json:"value"`
	CompletionDate *time.Time `json:"completion_date"`
	Duration       string     `json:"duration,omitempty"`
	Scope          string     `json:"scope,omitempty"`
}

// LaborCategory is one priced labor line from a pricing sheet.
type LaborCategory struct {
	Category string   `json:"labor_category"`
	Rate     *float64 `json:"rate"`
	Hours    *float64 `json:"hours"`
	Total    *float64 `json:"total"`
	Unit     string   `json:"unit,omitempty"`
}

// ExtractedField is a single named value produced by a field extractor.
// Value is nil whenever Confidence is below the abstain threshold once the
// field has passed through the abstention gate.
type ExtractedField struct {
	Name       string        `json:"name"`
	Value      *Value        `json:"value"`
	Confidence float64       `json:"confidence"`
	Reason     AbstainReason `json:"reason,omitempty"`
}

// PIIEntry is one item of personal data found in a document before
// redaction. Value is only ever held in memory; persisted manifests carry the
// keyed Fingerprint and Length instead.
type PIIEntry struct {
	Type        string `json:"type"`
	Value       string `json:"-"`
	Fingerprint string `json:"fingerprint,omitempty"`
	Length      int    `json:"length"`
}

// PIIManifest lists the personal data removed from a document.
type PIIManifest struct {
	Entries []PIIEntry `json:"entries"`
}

// CountByType returns the number of manifest entries per PII type.
func (m PIIManifest) CountByType() map[string]int {
	counts := make(map[string]int)
	for _, e := range m.Entries {
		counts[e.Type]++
	}
	return counts
}

// DocumentRecord is one ingested document after redaction and extraction.
type DocumentRecord struct {
	ID                       string           `json:"id"`
	Name                     string           `json:"name,omitempty"`
	Classification           Classification   `json:"classification"`
	ClassificationConfidence float64          `json:"classification_confidence"`
	RedactedText             string           `json:"redacted_text"`
	PIIManifest              PIIManifest      `json:"pii_manifest"`
	Fields                   []ExtractedField `json:"fields"`

	// ExtractionError is set when the extractor collaborator was unavailable
	// for this document. Fields holds whatever was extracted before the
	// failure, possibly nothing.
	ExtractionError string `json:"extraction_error,omitempty"`
}

// Degraded reports whether extraction for the document failed.
func (d DocumentRecord) Degraded() bool {
	return d.ExtractionError != ""
}

// Status is the outcome of a single rule.
type Status string

const (
	StatusPass    Status = "pass"
	StatusFail    Status = "fail"
	StatusAbstain Status = "abstain"
)

// Severity orders statuses for presentation: fail > abstain > pass.
func (s Status) Severity() int {
	switch s {
	case StatusFail:
		return 2
	case StatusAbstain:
		return 1
	}
	return 0
}

// ProblemCode is the standardized identifier of a compliance problem.
type ProblemCode string

const (
	CodeMissingUEI              ProblemCode = "missing_uei"
	CodeMissingDUNS             ProblemCode = "missing_duns"
	CodeSAMInactive             ProblemCode = "sam_inactive"
	CodeMissingEntityName       ProblemCode = "missing_entity_name"
	CodeEntityNameMismatch      ProblemCode = "entity_name_mismatch"
	CodeMissingNAICS            ProblemCode = "missing_naics"
	CodeNAICSSINMappingError    ProblemCode = "naics_sin_mapping_error"
	CodePastPerformanceMinValue ProblemCode = "past_performance_min_value_not_met"
	CodePastPerformanceOutdated ProblemCode = "past_performance_outdated"
	CodePricingIncomplete       ProblemCode = "pricing_incomplete"
	CodePIINotRedacted          ProblemCode = "pii_not_redacted"
)

// Problem is a single deficiency reported by a rule. An abstained problem
// names the check that could not be decided and why.
type Problem struct {
	Code      ProblemCode   `json:"code"`
	RuleID    string        `json:"rule_id"`
	Evidence  string        `json:"evidence"`
	Abstained bool          `json:"abstained,omitempty"`
	Reason    AbstainReason `json:"reason,omitempty"`
}

// RuleFinding is the result of evaluating one rule.
type RuleFinding struct {
	RuleID   string    `json:"rule_id"`
	Status   Status    `json:"status"`
	Problems []Problem `json:"problems"`
}

// NewFinding derives the finding status from its problems: any decided
// problem fails the rule, otherwise any abstained problem abstains it.
func NewFinding(ruleID string, problems []Problem) RuleFinding {
	status := StatusPass
	for _, p := range problems {
		if !p.Abstained {
			status = StatusFail
			break
		}
		status = StatusAbstain
	}
	if problems == nil {
		problems = []Problem{}
	}
	return RuleFinding{RuleID: ruleID, Status: status, Problems: problems}
}

// ComplianceVerdict is the engine's answer for one analysis request.
type ComplianceVerdict struct {
	RequiredOK        bool          `json:"required_ok"`
	Findings          []RuleFinding `json:"findings"`
	OverallConfidence float64       `json:"overall_confidence"`
	PackVersion       string        `json:"pack_version"`
	EvaluatedAt       time.Time     `json:"evaluated_at"`
	Degraded          bool          `json:"degraded,omitempty"`
}

// HasAbstentions reports whether any finding abstained.
func (v ComplianceVerdict) HasAbstentions() bool {
	for _, f := range v.Findings {
		if f.Status == StatusAbstain {
			return true
		}
	}
	return false
}

// Finding returns the finding for ruleID.
func (v ComplianceVerdict) Finding(ruleID string) (RuleFinding, bool) {
	for _, f := range v.Findings {
		if f.RuleID == ruleID {
			return f, true
		}
	}
	return RuleFinding{}, false
}

// RequiredOK computes the overall verdict: true iff no finding failed.
func RequiredOK(findings []RuleFinding) bool {
	for _, f := range findings {
		if f.Status == StatusFail {
			return false
		}
	}
	return true
}
