package rules

import (
	"fmt"
	"math"
	"time"

	"getgsa/onboarding/pkg/compliance"
	"getgsa/onboarding/pkg/compliance/abstain"
)

// noDataEvidence is the evidence recorded when no document carried a field.
const noDataEvidence = "no data provided"

// Fingerprinter computes the keyed fingerprint of a PII value. It must match
// the function that produced the manifest fingerprints.
type Fingerprinter interface {
	Fingerprint(value string) string
}

// Detector finds personal data in text. It is used to re-scan redacted text
// when manifests only carry fingerprints.
type Detector interface {
	Detect(text string) []compliance.PIIEntry
}

// EvalContext is everything a rule may look at.
type EvalContext struct {
	Pack      *RulePack
	Documents []compliance.DocumentRecord
	Fields    FieldSet
	Now       time.Time

	// Degraded is true when the extractor failed for at least one document.
	Degraded bool

	Fingerprinter Fingerprinter
	Detector      Detector
}

// missing builds the problem reported when a field is absent from every
// document. When extraction was degraded the absence is not attributable to
// the applicant and the check abstains.
func (c *EvalContext) missing(ruleID string, code compliance.ProblemCode) compliance.Problem {
	p := compliance.Problem{Code: code, RuleID: ruleID, Evidence: noDataEvidence}
	if c.Degraded {
		p.Abstained = true
		p.Reason = compliance.ReasonInsufficientData
	}
	return p
}

// abstained builds an abstained problem for a check that depends on a
// withheld input.
func abstained(ruleID string, code compliance.ProblemCode, reason compliance.AbstainReason, evidence string) compliance.Problem {
	if !reason.Valid() {
		reason = compliance.ReasonInsufficientData
	}
	return compliance.Problem{Code: code, RuleID: ruleID, Evidence: evidence, Abstained: true, Reason: reason}
}

func failed(ruleID string, code compliance.ProblemCode, evidence string) compliance.Problem {
	return compliance.Problem{Code: code, RuleID: ruleID, Evidence: evidence}
}

// Evaluator runs a rule pack over a set of documents.
type Evaluator struct {
	// Pack is the rule pack to evaluate. DefaultPack is used when nil.
	Pack *RulePack

	// Gate overrides the pack threshold when its Threshold is set.
	Gate abstain.Gate

	// Now supplies the analysis time used for recency checks. It is called
	// once per evaluation.
	Now func() time.Time

	Fingerprinter Fingerprinter
	Detector      Detector
}

// NewEvaluator returns an evaluator for pack using the real clock.
func NewEvaluator(pack *RulePack) *Evaluator {
	return &Evaluator{Pack: pack, Now: time.Now}
}

func (e *Evaluator) pack() *RulePack {
	if e.Pack == nil {
		return DefaultPack()
	}
	return e.Pack
}

func (e *Evaluator) gate(p *RulePack) abstain.Gate {
	if e.Gate.Threshold > 0 {
		return abstain.New(e.Gate.Threshold)
	}
	return p.Gate()
}

// Evaluate validates docs, then runs every rule of the pack in order. The
// returned verdict depends only on docs, the pack and the injected clock.
func (e *Evaluator) Evaluate(docs []compliance.DocumentRecord) (compliance.ComplianceVerdict, error) {
	if err := compliance.Validate(docs); err != nil {
		return compliance.ComplianceVerdict{}, err
	}

	pack := e.pack()
	gate := e.gate(pack)
	if err := checkUnknownConfidence(docs, gate); err != nil {
		return compliance.ComplianceVerdict{}, err
	}
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	at := now().UTC()

	degraded := false
	for _, d := range docs {
		if d.Degraded() {
			degraded = true
			break
		}
	}

	ctx := &EvalContext{
		Pack:          pack,
		Documents:     docs,
		Fields:        NewFieldSet(docs, gate),
		Now:           at,
		Degraded:      degraded,
		Fingerprinter: e.Fingerprinter,
		Detector:      e.Detector,
	}

	findings := make([]compliance.RuleFinding, 0, len(pack.Rules))
	for _, r := range pack.Rules {
		f := r.Evaluate(ctx)
		f.RuleID = r.ID
		findings = append(findings, f)
	}

	return compliance.ComplianceVerdict{
		RequiredOK:        compliance.RequiredOK(findings),
		Findings:          findings,
		OverallConfidence: overallConfidence(ctx.Fields.Confidences()),
		PackVersion:       pack.Version,
		EvaluatedAt:       at,
		Degraded:          degraded,
	}, nil
}

// overallConfidence is the mean extraction confidence rounded to four
// decimals, or zero when nothing was extracted.
func overallConfidence(confidences []float64) float64 {
	if len(confidences) == 0 {
		return 0
	}
	var sum float64
	for _, c := range confidences {
		sum += c
	}
	return math.Round(sum/float64(len(confidences))*10000) / 10000
}

// checkUnknownConfidence rejects documents classified unknown at a confidence
// the gate would accept; unknown is only valid below the threshold.
func checkUnknownConfidence(docs []compliance.DocumentRecord, gate abstain.Gate) error {
	verr := &compliance.ValidationError{}
	for i, d := range docs {
		if d.Classification == compliance.ClassUnknown && gate.Confident(d.ClassificationConfidence) {
			verr.Add(fmt.Sprintf("documents[%d].classification_confidence", i),
				"unknown classification requires confidence below %v, got %v", gate.Threshold, d.ClassificationConfidence)
		}
	}
	return verr.Err()
}
