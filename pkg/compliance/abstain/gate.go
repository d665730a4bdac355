// Package abstain converts low-confidence extraction output into explicit
// abstentions.
//
// A value whose confidence is below the gate threshold is never passed on to
// a rule. The gate clears it and records why, so that every rule consuming
// it reports abstain rather than guessing or substituting a default.
package abstain

import (
	"getgsa/onboarding/pkg/compliance"
)

// DefaultThreshold is the confidence below which values are withheld.
const DefaultThreshold = 0.70

// Gate applies the confidence threshold.
type Gate struct {
	Threshold float64
}

// New returns a gate with the given threshold. Non-positive or out of range
// thresholds fall back to DefaultThreshold.
func New(threshold float64) Gate {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	return Gate{Threshold: threshold}
}

// Decision is the result of passing one value through the gate.
type Decision struct {
	// Decided is false when the value was withheld.
	Decided bool

	// Present reports whether the extractor produced any value at all.
	Present bool

	// Value is the accepted value; nil when not decided.
	Value *compliance.Value

	// Reason is set when Decided is false.
	Reason compliance.AbstainReason
}

func (g Gate) threshold() float64 {
	if g.Threshold <= 0 || g.Threshold > 1 {
		return DefaultThreshold
	}
	return g.Threshold
}

// Decide accepts value when confidence reaches the threshold. Otherwise the
// value is withheld with hint as reason when hint is a known reason,
// insufficient_data when there was no value and confidence_too_low
// otherwise.
func (g Gate) Decide(value *compliance.Value, confidence float64, hint compliance.AbstainReason) Decision {
	present := !value.Empty()
	if confidence >= g.threshold() {
		return Decision{Decided: true, Present: present, Value: value}
	}

	reason := compliance.ReasonConfidenceTooLow
	switch {
	case hint.Valid():
		reason = hint
	case !present:
		reason = compliance.ReasonInsufficientData
	}
	return Decision{Decided: false, Present: present, Reason: reason}
}

// Field passes an extracted field through the gate and returns the cleaned
// copy. Sub-threshold fields keep their name and confidence, lose their
// value and gain a reason.
func (g Gate) Field(f compliance.ExtractedField) compliance.ExtractedField {
	d := g.Decide(f.Value, f.Confidence, f.Reason)
	out := compliance.ExtractedField{Name: f.Name, Confidence: f.Confidence}
	if d.Decided {
		out.Value = d.Value
		return out
	}
	out.Reason = d.Reason
	return out
}

// Sanitize returns copies of fields with sub-threshold values cleared.
func (g Gate) Sanitize(fields []compliance.ExtractedField) []compliance.ExtractedField {
	out := make([]compliance.ExtractedField, len(fields))
	for i, f := range fields {
		out[i] = g.Field(f)
	}
	return out
}

// Confident reports whether confidence meets the threshold.
func (g Gate) Confident(confidence float64) bool {
	return confidence >= g.threshold()
}

// Classify forces the unknown classification when confidence is below the
// threshold.
func (g Gate) Classify(class compliance.Classification, confidence float64) (compliance.Classification, compliance.AbstainReason) {
	if confidence < g.threshold() || !class.Valid() {
		return compliance.ClassUnknown, compliance.ReasonAmbiguousContent
	}
	return class, ""
}

// Document returns a copy of doc with its classification and fields gated.
func (g Gate) Document(doc compliance.DocumentRecord) compliance.DocumentRecord {
	out := doc
	out.Classification, _ = g.Classify(doc.Classification, doc.ClassificationConfidence)
	out.Fields = g.Sanitize(doc.Fields)
	return out
}
