package rules

import (
	"sort"

	"getgsa/onboarding/pkg/compliance"
	"getgsa/onboarding/pkg/compliance/abstain"
)

// Occurrence is one gated appearance of a field in a document.
type Occurrence struct {
	DocumentID   string
	DocumentName string
	Value        *compliance.Value
	Confidence   float64
	Reason       compliance.AbstainReason
}

// Withheld reports whether the gate cleared the value.
func (o Occurrence) Withheld() bool {
	return o.Reason != ""
}

// MergedField is the request-level view of one field name across all
// documents.
type MergedField struct {
	Name        string
	Occurrences []Occurrence

	// Value is the merged decided value. For scalar fields it is set only
	// when every decided occurrence agrees; for list-like fields it is the
	// union of all decided occurrences in document order.
	Value *compliance.Value

	// Reason is set when the merged field cannot be used as decided: either
	// an occurrence was withheld or decided scalar values disagree.
	Reason compliance.AbstainReason
}

// Missing reports whether no document carried the field at all.
func (m MergedField) Missing() bool {
	return len(m.Occurrences) == 0
}

// Abstained reports whether the merged field must not be decided on.
func (m MergedField) Abstained() bool {
	return m.Reason != ""
}

// AnyWithheld reports whether any occurrence was withheld by the gate.
func (m MergedField) AnyWithheld() (compliance.AbstainReason, bool) {
	for _, o := range m.Occurrences {
		if o.Withheld() {
			return o.Reason, true
		}
	}
	return "", false
}

// Decided returns the decided occurrences.
func (m MergedField) Decided() []Occurrence {
	var out []Occurrence
	for _, o := range m.Occurrences {
		if !o.Withheld() {
			out = append(out, o)
		}
	}
	return out
}

// FieldSet is the merged, gated set of fields of one request.
type FieldSet struct {
	fields map[string]*MergedField
}

// listKinds are merged by union rather than compared.
var listKinds = map[compliance.ValueKind]bool{
	compliance.KindList:     true,
	compliance.KindProjects: true,
	compliance.KindLabor:    true,
}

// NewFieldSet gates every field of docs and merges them by name.
//
// A scalar field abstains with conflicting_information when two documents
// carry different decided values, except entity_name whose cross-document
// agreement is itself a rule check. Any withheld occurrence makes the merged
// field abstain with that occurrence's reason, since the withheld value may
// have disagreed with the decided ones.
func NewFieldSet(docs []compliance.DocumentRecord, gate abstain.Gate) FieldSet {
	fs := FieldSet{fields: make(map[string]*MergedField)}
	for _, doc := range docs {
		for _, f := range gate.Sanitize(doc.Fields) {
			m, ok := fs.fields[f.Name]
			if !ok {
				m = &MergedField{Name: f.Name}
				fs.fields[f.Name] = m
			}
			m.Occurrences = append(m.Occurrences, Occurrence{
				DocumentID:   doc.ID,
				DocumentName: doc.Name,
				Value:        f.Value,
				Confidence:   f.Confidence,
				Reason:       f.Reason,
			})
		}
	}
	for _, m := range fs.fields {
		m.merge()
	}
	return fs
}

func (m *MergedField) merge() {
	if reason, ok := m.AnyWithheld(); ok {
		m.Reason = reason
	}
	for _, o := range m.Decided() {
		if o.Value.Empty() {
			continue
		}
		if m.Value == nil {
			m.Value = cloneValue(o.Value)
			continue
		}
		if listKinds[o.Value.Kind] && o.Value.Kind == m.Value.Kind {
			unionInto(m.Value, o.Value)
			continue
		}
		if m.Name == compliance.FieldEntityName {
			continue
		}
		if !m.Value.Equal(o.Value) && m.Reason == "" {
			m.Reason = compliance.ReasonConflictingInformation
		}
	}
}

func cloneValue(v *compliance.Value) *compliance.Value {
	c := *v
	c.Items = append([]string(nil), v.Items...)
	c.Projects = append([]compliance.Project(nil), v.Projects...)
	c.Labor = append([]compliance.LaborCategory(nil), v.Labor...)
	return &c
}

func unionInto(dst, src *compliance.Value) {
	switch dst.Kind {
	case compliance.KindList:
		seen := make(map[string]bool, len(dst.Items))
		for _, it := range dst.Items {
			seen[it] = true
		}
		for _, it := range src.Items {
			if !seen[it] {
				dst.Items = append(dst.Items, it)
				seen[it] = true
			}
		}
	case compliance.KindProjects:
		dst.Projects = append(dst.Projects, src.Projects...)
	case compliance.KindLabor:
		dst.Labor = append(dst.Labor, src.Labor...)
	}
}

// Get returns the merged field for name. A field no document carried is
// returned with no occurrences.
func (fs FieldSet) Get(name string) MergedField {
	if m, ok := fs.fields[name]; ok {
		return *m
	}
	return MergedField{Name: name}
}

// Confidences returns the confidence of every occurrence of every field,
// ordered by field name.
func (fs FieldSet) Confidences() []float64 {
	names := make([]string, 0, len(fs.fields))
	for name := range fs.fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []float64
	for _, name := range names {
		for _, o := range fs.fields[name].Occurrences {
			out = append(out, o.Confidence)
		}
	}
	return out
}
