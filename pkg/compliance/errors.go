package compliance

import (
	"fmt"
	"strings"
)

// FieldError describes one invalid part of an evaluation request.
type FieldError struct {
	// Field is the dotted path to the offending value (e.g. "documents[2].fields[0].confidence").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError is returned when an evaluation request is malformed. No
// rule runs when validation fails.
type ValidationError struct {
	Errors []FieldError
}

// Error returns a formatted string containing all field errors.
func (e *ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "invalid evaluation request"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("invalid evaluation request: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "invalid evaluation request with %d errors:\n", len(e.Errors))
	for _, err := range e.Errors {
		fmt.Fprintf(&sb, "  - %s\n", err.Error())
	}
	return sb.String()
}

// Add appends a field error.
func (e *ValidationError) Add(field, format string, args ...any) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// Err returns e when it holds at least one field error, nil otherwise.
func (e *ValidationError) Err() error {
	if e == nil || len(e.Errors) == 0 {
		return nil
	}
	return e
}

// CollaboratorUnavailableError reports that an injected collaborator (field
// extractor, prose renderer) failed or timed out.
type CollaboratorUnavailableError struct {
	Collaborator string
	Cause        error
}

// Error implements the error interface.
func (e *CollaboratorUnavailableError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s unavailable", e.Collaborator)
	}
	return fmt.Sprintf("%s unavailable: %v", e.Collaborator, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *CollaboratorUnavailableError) Unwrap() error {
	return e.Cause
}

// NewCollaboratorUnavailable wraps cause as a CollaboratorUnavailableError.
func NewCollaboratorUnavailable(collaborator string, cause error) *CollaboratorUnavailableError {
	return &CollaboratorUnavailableError{Collaborator: collaborator, Cause: cause}
}

// Validate checks the structural invariants of a document set: confidences
// in [0,1], known classifications, non-empty field names and value kinds
// that match the field they are attached to.
func Validate(docs []DocumentRecord) error {
	verr := &ValidationError{}
	if len(docs) == 0 {
		verr.Add("documents", "at least one document is required")
		return verr
	}
	seen := make(map[string]bool, len(docs))
	for i, d := range docs {
		path := fmt.Sprintf("documents[%d]", i)
		if d.ID != "" {
			if seen[d.ID] {
				verr.Add(path+".id", "duplicate document id %q", d.ID)
			}
			seen[d.ID] = true
		}
		if !d.Classification.Valid() {
			verr.Add(path+".classification", "unknown classification %q", d.Classification)
		}
		if !validConfidence(d.ClassificationConfidence) {
			verr.Add(path+".classification_confidence", "must be between 0 and 1, got %v", d.ClassificationConfidence)
		}
		for j, f := range d.Fields {
			fpath := fmt.Sprintf("%s.fields[%d]", path, j)
			if strings.TrimSpace(f.Name) == "" {
				verr.Add(fpath+".name", "field name is required")
			}
			if !validConfidence(f.Confidence) {
				verr.Add(fpath+".confidence", "must be between 0 and 1, got %v", f.Confidence)
			}
			if f.Reason != "" && !f.Reason.Valid() {
				verr.Add(fpath+".reason", "unknown abstain reason %q", f.Reason)
			}
			if f.Value != nil {
				if want, ok := fieldKinds[f.Name]; ok && f.Value.Kind != want {
					verr.Add(fpath+".value", "field %s must be of kind %s, got %s", f.Name, want, f.Value.Kind)
				}
			}
		}
	}
	return verr.Err()
}

var fieldKinds = map[string]ValueKind{
	FieldUEI:             KindString,
	FieldDUNS:            KindString,
	FieldSAMStatus:       KindString,
	FieldEntityName:      KindString,
	FieldNAICS:           KindList,
	FieldPastPerformance: KindProjects,
	FieldPricing:         KindLabor,
	FieldTotalValue:      KindNumber,
	FieldPOCEmail:        KindString,
	FieldPOCPhone:        KindString,
}

func validConfidence(c float64) bool {
	return c >= 0 && c <= 1
}
