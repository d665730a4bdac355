package analysis

import (
	"fmt"
)

// Pipeline stages reported by AnalysisError.
const (
	StageLoad       = "load"
	StageExtract    = "extract"
	StageEvaluate   = "evaluate"
	StageSynthesize = "synthesize"
	StageDigest     = "digest"
	StageStore      = "store"
)

// AnalysisError reports a failed analysis run. The request is marked as
// errored in the store whenever one is returned after loading succeeded.
type AnalysisError struct {
	RequestID string
	Stage     string
	Cause     error
}

// Error implements the error interface.
func (e *AnalysisError) Error() string {
	return fmt.Sprintf("analysis %s failed at %s: %v", e.RequestID, e.Stage, e.Cause)
}

// Unwrap returns the underlying error.
func (e *AnalysisError) Unwrap() error {
	return e.Cause
}

// NewAnalysisError creates a new analysis error.
func NewAnalysisError(requestID, stage string, cause error) *AnalysisError {
	return &AnalysisError{
		RequestID: requestID,
		Stage:     stage,
		Cause:     cause,
	}
}
