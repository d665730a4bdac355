package extraction

import (
	"errors"
	"fmt"

	"getgsa/onboarding/pkg/providers"
)

// ErrorTypeInvalidResponse labels model output that could not be used.
const ErrorTypeInvalidResponse = "invalid_response"

// ResponseError reports model output that is not JSON, does not match the
// extraction schema, or is empty.
type ResponseError struct {
	Collaborator string
	Cause        error
}

// Error implements the error interface.
func (e *ResponseError) Error() string {
	return fmt.Sprintf("invalid %s response: %v", e.Collaborator, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *ResponseError) Unwrap() error {
	return e.Cause
}

// errorType classifies err for metrics.
func errorType(err error) string {
	var respErr *ResponseError
	if errors.As(err, &respErr) {
		return ErrorTypeInvalidResponse
	}
	return providers.ErrorType(err)
}
