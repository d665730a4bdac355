package logging

import (
	"context"
)

type contextKey string

const (
	// RequestIDKey is the context key for HTTP request IDs.
	RequestIDKey contextKey = "request_id"

	// AnalysisIDKey is the context key for the id of the document request
	// being ingested or analyzed.
	AnalysisIDKey contextKey = "analysis_id"

	// SubjectKey is the context key for the authenticated caller.
	SubjectKey contextKey = "subject"
)

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// WithAnalysisID adds a document request ID to the context.
func WithAnalysisID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, AnalysisIDKey, id)
}

// GetAnalysisID retrieves the document request ID from the context.
func GetAnalysisID(ctx context.Context) string {
	if id, ok := ctx.Value(AnalysisIDKey).(string); ok {
		return id
	}
	return ""
}

// WithSubject adds the authenticated caller to the context.
func WithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, SubjectKey, subject)
}

// GetSubject retrieves the authenticated caller from the context.
func GetSubject(ctx context.Context) string {
	if s, ok := ctx.Value(SubjectKey).(string); ok {
		return s
	}
	return ""
}

// extractContextFields returns the context values worth logging as
// key-value pairs.
func extractContextFields(ctx context.Context) []any {
	if ctx == nil {
		return nil
	}
	var fields []any
	if requestID := GetRequestID(ctx); requestID != "" {
		fields = append(fields, "request_id", requestID)
	}
	if id := GetAnalysisID(ctx); id != "" {
		fields = append(fields, "analysis_id", id)
	}
	if s := GetSubject(ctx); s != "" {
		fields = append(fields, "subject", s)
	}
	return fields
}
