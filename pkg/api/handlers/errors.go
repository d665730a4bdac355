package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"getgsa/onboarding/pkg/analysis"
	"getgsa/onboarding/pkg/api/types"
	"getgsa/onboarding/pkg/compliance"
	"getgsa/onboarding/pkg/store"
	"getgsa/onboarding/pkg/telemetry/logging"
)

// writeServiceError maps an error returned by the analysis service to an
// HTTP status and error body.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var (
		verr       *compliance.ValidationError
		analysisEr *analysis.AnalysisError
		storageErr *store.StorageError
		queryErr   *store.QueryError
	)

	switch {
	case errors.As(err, &verr):
		param := ""
		if len(verr.Errors) > 0 {
			param = verr.Errors[0].Field
		}
		types.WriteError(w, http.StatusBadRequest,
			types.NewInvalidRequestError(validationMessage(verr), param, types.CodeInvalidValue))

	case errors.Is(err, store.ErrNotFound):
		types.WriteError(w, http.StatusNotFound, types.NewNotFoundError("Request not found"))

	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		logger.WarnContext(r.Context(), "Request cancelled",
			"http_request_id", logging.GetRequestID(r.Context()),
			"error", err,
		)
		types.WriteError(w, http.StatusServiceUnavailable,
			types.NewServiceUnavailableError("Request cancelled", ""))

	case errors.As(err, &queryErr):
		types.WriteError(w, http.StatusBadRequest,
			types.NewInvalidRequestError(queryErr.Error(), "", types.CodeInvalidValue))

	case errors.As(err, &analysisEr):
		logger.ErrorContext(r.Context(), "Analysis failed",
			"request_id", analysisEr.RequestID,
			"stage", analysisEr.Stage,
			"error", analysisEr.Cause,
		)
		resp := types.NewServerError("Analysis failed: " + analysisEr.Cause.Error())
		resp.Error.Code = types.CodeAnalysisFailed
		types.WriteError(w, http.StatusInternalServerError, resp)

	case errors.As(err, &storageErr):
		logger.ErrorContext(r.Context(), "Storage error", "error", err)
		types.WriteError(w, http.StatusServiceUnavailable,
			types.NewServiceUnavailableError("Storage is unavailable", types.CodeStorageError))

	default:
		logger.ErrorContext(r.Context(), "Unhandled error", "error", err)
		types.WriteError(w, http.StatusInternalServerError, types.NewServerError("Internal server error"))
	}
}

// validationMessage returns the first field message; the full list is in
// the ingest summaries.
func validationMessage(verr *compliance.ValidationError) string {
	if len(verr.Errors) == 0 {
		return verr.Error()
	}
	return verr.Errors[0].Message
}
