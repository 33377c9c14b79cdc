package rest

import (
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"

	"github.com/suntan-superman/rydeiq-backend/internal/domain/errors"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// writeError maps domain errors onto HTTP responses. Unknown errors become
// opaque 500s so internals never leak to callers.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		slog.ErrorContext(r.Context(), "unhandled error", "error", err, "path", r.URL.Path)
		appErr = errors.NewInternalError("an internal error occurred")
	}

	if appErr.Type == errors.TypeInternal || appErr.Type == errors.TypeUnavailable {
		slog.ErrorContext(r.Context(), "request failed",
			"code", appErr.Code, "error", appErr.Error(), "path", r.URL.Path)
	}

	writeJSON(w, appErr.StatusCode, errorBody{Error: errorDetail{
		Code:    appErr.Code,
		Message: appErr.Message,
		Details: appErr.Details,
	}})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding response failed", "error", err)
	}
}
