package handler

// RESPONSE HELPERS:
// Every handler answers through writeJSON and writeError so that all
// responses share one shape.
//
// ERROR FORMAT:
//
//	{
//	  "error":   "validation_error",
//	  "message": "title: can't be blank",
//	  "errors":  {"title": ["can't be blank"]}
//	}
//
// "error" is machine-readable, "message" is for humans, and "errors" is the
// per-field map RealWorld clients read. Errors that are not about a field
// are reported under "body".

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/sakif/blog-api/internal/apperror"
	"github.com/sakif/blog-api/internal/service"
)

// maxBodyBytes caps request bodies. Articles are the largest payload.
const maxBodyBytes = 1 << 20

type ErrorResponse struct {
	Error   string              `json:"error"`
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

// writeJSON sends data with the given status. Headers must be set before
// WriteHeader; anything set afterwards is silently dropped.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already out; logging is all that is left.
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to encode JSON response")
	}
}

// writeError maps a domain error to an HTTP status and sends it.
//
// errors.Is walks the wrap chain, so a service error such as
// fmt.Errorf("service/article: ...: %w", apperror.NotFound(...)) still maps
// to 404. Anything unclassified is a 500 with a generic message; the real
// error only goes to the log.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		zerolog.Ctx(r.Context()).Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("internal error")
		writeJSON(w, r, http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
			Errors:  map[string][]string{"body": {"An internal error occurred"}},
		})
		return
	}

	status, errorType := http.StatusInternalServerError, "internal_error"
	switch {
	case errors.Is(err, apperror.ErrValidation):
		status, errorType = http.StatusUnprocessableEntity, "validation_error"
	case errors.Is(err, apperror.ErrUnauthorized):
		status, errorType = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, apperror.ErrForbidden):
		status, errorType = http.StatusForbidden, "forbidden"
	case errors.Is(err, apperror.ErrNotFound):
		status, errorType = http.StatusNotFound, "not_found"
	case errors.Is(err, apperror.ErrConflict):
		status, errorType = http.StatusConflict, "conflict"
	}

	if status == http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("unclassified application error")
		appErr = &apperror.AppError{Message: "An internal error occurred"}
	}

	writeJSON(w, r, status, ErrorResponse{
		Error:   errorType,
		Message: appErr.Message,
		Errors:  fieldErrors(appErr),
	})
}

func fieldErrors(e *apperror.AppError) map[string][]string {
	if len(e.Fields) == 0 {
		return map[string][]string{"body": {e.Message}}
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(map[string][]string, len(names))
	for _, name := range names {
		out[name] = []string{e.Fields[name]}
	}
	return out
}

// decodeJSON reads the request body into dst. A malformed body is a
// validation error so clients get 422 like any other bad input.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return apperror.ValidationFailed("body", fmt.Sprintf("invalid JSON body: %v", err))
	}
	return nil
}

// missing reports an absent request envelope such as {"article": ...}.
func missing(envelope string) error {
	return apperror.ValidationFailed(envelope, "is required")
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.ValidationFailed(name, "must be an integer")
	}
	return n, nil
}

// pagination reads limit (1-100, default 20) and offset (>= 0, default 0).
func pagination(r *http.Request) (limit, offset int, err error) {
	if limit, err = queryInt(r, "limit", service.DefaultLimit); err != nil {
		return 0, 0, err
	}
	if offset, err = queryInt(r, "offset", 0); err != nil {
		return 0, 0, err
	}
	if limit < 1 || limit > service.MaxLimit {
		return 0, 0, apperror.ValidationFailed("limit", "must be between 1 and 100")
	}
	if offset < 0 {
		return 0, 0, apperror.ValidationFailed("offset", "must not be negative")
	}
	return limit, offset, nil
}
