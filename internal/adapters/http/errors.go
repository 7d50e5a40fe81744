package http

import (
	"log/slog"
	"net/http"

	"github.com/mkarpov/docchat/internal/core/domain"
)

// statusForError maps the domain error taxonomy onto HTTP statuses. The
// short code is stable API surface; the cause string is diagnostic only.
func statusForError(err error) (int, string) {
	switch {
	case domain.IsKind(err, domain.ErrUnsupportedFormat):
		return http.StatusBadRequest, "unsupported_format"
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input"
	case domain.IsKind(err, domain.ErrUploadRead):
		return http.StatusBadRequest, "upload_read_failed"
	case domain.IsKind(err, domain.ErrParse):
		return http.StatusUnprocessableEntity, "parse_failed"
	case domain.IsKind(err, domain.ErrNoActiveDocument):
		return http.StatusConflict, "no_active_document"
	case domain.IsKind(err, domain.ErrUploadNotFound):
		return http.StatusNotFound, "upload_not_found"
	case domain.IsKind(err, domain.ErrSessionNotFound):
		return http.StatusNotFound, "session_not_found"
	case domain.IsKind(err, domain.ErrPipelineBuild):
		return http.StatusBadGateway, "pipeline_build_failed"
	case domain.IsKind(err, domain.ErrQuery):
		return http.StatusBadGateway, "query_failed"
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable, "temporarily_unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func logServerError(r *http.Request, status int, err error) {
	slog.Error("request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
		"request_id", requestIDFrom(r.Context()),
		"error", err,
	)
}
