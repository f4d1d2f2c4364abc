package response

import (
	"encoding/json"
	"errors"
	"net/http"

	zlog "github.com/rs/zerolog/log"

	"github.com/baechuer/wholesale-catalog/internal/domain"
	appCtx "github.com/baechuer/wholesale-catalog/internal/pkg/context"
)

type Envelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

type ErrorBody struct {
	Success   bool              `json:"success"`
	Error     string            `json:"error"`
	Code      string            `json:"code"`
	Hint      string            `json:"hint,omitempty"`
	Meta      map[string]string `json:"meta,omitempty"`
	RequestID string            `json:"requestId,omitempty"`
}

// WriteJSON writes v as JSON with the given status code.
// It sets Content-Type to application/json; charset=utf-8 if not already set.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// OK writes a 200 response with {"success": true, "data": ...}.
func OK(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, Envelope{Success: true, Data: data})
}

func Created(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, Envelope{Success: true, Data: data})
}

func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// WriteError converts a domain error into the error envelope.
// Non-domain errors are logged and reported as a bare 500.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	body := ErrorBody{
		Error:     "internal error",
		Code:      "internal_error",
		RequestID: appCtx.GetRequestID(r.Context()),
	}

	var de *domain.Error
	if errors.As(err, &de) {
		status = statusFromKind(de.Kind)
		body.Error = de.Message
		body.Code = de.Code
		if len(de.Meta) > 0 {
			meta := make(map[string]string, len(de.Meta))
			for k, v := range de.Meta {
				if k == "hint" {
					body.Hint = v
					continue
				}
				meta[k] = v
			}
			if len(meta) > 0 {
				body.Meta = meta
			}
		}
		if status >= 500 {
			zlog.Error().Err(err).Str("request_id", body.RequestID).Str("code", de.Code).Msg("request failed")
		}
	} else {
		zlog.Error().Err(err).Str("request_id", body.RequestID).Msg("unhandled error")
	}

	if status == http.StatusTooManyRequests && w.Header().Get("Retry-After") == "" {
		w.Header().Set("Retry-After", "60")
	}
	WriteJSON(w, status, body)
}

// statusFromKind maps domain error kinds to HTTP status codes.
func statusFromKind(kind domain.ErrKind) int {
	switch kind {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindAuth:
		return http.StatusUnauthorized
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindRateLimited:
		return http.StatusTooManyRequests
	case domain.KindInfrastructure:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
