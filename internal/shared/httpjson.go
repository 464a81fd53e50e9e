package shared

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// ListResponse is the envelope every list endpoint returns.
type ListResponse struct {
	Data       any `json:"data"`
	TotalCount int `json:"total_count"`
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps the platform error taxonomy onto HTTP statuses.
// InvalidArgument payloads surface their field-keyed messages verbatim so
// form clients can attribute errors to inputs; everything else carries a
// single message. Internal errors are logged and masked.
func WriteError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch KindOf(err) {
	case KindNotFound:
		WriteJSON(w, http.StatusNotFound, map[string]any{"error": err.Error()})
	case KindInvalidArgument:
		WriteJSON(w, http.StatusBadRequest, map[string]any{"errors": FieldsOf(err)})
	case KindUnauthenticated:
		WriteJSON(w, http.StatusUnauthorized, map[string]any{"error": err.Error()})
	case KindPermissionDenied:
		WriteJSON(w, http.StatusForbidden, map[string]any{"error": err.Error()})
	default:
		if logger != nil {
			logger.Error("internal error", slog.Any("error", err))
		}
		WriteJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal server error"})
	}
}

// DecodeJSON decodes a request body into dst, translating malformed payloads
// into field-keyed InvalidArgument errors.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return InvalidField("body", "malformed JSON payload")
	}
	return nil
}
