package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/domain"
)

// errorBody is the JSON shape of every failure response. Code carries a
// stable machine-readable reason so clients can tell a permission denial
// apart from the last-admin protection without parsing the message.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeFail(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Error: message})
}

// writeError maps the domain error taxonomy onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error(), Code: "not_found"})
	case errors.Is(err, domain.ErrLastAdminProtected):
		writeJSON(w, http.StatusForbidden, errorBody{Error: err.Error(), Code: "last_admin_protected"})
	case errors.Is(err, domain.ErrDuplicateSectorLevel):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error(), Code: "duplicate_sector_level"})
	case errors.Is(err, domain.ErrUnknownSensorType),
		errors.Is(err, domain.ErrInvalidThreshold),
		errors.Is(err, domain.ErrUnknownPermission):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error(), Code: "validation_failed"})
	default:
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
	}
}

func writeDenied(w http.ResponseWriter) {
	writeJSON(w, http.StatusForbidden, errorBody{Error: "permission denied", Code: "permission_denied"})
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func readBodyJSON(r *http.Request, maxBytes int64, out any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBytes))
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}
