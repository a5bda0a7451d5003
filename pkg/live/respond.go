package live

import (
	"encoding/json"
	"net/http"

	kverrors "github.com/vango-dev/kvstore/internal/errors"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// statusFor maps an error code to its HTTP status.
func statusFor(code string) int {
	switch code {
	case "K040", "K041":
		return http.StatusBadRequest
	case "K042":
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as a coded JSON error body.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	e := kverrors.FromError(err, "K060")
	status := statusFor(e.Code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, e)
}
