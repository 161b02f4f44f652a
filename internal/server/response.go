package server

import (
	"encoding/json"
	"net/http"

	"github.com/matzehuels/garmushka/pkg/errors"
)

type errorResponse struct {
	Error string      `json:"error"`
	Code  errors.Code `json:"code"`
}

// writeJSON sends v with status. Once the header is out a failed write can
// only be logged; it usually means the client went away.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("write response", "status", status, "err", err)
	}
}

// writeError maps coded errors to HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	s.writeJSON(w, errors.HTTPStatus(code), errorResponse{Error: errors.UserMessage(err), Code: code})
}
