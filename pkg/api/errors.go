package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dd0wney/cluso-tmhmm/pkg/model"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// errorResponse maps err to a status code: input errors are the
// client's sequence (422), configuration errors are a broken model (500).
func errorResponse(err error) (int, ErrorResponse) {
	resp := ErrorResponse{Error: err.Error()}
	switch {
	case model.IsInput(err):
		resp.Kind = "input"
		return http.StatusUnprocessableEntity, resp
	case model.IsConfiguration(err):
		resp.Kind = "configuration"
		return http.StatusInternalServerError, resp
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		resp.Kind = "canceled"
		return http.StatusServiceUnavailable, resp
	default:
		return http.StatusInternalServerError, resp
	}
}

func writeModelError(w http.ResponseWriter, err error) {
	code, resp := errorResponse(err)
	writeJSON(w, code, resp)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, ErrorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
