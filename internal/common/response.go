package common

import (
	"encoding/json"
	"errors"
	"net/http"
)

type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, ErrorResponse{Error: message})
}

// RespondWithErr writes err with the status HTTPStatusFromError picks for it.
// The raw error message is passed through so clients can show what the backend said.
func RespondWithErr(w http.ResponseWriter, err error) {
	resp := ErrorResponse{Error: err.Error()}
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		resp.Error = ErrValidation.Error()
		resp.Fields = vErr.Fields
	}
	RespondWithJSON(w, HTTPStatusFromError(err), resp)
}

func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// DecodeJSON decodes the request body into dst, rejecting unknown fields.
func DecodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return Errorf("invalid request body: %v: %w", err, ErrBadRequest)
	}
	return nil
}
