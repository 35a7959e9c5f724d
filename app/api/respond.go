package api

import (
	"encoding/json"
	"net/http"
	"os"
)

type errorBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Detail  string `json:"error,omitempty"`
}

// WriteJSON encodes v as the response body with the given status code.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError renders err in the {success:false, message} envelope. The
// underlying cause of an internal error is included only when
// DEBUG_ERRORS is set.
func WriteError(w http.ResponseWriter, err error) {
	apiErr := AsError(err)
	body := errorBody{Success: false, Message: apiErr.Message}
	if apiErr.Status == http.StatusInternalServerError && apiErr.Err != nil && debugErrors() {
		body.Detail = apiErr.Err.Error()
	}
	WriteJSON(w, apiErr.Status, body)
}

func debugErrors() bool {
	return os.Getenv("DEBUG_ERRORS") != ""
}
