package api

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// errorBody is the error envelope: {"detail": "..."} with the HTTP status
// carrying the error class. Matches what device firmware and the viewer
// already parse.
type errorBody struct {
	Detail string `json:"detail"`
}

// WriteJSON writes v as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are gone; best effort trailer for debugging.
		fmt.Fprintf(w, "encoding error: %v", err)
	}
}

// WriteError writes an error response with the given status code and detail.
func WriteError(w http.ResponseWriter, statusCode int, detail string) {
	WriteJSON(w, statusCode, errorBody{Detail: detail})
}

// WriteMethodNotAllowed writes the standard 405 response.
func WriteMethodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	WriteError(w, http.StatusMethodNotAllowed, fmt.Sprintf("Only %s method is allowed", allowed))
}
