// Package httpx holds small JSON request/response helpers shared by the HTTP handlers.
package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
)

// JSON writes v as a JSON response with the given status code.
// A nil v writes the status code with no body (e.g. 204).
func JSON(w http.ResponseWriter, status int, v interface{}) {
	if v == nil {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes a JSON error body {"message": ...} with the given status code.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"message": message})
}

// Decode decodes the request body as JSON into v. Unknown fields are ignored.
func Decode(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// ParseID validates s as a UUID and returns it in canonical form.
// Returns ("", false) for an empty or malformed value.
func ParseID(s string) (string, bool) {
	if s == "" {
		return "", false
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return "", false
	}
	return id.String(), true
}
