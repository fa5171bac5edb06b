package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// JSON writes v as JSON with the given status code. Encoding errors are
// discarded; the status line has already been sent.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// JSONError writes a standard {"error": message} JSON response.
func JSONError(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// DecodeJSON decodes exactly one JSON object from the request body into v.
// On failure it writes the error response and returns false: 413 when the
// body exceeds RequestBodyLimit, 400 for malformed JSON, unknown fields, or
// trailing data.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(v)
	if err == nil && dec.Decode(&struct{}{}) != io.EOF {
		err = errors.New("trailing data after JSON object")
	}
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		JSONError(w, http.StatusRequestEntityTooLarge, "Request body too large")
		return false
	}
	JSONError(w, http.StatusBadRequest, "Invalid JSON")
	return false
}
