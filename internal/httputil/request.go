package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// MaxRequestBodyBytes bounds request bodies. Inline chains with page
// content are the largest payloads.
const MaxRequestBodyBytes = 10 << 20

// ErrEmptyBody is returned by ParseJSON for a request without a body.
var ErrEmptyBody = errors.New("request body is required")

// ParseJSON decodes JSON from the request body into the given destination.
// Unknown fields are rejected so that misspelled options fail loudly.
func ParseJSON(w http.ResponseWriter, r *http.Request, dest interface{}) error {
	// Requires w for a proper 413 response
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodyBytes)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyBody
		}
		return fmt.Errorf("invalid JSON: %w", err)
	}

	return nil
}
