package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ParseJSON decodes JSON from the request body into the given destination.
// The body is size-limited; unknown fields are tolerated and validation is
// performed downstream via domain-specific validators.
func ParseJSON(w http.ResponseWriter, r *http.Request, dest interface{}) error {
	// 1MB is generous for the control-plane payloads this service accepts
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	return nil
}
