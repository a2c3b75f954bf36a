package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// maxBodyBytes caps request bodies; file content is text, 10MB is generous.
const maxBodyBytes = 10 << 20

// ParseJSON decodes the request body into dest. Unknown fields are allowed
// so metadata maps can carry arbitrary provider parameters; structural
// validation happens in the services.
func ParseJSON(w http.ResponseWriter, r *http.Request, dest interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}
