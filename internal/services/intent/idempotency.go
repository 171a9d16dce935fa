package intent

import (
	"strings"

	"github.com/google/uuid"
)

// ResolveIdempotencyKey returns the key that scopes a create-intent request.
// A client-supplied key is used verbatim so retries of the same logical
// request converge on one intent. An absent key gets a fresh UUID, making
// the request non-idempotent with respect to other requests.
func ResolveIdempotencyKey(supplied string) (key string, generated bool) {
	if trimmed := strings.TrimSpace(supplied); trimmed != "" {
		return trimmed, false
	}
	return uuid.New().String(), true
}
