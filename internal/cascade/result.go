package cascade

import "strings"

// transientMarkers are the substrings that mark a primary-provider error as
// retryable: rate limiting and temporary unavailability. Anything else is a
// hard failure and moves the cascade to the next stage immediately.
var transientMarkers = []string{
	"429",
	"RESOURCE_EXHAUSTED",
	"quota",
	"UNAVAILABLE",
	"503",
}

// IsTransient reports whether err looks like a rate-limit or availability
// blip worth retrying against the same provider.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
