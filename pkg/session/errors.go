package session

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// maxErrorBody bounds the response body kept in an InitializationError.
const maxErrorBody = 512

// InitializationError is returned when the init endpoint gives no usable
// answer.
type InitializationError struct {
	URL         string
	Status      int    // 0 when no response was received
	ContentType string // Content-Type header of the response
	Body        string // Response body, truncated
	Err         error  // Underlying transport or decode error, if any
}

// Error returns a description of the failed response.
func (e *InitializationError) Error() string {
	var b strings.Builder
	b.WriteString("session: invalid server response when initializing UI")
	if e.Status != 0 {
		fmt.Fprintf(&b, ": status %d", e.Status)
	}
	if e.ContentType != "" {
		fmt.Fprintf(&b, ": content type %q", e.ContentType)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if e.Body != "" {
		fmt.Fprintf(&b, ": %s", e.Body)
	}
	return b.String()
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *InitializationError) Unwrap() error {
	return e.Err
}

// truncateBody cuts body to at most maxErrorBody bytes on a rune boundary.
func truncateBody(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) <= maxErrorBody {
		return s
	}
	cut := maxErrorBody
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}
