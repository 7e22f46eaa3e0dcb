package server

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidRoute is returned for navigation paths that cannot name a view.
var ErrInvalidRoute = errors.New("server: invalid route")

// CanonicalRoute normalizes a navigation path to the form route patterns
// are matched against: a leading slash, no empty or "." segments, ".."
// resolved, no trailing slash. The query string, if any, is dropped.
//
// Paths containing a backslash, a NUL byte (literal or %00), a malformed
// percent escape, or a ".." that climbs above the root are rejected with
// ErrInvalidRoute.
func CanonicalRoute(p string) (string, error) {
	p, _, _ = strings.Cut(p, "?")

	if strings.Contains(p, `\`) {
		return "", fmt.Errorf("%w: backslash in %q", ErrInvalidRoute, p)
	}
	if strings.Contains(p, "\x00") || strings.Contains(strings.ToUpper(p), "%00") {
		return "", fmt.Errorf("%w: NUL byte in %q", ErrInvalidRoute, p)
	}
	if !validEscapes(p) {
		return "", fmt.Errorf("%w: bad percent escape in %q", ErrInvalidRoute, p)
	}

	var segments []string
	for _, seg := range strings.Split(p, "/") {
		switch seg {
		case "", ".":
		case "..":
			if len(segments) == 0 {
				return "", fmt.Errorf("%w: %q escapes the root", ErrInvalidRoute, p)
			}
			segments = segments[:len(segments)-1]
		default:
			segments = append(segments, seg)
		}
	}
	return "/" + strings.Join(segments, "/"), nil
}

func validEscapes(p string) bool {
	for i := 0; i < len(p); i++ {
		if p[i] != '%' {
			continue
		}
		if i+2 >= len(p) || !isHex(p[i+1]) || !isHex(p[i+2]) {
			return false
		}
		i += 2
	}
	return true
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
