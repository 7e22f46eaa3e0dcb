package dom

import (
	"regexp"
	"strings"
)

// TagPrefix is the namespace marker prepended to every placeholder tag.
const TagPrefix = "flow-"

// rootSegment replaces a path that has no word characters at all.
const rootSegment = "root"

var nonWord = regexp.MustCompile(`\W+`)

// TagFor derives the placeholder tag for a route path.
//
// Every maximal run of non-word characters becomes a single hyphen, the
// result is lower-cased and prefixed with TagPrefix. Hyphens produced at
// either end of the path are dropped so the tag never contains "--".
//
//	TagFor("main/users") == "flow-main-users"
//	TagFor("/Main/")     == "flow-main"
//	TagFor("")           == "flow-root"
func TagFor(path string) string {
	segment := nonWord.ReplaceAllString(path, "-")
	segment = strings.Trim(segment, "-")
	if segment == "" {
		segment = rootSegment
	}
	return TagPrefix + strings.ToLower(segment)
}
