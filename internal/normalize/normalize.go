// Package normalize holds the pure string transforms used to derive stored
// identifiers from user input: article slugs and tag names.
package normalize

import (
	"regexp"
	"strings"
)

var (
	slugStrip    = regexp.MustCompile(`[^\p{L}\p{N}_\s-]+`)
	slugSeparate = regexp.MustCompile(`[\s-]+`)
	tagSpace     = regexp.MustCompile(`\s+`)
)

// Slug maps a title to its URL-safe form:
//
//	"Simple Title"                 → "simple-title"
//	"Title!@#$%^&*()Special"       → "titlespecial"
//	"  --Multiple    Spaces--  "   → "multiple-spaces"
//
// The result may be empty when the title has no letters or digits; callers
// that need a non-empty slug substitute their own fallback.
func Slug(title string) string {
	s := strings.ToLower(title)
	s = slugStrip.ReplaceAllString(s, "")
	s = slugSeparate.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Tags trims, lower-cases and hyphenates every non-blank entry, dropping
// blanks and duplicates while keeping first-occurrence order. The result is
// never nil.
func Tags(raw []string) []string {
	out := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, r := range raw {
		name := Tag(r)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// Tag normalizes a single tag name; "" means the input was blank.
// Also used for the ?tag= list filter so lookups match stored names.
func Tag(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	return tagSpace.ReplaceAllString(s, "-")
}
