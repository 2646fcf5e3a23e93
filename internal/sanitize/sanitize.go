// Package sanitize neutralizes markup and script content in user-supplied
// strings. Clean is deterministic and idempotent: cleaning already-clean
// input is a no-op, which is what makes the round-trip check in the account
// pipeline meaningful.
package sanitize

import "github.com/microcosm-cc/bluemonday"

var policy = bluemonday.StrictPolicy()

// Clean strips all markup and script payloads from text.
func Clean(text string) string {
	return policy.Sanitize(text)
}

// Changed reports whether cleaning text would alter it. A true result
// means the value carries markup or script content and should be rejected
// rather than silently corrected.
func Changed(text string) bool {
	return Clean(text) != text
}
