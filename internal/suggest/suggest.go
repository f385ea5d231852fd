// Package suggest finds the closest known name to a mistyped one so that
// configuration errors can say "did you mean ...".
package suggest

import (
	"fmt"
	"sort"

	"github.com/agext/levenshtein"
)

// Closest returns the candidate with the smallest edit distance to name, or ""
// when nothing is close enough to be a plausible typo. Ties resolve to the
// lexically smallest candidate.
func Closest(name string, candidates []string) string {
	sorted := append([]string(nil), candidates...)
	sort.Strings(sorted)

	best, bestDist := "", -1
	for _, c := range sorted {
		d := levenshtein.Distance(name, c, nil)
		if bestDist < 0 || d < bestDist {
			best, bestDist = c, d
		}
	}
	if bestDist < 0 || bestDist > threshold(name) {
		return ""
	}
	return best
}

// Hint formats a " (did you mean %q?)" suffix, or "" when there is no close match.
func Hint(name string, candidates []string) string {
	if c := Closest(name, candidates); c != "" {
		return fmt.Sprintf(" (did you mean %q?)", c)
	}
	return ""
}

func threshold(name string) int {
	if t := len(name) / 3; t > 2 {
		return t
	}
	return 2
}
