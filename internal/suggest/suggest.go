// Package suggest offers "did you mean" matches for mistyped flags, config
// keys and tickers using Levenshtein distance.
package suggest

import (
	"slices"
	"strings"
)

// maxSuggestions caps the number of matches returned.
const maxSuggestions = 3

// levenshtein is the edit distance between a and b.
func levenshtein(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(
				prev[j]+1,      // deletion
				cur[j-1]+1,     // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

// Closest returns up to three candidates near unknown, best first. A
// candidate qualifies within max(2, len/3) edits or when one contains the
// other. Comparison ignores case.
func Closest(unknown string, candidates []string) []string {
	u := strings.ToLower(strings.TrimSpace(unknown))
	if u == "" {
		return nil
	}

	type scored struct {
		value string
		dist  int
	}
	var matches []scored
	limit := max(2, len(u)/3)
	for _, c := range candidates {
		lc := strings.ToLower(c)
		if lc == u {
			continue
		}
		d := levenshtein(u, lc)
		if d <= limit || strings.Contains(lc, u) || strings.Contains(u, lc) {
			matches = append(matches, scored{c, d})
		}
	}
	slices.SortStableFunc(matches, func(a, b scored) int { return a.dist - b.dist })

	var out []string
	for i := 0; i < len(matches) && i < maxSuggestions; i++ {
		out = append(out, matches[i].value)
	}
	return out
}

// Flag suggests flags close to unknown. Leading dashes are ignored and the
// results carry the "--" prefix.
func Flag(unknown string, flags []string) []string {
	names := make([]string, len(flags))
	for i, f := range flags {
		names[i] = strings.TrimLeft(f, "-")
	}
	out := Closest(strings.TrimLeft(unknown, "-"), names)
	for i := range out {
		out[i] = "--" + out[i]
	}
	return out
}

// Hint formats matches as a sentence, "" when there are none.
func Hint(matches []string) string {
	switch len(matches) {
	case 0:
		return ""
	case 1:
		return "did you mean " + matches[0] + "?"
	default:
		return "did you mean one of: " + strings.Join(matches, ", ") + "?"
	}
}
