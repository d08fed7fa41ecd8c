// Package strings holds small helpers for user- and operator-supplied lists.
package strings

import (
	"strings"
)

// DedupeFunc normalizes each value, drops the ones that normalize to "", and
// keeps the first occurrence of each remaining value in input order.
func DedupeFunc(values []string, normalize func(string) string) []string {
	if len(values) == 0 {
		return values
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = normalize(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// DedupeAndTrim trims whitespace, drops blanks and duplicates.
//
//	DedupeAndTrim([]string{" nurse-2", "nurse-3", "nurse-2 ", ""})
//	// []string{"nurse-2", "nurse-3"}
func DedupeAndTrim(values []string) []string {
	return DedupeFunc(values, strings.TrimSpace)
}

// DedupeAndTrimLower also lowercases, for case-insensitive names such as
// sink identifiers.
func DedupeAndTrimLower(values []string) []string {
	return DedupeFunc(values, func(s string) string {
		return strings.ToLower(strings.TrimSpace(s))
	})
}

// SplitList splits a comma separated setting into its trimmed, distinct
// entries. An empty setting yields an empty list.
func SplitList(s string) []string {
	return DedupeAndTrim(strings.Split(s, ","))
}
