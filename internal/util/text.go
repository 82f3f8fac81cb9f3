package util

import (
	"sort"
	"strings"
)

// NormalizeText collapses whitespace runs to single spaces and trims the
// result. Empty input stays empty. Idempotent.
func NormalizeText(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

// NormalizeTags lower-cases and whitespace-normalizes each tag, drops tags
// that end up empty, deduplicates and sorts the rest. Sorting keeps the
// output deterministic for diffing and tests; it is not an index key.
func NormalizeTags(tags []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		normalized := strings.ToLower(NormalizeText(tag))
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	sort.Strings(out)
	return out
}

// IsMissing reports whether a spreadsheet cell carries no usable value,
// including the textual sentinels spreadsheet tools emit for missing data.
func IsMissing(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "nan", "none", "null", "n/a", "#n/a":
		return true
	default:
		return false
	}
}
