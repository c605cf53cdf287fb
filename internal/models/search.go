package models

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// keySep separates the fields of a search key so a pattern cannot match
// across two of them.
const keySep = "\n"

// SearchFold lowercases s with Turkish casing rules and folds the dotless ı
// onto i, so İ, I, ı and i all compare equal. Search keys and search
// patterns are both folded with it; SQL LOWER is never relied on.
func SearchFold(s string) string {
	// a Caser is stateful and not safe for concurrent use
	lower := cases.Lower(language.Turkish).String(strings.TrimSpace(s))
	return strings.ReplaceAll(lower, "ı", "i")
}

// SearchKey folds each part and joins them.
func SearchKey(parts ...string) string {
	folded := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = SearchFold(p); p != "" {
			folded = append(folded, p)
		}
	}
	return strings.Join(folded, keySep)
}
