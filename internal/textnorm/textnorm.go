// Package textnorm holds the string folding shared by the keyword filter and
// the answer matcher.
package textnorm

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Fold returns s case-folded and NFKC-normalized so that "ÉTÉ", "été" and
// "été" compare equal under substring containment.
func Fold(s string) string {
	return cases.Fold().String(norm.NFKC.String(s))
}

// ContainsFold reports whether substr occurs in s ignoring case.
// An empty substr never matches; an empty rule in config is a mistake, not a wildcard.
func ContainsFold(s, substr string) bool {
	if substr == "" {
		return false
	}
	return strings.Contains(Fold(s), Fold(substr))
}

// Squash collapses runs of whitespace and trims the ends. Scraped text nodes
// come back with newlines and indentation from the markup.
func Squash(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
