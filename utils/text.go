package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FoldAccents removes diacritics so "ELÉTRICA" and "ELETRICA" compare equal.
func FoldAccents(s string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(func(r rune) bool {
		return unicode.Is(unicode.Mn, r)
	}), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return result
}

// NormalizeLabel upper-cases and accent-folds a line for keyword matching.
func NormalizeLabel(s string) string {
	return strings.ToUpper(FoldAccents(s))
}

// JoinPages flattens per-page text into one document, one page per block of lines.
func JoinPages(pages []string) string {
	return strings.Join(pages, "\n")
}

// HasText reports whether s carries at least minLen non-space characters.
func HasText(s string, minLen int) bool {
	if minLen < 1 {
		minLen = 1
	}
	return len(strings.TrimSpace(s)) >= minLen
}
