// Package fatura extracts structured financial data from the flattened text of a
// COPEL electricity invoice. Every function in this package is pure: it never
// performs I/O, never keeps state between calls and never returns an error.
// Missing information degrades to zero values or nil fields.
package fatura

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var fallbackNumber = regexp.MustCompile(`-?\d+(\.\d+)?`)

// ParseNumber converts a Brazilian-formatted numeral ("1.234,56", "(500,00)",
// "R$ 12,5") into a float64. It is best-effort: when no number can be read it
// returns 0.
func ParseNumber(s string) float64 {
	if s == "" {
		return 0
	}

	cleaned := strings.ReplaceAll(strings.TrimSpace(s), "R$", "")
	cleaned = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, cleaned)
	cleaned = strings.ReplaceAll(cleaned, "(", "-")
	cleaned = strings.ReplaceAll(cleaned, ")", "")
	cleaned = strings.ReplaceAll(cleaned, ".", "")
	cleaned = strings.ReplaceAll(cleaned, ",", ".")

	if v, ok := parseFinite(cleaned); ok {
		return v
	}

	if m := fallbackNumber.FindString(cleaned); m != "" {
		if v, ok := parseFinite(m); ok {
			return v
		}
	}
	return 0
}

func parseFinite(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
