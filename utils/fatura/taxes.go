package fatura

import (
	"regexp"
	"strings"

	"github.com/topsol/fatura-copel/dto"
)

const (
	// DefaultTaxLookahead bounds the distance between an ICMS label and the PIS label closing the tax block.
	DefaultTaxLookahead = 200
	// DefaultTaxTrailing widens the window past PIS when the figures sit under the label row.
	DefaultTaxTrailing = 160
)

var (
	icmsLabel = regexp.MustCompile(`(?i)ICMS`)
	pisLabel  = regexp.MustCompile(`(?i)PIS`)

	labelProbes = map[string]*regexp.Regexp{
		"ICMS":   regexp.MustCompile(`(?is)ICMS\D{0,40}?(-?\d{1,3}(?:\.\d{3})*,\d{2})`),
		"COFINS": regexp.MustCompile(`(?is)COFINS\D{0,40}?(-?\d{1,3}(?:\.\d{3})*,\d{2})`),
		"PIS":    regexp.MustCompile(`(?is)\bPIS\D{0,40}?(-?\d{1,3}(?:\.\d{3})*,\d{2})`),
	}
)

// ExtractTaxes reads the authoritative ICMS, COFINS and PIS figures of the
// invoice tax block, falling back to single-value label probes.
func ExtractTaxes(text string) dto.TaxFigures {
	return ExtractTaxesWithin(text, DefaultTaxLookahead, DefaultTaxTrailing)
}

// ExtractTaxesWithin is ExtractTaxes with explicit window sizes.
func ExtractTaxesWithin(text string, lookahead, trailing int) dto.TaxFigures {
	if tokens, ok := taxWindowTokens(text, lookahead, trailing); ok {
		return figuresFromWindow(tokens)
	}
	return probeTaxLabels(text)
}

// taxWindowTokens finds the first ICMS label followed by PIS within lookahead
// characters whose window holds at least two monetary tokens.
func taxWindowTokens(text string, lookahead, trailing int) ([]NumericToken, bool) {
	for _, loc := range icmsLabel.FindAllStringIndex(text, -1) {
		limit := min(len(text), loc[1]+lookahead)
		pis := pisLabel.FindStringIndex(text[loc[1]:limit])
		if pis == nil {
			continue
		}
		pisEnd := loc[1] + pis[1]

		tokens := FindMonetaryTokens(text[loc[0]:pisEnd])
		if len(tokens) >= 2 {
			return tokens, true
		}

		// figures printed after the label row
		wide := FindMonetaryTokens(text[loc[0]:min(len(text), pisEnd+trailing)])
		if len(wide) >= 2 {
			return wide, true
		}
	}
	return nil, false
}

// figuresFromWindow maps the window tokens onto the fixed ICMS, COFINS, PIS
// column order. With only two figures COFINS is the missing column.
func figuresFromWindow(tokens []NumericToken) dto.TaxFigures {
	n := len(tokens)
	if n == 2 {
		return dto.TaxFigures{
			ICMS: round(tokens[0].Value, moneyPlaces),
			PIS:  round(tokens[1].Value, moneyPlaces),
		}
	}
	last := tokens[n-3:]
	return dto.TaxFigures{
		ICMS:   round(last[0].Value, moneyPlaces),
		COFINS: round(last[1].Value, moneyPlaces),
		PIS:    round(last[2].Value, moneyPlaces),
	}
}

func probeTaxLabels(text string) dto.TaxFigures {
	probe := func(label string) float64 {
		m := labelProbes[label].FindStringSubmatch(text)
		if len(m) < 2 {
			return 0
		}
		return round(ParseNumber(strings.TrimSpace(m[1])), moneyPlaces)
	}
	return dto.TaxFigures{
		ICMS:   probe("ICMS"),
		COFINS: probe("COFINS"),
		PIS:    probe("PIS"),
	}
}
