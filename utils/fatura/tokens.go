package fatura

import "regexp"

// TokenKind tags a numeric token with the pattern that produced it.
type TokenKind int

const (
	Monetary TokenKind = iota
	Quantity
)

func (k TokenKind) String() string {
	if k == Monetary {
		return "monetary"
	}
	return "quantity"
}

// NumericToken is a numeral found in a text span, with its byte offsets in that span.
type NumericToken struct {
	Text  string
	Value float64
	Kind  TokenKind
	Start int
	End   int
}

func (t NumericToken) overlaps(start, end int) bool {
	return t.Start < end && start < t.End
}

var (
	monetaryPattern = regexp.MustCompile(`-?\d{1,3}(?:\.\d{3})*,\d{2}`)
	quantityPattern = regexp.MustCompile(`-?(?:\d{1,3}(?:\.\d{3})+|\d+)(?:,\d{1,2})?`)
	// kWh quantities printed right before their unit, e.g. "350 kWh" or "1.234,5kwh"
	anchoredQuantityPattern = regexp.MustCompile(`(?i)(-?(?:\d{1,3}(?:\.\d{3})+|\d+)(?:[.,]\d+)?)\s*(?:kwh|un)`)
	unitTariffPattern       = regexp.MustCompile(`\d+,\d{5,6}`)
)

// FindMonetaryTokens returns every "1.234,56"-shaped token of span, left to right.
// Repeated values are kept, and so is the "0,75" head of a unit tariff.
func FindMonetaryTokens(span string) []NumericToken {
	var tokens []NumericToken
	for _, loc := range monetaryPattern.FindAllStringIndex(span, -1) {
		text := span[loc[0]:loc[1]]
		tokens = append(tokens, NumericToken{
			Text:  text,
			Value: ParseNumber(text),
			Kind:  Monetary,
			Start: loc[0],
			End:   loc[1],
		})
	}
	return tokens
}

// FindQuantityTokens returns the looser numeric tokens of span. With anchored set,
// only numbers immediately followed by a kWh/UN unit marker are returned.
func FindQuantityTokens(span string, anchored bool) []NumericToken {
	var tokens []NumericToken
	if anchored {
		for _, loc := range anchoredQuantityPattern.FindAllStringSubmatchIndex(span, -1) {
			text := span[loc[2]:loc[3]]
			tokens = append(tokens, NumericToken{
				Text:  text,
				Value: ParseNumber(text),
				Kind:  Quantity,
				Start: loc[2],
				End:   loc[3],
			})
		}
		return tokens
	}

	for _, loc := range quantityPattern.FindAllStringIndex(span, -1) {
		text := span[loc[0]:loc[1]]
		tokens = append(tokens, NumericToken{
			Text:  text,
			Value: ParseNumber(text),
			Kind:  Quantity,
			Start: loc[0],
			End:   loc[1],
		})
	}
	return tokens
}

// FindUnitTariff returns the first unit tariff (5 or 6 decimal places) in span.
func FindUnitTariff(span string) (NumericToken, bool) {
	loc := unitTariffPattern.FindStringIndex(span)
	if loc == nil {
		return NumericToken{}, false
	}
	text := span[loc[0]:loc[1]]
	return NumericToken{
		Text:  text,
		Value: ParseNumber(text),
		Kind:  Quantity,
		Start: loc[0],
		End:   loc[1],
	}, true
}

// SumTokens adds the values of tokens without rounding.
func SumTokens(tokens []NumericToken) float64 {
	var total float64
	for _, t := range tokens {
		total += t.Value
	}
	return total
}
