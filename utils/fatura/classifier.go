package fatura

import (
	"math"
	"regexp"
	"strings"

	"github.com/topsol/fatura-copel/utils"
)

// Bucket is one of the five financial accumulators of an invoice.
type Bucket int

const (
	BucketConsumed Bucket = iota
	BucketInjected
	BucketFlagConsumed
	BucketFlagCompensated
	BucketOther
	bucketCount
)

var bucketLabels = [bucketCount]string{
	BucketConsumed:        "consumo",
	BucketInjected:        "energia_injetada",
	BucketFlagConsumed:    "bandeira_consumida",
	BucketFlagCompensated: "bandeira_compensada",
	BucketOther:           "outros",
}

func (b Bucket) String() string {
	if b < 0 || b >= bucketCount {
		return "desconhecido"
	}
	return bucketLabels[b]
}

// ClassifiedEntry holds the fields extracted from one invoice line.
// PISCOFINS and ICMS are the per-line tax columns; they are informational and
// never replace the tax-block figures.
type ClassifiedEntry struct {
	Bucket     Bucket
	Quantity   float64
	Value      float64
	UnitTariff *float64
	PISCOFINS  *float64
	ICMS       *float64
	Line       RawLine
}

var (
	injectedPattern = regexp.MustCompile(`ENERGIA INJ\..*OUC\s*MPT.*\b(?:TUSD|TUS|TE)\b`)
	headerWords     = []string{
		"VALOR", "TOTAL", "ICMS", "PIS", "COFINS", "TARIFA", "QUANT", "KWH",
		"UNID", "PRECO", "TRIBUTOS", "ALIQUOTA", "ITENS", "DESCRICAO", "BASE", "CALC",
	}
)

const (
	kwConsumed        = "ENERGIA ELET"
	kwFlagConsumed    = "ENERGIA CONS. B."
	kwFlagCompensated = "ENERGIA INJ. BAND"
)

// ClassifyLine extracts a ClassifiedEntry from line. It reports false for header
// and subtotal rows and for lines holding no usable number.
func ClassifyLine(line RawLine) (ClassifiedEntry, bool) {
	label := utils.NormalizeLabel(line.Text)
	monetary := FindMonetaryTokens(line.Text)

	if isHeaderLine(label, monetary) || strings.HasPrefix(label, "TOTAL") {
		return ClassifiedEntry{}, false
	}

	tariff, hasTariff := FindUnitTariff(line.Text)
	if hasTariff {
		monetary = withoutSpan(monetary, tariff)
	}
	quantities := quantityCandidates(line.Text, monetary, tariff, hasTariff)
	if len(monetary) == 0 && len(quantities) == 0 {
		return ClassifiedEntry{}, false
	}

	entry := ClassifiedEntry{Line: line}
	assignColumns(&entry, monetary)
	entry.Quantity = largestMagnitude(quantities)
	if hasTariff {
		v := tariff.Value
		entry.UnitTariff = &v
	}

	entry.Bucket = bucketFor(label)
	switch entry.Bucket {
	case BucketInjected, BucketFlagCompensated:
		entry.Quantity = math.Abs(entry.Quantity)
		entry.Value = math.Abs(entry.Value)
	case BucketOther:
		entry = ClassifiedEntry{Bucket: BucketOther, Value: entry.Value, Line: line}
	}
	return entry, true
}

// ClassifyLines classifies every line and drops the skipped ones.
func ClassifyLines(lines []RawLine) []ClassifiedEntry {
	entries := make([]ClassifiedEntry, 0, len(lines))
	for _, l := range lines {
		if e, ok := ClassifyLine(l); ok {
			entries = append(entries, e)
		}
	}
	return entries
}

// assignColumns applies the positional column rule: value, PIS/COFINS and ICMS
// are the rightmost monetary tokens of the line.
func assignColumns(entry *ClassifiedEntry, monetary []NumericToken) {
	n := len(monetary)
	switch {
	case n >= 3:
		entry.Value = monetary[n-3].Value
		pc, icms := monetary[n-2].Value, monetary[n-1].Value
		entry.PISCOFINS = &pc
		entry.ICMS = &icms
	case n == 2:
		entry.Value = monetary[0].Value
		last := monetary[1].Value
		// historical tie-break: a trailing figure not above the value is ICMS
		if last <= entry.Value {
			entry.ICMS = &last
		} else {
			entry.PISCOFINS = &last
		}
	case n == 1:
		entry.Value = monetary[0].Value
	}
}

func bucketFor(label string) Bucket {
	switch {
	case strings.Contains(label, kwConsumed):
		return BucketConsumed
	case injectedPattern.MatchString(label):
		return BucketInjected
	case strings.Contains(label, kwFlagConsumed):
		return BucketFlagConsumed
	case strings.Contains(label, kwFlagCompensated):
		return BucketFlagCompensated
	default:
		return BucketOther
	}
}

// quantityCandidates drops quantity tokens that are really part of a monetary
// column or of the unit tariff.
func quantityCandidates(text string, monetary []NumericToken, tariff NumericToken, hasTariff bool) []NumericToken {
	var out []NumericToken
	for _, q := range FindQuantityTokens(text, false) {
		if hasTariff && q.overlaps(tariff.Start, tariff.End) {
			continue
		}
		clash := false
		for _, m := range monetary {
			if q.overlaps(m.Start, m.End) {
				clash = true
				break
			}
		}
		if !clash {
			out = append(out, q)
		}
	}
	return out
}

// withoutSpan drops the monetary tokens that are only the head of span.
func withoutSpan(tokens []NumericToken, span NumericToken) []NumericToken {
	var out []NumericToken
	for _, t := range tokens {
		if !t.overlaps(span.Start, span.End) {
			out = append(out, t)
		}
	}
	return out
}

func largestMagnitude(tokens []NumericToken) float64 {
	var best float64
	for _, t := range tokens {
		if math.Abs(t.Value) > math.Abs(best) {
			best = t.Value
		}
	}
	return best
}

// isHeaderLine spots repeated column labels such as "VALOR TOTAL" or "ICMS".
func isHeaderLine(label string, monetary []NumericToken) bool {
	if len(strings.Fields(label)) >= 3 || len(monetary) > 0 {
		return false
	}
	for _, w := range headerWords {
		if strings.Contains(label, w) {
			return true
		}
	}
	return false
}
