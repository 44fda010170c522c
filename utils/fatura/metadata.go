package fatura

import (
	"regexp"
	"strings"

	"github.com/topsol/fatura-copel/dto"
)

var (
	labelledReferencePattern = regexp.MustCompile(`(?i)REF(?:ERENCIA|ERÊNCIA|\.)?[^\d\n]{0,20}(0[1-9]|1[0-2])/([12]\d{3})\b`)

	// a bare MM/YYYY not glued to a day ("15/08/2024" must not yield "08/2024")
	referencePattern    = regexp.MustCompile(`(?:^|[^\d/])(0[1-9]|1[0-2])/([12]\d{3})\b`)
	dueDatePattern      = regexp.MustCompile(`(?i)VENCIMENT[OA]?\s*[:\-]?\s*(\d{2}/\d{2}/\d{4})`)
	totalToPayPattern   = regexp.MustCompile(`(?i)TOTAL\s*A\s*PAGAR\D{0,20}?(-?\d{1,3}(?:\.\d{3})*,\d{2})`)
	totalPattern        = regexp.MustCompile(`(?i)TOTAL\D{0,20}?(-?\d{1,3}(?:\.\d{3})*,\d{2})`)
	customerPattern     = regexp.MustCompile(`(?im)NOME:[ \t]*(.+?)(?:[ \t]{2,}|$)`)
	balancePattern      = regexp.MustCompile(`(?is)SALDO ACUMULADO.{0,80}?(-?\d{1,3}(?:\.\d{3})*,\d{2})`)
	consumerUnitPattern = regexp.MustCompile(`(?i)(?:UNIDADE CONSUMIDORA|\bUC\b)[^\d\n]{0,30}(\d{6,12})\b`)
)

// ExtractMetadata runs the independent document-level probes. A probe that does
// not match leaves its field nil.
func ExtractMetadata(text string) dto.InvoiceMetadata {
	var meta dto.InvoiceMetadata

	if ref, ok := findReference(text); ok {
		meta.Reference = &ref
	}
	if m := dueDatePattern.FindStringSubmatch(text); len(m) > 1 {
		meta.DueDate = &m[1]
	}
	if v, ok := findTotalToPay(text); ok {
		meta.TotalToPay = &v
	}
	if m := customerPattern.FindStringSubmatch(text); len(m) > 1 {
		if name := strings.TrimSpace(m[1]); name != "" {
			meta.CustomerName = &name
		}
	}
	if m := consumerUnitPattern.FindStringSubmatch(text); len(m) > 1 {
		meta.ConsumerUnitID = &m[1]
	}
	if m := balancePattern.FindStringSubmatch(text); len(m) > 1 {
		v := ParseNumber(m[1])
		meta.Balance = &v
	}
	return meta
}

func findReference(text string) (string, bool) {
	if m := labelledReferencePattern.FindStringSubmatch(text); len(m) > 2 {
		return m[1] + "/" + m[2], true
	}
	if m := referencePattern.FindStringSubmatch(text); len(m) > 2 {
		return m[1] + "/" + m[2], true
	}
	return "", false
}

func findTotalToPay(text string) (float64, bool) {
	for _, re := range []*regexp.Regexp{totalToPayPattern, totalPattern} {
		if m := re.FindStringSubmatch(text); len(m) > 1 {
			return ParseNumber(m[1]), true
		}
	}
	return 0, false
}
