package fatura

import "github.com/topsol/fatura-copel/dto"

// legacy section keywords, in the order of the first published response
var (
	legacyInjected      = []string{"ENERGIA INJ."}
	legacyInjectedSkip  = []string{"ENERGIA INJETADA"}
	legacyConsumed      = []string{"ENERGIA ELET"}
	legacyFlagConsumed  = []string{"ENERGIA CONS."}
	legacyFlagCompensed = []string{"ENERGIA INJ. BAND."}
)

// ExtractLegacy produces the coarse, line-keyword response shape of the first
// interpreter release. Each section sums every line holding its keyword and
// reports the last three monetary tokens of the document as its taxes.
func ExtractLegacy(text string) dto.LegacyResult {
	all := FindMonetaryTokens(text)

	inj := legacySection(text, all, legacyInjected, legacyInjectedSkip)
	cons := legacySection(text, all, legacyConsumed, nil)
	flagCons := legacySection(text, all, legacyFlagConsumed, nil)
	flagComp := legacySection(text, all, legacyFlagCompensed, nil)

	documentTotal := round(SumTokens(all), moneyPlaces)
	classified := round(inj.Value+cons.Value+flagCons.Value+flagComp.Value, moneyPlaces)

	return dto.LegacyResult{
		InjectedEnergy: inj,
		ConsumedEnergy: cons,
		Flag: dto.LegacyFlag{
			Consumed:    flagCons,
			Compensated: flagComp,
		},
		OtherValues: dto.CrossCheck{
			DocumentTotal: documentTotal,
			Classified:    classified,
			Other:         round(documentTotal-classified, moneyPlaces),
		},
		Metadata: legacyMetadata(ExtractMetadata(text)),
	}
}

func legacySection(text string, all []NumericToken, keywords, exclusions []string) dto.LegacySection {
	section := dto.LegacySection{Entries: []dto.LegacyEntry{}}

	var qtd, valor float64
	for _, kw := range keywords {
		for _, l := range FindLines(text, []string{kw}, exclusions) {
			e := legacyEntry(l.Text, kw)
			qtd += e.Quantity
			valor += e.Value
			section.Entries = append(section.Entries, e)
		}
	}
	section.Quantity = round(qtd, quantityPlaces)
	section.Value = round(valor, moneyPlaces)

	if n := len(all); n >= 3 {
		section.ICMS = round(all[n-3].Value, moneyPlaces)
		section.COFINS = round(all[n-2].Value, moneyPlaces)
		section.PIS = round(all[n-1].Value, moneyPlaces)
	}
	return section
}

// legacyEntry reads the first unit-anchored quantity, the unit tariff and the
// rightmost monetary value of a line.
func legacyEntry(line, keyword string) dto.LegacyEntry {
	e := dto.LegacyEntry{Raw: line, Keyword: keyword}
	if q := FindQuantityTokens(line, true); len(q) > 0 {
		e.Quantity = q[0].Value
	}
	if t, ok := FindUnitTariff(line); ok {
		v := t.Value
		e.UnitTariff = &v
	}
	if m := FindMonetaryTokens(line); len(m) > 0 {
		e.Value = m[len(m)-1].Value
	}
	return e
}

func legacyMetadata(meta dto.InvoiceMetadata) map[string]any {
	out := map[string]any{}
	if meta.Reference != nil {
		out["REF"] = *meta.Reference
	}
	if meta.DueDate != nil {
		out["VENCIMENTO"] = *meta.DueDate
	}
	if meta.TotalToPay != nil {
		out["TOTAL_A_PAGAR"] = *meta.TotalToPay
	}
	if meta.CustomerName != nil {
		out["UNIDADE_CONSUMIDORA"] = *meta.CustomerName
	}
	if meta.Balance != nil {
		out["SALDO_ACUMULADO_TP"] = *meta.Balance
	}
	return out
}
