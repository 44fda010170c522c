package fatura

import "github.com/topsol/fatura-copel/dto"

// Options tunes the extraction for invoice layout revisions.
type Options struct {
	Primary      BlockMarkers
	Fallback     BlockMarkers
	TaxLookahead int
	TaxTrailing  int
}

// DefaultOptions returns the markers of the current COPEL layout.
func DefaultOptions() Options {
	return Options{
		Primary:      BlockMarkers{Start: "ITENS DE FATURA", End: "TOTAL"},
		Fallback:     BlockMarkers{Start: "ENERGIA ELET", End: "TOTAL"},
		TaxLookahead: DefaultTaxLookahead,
		TaxTrailing:  DefaultTaxTrailing,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if !o.Primary.valid() {
		o.Primary = d.Primary
	}
	if !o.Fallback.valid() {
		o.Fallback = d.Fallback
	}
	if o.TaxLookahead <= 0 {
		o.TaxLookahead = d.TaxLookahead
	}
	if o.TaxTrailing <= 0 {
		o.TaxTrailing = d.TaxTrailing
	}
	return o
}

// Extract classifies the invoice text with the default options.
func Extract(text string) dto.InvoiceResult {
	return ExtractWithOptions(text, DefaultOptions())
}

// ExtractWithOptions runs the full pipeline: locate the items block, classify
// each line, aggregate the buckets, then merge the tax block, the metadata and
// the document-wide cross-check.
func ExtractWithOptions(text string, opts Options) dto.InvoiceResult {
	opts = opts.withDefaults()

	lines, source := BlockLines(text, opts.Primary, opts.Fallback)
	entries := ClassifyLines(lines)
	totals := Aggregate(entries)

	return dto.InvoiceResult{
		ConsumedEnergy: totals.Summary(BucketConsumed),
		InjectedEnergy: totals.Summary(BucketInjected),
		Flag: dto.FlagSummary{
			Consumed:    totals.Summary(BucketFlagConsumed),
			Compensated: totals.Summary(BucketFlagCompensated),
		},
		Other:       totals.Summary(BucketOther),
		Taxes:       ExtractTaxesWithin(text, opts.TaxLookahead, opts.TaxTrailing),
		OtherValues: totals.CrossCheck(SumTokens(FindMonetaryTokens(text))),
		Metadata:    ExtractMetadata(text),
		BlockSource: string(source),
		Items:       items(entries),
	}
}

func items(entries []ClassifiedEntry) []dto.InvoiceItem {
	out := make([]dto.InvoiceItem, 0, len(entries))
	for _, e := range entries {
		out = append(out, dto.InvoiceItem{
			Bucket:     e.Bucket.String(),
			Quantity:   e.Quantity,
			Value:      e.Value,
			UnitTariff: e.UnitTariff,
			PISCOFINS:  e.PISCOFINS,
			ICMS:       e.ICMS,
			Line:       e.Line.Index + 1,
			Raw:        e.Line.Text,
		})
	}
	return out
}
