package dto

// BucketSummary is the rounded total of one financial bucket.
// Every field is always present; undetermined values are 0.
type BucketSummary struct {
	Quantity  float64 `json:"qtd" yaml:"qtd"`
	Value     float64 `json:"valor" yaml:"valor"`
	PISCOFINS float64 `json:"pis_cofins" yaml:"pis_cofins"`
	ICMS      float64 `json:"icms" yaml:"icms"`
	Lines     int     `json:"linhas" yaml:"linhas"`
}

// FlagSummary groups the two flag-tariff (bandeira) buckets.
type FlagSummary struct {
	Consumed    BucketSummary `json:"consumida" yaml:"consumida"`
	Compensated BucketSummary `json:"compensada" yaml:"compensada"`
}

// TaxFigures are the authoritative tax totals read from the invoice tax block.
type TaxFigures struct {
	ICMS   float64 `json:"icms" yaml:"icms"`
	COFINS float64 `json:"cofins" yaml:"cofins"`
	PIS    float64 `json:"pis" yaml:"pis"`
}

// CrossCheck compares every monetary token in the document against the classified buckets.
type CrossCheck struct {
	DocumentTotal float64 `json:"soma_total_documento" yaml:"soma_total_documento"`
	Classified    float64 `json:"classificados" yaml:"classificados"`
	Other         float64 `json:"outros" yaml:"outros"`
}

// InvoiceMetadata holds the optional document-level fields. A nil field was not found.
type InvoiceMetadata struct {
	Reference      *string  `json:"referencia,omitempty" yaml:"referencia,omitempty"`
	DueDate        *string  `json:"vencimento,omitempty" yaml:"vencimento,omitempty"`
	TotalToPay     *float64 `json:"total_a_pagar,omitempty" yaml:"total_a_pagar,omitempty"`
	CustomerName   *string  `json:"unidade_consumidora,omitempty" yaml:"unidade_consumidora,omitempty"`
	ConsumerUnitID *string  `json:"uc,omitempty" yaml:"uc,omitempty"`
	Balance        *float64 `json:"saldo_acumulado,omitempty" yaml:"saldo_acumulado,omitempty"`
}

// InvoiceItem is one classified line of the invoice items table, kept for auditability.
type InvoiceItem struct {
	Bucket     string   `json:"bucket" yaml:"bucket" csv:"bucket"`
	Quantity   float64  `json:"qtd" yaml:"qtd" csv:"qtd"`
	Value      float64  `json:"valor" yaml:"valor" csv:"valor"`
	UnitTariff *float64 `json:"tarifa_unit,omitempty" yaml:"tarifa_unit,omitempty" csv:"tarifa_unit"`
	PISCOFINS  *float64 `json:"pis_cofins,omitempty" yaml:"pis_cofins,omitempty" csv:"pis_cofins"`
	ICMS       *float64 `json:"icms,omitempty" yaml:"icms,omitempty" csv:"icms"`
	Line       int      `json:"linha" yaml:"linha" csv:"linha"`
	Raw        string   `json:"raw" yaml:"raw" csv:"raw"`
}

// InvoiceResult is the structured output of one classification pass over an invoice text.
type InvoiceResult struct {
	ConsumedEnergy BucketSummary   `json:"consumo_kwh" yaml:"consumo_kwh"`
	InjectedEnergy BucketSummary   `json:"energia_injetada" yaml:"energia_injetada"`
	Flag           FlagSummary     `json:"bandeira" yaml:"bandeira"`
	Other          BucketSummary   `json:"outros_itens" yaml:"outros_itens"`
	Taxes          TaxFigures      `json:"tributos" yaml:"tributos"`
	OtherValues    CrossCheck      `json:"outros_valores" yaml:"outros_valores"`
	Metadata       InvoiceMetadata `json:"dados_fatura" yaml:"dados_fatura"`
	BlockSource    string          `json:"bloco_itens" yaml:"bloco_itens"`
	Items          []InvoiceItem   `json:"itens" yaml:"itens"`
}

// LegacySection is one keyword section of the legacy response shape.
type LegacySection struct {
	Quantity float64       `json:"qtd" yaml:"qtd"`
	Value    float64       `json:"valor" yaml:"valor"`
	PIS      float64       `json:"pis" yaml:"pis"`
	COFINS   float64       `json:"cofins" yaml:"cofins"`
	ICMS     float64       `json:"icms" yaml:"icms"`
	Entries  []LegacyEntry `json:"entries" yaml:"entries"`
}

// LegacyEntry is one matched line of a legacy section.
type LegacyEntry struct {
	Quantity   float64  `json:"qtd" yaml:"qtd"`
	UnitTariff *float64 `json:"tarifa_unit" yaml:"tarifa_unit"`
	Value      float64  `json:"valor" yaml:"valor"`
	Raw        string   `json:"raw" yaml:"raw"`
	Keyword    string   `json:"keyword" yaml:"keyword"`
}

// LegacyFlag groups the legacy flag sections.
type LegacyFlag struct {
	Consumed    LegacySection `json:"consumida" yaml:"consumida"`
	Compensated LegacySection `json:"compensada" yaml:"compensada"`
}

// LegacyResult mirrors the first published response shape of the invoice interpreter.
type LegacyResult struct {
	InjectedEnergy LegacySection  `json:"energia_injetada" yaml:"energia_injetada"`
	ConsumedEnergy LegacySection  `json:"consumo_kwh" yaml:"consumo_kwh"`
	Flag           LegacyFlag     `json:"bandeira" yaml:"bandeira"`
	OtherValues    CrossCheck     `json:"outros_valores" yaml:"outros_valores"`
	Metadata       map[string]any `json:"dados_fatura" yaml:"dados_fatura"`
}
