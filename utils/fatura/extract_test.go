package fatura

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/topsol/fatura-copel/dto"
)

const sampleInvoice = `COPEL DISTRIBUICAO S.A.
NOME: CLIENTE TESTE
ITENS DE FATURA
ENERGIA ELET CONSUMO kWh 350 0,75000 262,50 15,00 20,00
TOTAL 262,50
ICMS 300,00 50,00 PIS
VENCIMENTO: 15/08/2024`

func TestExtractEndToEnd(t *testing.T) {
	res := Extract(sampleInvoice)

	assert.Equal(t, string(BlockPrimary), res.BlockSource)
	assert.Equal(t, 350.0, res.ConsumedEnergy.Quantity)
	assert.Equal(t, 262.50, res.ConsumedEnergy.Value)
	assert.Equal(t, 15.0, res.ConsumedEnergy.PISCOFINS)
	assert.Equal(t, 20.0, res.ConsumedEnergy.ICMS)
	assert.Equal(t, dto.TaxFigures{ICMS: 300, COFINS: 0, PIS: 50}, res.Taxes)
	assert.Equal(t, dto.CrossCheck{DocumentTotal: 910.75, Classified: 262.50, Other: 648.25}, res.OtherValues)

	require.NotNil(t, res.Metadata.DueDate)
	assert.Equal(t, "15/08/2024", *res.Metadata.DueDate)
	require.NotNil(t, res.Metadata.CustomerName)
	assert.Equal(t, "CLIENTE TESTE", *res.Metadata.CustomerName)

	require.Len(t, res.Items, 1)
	item := res.Items[0]
	assert.Equal(t, "consumo", item.Bucket)
	assert.Equal(t, 4, item.Line)
	require.NotNil(t, item.UnitTariff)
	assert.Equal(t, 0.75, *item.UnitTariff)
}

func TestExtractEmptyText(t *testing.T) {
	var res dto.InvoiceResult
	require.NotPanics(t, func() { res = Extract("") })

	assert.Equal(t, dto.BucketSummary{}, res.ConsumedEnergy)
	assert.Equal(t, dto.BucketSummary{}, res.InjectedEnergy)
	assert.Equal(t, dto.FlagSummary{}, res.Flag)
	assert.Equal(t, dto.BucketSummary{}, res.Other)
	assert.Equal(t, dto.TaxFigures{}, res.Taxes)
	assert.Equal(t, dto.CrossCheck{}, res.OtherValues)
	assert.Equal(t, dto.InvoiceMetadata{}, res.Metadata)
	assert.Equal(t, string(BlockDocument), res.BlockSource)
	assert.NotNil(t, res.Items)
	assert.Empty(t, res.Items)
}

func TestExtractWithoutMarkersClassifiesWholeDocument(t *testing.T) {
	text := "ENERGIA ELET CONSUMO kWh 100 0,80000 80,00\n" +
		"ENERGIA INJ. OUC MPT TUSD kWh -60 -30,00\n" +
		"ENERGIA INJ. BAND. VERDE kWh -60 -1,20\n" +
		"ENERGIA CONS. B. VERDE kWh 100 2,00"

	res := Extract(text)

	assert.Equal(t, string(BlockDocument), res.BlockSource)
	assert.Equal(t, dto.BucketSummary{Quantity: 100, Value: 80, Lines: 1}, res.ConsumedEnergy)
	assert.Equal(t, dto.BucketSummary{Quantity: 60, Value: 30, Lines: 1}, res.InjectedEnergy)
	assert.Equal(t, dto.BucketSummary{Quantity: 60, Value: 1.20, Lines: 1}, res.Flag.Compensated)
	assert.Equal(t, dto.BucketSummary{Quantity: 100, Value: 2, Lines: 1}, res.Flag.Consumed)
	assert.Equal(t, 113.20, res.OtherValues.Classified)
}

func TestExtractWithOptionsCustomMarkers(t *testing.T) {
	text := "DETALHE\nENERGIA ELET CONSUMO kWh 10 5,00\nFIM\nMULTA 9,00"
	opts := Options{Primary: BlockMarkers{Start: "DETALHE", End: "FIM"}}

	res := ExtractWithOptions(text, opts)

	assert.Equal(t, string(BlockPrimary), res.BlockSource)
	assert.Equal(t, 5.0, res.ConsumedEnergy.Value)
	assert.Zero(t, res.Other.Lines)
}
