package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/topsol/fatura-copel/utils/fatura"
)

const invoiceText = `ITENS DE FATURA
ENERGIA ELET CONSUMO kWh 350 0,75000 262,50 15,00 20,00
CONTRIB. ILUM. PUBLICA 25,30
TOTAL 287,80
ICMS 300,00 50,00 PIS
TOTAL A PAGAR 1.287,80
VENCIMENTO: 15/08/2024`

func TestWriteCSV(t *testing.T) {
	result := fatura.Extract(invoiceText)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, &result))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"bucket", "qtd", "valor", "tarifa_unit", "pis_cofins", "icms", "linha", "raw"}, records[0])
	assert.Equal(t, "consumo", records[1][0])
	assert.Equal(t, "outros", records[2][0])
}

func TestWriteCSVEmptyResult(t *testing.T) {
	result := fatura.Extract("")

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, &result))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestWriteXLSX(t *testing.T) {
	result := fatura.Extract(invoiceText)

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, &result))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SummarySheet, ItemsSheet}, f.GetSheetList())

	label, err := f.GetCellValue(SummarySheet, "A3")
	require.NoError(t, err)
	assert.Equal(t, "Consumo (kWh)", label)

	rows, err := f.GetRows(ItemsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Linha", rows[0][0])
	assert.Equal(t, "consumo", rows[1][1])
	assert.Equal(t, "350", rows[1][2])
}

func TestBRL(t *testing.T) {
	assert.Equal(t, "R$1.234,56", BRL(1234.56))
	assert.Equal(t, "R$0,29", BRL(0.29))
}

func TestRenderText(t *testing.T) {
	result := fatura.Extract(invoiceText)

	var buf bytes.Buffer
	require.NoError(t, RenderText(&buf, &result))

	out := buf.String()
	assert.Contains(t, out, "R$262,50")
	assert.Contains(t, out, "ICMS R$300,00")
	assert.Contains(t, out, "Total a pagar: R$1.287,80")
	assert.Contains(t, out, "Vencimento: 15/08/2024")
}

func TestWriteRowsReportsCellErrors(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	err := writeRows(f, "Inexistente", [][]any{{"a"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Inexistente!A1")

	require.NoError(t, writeRows(f, "Sheet1", [][]any{{"a", nil, 2.5}}))
	v, err := f.GetCellValue("Sheet1", "C1")
	require.NoError(t, err)
	assert.Equal(t, "2.5", v)
	b, err := f.GetCellValue("Sheet1", "B1")
	require.NoError(t, err)
	assert.Empty(t, b)
}
