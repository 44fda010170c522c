// Package export renders a classified invoice as CSV, XLSX or a plain-text report.
package export

import (
	"fmt"
	"io"

	"github.com/Rhymond/go-money"
	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/topsol/fatura-copel/dto"
)

const (
	SummarySheet = "Resumo"
	ItemsSheet   = "Itens"
)

// WriteCSV writes one row per classified line, with a header row.
func WriteCSV(w io.Writer, result *dto.InvoiceResult) error {
	items := result.Items
	if items == nil {
		items = []dto.InvoiceItem{}
	}
	if err := gocsv.Marshal(&items, w); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

type summaryRow struct {
	label string
	value any
}

func summaryRows(r *dto.InvoiceResult) []summaryRow {
	rows := []summaryRow{
		{"Consumo (kWh)", r.ConsumedEnergy.Quantity},
		{"Consumo (R$)", r.ConsumedEnergy.Value},
		{"Energia injetada (kWh)", r.InjectedEnergy.Quantity},
		{"Energia injetada (R$)", r.InjectedEnergy.Value},
		{"Bandeira consumida (R$)", r.Flag.Consumed.Value},
		{"Bandeira compensada (R$)", r.Flag.Compensated.Value},
		{"Outros itens (R$)", r.Other.Value},
		{"ICMS", r.Taxes.ICMS},
		{"COFINS", r.Taxes.COFINS},
		{"PIS", r.Taxes.PIS},
		{"Soma total do documento", r.OtherValues.DocumentTotal},
		{"Classificados", r.OtherValues.Classified},
		{"Outros valores", r.OtherValues.Other},
		{"Bloco de itens", r.BlockSource},
	}
	m := r.Metadata
	if m.Reference != nil {
		rows = append(rows, summaryRow{"Referência", *m.Reference})
	}
	if m.DueDate != nil {
		rows = append(rows, summaryRow{"Vencimento", *m.DueDate})
	}
	if m.TotalToPay != nil {
		rows = append(rows, summaryRow{"Total a pagar", *m.TotalToPay})
	}
	if m.CustomerName != nil {
		rows = append(rows, summaryRow{"Unidade consumidora", *m.CustomerName})
	}
	if m.ConsumerUnitID != nil {
		rows = append(rows, summaryRow{"UC", *m.ConsumerUnitID})
	}
	if m.Balance != nil {
		rows = append(rows, summaryRow{"Saldo acumulado", *m.Balance})
	}
	return rows
}

// WriteXLSX writes a workbook with a summary sheet and an items sheet.
func WriteXLSX(w io.Writer, result *dto.InvoiceResult) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(ItemsSheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	summary := [][]any{{"Fatura COPEL"}, {}}
	for _, row := range summaryRows(result) {
		summary = append(summary, []any{row.label, row.value})
	}
	if err := writeRows(f, SummarySheet, summary); err != nil {
		return err
	}

	items := [][]any{{"Linha", "Bucket", "Qtd", "Valor", "Tarifa unit.", "PIS/COFINS", "ICMS", "Texto"}}
	for _, item := range result.Items {
		items = append(items, []any{
			item.Line, item.Bucket, item.Quantity, item.Value,
			optional(item.UnitTariff), optional(item.PISCOFINS), optional(item.ICMS),
			item.Raw,
		})
	}
	if err := writeRows(f, ItemsSheet, items); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write xlsx: %w", err)
	}
	return nil
}

// writeRows fills sheet from A1 down and stops at the first failing cell.
func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		for j, v := range row {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return fmt.Errorf("failed to address cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("failed to set %s!%s: %w", sheet, cell, err)
			}
		}
	}
	return nil
}

func optional(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

// BRL formats v as Brazilian reais, e.g. "R$1.234,56".
func BRL(v float64) string {
	cents := decimal.NewFromFloat(v).Mul(decimal.New(100, 0)).Round(0).IntPart()
	return money.New(cents, money.BRL).Display()
}

// RenderText writes a human-readable summary of the invoice.
func RenderText(w io.Writer, result *dto.InvoiceResult) error {
	lines := []string{
		"Fatura COPEL",
		fmt.Sprintf("  Consumo:             %10.3f kWh  %s", result.ConsumedEnergy.Quantity, BRL(result.ConsumedEnergy.Value)),
		fmt.Sprintf("  Energia injetada:    %10.3f kWh  %s", result.InjectedEnergy.Quantity, BRL(result.InjectedEnergy.Value)),
		fmt.Sprintf("  Bandeira consumida:  %10.3f kWh  %s", result.Flag.Consumed.Quantity, BRL(result.Flag.Consumed.Value)),
		fmt.Sprintf("  Bandeira compensada: %10.3f kWh  %s", result.Flag.Compensated.Quantity, BRL(result.Flag.Compensated.Value)),
		fmt.Sprintf("  Outros itens:        %s", BRL(result.Other.Value)),
		fmt.Sprintf("Tributos: ICMS %s  COFINS %s  PIS %s",
			BRL(result.Taxes.ICMS), BRL(result.Taxes.COFINS), BRL(result.Taxes.PIS)),
		fmt.Sprintf("Conferência: documento %s, classificados %s, outros %s",
			BRL(result.OtherValues.DocumentTotal), BRL(result.OtherValues.Classified), BRL(result.OtherValues.Other)),
	}
	if m := result.Metadata; m.TotalToPay != nil {
		lines = append(lines, "Total a pagar: "+BRL(*m.TotalToPay))
	}
	if m := result.Metadata; m.DueDate != nil {
		lines = append(lines, "Vencimento: "+*m.DueDate)
	}

	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}
	return nil
}
