package fatura

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/topsol/fatura-copel/dto"
)

func TestExtractTaxes(t *testing.T) {
	filler := strings.Repeat("x", 250)

	cases := []struct {
		name string
		text string
		want dto.TaxFigures
	}{
		{
			name: "three figures inside the block",
			text: "ICMS ... 10,00 20,00 5,50 PIS",
			want: dto.TaxFigures{ICMS: 10, COFINS: 20, PIS: 5.50},
		},
		{
			name: "two figures leave cofins empty",
			text: "ICMS 300,00 50,00 PIS",
			want: dto.TaxFigures{ICMS: 300, PIS: 50},
		},
		{
			name: "figures under the label row",
			text: "ICMS COFINS PIS\n120,00 30,00 6,50",
			want: dto.TaxFigures{ICMS: 120, COFINS: 30, PIS: 6.50},
		},
		{
			name: "last three tokens of a long window",
			text: "ICMS base 1.000,00 aliq 18,00 valores 180,00 40,00 8,70 PIS",
			want: dto.TaxFigures{ICMS: 180, COFINS: 40, PIS: 8.70},
		},
		{
			name: "skips an ICMS mention far from PIS",
			text: "ICMS incluso " + filler + "\nICMS 1,00 2,00 3,00 PIS",
			want: dto.TaxFigures{ICMS: 1, COFINS: 2, PIS: 3},
		},
		{
			name: "label probes when no block exists",
			text: "ICMS 12,00 " + filler + " COFINS 3,00 PIS 0,65",
			want: dto.TaxFigures{ICMS: 12, COFINS: 3, PIS: 0.65},
		},
		{
			name: "empty text",
			text: "",
			want: dto.TaxFigures{},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractTaxes(tc.text))
		})
	}
}

func TestExtractTaxesWithinHonoursLookahead(t *testing.T) {
	got := ExtractTaxesWithin("ICMS 10,00 20,00 5,50 PIS", 5, DefaultTaxTrailing)

	assert.Equal(t, dto.TaxFigures{ICMS: 10}, got)
}
