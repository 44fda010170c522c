package fatura

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/topsol/fatura-copel/dto"
)

const (
	quantityPlaces = 3
	moneyPlaces    = 2
)

type accumulator struct {
	quantity  float64
	value     float64
	pisCofins float64
	icms      float64
	lines     int
}

func (a *accumulator) add(e ClassifiedEntry) {
	a.quantity += e.Quantity
	a.value += e.Value
	if e.PISCOFINS != nil {
		a.pisCofins += *e.PISCOFINS
	}
	if e.ICMS != nil {
		a.icms += *e.ICMS
	}
	a.lines++
}

// Totals holds the unrounded running sums of every bucket.
type Totals struct {
	buckets [bucketCount]accumulator
}

// Aggregate sums entries into their buckets. Nothing is rounded here.
func Aggregate(entries []ClassifiedEntry) Totals {
	var t Totals
	for _, e := range entries {
		if e.Bucket < 0 || e.Bucket >= bucketCount {
			continue
		}
		t.buckets[e.Bucket].add(e)
	}
	return t
}

// Summary emits the rounded summary of bucket b. This is the only rounding step.
func (t Totals) Summary(b Bucket) dto.BucketSummary {
	if b < 0 || b >= bucketCount {
		return dto.BucketSummary{}
	}
	a := t.buckets[b]
	return dto.BucketSummary{
		Quantity:  round(a.quantity, quantityPlaces),
		Value:     round(a.value, moneyPlaces),
		PISCOFINS: round(a.pisCofins, moneyPlaces),
		ICMS:      round(a.icms, moneyPlaces),
		Lines:     a.lines,
	}
}

// ClassifiedValue is the unrounded value of the four named buckets.
func (t Totals) ClassifiedValue() float64 {
	return t.buckets[BucketConsumed].value +
		t.buckets[BucketInjected].value +
		t.buckets[BucketFlagConsumed].value +
		t.buckets[BucketFlagCompensated].value
}

// CrossCheck compares the sum of every monetary token of the document with the
// classified buckets. The difference trends toward the uncategorised charges.
func (t Totals) CrossCheck(documentTotal float64) dto.CrossCheck {
	classified := t.ClassifiedValue()
	return dto.CrossCheck{
		DocumentTotal: round(documentTotal, moneyPlaces),
		Classified:    round(classified, moneyPlaces),
		Other:         round(documentTotal-classified, moneyPlaces),
	}
}

func round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
