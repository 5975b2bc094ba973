package services

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
)

var decimalComparer = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })

func TestClassifyABC(t *testing.T) {
	inputs := []ABCInput{
		{ItemID: "i3", SKU: "CAPS", Value: d("150")},
		{ItemID: "i1", SKU: "MALT", Value: d("500")},
		{ItemID: "i5", SKU: "YEAST", Value: decimal.Zero},
		{ItemID: "i2", SKU: "HOPS", Value: d("300")},
		{ItemID: "i4", SKU: "LABELS", Value: d("50")},
	}

	got := ClassifyABC(inputs, d("80"), d("95"))

	want := []ABCRow{
		{ItemID: "i1", SKU: "MALT", Value: d("500"), Share: d("50"), CumulativeShare: d("50"), Class: ClassA},
		{ItemID: "i2", SKU: "HOPS", Value: d("300"), Share: d("30"), CumulativeShare: d("80"), Class: ClassA},
		{ItemID: "i3", SKU: "CAPS", Value: d("150"), Share: d("15"), CumulativeShare: d("95"), Class: ClassB},
		{ItemID: "i4", SKU: "LABELS", Value: d("50"), Share: d("5"), CumulativeShare: d("100"), Class: ClassC},
		{ItemID: "i5", SKU: "YEAST", Value: decimal.Zero, Share: decimal.Zero, CumulativeShare: d("100"), Class: ClassC},
	}

	if diff := cmp.Diff(want, got, decimalComparer); diff != "" {
		t.Errorf("ClassifyABC mismatch (-want +got):\n%s", diff)
	}
}

func TestClassifyABC_SingleDominantItem(t *testing.T) {
	got := ClassifyABC([]ABCInput{
		{ItemID: "i1", SKU: "MALT", Value: d("990")},
		{ItemID: "i2", SKU: "HOPS", Value: d("10")},
	}, d("80"), d("95"))

	if got[0].Class != ClassA {
		t.Errorf("Expected dominant item to be A, got %s", got[0].Class)
	}
	if got[1].Class != ClassC {
		t.Errorf("Expected tail item to be C, got %s", got[1].Class)
	}
}

func TestClassifyABC_Empty(t *testing.T) {
	if rows := ClassifyABC(nil, d("80"), d("95")); len(rows) != 0 {
		t.Errorf("Expected no rows, got %d", len(rows))
	}

	rows := ClassifyABC([]ABCInput{{ItemID: "i1", SKU: "A", Value: decimal.Zero}}, d("80"), d("95"))
	if rows[0].Class != ClassC {
		t.Errorf("Expected zero-value item to be C, got %s", rows[0].Class)
	}
}
