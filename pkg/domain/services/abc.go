package services

import (
	"sort"

	"github.com/shopspring/decimal"
)

// ABCClass is the Pareto class of an item
type ABCClass string

const (
	ClassA ABCClass = "A"
	ClassB ABCClass = "B"
	ClassC ABCClass = "C"
)

// ABCInput is the consumption value of one item over the analysed period
type ABCInput struct {
	ItemID string
	SKU    string
	Value  decimal.Decimal
}

// ABCRow is the classification of one item
type ABCRow struct {
	ItemID          string
	SKU             string
	Value           decimal.Decimal
	Share           decimal.Decimal // percent of total value
	CumulativeShare decimal.Decimal // percent, including this item
	Class           ABCClass
}

// ClassifyABC ranks items by value and assigns Pareto classes. aThreshold and
// bThreshold are cumulative percentages (e.g. 80 and 95). The highest-value item
// is always A when it has any value; zero-value items are always C.
func ClassifyABC(inputs []ABCInput, aThreshold, bThreshold decimal.Decimal) []ABCRow {
	sorted := make([]ABCInput, len(inputs))
	copy(sorted, inputs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Value.Equal(sorted[j].Value) {
			return sorted[i].Value.GreaterThan(sorted[j].Value)
		}
		return sorted[i].SKU < sorted[j].SKU
	})

	total := decimal.Zero
	for _, in := range sorted {
		if in.Value.IsPositive() {
			total = total.Add(in.Value)
		}
	}

	hundred := decimal.NewFromInt(100)
	rows := make([]ABCRow, 0, len(sorted))
	cumulative := decimal.Zero
	previous := decimal.Zero
	for i, in := range sorted {
		row := ABCRow{ItemID: in.ItemID, SKU: in.SKU, Value: in.Value, Class: ClassC}
		if !in.Value.IsPositive() || total.IsZero() {
			row.Share = decimal.Zero
			row.CumulativeShare = previous
			rows = append(rows, row)
			continue
		}

		row.Share = in.Value.Mul(hundred).DivRound(total, 4)
		cumulative = cumulative.Add(in.Value)
		row.CumulativeShare = cumulative.Mul(hundred).DivRound(total, 4)

		// An item belongs to the class in which its running share started.
		switch {
		case i == 0 || previous.LessThan(aThreshold):
			row.Class = ClassA
		case previous.LessThan(bThreshold):
			row.Class = ClassB
		default:
			row.Class = ClassC
		}
		previous = row.CumulativeShare
		rows = append(rows, row)
	}
	return rows
}
