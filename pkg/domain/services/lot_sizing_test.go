package services

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vsinha/brewerp/pkg/domain/entities"
)

func TestSuggestOrderQty(t *testing.T) {
	testCases := []struct {
		name     string
		rule     entities.LotSizeRule
		reorder  string
		minQty   string
		pack     string
		onHand   string
		expected string
	}{
		{"lot for lot", entities.LotForLot, "100", "0", "0", "40", "160"},
		{"minimum qty above shortfall", entities.MinimumQty, "100", "500", "0", "40", "500"},
		{"minimum qty below shortfall", entities.MinimumQty, "100", "50", "0", "40", "160"},
		{"standard pack rounds up", entities.StandardPack, "100", "0", "24", "40", "168"},
		{"standard pack exact", entities.StandardPack, "100", "0", "40", "40", "160"},
		{"covered", entities.LotForLot, "100", "0", "0", "250", "0"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			item := &entities.Item{
				LotSizeRule:  tc.rule,
				ReorderLevel: d(tc.reorder),
				MinOrderQty:  d(tc.minQty),
				PackSize:     d(tc.pack),
			}
			got := SuggestOrderQty(item, d(tc.onHand))
			if !got.Equal(d(tc.expected)) {
				t.Errorf("Expected %s, got %s", tc.expected, got)
			}
		})
	}
}

func TestBelowReorderLevel(t *testing.T) {
	item := &entities.Item{ReorderLevel: d("10")}
	if !BelowReorderLevel(item, d("10")) {
		t.Error("Expected balance equal to reorder level to be low")
	}
	if BelowReorderLevel(item, d("10.01")) {
		t.Error("Expected balance above reorder level not to be low")
	}

	noLevel := &entities.Item{ReorderLevel: decimal.Zero}
	if BelowReorderLevel(noLevel, decimal.Zero) {
		t.Error("Expected items without reorder level never to be low")
	}
}
