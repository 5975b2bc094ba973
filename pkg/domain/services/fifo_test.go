package services

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/brewerp/pkg/domain/apperror"
	"github.com/vsinha/brewerp/pkg/domain/entities"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testLots() []*entities.StockLot {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return []*entities.StockLot{
		{ID: "l3", LotNumber: "LOT-3", ReceivedAt: base.AddDate(0, 0, 10), RemainingQty: d("50"), UnitCost: d("3")},
		{ID: "l1", LotNumber: "LOT-1", ReceivedAt: base, RemainingQty: d("20"), UnitCost: d("1")},
		{ID: "l2", LotNumber: "LOT-2", ReceivedAt: base.AddDate(0, 0, 5), RemainingQty: d("30"), UnitCost: d("2")},
	}
}

func TestConsumeFIFO_OldestFirst(t *testing.T) {
	lots := testLots()

	result, err := ConsumeFIFO(lots, d("35"))
	if err != nil {
		t.Fatalf("ConsumeFIFO failed: %v", err)
	}

	if len(result.Draws) != 2 {
		t.Fatalf("Expected 2 draws, got %d", len(result.Draws))
	}
	if result.Draws[0].LotNumber != "LOT-1" || !result.Draws[0].Quantity.Equal(d("20")) {
		t.Errorf("Expected first draw of 20 from LOT-1, got %+v", result.Draws[0])
	}
	if result.Draws[1].LotNumber != "LOT-2" || !result.Draws[1].Quantity.Equal(d("15")) {
		t.Errorf("Expected second draw of 15 from LOT-2, got %+v", result.Draws[1])
	}

	// 20*1 + 15*2
	if !result.TotalCost.Equal(d("50")) {
		t.Errorf("Expected total cost 50, got %s", result.TotalCost)
	}
	if !result.UnitCost().Equal(d("1.428571")) {
		t.Errorf("Expected unit cost 1.428571, got %s", result.UnitCost())
	}

	// Lots were updated in place and re-ordered oldest first
	if !lots[0].RemainingQty.IsZero() || !lots[1].RemainingQty.Equal(d("15")) || !lots[2].RemainingQty.Equal(d("50")) {
		t.Errorf("Unexpected remaining quantities: %s %s %s", lots[0].RemainingQty, lots[1].RemainingQty, lots[2].RemainingQty)
	}
}

func TestConsumeFIFO_Insufficient(t *testing.T) {
	lots := testLots()

	_, err := ConsumeFIFO(lots, d("100.5"))
	if err == nil {
		t.Fatal("Expected insufficient stock error, got none")
	}
	if !errors.Is(err, apperror.ErrInsufficientStock) {
		t.Errorf("Expected ErrInsufficientStock, got %v", err)
	}

	total := decimal.Zero
	for _, lot := range lots {
		total = total.Add(lot.RemainingQty)
	}
	if !total.Equal(d("100")) {
		t.Errorf("Expected lots to be untouched, total now %s", total)
	}
}

func TestConsumeFIFO_ExactAndInvalid(t *testing.T) {
	lots := testLots()
	result, err := ConsumeFIFO(lots, d("100"))
	if err != nil {
		t.Fatalf("ConsumeFIFO failed: %v", err)
	}
	if !result.TotalCost.Equal(d("230")) {
		t.Errorf("Expected total cost 230, got %s", result.TotalCost)
	}

	if _, err := ConsumeFIFO(lots, decimal.Zero); err == nil {
		t.Error("Expected error for zero quantity")
	}
}

func TestSortFIFO_TieBreaksOnLotNumber(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	lots := []*entities.StockLot{
		{LotNumber: "B", ReceivedAt: at},
		{LotNumber: "A", ReceivedAt: at},
	}
	SortFIFO(lots)
	if lots[0].LotNumber != "A" {
		t.Errorf("Expected lot A first, got %s", lots[0].LotNumber)
	}
}
