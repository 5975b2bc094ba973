package services

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/vsinha/brewerp/pkg/domain/apperror"
	"github.com/vsinha/brewerp/pkg/domain/entities"
)

// LotDraw is the quantity taken from one lot
type LotDraw struct {
	LotID     string
	LotNumber string
	Quantity  decimal.Decimal
	UnitCost  decimal.Decimal
	Remaining decimal.Decimal
}

// Cost is the drawn quantity at lot cost
func (d LotDraw) Cost() decimal.Decimal {
	return d.Quantity.Mul(d.UnitCost)
}

// ConsumptionResult represents the result of a FIFO draw
type ConsumptionResult struct {
	Quantity  decimal.Decimal
	TotalCost decimal.Decimal
	Draws     []LotDraw
}

// UnitCost is the weighted cost of the draw
func (r *ConsumptionResult) UnitCost() decimal.Decimal {
	if !r.Quantity.IsPositive() {
		return decimal.Zero
	}
	return r.TotalCost.DivRound(r.Quantity, CostScale)
}

// SortFIFO orders lots oldest first, breaking ties by lot number
func SortFIFO(lots []*entities.StockLot) {
	sort.SliceStable(lots, func(i, j int) bool {
		if !lots[i].ReceivedAt.Equal(lots[j].ReceivedAt) {
			return lots[i].ReceivedAt.Before(lots[j].ReceivedAt)
		}
		return lots[i].LotNumber < lots[j].LotNumber
	})
}

// ConsumeFIFO draws qty from lots oldest first. The lots are updated in place;
// nothing is modified when the lots cannot cover qty.
func ConsumeFIFO(lots []*entities.StockLot, qty decimal.Decimal) (*ConsumptionResult, error) {
	if !qty.IsPositive() {
		return nil, fmt.Errorf("quantity must be positive, got %s", qty)
	}

	available := decimal.Zero
	for _, lot := range lots {
		available = available.Add(lot.RemainingQty)
	}
	if available.LessThan(qty) {
		return nil, fmt.Errorf("need %s, have %s: %w", qty, available, apperror.ErrInsufficientStock)
	}

	SortFIFO(lots)

	result := &ConsumptionResult{
		Quantity:  qty,
		TotalCost: decimal.Zero,
		Draws:     []LotDraw{},
	}
	remaining := qty
	for _, lot := range lots {
		if !remaining.IsPositive() {
			break
		}
		if !lot.RemainingQty.IsPositive() {
			continue
		}

		drawQty := decimal.Min(remaining, lot.RemainingQty)
		lot.RemainingQty = lot.RemainingQty.Sub(drawQty)
		remaining = remaining.Sub(drawQty)

		draw := LotDraw{
			LotID:     lot.ID,
			LotNumber: lot.LotNumber,
			Quantity:  drawQty,
			UnitCost:  lot.UnitCost,
			Remaining: lot.RemainingQty,
		}
		result.Draws = append(result.Draws, draw)
		result.TotalCost = result.TotalCost.Add(draw.Cost())
	}

	return result, nil
}
