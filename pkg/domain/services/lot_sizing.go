package services

import (
	"github.com/shopspring/decimal"

	"github.com/vsinha/brewerp/pkg/domain/entities"
)

// SuggestOrderQty sizes a reorder for an item whose on-hand balance is at or below
// its reorder level. The target is twice the reorder level; the shortfall against
// that target is then rounded according to the item's lot size rule.
func SuggestOrderQty(item *entities.Item, onHand decimal.Decimal) decimal.Decimal {
	target := item.ReorderLevel.Mul(decimal.NewFromInt(2))
	shortfall := target.Sub(onHand)
	if !shortfall.IsPositive() {
		return decimal.Zero
	}

	switch item.LotSizeRule {
	case entities.MinimumQty:
		return decimal.Max(shortfall, item.MinOrderQty)
	case entities.StandardPack:
		if !item.PackSize.IsPositive() {
			return shortfall
		}
		packs := shortfall.Div(item.PackSize).Ceil()
		return packs.Mul(item.PackSize)
	default:
		return shortfall
	}
}

// BelowReorderLevel reports whether onHand should raise a low-stock alert
func BelowReorderLevel(item *entities.Item, onHand decimal.Decimal) bool {
	return item.ReorderLevel.IsPositive() && onHand.LessThanOrEqual(item.ReorderLevel)
}
