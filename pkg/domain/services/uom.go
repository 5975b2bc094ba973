package services

import (
	"github.com/shopspring/decimal"

	"github.com/vsinha/brewerp/pkg/domain/apperror"
	"github.com/vsinha/brewerp/pkg/domain/entities"
)

// CostScale is the number of decimal places kept for per-unit costs
const CostScale = 6

// ToBase converts qty expressed in uom into the item's base unit
func ToBase(item *entities.Item, qty decimal.Decimal, uom string) (decimal.Decimal, error) {
	factor, ok := item.Factor(uom)
	if !ok {
		return decimal.Zero, apperror.Invalid("uom", "%s is not defined for item %s", uom, item.SKU)
	}
	return qty.Mul(factor), nil
}

// FromBase converts a base-unit quantity into uom
func FromBase(item *entities.Item, qty decimal.Decimal, uom string) (decimal.Decimal, error) {
	factor, ok := item.Factor(uom)
	if !ok {
		return decimal.Zero, apperror.Invalid("uom", "%s is not defined for item %s", uom, item.SKU)
	}
	return qty.DivRound(factor, 12), nil
}

// Convert converts qty between two units of the same item
func Convert(item *entities.Item, qty decimal.Decimal, from, to string) (decimal.Decimal, error) {
	base, err := ToBase(item, qty, from)
	if err != nil {
		return decimal.Zero, err
	}
	return FromBase(item, base, to)
}

// BaseUnitCost converts a price per uom into a cost per base unit
func BaseUnitCost(item *entities.Item, price decimal.Decimal, uom string) (decimal.Decimal, error) {
	factor, ok := item.Factor(uom)
	if !ok {
		return decimal.Zero, apperror.Invalid("uom", "%s is not defined for item %s", uom, item.SKU)
	}
	return price.DivRound(factor, CostScale), nil
}
