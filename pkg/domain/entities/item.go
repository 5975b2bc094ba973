package entities

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/brewerp/pkg/domain/apperror"
)

// Category classifies items for reporting
type Category string

const (
	RawMaterial  Category = "raw_material"
	Packaging    Category = "packaging"
	FinishedGood Category = "finished_good"
	Consumable   Category = "consumable"
	SparePart    Category = "spare_part"
)

// Valid reports whether c is a known category
func (c Category) Valid() bool {
	switch c {
	case RawMaterial, Packaging, FinishedGood, Consumable, SparePart:
		return true
	}
	return false
}

// LotSizeRule represents the rule used to size a reorder suggestion
type LotSizeRule string

const (
	LotForLot    LotSizeRule = "lot_for_lot"
	MinimumQty   LotSizeRule = "minimum_qty"
	StandardPack LotSizeRule = "standard_pack"
)

// Valid reports whether l is a known rule
func (l LotSizeRule) Valid() bool {
	switch l {
	case LotForLot, MinimumQty, StandardPack:
		return true
	}
	return false
}

// UOMConversion relates an alternate unit to the item's base unit: 1 UOM = Factor base units
type UOMConversion struct {
	UOM    string          `json:"uom"`
	Factor decimal.Decimal `json:"factor"`
}

// Item is the item master record
type Item struct {
	ID           string          `json:"id"`
	CompanyID    string          `json:"company_id"`
	SKU          string          `json:"sku"`
	Name         string          `json:"name"`
	Category     Category        `json:"category"`
	BaseUOM      string          `json:"base_uom"`
	Conversions  []UOMConversion `json:"conversions"`
	StandardCost decimal.Decimal `json:"standard_cost"`
	ReorderLevel decimal.Decimal `json:"reorder_level"`
	LotSizeRule  LotSizeRule     `json:"lot_size_rule"`
	MinOrderQty  decimal.Decimal `json:"min_order_qty"`
	PackSize     decimal.Decimal `json:"pack_size"`
	LeadTimeDays int             `json:"lead_time_days"`
	Active       bool            `json:"active"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Normalize canonicalizes codes and fills defaults before validation
func (i *Item) Normalize() {
	i.SKU = NormalizeCode(i.SKU)
	i.Name = strings.TrimSpace(i.Name)
	i.BaseUOM = NormalizeUOM(i.BaseUOM)
	if i.LotSizeRule == "" {
		i.LotSizeRule = LotForLot
	}
	if i.Conversions == nil {
		i.Conversions = []UOMConversion{}
	}
	for idx := range i.Conversions {
		i.Conversions[idx].UOM = NormalizeUOM(i.Conversions[idx].UOM)
	}
}

// NormalizeUOM canonicalizes a unit of measure code
func NormalizeUOM(uom string) string {
	return strings.ToUpper(strings.TrimSpace(uom))
}

// Validate checks the item fields
func (i *Item) Validate() error {
	v := apperror.NewValidationError()
	if i.CompanyID == "" {
		v.Add("company_id", "is required")
	}
	if !validCode(i.SKU) {
		v.Add("sku", "must be 1-32 characters of A-Z, 0-9, '-' or '_'")
	}
	if i.Name == "" {
		v.Add("name", "is required")
	}
	if !i.Category.Valid() {
		v.Add("category", "must be one of raw_material, packaging, finished_good, consumable, spare_part")
	}
	if i.BaseUOM == "" {
		v.Add("base_uom", "is required")
	}
	if i.StandardCost.IsNegative() {
		v.Add("standard_cost", "cannot be negative")
	}
	if i.ReorderLevel.IsNegative() {
		v.Add("reorder_level", "cannot be negative")
	}
	if i.MinOrderQty.IsNegative() {
		v.Add("min_order_qty", "cannot be negative")
	}
	if i.PackSize.IsNegative() {
		v.Add("pack_size", "cannot be negative")
	}
	if i.LeadTimeDays < 0 {
		v.Add("lead_time_days", "cannot be negative")
	}
	if !i.LotSizeRule.Valid() {
		v.Add("lot_size_rule", "must be one of lot_for_lot, minimum_qty, standard_pack")
	} else if i.LotSizeRule == StandardPack && !i.PackSize.IsPositive() {
		v.Add("pack_size", "must be positive for standard_pack")
	}

	seen := map[string]bool{i.BaseUOM: true}
	for _, conv := range i.Conversions {
		switch {
		case conv.UOM == "":
			v.Add("conversions", "uom is required")
		case seen[conv.UOM]:
			v.Add("conversions", "duplicate uom %s", conv.UOM)
		case !conv.Factor.IsPositive():
			v.Add("conversions", "factor for %s must be positive", conv.UOM)
		}
		seen[conv.UOM] = true
	}
	return v.Err()
}

// Factor returns how many base units one uom holds
func (i *Item) Factor(uom string) (decimal.Decimal, bool) {
	uom = NormalizeUOM(uom)
	if uom == i.BaseUOM {
		return decimal.NewFromInt(1), true
	}
	for _, conv := range i.Conversions {
		if conv.UOM == uom {
			return conv.Factor, true
		}
	}
	return decimal.Zero, false
}

// UOMs lists the base unit followed by every alternate unit
func (i *Item) UOMs() []string {
	uoms := []string{i.BaseUOM}
	for _, conv := range i.Conversions {
		uoms = append(uoms, conv.UOM)
	}
	return uoms
}
