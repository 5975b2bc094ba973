package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/brewerp/pkg/domain/entities"
)

// SeedFile is a full demo or bootstrap data set
type SeedFile struct {
	Companies []SeedCompany `yaml:"companies"`
}

type SeedCompany struct {
	Name      string         `yaml:"name"`
	Code      string         `yaml:"code"`
	Currency  string         `yaml:"currency"`
	Admin     SeedUser       `yaml:"admin"`
	Countries []SeedCountry  `yaml:"countries"`
	Users     []SeedUser     `yaml:"users"`
	Suppliers []SeedSupplier `yaml:"suppliers"`
	Items     []SeedItem     `yaml:"items"`
	Stock     []SeedStock    `yaml:"stock"`
}

type SeedCountry struct {
	Code     string       `yaml:"code"`
	Name     string       `yaml:"name"`
	Currency string       `yaml:"currency"`
	Branches []SeedBranch `yaml:"branches"`
}

type SeedBranch struct {
	Code    string `yaml:"code"`
	Name    string `yaml:"name"`
	Address string `yaml:"address"`
}

// SeedUser lists branches by code
type SeedUser struct {
	Email    string        `yaml:"email"`
	Name     string        `yaml:"name"`
	Role     entities.Role `yaml:"role"`
	Password string        `yaml:"password"`
	Branches []string      `yaml:"branches"`
}

type SeedSupplier struct {
	Code         string `yaml:"code"`
	Name         string `yaml:"name"`
	Email        string `yaml:"email"`
	Phone        string `yaml:"phone"`
	LeadTimeDays int    `yaml:"lead_time_days"`
}

type SeedConversion struct {
	UOM    string `yaml:"uom"`
	Factor string `yaml:"factor"`
}

// SeedItem keeps numbers as strings so YAML floats never round them
type SeedItem struct {
	SKU          string            `yaml:"sku"`
	Name         string            `yaml:"name"`
	Category     entities.Category `yaml:"category"`
	BaseUOM      string            `yaml:"base_uom"`
	Conversions  []SeedConversion  `yaml:"conversions"`
	StandardCost string            `yaml:"standard_cost"`
	ReorderLevel string            `yaml:"reorder_level"`
	LotSizeRule  string            `yaml:"lot_size_rule"`
	MinOrderQty  string            `yaml:"min_order_qty"`
	PackSize     string            `yaml:"pack_size"`
	LeadTimeDays int               `yaml:"lead_time_days"`
}

type SeedStock struct {
	Branch     string     `yaml:"branch"`
	SKU        string     `yaml:"sku"`
	UOM        string     `yaml:"uom"`
	Quantity   string     `yaml:"quantity"`
	UnitCost   string     `yaml:"unit_cost"`
	LotNumber  string     `yaml:"lot_number"`
	ReceivedAt *time.Time `yaml:"received_at"`
}

// ParseDecimal reads an optional decimal, empty meaning zero
func ParseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

// SeedResult summarises an applied seed file
type SeedResult struct {
	Companies int
	Users     int
	Items     int
	Suppliers int
	Movements int
}
