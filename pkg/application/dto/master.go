// Package dto holds the inputs and read models exchanged with application services.
package dto

import (
	"github.com/shopspring/decimal"

	"github.com/vsinha/brewerp/pkg/domain/entities"
)

// RegisterCompanyInput creates a tenant with its first admin user
type RegisterCompanyInput struct {
	CompanyName string `json:"company_name"`
	CompanyCode string `json:"company_code"`
	Currency    string `json:"currency"`
	AdminEmail  string `json:"admin_email"`
	AdminName   string `json:"admin_name"`
	Password    string `json:"password"`
}

type RegisterResult struct {
	Company *entities.Company `json:"company"`
	User    *entities.User    `json:"user"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResult struct {
	Token     string         `json:"token"`
	ExpiresAt string         `json:"expires_at"`
	User      *entities.User `json:"user"`
}

type ChangePasswordInput struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// CompanyInput updates the mutable company fields; the code is fixed at registration
type CompanyInput struct {
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

type CountryInput struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

type BranchInput struct {
	CountryID string `json:"country_id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	Address   string `json:"address"`
	Active    *bool  `json:"active,omitempty"`
}

type UserInput struct {
	Email     string        `json:"email"`
	Name      string        `json:"name"`
	Role      entities.Role `json:"role"`
	BranchIDs []string      `json:"branch_ids"`

	// Password is required on create and ignored on update
	Password string `json:"password,omitempty"`
	Active   *bool  `json:"active,omitempty"`
}

type ItemInput struct {
	SKU          string                   `json:"sku"`
	Name         string                   `json:"name"`
	Category     entities.Category        `json:"category"`
	BaseUOM      string                   `json:"base_uom"`
	Conversions  []entities.UOMConversion `json:"conversions"`
	StandardCost decimal.Decimal          `json:"standard_cost"`
	ReorderLevel decimal.Decimal          `json:"reorder_level"`
	LotSizeRule  entities.LotSizeRule     `json:"lot_size_rule"`
	MinOrderQty  decimal.Decimal          `json:"min_order_qty"`
	PackSize     decimal.Decimal          `json:"pack_size"`
	LeadTimeDays int                      `json:"lead_time_days"`
	Active       *bool                    `json:"active,omitempty"`
}

type SupplierInput struct {
	Code         string `json:"code"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	LeadTimeDays int    `json:"lead_time_days"`
	Active       *bool  `json:"active,omitempty"`
}

// Conversion is the answer to a unit conversion query
type Conversion struct {
	ItemID   string          `json:"item_id"`
	Quantity decimal.Decimal `json:"quantity"`
	FromUOM  string          `json:"from_uom"`
	ToUOM    string          `json:"to_uom"`
	Result   decimal.Decimal `json:"result"`
}

// ImportResult counts what a bulk import changed
type ImportResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Posted  int `json:"posted"`
}

// ItemRow is one line of an item import; Row is the source line number
type ItemRow struct {
	Row   int
	Input ItemInput
}
