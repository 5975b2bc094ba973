package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// AlertStatus is the state of a low-stock alert
type AlertStatus string

const (
	AlertOpen     AlertStatus = "open"
	AlertResolved AlertStatus = "resolved"
)

// LowStockAlert flags an item whose on-hand balance fell to or below its reorder level
type LowStockAlert struct {
	ID           string          `json:"id"`
	CompanyID    string          `json:"company_id"`
	BranchID     string          `json:"branch_id"`
	ItemID       string          `json:"item_id"`
	Quantity     decimal.Decimal `json:"quantity"`
	ReorderLevel decimal.Decimal `json:"reorder_level"`
	SuggestedQty decimal.Decimal `json:"suggested_qty"`
	Status       AlertStatus     `json:"status"`
	RaisedAt     time.Time       `json:"raised_at"`
	ResolvedAt   *time.Time      `json:"resolved_at,omitempty"`
}

// Resolve closes the alert at now
func (a *LowStockAlert) Resolve(now time.Time) {
	a.Status = AlertResolved
	a.ResolvedAt = &now
}
