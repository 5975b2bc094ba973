package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/brewerp/pkg/domain/entities"
)

// ReportFilter scopes a report. From is inclusive and To exclusive; zero
// values are filled with report defaults.
type ReportFilter struct {
	BranchID string
	From     time.Time
	To       time.Time
	Days     int
}

type ValuationRow struct {
	BranchID    string            `json:"branch_id"`
	BranchCode  string            `json:"branch_code"`
	ItemID      string            `json:"item_id"`
	SKU         string            `json:"sku"`
	Name        string            `json:"name"`
	Category    entities.Category `json:"category"`
	UOM         string            `json:"uom"`
	Quantity    decimal.Decimal   `json:"quantity"`
	Value       decimal.Decimal   `json:"value"`
	AverageCost decimal.Decimal   `json:"average_cost"`
}

type CategoryTotal struct {
	Category entities.Category `json:"category"`
	Value    decimal.Decimal   `json:"value"`
}

type ValuationReport struct {
	AsOf       time.Time       `json:"as_of"`
	Currency   string          `json:"currency"`
	Rows       []ValuationRow  `json:"rows"`
	Categories []CategoryTotal `json:"categories"`
	TotalValue decimal.Decimal `json:"total_value"`
}

type ABCRow struct {
	ItemID          string          `json:"item_id"`
	SKU             string          `json:"sku"`
	Name            string          `json:"name"`
	Value           decimal.Decimal `json:"value"`
	Share           decimal.Decimal `json:"share"`
	CumulativeShare decimal.Decimal `json:"cumulative_share"`
	Class           string          `json:"class"`
}

type ABCReport struct {
	From       time.Time       `json:"from"`
	To         time.Time       `json:"to"`
	Currency   string          `json:"currency"`
	AThreshold decimal.Decimal `json:"a_threshold"`
	BThreshold decimal.Decimal `json:"b_threshold"`
	Rows       []ABCRow        `json:"rows"`
	TotalValue decimal.Decimal `json:"total_value"`
}

type SlowMovingRow struct {
	BranchID       string          `json:"branch_id"`
	BranchCode     string          `json:"branch_code"`
	ItemID         string          `json:"item_id"`
	SKU            string          `json:"sku"`
	Name           string          `json:"name"`
	Quantity       decimal.Decimal `json:"quantity"`
	Value          decimal.Decimal `json:"value"`
	LastActivityAt time.Time       `json:"last_activity_at"`
	DaysIdle       int             `json:"days_idle"`
}

type SlowMovingReport struct {
	AsOf          time.Time       `json:"as_of"`
	Currency      string          `json:"currency"`
	ThresholdDays int             `json:"threshold_days"`
	Rows          []SlowMovingRow `json:"rows"`
	ValueAtRisk   decimal.Decimal `json:"value_at_risk"`
}

type TurnoverRow struct {
	ItemID       string          `json:"item_id"`
	SKU          string          `json:"sku"`
	Name         string          `json:"name"`
	COGS         decimal.Decimal `json:"cogs"`
	OpeningValue decimal.Decimal `json:"opening_value"`
	ClosingValue decimal.Decimal `json:"closing_value"`
	AverageValue decimal.Decimal `json:"average_value"`
	Ratio        decimal.Decimal `json:"ratio"`
	DaysOnHand   decimal.Decimal `json:"days_on_hand"`
}

type TurnoverReport struct {
	From     time.Time     `json:"from"`
	To       time.Time     `json:"to"`
	Currency string        `json:"currency"`
	Rows     []TurnoverRow `json:"rows"`
	Total    TurnoverRow   `json:"total"`
}

type LowStockRow struct {
	BranchID     string          `json:"branch_id"`
	BranchCode   string          `json:"branch_code"`
	ItemID       string          `json:"item_id"`
	SKU          string          `json:"sku"`
	Name         string          `json:"name"`
	UOM          string          `json:"uom"`
	Quantity     decimal.Decimal `json:"quantity"`
	ReorderLevel decimal.Decimal `json:"reorder_level"`
	SuggestedQty decimal.Decimal `json:"suggested_qty"`
	LeadTimeDays int             `json:"lead_time_days"`
}

type LowStockReport struct {
	AsOf time.Time     `json:"as_of"`
	Rows []LowStockRow `json:"rows"`
}

type Dashboard struct {
	GeneratedAt    time.Time                 `json:"generated_at"`
	Currency       string                    `json:"currency"`
	InventoryValue decimal.Decimal           `json:"inventory_value"`
	Categories     []CategoryTotal           `json:"categories"`
	StockedItems   int                       `json:"stocked_items"`
	OpenAlerts     int                       `json:"open_alerts"`
	LowStockCount  int                       `json:"low_stock_count"`
	PurchaseOrders map[entities.POStatus]int `json:"purchase_orders"`
}
