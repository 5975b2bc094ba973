package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/brewerp/pkg/domain/entities"
)

// MovementInput records a receipt, issue or adjustment. UnitCost is per UOM
// and only used for inbound movements; the item's standard cost applies when nil.
type MovementInput struct {
	BranchID   string                `json:"branch_id"`
	ItemID     string                `json:"item_id"`
	Type       entities.MovementType `json:"type"`
	Quantity   decimal.Decimal       `json:"quantity"`
	UOM        string                `json:"uom"`
	UnitCost   *decimal.Decimal      `json:"unit_cost,omitempty"`
	LotNumber  string                `json:"lot_number,omitempty"`
	Reference  string                `json:"reference,omitempty"`
	Reason     string                `json:"reason,omitempty"`
	OccurredAt *time.Time            `json:"occurred_at,omitempty"`
}

type MovementResult struct {
	Movement *entities.StockMovement `json:"movement"`
	Balance  *entities.StockBalance  `json:"balance"`
}

type TransferLineInput struct {
	ItemID   string          `json:"item_id"`
	UOM      string          `json:"uom"`
	Quantity decimal.Decimal `json:"quantity"`
}

type TransferInput struct {
	FromBranchID string              `json:"from_branch_id"`
	ToBranchID   string              `json:"to_branch_id"`
	Lines        []TransferLineInput `json:"lines"`
	Notes        string              `json:"notes"`
	OccurredAt   *time.Time          `json:"occurred_at,omitempty"`
}

type TransferResult struct {
	Transfer  *entities.Transfer        `json:"transfer"`
	Movements []*entities.StockMovement `json:"movements"`
}

// OpeningStockRow is one line of an opening balance import
type OpeningStockRow struct {
	Row        int
	BranchCode string
	SKU        string
	UOM        string
	Quantity   decimal.Decimal
	UnitCost   *decimal.Decimal
	LotNumber  string
	ReceivedAt *time.Time
}

// StockCardEntry is a movement with the balance after it, in base UOM
type StockCardEntry struct {
	Movement     *entities.StockMovement `json:"movement"`
	RunningQty   decimal.Decimal         `json:"running_qty"`
	RunningValue decimal.Decimal         `json:"running_value"`
}

type StockCard struct {
	ItemID   string           `json:"item_id"`
	SKU      string           `json:"sku"`
	BranchID string           `json:"branch_id,omitempty"`
	UOM      string           `json:"uom"`
	Entries  []StockCardEntry `json:"entries"`
	Quantity decimal.Decimal  `json:"quantity"`
	Value    decimal.Decimal  `json:"value"`
}

type ScanResult struct {
	Evaluated int `json:"evaluated"`
	Raised    int `json:"raised"`
	Resolved  int `json:"resolved"`
}
