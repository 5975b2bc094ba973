package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type POLineInput struct {
	ItemID    string          `json:"item_id"`
	UOM       string          `json:"uom"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type PurchaseOrderInput struct {
	BranchID     string        `json:"branch_id"`
	SupplierID   string        `json:"supplier_id"`
	OrderDate    *time.Time    `json:"order_date,omitempty"`
	ExpectedDate *time.Time    `json:"expected_date,omitempty"`
	Currency     string        `json:"currency"`
	Lines        []POLineInput `json:"lines"`
	Notes        string        `json:"notes"`
}

// GRLineInput is one received line. Against a PO, POLineNo is required, UOM
// defaults to the PO line UOM and the cost comes from the PO price. A direct
// receipt names the item and may give UnitCost per UOM (the item's standard
// cost otherwise); the GR line stores it converted to a cost per base unit.
type GRLineInput struct {
	POLineNo  int              `json:"po_line_no,omitempty"`
	ItemID    string           `json:"item_id,omitempty"`
	UOM       string           `json:"uom,omitempty"`
	Quantity  decimal.Decimal  `json:"quantity"`
	UnitCost  *decimal.Decimal `json:"unit_cost,omitempty"`
	LotNumber string           `json:"lot_number,omitempty"`
}

type GoodsReceiptInput struct {
	PurchaseOrderID string        `json:"purchase_order_id,omitempty"`
	BranchID        string        `json:"branch_id"`
	ReceivedAt      *time.Time    `json:"received_at,omitempty"`
	Lines           []GRLineInput `json:"lines"`
	Notes           string        `json:"notes"`
}
