package entities

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/brewerp/pkg/domain/apperror"
)

// POStatus is the lifecycle state of a purchase order
type POStatus string

const (
	PODraft             POStatus = "draft"
	POApproved          POStatus = "approved"
	POPartiallyReceived POStatus = "partially_received"
	POReceived          POStatus = "received"
	POCancelled         POStatus = "cancelled"
)

// Valid reports whether s is a known status
func (s POStatus) Valid() bool {
	switch s {
	case PODraft, POApproved, POPartiallyReceived, POReceived, POCancelled:
		return true
	}
	return false
}

// Receivable reports whether goods may be received against a PO in this status
func (s POStatus) Receivable() bool {
	return s == POApproved || s == POPartiallyReceived
}

// Document number series allocated from per-company counters
const (
	SeriesPurchaseOrder = "PO"
	SeriesGoodsReceipt  = "GR"
	SeriesTransfer      = "TR"
)

// FormatNumber renders a document number such as PO-000042
func FormatNumber(series string, n int64) string {
	return fmt.Sprintf("%s-%06d", series, n)
}

// POLine is one ordered item on a purchase order. ReceivedBaseQty is the
// running receipt total in the item base UOM; ReceivedQty is its view in UOM.
type POLine struct {
	LineNo          int             `json:"line_no"`
	ItemID          string          `json:"item_id"`
	UOM             string          `json:"uom"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	ReceivedQty     decimal.Decimal `json:"received_qty"`
	ReceivedBaseQty decimal.Decimal `json:"received_base_qty"`
}

// Outstanding is the quantity still to be received, in the line UOM
func (l POLine) Outstanding() decimal.Decimal {
	out := l.Quantity.Sub(l.ReceivedQty)
	if out.IsNegative() {
		return decimal.Zero
	}
	return out
}

// Amount is quantity times unit price
func (l POLine) Amount() decimal.Decimal {
	return l.Quantity.Mul(l.UnitPrice)
}

// PurchaseOrder (PO) is a commitment to buy items from a supplier for a branch
type PurchaseOrder struct {
	ID           string     `json:"id"`
	CompanyID    string     `json:"company_id"`
	Number       string     `json:"number"`
	BranchID     string     `json:"branch_id"`
	SupplierID   string     `json:"supplier_id"`
	Status       POStatus   `json:"status"`
	OrderDate    time.Time  `json:"order_date"`
	ExpectedDate *time.Time `json:"expected_date,omitempty"`
	Currency     string     `json:"currency"`
	Lines        []POLine   `json:"lines"`
	Notes        string     `json:"notes,omitempty"`
	CreatedBy    string     `json:"created_by"`
	ApprovedBy   string     `json:"approved_by,omitempty"`
	ApprovedAt   *time.Time `json:"approved_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Total is the sum of line amounts
func (po *PurchaseOrder) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range po.Lines {
		total = total.Add(l.Amount())
	}
	return total
}

// Line returns the line with the given number
func (po *PurchaseOrder) Line(lineNo int) (*POLine, bool) {
	for i := range po.Lines {
		if po.Lines[i].LineNo == lineNo {
			return &po.Lines[i], true
		}
	}
	return nil, false
}

// RefreshStatus moves an approved PO to partially_received or received from its lines
func (po *PurchaseOrder) RefreshStatus() {
	if !po.Status.Receivable() {
		return
	}
	anyReceived, allReceived := false, true
	for _, l := range po.Lines {
		if l.ReceivedQty.IsPositive() {
			anyReceived = true
		}
		if l.Outstanding().IsPositive() {
			allReceived = false
		}
	}
	switch {
	case allReceived:
		po.Status = POReceived
	case anyReceived:
		po.Status = POPartiallyReceived
	}
}

// Validate checks the purchase order header and lines
func (po *PurchaseOrder) Validate() error {
	v := apperror.NewValidationError()
	if po.CompanyID == "" {
		v.Add("company_id", "is required")
	}
	if po.BranchID == "" {
		v.Add("branch_id", "is required")
	}
	if po.SupplierID == "" {
		v.Add("supplier_id", "is required")
	}
	if !po.Status.Valid() {
		v.Add("status", "is not a valid status")
	}
	if !ValidCurrency(po.Currency) {
		v.Add("currency", "must be an ISO 4217 currency code")
	}
	if po.ExpectedDate != nil && po.ExpectedDate.Before(po.OrderDate.Truncate(24*time.Hour)) {
		v.Add("expected_date", "cannot be before the order date")
	}
	if len(po.Lines) == 0 {
		v.Add("lines", "at least one line is required")
	}
	seen := make(map[int]bool, len(po.Lines))
	for i, l := range po.Lines {
		prefix := fmt.Sprintf("lines[%d]", i)
		if l.LineNo <= 0 || seen[l.LineNo] {
			v.Add(prefix+".line_no", "must be a distinct positive number")
		}
		seen[l.LineNo] = true
		if l.ItemID == "" {
			v.Add(prefix+".item_id", "is required")
		}
		if strings.TrimSpace(l.UOM) == "" {
			v.Add(prefix+".uom", "is required")
		}
		if !l.Quantity.IsPositive() {
			v.Add(prefix+".quantity", "must be positive")
		}
		if l.UnitPrice.IsNegative() {
			v.Add(prefix+".unit_price", "cannot be negative")
		}
		if l.ReceivedQty.GreaterThan(l.Quantity) {
			v.Add(prefix+".received_qty", "cannot exceed the ordered quantity")
		}
	}
	return v.Err()
}

// GRLine is one received item on a goods receipt. UnitCost is per base unit.
type GRLine struct {
	POLineNo  int             `json:"po_line_no,omitempty"`
	ItemID    string          `json:"item_id"`
	UOM       string          `json:"uom"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
	LotNumber string          `json:"lot_number,omitempty"`
}

// GoodsReceipt (GR) records physical receipt of items into a branch
type GoodsReceipt struct {
	ID              string    `json:"id"`
	CompanyID       string    `json:"company_id"`
	Number          string    `json:"number"`
	PurchaseOrderID string    `json:"purchase_order_id,omitempty"`
	BranchID        string    `json:"branch_id"`
	ReceivedAt      time.Time `json:"received_at"`
	Lines           []GRLine  `json:"lines"`
	ReceivedBy      string    `json:"received_by"`
	Notes           string    `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Validate checks the goods receipt header and lines
func (gr *GoodsReceipt) Validate() error {
	v := apperror.NewValidationError()
	if gr.CompanyID == "" {
		v.Add("company_id", "is required")
	}
	if gr.BranchID == "" {
		v.Add("branch_id", "is required")
	}
	if gr.ReceivedAt.IsZero() {
		v.Add("received_at", "is required")
	}
	if len(gr.Lines) == 0 {
		v.Add("lines", "at least one line is required")
	}
	for i, l := range gr.Lines {
		prefix := fmt.Sprintf("lines[%d]", i)
		if gr.PurchaseOrderID != "" && l.POLineNo <= 0 {
			v.Add(prefix+".po_line_no", "is required when receiving against a purchase order")
		}
		if gr.PurchaseOrderID == "" && l.ItemID == "" {
			v.Add(prefix+".item_id", "is required")
		}
		if !l.Quantity.IsPositive() {
			v.Add(prefix+".quantity", "must be positive")
		}
		if l.UnitCost.IsNegative() {
			v.Add(prefix+".unit_cost", "cannot be negative")
		}
	}
	return v.Err()
}
