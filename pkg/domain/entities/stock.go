package entities

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/brewerp/pkg/domain/apperror"
)

// MovementType classifies a stock movement
type MovementType string

const (
	MovementReceipt       MovementType = "receipt"
	MovementIssue         MovementType = "issue"
	MovementAdjustmentIn  MovementType = "adjustment_in"
	MovementAdjustmentOut MovementType = "adjustment_out"
	MovementTransferIn    MovementType = "transfer_in"
	MovementTransferOut   MovementType = "transfer_out"
)

// Valid reports whether t is a known movement type
func (t MovementType) Valid() bool {
	switch t {
	case MovementReceipt, MovementIssue, MovementAdjustmentIn, MovementAdjustmentOut,
		MovementTransferIn, MovementTransferOut:
		return true
	}
	return false
}

// Inbound reports whether the movement adds stock
func (t MovementType) Inbound() bool {
	return t == MovementReceipt || t == MovementAdjustmentIn || t == MovementTransferIn
}

// Direction is +1 for inbound movements and -1 for outbound ones
func (t MovementType) Direction() int {
	if t.Inbound() {
		return 1
	}
	return -1
}

// StockMovement is an immutable ledger entry changing the balance of one item at one branch
type StockMovement struct {
	ID           string          `json:"id"`
	CompanyID    string          `json:"company_id"`
	BranchID     string          `json:"branch_id"`
	ItemID       string          `json:"item_id"`
	Type         MovementType    `json:"type"`
	Quantity     decimal.Decimal `json:"quantity"`
	UOM          string          `json:"uom"`
	BaseQuantity decimal.Decimal `json:"base_quantity"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	TotalCost    decimal.Decimal `json:"total_cost"`
	Reference    string          `json:"reference,omitempty"`
	Reason       string          `json:"reason,omitempty"`
	CreatedBy    string          `json:"created_by"`
	OccurredAt   time.Time       `json:"occurred_at"`
	CreatedAt    time.Time       `json:"created_at"`
}

// SignedQuantity is the base quantity with the movement direction applied
func (m *StockMovement) SignedQuantity() decimal.Decimal {
	if m.Type.Inbound() {
		return m.BaseQuantity
	}
	return m.BaseQuantity.Neg()
}

// SignedValue is the total cost with the movement direction applied
func (m *StockMovement) SignedValue() decimal.Decimal {
	if m.Type.Inbound() {
		return m.TotalCost
	}
	return m.TotalCost.Neg()
}

// Validate checks the movement fields
func (m *StockMovement) Validate() error {
	v := apperror.NewValidationError()
	if m.CompanyID == "" {
		v.Add("company_id", "is required")
	}
	if m.BranchID == "" {
		v.Add("branch_id", "is required")
	}
	if m.ItemID == "" {
		v.Add("item_id", "is required")
	}
	if !m.Type.Valid() {
		v.Add("type", "is not a valid movement type")
	}
	if !m.Quantity.IsPositive() {
		v.Add("quantity", "must be positive")
	}
	if m.UOM == "" {
		v.Add("uom", "is required")
	}
	if m.UnitCost.IsNegative() {
		v.Add("unit_cost", "cannot be negative")
	}
	if m.OccurredAt.IsZero() {
		v.Add("occurred_at", "is required")
	}
	return v.Err()
}

// StockBalance is the denormalized on-hand quantity and value of an item at a branch, in base UOM
type StockBalance struct {
	CompanyID      string          `json:"company_id"`
	BranchID       string          `json:"branch_id"`
	ItemID         string          `json:"item_id"`
	UOM            string          `json:"uom"`
	Quantity       decimal.Decimal `json:"quantity"`
	Value          decimal.Decimal `json:"value"`
	LastMovementAt *time.Time      `json:"last_movement_at,omitempty"`
	LastIssueAt    *time.Time      `json:"last_issue_at,omitempty"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// AverageCost is value divided by quantity, zero for an empty balance
func (b *StockBalance) AverageCost() decimal.Decimal {
	if !b.Quantity.IsPositive() {
		return decimal.Zero
	}
	return b.Value.DivRound(b.Quantity, 6)
}

// Apply adds a movement to the balance. Value changes by the movement's signed cost.
func (b *StockBalance) Apply(m *StockMovement) {
	b.Quantity = b.Quantity.Add(m.SignedQuantity())
	b.Value = b.Value.Add(m.SignedValue())
	if b.Quantity.IsZero() {
		b.Value = decimal.Zero
	}
	at := m.OccurredAt
	if b.LastMovementAt == nil || at.After(*b.LastMovementAt) {
		b.LastMovementAt = &at
	}
	if m.Type == MovementIssue && (b.LastIssueAt == nil || at.After(*b.LastIssueAt)) {
		b.LastIssueAt = &at
	}
	b.UpdatedAt = m.CreatedAt
}

// StockLot is a FIFO cost layer created by every inbound movement
type StockLot struct {
	ID           string          `json:"id"`
	CompanyID    string          `json:"company_id"`
	BranchID     string          `json:"branch_id"`
	ItemID       string          `json:"item_id"`
	LotNumber    string          `json:"lot_number"`
	ReceivedAt   time.Time       `json:"received_at"`
	OriginalQty  decimal.Decimal `json:"original_qty"`
	RemainingQty decimal.Decimal `json:"remaining_qty"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	MovementID   string          `json:"movement_id"`
}

// NewStockLot creates a validated lot holding qty base units at unitCost
func NewStockLot(companyID, branchID, itemID, lotNumber string, receivedAt time.Time, qty, unitCost decimal.Decimal, movementID string) (*StockLot, error) {
	if itemID == "" {
		return nil, fmt.Errorf("item id cannot be empty")
	}
	if branchID == "" {
		return nil, fmt.Errorf("branch id cannot be empty")
	}
	if !qty.IsPositive() {
		return nil, fmt.Errorf("lot quantity must be positive, got %s", qty)
	}
	if unitCost.IsNegative() {
		return nil, fmt.Errorf("unit cost cannot be negative, got %s", unitCost)
	}
	id := NewID()
	if lotNumber == "" {
		lotNumber = "L" + receivedAt.UTC().Format("20060102") + "-" + id[len(id)-6:]
	}
	return &StockLot{
		ID:           id,
		CompanyID:    companyID,
		BranchID:     branchID,
		ItemID:       itemID,
		LotNumber:    lotNumber,
		ReceivedAt:   receivedAt,
		OriginalQty:  qty,
		RemainingQty: qty,
		UnitCost:     unitCost,
		MovementID:   movementID,
	}, nil
}

// Value is the remaining quantity at lot cost
func (l *StockLot) Value() decimal.Decimal {
	return l.RemainingQty.Mul(l.UnitCost)
}

// TransferLine is one item moved between branches
type TransferLine struct {
	ItemID   string          `json:"item_id"`
	UOM      string          `json:"uom"`
	Quantity decimal.Decimal `json:"quantity"`
}

// Transfer moves stock from one branch to another of the same company
type Transfer struct {
	ID           string         `json:"id"`
	CompanyID    string         `json:"company_id"`
	Number       string         `json:"number"`
	FromBranchID string         `json:"from_branch_id"`
	ToBranchID   string         `json:"to_branch_id"`
	Lines        []TransferLine `json:"lines"`
	Notes        string         `json:"notes,omitempty"`
	CreatedBy    string         `json:"created_by"`
	OccurredAt   time.Time      `json:"occurred_at"`
	CreatedAt    time.Time      `json:"created_at"`
}

// Validate checks the transfer header and lines
func (t *Transfer) Validate() error {
	v := apperror.NewValidationError()
	if t.FromBranchID == "" {
		v.Add("from_branch_id", "is required")
	}
	if t.ToBranchID == "" {
		v.Add("to_branch_id", "is required")
	}
	if t.FromBranchID != "" && t.FromBranchID == t.ToBranchID {
		v.Add("to_branch_id", "must differ from from_branch_id")
	}
	if len(t.Lines) == 0 {
		v.Add("lines", "at least one line is required")
	}
	for i, l := range t.Lines {
		prefix := fmt.Sprintf("lines[%d]", i)
		if l.ItemID == "" {
			v.Add(prefix+".item_id", "is required")
		}
		if l.UOM == "" {
			v.Add(prefix+".uom", "is required")
		}
		if !l.Quantity.IsPositive() {
			v.Add(prefix+".quantity", "must be positive")
		}
	}
	return v.Err()
}
