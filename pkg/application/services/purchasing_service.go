package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vsinha/brewerp/pkg/application/dto"
	"github.com/vsinha/brewerp/pkg/domain/apperror"
	"github.com/vsinha/brewerp/pkg/domain/entities"
	"github.com/vsinha/brewerp/pkg/domain/repositories"
	domain "github.com/vsinha/brewerp/pkg/domain/services"
	"github.com/vsinha/brewerp/pkg/infrastructure/events"
)

// PurchasingService manages purchase orders and goods receipts
type PurchasingService struct {
	base
}

// NewPurchasingService creates a new purchasing service
func NewPurchasingService(opts Options) *PurchasingService {
	return &PurchasingService{base: newBase(opts)}
}

func poLines(in []dto.POLineInput) []entities.POLine {
	lines := make([]entities.POLine, 0, len(in))
	for i, l := range in {
		lines = append(lines, entities.POLine{
			LineNo:          i + 1,
			ItemID:          l.ItemID,
			UOM:             entities.NormalizeUOM(l.UOM),
			Quantity:        l.Quantity,
			UnitPrice:       l.UnitPrice,
			ReceivedQty:     decimal.Zero,
			ReceivedBaseQty: decimal.Zero,
		})
	}
	return lines
}

// resolvePO checks that the supplier, branch and line items exist and are
// active, and defaults empty line UOMs to the item's base unit. Missing
// references are reported before the structural checks of Validate.
func resolvePO(ctx context.Context, tx repositories.Repositories, po *entities.PurchaseOrder) error {
	v := apperror.NewValidationError()

	if po.SupplierID != "" {
		supplier, err := tx.Suppliers().GetSupplier(ctx, po.CompanyID, po.SupplierID)
		switch {
		case isNotFound(err):
			v.Add("supplier_id", "does not exist")
		case err != nil:
			return err
		case !supplier.Active:
			v.Add("supplier_id", "supplier %s is inactive", supplier.Code)
		}
	}

	if po.BranchID != "" {
		branch, err := tx.Branches().GetBranch(ctx, po.CompanyID, po.BranchID)
		switch {
		case isNotFound(err):
			v.Add("branch_id", "does not exist")
		case err != nil:
			return err
		case !branch.Active:
			v.Add("branch_id", "branch %s is inactive", branch.Code)
		}
	}

	for i := range po.Lines {
		line := &po.Lines[i]
		if line.ItemID == "" {
			continue
		}
		prefix := fmt.Sprintf("lines[%d]", i)
		item, err := tx.Items().GetItem(ctx, po.CompanyID, line.ItemID)
		switch {
		case isNotFound(err):
			v.Add(prefix+".item_id", "does not exist")
			continue
		case err != nil:
			return err
		case !item.Active:
			v.Add(prefix+".item_id", "item %s is inactive", item.SKU)
		}
		if line.UOM == "" {
			line.UOM = item.BaseUOM
		} else if _, ok := item.Factor(line.UOM); !ok {
			v.Add(prefix+".uom", "%s is not defined for item %s", line.UOM, item.SKU)
		}
	}

	if err := v.Err(); err != nil {
		return err
	}
	return po.Validate()
}

// CreatePurchaseOrder creates a draft PO numbered from the company's PO series
func (s *PurchasingService) CreatePurchaseOrder(ctx context.Context, p Principal, in dto.PurchaseOrderInput) (*entities.PurchaseOrder, error) {
	if err := p.Require(entities.PermManagePurchases); err != nil {
		return nil, err
	}
	if err := p.RequireBranch(in.BranchID); err != nil {
		return nil, err
	}

	now := s.now()
	po := &entities.PurchaseOrder{
		ID:         entities.NewID(),
		CompanyID:  p.CompanyID,
		BranchID:   in.BranchID,
		SupplierID: in.SupplierID,
		Status:     entities.PODraft,
		OrderDate:  now,
		Currency:   strings.ToUpper(strings.TrimSpace(in.Currency)),
		Lines:      poLines(in.Lines),
		Notes:      strings.TrimSpace(in.Notes),
		CreatedBy:  p.UserID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	applyPODates(po, in)

	err := s.store.WithTx(ctx, func(ctx context.Context, tx repositories.Repositories) error {
		if po.Currency == "" {
			company, err := tx.Companies().GetCompany(ctx, p.CompanyID)
			if err != nil {
				return err
			}
			po.Currency = company.Currency
		}
		if err := resolvePO(ctx, tx, po); err != nil {
			return err
		}
		n, err := tx.Counters().NextNumber(ctx, p.CompanyID, entities.SeriesPurchaseOrder)
		if err != nil {
			return err
		}
		po.Number = entities.FormatNumber(entities.SeriesPurchaseOrder, n)
		return tx.PurchaseOrders().CreatePurchaseOrder(ctx, po)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("purchase order created",
		zap.String("company_id", po.CompanyID),
		zap.String("number", po.Number))
	return po, nil
}

func applyPODates(po *entities.PurchaseOrder, in dto.PurchaseOrderInput) {
	if in.OrderDate != nil {
		po.OrderDate = in.OrderDate.UTC()
	}
	po.ExpectedDate = nil
	if in.ExpectedDate != nil {
		expected := in.ExpectedDate.UTC()
		po.ExpectedDate = &expected
	}
}

// UpdatePurchaseOrder replaces the header and lines of a draft PO
func (s *PurchasingService) UpdatePurchaseOrder(ctx context.Context, p Principal, id string, in dto.PurchaseOrderInput) (*entities.PurchaseOrder, error) {
	if err := p.Require(entities.PermManagePurchases); err != nil {
		return nil, err
	}
	if err := p.RequireBranch(in.BranchID); err != nil {
		return nil, err
	}

	var po *entities.PurchaseOrder
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repositories.Repositories) error {
		var err error
		if po, err = s.loadPO(ctx, tx, p, id); err != nil {
			return err
		}
		if po.Status != entities.PODraft {
			return apperror.InvalidState("purchase order %s is %s; only drafts can be edited", po.Number, po.Status)
		}

		po.BranchID = in.BranchID
		po.SupplierID = in.SupplierID
		if c := strings.ToUpper(strings.TrimSpace(in.Currency)); c != "" {
			po.Currency = c
		}
		po.Lines = poLines(in.Lines)
		po.Notes = strings.TrimSpace(in.Notes)
		applyPODates(po, in)
		po.UpdatedAt = s.now()

		if err := resolvePO(ctx, tx, po); err != nil {
			return err
		}
		return tx.PurchaseOrders().UpdatePurchaseOrder(ctx, po)
	})
	if err != nil {
		return nil, err
	}
	return po, nil
}

// ApprovePurchaseOrder moves a draft PO to approved
func (s *PurchasingService) ApprovePurchaseOrder(ctx context.Context, p Principal, id string) (*entities.PurchaseOrder, error) {
	if err := p.Require(entities.PermApprovePurchase); err != nil {
		return nil, err
	}

	var po *entities.PurchaseOrder
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repositories.Repositories) error {
		var err error
		if po, err = s.loadPO(ctx, tx, p, id); err != nil {
			return err
		}
		if po.Status != entities.PODraft {
			return apperror.InvalidState("purchase order %s is %s; only drafts can be approved", po.Number, po.Status)
		}
		now := s.now()
		po.Status = entities.POApproved
		po.ApprovedBy = p.UserID
		po.ApprovedAt = &now
		po.UpdatedAt = now
		return tx.PurchaseOrders().UpdatePurchaseOrder(ctx, po)
	})
	if err != nil {
		return nil, err
	}

	s.publish(events.NewPurchaseApprovedEvent(po))
	return po, nil
}

// CancelPurchaseOrder cancels a draft or approved PO that has received nothing
func (s *PurchasingService) CancelPurchaseOrder(ctx context.Context, p Principal, id string) (*entities.PurchaseOrder, error) {
	if err := p.Require(entities.PermManagePurchases); err != nil {
		return nil, err
	}

	var po *entities.PurchaseOrder
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repositories.Repositories) error {
		var err error
		if po, err = s.loadPO(ctx, tx, p, id); err != nil {
			return err
		}
		if po.Status != entities.PODraft && po.Status != entities.POApproved {
			return apperror.InvalidState("purchase order %s is %s and cannot be cancelled", po.Number, po.Status)
		}
		po.Status = entities.POCancelled
		po.UpdatedAt = s.now()
		return tx.PurchaseOrders().UpdatePurchaseOrder(ctx, po)
	})
	if err != nil {
		return nil, err
	}
	return po, nil
}

func (s *PurchasingService) loadPO(ctx context.Context, repos repositories.Repositories, p Principal, id string) (*entities.PurchaseOrder, error) {
	po, err := repos.PurchaseOrders().GetPurchaseOrder(ctx, p.CompanyID, id)
	if err != nil {
		return nil, err
	}
	if !p.CanAccessBranch(po.BranchID) {
		return nil, apperror.NotFound("purchase order", id)
	}
	return po, nil
}

// GetPurchaseOrder returns one PO
func (s *PurchasingService) GetPurchaseOrder(ctx context.Context, p Principal, id string) (*entities.PurchaseOrder, error) {
	if err := p.Require(entities.PermRead); err != nil {
		return nil, err
	}
	return s.loadPO(ctx, s.store, p, id)
}

// ListPurchaseOrders returns a page of POs, newest first
func (s *PurchasingService) ListPurchaseOrders(ctx context.Context, p Principal, filter repositories.PurchaseOrderFilter) ([]*entities.PurchaseOrder, error) {
	if err := p.Require(entities.PermRead); err != nil {
		return nil, err
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperror.Invalid("status", "is not a valid purchase order status")
	}
	if filter.BranchID != "" {
		if err := p.RequireBranch(filter.BranchID); err != nil {
			return nil, err
		}
	}
	filter.Scope = p.BranchIDs
	return s.store.PurchaseOrders().ListPurchaseOrders(ctx, p.CompanyID, filter)
}

// receiptLine is a validated GR line ready to post
type receiptLine struct {
	line  entities.GRLine
	item  *entities.Item
	layer costLayer
}

func lineInvalid(i int, field, format string, args ...any) error {
	return apperror.Invalid(fmt.Sprintf("lines[%d].%s", i, field), format, args...)
}

// linePrefixed moves the fields of a validation error under lines[i]
func linePrefixed(i int, err error) error {
	var ve *apperror.ValidationError
	if !errors.As(err, &ve) {
		return err
	}
	v := apperror.NewValidationError()
	v.Merge(fmt.Sprintf("lines[%d]", i), ve)
	return v
}

// planPOLine validates a line received against po and books it on the PO line
func planPOLine(ctx context.Context, tx repositories.Repositories, po *entities.PurchaseOrder, i int, in dto.GRLineInput, at time.Time) (*receiptLine, error) {
	if in.POLineNo <= 0 {
		return nil, lineInvalid(i, "po_line_no", "is required when receiving against a purchase order")
	}
	poLine, ok := po.Line(in.POLineNo)
	if !ok {
		return nil, lineInvalid(i, "po_line_no", "line %d does not exist on %s", in.POLineNo, po.Number)
	}
	if in.ItemID != "" && in.ItemID != poLine.ItemID {
		return nil, lineInvalid(i, "item_id", "does not match purchase order line %d", in.POLineNo)
	}
	item, err := tx.Items().GetItem(ctx, po.CompanyID, poLine.ItemID)
	if err != nil {
		return nil, err
	}

	uom := entities.NormalizeUOM(in.UOM)
	if uom == "" {
		uom = poLine.UOM
	}
	baseQty, err := domain.ToBase(item, in.Quantity, uom)
	if err != nil {
		return nil, lineInvalid(i, "uom", "%s is not defined for item %s", uom, item.SKU)
	}
	if err := bookReceipt(item, poLine, baseQty); err != nil {
		return nil, lineInvalid(i, "quantity", "%v", err)
	}
	unitCost, err := domain.BaseUnitCost(item, poLine.UnitPrice, poLine.UOM)
	if err != nil {
		return nil, err
	}

	lot := strings.TrimSpace(in.LotNumber)
	return &receiptLine{
		line: entities.GRLine{
			POLineNo:  poLine.LineNo,
			ItemID:    item.ID,
			UOM:       uom,
			Quantity:  in.Quantity,
			UnitCost:  unitCost,
			LotNumber: lot,
		},
		item:  item,
		layer: costLayer{Quantity: baseQty, UnitCost: unitCost, LotNumber: lot, ReceivedAt: at},
	}, nil
}

// bookReceipt adds baseQty to the received total of line. Quantities are
// compared in the base UOM, where they are exact; the line-UOM view is derived
// from the base total and snaps to the ordered quantity once it is complete.
func bookReceipt(item *entities.Item, line *entities.POLine, baseQty decimal.Decimal) error {
	ordered, err := domain.ToBase(item, line.Quantity, line.UOM)
	if err != nil {
		return err
	}
	received := line.ReceivedBaseQty
	if received.IsZero() && line.ReceivedQty.IsPositive() {
		if received, err = domain.ToBase(item, line.ReceivedQty, line.UOM); err != nil {
			return err
		}
	}
	outstanding := ordered.Sub(received)
	if baseQty.GreaterThan(outstanding) {
		return fmt.Errorf("exceeds the outstanding %s %s on line %d", outstanding, item.BaseUOM, line.LineNo)
	}

	line.ReceivedBaseQty = received.Add(baseQty)
	if line.ReceivedBaseQty.Equal(ordered) {
		line.ReceivedQty = line.Quantity
		return nil
	}
	view, err := domain.FromBase(item, line.ReceivedBaseQty, line.UOM)
	if err != nil {
		return err
	}
	if view.GreaterThanOrEqual(line.Quantity) {
		// rounding must not mark a short line as complete
		view = line.Quantity.Sub(decimal.New(1, -12))
	}
	line.ReceivedQty = view
	return nil
}

// planDirectLine validates a line received without a purchase order
func planDirectLine(ctx context.Context, tx repositories.Repositories, companyID string, i int, in dto.GRLineInput, at time.Time) (*receiptLine, error) {
	if in.ItemID == "" {
		return nil, lineInvalid(i, "item_id", "is required")
	}
	item, err := tx.Items().GetItem(ctx, companyID, in.ItemID)
	if err != nil {
		if isNotFound(err) {
			return nil, lineInvalid(i, "item_id", "does not exist")
		}
		return nil, err
	}
	uom := entities.NormalizeUOM(in.UOM)
	if uom == "" {
		uom = item.BaseUOM
	}
	lot := strings.TrimSpace(in.LotNumber)
	layer, err := inboundLayer(item, in.Quantity, uom, in.UnitCost, lot, at)
	if err != nil {
		return nil, linePrefixed(i, err)
	}
	return &receiptLine{
		line: entities.GRLine{
			ItemID:    item.ID,
			UOM:       uom,
			Quantity:  in.Quantity,
			UnitCost:  layer.UnitCost,
			LotNumber: lot,
		},
		item:  item,
		layer: layer,
	}, nil
}

// ReceiveGoods records a goods receipt. Against a PO, every line must match a
// PO line and stay within its outstanding quantity. Receipt movements, FIFO
// lots, PO progress and the GR number are written in one transaction.
func (s *PurchasingService) ReceiveGoods(ctx context.Context, p Principal, in dto.GoodsReceiptInput) (*entities.GoodsReceipt, error) {
	if err := p.Require(entities.PermReceiveGoods); err != nil {
		return nil, err
	}
	if err := p.RequireBranch(in.BranchID); err != nil {
		return nil, err
	}
	if len(in.Lines) == 0 {
		return nil, apperror.Invalid("lines", "at least one line is required")
	}
	for i, line := range in.Lines {
		if !line.Quantity.IsPositive() {
			return nil, lineInvalid(i, "quantity", "must be positive")
		}
	}

	now := s.now()
	receivedAt := now
	if in.ReceivedAt != nil {
		receivedAt = in.ReceivedAt.UTC()
	}
	gr := &entities.GoodsReceipt{
		ID:              entities.NewID(),
		CompanyID:       p.CompanyID,
		PurchaseOrderID: in.PurchaseOrderID,
		BranchID:        in.BranchID,
		ReceivedAt:      receivedAt,
		Lines:           make([]entities.GRLine, 0, len(in.Lines)),
		ReceivedBy:      p.UserID,
		Notes:           strings.TrimSpace(in.Notes),
		CreatedAt:       now,
	}

	var (
		po        *entities.PurchaseOrder
		movements []*entities.StockMovement
	)
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repositories.Repositories) error {
		branch, err := tx.Branches().GetBranch(ctx, p.CompanyID, gr.BranchID)
		if err != nil {
			return must(err, "branch_id")
		}

		if gr.PurchaseOrderID != "" {
			po, err = s.loadPO(ctx, tx, p, gr.PurchaseOrderID)
			if err != nil {
				return must(err, "purchase_order_id")
			}
			if !po.Status.Receivable() {
				return apperror.InvalidState("purchase order %s is %s; goods can only be received against approved orders",
					po.Number, po.Status)
			}
			if po.BranchID != gr.BranchID {
				return apperror.Invalid("branch_id", "must match the purchase order branch")
			}
		}

		planned := make([]*receiptLine, 0, len(in.Lines))
		for i, line := range in.Lines {
			var rl *receiptLine
			if po != nil {
				rl, err = planPOLine(ctx, tx, po, i, line, receivedAt)
			} else {
				rl, err = planDirectLine(ctx, tx, p.CompanyID, i, line, receivedAt)
			}
			if err != nil {
				return err
			}
			planned = append(planned, rl)
			gr.Lines = append(gr.Lines, rl.line)
		}
		if err := gr.Validate(); err != nil {
			return err
		}

		n, err := tx.Counters().NextNumber(ctx, p.CompanyID, entities.SeriesGoodsReceipt)
		if err != nil {
			return err
		}
		gr.Number = entities.FormatNumber(entities.SeriesGoodsReceipt, n)

		l := ledger{tx: tx, now: now}
		for i, rl := range planned {
			m, _, err := l.receive(ctx, posting{
				Item:       rl.item,
				Branch:     branch,
				Type:       entities.MovementReceipt,
				Quantity:   rl.line.Quantity,
				UOM:        rl.line.UOM,
				Reference:  gr.Number,
				CreatedBy:  p.UserID,
				OccurredAt: receivedAt,
			}, []costLayer{rl.layer})
			if err != nil {
				return fmt.Errorf("line %d: %w", i+1, err)
			}
			movements = append(movements, m)
		}

		if po != nil {
			po.RefreshStatus()
			po.UpdatedAt = now
			if err := tx.PurchaseOrders().UpdatePurchaseOrder(ctx, po); err != nil {
				return err
			}
		}
		return tx.GoodsReceipts().CreateGoodsReceipt(ctx, gr)
	})
	if err != nil {
		return nil, err
	}

	evts := []events.Event{events.NewPurchaseReceivedEvent(gr, po, movements)}
	for _, m := range movements {
		evts = append(evts, events.NewStockMovedEvent(m))
	}
	s.publish(evts...)
	return gr, nil
}

// GetGoodsReceipt returns one GR
func (s *PurchasingService) GetGoodsReceipt(ctx context.Context, p Principal, id string) (*entities.GoodsReceipt, error) {
	if err := p.Require(entities.PermRead); err != nil {
		return nil, err
	}
	gr, err := s.store.GoodsReceipts().GetGoodsReceipt(ctx, p.CompanyID, id)
	if err != nil {
		return nil, err
	}
	if !p.CanAccessBranch(gr.BranchID) {
		return nil, apperror.NotFound("goods receipt", id)
	}
	return gr, nil
}

// ListGoodsReceipts returns a page of GRs, newest first
func (s *PurchasingService) ListGoodsReceipts(ctx context.Context, p Principal, filter repositories.GoodsReceiptFilter) ([]*entities.GoodsReceipt, error) {
	if err := p.Require(entities.PermRead); err != nil {
		return nil, err
	}
	if filter.BranchID != "" {
		if err := p.RequireBranch(filter.BranchID); err != nil {
			return nil, err
		}
	}
	filter.Scope = p.BranchIDs
	return s.store.GoodsReceipts().ListGoodsReceipts(ctx, p.CompanyID, filter)
}
