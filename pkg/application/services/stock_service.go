package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/brewerp/pkg/application/dto"
	"github.com/vsinha/brewerp/pkg/domain/apperror"
	"github.com/vsinha/brewerp/pkg/domain/entities"
	"github.com/vsinha/brewerp/pkg/domain/repositories"
	"github.com/vsinha/brewerp/pkg/infrastructure/events"
)

// OpeningBalanceReason is recorded on movements posted by an opening stock import
const OpeningBalanceReason = "opening balance"

// StockService posts movements and transfers and answers stock queries
type StockService struct {
	base
}

// NewStockService creates a new stock service
func NewStockService(opts Options) *StockService {
	return &StockService{base: newBase(opts)}
}

// RecordMovement posts a receipt, issue or adjustment at one branch
func (s *StockService) RecordMovement(ctx context.Context, p Principal, in dto.MovementInput) (*dto.MovementResult, error) {
	if err := p.Require(entities.PermMoveStock); err != nil {
		return nil, err
	}
	if err := p.RequireBranch(in.BranchID); err != nil {
		return nil, err
	}

	switch in.Type {
	case entities.MovementReceipt, entities.MovementIssue,
		entities.MovementAdjustmentIn, entities.MovementAdjustmentOut:
	case entities.MovementTransferIn, entities.MovementTransferOut:
		return nil, apperror.Invalid("type", "transfers are posted through the transfer operation")
	default:
		return nil, apperror.Invalid("type", "must be one of receipt, issue, adjustment_in, adjustment_out")
	}
	if !in.Quantity.IsPositive() {
		return nil, apperror.Invalid("quantity", "must be positive")
	}
	reason := strings.TrimSpace(in.Reason)
	if (in.Type == entities.MovementAdjustmentIn || in.Type == entities.MovementAdjustmentOut) && reason == "" {
		return nil, apperror.Invalid("reason", "is required for adjustments")
	}

	now := s.now()
	occurredAt := now
	if in.OccurredAt != nil {
		occurredAt = in.OccurredAt.UTC()
	}

	result := &dto.MovementResult{}
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repositories.Repositories) error {
		item, err := tx.Items().GetItem(ctx, p.CompanyID, in.ItemID)
		if err != nil {
			return must(err, "item_id")
		}
		branch, err := tx.Branches().GetBranch(ctx, p.CompanyID, in.BranchID)
		if err != nil {
			return must(err, "branch_id")
		}

		uom := entities.NormalizeUOM(in.UOM)
		if uom == "" {
			uom = item.BaseUOM
		}
		post := posting{
			Item:       item,
			Branch:     branch,
			Type:       in.Type,
			Quantity:   in.Quantity,
			UOM:        uom,
			Reference:  strings.TrimSpace(in.Reference),
			Reason:     reason,
			CreatedBy:  p.UserID,
			OccurredAt: occurredAt,
		}

		l := ledger{tx: tx, now: now}
		if in.Type.Inbound() {
			layer, err := inboundLayer(item, in.Quantity, uom, in.UnitCost, strings.TrimSpace(in.LotNumber), occurredAt)
			if err != nil {
				return err
			}
			result.Movement, result.Balance, err = l.receive(ctx, post, []costLayer{layer})
			return err
		}
		result.Movement, result.Balance, _, err = l.issue(ctx, post)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publish(events.NewStockMovedEvent(result.Movement))
	return result, nil
}

// Transfer moves stock between two branches in one transaction. Each line is
// issued FIFO at the source and received at the destination with the same cost layers.
func (s *StockService) Transfer(ctx context.Context, p Principal, in dto.TransferInput) (*dto.TransferResult, error) {
	if err := p.Require(entities.PermMoveStock); err != nil {
		return nil, err
	}
	if err := p.RequireBranch(in.FromBranchID); err != nil {
		return nil, err
	}
	if err := p.RequireBranch(in.ToBranchID); err != nil {
		return nil, err
	}

	now := s.now()
	occurredAt := now
	if in.OccurredAt != nil {
		occurredAt = in.OccurredAt.UTC()
	}

	t := &entities.Transfer{
		ID:           entities.NewID(),
		CompanyID:    p.CompanyID,
		FromBranchID: in.FromBranchID,
		ToBranchID:   in.ToBranchID,
		Lines:        make([]entities.TransferLine, 0, len(in.Lines)),
		Notes:        strings.TrimSpace(in.Notes),
		CreatedBy:    p.UserID,
		OccurredAt:   occurredAt,
		CreatedAt:    now,
	}
	for _, line := range in.Lines {
		t.Lines = append(t.Lines, entities.TransferLine{
			ItemID:   line.ItemID,
			UOM:      entities.NormalizeUOM(line.UOM),
			Quantity: line.Quantity,
		})
	}

	var movements []*entities.StockMovement
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repositories.Repositories) error {
		from, err := tx.Branches().GetBranch(ctx, p.CompanyID, t.FromBranchID)
		if err != nil && !isNotFound(err) {
			return err
		}
		to, err := tx.Branches().GetBranch(ctx, p.CompanyID, t.ToBranchID)
		if err != nil && !isNotFound(err) {
			return err
		}

		// Resolve items first so a missing UOM can default to the base unit.
		items := make([]*entities.Item, len(t.Lines))
		for i := range t.Lines {
			item, err := tx.Items().GetItem(ctx, p.CompanyID, t.Lines[i].ItemID)
			if err != nil && !isNotFound(err) {
				return err
			}
			items[i] = item
			if item != nil && t.Lines[i].UOM == "" {
				t.Lines[i].UOM = item.BaseUOM
			}
		}

		// Missing references are reported first; an unknown item leaves its UOM unresolved.
		v := apperror.NewValidationError()
		if from == nil && t.FromBranchID != "" {
			v.Add("from_branch_id", "does not exist")
		}
		if to == nil && t.ToBranchID != "" {
			v.Add("to_branch_id", "does not exist")
		}
		for i, item := range items {
			if item == nil && t.Lines[i].ItemID != "" {
				v.Add(fmt.Sprintf("lines[%d].item_id", i), "does not exist")
			}
		}
		if err := v.Err(); err != nil {
			return err
		}
		if err := t.Validate(); err != nil {
			return err
		}

		n, err := tx.Counters().NextNumber(ctx, p.CompanyID, entities.SeriesTransfer)
		if err != nil {
			return err
		}
		t.Number = entities.FormatNumber(entities.SeriesTransfer, n)

		l := ledger{tx: tx, now: now}
		for i, line := range t.Lines {
			outbound, _, layers, err := l.issue(ctx, posting{
				Item:       items[i],
				Branch:     from,
				Type:       entities.MovementTransferOut,
				Quantity:   line.Quantity,
				UOM:        line.UOM,
				Reference:  t.Number,
				CreatedBy:  p.UserID,
				OccurredAt: occurredAt,
			})
			if err != nil {
				return fmt.Errorf("line %d: %w", i+1, err)
			}
			inbound, _, err := l.receive(ctx, posting{
				Item:       items[i],
				Branch:     to,
				Type:       entities.MovementTransferIn,
				Quantity:   line.Quantity,
				UOM:        line.UOM,
				Reference:  t.Number,
				CreatedBy:  p.UserID,
				OccurredAt: occurredAt,
			}, layers)
			if err != nil {
				return fmt.Errorf("line %d: %w", i+1, err)
			}
			movements = append(movements, outbound, inbound)
		}

		return tx.Transfers().CreateTransfer(ctx, t)
	})
	if err != nil {
		return nil, err
	}

	s.publish(events.NewStockTransferredEvent(t, movements))
	return &dto.TransferResult{Transfer: t, Movements: movements}, nil
}

// GetTransfer returns one transfer
func (s *StockService) GetTransfer(ctx context.Context, p Principal, id string) (*entities.Transfer, error) {
	if err := p.Require(entities.PermRead); err != nil {
		return nil, err
	}
	t, err := s.store.Transfers().GetTransfer(ctx, p.CompanyID, id)
	if err != nil {
		return nil, err
	}
	if !p.CanAccessBranch(t.FromBranchID) && !p.CanAccessBranch(t.ToBranchID) {
		return nil, apperror.NotFound("transfer", id)
	}
	return t, nil
}

// ListTransfers returns a page of transfers touching the principal's branches
func (s *StockService) ListTransfers(ctx context.Context, p Principal, opts repositories.ListOptions) ([]*entities.Transfer, error) {
	if err := p.Require(entities.PermRead); err != nil {
		return nil, err
	}
	return s.store.Transfers().ListTransfers(ctx, p.CompanyID, repositories.TransferFilter{
		Scope:       p.BranchIDs,
		ListOptions: opts,
	})
}

// ListBalances returns on-hand balances in base UOM
func (s *StockService) ListBalances(ctx context.Context, p Principal, filter repositories.BalanceFilter) ([]*entities.StockBalance, error) {
	if err := p.Require(entities.PermRead); err != nil {
		return nil, err
	}
	if filter.BranchID != "" {
		if err := p.RequireBranch(filter.BranchID); err != nil {
			return nil, err
		}
	}
	list, err := s.store.Stock().ListBalances(ctx, p.CompanyID, filter)
	if err != nil {
		return nil, err
	}
	out := make([]*entities.StockBalance, 0, len(list))
	for _, b := range list {
		if p.CanAccessBranch(b.BranchID) {
			out = append(out, b)
		}
	}
	return out, nil
}

// ListLots returns FIFO lots, oldest first
func (s *StockService) ListLots(ctx context.Context, p Principal, filter repositories.LotFilter) ([]*entities.StockLot, error) {
	if err := p.Require(entities.PermRead); err != nil {
		return nil, err
	}
	if filter.BranchID != "" {
		if err := p.RequireBranch(filter.BranchID); err != nil {
			return nil, err
		}
	}
	list, err := s.store.Stock().ListLots(ctx, p.CompanyID, filter)
	if err != nil {
		return nil, err
	}
	out := make([]*entities.StockLot, 0, len(list))
	for _, lot := range list {
		if p.CanAccessBranch(lot.BranchID) {
			out = append(out, lot)
		}
	}
	return out, nil
}

// ListMovements returns a page of movements, newest first
func (s *StockService) ListMovements(ctx context.Context, p Principal, filter repositories.MovementFilter) ([]*entities.StockMovement, error) {
	if err := p.Require(entities.PermRead); err != nil {
		return nil, err
	}
	if filter.BranchID != "" {
		if err := p.RequireBranch(filter.BranchID); err != nil {
			return nil, err
		}
	}
	if filter.From != nil && filter.To != nil && !filter.From.Before(*filter.To) {
		return nil, apperror.Invalid("to", "must be after from")
	}
	filter.Unbounded = false
	filter.Scope = p.BranchIDs
	return s.store.Stock().ListMovements(ctx, p.CompanyID, filter)
}

// StockCard lists every movement of an item with the running balance after
// each. An empty branchID covers every branch the principal can access.
func (s *StockService) StockCard(ctx context.Context, p Principal, itemID, branchID string) (*dto.StockCard, error) {
	if err := p.Require(entities.PermRead); err != nil {
		return nil, err
	}
	if branchID != "" {
		if err := p.RequireBranch(branchID); err != nil {
			return nil, err
		}
	}
	item, err := s.store.Items().GetItem(ctx, p.CompanyID, itemID)
	if err != nil {
		return nil, err
	}
	movements, err := s.store.Stock().ListMovements(ctx, p.CompanyID, repositories.MovementFilter{
		BranchID:  branchID,
		ItemID:    itemID,
		Unbounded: true,
	})
	if err != nil {
		return nil, err
	}

	card := &dto.StockCard{
		ItemID:   item.ID,
		SKU:      item.SKU,
		BranchID: branchID,
		UOM:      item.BaseUOM,
		Entries:  []dto.StockCardEntry{},
		Quantity: decimal.Zero,
		Value:    decimal.Zero,
	}
	for _, m := range movements {
		if !p.CanAccessBranch(m.BranchID) {
			continue
		}
		card.Quantity = card.Quantity.Add(m.SignedQuantity())
		card.Value = card.Value.Add(m.SignedValue())
		if card.Quantity.IsZero() {
			card.Value = decimal.Zero
		}
		card.Entries = append(card.Entries, dto.StockCardEntry{
			Movement:     m,
			RunningQty:   card.Quantity,
			RunningValue: card.Value,
		})
	}
	return card, nil
}

// ImportOpeningStock posts one adjustment_in per row in a single transaction.
// Any bad row rolls the whole import back.
func (s *StockService) ImportOpeningStock(ctx context.Context, p Principal, rows []dto.OpeningStockRow) (*dto.ImportResult, error) {
	if err := p.Require(entities.PermMoveStock); err != nil {
		return nil, err
	}

	now := s.now()
	var posted []*entities.StockMovement
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repositories.Repositories) error {
		l := ledger{tx: tx, now: now}
		for _, row := range rows {
			m, err := s.postOpening(ctx, tx, l, p, row, now)
			if err != nil {
				return fmt.Errorf("row %d: %w", row.Row, err)
			}
			posted = append(posted, m)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, m := range posted {
		s.publish(events.NewStockMovedEvent(m))
	}
	return &dto.ImportResult{Posted: len(posted)}, nil
}

func (s *StockService) postOpening(ctx context.Context, tx repositories.Repositories, l ledger, p Principal, row dto.OpeningStockRow, now time.Time) (*entities.StockMovement, error) {
	branch, err := tx.Branches().GetBranchByCode(ctx, p.CompanyID, entities.NormalizeCode(row.BranchCode))
	if err != nil {
		return nil, must(err, "branch_code")
	}
	if err := p.RequireBranch(branch.ID); err != nil {
		return nil, err
	}
	item, err := tx.Items().GetItemBySKU(ctx, p.CompanyID, entities.NormalizeCode(row.SKU))
	if err != nil {
		return nil, must(err, "sku")
	}
	if !row.Quantity.IsPositive() {
		return nil, apperror.Invalid("quantity", "must be positive")
	}

	uom := entities.NormalizeUOM(row.UOM)
	if uom == "" {
		uom = item.BaseUOM
	}
	receivedAt := now
	if row.ReceivedAt != nil {
		receivedAt = row.ReceivedAt.UTC()
	}

	layer, err := inboundLayer(item, row.Quantity, uom, row.UnitCost, strings.TrimSpace(row.LotNumber), receivedAt)
	if err != nil {
		return nil, err
	}
	m, _, err := l.receive(ctx, posting{
		Item:       item,
		Branch:     branch,
		Type:       entities.MovementAdjustmentIn,
		Quantity:   row.Quantity,
		UOM:        uom,
		Reference:  "opening",
		Reason:     OpeningBalanceReason,
		CreatedBy:  p.UserID,
		OccurredAt: receivedAt,
	}, []costLayer{layer})
	return m, err
}
