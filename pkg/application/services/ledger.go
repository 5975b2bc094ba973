package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/brewerp/pkg/domain/apperror"
	"github.com/vsinha/brewerp/pkg/domain/entities"
	"github.com/vsinha/brewerp/pkg/domain/repositories"
	domain "github.com/vsinha/brewerp/pkg/domain/services"
)

// costLayer is a quantity of base units at one unit cost. Inbound movements
// turn each layer into a FIFO lot; outbound movements report the layers they drew.
type costLayer struct {
	Quantity   decimal.Decimal
	UnitCost   decimal.Decimal
	LotNumber  string
	ReceivedAt time.Time
}

// posting describes a movement before costing. Quantity is in UOM.
type posting struct {
	Item       *entities.Item
	Branch     *entities.Branch
	Type       entities.MovementType
	Quantity   decimal.Decimal
	UOM        string
	Reference  string
	Reason     string
	CreatedBy  string
	OccurredAt time.Time
}

// ledger posts movements inside a transaction, keeping lots and the
// denormalized balance in step with the movement log.
type ledger struct {
	tx  repositories.Repositories
	now time.Time
}

// inboundLayer costs an inbound quantity. unitCost is per uom; nil means the
// item's standard cost per base unit.
func inboundLayer(item *entities.Item, qty decimal.Decimal, uom string, unitCost *decimal.Decimal, lotNumber string, at time.Time) (costLayer, error) {
	baseQty, err := domain.ToBase(item, qty, uom)
	if err != nil {
		return costLayer{}, err
	}
	cost := item.StandardCost
	if unitCost != nil {
		if unitCost.IsNegative() {
			return costLayer{}, apperror.Invalid("unit_cost", "cannot be negative")
		}
		if cost, err = domain.BaseUnitCost(item, *unitCost, uom); err != nil {
			return costLayer{}, err
		}
	}
	return costLayer{
		Quantity:   baseQty,
		UnitCost:   cost.Round(domain.CostScale),
		LotNumber:  lotNumber,
		ReceivedAt: at,
	}, nil
}

func checkPostable(item *entities.Item, branch *entities.Branch) error {
	if !branch.Active {
		return apperror.InvalidState("branch %s is inactive", branch.Code)
	}
	if !item.Active {
		return apperror.InvalidState("item %s is inactive", item.SKU)
	}
	return nil
}

func (l ledger) newMovement(p posting, baseQty, totalCost decimal.Decimal) *entities.StockMovement {
	unitCost := decimal.Zero
	if baseQty.IsPositive() {
		unitCost = totalCost.DivRound(baseQty, domain.CostScale)
	}
	return &entities.StockMovement{
		ID:           entities.NewID(),
		CompanyID:    p.Item.CompanyID,
		BranchID:     p.Branch.ID,
		ItemID:       p.Item.ID,
		Type:         p.Type,
		Quantity:     p.Quantity,
		UOM:          p.UOM,
		BaseQuantity: baseQty,
		UnitCost:     unitCost,
		TotalCost:    totalCost,
		Reference:    p.Reference,
		Reason:       p.Reason,
		CreatedBy:    p.CreatedBy,
		OccurredAt:   p.OccurredAt,
		CreatedAt:    l.now,
	}
}

// receive posts an inbound movement made of the given cost layers
func (l ledger) receive(ctx context.Context, p posting, layers []costLayer) (*entities.StockMovement, *entities.StockBalance, error) {
	if !p.Type.Inbound() {
		return nil, nil, fmt.Errorf("receive called with outbound movement type %s", p.Type)
	}
	if err := checkPostable(p.Item, p.Branch); err != nil {
		return nil, nil, err
	}

	baseQty, total := decimal.Zero, decimal.Zero
	for _, layer := range layers {
		baseQty = baseQty.Add(layer.Quantity)
		total = total.Add(layer.Quantity.Mul(layer.UnitCost))
	}

	m := l.newMovement(p, baseQty, total)
	if err := m.Validate(); err != nil {
		return nil, nil, err
	}
	if err := l.tx.Stock().CreateMovement(ctx, m); err != nil {
		return nil, nil, err
	}

	for _, layer := range layers {
		lot, err := entities.NewStockLot(m.CompanyID, m.BranchID, m.ItemID, layer.LotNumber,
			layer.ReceivedAt, layer.Quantity, layer.UnitCost, m.ID)
		if err != nil {
			return nil, nil, err
		}
		if err := l.tx.Stock().CreateLot(ctx, lot); err != nil {
			return nil, nil, err
		}
	}

	bal, err := l.apply(ctx, p.Item, m)
	if err != nil {
		return nil, nil, err
	}
	return m, bal, nil
}

// issue posts an outbound movement, drawing FIFO lots. It returns the layers
// drawn so a transfer can recreate them at the destination.
func (l ledger) issue(ctx context.Context, p posting) (*entities.StockMovement, *entities.StockBalance, []costLayer, error) {
	if p.Type.Inbound() {
		return nil, nil, nil, fmt.Errorf("issue called with inbound movement type %s", p.Type)
	}
	if err := checkPostable(p.Item, p.Branch); err != nil {
		return nil, nil, nil, err
	}

	baseQty, err := domain.ToBase(p.Item, p.Quantity, p.UOM)
	if err != nil {
		return nil, nil, nil, err
	}
	if !baseQty.IsPositive() {
		return nil, nil, nil, apperror.Invalid("quantity", "must be positive")
	}

	lots, err := l.tx.Stock().ListLots(ctx, p.Item.CompanyID, repositories.LotFilter{
		BranchID: p.Branch.ID,
		ItemID:   p.Item.ID,
		OpenOnly: true,
	})
	if err != nil {
		return nil, nil, nil, err
	}
	byID := make(map[string]*entities.StockLot, len(lots))
	for _, lot := range lots {
		byID[lot.ID] = lot
	}

	consumed, err := domain.ConsumeFIFO(lots, baseQty)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%s at branch %s: %w", p.Item.SKU, p.Branch.Code, err)
	}

	m := l.newMovement(p, baseQty, consumed.TotalCost)
	if err := m.Validate(); err != nil {
		return nil, nil, nil, err
	}
	if err := l.tx.Stock().CreateMovement(ctx, m); err != nil {
		return nil, nil, nil, err
	}

	layers := make([]costLayer, 0, len(consumed.Draws))
	for _, draw := range consumed.Draws {
		lot := byID[draw.LotID]
		if err := l.tx.Stock().UpdateLot(ctx, lot); err != nil {
			return nil, nil, nil, err
		}
		layers = append(layers, costLayer{
			Quantity:   draw.Quantity,
			UnitCost:   draw.UnitCost,
			LotNumber:  draw.LotNumber,
			ReceivedAt: lot.ReceivedAt,
		})
	}

	bal, err := l.apply(ctx, p.Item, m)
	if err != nil {
		return nil, nil, nil, err
	}
	return m, bal, layers, nil
}

func (l ledger) apply(ctx context.Context, item *entities.Item, m *entities.StockMovement) (*entities.StockBalance, error) {
	bal, err := l.tx.Stock().GetBalance(ctx, m.CompanyID, m.BranchID, m.ItemID)
	if isNotFound(err) {
		bal = &entities.StockBalance{
			CompanyID: m.CompanyID,
			BranchID:  m.BranchID,
			ItemID:    m.ItemID,
			UOM:       item.BaseUOM,
			Quantity:  decimal.Zero,
			Value:     decimal.Zero,
		}
	} else if err != nil {
		return nil, err
	}

	bal.Apply(m)
	if bal.Quantity.IsNegative() {
		return nil, fmt.Errorf("balance of %s would become %s: %w", item.SKU, bal.Quantity, apperror.ErrInsufficientStock)
	}
	if err := l.tx.Stock().SaveBalance(ctx, bal); err != nil {
		return nil, err
	}
	return bal, nil
}
