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
	domain "github.com/vsinha/brewerp/pkg/domain/services"
	"github.com/vsinha/brewerp/pkg/infrastructure/events"
)

// Audit collections
const (
	CollectionItems     = "items"
	CollectionSuppliers = "suppliers"
)

// ItemService manages the item master
type ItemService struct {
	base
}

// NewItemService creates a new item service
func NewItemService(opts Options) *ItemService {
	return &ItemService{base: newBase(opts)}
}

// audit appends an audit entry with the diff between before and after.
// before is nil for creations and after is nil for deletions.
func audit(ctx context.Context, tx repositories.Repositories, p Principal, collection, documentID string,
	action entities.AuditAction, before, after any, at time.Time) error {
	diff, err := domain.DocumentDiff(before, after)
	if err != nil {
		return err
	}
	return tx.Audit().AppendAudit(ctx, &entities.AuditEntry{
		ID:         entities.NewID(),
		CompanyID:  p.CompanyID,
		Collection: collection,
		DocumentID: documentID,
		Action:     action,
		ActorID:    p.UserID,
		Diff:       diff,
		At:         at,
	})
}

func applyItemInput(item *entities.Item, in dto.ItemInput) {
	item.SKU = in.SKU
	item.Name = in.Name
	item.Category = in.Category
	item.BaseUOM = in.BaseUOM
	if in.Conversions != nil {
		item.Conversions = append([]entities.UOMConversion(nil), in.Conversions...)
	}
	item.StandardCost = in.StandardCost
	item.ReorderLevel = in.ReorderLevel
	item.LotSizeRule = in.LotSizeRule
	item.MinOrderQty = in.MinOrderQty
	item.PackSize = in.PackSize
	item.LeadTimeDays = in.LeadTimeDays
	item.Active = boolOr(in.Active, item.Active)
	item.Normalize()
}

func (s *ItemService) ListItems(ctx context.Context, p Principal, filter repositories.ItemFilter) ([]*entities.Item, error) {
	if err := p.Require(entities.PermRead); err != nil {
		return nil, err
	}
	if filter.Category != "" && !filter.Category.Valid() {
		return nil, apperror.Invalid("category", "is not a valid category")
	}
	filter.Search = strings.TrimSpace(filter.Search)
	return s.store.Items().ListItems(ctx, p.CompanyID, filter)
}

func (s *ItemService) GetItem(ctx context.Context, p Principal, id string) (*entities.Item, error) {
	if err := p.Require(entities.PermRead); err != nil {
		return nil, err
	}
	return s.store.Items().GetItem(ctx, p.CompanyID, id)
}

// CreateItem adds an item; SKUs are unique per company
func (s *ItemService) CreateItem(ctx context.Context, p Principal, in dto.ItemInput) (*entities.Item, error) {
	if err := p.Require(entities.PermManageMaster); err != nil {
		return nil, err
	}
	var item *entities.Item
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repositories.Repositories) error {
		var err error
		item, err = s.create(ctx, tx, p, in)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publish(events.NewItemCreatedEvent(item))
	return item, nil
}

// UpdateItem replaces the item fields. The base UOM is frozen once the item has moved.
func (s *ItemService) UpdateItem(ctx context.Context, p Principal, id string, in dto.ItemInput) (*entities.Item, error) {
	if err := p.Require(entities.PermManageMaster); err != nil {
		return nil, err
	}

	var before, item *entities.Item
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repositories.Repositories) error {
		var err error
		before, item, err = s.update(ctx, tx, p, id, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	if before != nil {
		s.publish(events.NewItemUpdatedEvent(before, item))
	}
	return item, nil
}

// update applies in to the item inside tx. before is nil when nothing changed.
func (s *ItemService) update(ctx context.Context, tx repositories.Repositories, p Principal, id string, in dto.ItemInput) (*entities.Item, *entities.Item, error) {
	item, err := tx.Items().GetItem(ctx, p.CompanyID, id)
	if err != nil {
		return nil, nil, err
	}
	before := *item
	before.Conversions = append([]entities.UOMConversion(nil), item.Conversions...)

	applyItemInput(item, in)
	if err := item.Validate(); err != nil {
		return nil, nil, err
	}
	if item.BaseUOM != before.BaseUOM {
		moved, err := hasMovements(ctx, tx, p.CompanyID, id)
		if err != nil {
			return nil, nil, err
		}
		if moved {
			return nil, nil, apperror.Conflict("base uom of %s cannot change once stock has moved", before.SKU)
		}
	}

	now := s.now()
	diff, err := domain.DocumentDiff(&before, item)
	if err != nil {
		return nil, nil, err
	}
	if diff == "" {
		return nil, item, nil
	}
	item.UpdatedAt = now
	if err := tx.Items().UpdateItem(ctx, item); err != nil {
		return nil, nil, err
	}
	if err := audit(ctx, tx, p, CollectionItems, item.ID, entities.AuditUpdate, &before, item, now); err != nil {
		return nil, nil, err
	}
	return &before, item, nil
}

func hasMovements(ctx context.Context, repos repositories.Repositories, companyID, itemID string) (bool, error) {
	list, err := repos.Stock().ListMovements(ctx, companyID, repositories.MovementFilter{
		ItemID:      itemID,
		ListOptions: repositories.ListOptions{Limit: 1},
	})
	return len(list) > 0, err
}

// DeleteItem deactivates an item. With hard set it removes the item, which
// fails with ErrConflict once the item has stock history or purchase orders.
func (s *ItemService) DeleteItem(ctx context.Context, p Principal, id string, hard bool) error {
	if err := p.Require(entities.PermManageMaster); err != nil {
		return err
	}

	var before, item *entities.Item
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repositories.Repositories) error {
		var err error
		if item, err = tx.Items().GetItem(ctx, p.CompanyID, id); err != nil {
			return err
		}
		now := s.now()

		if !hard {
			if !item.Active {
				return nil
			}
			copied := *item
			before = &copied
			item.Active = false
			item.UpdatedAt = now
			if err := tx.Items().UpdateItem(ctx, item); err != nil {
				return err
			}
			return audit(ctx, tx, p, CollectionItems, id, entities.AuditUpdate, before, item, now)
		}

		moved, err := hasMovements(ctx, tx, p.CompanyID, id)
		if err != nil {
			return err
		}
		if moved {
			return apperror.Conflict("item %s has stock movements; deactivate it instead", item.SKU)
		}
		ordered, err := onPurchaseOrder(ctx, tx, p.CompanyID, id)
		if err != nil {
			return err
		}
		if ordered != "" {
			return apperror.Conflict("item %s is on purchase order %s; deactivate it instead", item.SKU, ordered)
		}
		if err := tx.Items().DeleteItem(ctx, p.CompanyID, id); err != nil {
			return err
		}
		return audit(ctx, tx, p, CollectionItems, id, entities.AuditDelete, item, nil, now)
	})
	if err != nil {
		return err
	}
	if before != nil {
		s.publish(events.NewItemUpdatedEvent(before, item))
	}
	return nil
}

// onPurchaseOrder returns the number of a PO with a line for itemID
func onPurchaseOrder(ctx context.Context, repos repositories.Repositories, companyID, itemID string) (string, error) {
	pos, err := allPages(func(opts repositories.ListOptions) ([]*entities.PurchaseOrder, error) {
		return repos.PurchaseOrders().ListPurchaseOrders(ctx, companyID, repositories.PurchaseOrderFilter{ListOptions: opts})
	})
	if err != nil {
		return "", err
	}
	for _, po := range pos {
		for _, l := range po.Lines {
			if l.ItemID == itemID {
				return po.Number, nil
			}
		}
	}
	return "", nil
}

// ConvertQuantity converts qty between two units of an item
func (s *ItemService) ConvertQuantity(ctx context.Context, p Principal, id string, qty decimal.Decimal, from, to string) (*dto.Conversion, error) {
	item, err := s.GetItem(ctx, p, id)
	if err != nil {
		return nil, err
	}
	from, to = entities.NormalizeUOM(from), entities.NormalizeUOM(to)
	if from == "" {
		from = item.BaseUOM
	}
	if to == "" {
		to = item.BaseUOM
	}
	result, err := domain.Convert(item, qty, from, to)
	if err != nil {
		return nil, err
	}
	return &dto.Conversion{ItemID: item.ID, Quantity: qty, FromUOM: from, ToUOM: to, Result: result}, nil
}

// Audit returns the change history of an item, oldest first
func (s *ItemService) Audit(ctx context.Context, p Principal, id string) ([]*entities.AuditEntry, error) {
	if _, err := s.GetItem(ctx, p, id); err != nil && !isNotFound(err) {
		return nil, err
	}
	return s.store.Audit().ListAudit(ctx, p.CompanyID, CollectionItems, id)
}

// ImportItems upserts items by SKU in one transaction. Conversions of existing
// items are kept when a row has none.
func (s *ItemService) ImportItems(ctx context.Context, p Principal, rows []dto.ItemRow) (*dto.ImportResult, error) {
	if err := p.Require(entities.PermManageMaster); err != nil {
		return nil, err
	}

	result := &dto.ImportResult{}
	var evts []events.Event
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repositories.Repositories) error {
		for _, row := range rows {
			existing, err := tx.Items().GetItemBySKU(ctx, p.CompanyID, entities.NormalizeCode(row.Input.SKU))
			switch {
			case isNotFound(err):
				item, err := s.create(ctx, tx, p, row.Input)
				if err != nil {
					return fmt.Errorf("row %d: %w", row.Row, err)
				}
				result.Created++
				evts = append(evts, events.NewItemCreatedEvent(item))
			case err != nil:
				return err
			default:
				before, item, err := s.update(ctx, tx, p, existing.ID, row.Input)
				if err != nil {
					return fmt.Errorf("row %d: %w", row.Row, err)
				}
				if before != nil {
					result.Updated++
					evts = append(evts, events.NewItemUpdatedEvent(before, item))
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(evts...)
	return result, nil
}

func (s *ItemService) create(ctx context.Context, tx repositories.Repositories, p Principal, in dto.ItemInput) (*entities.Item, error) {
	now := s.now()
	item := &entities.Item{
		ID:        entities.NewID(),
		CompanyID: p.CompanyID,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyItemInput(item, in)
	if err := item.Validate(); err != nil {
		return nil, err
	}
	if err := tx.Items().CreateItem(ctx, item); err != nil {
		return nil, err
	}
	return item, audit(ctx, tx, p, CollectionItems, item.ID, entities.AuditCreate, nil, item, now)
}
