package events

import (
	"github.com/vsinha/brewerp/pkg/domain/entities"
)

const (
	StockMovedEvent       = "stock.moved"
	StockTransferredEvent = "stock.transferred"

	PurchaseApprovedEvent = "purchase.approved"
	PurchaseReceivedEvent = "purchase.received"

	ItemCreatedEvent = "item.created"
	ItemUpdatedEvent = "item.updated"

	AlertRaisedEvent   = "alert.raised"
	AlertResolvedEvent = "alert.resolved"
)

type StockMoved struct {
	Movement entities.StockMovement `json:"movement"`
}

type StockTransferred struct {
	Transfer  entities.Transfer        `json:"transfer"`
	Movements []entities.StockMovement `json:"movements"`
}

type PurchaseApproved struct {
	PurchaseOrder entities.PurchaseOrder `json:"purchase_order"`
}

type PurchaseReceived struct {
	Receipt       entities.GoodsReceipt    `json:"receipt"`
	PurchaseOrder *entities.PurchaseOrder  `json:"purchase_order,omitempty"`
	Movements     []entities.StockMovement `json:"movements"`
}

type ItemCreated struct {
	Item entities.Item `json:"item"`
}

type ItemUpdated struct {
	OldItem entities.Item `json:"old_item"`
	NewItem entities.Item `json:"new_item"`
}

type AlertRaised struct {
	Alert entities.LowStockAlert `json:"alert"`
}

type AlertResolved struct {
	Alert entities.LowStockAlert `json:"alert"`
}

func NewStockMovedEvent(m *entities.StockMovement) Event {
	return NewEvent(StockMovedEvent, m.CompanyID, StockMoved{Movement: *m}, m.CreatedAt)
}

func NewStockTransferredEvent(t *entities.Transfer, movements []*entities.StockMovement) Event {
	return NewEvent(StockTransferredEvent, t.CompanyID, StockTransferred{
		Transfer:  *t,
		Movements: derefMovements(movements),
	}, t.CreatedAt)
}

func NewPurchaseApprovedEvent(po *entities.PurchaseOrder) Event {
	at := po.UpdatedAt
	if po.ApprovedAt != nil {
		at = *po.ApprovedAt
	}
	return NewEvent(PurchaseApprovedEvent, po.CompanyID, PurchaseApproved{PurchaseOrder: *po}, at)
}

func NewPurchaseReceivedEvent(gr *entities.GoodsReceipt, po *entities.PurchaseOrder, movements []*entities.StockMovement) Event {
	return NewEvent(PurchaseReceivedEvent, gr.CompanyID, PurchaseReceived{
		Receipt:       *gr,
		PurchaseOrder: po,
		Movements:     derefMovements(movements),
	}, gr.CreatedAt)
}

func NewItemCreatedEvent(item *entities.Item) Event {
	return NewEvent(ItemCreatedEvent, item.CompanyID, ItemCreated{Item: *item}, item.CreatedAt)
}

func NewItemUpdatedEvent(oldItem, newItem *entities.Item) Event {
	return NewEvent(ItemUpdatedEvent, newItem.CompanyID, ItemUpdated{
		OldItem: *oldItem,
		NewItem: *newItem,
	}, newItem.UpdatedAt)
}

func NewAlertRaisedEvent(a *entities.LowStockAlert) Event {
	return NewEvent(AlertRaisedEvent, a.CompanyID, AlertRaised{Alert: *a}, a.RaisedAt)
}

func NewAlertResolvedEvent(a *entities.LowStockAlert) Event {
	at := a.RaisedAt
	if a.ResolvedAt != nil {
		at = *a.ResolvedAt
	}
	return NewEvent(AlertResolvedEvent, a.CompanyID, AlertResolved{Alert: *a}, at)
}

func derefMovements(movements []*entities.StockMovement) []entities.StockMovement {
	out := make([]entities.StockMovement, len(movements))
	for i, m := range movements {
		out[i] = *m
	}
	return out
}
