package repositories

import (
	"context"

	"github.com/vsinha/brewerp/pkg/domain/entities"
)

// PurchaseOrderFilter narrows a PO listing
type PurchaseOrderFilter struct {
	Status     entities.POStatus
	SupplierID string
	BranchID   string
	Scope      []string
	ListOptions
}

// PurchaseOrderRepository provides access to purchase orders
type PurchaseOrderRepository interface {
	CreatePurchaseOrder(ctx context.Context, po *entities.PurchaseOrder) error
	GetPurchaseOrder(ctx context.Context, companyID, id string) (*entities.PurchaseOrder, error)
	UpdatePurchaseOrder(ctx context.Context, po *entities.PurchaseOrder) error
	ListPurchaseOrders(ctx context.Context, companyID string, filter PurchaseOrderFilter) ([]*entities.PurchaseOrder, error)
	CountPurchaseOrdersByStatus(ctx context.Context, companyID string) (map[entities.POStatus]int, error)
}

// GoodsReceiptFilter narrows a GR listing
type GoodsReceiptFilter struct {
	PurchaseOrderID string
	BranchID        string
	Scope           []string
	ListOptions
}

// GoodsReceiptRepository provides access to goods receipts
type GoodsReceiptRepository interface {
	CreateGoodsReceipt(ctx context.Context, gr *entities.GoodsReceipt) error
	GetGoodsReceipt(ctx context.Context, companyID, id string) (*entities.GoodsReceipt, error)
	ListGoodsReceipts(ctx context.Context, companyID string, filter GoodsReceiptFilter) ([]*entities.GoodsReceipt, error)
}
