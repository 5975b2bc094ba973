package repositories

import (
	"context"

	"github.com/vsinha/brewerp/pkg/domain/entities"
)

// ItemFilter narrows an item listing
type ItemFilter struct {
	Category   entities.Category
	ActiveOnly bool
	Search     string // matches SKU or name
	ListOptions
}

// ItemRepository provides access to item master data
type ItemRepository interface {
	CreateItem(ctx context.Context, item *entities.Item) error
	GetItem(ctx context.Context, companyID, id string) (*entities.Item, error)
	GetItemBySKU(ctx context.Context, companyID, sku string) (*entities.Item, error)
	UpdateItem(ctx context.Context, item *entities.Item) error
	DeleteItem(ctx context.Context, companyID, id string) error
	ListItems(ctx context.Context, companyID string, filter ItemFilter) ([]*entities.Item, error)
	// AllItems returns every item of the company, active or not, ordered by SKU.
	AllItems(ctx context.Context, companyID string) ([]*entities.Item, error)
}

// SupplierRepository provides access to suppliers
type SupplierRepository interface {
	CreateSupplier(ctx context.Context, supplier *entities.Supplier) error
	GetSupplier(ctx context.Context, companyID, id string) (*entities.Supplier, error)
	UpdateSupplier(ctx context.Context, supplier *entities.Supplier) error
	DeleteSupplier(ctx context.Context, companyID, id string) error
	ListSuppliers(ctx context.Context, companyID string, opts ListOptions) ([]*entities.Supplier, error)
}

// AuditRepository stores the master-data audit trail
type AuditRepository interface {
	AppendAudit(ctx context.Context, entry *entities.AuditEntry) error
	ListAudit(ctx context.Context, companyID, collection, documentID string) ([]*entities.AuditEntry, error)
}

// CounterRepository allocates gap-free document numbers
type CounterRepository interface {
	// NextNumber increments and returns the counter for series. It must run inside
	// the transaction that writes the numbered document.
	NextNumber(ctx context.Context, companyID, series string) (int64, error)
}
