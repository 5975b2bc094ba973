package repositories

import "context"

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// ListOptions pages through a collection
type ListOptions struct {
	Limit  int
	Offset int
}

// Normalize applies the default and maximum page size
func (o ListOptions) Normalize() ListOptions {
	if o.Limit <= 0 {
		o.Limit = DefaultListLimit
	}
	if o.Limit > MaxListLimit {
		o.Limit = MaxListLimit
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}

// Repositories gives access to every collection through one connection or transaction
type Repositories interface {
	Companies() CompanyRepository
	Countries() CountryRepository
	Branches() BranchRepository
	Users() UserRepository
	Sessions() SessionRepository
	Items() ItemRepository
	Suppliers() SupplierRepository
	PurchaseOrders() PurchaseOrderRepository
	GoodsReceipts() GoodsReceiptRepository
	Transfers() TransferRepository
	Stock() StockRepository
	Alerts() AlertRepository
	Audit() AuditRepository
	Counters() CounterRepository
}

// Store is the system of record. WithTx runs fn atomically: every write made
// through the Repositories passed to fn commits together or not at all.
type Store interface {
	Repositories
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Repositories) error) error
	Close() error
}
