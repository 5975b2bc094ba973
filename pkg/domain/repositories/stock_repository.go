package repositories

import (
	"context"
	"time"

	"github.com/vsinha/brewerp/pkg/domain/entities"
)

// BalanceFilter narrows a balance listing
type BalanceFilter struct {
	BranchID string
	ItemID   string
	NonZero  bool
}

// LotFilter narrows a lot listing
type LotFilter struct {
	BranchID string
	ItemID   string
	OpenOnly bool
}

// MovementFilter narrows a movement listing. From is inclusive, To exclusive.
// A non-empty Scope restricts the listing to those branches before paging.
type MovementFilter struct {
	BranchID string
	Scope    []string
	ItemID   string
	Types    []entities.MovementType
	From     *time.Time
	To       *time.Time
	ListOptions
	// Unbounded ignores ListOptions and returns every match, oldest first.
	Unbounded bool
}

// StockRepository provides access to balances, FIFO lots and the movement ledger
type StockRepository interface {
	// GetBalance returns ErrNotFound when the item never moved at the branch.
	GetBalance(ctx context.Context, companyID, branchID, itemID string) (*entities.StockBalance, error)
	SaveBalance(ctx context.Context, balance *entities.StockBalance) error
	ListBalances(ctx context.Context, companyID string, filter BalanceFilter) ([]*entities.StockBalance, error)

	CreateLot(ctx context.Context, lot *entities.StockLot) error
	UpdateLot(ctx context.Context, lot *entities.StockLot) error
	ListLots(ctx context.Context, companyID string, filter LotFilter) ([]*entities.StockLot, error)

	CreateMovement(ctx context.Context, movement *entities.StockMovement) error
	ListMovements(ctx context.Context, companyID string, filter MovementFilter) ([]*entities.StockMovement, error)
}

// TransferFilter narrows a transfer listing. Scope matches transfers leaving
// or entering any of its branches.
type TransferFilter struct {
	Scope []string
	ListOptions
}

// TransferRepository provides access to inter-branch transfers
type TransferRepository interface {
	CreateTransfer(ctx context.Context, transfer *entities.Transfer) error
	GetTransfer(ctx context.Context, companyID, id string) (*entities.Transfer, error)
	ListTransfers(ctx context.Context, companyID string, filter TransferFilter) ([]*entities.Transfer, error)
}

// AlertFilter narrows an alert listing
type AlertFilter struct {
	Status   entities.AlertStatus
	BranchID string
	Scope    []string
	ListOptions
}

// AlertRepository provides access to low-stock alerts
type AlertRepository interface {
	CreateAlert(ctx context.Context, alert *entities.LowStockAlert) error
	// GetOpenAlert returns ErrNotFound when no open alert exists for the pair.
	GetOpenAlert(ctx context.Context, companyID, branchID, itemID string) (*entities.LowStockAlert, error)
	UpdateAlert(ctx context.Context, alert *entities.LowStockAlert) error
	ListAlerts(ctx context.Context, companyID string, filter AlertFilter) ([]*entities.LowStockAlert, error)
	CountOpenAlerts(ctx context.Context, companyID string) (int, error)
}
