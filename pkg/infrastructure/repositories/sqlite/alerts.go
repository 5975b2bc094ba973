package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/vsinha/brewerp/pkg/domain/entities"
	"github.com/vsinha/brewerp/pkg/domain/repositories"
)

const alertColumns = `id, company_id, branch_id, item_id, quantity, reorder_level, suggested_qty, status,
	raised_at, resolved_at`

func scanAlert(s rowScanner) (*entities.LowStockAlert, error) {
	var (
		a          entities.LowStockAlert
		resolvedAt sql.NullTime
	)
	if err := s.Scan(&a.ID, &a.CompanyID, &a.BranchID, &a.ItemID, &a.Quantity, &a.ReorderLevel,
		&a.SuggestedQty, &a.Status, &a.RaisedAt, &resolvedAt); err != nil {
		return nil, err
	}
	a.ResolvedAt = timePtr(resolvedAt)
	return &a, nil
}

// CreateAlert fails with ErrConflict when an open alert already exists for the
// branch and item.
func (r *repos) CreateAlert(ctx context.Context, a *entities.LowStockAlert) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO low_stock_alerts (`+alertColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.CompanyID, a.BranchID, a.ItemID, a.Quantity, a.ReorderLevel, a.SuggestedQty, a.Status,
		utc(a.RaisedAt), nullTime(a.ResolvedAt))
	return translate(err, "low-stock alert", a.BranchID+"/"+a.ItemID)
}

func (r *repos) GetOpenAlert(ctx context.Context, companyID, branchID, itemID string) (*entities.LowStockAlert, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+alertColumns+` FROM low_stock_alerts
		 WHERE company_id = ? AND branch_id = ? AND item_id = ? AND status = 'open'`,
		companyID, branchID, itemID)
	a, err := scanAlert(row)
	if err != nil {
		return nil, translate(err, "low-stock alert", branchID+"/"+itemID)
	}
	return a, nil
}

func (r *repos) UpdateAlert(ctx context.Context, a *entities.LowStockAlert) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE low_stock_alerts SET quantity = ?, reorder_level = ?, suggested_qty = ?, status = ?, resolved_at = ?
		 WHERE company_id = ? AND id = ?`,
		a.Quantity, a.ReorderLevel, a.SuggestedQty, a.Status, nullTime(a.ResolvedAt), a.CompanyID, a.ID)
	if err != nil {
		return translate(err, "low-stock alert", a.ID)
	}
	return mustAffect(res, "low-stock alert", a.ID)
}

func (r *repos) ListAlerts(ctx context.Context, companyID string, filter repositories.AlertFilter) ([]*entities.LowStockAlert, error) {
	var (
		where = []string{"company_id = ?"}
		args  = []any{companyID}
	)
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.BranchID != "" {
		where = append(where, "branch_id = ?")
		args = append(args, filter.BranchID)
	}
	where, args = scoped(where, args, "branch_id", filter.Scope)
	query, args := page(`SELECT `+alertColumns+` FROM low_stock_alerts WHERE `+
		strings.Join(where, " AND ")+` ORDER BY raised_at DESC, id DESC`, args, filter.ListOptions)

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*entities.LowStockAlert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *repos) CountOpenAlerts(ctx context.Context, companyID string) (int, error) {
	var n int
	err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM low_stock_alerts WHERE company_id = ? AND status = 'open'`, companyID).Scan(&n)
	return n, err
}
