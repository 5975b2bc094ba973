package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/vsinha/brewerp/pkg/domain/entities"
	"github.com/vsinha/brewerp/pkg/domain/repositories"
)

const balanceColumns = `company_id, branch_id, item_id, uom, quantity, value, last_movement_at, last_issue_at, updated_at`

func scanBalance(s rowScanner) (*entities.StockBalance, error) {
	var (
		b                 entities.StockBalance
		lastMove, lastIss sql.NullTime
	)
	if err := s.Scan(&b.CompanyID, &b.BranchID, &b.ItemID, &b.UOM, &b.Quantity, &b.Value,
		&lastMove, &lastIss, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.LastMovementAt = timePtr(lastMove)
	b.LastIssueAt = timePtr(lastIss)
	return &b, nil
}

func (r *repos) GetBalance(ctx context.Context, companyID, branchID, itemID string) (*entities.StockBalance, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+balanceColumns+` FROM stock_balances WHERE company_id = ? AND branch_id = ? AND item_id = ?`,
		companyID, branchID, itemID)
	b, err := scanBalance(row)
	if err != nil {
		return nil, translate(err, "stock balance", branchID+"/"+itemID)
	}
	return b, nil
}

func (r *repos) SaveBalance(ctx context.Context, b *entities.StockBalance) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO stock_balances (company_id, branch_id, item_id, uom, quantity, value, is_zero,
			last_movement_at, last_issue_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (company_id, branch_id, item_id) DO UPDATE SET
			uom = excluded.uom, quantity = excluded.quantity, value = excluded.value,
			is_zero = excluded.is_zero, last_movement_at = excluded.last_movement_at,
			last_issue_at = excluded.last_issue_at, updated_at = excluded.updated_at`,
		b.CompanyID, b.BranchID, b.ItemID, b.UOM, b.Quantity, b.Value, b.Quantity.IsZero(),
		nullTime(b.LastMovementAt), nullTime(b.LastIssueAt), utc(b.UpdatedAt))
	return translate(err, "stock balance", b.BranchID+"/"+b.ItemID)
}

func (r *repos) ListBalances(ctx context.Context, companyID string, filter repositories.BalanceFilter) ([]*entities.StockBalance, error) {
	var (
		where = []string{"company_id = ?"}
		args  = []any{companyID}
	)
	if filter.BranchID != "" {
		where = append(where, "branch_id = ?")
		args = append(args, filter.BranchID)
	}
	if filter.ItemID != "" {
		where = append(where, "item_id = ?")
		args = append(args, filter.ItemID)
	}
	if filter.NonZero {
		where = append(where, "is_zero = 0")
	}
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+balanceColumns+` FROM stock_balances WHERE `+strings.Join(where, " AND ")+
			` ORDER BY branch_id, item_id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*entities.StockBalance
	for rows.Next() {
		b, err := scanBalance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

const lotColumns = `id, company_id, branch_id, item_id, lot_number, received_at, original_qty, remaining_qty,
	unit_cost, movement_id`

func (r *repos) CreateLot(ctx context.Context, l *entities.StockLot) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO stock_lots (`+lotColumns+`, is_open) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.CompanyID, l.BranchID, l.ItemID, l.LotNumber, utc(l.ReceivedAt), l.OriginalQty,
		l.RemainingQty, l.UnitCost, l.MovementID, l.RemainingQty.IsPositive())
	return translate(err, "stock lot", l.LotNumber)
}

func (r *repos) UpdateLot(ctx context.Context, l *entities.StockLot) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE stock_lots SET remaining_qty = ?, is_open = ? WHERE company_id = ? AND id = ?`,
		l.RemainingQty, l.RemainingQty.IsPositive(), l.CompanyID, l.ID)
	if err != nil {
		return translate(err, "stock lot", l.ID)
	}
	return mustAffect(res, "stock lot", l.ID)
}

// ListLots returns lots oldest first, the order FIFO consumption draws them in.
func (r *repos) ListLots(ctx context.Context, companyID string, filter repositories.LotFilter) ([]*entities.StockLot, error) {
	var (
		where = []string{"company_id = ?"}
		args  = []any{companyID}
	)
	if filter.BranchID != "" {
		where = append(where, "branch_id = ?")
		args = append(args, filter.BranchID)
	}
	if filter.ItemID != "" {
		where = append(where, "item_id = ?")
		args = append(args, filter.ItemID)
	}
	if filter.OpenOnly {
		where = append(where, "is_open = 1")
	}
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+lotColumns+` FROM stock_lots WHERE `+strings.Join(where, " AND ")+` ORDER BY received_at, id`,
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*entities.StockLot
	for rows.Next() {
		var l entities.StockLot
		if err := rows.Scan(&l.ID, &l.CompanyID, &l.BranchID, &l.ItemID, &l.LotNumber, &l.ReceivedAt,
			&l.OriginalQty, &l.RemainingQty, &l.UnitCost, &l.MovementID); err != nil {
			return nil, err
		}
		out = append(out, &l)
	}
	return out, rows.Err()
}

const movementColumns = `id, company_id, branch_id, item_id, type, quantity, uom, base_quantity, unit_cost,
	total_cost, reference, reason, created_by, occurred_at, created_at`

func (r *repos) CreateMovement(ctx context.Context, m *entities.StockMovement) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO stock_movements (`+movementColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.CompanyID, m.BranchID, m.ItemID, m.Type, m.Quantity, m.UOM, m.BaseQuantity, m.UnitCost,
		m.TotalCost, m.Reference, m.Reason, m.CreatedBy, utc(m.OccurredAt), utc(m.CreatedAt))
	return translate(err, "stock movement", m.ID)
}

// ListMovements returns the newest movements first, or every match oldest
// first when filter.Unbounded is set.
func (r *repos) ListMovements(ctx context.Context, companyID string, filter repositories.MovementFilter) ([]*entities.StockMovement, error) {
	var (
		where = []string{"company_id = ?"}
		args  = []any{companyID}
	)
	if filter.BranchID != "" {
		where = append(where, "branch_id = ?")
		args = append(args, filter.BranchID)
	}
	where, args = scoped(where, args, "branch_id", filter.Scope)
	if filter.ItemID != "" {
		where = append(where, "item_id = ?")
		args = append(args, filter.ItemID)
	}
	if len(filter.Types) > 0 {
		marks := make([]string, len(filter.Types))
		for i, t := range filter.Types {
			marks[i] = "?"
			args = append(args, t)
		}
		where = append(where, "type IN ("+strings.Join(marks, ", ")+")")
	}
	if filter.From != nil {
		where = append(where, "occurred_at >= ?")
		args = append(args, utc(*filter.From))
	}
	if filter.To != nil {
		where = append(where, "occurred_at < ?")
		args = append(args, utc(*filter.To))
	}

	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE ` + strings.Join(where, " AND ")
	if filter.Unbounded {
		query += ` ORDER BY occurred_at, created_at, id`
	} else {
		query, args = page(query+` ORDER BY occurred_at DESC, created_at DESC, id DESC`, args, filter.ListOptions)
	}

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*entities.StockMovement
	for rows.Next() {
		var m entities.StockMovement
		if err := rows.Scan(&m.ID, &m.CompanyID, &m.BranchID, &m.ItemID, &m.Type, &m.Quantity, &m.UOM,
			&m.BaseQuantity, &m.UnitCost, &m.TotalCost, &m.Reference, &m.Reason, &m.CreatedBy,
			&m.OccurredAt, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

const transferColumns = `id, company_id, number, from_branch_id, to_branch_id, lines, notes, created_by,
	occurred_at, created_at`

func scanTransfer(s rowScanner) (*entities.Transfer, error) {
	var (
		t     entities.Transfer
		lines string
	)
	if err := s.Scan(&t.ID, &t.CompanyID, &t.Number, &t.FromBranchID, &t.ToBranchID, &lines, &t.Notes,
		&t.CreatedBy, &t.OccurredAt, &t.CreatedAt); err != nil {
		return nil, err
	}
	if err := fromJSON(lines, &t.Lines); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *repos) CreateTransfer(ctx context.Context, t *entities.Transfer) error {
	lines, err := toJSON(t.Lines)
	if err != nil {
		return err
	}
	_, err = r.q.ExecContext(ctx,
		`INSERT INTO transfers (`+transferColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.CompanyID, t.Number, t.FromBranchID, t.ToBranchID, lines, t.Notes, t.CreatedBy,
		utc(t.OccurredAt), utc(t.CreatedAt))
	return translate(err, "transfer", t.Number)
}

func (r *repos) GetTransfer(ctx context.Context, companyID, id string) (*entities.Transfer, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+transferColumns+` FROM transfers WHERE company_id = ? AND id = ?`, companyID, id)
	t, err := scanTransfer(row)
	if err != nil {
		return nil, translate(err, "transfer", id)
	}
	return t, nil
}

func (r *repos) ListTransfers(ctx context.Context, companyID string, filter repositories.TransferFilter) ([]*entities.Transfer, error) {
	var (
		where = []string{"company_id = ?"}
		args  = []any{companyID}
	)
	if len(filter.Scope) > 0 {
		from, fromArgs := scoped(nil, nil, "from_branch_id", filter.Scope)
		to, toArgs := scoped(nil, nil, "to_branch_id", filter.Scope)
		where = append(where, "("+from[0]+" OR "+to[0]+")")
		args = append(append(args, fromArgs...), toArgs...)
	}
	query, args := page(`SELECT `+transferColumns+` FROM transfers WHERE `+
		strings.Join(where, " AND ")+` ORDER BY number DESC`, args, filter.ListOptions)
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*entities.Transfer
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
