package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/vsinha/brewerp/pkg/domain/entities"
	"github.com/vsinha/brewerp/pkg/domain/repositories"
)

const purchaseOrderColumns = `id, company_id, number, branch_id, supplier_id, status, order_date, expected_date,
	currency, lines, notes, created_by, approved_by, approved_at, created_at, updated_at`

func scanPurchaseOrder(s rowScanner) (*entities.PurchaseOrder, error) {
	var (
		po                   entities.PurchaseOrder
		lines                string
		expected, approvedAt sql.NullTime
	)
	if err := s.Scan(&po.ID, &po.CompanyID, &po.Number, &po.BranchID, &po.SupplierID, &po.Status,
		&po.OrderDate, &expected, &po.Currency, &lines, &po.Notes, &po.CreatedBy, &po.ApprovedBy,
		&approvedAt, &po.CreatedAt, &po.UpdatedAt); err != nil {
		return nil, err
	}
	if err := fromJSON(lines, &po.Lines); err != nil {
		return nil, err
	}
	po.ExpectedDate = timePtr(expected)
	po.ApprovedAt = timePtr(approvedAt)
	return &po, nil
}

func (r *repos) CreatePurchaseOrder(ctx context.Context, po *entities.PurchaseOrder) error {
	lines, err := toJSON(po.Lines)
	if err != nil {
		return err
	}
	_, err = r.q.ExecContext(ctx,
		`INSERT INTO purchase_orders (`+purchaseOrderColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		po.ID, po.CompanyID, po.Number, po.BranchID, po.SupplierID, po.Status, utc(po.OrderDate),
		nullTime(po.ExpectedDate), po.Currency, lines, po.Notes, po.CreatedBy, po.ApprovedBy,
		nullTime(po.ApprovedAt), utc(po.CreatedAt), utc(po.UpdatedAt))
	return translate(err, "purchase order", po.Number)
}

func (r *repos) GetPurchaseOrder(ctx context.Context, companyID, id string) (*entities.PurchaseOrder, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+purchaseOrderColumns+` FROM purchase_orders WHERE company_id = ? AND id = ?`, companyID, id)
	po, err := scanPurchaseOrder(row)
	if err != nil {
		return nil, translate(err, "purchase order", id)
	}
	return po, nil
}

func (r *repos) UpdatePurchaseOrder(ctx context.Context, po *entities.PurchaseOrder) error {
	lines, err := toJSON(po.Lines)
	if err != nil {
		return err
	}
	res, err := r.q.ExecContext(ctx,
		`UPDATE purchase_orders SET branch_id = ?, supplier_id = ?, status = ?, order_date = ?, expected_date = ?,
			currency = ?, lines = ?, notes = ?, approved_by = ?, approved_at = ?, updated_at = ?
		 WHERE company_id = ? AND id = ?`,
		po.BranchID, po.SupplierID, po.Status, utc(po.OrderDate), nullTime(po.ExpectedDate), po.Currency,
		lines, po.Notes, po.ApprovedBy, nullTime(po.ApprovedAt), utc(po.UpdatedAt), po.CompanyID, po.ID)
	if err != nil {
		return translate(err, "purchase order", po.ID)
	}
	return mustAffect(res, "purchase order", po.ID)
}

func (r *repos) ListPurchaseOrders(ctx context.Context, companyID string, filter repositories.PurchaseOrderFilter) ([]*entities.PurchaseOrder, error) {
	var (
		where = []string{"company_id = ?"}
		args  = []any{companyID}
	)
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.SupplierID != "" {
		where = append(where, "supplier_id = ?")
		args = append(args, filter.SupplierID)
	}
	if filter.BranchID != "" {
		where = append(where, "branch_id = ?")
		args = append(args, filter.BranchID)
	}
	where, args = scoped(where, args, "branch_id", filter.Scope)
	query, args := page(`SELECT `+purchaseOrderColumns+` FROM purchase_orders WHERE `+
		strings.Join(where, " AND ")+` ORDER BY number DESC`, args, filter.ListOptions)

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*entities.PurchaseOrder
	for rows.Next() {
		po, err := scanPurchaseOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, po)
	}
	return out, rows.Err()
}

func (r *repos) CountPurchaseOrdersByStatus(ctx context.Context, companyID string) (map[entities.POStatus]int, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM purchase_orders WHERE company_id = ? GROUP BY status`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[entities.POStatus]int)
	for rows.Next() {
		var (
			status entities.POStatus
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[status] = n
	}
	return out, rows.Err()
}

const goodsReceiptColumns = `id, company_id, number, purchase_order_id, branch_id, received_at, lines,
	received_by, notes, created_at`

func scanGoodsReceipt(s rowScanner) (*entities.GoodsReceipt, error) {
	var (
		gr    entities.GoodsReceipt
		poID  sql.NullString
		lines string
	)
	if err := s.Scan(&gr.ID, &gr.CompanyID, &gr.Number, &poID, &gr.BranchID, &gr.ReceivedAt, &lines,
		&gr.ReceivedBy, &gr.Notes, &gr.CreatedAt); err != nil {
		return nil, err
	}
	if err := fromJSON(lines, &gr.Lines); err != nil {
		return nil, err
	}
	gr.PurchaseOrderID = poID.String
	return &gr, nil
}

func (r *repos) CreateGoodsReceipt(ctx context.Context, gr *entities.GoodsReceipt) error {
	lines, err := toJSON(gr.Lines)
	if err != nil {
		return err
	}
	_, err = r.q.ExecContext(ctx,
		`INSERT INTO goods_receipts (`+goodsReceiptColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		gr.ID, gr.CompanyID, gr.Number, nullString(gr.PurchaseOrderID), gr.BranchID, utc(gr.ReceivedAt),
		lines, gr.ReceivedBy, gr.Notes, utc(gr.CreatedAt))
	return translate(err, "goods receipt", gr.Number)
}

func (r *repos) GetGoodsReceipt(ctx context.Context, companyID, id string) (*entities.GoodsReceipt, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+goodsReceiptColumns+` FROM goods_receipts WHERE company_id = ? AND id = ?`, companyID, id)
	gr, err := scanGoodsReceipt(row)
	if err != nil {
		return nil, translate(err, "goods receipt", id)
	}
	return gr, nil
}

func (r *repos) ListGoodsReceipts(ctx context.Context, companyID string, filter repositories.GoodsReceiptFilter) ([]*entities.GoodsReceipt, error) {
	var (
		where = []string{"company_id = ?"}
		args  = []any{companyID}
	)
	if filter.PurchaseOrderID != "" {
		where = append(where, "purchase_order_id = ?")
		args = append(args, filter.PurchaseOrderID)
	}
	if filter.BranchID != "" {
		where = append(where, "branch_id = ?")
		args = append(args, filter.BranchID)
	}
	where, args = scoped(where, args, "branch_id", filter.Scope)
	query, args := page(`SELECT `+goodsReceiptColumns+` FROM goods_receipts WHERE `+
		strings.Join(where, " AND ")+` ORDER BY number DESC`, args, filter.ListOptions)

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*entities.GoodsReceipt
	for rows.Next() {
		gr, err := scanGoodsReceipt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, gr)
	}
	return out, rows.Err()
}
