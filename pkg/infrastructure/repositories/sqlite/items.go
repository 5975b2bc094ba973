package sqlite

import (
	"context"
	"strings"

	"github.com/vsinha/brewerp/pkg/domain/entities"
	"github.com/vsinha/brewerp/pkg/domain/repositories"
)

const itemColumns = `id, company_id, sku, name, category, base_uom, conversions, standard_cost, reorder_level,
	lot_size_rule, min_order_qty, pack_size, lead_time_days, active, created_at, updated_at`

func scanItem(s rowScanner) (*entities.Item, error) {
	var (
		it          entities.Item
		conversions string
	)
	if err := s.Scan(&it.ID, &it.CompanyID, &it.SKU, &it.Name, &it.Category, &it.BaseUOM, &conversions,
		&it.StandardCost, &it.ReorderLevel, &it.LotSizeRule, &it.MinOrderQty, &it.PackSize,
		&it.LeadTimeDays, &it.Active, &it.CreatedAt, &it.UpdatedAt); err != nil {
		return nil, err
	}
	if err := fromJSON(conversions, &it.Conversions); err != nil {
		return nil, err
	}
	if it.Conversions == nil {
		it.Conversions = []entities.UOMConversion{}
	}
	return &it, nil
}

func (r *repos) CreateItem(ctx context.Context, it *entities.Item) error {
	conversions, err := toJSON(it.Conversions)
	if err != nil {
		return err
	}
	_, err = r.q.ExecContext(ctx,
		`INSERT INTO items (`+itemColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		it.ID, it.CompanyID, it.SKU, it.Name, it.Category, it.BaseUOM, conversions, it.StandardCost,
		it.ReorderLevel, it.LotSizeRule, it.MinOrderQty, it.PackSize, it.LeadTimeDays, it.Active,
		utc(it.CreatedAt), utc(it.UpdatedAt))
	return translate(err, "item", it.SKU)
}

func (r *repos) GetItem(ctx context.Context, companyID, id string) (*entities.Item, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE company_id = ? AND id = ?`, companyID, id)
	it, err := scanItem(row)
	if err != nil {
		return nil, translate(err, "item", id)
	}
	return it, nil
}

func (r *repos) GetItemBySKU(ctx context.Context, companyID, sku string) (*entities.Item, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE company_id = ? AND sku = ?`, companyID, sku)
	it, err := scanItem(row)
	if err != nil {
		return nil, translate(err, "item", sku)
	}
	return it, nil
}

func (r *repos) UpdateItem(ctx context.Context, it *entities.Item) error {
	conversions, err := toJSON(it.Conversions)
	if err != nil {
		return err
	}
	res, err := r.q.ExecContext(ctx,
		`UPDATE items SET sku = ?, name = ?, category = ?, base_uom = ?, conversions = ?, standard_cost = ?,
			reorder_level = ?, lot_size_rule = ?, min_order_qty = ?, pack_size = ?, lead_time_days = ?,
			active = ?, updated_at = ?
		 WHERE company_id = ? AND id = ?`,
		it.SKU, it.Name, it.Category, it.BaseUOM, conversions, it.StandardCost, it.ReorderLevel,
		it.LotSizeRule, it.MinOrderQty, it.PackSize, it.LeadTimeDays, it.Active, utc(it.UpdatedAt),
		it.CompanyID, it.ID)
	if err != nil {
		return translate(err, "item", it.ID)
	}
	return mustAffect(res, "item", it.ID)
}

func (r *repos) DeleteItem(ctx context.Context, companyID, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM items WHERE company_id = ? AND id = ?`, companyID, id)
	if err != nil {
		return translate(err, "item", id)
	}
	return mustAffect(res, "item", id)
}

func (r *repos) ListItems(ctx context.Context, companyID string, filter repositories.ItemFilter) ([]*entities.Item, error) {
	var (
		where = []string{"company_id = ?"}
		args  = []any{companyID}
	)
	if filter.Category != "" {
		where = append(where, "category = ?")
		args = append(args, filter.Category)
	}
	if filter.ActiveOnly {
		where = append(where, "active = 1")
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		where = append(where, "(sku LIKE ? OR name LIKE ?)")
		pattern := "%" + s + "%"
		args = append(args, pattern, pattern)
	}
	query, args := page(`SELECT `+itemColumns+` FROM items WHERE `+strings.Join(where, " AND ")+` ORDER BY sku`,
		args, filter.ListOptions)
	return r.queryItems(ctx, query, args...)
}

func (r *repos) AllItems(ctx context.Context, companyID string) ([]*entities.Item, error) {
	return r.queryItems(ctx, `SELECT `+itemColumns+` FROM items WHERE company_id = ? ORDER BY sku`, companyID)
}

func (r *repos) queryItems(ctx context.Context, query string, args ...any) ([]*entities.Item, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*entities.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

const supplierColumns = `id, company_id, code, name, email, phone, lead_time_days, active, created_at, updated_at`

func scanSupplier(s rowScanner) (*entities.Supplier, error) {
	var sp entities.Supplier
	if err := s.Scan(&sp.ID, &sp.CompanyID, &sp.Code, &sp.Name, &sp.Email, &sp.Phone, &sp.LeadTimeDays,
		&sp.Active, &sp.CreatedAt, &sp.UpdatedAt); err != nil {
		return nil, err
	}
	return &sp, nil
}

func (r *repos) CreateSupplier(ctx context.Context, sp *entities.Supplier) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO suppliers (`+supplierColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sp.ID, sp.CompanyID, sp.Code, sp.Name, sp.Email, sp.Phone, sp.LeadTimeDays, sp.Active,
		utc(sp.CreatedAt), utc(sp.UpdatedAt))
	return translate(err, "supplier", sp.Code)
}

func (r *repos) GetSupplier(ctx context.Context, companyID, id string) (*entities.Supplier, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+supplierColumns+` FROM suppliers WHERE company_id = ? AND id = ?`, companyID, id)
	sp, err := scanSupplier(row)
	if err != nil {
		return nil, translate(err, "supplier", id)
	}
	return sp, nil
}

func (r *repos) UpdateSupplier(ctx context.Context, sp *entities.Supplier) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE suppliers SET code = ?, name = ?, email = ?, phone = ?, lead_time_days = ?, active = ?, updated_at = ?
		 WHERE company_id = ? AND id = ?`,
		sp.Code, sp.Name, sp.Email, sp.Phone, sp.LeadTimeDays, sp.Active, utc(sp.UpdatedAt), sp.CompanyID, sp.ID)
	if err != nil {
		return translate(err, "supplier", sp.ID)
	}
	return mustAffect(res, "supplier", sp.ID)
}

func (r *repos) DeleteSupplier(ctx context.Context, companyID, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM suppliers WHERE company_id = ? AND id = ?`, companyID, id)
	if err != nil {
		return translate(err, "supplier", id)
	}
	return mustAffect(res, "supplier", id)
}

func (r *repos) ListSuppliers(ctx context.Context, companyID string, opts repositories.ListOptions) ([]*entities.Supplier, error) {
	query, args := page(`SELECT `+supplierColumns+` FROM suppliers WHERE company_id = ? ORDER BY code`,
		[]any{companyID}, opts)
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*entities.Supplier
	for rows.Next() {
		sp, err := scanSupplier(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sp)
	}
	return out, rows.Err()
}

func (r *repos) AppendAudit(ctx context.Context, e *entities.AuditEntry) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO audit_log (id, company_id, collection, document_id, action, actor_id, diff, at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.CompanyID, e.Collection, e.DocumentID, e.Action, e.ActorID, e.Diff, utc(e.At))
	return translate(err, "audit entry", e.ID)
}

func (r *repos) ListAudit(ctx context.Context, companyID, collection, documentID string) ([]*entities.AuditEntry, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT id, company_id, collection, document_id, action, actor_id, diff, at FROM audit_log
		 WHERE company_id = ? AND collection = ? AND document_id = ? ORDER BY at, id`,
		companyID, collection, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*entities.AuditEntry
	for rows.Next() {
		var e entities.AuditEntry
		if err := rows.Scan(&e.ID, &e.CompanyID, &e.Collection, &e.DocumentID, &e.Action, &e.ActorID,
			&e.Diff, &e.At); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

func (r *repos) NextNumber(ctx context.Context, companyID, series string) (int64, error) {
	var n int64
	err := r.q.QueryRowContext(ctx,
		`INSERT INTO counters (company_id, name, value) VALUES (?, ?, 1)
		 ON CONFLICT (company_id, name) DO UPDATE SET value = value + 1
		 RETURNING value`, companyID, series).Scan(&n)
	if err != nil {
		return 0, translate(err, "counter", series)
	}
	return n, nil
}
