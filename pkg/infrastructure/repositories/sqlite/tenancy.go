package sqlite

import (
	"context"

	"github.com/vsinha/brewerp/pkg/domain/entities"
)

const companyColumns = `id, name, code, currency, active, created_at, updated_at`

func scanCompany(s rowScanner) (*entities.Company, error) {
	var c entities.Company
	if err := s.Scan(&c.ID, &c.Name, &c.Code, &c.Currency, &c.Active, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repos) CreateCompany(ctx context.Context, c *entities.Company) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO companies (`+companyColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Code, c.Currency, c.Active, utc(c.CreatedAt), utc(c.UpdatedAt))
	return translate(err, "company", c.Code)
}

func (r *repos) GetCompany(ctx context.Context, id string) (*entities.Company, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = ?`, id)
	c, err := scanCompany(row)
	if err != nil {
		return nil, translate(err, "company", id)
	}
	return c, nil
}

func (r *repos) GetCompanyByCode(ctx context.Context, code string) (*entities.Company, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+companyColumns+` FROM companies WHERE code = ?`, code)
	c, err := scanCompany(row)
	if err != nil {
		return nil, translate(err, "company", code)
	}
	return c, nil
}

func (r *repos) UpdateCompany(ctx context.Context, c *entities.Company) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE companies SET name = ?, code = ?, currency = ?, active = ?, updated_at = ? WHERE id = ?`,
		c.Name, c.Code, c.Currency, c.Active, utc(c.UpdatedAt), c.ID)
	if err != nil {
		return translate(err, "company", c.ID)
	}
	return mustAffect(res, "company", c.ID)
}

func (r *repos) ListCompanies(ctx context.Context, activeOnly bool) ([]*entities.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies`
	if activeOnly {
		query += ` WHERE active = 1`
	}
	rows, err := r.q.QueryContext(ctx, query+` ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*entities.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

const countryColumns = `id, company_id, code, name, currency, created_at, updated_at`

func scanCountry(s rowScanner) (*entities.Country, error) {
	var c entities.Country
	if err := s.Scan(&c.ID, &c.CompanyID, &c.Code, &c.Name, &c.Currency, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repos) CreateCountry(ctx context.Context, c *entities.Country) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO countries (`+countryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.CompanyID, c.Code, c.Name, c.Currency, utc(c.CreatedAt), utc(c.UpdatedAt))
	return translate(err, "country", c.Code)
}

func (r *repos) GetCountry(ctx context.Context, companyID, id string) (*entities.Country, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+countryColumns+` FROM countries WHERE company_id = ? AND id = ?`, companyID, id)
	c, err := scanCountry(row)
	if err != nil {
		return nil, translate(err, "country", id)
	}
	return c, nil
}

func (r *repos) UpdateCountry(ctx context.Context, c *entities.Country) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE countries SET code = ?, name = ?, currency = ?, updated_at = ? WHERE company_id = ? AND id = ?`,
		c.Code, c.Name, c.Currency, utc(c.UpdatedAt), c.CompanyID, c.ID)
	if err != nil {
		return translate(err, "country", c.ID)
	}
	return mustAffect(res, "country", c.ID)
}

func (r *repos) DeleteCountry(ctx context.Context, companyID, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM countries WHERE company_id = ? AND id = ?`, companyID, id)
	if err != nil {
		return translate(err, "country", id)
	}
	return mustAffect(res, "country", id)
}

func (r *repos) ListCountries(ctx context.Context, companyID string) ([]*entities.Country, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+countryColumns+` FROM countries WHERE company_id = ? ORDER BY code`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*entities.Country
	for rows.Next() {
		c, err := scanCountry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

const branchColumns = `id, company_id, country_id, code, name, address, active, created_at, updated_at`

func scanBranch(s rowScanner) (*entities.Branch, error) {
	var b entities.Branch
	if err := s.Scan(&b.ID, &b.CompanyID, &b.CountryID, &b.Code, &b.Name, &b.Address, &b.Active,
		&b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repos) CreateBranch(ctx context.Context, b *entities.Branch) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO branches (`+branchColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.CompanyID, b.CountryID, b.Code, b.Name, b.Address, b.Active, utc(b.CreatedAt), utc(b.UpdatedAt))
	return translate(err, "branch", b.Code)
}

func (r *repos) GetBranch(ctx context.Context, companyID, id string) (*entities.Branch, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+branchColumns+` FROM branches WHERE company_id = ? AND id = ?`, companyID, id)
	b, err := scanBranch(row)
	if err != nil {
		return nil, translate(err, "branch", id)
	}
	return b, nil
}

func (r *repos) GetBranchByCode(ctx context.Context, companyID, code string) (*entities.Branch, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+branchColumns+` FROM branches WHERE company_id = ? AND code = ?`, companyID, code)
	b, err := scanBranch(row)
	if err != nil {
		return nil, translate(err, "branch", code)
	}
	return b, nil
}

func (r *repos) UpdateBranch(ctx context.Context, b *entities.Branch) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE branches SET country_id = ?, code = ?, name = ?, address = ?, active = ?, updated_at = ?
		 WHERE company_id = ? AND id = ?`,
		b.CountryID, b.Code, b.Name, b.Address, b.Active, utc(b.UpdatedAt), b.CompanyID, b.ID)
	if err != nil {
		return translate(err, "branch", b.ID)
	}
	return mustAffect(res, "branch", b.ID)
}

func (r *repos) DeleteBranch(ctx context.Context, companyID, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM branches WHERE company_id = ? AND id = ?`, companyID, id)
	if err != nil {
		return translate(err, "branch", id)
	}
	return mustAffect(res, "branch", id)
}

func (r *repos) ListBranches(ctx context.Context, companyID string) ([]*entities.Branch, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+branchColumns+` FROM branches WHERE company_id = ? ORDER BY code`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*entities.Branch
	for rows.Next() {
		b, err := scanBranch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
