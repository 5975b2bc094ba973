package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vsinha/brewerp/pkg/application/dto"
	"github.com/vsinha/brewerp/pkg/domain/entities"
)

// Seeder loads a seed file through the regular services so every record passes
// the same validation as API input.
type Seeder struct {
	app *App
}

// NewSeeder creates a seeder on top of app
func NewSeeder(app *App) *Seeder {
	return &Seeder{app: app}
}

// Apply seeds every company of file. Companies whose code already exists are skipped.
func (s *Seeder) Apply(ctx context.Context, file *dto.SeedFile) (*dto.SeedResult, error) {
	result := &dto.SeedResult{}
	for _, sc := range file.Companies {
		code := entities.NormalizeCode(sc.Code)
		_, err := s.app.Store.Companies().GetCompanyByCode(ctx, code)
		switch {
		case err == nil:
			s.app.Logger.Info("company already seeded", zap.String("code", code))
			continue
		case !isNotFound(err):
			return nil, err
		}
		if err := s.company(ctx, sc, result); err != nil {
			return nil, fmt.Errorf("company %s: %w", code, err)
		}
	}
	return result, nil
}

func (s *Seeder) company(ctx context.Context, sc dto.SeedCompany, result *dto.SeedResult) error {
	reg, err := s.app.Auth.RegisterCompany(ctx, dto.RegisterCompanyInput{
		CompanyName: sc.Name,
		CompanyCode: sc.Code,
		Currency:    sc.Currency,
		AdminEmail:  sc.Admin.Email,
		AdminName:   sc.Admin.Name,
		Password:    sc.Admin.Password,
	})
	if err != nil {
		return err
	}
	result.Companies++
	result.Users++
	p := SystemPrincipal(reg.Company.ID)

	branches := make(map[string]string)
	for _, c := range sc.Countries {
		country, err := s.app.Tenancy.CreateCountry(ctx, p, dto.CountryInput{Code: c.Code, Name: c.Name, Currency: c.Currency})
		if err != nil {
			return fmt.Errorf("country %s: %w", c.Code, err)
		}
		for _, b := range c.Branches {
			branch, err := s.app.Tenancy.CreateBranch(ctx, p, dto.BranchInput{
				CountryID: country.ID,
				Code:      b.Code,
				Name:      b.Name,
				Address:   b.Address,
			})
			if err != nil {
				return fmt.Errorf("branch %s: %w", b.Code, err)
			}
			branches[branch.Code] = branch.ID
		}
	}

	for _, u := range sc.Users {
		ids := make([]string, 0, len(u.Branches))
		for _, code := range u.Branches {
			id, ok := branches[entities.NormalizeCode(code)]
			if !ok {
				return fmt.Errorf("user %s: unknown branch %s", u.Email, code)
			}
			ids = append(ids, id)
		}
		if _, err := s.app.Users.CreateUser(ctx, p, dto.UserInput{
			Email:     u.Email,
			Name:      u.Name,
			Role:      u.Role,
			BranchIDs: ids,
			Password:  u.Password,
		}); err != nil {
			return fmt.Errorf("user %s: %w", u.Email, err)
		}
		result.Users++
	}

	for _, sp := range sc.Suppliers {
		if _, err := s.app.Suppliers.CreateSupplier(ctx, p, dto.SupplierInput{
			Code:         sp.Code,
			Name:         sp.Name,
			Email:        sp.Email,
			Phone:        sp.Phone,
			LeadTimeDays: sp.LeadTimeDays,
		}); err != nil {
			return fmt.Errorf("supplier %s: %w", sp.Code, err)
		}
		result.Suppliers++
	}

	for _, si := range sc.Items {
		in, err := seedItemInput(si)
		if err != nil {
			return fmt.Errorf("item %s: %w", si.SKU, err)
		}
		if _, err := s.app.Items.CreateItem(ctx, p, in); err != nil {
			return fmt.Errorf("item %s: %w", si.SKU, err)
		}
		result.Items++
	}

	if len(sc.Stock) == 0 {
		return nil
	}
	rows := make([]dto.OpeningStockRow, 0, len(sc.Stock))
	for i, st := range sc.Stock {
		row, err := seedStockRow(i+1, st)
		if err != nil {
			return fmt.Errorf("stock %d: %w", i+1, err)
		}
		rows = append(rows, row)
	}
	imported, err := s.app.Stock.ImportOpeningStock(ctx, p, rows)
	if err != nil {
		return fmt.Errorf("stock: %w", err)
	}
	result.Movements += imported.Posted
	return nil
}

func seedItemInput(si dto.SeedItem) (dto.ItemInput, error) {
	in := dto.ItemInput{
		SKU:          si.SKU,
		Name:         si.Name,
		Category:     si.Category,
		BaseUOM:      si.BaseUOM,
		LotSizeRule:  entities.LotSizeRule(si.LotSizeRule),
		LeadTimeDays: si.LeadTimeDays,
	}
	numbers := []struct {
		field string
		raw   string
		dst   *decimal.Decimal
	}{
		{"standard_cost", si.StandardCost, &in.StandardCost},
		{"reorder_level", si.ReorderLevel, &in.ReorderLevel},
		{"min_order_qty", si.MinOrderQty, &in.MinOrderQty},
		{"pack_size", si.PackSize, &in.PackSize},
	}
	for _, n := range numbers {
		d, err := dto.ParseDecimal(n.raw)
		if err != nil {
			return in, fmt.Errorf("%s: %w", n.field, err)
		}
		*n.dst = d
	}
	for _, c := range si.Conversions {
		factor, err := dto.ParseDecimal(c.Factor)
		if err != nil {
			return in, fmt.Errorf("conversion %s: %w", c.UOM, err)
		}
		in.Conversions = append(in.Conversions, entities.UOMConversion{UOM: c.UOM, Factor: factor})
	}
	return in, nil
}

func seedStockRow(n int, st dto.SeedStock) (dto.OpeningStockRow, error) {
	qty, err := dto.ParseDecimal(st.Quantity)
	if err != nil {
		return dto.OpeningStockRow{}, fmt.Errorf("quantity: %w", err)
	}
	row := dto.OpeningStockRow{
		Row:        n,
		BranchCode: st.Branch,
		SKU:        st.SKU,
		UOM:        st.UOM,
		Quantity:   qty,
		LotNumber:  st.LotNumber,
		ReceivedAt: st.ReceivedAt,
	}
	if st.UnitCost != "" {
		cost, err := dto.ParseDecimal(st.UnitCost)
		if err != nil {
			return dto.OpeningStockRow{}, fmt.Errorf("unit_cost: %w", err)
		}
		row.UnitCost = &cost
	}
	return row, nil
}
