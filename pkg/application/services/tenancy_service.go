package services

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/vsinha/brewerp/pkg/application/dto"
	"github.com/vsinha/brewerp/pkg/domain/apperror"
	"github.com/vsinha/brewerp/pkg/domain/entities"
	"github.com/vsinha/brewerp/pkg/domain/repositories"
)

// TenancyService manages the caller's company, its countries and branches
type TenancyService struct {
	base
}

// NewTenancyService creates a new tenancy service
func NewTenancyService(opts Options) *TenancyService {
	return &TenancyService{base: newBase(opts)}
}

func (s *TenancyService) GetCompany(ctx context.Context, p Principal) (*entities.Company, error) {
	if err := p.Require(entities.PermRead); err != nil {
		return nil, err
	}
	return s.store.Companies().GetCompany(ctx, p.CompanyID)
}

// UpdateCompany changes the name and currency. The code is fixed at registration.
func (s *TenancyService) UpdateCompany(ctx context.Context, p Principal, in dto.CompanyInput) (*entities.Company, error) {
	if err := p.Require(entities.PermManageTenant); err != nil {
		return nil, err
	}
	var company *entities.Company
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repositories.Repositories) error {
		var err error
		if company, err = tx.Companies().GetCompany(ctx, p.CompanyID); err != nil {
			return err
		}
		company.Name = strings.TrimSpace(in.Name)
		if c := strings.ToUpper(strings.TrimSpace(in.Currency)); c != "" {
			company.Currency = c
		}
		company.UpdatedAt = s.now()
		if err := company.Validate(); err != nil {
			return err
		}
		return tx.Companies().UpdateCompany(ctx, company)
	})
	if err != nil {
		return nil, err
	}
	return company, nil
}

func (s *TenancyService) ListCountries(ctx context.Context, p Principal) ([]*entities.Country, error) {
	if err := p.Require(entities.PermRead); err != nil {
		return nil, err
	}
	return s.store.Countries().ListCountries(ctx, p.CompanyID)
}

func (s *TenancyService) GetCountry(ctx context.Context, p Principal, id string) (*entities.Country, error) {
	if err := p.Require(entities.PermRead); err != nil {
		return nil, err
	}
	return s.store.Countries().GetCountry(ctx, p.CompanyID, id)
}

func (s *TenancyService) CreateCountry(ctx context.Context, p Principal, in dto.CountryInput) (*entities.Country, error) {
	if err := p.Require(entities.PermManageTenant); err != nil {
		return nil, err
	}
	country, err := entities.NewCountry(p.CompanyID, in.Code, in.Name, in.Currency, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.store.Countries().CreateCountry(ctx, country); err != nil {
		return nil, err
	}
	return country, nil
}

func (s *TenancyService) UpdateCountry(ctx context.Context, p Principal, id string, in dto.CountryInput) (*entities.Country, error) {
	if err := p.Require(entities.PermManageTenant); err != nil {
		return nil, err
	}
	var country *entities.Country
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repositories.Repositories) error {
		var err error
		if country, err = tx.Countries().GetCountry(ctx, p.CompanyID, id); err != nil {
			return err
		}
		country.Code = entities.NormalizeCode(in.Code)
		country.Name = strings.TrimSpace(in.Name)
		country.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))
		country.UpdatedAt = s.now()
		if err := country.Validate(); err != nil {
			return err
		}
		return tx.Countries().UpdateCountry(ctx, country)
	})
	if err != nil {
		return nil, err
	}
	return country, nil
}

// DeleteCountry fails with ErrConflict while branches belong to the country
func (s *TenancyService) DeleteCountry(ctx context.Context, p Principal, id string) error {
	if err := p.Require(entities.PermManageTenant); err != nil {
		return err
	}
	return s.store.WithTx(ctx, func(ctx context.Context, tx repositories.Repositories) error {
		country, err := tx.Countries().GetCountry(ctx, p.CompanyID, id)
		if err != nil {
			return err
		}
		branches, err := tx.Branches().ListBranches(ctx, p.CompanyID)
		if err != nil {
			return err
		}
		n := 0
		for _, b := range branches {
			if b.CountryID == id {
				n++
			}
		}
		if n > 0 {
			return apperror.Conflict("country %s still has %d branches", country.Code, n)
		}
		return tx.Countries().DeleteCountry(ctx, p.CompanyID, id)
	})
}

// ListBranches returns the branches the principal can access
func (s *TenancyService) ListBranches(ctx context.Context, p Principal) ([]*entities.Branch, error) {
	if err := p.Require(entities.PermRead); err != nil {
		return nil, err
	}
	list, err := s.store.Branches().ListBranches(ctx, p.CompanyID)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(list, func(b *entities.Branch) bool {
		return !p.CanAccessBranch(b.ID)
	}), nil
}

func (s *TenancyService) GetBranch(ctx context.Context, p Principal, id string) (*entities.Branch, error) {
	if err := p.Require(entities.PermRead); err != nil {
		return nil, err
	}
	if !p.CanAccessBranch(id) {
		return nil, apperror.NotFound("branch", id)
	}
	return s.store.Branches().GetBranch(ctx, p.CompanyID, id)
}

func (s *TenancyService) CreateBranch(ctx context.Context, p Principal, in dto.BranchInput) (*entities.Branch, error) {
	if err := p.Require(entities.PermManageTenant); err != nil {
		return nil, err
	}
	branch, err := entities.NewBranch(p.CompanyID, in.CountryID, in.Code, in.Name, in.Address, s.now())
	if err != nil {
		return nil, err
	}
	branch.Active = boolOr(in.Active, true)

	err = s.store.WithTx(ctx, func(ctx context.Context, tx repositories.Repositories) error {
		if _, err := tx.Countries().GetCountry(ctx, p.CompanyID, branch.CountryID); err != nil {
			return must(err, "country_id")
		}
		return tx.Branches().CreateBranch(ctx, branch)
	})
	if err != nil {
		return nil, err
	}
	return branch, nil
}

// UpdateBranch edits a branch. Deactivating it blocks new stock movements there.
func (s *TenancyService) UpdateBranch(ctx context.Context, p Principal, id string, in dto.BranchInput) (*entities.Branch, error) {
	if err := p.Require(entities.PermManageTenant); err != nil {
		return nil, err
	}
	var branch *entities.Branch
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repositories.Repositories) error {
		var err error
		if branch, err = tx.Branches().GetBranch(ctx, p.CompanyID, id); err != nil {
			return err
		}
		branch.CountryID = in.CountryID
		branch.Code = entities.NormalizeCode(in.Code)
		branch.Name = strings.TrimSpace(in.Name)
		branch.Address = strings.TrimSpace(in.Address)
		branch.Active = boolOr(in.Active, branch.Active)
		branch.UpdatedAt = s.now()
		if err := branch.Validate(); err != nil {
			return err
		}
		if _, err := tx.Countries().GetCountry(ctx, p.CompanyID, branch.CountryID); err != nil {
			return must(err, "country_id")
		}
		return tx.Branches().UpdateBranch(ctx, branch)
	})
	if err != nil {
		return nil, err
	}
	return branch, nil
}

// DeleteBranch removes a branch with no history. A branch that holds stock,
// has documents or is assigned to users can only be deactivated.
func (s *TenancyService) DeleteBranch(ctx context.Context, p Principal, id string) error {
	if err := p.Require(entities.PermManageTenant); err != nil {
		return err
	}
	return s.store.WithTx(ctx, func(ctx context.Context, tx repositories.Repositories) error {
		branch, err := tx.Branches().GetBranch(ctx, p.CompanyID, id)
		if err != nil {
			return err
		}
		users, err := allPages(func(opts repositories.ListOptions) ([]*entities.User, error) {
			return tx.Users().ListUsers(ctx, p.CompanyID, opts)
		})
		if err != nil {
			return err
		}
		for _, u := range users {
			if slices.Contains(u.BranchIDs, id) {
				return apperror.Conflict("branch %s is assigned to user %s", branch.Code, u.Email)
			}
		}
		err = tx.Branches().DeleteBranch(ctx, p.CompanyID, id)
		if errors.Is(err, apperror.ErrConflict) {
			return apperror.Conflict("branch %s has stock or documents; deactivate it instead", branch.Code)
		}
		return err
	})
}
