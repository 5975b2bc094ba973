package services

import (
	"context"
	"errors"

	"github.com/vsinha/brewerp/pkg/application/dto"
	"github.com/vsinha/brewerp/pkg/domain/apperror"
	"github.com/vsinha/brewerp/pkg/domain/entities"
	"github.com/vsinha/brewerp/pkg/domain/repositories"
)

// SupplierService manages suppliers
type SupplierService struct {
	base
}

// NewSupplierService creates a new supplier service
func NewSupplierService(opts Options) *SupplierService {
	return &SupplierService{base: newBase(opts)}
}

func applySupplierInput(sp *entities.Supplier, in dto.SupplierInput) {
	sp.Code = in.Code
	sp.Name = in.Name
	sp.Email = in.Email
	sp.Phone = in.Phone
	sp.LeadTimeDays = in.LeadTimeDays
	sp.Active = boolOr(in.Active, sp.Active)
	sp.Normalize()
}

func (s *SupplierService) ListSuppliers(ctx context.Context, p Principal, opts repositories.ListOptions) ([]*entities.Supplier, error) {
	if err := p.Require(entities.PermRead); err != nil {
		return nil, err
	}
	return s.store.Suppliers().ListSuppliers(ctx, p.CompanyID, opts)
}

func (s *SupplierService) GetSupplier(ctx context.Context, p Principal, id string) (*entities.Supplier, error) {
	if err := p.Require(entities.PermRead); err != nil {
		return nil, err
	}
	return s.store.Suppliers().GetSupplier(ctx, p.CompanyID, id)
}

func (s *SupplierService) CreateSupplier(ctx context.Context, p Principal, in dto.SupplierInput) (*entities.Supplier, error) {
	if err := p.Require(entities.PermManageMaster); err != nil {
		return nil, err
	}
	now := s.now()
	sp := &entities.Supplier{
		ID:        entities.NewID(),
		CompanyID: p.CompanyID,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applySupplierInput(sp, in)
	if err := sp.Validate(); err != nil {
		return nil, err
	}

	err := s.store.WithTx(ctx, func(ctx context.Context, tx repositories.Repositories) error {
		if err := tx.Suppliers().CreateSupplier(ctx, sp); err != nil {
			return err
		}
		return audit(ctx, tx, p, CollectionSuppliers, sp.ID, entities.AuditCreate, nil, sp, now)
	})
	if err != nil {
		return nil, err
	}
	return sp, nil
}

func (s *SupplierService) UpdateSupplier(ctx context.Context, p Principal, id string, in dto.SupplierInput) (*entities.Supplier, error) {
	if err := p.Require(entities.PermManageMaster); err != nil {
		return nil, err
	}
	var sp *entities.Supplier
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repositories.Repositories) error {
		var err error
		if sp, err = tx.Suppliers().GetSupplier(ctx, p.CompanyID, id); err != nil {
			return err
		}
		before := *sp
		applySupplierInput(sp, in)
		if err := sp.Validate(); err != nil {
			return err
		}
		now := s.now()
		sp.UpdatedAt = now
		if err := tx.Suppliers().UpdateSupplier(ctx, sp); err != nil {
			return err
		}
		return audit(ctx, tx, p, CollectionSuppliers, sp.ID, entities.AuditUpdate, &before, sp, now)
	})
	if err != nil {
		return nil, err
	}
	return sp, nil
}

// DeleteSupplier fails with ErrConflict once purchase orders reference the supplier
func (s *SupplierService) DeleteSupplier(ctx context.Context, p Principal, id string) error {
	if err := p.Require(entities.PermManageMaster); err != nil {
		return err
	}
	return s.store.WithTx(ctx, func(ctx context.Context, tx repositories.Repositories) error {
		sp, err := tx.Suppliers().GetSupplier(ctx, p.CompanyID, id)
		if err != nil {
			return err
		}
		err = tx.Suppliers().DeleteSupplier(ctx, p.CompanyID, id)
		if errors.Is(err, apperror.ErrConflict) {
			return apperror.Conflict("supplier %s has purchase orders; deactivate it instead", sp.Code)
		}
		if err != nil {
			return err
		}
		return audit(ctx, tx, p, CollectionSuppliers, id, entities.AuditDelete, sp, nil, s.now())
	})
}

// Audit returns the change history of a supplier, oldest first
func (s *SupplierService) Audit(ctx context.Context, p Principal, id string) ([]*entities.AuditEntry, error) {
	if err := p.Require(entities.PermRead); err != nil {
		return nil, err
	}
	return s.store.Audit().ListAudit(ctx, p.CompanyID, CollectionSuppliers, id)
}
