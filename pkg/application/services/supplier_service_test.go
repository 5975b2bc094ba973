package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/brewerp/pkg/application/dto"
	"github.com/vsinha/brewerp/pkg/domain/apperror"
	"github.com/vsinha/brewerp/pkg/domain/entities"
	"github.com/vsinha/brewerp/pkg/domain/repositories"
	scenario "github.com/vsinha/brewerp/pkg/infrastructure/testing"
)

func TestSuppliers(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	admin := h.Admin()

	list, err := h.Suppliers.ListSuppliers(ctx, h.As(scenario.ViewerEmail), repositories.ListOptions{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "HOPSUP", list[0].Code)

	_, err = h.Suppliers.CreateSupplier(ctx, h.As(scenario.StaffEmail), dto.SupplierInput{Code: "GLASS", Name: "Glassworks"})
	require.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = h.Suppliers.CreateSupplier(ctx, admin, dto.SupplierInput{Code: "glass", Email: "sales", LeadTimeDays: -1})
	for _, field := range []string{"name", "email", "lead_time_days"} {
		requireField(t, err, field)
	}

	_, err = h.Suppliers.CreateSupplier(ctx, admin, dto.SupplierInput{Code: "maltco", Name: "Copycat"})
	require.ErrorIs(t, err, apperror.ErrConflict)

	glass, err := h.Suppliers.CreateSupplier(ctx, admin, dto.SupplierInput{Code: "glass", Name: "Glassworks", LeadTimeDays: 10})
	require.NoError(t, err)
	assert.Equal(t, "GLASS", glass.Code)
	assert.True(t, glass.Active)

	glass, err = h.Suppliers.UpdateSupplier(ctx, admin, glass.ID, dto.SupplierInput{
		Code:         "GLASS",
		Name:         "Glassworks Ltd",
		LeadTimeDays: 12,
		Active:       boolPtr(false),
	})
	require.NoError(t, err)
	assert.False(t, glass.Active)
	assert.Equal(t, 12, glass.LeadTimeDays)

	trail, err := h.Suppliers.Audit(ctx, admin, glass.ID)
	require.NoError(t, err)
	require.Len(t, trail, 2)
	assert.Equal(t, entities.AuditUpdate, trail[1].Action)
	assert.Contains(t, trail[1].Diff, "Glassworks Ltd")

	require.NoError(t, h.Suppliers.DeleteSupplier(ctx, admin, glass.ID))
	_, err = h.Suppliers.GetSupplier(ctx, admin, glass.ID)
	require.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestDeleteSupplier_WithPurchaseOrders(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.Purchasing.CreatePurchaseOrder(ctx, h.Admin(), maltOrder(h, scenario.BranchBerlin))
	require.NoError(t, err)

	err = h.Suppliers.DeleteSupplier(ctx, h.Admin(), h.Supplier("MALTCO"))
	require.ErrorIs(t, err, apperror.ErrConflict)
	assert.Contains(t, err.Error(), "deactivate")
}
