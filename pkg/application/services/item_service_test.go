package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/brewerp/pkg/application/dto"
	svctest "github.com/vsinha/brewerp/pkg/application/services/testing"
	"github.com/vsinha/brewerp/pkg/domain/apperror"
	"github.com/vsinha/brewerp/pkg/domain/entities"
	"github.com/vsinha/brewerp/pkg/domain/repositories"
	"github.com/vsinha/brewerp/pkg/infrastructure/events"
	scenario "github.com/vsinha/brewerp/pkg/infrastructure/testing"
)

func yeast() dto.ItemInput {
	return dto.ItemInput{
		SKU:          "yeast-w34",
		Name:         "Lager yeast",
		Category:     entities.RawMaterial,
		BaseUOM:      "g",
		Conversions:  []entities.UOMConversion{{UOM: "pack", Factor: dec("500")}},
		StandardCost: dec("0.2"),
		ReorderLevel: dec("1000"),
		LotSizeRule:  entities.LotForLot,
	}
}

// itemInput mirrors an existing item so tests can change one field
func itemInput(item *entities.Item) dto.ItemInput {
	return dto.ItemInput{
		SKU:          item.SKU,
		Name:         item.Name,
		Category:     item.Category,
		BaseUOM:      item.BaseUOM,
		Conversions:  item.Conversions,
		StandardCost: item.StandardCost,
		ReorderLevel: item.ReorderLevel,
		LotSizeRule:  item.LotSizeRule,
		MinOrderQty:  item.MinOrderQty,
		PackSize:     item.PackSize,
		LeadTimeDays: item.LeadTimeDays,
	}
}

func TestListItems(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	viewer := h.As(scenario.ViewerEmail)

	all, err := h.Items.ListItems(ctx, viewer, repositories.ItemFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, scenario.SKUBeer, all[0].SKU, "ordered by sku")

	packaging, err := h.Items.ListItems(ctx, viewer, repositories.ItemFilter{Category: entities.Packaging})
	require.NoError(t, err)
	require.Len(t, packaging, 1)
	assert.Equal(t, scenario.SKUBottle, packaging[0].SKU)

	hops, err := h.Items.ListItems(ctx, viewer, repositories.ItemFilter{Search: " cascade "})
	require.NoError(t, err)
	require.Len(t, hops, 1)
	assert.Equal(t, scenario.SKUHops, hops[0].SKU)

	_, err = h.Items.ListItems(ctx, viewer, repositories.ItemFilter{Category: "liquid"})
	requireField(t, err, "category")
}

func TestCreateItem(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.Items.CreateItem(ctx, h.As(scenario.StaffEmail), yeast())
	require.ErrorIs(t, err, apperror.ErrForbidden)

	bad := yeast()
	bad.Category = "liquid"
	bad.LotSizeRule = entities.StandardPack
	bad.Conversions = []entities.UOMConversion{{UOM: "PACK", Factor: dec("0")}}
	_, err = h.Items.CreateItem(ctx, h.Admin(), bad)
	for _, field := range []string{"category", "pack_size", "conversions"} {
		requireField(t, err, field)
	}

	item, err := h.Items.CreateItem(ctx, h.As(scenario.ManagerEmail), yeast())
	require.NoError(t, err)
	assert.Equal(t, "YEAST-W34", item.SKU)
	assert.Equal(t, "G", item.BaseUOM)
	assert.True(t, item.Active)

	dup := yeast()
	dup.Name = "Another yeast"
	_, err = h.Items.CreateItem(ctx, h.Admin(), dup)
	require.ErrorIs(t, err, apperror.ErrConflict, "sku is unique per company")

	h.Bus.Flush()
	evts, err := h.Bus.ReadAllEvents(0)
	require.NoError(t, err)
	last := evts[len(evts)-1]
	assert.Equal(t, events.ItemCreatedEvent, last.Type())
}

func TestUpdateItem_AuditTrail(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	malt := h.ItemsBySKU[scenario.SKUMalt]

	in := itemInput(malt)
	unchanged, err := h.Items.UpdateItem(ctx, h.Admin(), malt.ID, in)
	require.NoError(t, err)
	assert.Equal(t, malt.UpdatedAt, unchanged.UpdatedAt, "a no-op update writes nothing")

	in.ReorderLevel = dec("150")
	in.Name = "Pilsner malt (organic)"
	updated, err := h.Items.UpdateItem(ctx, h.As(scenario.ManagerEmail), malt.ID, in)
	require.NoError(t, err)
	requireDecimal(t, "150", updated.ReorderLevel)

	trail, err := h.Items.Audit(ctx, h.Admin(), malt.ID)
	require.NoError(t, err)
	require.Len(t, trail, 2)
	assert.Equal(t, entities.AuditCreate, trail[0].Action)
	assert.Equal(t, entities.AuditUpdate, trail[1].Action)
	assert.Equal(t, h.UsersByEmail[scenario.ManagerEmail].ID, trail[1].ActorID)
	assert.Contains(t, trail[1].Diff, "organic")
}

func TestUpdateItem_BaseUOMFrozenAfterMovement(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	in := itemInput(h.ItemsBySKU[scenario.SKUMalt])
	in.BaseUOM = "LB"
	_, err := h.Items.UpdateItem(ctx, h.Admin(), h.Item(scenario.SKUMalt), in)
	require.ErrorIs(t, err, apperror.ErrConflict)

	in = itemInput(h.ItemsBySKU[scenario.SKUBeer])
	in.BaseUOM = "CASE"
	beer, err := h.Items.UpdateItem(ctx, h.Admin(), h.Item(scenario.SKUBeer), in)
	require.NoError(t, err, "never moved")
	assert.Equal(t, "CASE", beer.BaseUOM)
}

func TestDeleteItem(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	admin := h.Admin()

	err := h.Items.DeleteItem(ctx, admin, h.Item(scenario.SKUMalt), true)
	require.ErrorIs(t, err, apperror.ErrConflict, "stock history")

	_, err = h.Purchasing.CreatePurchaseOrder(ctx, admin, dto.PurchaseOrderInput{
		BranchID:   h.Branch(scenario.BranchBerlin),
		SupplierID: h.Supplier("MALTCO"),
		Lines:      []dto.POLineInput{{ItemID: h.Item(scenario.SKUBeer), Quantity: dec("24"), UnitPrice: dec("0.5")}},
	})
	require.NoError(t, err)
	err = h.Items.DeleteItem(ctx, admin, h.Item(scenario.SKUBeer), true)
	require.ErrorIs(t, err, apperror.ErrConflict, "on a purchase order")
	assert.Contains(t, err.Error(), "PO-000001")

	require.NoError(t, h.Items.DeleteItem(ctx, admin, h.Item(scenario.SKUMalt), false))
	malt, err := h.Items.GetItem(ctx, admin, h.Item(scenario.SKUMalt))
	require.NoError(t, err)
	assert.False(t, malt.Active)
	require.NoError(t, h.Items.DeleteItem(ctx, admin, malt.ID, false), "deactivating twice is harmless")

	active, err := h.Items.ListItems(ctx, admin, repositories.ItemFilter{ActiveOnly: true})
	require.NoError(t, err)
	assert.Len(t, active, 3)

	item, err := h.Items.CreateItem(ctx, admin, yeast())
	require.NoError(t, err)
	require.NoError(t, h.Items.DeleteItem(ctx, admin, item.ID, true))
	_, err = h.Items.GetItem(ctx, admin, item.ID)
	require.ErrorIs(t, err, apperror.ErrNotFound)

	trail, err := h.Items.Audit(ctx, admin, item.ID)
	require.NoError(t, err)
	require.Len(t, trail, 2, "the audit trail outlives the item")
	assert.Equal(t, entities.AuditDelete, trail[1].Action)
}

func TestConvertQuantity(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	viewer := h.As(scenario.ViewerEmail)

	c, err := h.Items.ConvertQuantity(ctx, viewer, h.Item(scenario.SKUMalt), dec("3"), "sack", "")
	require.NoError(t, err)
	assert.Equal(t, "SACK", c.FromUOM)
	assert.Equal(t, "KG", c.ToUOM)
	requireDecimal(t, "75", c.Result)

	c, err = h.Items.ConvertQuantity(ctx, viewer, h.Item(scenario.SKUBottle), dec("36"), "EA", "CASE")
	require.NoError(t, err)
	requireDecimal(t, "1.5", c.Result)

	_, err = h.Items.ConvertQuantity(ctx, viewer, h.Item(scenario.SKUHops), dec("1"), "SACK", "KG")
	requireField(t, err, "uom")
}

func TestImportItems(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	hops := itemInput(h.ItemsBySKU[scenario.SKUHops])
	hops.Conversions = nil
	hops.StandardCost = dec("19.5")

	res, err := h.Items.ImportItems(ctx, h.Admin(), []dto.ItemRow{
		{Row: 2, Input: yeast()},
		{Row: 3, Input: hops},
		{Row: 4, Input: itemInput(h.ItemsBySKU[scenario.SKUMalt])},
	})
	require.NoError(t, err)
	assert.Equal(t, dto.ImportResult{Created: 1, Updated: 1}, *res)

	got, err := h.Items.GetItem(ctx, h.Admin(), h.Item(scenario.SKUHops))
	require.NoError(t, err)
	requireDecimal(t, "19.5", got.StandardCost)
}

func TestImportItems_RollsBackOnBadRow(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	bad := yeast()
	bad.SKU = "bad sku!"
	_, err := h.Items.ImportItems(ctx, h.Admin(), []dto.ItemRow{
		{Row: 2, Input: yeast()},
		{Row: 3, Input: bad},
	})
	requireField(t, err, "sku")
	assert.Contains(t, err.Error(), "row 3")

	assertNoItem(t, h, "YEAST-W34")
}

func assertNoItem(t *testing.T, h *svctest.Harness, sku string) {
	t.Helper()
	_, err := h.Store.Items().GetItemBySKU(context.Background(), h.Company.ID, sku)
	require.ErrorIs(t, err, apperror.ErrNotFound)
}
