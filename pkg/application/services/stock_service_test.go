package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/brewerp/pkg/application/dto"
	svctest "github.com/vsinha/brewerp/pkg/application/services/testing"
	"github.com/vsinha/brewerp/pkg/domain/apperror"
	"github.com/vsinha/brewerp/pkg/domain/entities"
	"github.com/vsinha/brewerp/pkg/domain/repositories"
	scenario "github.com/vsinha/brewerp/pkg/infrastructure/testing"
)

func balanceOf(t *testing.T, h *svctest.Harness, branch, sku string) *entities.StockBalance {
	t.Helper()
	list, err := h.Stock.ListBalances(context.Background(), h.Admin(), repositories.BalanceFilter{
		BranchID: h.Branch(branch),
		ItemID:   h.Item(sku),
	})
	require.NoError(t, err)
	require.Len(t, list, 1)
	return list[0]
}

func openLots(t *testing.T, h *svctest.Harness, branch, sku string) map[string]*entities.StockLot {
	t.Helper()
	list, err := h.Stock.ListLots(context.Background(), h.Admin(), repositories.LotFilter{
		BranchID: h.Branch(branch),
		ItemID:   h.Item(sku),
		OpenOnly: true,
	})
	require.NoError(t, err)
	out := make(map[string]*entities.StockLot, len(list))
	for _, lot := range list {
		out[lot.LotNumber] = lot
	}
	return out
}

func receiveMalt(t *testing.T, h *svctest.Harness, qty, cost, lot string) *dto.MovementResult {
	t.Helper()
	res, err := h.Stock.RecordMovement(context.Background(), h.Admin(), dto.MovementInput{
		BranchID:  h.Branch(scenario.BranchBerlin),
		ItemID:    h.Item(scenario.SKUMalt),
		Type:      entities.MovementReceipt,
		Quantity:  dec(qty),
		UnitCost:  decPtr(cost),
		LotNumber: lot,
	})
	require.NoError(t, err)
	return res
}

func TestRecordMovement_IssueDrawsOldestLotsFirst(t *testing.T) {
	h := newHarness(t)
	receiveMalt(t, h, "100", "1.00", "M-100")

	res, err := h.Stock.RecordMovement(context.Background(), h.Admin(), dto.MovementInput{
		BranchID:  h.Branch(scenario.BranchBerlin),
		ItemID:    h.Item(scenario.SKUMalt),
		Type:      entities.MovementIssue,
		Quantity:  dec("550"),
		Reference: "BREW-1",
	})
	require.NoError(t, err)

	m := res.Movement
	assert.Equal(t, "KG", m.UOM)
	requireDecimal(t, "550", m.BaseQuantity)
	requireDecimal(t, "450", m.TotalCost, "500 kg at 0.80 then 50 kg at 1.00")
	requireDecimal(t, "0.818182", m.UnitCost)

	requireDecimal(t, "50", res.Balance.Quantity)
	requireDecimal(t, "50", res.Balance.Value)

	lots := openLots(t, h, scenario.BranchBerlin, scenario.SKUMalt)
	require.Len(t, lots, 1)
	require.Contains(t, lots, "M-100")
	requireDecimal(t, "50", lots["M-100"].RemainingQty)
}

func TestRecordMovement_ReceiptInAlternateUOM(t *testing.T) {
	h := newHarness(t)

	res, err := h.Stock.RecordMovement(context.Background(), h.Admin(), dto.MovementInput{
		BranchID: h.Branch(scenario.BranchBerlin),
		ItemID:   h.Item(scenario.SKUMalt),
		Type:     entities.MovementReceipt,
		Quantity: dec("2"),
		UOM:      "sack",
		UnitCost: decPtr("21"),
	})
	require.NoError(t, err)

	assert.Equal(t, "SACK", res.Movement.UOM)
	requireDecimal(t, "2", res.Movement.Quantity)
	requireDecimal(t, "50", res.Movement.BaseQuantity)
	requireDecimal(t, "0.84", res.Movement.UnitCost)
	requireDecimal(t, "42", res.Movement.TotalCost)
	requireDecimal(t, "550", res.Balance.Quantity)
	requireDecimal(t, "442", res.Balance.Value)
}

func TestRecordMovement_InsufficientStockChangesNothing(t *testing.T) {
	h := newHarness(t)

	_, err := h.Stock.RecordMovement(context.Background(), h.Admin(), dto.MovementInput{
		BranchID: h.Branch(scenario.BranchBerlin),
		ItemID:   h.Item(scenario.SKUMalt),
		Type:     entities.MovementIssue,
		Quantity: dec("501"),
	})
	require.ErrorIs(t, err, apperror.ErrInsufficientStock)

	bal := balanceOf(t, h, scenario.BranchBerlin, scenario.SKUMalt)
	requireDecimal(t, "500", bal.Quantity)
	requireDecimal(t, "400", bal.Value)
	requireDecimal(t, "500", openLots(t, h, scenario.BranchBerlin, scenario.SKUMalt)["M-001"].RemainingQty)
}

func TestRecordMovement_Validation(t *testing.T) {
	h := newHarness(t)
	base := dto.MovementInput{
		BranchID: h.Branch(scenario.BranchBerlin),
		ItemID:   h.Item(scenario.SKUMalt),
		Quantity: dec("1"),
	}

	tests := []struct {
		name  string
		edit  func(in *dto.MovementInput)
		field string
	}{
		{"adjustment needs a reason", func(in *dto.MovementInput) { in.Type = entities.MovementAdjustmentOut }, "reason"},
		{"transfers have their own operation", func(in *dto.MovementInput) { in.Type = entities.MovementTransferIn }, "type"},
		{"unknown type", func(in *dto.MovementInput) { in.Type = "spill" }, "type"},
		{"zero quantity", func(in *dto.MovementInput) { in.Type = entities.MovementIssue; in.Quantity = dec("0") }, "quantity"},
		{"unknown item", func(in *dto.MovementInput) { in.Type = entities.MovementReceipt; in.ItemID = "nope" }, "item_id"},
		{"unknown uom", func(in *dto.MovementInput) { in.Type = entities.MovementReceipt; in.UOM = "BARREL" }, "uom"},
		{"negative cost", func(in *dto.MovementInput) { in.Type = entities.MovementReceipt; in.UnitCost = decPtr("-1") }, "unit_cost"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base
			tt.edit(&in)
			_, err := h.Stock.RecordMovement(context.Background(), h.Admin(), in)
			requireField(t, err, tt.field)
		})
	}
}

func TestRecordMovement_AdjustmentWithReason(t *testing.T) {
	h := newHarness(t)

	res, err := h.Stock.RecordMovement(context.Background(), h.Admin(), dto.MovementInput{
		BranchID: h.Branch(scenario.BranchBerlin),
		ItemID:   h.Item(scenario.SKUHops),
		Type:     entities.MovementAdjustmentOut,
		Quantity: dec("2"),
		Reason:   "  damaged bale ",
	})
	require.NoError(t, err)
	assert.Equal(t, "damaged bale", res.Movement.Reason)
	requireDecimal(t, "35", res.Movement.TotalCost)
	requireDecimal(t, "18", res.Balance.Quantity)
}

func TestRecordMovement_BranchAccess(t *testing.T) {
	h := newHarness(t)
	staff := h.As(scenario.StaffEmail)

	_, err := h.Stock.RecordMovement(context.Background(), staff, dto.MovementInput{
		BranchID: h.Branch(scenario.BranchHamburg),
		ItemID:   h.Item(scenario.SKUMalt),
		Type:     entities.MovementIssue,
		Quantity: dec("1"),
	})
	require.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = h.Stock.RecordMovement(context.Background(), h.As(scenario.ViewerEmail), dto.MovementInput{
		BranchID: h.Branch(scenario.BranchBerlin),
		ItemID:   h.Item(scenario.SKUMalt),
		Type:     entities.MovementIssue,
		Quantity: dec("1"),
	})
	require.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = h.Stock.RecordMovement(context.Background(), staff, dto.MovementInput{
		BranchID: h.Branch(scenario.BranchBerlin),
		ItemID:   h.Item(scenario.SKUMalt),
		Type:     entities.MovementIssue,
		Quantity: dec("1"),
	})
	require.NoError(t, err)

	balances, err := h.Stock.ListBalances(context.Background(), staff, repositories.BalanceFilter{})
	require.NoError(t, err)
	for _, b := range balances {
		assert.Equal(t, h.Branch(scenario.BranchBerlin), b.BranchID)
	}
}

func TestRecordMovement_InactiveItem(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.Items.DeleteItem(ctx, h.Admin(), h.Item(scenario.SKUHops), false))

	_, err := h.Stock.RecordMovement(ctx, h.Admin(), dto.MovementInput{
		BranchID: h.Branch(scenario.BranchBerlin),
		ItemID:   h.Item(scenario.SKUHops),
		Type:     entities.MovementIssue,
		Quantity: dec("1"),
	})
	require.ErrorIs(t, err, apperror.ErrInvalidState)
}

func TestTransfer_CarriesCostLayers(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	receiveMalt(t, h, "100", "1.00", "M-100")

	res, err := h.Stock.Transfer(ctx, h.Admin(), dto.TransferInput{
		FromBranchID: h.Branch(scenario.BranchBerlin),
		ToBranchID:   h.Branch(scenario.BranchHamburg),
		Lines:        []dto.TransferLineInput{{ItemID: h.Item(scenario.SKUMalt), Quantity: dec("520")}},
		Notes:        "weekend festival",
	})
	require.NoError(t, err)

	assert.Equal(t, "TR-000001", res.Transfer.Number)
	assert.Equal(t, "KG", res.Transfer.Lines[0].UOM)
	require.Len(t, res.Movements, 2)
	out, in := res.Movements[0], res.Movements[1]
	assert.Equal(t, entities.MovementTransferOut, out.Type)
	assert.Equal(t, entities.MovementTransferIn, in.Type)
	assert.Equal(t, "TR-000001", out.Reference)
	requireDecimal(t, "420", out.TotalCost)
	requireDecimal(t, "420", in.TotalCost)

	from := balanceOf(t, h, scenario.BranchBerlin, scenario.SKUMalt)
	requireDecimal(t, "80", from.Quantity)
	requireDecimal(t, "80", from.Value)

	to := balanceOf(t, h, scenario.BranchHamburg, scenario.SKUMalt)
	requireDecimal(t, "560", to.Quantity)
	requireDecimal(t, "456", to.Value)

	lots := openLots(t, h, scenario.BranchHamburg, scenario.SKUMalt)
	require.Len(t, lots, 3)
	requireDecimal(t, "500", lots["M-001"].RemainingQty)
	requireDecimal(t, "0.8", lots["M-001"].UnitCost)
	assert.True(t, lots["M-001"].ReceivedAt.Equal(scenario.OpeningDate))
	requireDecimal(t, "20", lots["M-100"].RemainingQty)
	requireDecimal(t, "1", lots["M-100"].UnitCost)

	got, err := h.Stock.GetTransfer(ctx, h.Admin(), res.Transfer.ID)
	require.NoError(t, err)
	assert.Equal(t, "weekend festival", got.Notes)
}

func TestTransfer_Validation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ber := h.Branch(scenario.BranchBerlin)

	_, err := h.Stock.Transfer(ctx, h.Admin(), dto.TransferInput{
		FromBranchID: ber,
		ToBranchID:   ber,
		Lines:        []dto.TransferLineInput{{ItemID: h.Item(scenario.SKUMalt), Quantity: dec("1")}},
	})
	requireField(t, err, "to_branch_id")

	_, err = h.Stock.Transfer(ctx, h.Admin(), dto.TransferInput{
		FromBranchID: ber,
		ToBranchID:   h.Branch(scenario.BranchHamburg),
		Lines:        []dto.TransferLineInput{{ItemID: "missing", Quantity: dec("1")}},
	})
	requireField(t, err, "lines[0].item_id")

	_, err = h.Stock.Transfer(ctx, h.Admin(), dto.TransferInput{
		FromBranchID: h.Branch(scenario.BranchHamburg),
		ToBranchID:   ber,
		Lines:        []dto.TransferLineInput{{ItemID: h.Item(scenario.SKUHops), Quantity: dec("1")}},
	})
	require.ErrorIs(t, err, apperror.ErrInsufficientStock)

	// A failed transfer does not consume a number.
	res, err := h.Stock.Transfer(ctx, h.Admin(), dto.TransferInput{
		FromBranchID: ber,
		ToBranchID:   h.Branch(scenario.BranchHamburg),
		Lines:        []dto.TransferLineInput{{ItemID: h.Item(scenario.SKUHops), Quantity: dec("1")}},
	})
	require.NoError(t, err)
	assert.Equal(t, "TR-000001", res.Transfer.Number)
}

func TestStockCard_RunningBalance(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.Clock.Advance(time.Hour)
	receiveMalt(t, h, "100", "1.00", "M-100")
	h.Clock.Advance(time.Hour)
	_, err := h.Stock.RecordMovement(ctx, h.Admin(), dto.MovementInput{
		BranchID: h.Branch(scenario.BranchBerlin),
		ItemID:   h.Item(scenario.SKUMalt),
		Type:     entities.MovementIssue,
		Quantity: dec("600"),
	})
	require.NoError(t, err)

	card, err := h.Stock.StockCard(ctx, h.Admin(), h.Item(scenario.SKUMalt), h.Branch(scenario.BranchBerlin))
	require.NoError(t, err)
	require.Len(t, card.Entries, 3)
	requireDecimal(t, "500", card.Entries[0].RunningQty)
	requireDecimal(t, "600", card.Entries[1].RunningQty)
	requireDecimal(t, "500", card.Entries[1].RunningValue)
	requireDecimal(t, "0", card.Entries[2].RunningQty)
	requireDecimal(t, "0", card.Value)

	all, err := h.Stock.StockCard(ctx, h.Admin(), h.Item(scenario.SKUMalt), "")
	require.NoError(t, err)
	assert.Len(t, all.Entries, 4)
	requireDecimal(t, "40", all.Quantity)
}

func TestListMovements_RejectsInvertedPeriod(t *testing.T) {
	h := newHarness(t)
	from, to := svctest.Start, svctest.Start.Add(-time.Hour)

	_, err := h.Stock.ListMovements(context.Background(), h.Admin(), repositories.MovementFilter{From: &from, To: &to})
	requireField(t, err, "to")
}

func TestImportOpeningStock_RollsBackOnBadRow(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.Stock.ImportOpeningStock(ctx, h.Admin(), []dto.OpeningStockRow{
		{Row: 2, BranchCode: scenario.BranchHamburg, SKU: scenario.SKUHops, Quantity: dec("5")},
		{Row: 3, BranchCode: "NOWHERE", SKU: scenario.SKUHops, Quantity: dec("5")},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 3")
	requireField(t, err, "branch_code")

	list, err := h.Stock.ListBalances(ctx, h.Admin(), repositories.BalanceFilter{
		BranchID: h.Branch(scenario.BranchHamburg),
		ItemID:   h.Item(scenario.SKUHops),
	})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestListMovements_BranchScopeAppliesBeforePaging(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := h.Stock.RecordMovement(ctx, h.Admin(), dto.MovementInput{
			BranchID: h.Branch(scenario.BranchHamburg),
			ItemID:   h.Item(scenario.SKUMalt),
			Type:     entities.MovementIssue,
			Quantity: dec("5"),
		})
		require.NoError(t, err)
	}

	staff := h.As(scenario.StaffEmail)
	var seen []*entities.StockMovement
	for offset := 0; ; offset += 2 {
		page, err := h.Stock.ListMovements(ctx, staff, repositories.MovementFilter{
			ListOptions: repositories.ListOptions{Limit: 2, Offset: offset},
		})
		require.NoError(t, err)
		if len(page) == 0 {
			break
		}
		seen = append(seen, page...)
	}
	require.Len(t, seen, 3, "the Berlin opening stock")
	for _, m := range seen {
		assert.Equal(t, h.Branch(scenario.BranchBerlin), m.BranchID)
	}
}

// requireLedgerConsistent checks that the balance of an item at a branch
// agrees with its FIFO lots and with the signed sum of its movements
func requireLedgerConsistent(t *testing.T, h *svctest.Harness, branch, sku string) {
	t.Helper()
	ctx := context.Background()
	bal := balanceOf(t, h, branch, sku)

	lots, err := h.Store.Stock().ListLots(ctx, h.Company.ID, repositories.LotFilter{
		BranchID: h.Branch(branch),
		ItemID:   h.Item(sku),
	})
	require.NoError(t, err)
	lotQty, lotValue := dec("0"), dec("0")
	for _, lot := range lots {
		require.False(t, lot.RemainingQty.IsNegative(), "lot %s", lot.LotNumber)
		lotQty = lotQty.Add(lot.RemainingQty)
		lotValue = lotValue.Add(lot.RemainingQty.Mul(lot.UnitCost))
	}

	moves, err := h.Store.Stock().ListMovements(ctx, h.Company.ID, repositories.MovementFilter{
		BranchID:  h.Branch(branch),
		ItemID:    h.Item(sku),
		Unbounded: true,
	})
	require.NoError(t, err)
	moveQty, moveValue := dec("0"), dec("0")
	for _, m := range moves {
		sign := dec("1")
		if m.Type.Direction() < 0 {
			sign = dec("-1")
		}
		moveQty = moveQty.Add(m.BaseQuantity.Mul(sign))
		moveValue = moveValue.Add(m.TotalCost.Mul(sign))
	}

	require.False(t, bal.Quantity.IsNegative())
	requireDecimal(t, bal.Quantity.String(), lotQty, "lots at %s", branch)
	requireDecimal(t, bal.Quantity.String(), moveQty, "movements at %s", branch)
	requireDecimal(t, bal.Value.String(), lotValue, "lot value at %s", branch)
	requireDecimal(t, bal.Value.String(), moveValue, "movement value at %s", branch)
}

func TestStockLedger_StaysConsistent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	admin := h.Admin()
	ber, ham := h.Branch(scenario.BranchBerlin), h.Branch(scenario.BranchHamburg)
	malt := h.Item(scenario.SKUMalt)

	move := func(branch string, typ entities.MovementType, sacks, cost, reason string) func() error {
		return func() error {
			in := dto.MovementInput{BranchID: branch, ItemID: malt, Type: typ, Quantity: dec(sacks), UOM: "SACK", Reason: reason}
			if cost != "" {
				in.UnitCost = decPtr(cost)
			}
			_, err := h.Stock.RecordMovement(ctx, admin, in)
			return err
		}
	}
	transfer := func(from, to, sacks string) func() error {
		return func() error {
			_, err := h.Stock.Transfer(ctx, admin, dto.TransferInput{
				FromBranchID: from,
				ToBranchID:   to,
				Lines:        []dto.TransferLineInput{{ItemID: malt, UOM: "SACK", Quantity: dec(sacks)}},
			})
			return err
		}
	}

	steps := []struct {
		name string
		run  func() error
	}{
		{"receive in Berlin", move(ber, entities.MovementReceipt, "3", "21", "")},
		{"brew in Berlin", move(ber, entities.MovementIssue, "12", "", "")},
		{"ship to Hamburg", transfer(ber, ham, "9")},
		{"brew in Hamburg", move(ham, entities.MovementIssue, "5", "", "")},
		{"spill in Hamburg", move(ham, entities.MovementAdjustmentOut, "1", "", "torn sack")},
		{"receive in Hamburg", move(ham, entities.MovementReceipt, "2", "22.5", "")},
		{"ship back to Berlin", transfer(ham, ber, "4")},
	}
	for _, step := range steps {
		require.NoError(t, step.run(), step.name)
		requireLedgerConsistent(t, h, scenario.BranchBerlin, scenario.SKUMalt)
		requireLedgerConsistent(t, h, scenario.BranchHamburg, scenario.SKUMalt)
	}

	requireDecimal(t, "150", balanceOf(t, h, scenario.BranchBerlin, scenario.SKUMalt).Quantity)
	requireDecimal(t, "65", balanceOf(t, h, scenario.BranchHamburg, scenario.SKUMalt).Quantity)
}
