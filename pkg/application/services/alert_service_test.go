package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/brewerp/pkg/application/dto"
	"github.com/vsinha/brewerp/pkg/application/services"
	svctest "github.com/vsinha/brewerp/pkg/application/services/testing"
	"github.com/vsinha/brewerp/pkg/domain/apperror"
	"github.com/vsinha/brewerp/pkg/domain/entities"
	"github.com/vsinha/brewerp/pkg/domain/repositories"
	"github.com/vsinha/brewerp/pkg/infrastructure/events"
	scenario "github.com/vsinha/brewerp/pkg/infrastructure/testing"
)

func alerts(t *testing.T, h *svctest.Harness, p services.Principal, status entities.AlertStatus) []*entities.LowStockAlert {
	t.Helper()
	list, err := h.Alerts.ListAlerts(context.Background(), p, repositories.AlertFilter{Status: status})
	require.NoError(t, err)
	return list
}

func TestAlerts_RaisedByOpeningStock(t *testing.T) {
	h := newHarness(t)

	open := alerts(t, h, h.Admin(), entities.AlertOpen)
	require.Len(t, open, 1)
	a := open[0]
	assert.Equal(t, h.Branch(scenario.BranchHamburg), a.BranchID)
	assert.Equal(t, h.Item(scenario.SKUMalt), a.ItemID)
	requireDecimal(t, "40", a.Quantity)
	requireDecimal(t, "100", a.ReorderLevel)
	requireDecimal(t, "160", a.SuggestedQty, "twice the reorder level minus on hand")

	assert.Empty(t, alerts(t, h, h.As(scenario.StaffEmail), entities.AlertOpen), "staff only sees Berlin")

	evts, err := h.Bus.ReadAllEvents(0)
	require.NoError(t, err)
	var raised int
	for _, e := range evts {
		if e.Type() == events.AlertRaisedEvent {
			raised++
		}
	}
	assert.Equal(t, 1, raised)
}

func TestAlerts_FollowStockMovements(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.Stock.RecordMovement(ctx, h.Admin(), dto.MovementInput{
		BranchID: h.Branch(scenario.BranchHamburg),
		ItemID:   h.Item(scenario.SKUMalt),
		Type:     entities.MovementReceipt,
		Quantity: dec("100"),
	})
	require.NoError(t, err)
	h.Bus.Flush()

	assert.Empty(t, alerts(t, h, h.Admin(), entities.AlertOpen))
	resolved := alerts(t, h, h.Admin(), entities.AlertResolved)
	require.Len(t, resolved, 1)
	require.NotNil(t, resolved[0].ResolvedAt)
	requireDecimal(t, "140", resolved[0].Quantity)

	_, err = h.Stock.RecordMovement(ctx, h.Admin(), dto.MovementInput{
		BranchID: h.Branch(scenario.BranchBerlin),
		ItemID:   h.Item(scenario.SKUHops),
		Type:     entities.MovementIssue,
		Quantity: dec("15"),
	})
	require.NoError(t, err)
	h.Bus.Flush()

	open := alerts(t, h, h.Admin(), entities.AlertOpen)
	require.Len(t, open, 1)
	requireDecimal(t, "5", open[0].Quantity, "at the reorder level counts as low")
	requireDecimal(t, "10", open[0].SuggestedQty, "minimum order quantity")

	_, err = h.Stock.RecordMovement(ctx, h.Admin(), dto.MovementInput{
		BranchID: h.Branch(scenario.BranchBerlin),
		ItemID:   h.Item(scenario.SKUHops),
		Type:     entities.MovementIssue,
		Quantity: dec("1"),
	})
	require.NoError(t, err)
	h.Bus.Flush()

	open = alerts(t, h, h.Admin(), entities.AlertOpen)
	require.Len(t, open, 1, "a low item keeps a single open alert")
	requireDecimal(t, "4", open[0].Quantity)
}

func TestAlerts_Evaluate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	company := h.Company.ID

	outcome, err := h.Alerts.Evaluate(ctx, company, h.Branch(scenario.BranchHamburg), h.Item(scenario.SKUMalt))
	require.NoError(t, err)
	assert.Equal(t, services.AlertUnchanged, outcome)

	outcome, err = h.Alerts.Evaluate(ctx, company, h.Branch(scenario.BranchHamburg), h.Item(scenario.SKUHops))
	require.NoError(t, err)
	assert.Equal(t, services.AlertRaised, outcome, "never stocked counts as zero on hand")

	outcome, err = h.Alerts.Evaluate(ctx, company, h.Branch(scenario.BranchBerlin), h.Item(scenario.SKUBeer))
	require.NoError(t, err)
	assert.Equal(t, services.AlertUnchanged, outcome, "no reorder level, no alert")

	_, err = h.Alerts.Evaluate(ctx, company, h.Branch(scenario.BranchBerlin), "missing")
	require.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestAlerts_Scan(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.Alerts.Scan(ctx, h.As(scenario.ViewerEmail))
	require.ErrorIs(t, err, apperror.ErrForbidden)

	result, err := h.Alerts.Scan(ctx, h.Admin())
	require.NoError(t, err)
	assert.Equal(t, dto.ScanResult{Evaluated: 8, Raised: 2}, *result)

	result, err = h.Alerts.Scan(ctx, h.Admin())
	require.NoError(t, err)
	assert.Equal(t, dto.ScanResult{Evaluated: 8}, *result)
	h.Bus.Flush()

	assert.Len(t, alerts(t, h, h.Admin(), entities.AlertOpen), 3)
}

func TestAlerts_InactiveItemResolves(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.Items.DeleteItem(ctx, h.Admin(), h.Item(scenario.SKUMalt), false))

	result, err := h.Alerts.ScanAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Resolved)

	for _, a := range alerts(t, h, h.Admin(), entities.AlertOpen) {
		assert.NotEqual(t, h.Item(scenario.SKUMalt), a.ItemID)
	}
}
