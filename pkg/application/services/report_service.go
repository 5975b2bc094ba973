package services

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/vsinha/brewerp/pkg/application/dto"
	"github.com/vsinha/brewerp/pkg/domain/apperror"
	"github.com/vsinha/brewerp/pkg/domain/entities"
	"github.com/vsinha/brewerp/pkg/domain/repositories"
	domain "github.com/vsinha/brewerp/pkg/domain/services"
	"github.com/vsinha/brewerp/pkg/infrastructure/config"
)

// DefaultReportPeriod is the look-back used when a period report has no From
const DefaultReportPeriod = 365 * 24 * time.Hour

// ReportService builds inventory reports. All values are in company currency.
type ReportService struct {
	base
	cfg config.ReportsConfig
}

// NewReportService creates a new report service
func NewReportService(opts Options, cfg config.ReportsConfig) *ReportService {
	return &ReportService{base: newBase(opts), cfg: cfg}
}

// master is the reference data every report joins against
type master struct {
	company  *entities.Company
	items    map[string]*entities.Item
	branches map[string]*entities.Branch
}

func (s *ReportService) loadMaster(ctx context.Context, companyID string) (*master, error) {
	company, err := s.store.Companies().GetCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	items, err := s.store.Items().AllItems(ctx, companyID)
	if err != nil {
		return nil, err
	}
	branches, err := s.store.Branches().ListBranches(ctx, companyID)
	if err != nil {
		return nil, err
	}
	m := &master{
		company:  company,
		items:    make(map[string]*entities.Item, len(items)),
		branches: make(map[string]*entities.Branch, len(branches)),
	}
	for _, item := range items {
		m.items[item.ID] = item
	}
	for _, b := range branches {
		m.branches[b.ID] = b
	}
	return m, nil
}

func (m *master) branchCode(id string) string {
	if b, ok := m.branches[id]; ok {
		return b.Code
	}
	return id
}

func (s *ReportService) authorize(p Principal, branchID string) error {
	if err := p.Require(entities.PermViewReports); err != nil {
		return err
	}
	if branchID != "" {
		return p.RequireBranch(branchID)
	}
	return nil
}

// period fills report defaults: To is now and From one year earlier
func (s *ReportService) period(filter dto.ReportFilter) (time.Time, time.Time, error) {
	to := filter.To.UTC()
	if filter.To.IsZero() {
		to = s.now()
	}
	from := filter.From.UTC()
	if filter.From.IsZero() {
		from = to.Add(-DefaultReportPeriod)
	}
	if !from.Before(to) {
		return time.Time{}, time.Time{}, apperror.Invalid("to", "must be after from")
	}
	return from, to, nil
}

func (s *ReportService) balances(ctx context.Context, p Principal, branchID string) ([]*entities.StockBalance, error) {
	list, err := s.store.Stock().ListBalances(ctx, p.CompanyID, repositories.BalanceFilter{
		BranchID: branchID,
		NonZero:  true,
	})
	if err != nil {
		return nil, err
	}
	out := make([]*entities.StockBalance, 0, len(list))
	for _, b := range list {
		if p.CanAccessBranch(b.BranchID) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *ReportService) movements(ctx context.Context, p Principal, filter repositories.MovementFilter) ([]*entities.StockMovement, error) {
	filter.Unbounded = true
	filter.Scope = p.BranchIDs
	return s.store.Stock().ListMovements(ctx, p.CompanyID, filter)
}

// Valuation values on-hand stock per item and branch at FIFO cost
func (s *ReportService) Valuation(ctx context.Context, p Principal, filter dto.ReportFilter) (*dto.ValuationReport, error) {
	if err := s.authorize(p, filter.BranchID); err != nil {
		return nil, err
	}
	m, err := s.loadMaster(ctx, p.CompanyID)
	if err != nil {
		return nil, err
	}
	balances, err := s.balances(ctx, p, filter.BranchID)
	if err != nil {
		return nil, err
	}
	return buildValuation(m, balances, s.now()), nil
}

func buildValuation(m *master, balances []*entities.StockBalance, asOf time.Time) *dto.ValuationReport {
	report := &dto.ValuationReport{
		AsOf:       asOf,
		Currency:   m.company.Currency,
		Rows:       []dto.ValuationRow{},
		Categories: []dto.CategoryTotal{},
		TotalValue: decimal.Zero,
	}
	byCategory := make(map[entities.Category]decimal.Decimal)
	for _, b := range balances {
		item, ok := m.items[b.ItemID]
		if !ok {
			continue
		}
		report.Rows = append(report.Rows, dto.ValuationRow{
			BranchID:    b.BranchID,
			BranchCode:  m.branchCode(b.BranchID),
			ItemID:      item.ID,
			SKU:         item.SKU,
			Name:        item.Name,
			Category:    item.Category,
			UOM:         b.UOM,
			Quantity:    b.Quantity,
			Value:       b.Value,
			AverageCost: b.AverageCost(),
		})
		byCategory[item.Category] = byCategory[item.Category].Add(b.Value)
		report.TotalValue = report.TotalValue.Add(b.Value)
	}
	sort.Slice(report.Rows, func(i, j int) bool {
		if report.Rows[i].BranchCode != report.Rows[j].BranchCode {
			return report.Rows[i].BranchCode < report.Rows[j].BranchCode
		}
		return report.Rows[i].SKU < report.Rows[j].SKU
	})
	for cat, value := range byCategory {
		report.Categories = append(report.Categories, dto.CategoryTotal{Category: cat, Value: value})
	}
	sort.Slice(report.Categories, func(i, j int) bool {
		return report.Categories[i].Category < report.Categories[j].Category
	})
	return report
}

// ABC classifies items by the cost of their issues in [From, To)
func (s *ReportService) ABC(ctx context.Context, p Principal, filter dto.ReportFilter) (*dto.ABCReport, error) {
	if err := s.authorize(p, filter.BranchID); err != nil {
		return nil, err
	}
	from, to, err := s.period(filter)
	if err != nil {
		return nil, err
	}
	m, err := s.loadMaster(ctx, p.CompanyID)
	if err != nil {
		return nil, err
	}
	issues, err := s.movements(ctx, p, repositories.MovementFilter{
		BranchID: filter.BranchID,
		Types:    []entities.MovementType{entities.MovementIssue},
		From:     &from,
		To:       &to,
	})
	if err != nil {
		return nil, err
	}

	consumption := make(map[string]decimal.Decimal)
	for _, mv := range issues {
		consumption[mv.ItemID] = consumption[mv.ItemID].Add(mv.TotalCost)
	}
	inputs := make([]domain.ABCInput, 0, len(m.items))
	for _, item := range m.items {
		value, consumed := consumption[item.ID]
		if !item.Active && !consumed {
			continue
		}
		inputs = append(inputs, domain.ABCInput{ItemID: item.ID, SKU: item.SKU, Value: value})
	}

	report := &dto.ABCReport{
		From:       from,
		To:         to,
		Currency:   m.company.Currency,
		AThreshold: decimal.NewFromFloat(s.cfg.ABCAThreshold),
		BThreshold: decimal.NewFromFloat(s.cfg.ABCBThreshold),
		Rows:       []dto.ABCRow{},
		TotalValue: decimal.Zero,
	}
	for _, row := range domain.ClassifyABC(inputs, report.AThreshold, report.BThreshold) {
		report.Rows = append(report.Rows, dto.ABCRow{
			ItemID:          row.ItemID,
			SKU:             row.SKU,
			Name:            m.items[row.ItemID].Name,
			Value:           row.Value,
			Share:           row.Share,
			CumulativeShare: row.CumulativeShare,
			Class:           string(row.Class),
		})
		report.TotalValue = report.TotalValue.Add(row.Value)
	}
	return report, nil
}

// SlowMoving lists stocked items idle for longer than the threshold. Idle time
// runs from the last issue or, for items never issued, from the first inbound movement.
func (s *ReportService) SlowMoving(ctx context.Context, p Principal, filter dto.ReportFilter) (*dto.SlowMovingReport, error) {
	if err := s.authorize(p, filter.BranchID); err != nil {
		return nil, err
	}
	days := filter.Days
	if days == 0 {
		days = s.cfg.SlowMovingDays
	}
	if days < 0 {
		return nil, apperror.Invalid("days", "cannot be negative")
	}
	m, err := s.loadMaster(ctx, p.CompanyID)
	if err != nil {
		return nil, err
	}
	balances, err := s.balances(ctx, p, filter.BranchID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	cutoff := now.AddDate(0, 0, -days)
	report := &dto.SlowMovingReport{
		AsOf:          now,
		Currency:      m.company.Currency,
		ThresholdDays: days,
		Rows:          []dto.SlowMovingRow{},
		ValueAtRisk:   decimal.Zero,
	}
	for _, b := range balances {
		item, ok := m.items[b.ItemID]
		if !ok || !b.Quantity.IsPositive() {
			continue
		}
		last, err := s.lastActivity(ctx, p.CompanyID, b)
		if err != nil {
			return nil, err
		}
		if !last.Before(cutoff) {
			continue
		}
		report.Rows = append(report.Rows, dto.SlowMovingRow{
			BranchID:       b.BranchID,
			BranchCode:     m.branchCode(b.BranchID),
			ItemID:         item.ID,
			SKU:            item.SKU,
			Name:           item.Name,
			Quantity:       b.Quantity,
			Value:          b.Value,
			LastActivityAt: last,
			DaysIdle:       int(now.Sub(last).Hours() / 24),
		})
		report.ValueAtRisk = report.ValueAtRisk.Add(b.Value)
	}
	sort.Slice(report.Rows, func(i, j int) bool {
		if report.Rows[i].DaysIdle != report.Rows[j].DaysIdle {
			return report.Rows[i].DaysIdle > report.Rows[j].DaysIdle
		}
		if report.Rows[i].SKU != report.Rows[j].SKU {
			return report.Rows[i].SKU < report.Rows[j].SKU
		}
		return report.Rows[i].BranchCode < report.Rows[j].BranchCode
	})
	return report, nil
}

func (s *ReportService) lastActivity(ctx context.Context, companyID string, b *entities.StockBalance) (time.Time, error) {
	if b.LastIssueAt != nil {
		return *b.LastIssueAt, nil
	}
	inbound, err := s.store.Stock().ListMovements(ctx, companyID, repositories.MovementFilter{
		BranchID: b.BranchID,
		ItemID:   b.ItemID,
		Types: []entities.MovementType{
			entities.MovementReceipt, entities.MovementAdjustmentIn, entities.MovementTransferIn,
		},
		Unbounded: true,
	})
	if err != nil {
		return time.Time{}, err
	}
	if len(inbound) > 0 {
		return inbound[0].OccurredAt, nil
	}
	if b.LastMovementAt != nil {
		return *b.LastMovementAt, nil
	}
	return b.UpdatedAt, nil
}

// turnoverAcc accumulates the values behind one turnover row
type turnoverAcc struct {
	cogs, current, after, within decimal.Decimal
}

// Turnover computes inventory turnover per item over [From, To). Opening and
// closing values are rebuilt from the current value and the movement log.
func (s *ReportService) Turnover(ctx context.Context, p Principal, filter dto.ReportFilter) (*dto.TurnoverReport, error) {
	if err := s.authorize(p, filter.BranchID); err != nil {
		return nil, err
	}
	from, to, err := s.period(filter)
	if err != nil {
		return nil, err
	}
	m, err := s.loadMaster(ctx, p.CompanyID)
	if err != nil {
		return nil, err
	}
	balances, err := s.balances(ctx, p, filter.BranchID)
	if err != nil {
		return nil, err
	}
	movements, err := s.movements(ctx, p, repositories.MovementFilter{
		BranchID: filter.BranchID,
		From:     &from,
	})
	if err != nil {
		return nil, err
	}

	acc := make(map[string]*turnoverAcc)
	get := func(itemID string) *turnoverAcc {
		a, ok := acc[itemID]
		if !ok {
			a = &turnoverAcc{}
			acc[itemID] = a
		}
		return a
	}
	for _, b := range balances {
		a := get(b.ItemID)
		a.current = a.current.Add(b.Value)
	}
	for _, mv := range movements {
		a := get(mv.ItemID)
		if !mv.OccurredAt.Before(to) {
			a.after = a.after.Add(mv.SignedValue())
			continue
		}
		a.within = a.within.Add(mv.SignedValue())
		if mv.Type == entities.MovementIssue {
			a.cogs = a.cogs.Add(mv.TotalCost)
		}
	}

	periodDays := decimal.NewFromFloat(to.Sub(from).Hours() / 24).Round(4)
	report := &dto.TurnoverReport{
		From:     from,
		To:       to,
		Currency: m.company.Currency,
		Rows:     []dto.TurnoverRow{},
	}
	total := &turnoverAcc{}
	for itemID, a := range acc {
		item, ok := m.items[itemID]
		if !ok {
			continue
		}
		row := turnoverRow(a, periodDays)
		row.ItemID, row.SKU, row.Name = item.ID, item.SKU, item.Name
		report.Rows = append(report.Rows, row)

		total.cogs = total.cogs.Add(a.cogs)
		total.current = total.current.Add(a.current)
		total.after = total.after.Add(a.after)
		total.within = total.within.Add(a.within)
	}
	sort.Slice(report.Rows, func(i, j int) bool { return report.Rows[i].SKU < report.Rows[j].SKU })
	report.Total = turnoverRow(total, periodDays)
	report.Total.SKU = "TOTAL"
	return report, nil
}

func turnoverRow(a *turnoverAcc, periodDays decimal.Decimal) dto.TurnoverRow {
	closing := a.current.Sub(a.after)
	opening := closing.Sub(a.within)
	average := opening.Add(closing).Div(decimal.NewFromInt(2))

	ratio, daysOnHand := decimal.Zero, decimal.Zero
	if average.IsPositive() {
		ratio = a.cogs.DivRound(average, 4)
	}
	if ratio.IsPositive() {
		daysOnHand = periodDays.DivRound(ratio, 2)
	}
	return dto.TurnoverRow{
		COGS:         a.cogs,
		OpeningValue: opening,
		ClosingValue: closing,
		AverageValue: average,
		Ratio:        ratio,
		DaysOnHand:   daysOnHand,
	}
}

// LowStock lists active (branch, item) pairs at or below the reorder level
func (s *ReportService) LowStock(ctx context.Context, p Principal, filter dto.ReportFilter) (*dto.LowStockReport, error) {
	if err := s.authorize(p, filter.BranchID); err != nil {
		return nil, err
	}
	m, err := s.loadMaster(ctx, p.CompanyID)
	if err != nil {
		return nil, err
	}
	list, err := s.store.Stock().ListBalances(ctx, p.CompanyID, repositories.BalanceFilter{BranchID: filter.BranchID})
	if err != nil {
		return nil, err
	}
	return buildLowStock(m, p, filter.BranchID, list, s.now()), nil
}

func buildLowStock(m *master, p Principal, branchID string, balances []*entities.StockBalance, asOf time.Time) *dto.LowStockReport {
	onHand := make(map[[2]string]decimal.Decimal, len(balances))
	for _, b := range balances {
		onHand[[2]string{b.BranchID, b.ItemID}] = b.Quantity
	}

	report := &dto.LowStockReport{AsOf: asOf, Rows: []dto.LowStockRow{}}
	for _, branch := range m.branches {
		if !branch.Active || !p.CanAccessBranch(branch.ID) || (branchID != "" && branch.ID != branchID) {
			continue
		}
		for _, item := range m.items {
			if !item.Active {
				continue
			}
			qty := onHand[[2]string{branch.ID, item.ID}]
			if !domain.BelowReorderLevel(item, qty) {
				continue
			}
			report.Rows = append(report.Rows, dto.LowStockRow{
				BranchID:     branch.ID,
				BranchCode:   branch.Code,
				ItemID:       item.ID,
				SKU:          item.SKU,
				Name:         item.Name,
				UOM:          item.BaseUOM,
				Quantity:     qty,
				ReorderLevel: item.ReorderLevel,
				SuggestedQty: domain.SuggestOrderQty(item, qty),
				LeadTimeDays: item.LeadTimeDays,
			})
		}
	}
	sort.Slice(report.Rows, func(i, j int) bool {
		if report.Rows[i].BranchCode != report.Rows[j].BranchCode {
			return report.Rows[i].BranchCode < report.Rows[j].BranchCode
		}
		return report.Rows[i].SKU < report.Rows[j].SKU
	})
	return report
}

// Dashboard gathers headline figures concurrently. PO counts are company-wide.
func (s *ReportService) Dashboard(ctx context.Context, p Principal, branchID string) (*dto.Dashboard, error) {
	if err := s.authorize(p, branchID); err != nil {
		return nil, err
	}
	m, err := s.loadMaster(ctx, p.CompanyID)
	if err != nil {
		return nil, err
	}

	var (
		valuation  *dto.ValuationReport
		lowStock   *dto.LowStockReport
		openAlerts int
		poCounts   map[entities.POStatus]int
		now        = s.now()
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		balances, err := s.balances(gctx, p, branchID)
		if err != nil {
			return err
		}
		valuation = buildValuation(m, balances, now)
		return nil
	})
	g.Go(func() error {
		balances, err := s.store.Stock().ListBalances(gctx, p.CompanyID, repositories.BalanceFilter{BranchID: branchID})
		if err != nil {
			return err
		}
		lowStock = buildLowStock(m, p, branchID, balances, now)
		return nil
	})
	g.Go(func() error {
		var err error
		openAlerts, err = s.countOpenAlerts(gctx, p, branchID)
		return err
	})
	g.Go(func() error {
		var err error
		poCounts, err = s.store.PurchaseOrders().CountPurchaseOrdersByStatus(gctx, p.CompanyID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stocked := make(map[string]bool)
	for _, row := range valuation.Rows {
		stocked[row.ItemID] = true
	}
	return &dto.Dashboard{
		GeneratedAt:    now,
		Currency:       m.company.Currency,
		InventoryValue: valuation.TotalValue,
		Categories:     valuation.Categories,
		StockedItems:   len(stocked),
		OpenAlerts:     openAlerts,
		LowStockCount:  len(lowStock.Rows),
		PurchaseOrders: poCounts,
	}, nil
}

func (s *ReportService) countOpenAlerts(ctx context.Context, p Principal, branchID string) (int, error) {
	if branchID == "" && len(p.BranchIDs) == 0 {
		return s.store.Alerts().CountOpenAlerts(ctx, p.CompanyID)
	}
	open, err := allPages(func(opts repositories.ListOptions) ([]*entities.LowStockAlert, error) {
		return s.store.Alerts().ListAlerts(ctx, p.CompanyID, repositories.AlertFilter{
			Status:      entities.AlertOpen,
			BranchID:    branchID,
			Scope:       p.BranchIDs,
			ListOptions: opts,
		})
	})
	return len(open), err
}
