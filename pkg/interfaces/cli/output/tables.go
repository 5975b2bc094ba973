package output

import (
	"fmt"
	"time"

	"github.com/vsinha/brewerp/pkg/application/dto"
)

// Table is the tabular form of a report shared by the text and CSV writers
type Table struct {
	Title   string
	Header  []string
	Columns []string
	Rows    [][]any
	Summary []Total
}

// Total is a labelled summary value printed under the table
type Total struct {
	Label string
	Value any
}

// TableFor converts a report DTO into a table
func TableFor(report any) (*Table, error) {
	switch r := report.(type) {
	case *dto.ValuationReport:
		return valuationTable(r), nil
	case *dto.ABCReport:
		return abcTable(r), nil
	case *dto.SlowMovingReport:
		return slowMovingTable(r), nil
	case *dto.TurnoverReport:
		return turnoverTable(r), nil
	case *dto.LowStockReport:
		return lowStockTable(r), nil
	case *dto.ScanResult:
		return scanTable(r), nil
	case *dto.ImportResult:
		return importTable(r), nil
	case *dto.SeedResult:
		return seedTable(r), nil
	default:
		return nil, fmt.Errorf("no table layout for %T", report)
	}
}

func day(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func valuationTable(r *dto.ValuationReport) *Table {
	t := &Table{
		Title:   "Inventory valuation",
		Header:  []string{"As of: " + day(r.AsOf), "Currency: " + r.Currency},
		Columns: []string{"branch", "sku", "name", "category", "uom", "quantity", "average_cost", "value"},
	}
	for _, row := range r.Rows {
		t.Rows = append(t.Rows, []any{
			row.BranchCode, row.SKU, row.Name, string(row.Category), row.UOM,
			row.Quantity, row.AverageCost, row.Value,
		})
	}
	for _, c := range r.Categories {
		t.Summary = append(t.Summary, Total{Label: string(c.Category), Value: c.Value})
	}
	t.Summary = append(t.Summary, Total{Label: "Total", Value: r.TotalValue})
	return t
}

func abcTable(r *dto.ABCReport) *Table {
	t := &Table{
		Title: "ABC analysis",
		Header: []string{
			fmt.Sprintf("Period: %s to %s", day(r.From), day(r.To)),
			fmt.Sprintf("Thresholds: A <= %s%%, B <= %s%%", r.AThreshold, r.BThreshold),
		},
		Columns: []string{"class", "sku", "name", "value", "share", "cumulative_share"},
	}
	for _, row := range r.Rows {
		t.Rows = append(t.Rows, []any{row.Class, row.SKU, row.Name, row.Value, row.Share, row.CumulativeShare})
	}
	t.Summary = []Total{{Label: "Total issued value", Value: r.TotalValue}}
	return t
}

func slowMovingTable(r *dto.SlowMovingReport) *Table {
	t := &Table{
		Title:   "Slow-moving stock",
		Header:  []string{"As of: " + day(r.AsOf), fmt.Sprintf("Idle for at least %d days", r.ThresholdDays)},
		Columns: []string{"branch", "sku", "name", "quantity", "value", "last_activity", "days_idle"},
	}
	for _, row := range r.Rows {
		t.Rows = append(t.Rows, []any{
			row.BranchCode, row.SKU, row.Name, row.Quantity, row.Value, row.LastActivityAt, row.DaysIdle,
		})
	}
	t.Summary = []Total{{Label: "Value at risk", Value: r.ValueAtRisk}}
	return t
}

func turnoverTable(r *dto.TurnoverReport) *Table {
	t := &Table{
		Title:   "Inventory turnover",
		Header:  []string{fmt.Sprintf("Period: %s to %s", day(r.From), day(r.To))},
		Columns: []string{"sku", "name", "cogs", "opening_value", "closing_value", "average_value", "ratio", "days_on_hand"},
	}
	rows := make([]dto.TurnoverRow, 0, len(r.Rows)+1)
	rows = append(append(rows, r.Rows...), r.Total)
	for _, row := range rows {
		t.Rows = append(t.Rows, []any{
			row.SKU, row.Name, row.COGS, row.OpeningValue, row.ClosingValue, row.AverageValue, row.Ratio, row.DaysOnHand,
		})
	}
	return t
}

func lowStockTable(r *dto.LowStockReport) *Table {
	t := &Table{
		Title:   "Low stock",
		Header:  []string{"As of: " + day(r.AsOf)},
		Columns: []string{"branch", "sku", "name", "uom", "quantity", "reorder_level", "suggested_qty", "lead_time_days"},
	}
	for _, row := range r.Rows {
		t.Rows = append(t.Rows, []any{
			row.BranchCode, row.SKU, row.Name, row.UOM, row.Quantity, row.ReorderLevel, row.SuggestedQty, row.LeadTimeDays,
		})
	}
	return t
}

func scanTable(r *dto.ScanResult) *Table {
	return &Table{
		Title:   "Low-stock alert scan",
		Columns: []string{"evaluated", "raised", "resolved"},
		Rows:    [][]any{{r.Evaluated, r.Raised, r.Resolved}},
	}
}

func importTable(r *dto.ImportResult) *Table {
	return &Table{
		Title:   "Import",
		Columns: []string{"created", "updated", "posted"},
		Rows:    [][]any{{r.Created, r.Updated, r.Posted}},
	}
}

func seedTable(r *dto.SeedResult) *Table {
	return &Table{
		Title:   "Seed",
		Columns: []string{"companies", "users", "items", "suppliers", "movements"},
		Rows:    [][]any{{r.Companies, r.Users, r.Items, r.Suppliers, r.Movements}},
	}
}
