package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vsinha/brewerp/pkg/application/dto"
	"github.com/vsinha/brewerp/pkg/application/services"
)

// reportFlags are shared by every report sub-command
type reportFlags struct {
	branch string
	from   string
	to     string
	days   int
}

type reportFunc func(ctx context.Context, p services.Principal, f dto.ReportFilter) (any, error)

// NewReportCommand creates the report command with one sub-command per report.
func NewReportCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print inventory reports",
		Long: `Print inventory reports for a company.

Periods are given as dates (YYYY-MM-DD) or RFC 3339 timestamps; --from is
inclusive and --to exclusive. Without a period the last year up to now is used.

Example:
  brewerp report valuation --branch BER
  brewerp report abc --from 2024-01-01 --to 2024-04-01 --format csv --output reports/`,
	}

	reports := []struct {
		use, short string
		run        func(app *services.App) reportFunc
	}{
		{"valuation", "Stock value per branch and item", func(a *services.App) reportFunc { return wrap(a.Reports.Valuation) }},
		{"abc", "ABC classification by issued value", func(a *services.App) reportFunc { return wrap(a.Reports.ABC) }},
		{"slow-moving", "Stock without issues for --days days", func(a *services.App) reportFunc { return wrap(a.Reports.SlowMoving) }},
		{"turnover", "Inventory turnover and days on hand", func(a *services.App) reportFunc { return wrap(a.Reports.Turnover) }},
		{"low-stock", "Balances at or below their reorder level", func(a *services.App) reportFunc { return wrap(a.Reports.LowStock) }},
	}

	for _, r := range reports {
		flags := &reportFlags{}
		sub := &cobra.Command{
			Use:   r.use,
			Short: r.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withPrincipal(rootOpts, cmd, func(e *env, p services.Principal) error {
					filter, err := flags.filter(cmd.Context(), e, p)
					if err != nil {
						return err
					}
					report, err := r.run(e.app)(cmd.Context(), p, filter)
					if err != nil {
						return err
					}
					return generate(r.use, report, rootOpts, cmd)
				})
			},
		}
		sub.Flags().StringVar(&flags.branch, "branch", "", "branch code (all branches when empty)")
		sub.Flags().StringVar(&flags.from, "from", "", "period start, inclusive")
		sub.Flags().StringVar(&flags.to, "to", "", "period end, exclusive")
		sub.Flags().IntVar(&flags.days, "days", 0, "idle days for slow-moving (reports.slow_moving_days when 0)")
		cmd.AddCommand(sub)
	}

	return cmd
}

func wrap[T any](fn func(context.Context, services.Principal, dto.ReportFilter) (T, error)) reportFunc {
	return func(ctx context.Context, p services.Principal, f dto.ReportFilter) (any, error) {
		return fn(ctx, p, f)
	}
}

func (f *reportFlags) filter(ctx context.Context, e *env, p services.Principal) (dto.ReportFilter, error) {
	var filter dto.ReportFilter
	var err error
	if filter.From, err = parseDate("from", f.from); err != nil {
		return filter, err
	}
	if filter.To, err = parseDate("to", f.to); err != nil {
		return filter, err
	}
	filter.Days = f.days

	if f.branch != "" {
		branch, err := e.store.Branches().GetBranchByCode(ctx, p.CompanyID, strings.ToUpper(f.branch))
		if err != nil {
			return filter, fmt.Errorf("branch %s: %w", f.branch, err)
		}
		filter.BranchID = branch.ID
	}
	return filter, nil
}

func parseDate(flag, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: expected YYYY-MM-DD or RFC 3339, got %q", flag, s)
	}
	return t.UTC(), nil
}
