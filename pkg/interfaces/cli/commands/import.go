package commands

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vsinha/brewerp/pkg/application/services"
	"github.com/vsinha/brewerp/pkg/infrastructure/repositories/csv"
)

// NewImportCommand creates the import command and its item and stock sub-commands.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import items or opening stock from CSV",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "items <csv>",
		Short: "Create or update items by SKU",
		Long: `Create or update items from a CSV file with the header

  sku,name,category,base_uom,standard_cost,reorder_level,lot_size_rule,min_order_qty,pack_size,lead_time_days

The import is all or nothing: an invalid row aborts it and names the row.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := csv.NewLoader().LoadItems(args[0])
			if err != nil {
				return err
			}
			return withPrincipal(rootOpts, cmd, func(e *env, p services.Principal) error {
				res, err := e.app.Items.ImportItems(cmd.Context(), p, rows)
				if err != nil {
					return err
				}
				e.logger.Info("items imported", zap.String("file", args[0]),
					zap.Int("created", res.Created), zap.Int("updated", res.Updated))
				return generate("import-items", res, rootOpts, cmd)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "stock <csv>",
		Short: "Post opening stock balances",
		Long: `Post opening balances from a CSV file with the header

  branch_code,sku,uom,quantity,unit_cost,lot_number,received_at

Each row becomes an adjustment_in movement with reason "opening balance". A
blank unit_cost uses the item's standard cost.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := csv.NewLoader().LoadOpeningStock(args[0])
			if err != nil {
				return err
			}
			return withPrincipal(rootOpts, cmd, func(e *env, p services.Principal) error {
				res, err := e.app.Stock.ImportOpeningStock(cmd.Context(), p, rows)
				if err != nil {
					return err
				}
				e.logger.Info("opening stock imported", zap.String("file", args[0]), zap.Int("posted", res.Posted))
				return generate("import-stock", res, rootOpts, cmd)
			})
		},
	})

	return cmd
}
