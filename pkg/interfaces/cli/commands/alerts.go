package commands

import (
	"github.com/spf13/cobra"

	"github.com/vsinha/brewerp/pkg/application/services"
)

// NewAlertsCommand creates the alerts command.
func NewAlertsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Manage low-stock alerts",
	}

	var all bool
	scan := &cobra.Command{
		Use:   "scan",
		Short: "Re-evaluate low-stock alerts for every balance",
		Long: `Re-evaluate every stock balance against its item's reorder level, raising
alerts for balances at or below it and resolving alerts that recovered.

Alerts normally follow stock movements; scan picks up reorder level changes
and repairs alerts after restores.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if all {
				e, err := openEnv(rootOpts)
				if err != nil {
					return err
				}
				defer e.Close()
				res, err := e.app.Alerts.ScanAll(cmd.Context())
				if err != nil {
					return err
				}
				return generate("alerts-scan", res, rootOpts, cmd)
			}

			return withPrincipal(rootOpts, cmd, func(e *env, p services.Principal) error {
				res, err := e.app.Alerts.Scan(cmd.Context(), p)
				if err != nil {
					return err
				}
				return generate("alerts-scan", res, rootOpts, cmd)
			})
		},
	}
	scan.Flags().BoolVar(&all, "all", false, "scan every active company")
	cmd.AddCommand(scan)

	return cmd
}
