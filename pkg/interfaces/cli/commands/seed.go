package commands

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vsinha/brewerp/pkg/application/services"
	"github.com/vsinha/brewerp/pkg/infrastructure/seed"
)

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file>",
		Short: "Load companies and master data from a YAML seed file",
		Long: `Load companies, countries, branches, users, suppliers, items and opening
stock from a YAML seed file. Companies whose code already exists are skipped,
so a seed file can be applied repeatedly.

Example:
  brewerp seed seeds/brewery.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := seed.Load(args[0])
			if err != nil {
				return err
			}

			e, err := openEnv(rootOpts)
			if err != nil {
				return err
			}
			defer e.Close()

			res, err := services.NewSeeder(e.app).Apply(cmd.Context(), file)
			if err != nil {
				return err
			}
			e.logger.Info("seed applied", zap.String("file", args[0]), zap.Int("companies", res.Companies))
			return generate("seed", res, rootOpts, cmd)
		},
	}
}
