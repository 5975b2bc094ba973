// Package commands implements the brewerp command line.
package commands

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/vsinha/brewerp/pkg/application/services"
	"github.com/vsinha/brewerp/pkg/infrastructure/config"
	"github.com/vsinha/brewerp/pkg/infrastructure/events"
	"github.com/vsinha/brewerp/pkg/infrastructure/logging"
	"github.com/vsinha/brewerp/pkg/infrastructure/repositories/sqlite"
	"github.com/vsinha/brewerp/pkg/interfaces/cli/output"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Verbose    bool
	Format     string
	OutputDir  string
	// Company is the code of the tenant company commands act on
	Company string
}

// NewRootCommand creates the root command for the brewerp CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "brewerp",
		Short: "brewerp - inventory and purchasing for breweries",
		Long: `brewerp tracks stock, purchasing and inventory reports for multi-branch breweries.

Run "brewerp serve" for the JSON API, or use the import, report and alerts
commands against the same database.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(output.ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, output.ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to brewerp.yaml (defaults apply when empty)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output and debug logging")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", output.FormatText, "output format (text|json|csv)")
	cmd.PersistentFlags().StringVar(&opts.OutputDir, "output", "", "directory for csv output (stdout when empty)")
	cmd.PersistentFlags().StringVar(&opts.Company, "company", "", "company code (required when the database holds several)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewReportCommand(opts))
	cmd.AddCommand(NewAlertsCommand(opts))

	return cmd
}

// env is an opened brewerp instance shared by the sub-commands
type env struct {
	cfg    config.Config
	logger *zap.Logger
	store  *sqlite.Store
	app    *services.App
}

func openEnv(opts *RootOptions) (*env, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.Verbose {
		cfg.Logging.Level = "debug"
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, err
	}

	logger.Debug("opening database", zap.String("path", cfg.Database.Path))
	store, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Sync()
		return nil, err
	}

	bus := events.NewBus(logger, 0)
	app, err := services.NewApp(store, bus, cfg, services.Options{Logger: logger})
	if err != nil {
		bus.Close()
		store.Close()
		logger.Sync()
		return nil, err
	}
	return &env{cfg: cfg, logger: logger, store: store, app: app}, nil
}

// Close drains pending events so alerts raised by the command are stored
func (e *env) Close() error {
	e.app.Bus.Flush()
	e.app.Bus.Close()
	err := e.store.Close()
	_ = e.logger.Sync()
	return err
}

// principal resolves --company, falling back to the only active company
func (e *env) principal(ctx context.Context, opts *RootOptions) (services.Principal, error) {
	if opts.Company != "" {
		company, err := e.store.Companies().GetCompanyByCode(ctx, opts.Company)
		if err != nil {
			return services.Principal{}, fmt.Errorf("company %s: %w", opts.Company, err)
		}
		return services.SystemPrincipal(company.ID), nil
	}

	companies, err := e.store.Companies().ListCompanies(ctx, true)
	if err != nil {
		return services.Principal{}, err
	}
	switch len(companies) {
	case 0:
		return services.Principal{}, fmt.Errorf("no companies in %s; run brewerp seed first", e.cfg.Database.Path)
	case 1:
		return services.SystemPrincipal(companies[0].ID), nil
	default:
		return services.Principal{}, fmt.Errorf("database holds %d companies; pass --company", len(companies))
	}
}

func (o *RootOptions) outputConfig(w io.Writer) output.Config {
	return output.Config{
		Format:    o.Format,
		OutputDir: o.OutputDir,
		Verbose:   o.Verbose,
		Out:       w,
		Language:  language.English,
	}
}

// withPrincipal opens the database and runs fn as the selected company
func withPrincipal(opts *RootOptions, cmd *cobra.Command, fn func(e *env, p services.Principal) error) error {
	e, err := openEnv(opts)
	if err != nil {
		return err
	}
	defer e.Close()

	p, err := e.principal(cmd.Context(), opts)
	if err != nil {
		return err
	}
	return fn(e, p)
}

func generate(name string, v any, opts *RootOptions, cmd *cobra.Command) error {
	return output.Generate(name, v, opts.outputConfig(cmd.OutOrStdout()))
}
