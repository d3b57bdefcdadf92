package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/roach88/namereg/internal/address"
	"github.com/roach88/namereg/internal/config"
	"github.com/roach88/namereg/internal/registry"
	"github.com/roach88/namereg/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	Database string
	Config   string // CUE config file; required by init, optional elsewhere
	Metrics  bool   // dump Prometheus metrics to stderr after the command

	metrics *prometheus.Registry
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the namereg CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "namereg",
		Short: "namereg - a name-to-address registry",
		Long: `A registry mapping human-readable names to target addresses.

Names are registered for a fixed fee, carry owner-editable metadata and
can be enumerated page by page. State lives in a SQLite database.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			configureLogging(cmd, opts)
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return dumpMetrics(cmd, opts)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "namereg.db", "path to SQLite database")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "path to CUE config file")
	cmd.PersistentFlags().BoolVar(&opts.Metrics, "metrics", false, "print Prometheus metrics to stderr on exit")

	cmd.AddCommand(NewInitCommand(opts))
	cmd.AddCommand(NewRegisterCommand(opts))
	cmd.AddCommand(NewUpdateMetadataCommand(opts))
	cmd.AddCommand(NewConfigCommand(opts))
	cmd.AddCommand(NewRecordCommand(opts))
	cmd.AddCommand(NewRecordsCommand(opts))
	cmd.AddCommand(NewResolveCommand(opts))
	cmd.AddCommand(NewRenderCommand(opts))
	cmd.AddCommand(NewTransfersCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func configureLogging(cmd *cobra.Command, opts *RootOptions) {
	logLevel := slog.LevelWarn
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}

// formatter returns the output formatter for cmd.
func formatter(cmd *cobra.Command, opts *RootOptions) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// loadConfig loads the --config file, or returns nil when none is set.
func loadConfig(opts *RootOptions) (*config.File, error) {
	if opts.Config == "" {
		return nil, nil
	}
	f, err := config.Load(opts.Config)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	return f, nil
}

// openStore opens the --db database.
func openStore(opts *RootOptions) (*store.Store, error) {
	slog.Debug("opening database", "path", opts.Database)
	st, err := store.Open(opts.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

// openRegistry opens the store and the registry on it, applying the
// address prefixes and limits of the --config file if one is given.
// The caller closes the returned store.
func openRegistry(ctx context.Context, opts *RootOptions, extra ...registry.Option) (*registry.Registry, *store.Store, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, nil, err
	}
	st, err := openStore(opts)
	if err != nil {
		return nil, nil, err
	}

	var regOpts []registry.Option
	if cfg != nil {
		regOpts = append(regOpts, registry.WithAddressValidator(address.NewBech32(cfg.AddressPrefixes...)))
		if cfg.Limits != nil {
			regOpts = append(regOpts, registry.WithLimits(*cfg.Limits))
		}
	}
	if opts.Metrics {
		opts.metrics = prometheus.NewRegistry()
		regOpts = append(regOpts, registry.WithMetrics(registry.NewMetrics(registry.WithRegisterer(opts.metrics))))
	}
	regOpts = append(regOpts, extra...)

	reg, err := registry.Open(ctx, st, regOpts...)
	if err != nil {
		st.Close()
		return nil, nil, err
	}
	return reg, st, nil
}

// dumpMetrics writes gathered metrics in the Prometheus text format.
func dumpMetrics(cmd *cobra.Command, opts *RootOptions) error {
	if !opts.Metrics || opts.metrics == nil {
		return nil
	}
	families, err := opts.metrics.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(cmd.ErrOrStderr(), mf); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}
