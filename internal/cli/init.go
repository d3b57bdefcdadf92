package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/namereg/internal/ir"
	"github.com/roach88/namereg/internal/registry"
)

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize the registry from a config file",
		Long: `Write the registry config (unit price, fee recipient, maximum name
length) from a CUE config file. The config can be written only once.

Example:
  namereg init --db ./namereg.db --config ./registry.cue`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(rootOpts, cmd)
		},
	}
}

func runInit(opts *RootOptions, cmd *cobra.Command) error {
	f := formatter(cmd, opts)
	if opts.Config == "" {
		return f.Fail(NewExitError(ExitCommandError, "init requires --config"))
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return f.Fail(err)
	}
	st, err := openStore(opts)
	if err != nil {
		return f.Fail(err)
	}
	defer st.Close()

	stored, err := registry.Init(cmd.Context(), st, cfg.Registry)
	if err != nil {
		return f.Fail(err)
	}
	return f.Emit(stored, formatConfig(stored))
}

func formatConfig(cfg ir.Config) string {
	return fmt.Sprintf("unit_price: %s\nfee_recipient: %s\nmax_name_len: %d",
		cfg.UnitPrice, cfg.FeeRecipient, cfg.MaxNameLen)
}
