package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/namereg/internal/ir"
	"github.com/roach88/namereg/internal/registry"
	"github.com/roach88/namereg/internal/render"
)

// NewConfigCommand creates the config command.
func NewConfigCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the registry config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := formatter(cmd, rootOpts)
			reg, st, err := openRegistry(cmd.Context(), rootOpts)
			if err != nil {
				return f.Fail(err)
			}
			defer st.Close()

			cfg := reg.Config()
			return f.Emit(cfg, formatConfig(cfg))
		},
	}
}

// NewRecordCommand creates the record command.
func NewRecordCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "record <name-or-address>",
		Short: "Show the record for a name or target address",
		Long: `Show a name record with its metadata. An address is looked up through
the reverse index and shows the lowest name targeting it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := formatter(cmd, rootOpts)
			reg, st, err := openRegistry(cmd.Context(), rootOpts)
			if err != nil {
				return f.Fail(err)
			}
			defer st.Close()

			rec, err := reg.NameRecord(cmd.Context(), args[0])
			if err != nil {
				return f.Fail(err)
			}
			return f.Emit(rec, formatRecord(rec))
		},
	}
}

// RecordsOptions holds flags for the records command.
type RecordsOptions struct {
	*RootOptions
	Limit  int
	Cursor string
	Prefix string
}

// NewRecordsCommand creates the records command.
func NewRecordsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RecordsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "records",
		Short: "List records page by page",
		Long: fmt.Sprintf(`List records in ascending name order. Pass the printed next cursor
with --cursor to fetch the following page. At most %d records per page.

Examples:
  namereg records --limit 5
  namereg records --limit 5 --cursor example
  namereg records --prefix juno1qy`, registry.MaxPageLimit),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecords(opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 10, "page size")
	cmd.Flags().StringVar(&opts.Cursor, "cursor", "", "last name of the previous page")
	cmd.Flags().StringVar(&opts.Prefix, "prefix", "", "keep only target addresses with this prefix")

	return cmd
}

func runRecords(opts *RecordsOptions, cmd *cobra.Command) error {
	f := formatter(cmd, opts.RootOptions)
	reg, st, err := openRegistry(cmd.Context(), opts.RootOptions)
	if err != nil {
		return f.Fail(err)
	}
	defer st.Close()

	req := registry.ListRequest{Limit: opts.Limit, AddressPrefix: opts.Prefix}
	if cmd.Flags().Changed("cursor") {
		cursor := opts.Cursor
		req.Cursor = &cursor
	}

	res, err := reg.ListRecords(cmd.Context(), req)
	if err != nil {
		return f.Fail(err)
	}

	var b strings.Builder
	for _, item := range res.Items {
		fmt.Fprintf(&b, "%s -> %s (owner %s)\n", item.CanonicalName, item.TargetAddress, item.Owner)
	}
	if res.NextCursor != nil {
		fmt.Fprintf(&b, "next cursor: %s", *res.NextCursor)
	} else {
		b.WriteString("(end)")
	}
	return f.Emit(res, b.String())
}

// NewResolveCommand creates the resolve command.
func NewResolveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <name-or-address>",
		Short: "Resolve a name to its target address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := formatter(cmd, rootOpts)
			reg, st, err := openRegistry(cmd.Context(), rootOpts)
			if err != nil {
				return f.Fail(err)
			}
			defer st.Close()

			addr, err := reg.Resolve(cmd.Context(), args[0])
			if err != nil {
				return f.Fail(err)
			}
			return f.Emit(map[string]string{"address": addr}, addr)
		},
	}
}

// RenderOptions holds flags for the render command.
type RenderOptions struct {
	*RootOptions
	Context   string
	Renderers string
	Timeout   time.Duration
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenderOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "render <name-or-address> <path>",
		Short: "Render a path of the service behind a name",
		Long: `Resolve a name (or take an address as is) and forward the path and
optional JSON context to the renderer configured for the target address.
The renderer table is a YAML file given with --renderers or by the
renderers field of the config file.

Example:
  namereg render docs / --context '{"lang":"en"}' --renderers renderers.yaml`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(opts, cmd, args[0], args[1])
		},
	}

	cmd.Flags().StringVar(&opts.Context, "context", "", "render context as JSON")
	cmd.Flags().StringVar(&opts.Renderers, "renderers", "", "renderer table (YAML)")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 10*time.Second, "HTTP renderer timeout")

	return cmd
}

func runRender(opts *RenderOptions, cmd *cobra.Command, identifier, path string) error {
	f := formatter(cmd, opts.RootOptions)

	var renderCtx json.RawMessage
	if opts.Context != "" {
		if !json.Valid([]byte(opts.Context)) {
			return f.Fail(NewExitError(ExitCommandError, "invalid --context: not JSON"))
		}
		renderCtx = json.RawMessage(opts.Context)
	}

	table := opts.Renderers
	if table == "" {
		cfg, err := loadConfig(opts.RootOptions)
		if err != nil {
			return f.Fail(err)
		}
		if cfg != nil {
			table = cfg.Renderers
		}
	}

	var extra []registry.Option
	if table != "" {
		mux, err := render.LoadFile(table, &http.Client{Timeout: opts.Timeout})
		if err != nil {
			return f.Fail(WrapExitError(ExitCommandError, "failed to load renderers", err))
		}
		extra = append(extra, registry.WithRenderer(mux))
	}

	reg, st, err := openRegistry(cmd.Context(), opts.RootOptions, extra...)
	if err != nil {
		return f.Fail(err)
	}
	defer st.Close()

	out, err := reg.Render(cmd.Context(), identifier, path, renderCtx)
	if err != nil {
		return f.Fail(err)
	}
	return f.Emit(map[string]string{"output": out}, out)
}

// NewTransfersCommand creates the transfers command.
func NewTransfersCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "transfers",
		Short: "List executed fee transfers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := formatter(cmd, rootOpts)
			st, err := openStore(rootOpts)
			if err != nil {
				return f.Fail(err)
			}
			defer st.Close()

			transfers, err := st.ReadTransfers(cmd.Context())
			if err != nil {
				return f.Fail(err)
			}

			var b strings.Builder
			for _, t := range transfers {
				fmt.Fprintf(&b, "%s %s -> %s %s\n", t.ExecutedAt.Format(time.RFC3339), t.Amount, t.Recipient, t.Memo)
			}
			fmt.Fprintf(&b, "%d transfer(s)", len(transfers))
			return f.Emit(transfers, b.String())
		},
	}
}

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Update the registry version marker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := formatter(cmd, rootOpts)
			st, err := openStore(rootOpts)
			if err != nil {
				return f.Fail(err)
			}
			defer st.Close()

			previous, err := registry.Migrate(cmd.Context(), st)
			if err != nil {
				return f.Fail(err)
			}
			current := ir.CurrentVersion()
			data := map[string]ir.ContractVersion{"previous": previous, "current": current}
			return f.Emit(data, fmt.Sprintf("migrated %s: %s -> %s", current.Contract, previous.Version, current.Version))
		},
	}
}

func formatRecord(rec ir.PublicNameRecord) string {
	s := fmt.Sprintf("name: %s\ntarget: %s\nowner: %s\ncreated: %s",
		rec.CanonicalName, rec.TargetAddress, rec.Owner, rec.CreatedAt.Format(time.RFC3339))
	if meta := formatMetadata(rec.Metadata); meta != "" {
		s += "\nmetadata:\n" + meta
	}
	return s
}
