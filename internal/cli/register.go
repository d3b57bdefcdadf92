package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/namereg/internal/fee"
	"github.com/roach88/namereg/internal/ir"
	"github.com/roach88/namereg/internal/registry"
)

// CallOptions holds the flags shared by state-changing commands.
type CallOptions struct {
	*RootOptions
	Sender    string
	Funds     string
	BlockTime string // RFC 3339; empty means now
}

func (o *CallOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Sender, "sender", "", "caller identity (required)")
	cmd.Flags().StringVar(&o.BlockTime, "block-time", "", "block time in RFC 3339 (default now)")
	_ = cmd.MarkFlagRequired("sender")
}

func (o *CallOptions) blockTime() (time.Time, error) {
	if o.BlockTime == "" {
		return time.Now().UTC(), nil
	}
	t, err := time.Parse(time.RFC3339Nano, o.BlockTime)
	if err != nil {
		return time.Time{}, NewExitError(ExitCommandError, fmt.Sprintf("invalid --block-time %q: %v", o.BlockTime, err))
	}
	return t.UTC(), nil
}

func (o *CallOptions) callContext(reg *registry.Registry) (registry.Context, error) {
	funds, err := fee.ParseCoins(o.Funds)
	if err != nil {
		return registry.Context{}, WrapExitError(ExitCommandError, "invalid --funds", err)
	}
	bt, err := o.blockTime()
	if err != nil {
		return registry.Context{}, err
	}
	return reg.NewContext(o.Sender, funds, bt), nil
}

// RegisterOptions holds flags for the register command.
type RegisterOptions struct {
	CallOptions
	Owner string
	Meta  string
}

// NewRegisterCommand creates the register command.
func NewRegisterCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RegisterOptions{CallOptions: CallOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "register <name> <address>",
		Short: "Register a name for a target address",
		Long: `Register a name pointing at a target address. The registration fee
must be attached with --funds. The fee transfer is executed after the
registration is stored and recorded in the transfer log.

Examples:
  namereg register example juno1... --sender alice --funds 1juno
  namereg register docs juno1... --sender alice --funds 1juno --meta '{"title":"Docs"}'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegister(opts, cmd, args[0], args[1])
		},
	}

	opts.addFlags(cmd)
	cmd.Flags().StringVar(&opts.Funds, "funds", "", "attached coins, e.g. 1juno,5atom")
	cmd.Flags().StringVar(&opts.Owner, "owner", "", "record owner (default: sender)")
	cmd.Flags().StringVar(&opts.Meta, "meta", "", "initial metadata as JSON")

	return cmd
}

func runRegister(opts *RegisterOptions, cmd *cobra.Command, name, target string) error {
	f := formatter(cmd, opts.RootOptions)
	ctx := cmd.Context()

	req := registry.RegisterRequest{Name: name, Owner: opts.Owner, TargetAddress: target}
	if req.Owner == "" {
		req.Owner = opts.Sender
	}
	if opts.Meta != "" {
		var meta ir.NameMetadata
		if err := decodeStrict(opts.Meta, &meta); err != nil {
			return f.Fail(WrapExitError(ExitCommandError, "invalid --meta", err))
		}
		req.Metadata = &meta
	}

	reg, st, err := openRegistry(ctx, opts.RootOptions)
	if err != nil {
		return f.Fail(err)
	}
	defer st.Close()

	rc, err := opts.callContext(reg)
	if err != nil {
		return f.Fail(err)
	}

	res, err := reg.Register(ctx, rc, req)
	if err != nil {
		return f.Fail(err)
	}

	// Registration committed; now the host executes the fee transfer.
	if err := fee.NewLedgerExecutor(st, nil).Execute(ctx, res.Effects); err != nil {
		return f.Fail(fmt.Errorf("execute effects: %w", err))
	}

	text := fmt.Sprintf("registered %s -> %s (owner %s)", res.CanonicalName, res.Record.TargetAddress, res.Record.Owner)
	for _, e := range res.Effects {
		text += fmt.Sprintf("\n  %s %s to %s [%s]", e.Kind, e.Transfer.Amount, e.Transfer.Recipient, e.ID)
	}
	return f.Emit(res, text)
}

// UpdateOptions holds flags for the update-metadata command.
type UpdateOptions struct {
	CallOptions
	Patch string
}

// NewUpdateMetadataCommand creates the update-metadata command.
func NewUpdateMetadataCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &UpdateOptions{CallOptions: CallOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "update-metadata <name>",
		Short: "Patch the metadata of a name",
		Long: `Apply a JSON patch to a name's metadata. Only the owner may update.
An absent key leaves the field unchanged, null clears it and any other
value replaces it. Clearing keywords stores an empty list.

Example:
  namereg update-metadata docs --sender alice --patch '{"title":null,"keywords":["go"]}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdateMetadata(opts, cmd, args[0])
		},
	}

	opts.addFlags(cmd)
	cmd.Flags().StringVar(&opts.Patch, "patch", "{}", "metadata patch as JSON")

	return cmd
}

func runUpdateMetadata(opts *UpdateOptions, cmd *cobra.Command, name string) error {
	f := formatter(cmd, opts.RootOptions)
	ctx := cmd.Context()

	var patch ir.MetadataPatch
	if err := decodeStrict(opts.Patch, &patch); err != nil {
		return f.Fail(WrapExitError(ExitCommandError, "invalid --patch", err))
	}

	reg, st, err := openRegistry(ctx, opts.RootOptions)
	if err != nil {
		return f.Fail(err)
	}
	defer st.Close()

	rc, err := opts.callContext(reg)
	if err != nil {
		return f.Fail(err)
	}

	merged, err := reg.UpdateMetadata(ctx, rc, name, patch)
	if err != nil {
		return f.Fail(err)
	}
	return f.Emit(merged, fmt.Sprintf("updated %s\n%s", ir.CanonicalName(name), formatMetadata(merged)))
}

// decodeStrict decodes a JSON flag value, rejecting unknown fields.
func decodeStrict(src string, dst any) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(src)))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func formatMetadata(m ir.NameMetadata) string {
	var b strings.Builder
	field := func(name string, v *string) {
		if v != nil {
			fmt.Fprintf(&b, "  %s: %s\n", name, *v)
		}
	}
	field("title", m.Title)
	field("description", m.Description)
	field("favicon", m.Favicon)
	field("logo", m.Logo)
	if m.Keywords != nil {
		fmt.Fprintf(&b, "  keywords: [%s]\n", strings.Join(m.Keywords, ", "))
	}
	return strings.TrimSuffix(b.String(), "\n")
}
