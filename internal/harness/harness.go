package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/namereg/internal/address"
	"github.com/roach88/namereg/internal/fee"
	"github.com/roach88/namereg/internal/ir"
	"github.com/roach88/namereg/internal/registry"
	"github.com/roach88/namereg/internal/render"
	"github.com/roach88/namereg/internal/store"
	"github.com/roach88/namereg/internal/testutil"
)

// Epoch is the block time of the first step of every scenario. Each step
// advances the block clock by BlockInterval.
var Epoch = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

// BlockInterval is the block time step between scenario steps.
const BlockInterval = 5 * time.Second

const (
	defaultMaxNameLen = 64
	defaultListLimit  = 10
)

// Harness runs one scenario against one registry.
type Harness struct {
	store    *store.Store
	reg      *registry.Registry
	clock    *testutil.StepClock
	executor fee.Executor
	logger   *slog.Logger
	sender   string

	// now is the block time of the step being executed. The ledger
	// executor stamps transfers with it.
	now time.Time
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database. Block times come from
// a StepClock starting at Epoch and effect IDs from a sequence generator
// ("op-1", "op-2", ...), so identical scenarios produce identical traces.
//
// Execution flow:
//  1. Init the registry from scenario.Config and open it
//  2. Execute setup steps (each must succeed)
//  3. Execute flow steps, checking expect clauses
//  4. Evaluate assertions against trace and final state
//
// A failing registry operation is an outcome, not an error: Run returns an
// error only when the scenario cannot be executed at all.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h, err := newHarness(ctx, st, scenario)
	if err != nil {
		return nil, err
	}

	result := NewResult(scenario.Name)
	for i, step := range scenario.Setup {
		if _, err := h.runStep(ctx, step); err != nil {
			return nil, fmt.Errorf("setup[%d] %s: %w", i, step.Op, err)
		}
	}

	for i, step := range scenario.Flow {
		if err := h.runFlowStep(ctx, i, step, result); err != nil {
			return nil, fmt.Errorf("flow[%d] %s: %w", i, step.Op, err)
		}
	}

	if err := h.collectState(ctx, result); err != nil {
		return nil, fmt.Errorf("failed to collect final state: %w", err)
	}
	for _, msg := range h.evaluateAssertions(ctx, result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// RunAll runs scenarios concurrently, at most parallel at a time (0 means
// no limit). Results are returned in scenario order. The first scenario
// that cannot be executed cancels the rest.
func RunAll(ctx context.Context, scenarios []*Scenario, parallel int) ([]*Result, error) {
	results := make([]*Result, len(scenarios))

	g, gctx := errgroup.WithContext(ctx)
	if parallel > 0 {
		g.SetLimit(parallel)
	}
	for i, s := range scenarios {
		i, s := i, s
		g.Go(func() error {
			res, err := Run(gctx, s)
			if err != nil {
				return fmt.Errorf("scenario %s: %w", s.Name, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func newHarness(ctx context.Context, st *store.Store, scenario *Scenario) (*Harness, error) {
	price, err := fee.ParseCoin(scenario.Config.UnitPrice)
	if err != nil {
		return nil, fmt.Errorf("config.unit_price: %w", err)
	}
	maxLen := scenario.Config.MaxNameLen
	if maxLen == 0 {
		maxLen = defaultMaxNameLen
	}

	if _, err := registry.Init(ctx, st, ir.Config{
		UnitPrice:    price,
		FeeRecipient: scenario.Config.FeeRecipient,
		MaxNameLen:   maxLen,
	}); err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}

	mux := render.NewMux()
	for addr, pages := range scenario.Renderers {
		s, err := render.NewStatic(pages)
		if err != nil {
			return nil, fmt.Errorf("renderers[%s]: %w", addr, err)
		}
		mux.Handle(addr, s)
	}

	reg, err := registry.Open(ctx, st,
		registry.WithAddressValidator(address.NewBech32(scenario.AddressPrefixes...)),
		registry.WithTokenGenerator(testutil.NewSequenceTokenGenerator("op")),
		registry.WithRenderer(mux),
	)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	h := &Harness{
		store:  st,
		reg:    reg,
		clock:  testutil.NewStepClock(Epoch, BlockInterval),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
		sender: scenario.Sender,
	}
	h.executor = fee.NewLedgerExecutor(st, func() time.Time { return h.now })
	return h, nil
}

// runFlowStep executes one flow step, records it in the trace and checks
// its expect clause. A failed operation must leave the state unchanged.
func (h *Harness) runFlowStep(ctx context.Context, i int, step Step, result *Result) error {
	before, err := h.reg.StateDigest(ctx)
	if err != nil {
		return err
	}

	out, opErr := h.runStep(ctx, step)
	outcome := OutcomeOK
	if opErr != nil {
		kind := registry.KindOf(opErr)
		if kind == "" {
			return opErr
		}
		outcome = string(kind)
		out = nil

		after, err := h.reg.StateDigest(ctx)
		if err != nil {
			return err
		}
		if after != before {
			result.AddError(fmt.Sprintf("flow[%d] %s: failed with %s but changed the state", i, step.Op, kind))
		}
	}
	result.AddTrace(step.Op, outcome, out)

	want := OutcomeOK
	if step.Expect != nil && step.Expect.Error != "" {
		want = step.Expect.Error
	}
	if outcome != want {
		msg := fmt.Sprintf("flow[%d] %s: expected %s, got %s", i, step.Op, want, outcome)
		if opErr != nil {
			msg += fmt.Sprintf(" (%v)", opErr)
		}
		result.AddError(msg)
		return nil
	}
	if outcome == OutcomeOK && step.Expect != nil && len(step.Expect.Result) > 0 {
		if diff := matchSubset(out, step.Expect.Result); diff != "" {
			result.AddError(fmt.Sprintf("flow[%d] %s: result mismatch (-want +got):\n%s", i, step.Op, diff))
		}
	}

	h.logger.Info("flow step completed", "step", i, "op", step.Op, "outcome", outcome)
	return nil
}

// runStep executes one operation. Registry failures are returned as
// *registry.Error; any other error means the step itself is malformed or
// the infrastructure failed.
func (h *Harness) runStep(ctx context.Context, step Step) (map[string]any, error) {
	h.now = h.clock.Now()

	sender := step.Sender
	if sender == "" {
		sender = h.sender
	}
	funds, err := fee.ParseCoins(step.Funds)
	if err != nil {
		return nil, fmt.Errorf("funds: %w", err)
	}
	rc := h.reg.NewContext(sender, funds, h.now)
	args := stepArgs(step.Args)

	switch step.Op {
	case OpRegister:
		return h.register(ctx, rc, args)
	case OpUpdateMetadata:
		return h.updateMetadata(ctx, rc, args)
	case OpList:
		return h.list(ctx, args)
	case OpRecord:
		return h.record(ctx, args)
	case OpResolve:
		return h.resolve(ctx, args)
	case OpReverseLookup:
		return h.reverseLookup(ctx, args)
	case OpConfig:
		return configObject(h.reg.Config()), nil
	case OpRender:
		return h.render(ctx, args)
	case OpMigrate:
		previous, err := registry.Migrate(ctx, h.store)
		if err != nil {
			return nil, err
		}
		return map[string]any{"previous": previous.Version}, nil
	default:
		return nil, fmt.Errorf("unknown op %q", step.Op)
	}
}

func (h *Harness) register(ctx context.Context, rc registry.Context, args stepArgs) (map[string]any, error) {
	name, err := args.string("name")
	if err != nil {
		return nil, err
	}
	target, err := args.string("target")
	if err != nil {
		return nil, err
	}
	owner := args.optString("owner", rc.Sender)

	req := registry.RegisterRequest{Name: name, Owner: owner, TargetAddress: target}
	if raw, ok := args["metadata"]; ok {
		var meta ir.NameMetadata
		if err := decodeJSON(raw, &meta); err != nil {
			return nil, fmt.Errorf("metadata: %w", err)
		}
		req.Metadata = &meta
	}

	res, err := h.reg.Register(ctx, rc, req)
	if err != nil {
		return nil, err
	}

	// The host executes effects only after the registration committed.
	if err := h.executor.Execute(ctx, res.Effects); err != nil {
		return nil, err
	}

	effects := make([]any, len(res.Effects))
	for i, e := range res.Effects {
		effects[i] = effectObject(e)
	}
	return map[string]any{
		"canonical_name": res.CanonicalName,
		"owner":          res.Record.Owner,
		"target_address": res.Record.TargetAddress,
		"created_at":     formatTime(res.Record.CreatedAt),
		"effects":        effects,
	}, nil
}

func (h *Harness) updateMetadata(ctx context.Context, rc registry.Context, args stepArgs) (map[string]any, error) {
	name, err := args.string("name")
	if err != nil {
		return nil, err
	}
	var patch ir.MetadataPatch
	if raw, ok := args["patch"]; ok {
		if err := decodeJSON(raw, &patch); err != nil {
			return nil, fmt.Errorf("patch: %w", err)
		}
	}

	merged, err := h.reg.UpdateMetadata(ctx, rc, name, patch)
	if err != nil {
		return nil, err
	}
	return map[string]any{"metadata": ir.MetadataObject(merged)}, nil
}

func (h *Harness) list(ctx context.Context, args stepArgs) (map[string]any, error) {
	limit, err := args.optInt("limit", defaultListLimit)
	if err != nil {
		return nil, err
	}
	req := registry.ListRequest{
		Limit:         limit,
		AddressPrefix: args.optString("prefix", ""),
	}
	if _, ok := args["cursor"]; ok {
		cursor, err := args.string("cursor")
		if err != nil {
			return nil, err
		}
		req.Cursor = &cursor
	}

	res, err := h.reg.ListRecords(ctx, req)
	if err != nil {
		return nil, err
	}
	names := make([]any, len(res.Items))
	for i, item := range res.Items {
		names[i] = item.CanonicalName
	}
	out := map[string]any{"names": names}
	if res.NextCursor != nil {
		out["next_cursor"] = *res.NextCursor
	}
	return out, nil
}

func (h *Harness) record(ctx context.Context, args stepArgs) (map[string]any, error) {
	id, err := args.string("identifier")
	if err != nil {
		return nil, err
	}
	rec, err := h.reg.NameRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	return recordObject(rec), nil
}

func (h *Harness) resolve(ctx context.Context, args stepArgs) (map[string]any, error) {
	id, err := args.string("identifier")
	if err != nil {
		return nil, err
	}
	addr, err := h.reg.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	return map[string]any{"address": addr}, nil
}

func (h *Harness) reverseLookup(ctx context.Context, args stepArgs) (map[string]any, error) {
	addr, err := args.string("address")
	if err != nil {
		return nil, err
	}
	name, ok, err := h.reg.ReverseLookup(ctx, addr)
	if err != nil {
		return nil, err
	}
	out := map[string]any{"found": ok}
	if ok {
		out["name"] = name
	}
	return out, nil
}

func (h *Harness) render(ctx context.Context, args stepArgs) (map[string]any, error) {
	id, err := args.string("identifier")
	if err != nil {
		return nil, err
	}
	path := args.optString("path", "")

	var renderCtx json.RawMessage
	if raw, ok := args["context"]; ok {
		renderCtx, err = json.Marshal(raw)
		if err != nil {
			return nil, fmt.Errorf("context: %w", err)
		}
	}

	out, err := h.reg.Render(ctx, id, path, renderCtx)
	if err != nil {
		return nil, err
	}
	return map[string]any{"output": out}, nil
}

// collectState records the final record names, transfer count and digest.
func (h *Harness) collectState(ctx context.Context, result *Result) error {
	records, err := h.reg.Snapshot(ctx)
	if err != nil {
		return err
	}
	names := make([]string, len(records))
	for i, rec := range records {
		names[i] = rec.CanonicalName
	}
	transfers, err := h.store.ReadTransfers(ctx)
	if err != nil {
		return err
	}
	digest, err := ir.StateDigest(records)
	if err != nil {
		return err
	}

	result.State["records"] = names
	result.State["transfers"] = len(transfers)
	result.State["digest"] = digest
	return nil
}

func recordObject(rec ir.PublicNameRecord) map[string]any {
	return map[string]any{
		"canonical_name": rec.CanonicalName,
		"owner":          rec.Owner,
		"target_address": rec.TargetAddress,
		"created_at":     formatTime(rec.CreatedAt),
		"metadata":       ir.MetadataObject(rec.Metadata),
	}
}

func effectObject(e fee.Effect) map[string]any {
	obj := map[string]any{
		"id":        e.ID,
		"kind":      string(e.Kind),
		"recipient": e.Transfer.Recipient,
		"amount":    e.Transfer.Amount.String(),
	}
	if e.Memo != "" {
		obj["memo"] = e.Memo
	}
	return obj
}

func configObject(cfg ir.Config) map[string]any {
	return map[string]any{
		"unit_price":    cfg.UnitPrice.String(),
		"fee_recipient": cfg.FeeRecipient,
		"max_name_len":  cfg.MaxNameLen,
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
