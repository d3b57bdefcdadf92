package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/namereg/internal/address"
	"github.com/roach88/namereg/internal/fee"
	"github.com/roach88/namereg/internal/ir"
	"github.com/roach88/namereg/internal/render"
	"github.com/roach88/namereg/internal/store"
)

// Registry is the name registry over one store.
//
// Thread-safety model:
//   - Register, UpdateMetadata: exclusive (write lock held for validation
//     and the write transaction)
//   - queries: shared (read lock)
//
// The store must not be written by anything else while a Registry is open.
type Registry struct {
	mu       sync.RWMutex
	store    *store.Store
	config   ir.Config
	limits   Limits
	address  address.Validator
	gateway  fee.Gateway
	tokens   fee.TokenGenerator
	renderer render.Renderer
	metrics  *Metrics
}

// Option configures a Registry.
type Option func(*Registry)

// WithLimits overrides DefaultLimits.
func WithLimits(l Limits) Option {
	return func(r *Registry) {
		r.limits = l
	}
}

// WithAddressValidator sets the address syntax check.
// Default: address.NewBech32() accepting any prefix.
func WithAddressValidator(v address.Validator) Option {
	return func(r *Registry) {
		r.address = v
	}
}

// WithGateway sets the fee gateway. Default: fee.NativeGateway.
func WithGateway(g fee.Gateway) Option {
	return func(r *Registry) {
		r.gateway = g
	}
}

// WithTokenGenerator sets the generator for effect IDs.
// Default: fee.UUIDv7Generator.
func WithTokenGenerator(g fee.TokenGenerator) Option {
	return func(r *Registry) {
		r.tokens = g
	}
}

// WithRenderer sets the renderer used by Render.
func WithRenderer(rd render.Renderer) Option {
	return func(r *Registry) {
		r.renderer = rd
	}
}

// WithMetrics enables Prometheus metrics.
func WithMetrics(m *Metrics) Option {
	return func(r *Registry) {
		r.metrics = m
	}
}

// Context is the per-call environment of an operation.
//
// Config is the immutable registry config, threaded explicitly into every
// call. Sender is the caller identity, Funds the coins attached to the
// call, and BlockTime the time stamped onto new records.
type Context struct {
	Config    ir.Config
	Sender    string
	Funds     []ir.Coin
	BlockTime time.Time
}

// Open loads the config from an initialized store and returns a Registry.
// Returns a NotInitialized error if Init has not run.
func Open(ctx context.Context, st *store.Store, opts ...Option) (*Registry, error) {
	cfg, err := st.ReadConfig(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return nil, newError(KindNotInitialized, "registry has no config; run init first")
	}
	if err != nil {
		return nil, fmt.Errorf("open registry: %w", err)
	}

	r := &Registry{
		store:   st,
		config:  cfg,
		limits:  DefaultLimits,
		address: address.NewBech32(),
		gateway: fee.NativeGateway{},
		tokens:  fee.UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.metrics != nil {
		n, err := st.CountNames(ctx)
		if err != nil {
			return nil, fmt.Errorf("open registry: %w", err)
		}
		r.metrics.setRecords(n)
	}
	return r, nil
}

// NewContext builds a Context carrying the registry's config.
func (r *Registry) NewContext(sender string, funds []ir.Coin, blockTime time.Time) Context {
	return Context{
		Config:    r.config,
		Sender:    sender,
		Funds:     funds,
		BlockTime: blockTime,
	}
}

// Init validates cfg and writes it together with the version marker.
// Config is write-once: a second Init fails AlreadyInitialized.
// MaxNameLen below 1 is raised to 1. Returns the config as stored.
func Init(ctx context.Context, st *store.Store, cfg ir.Config) (ir.Config, error) {
	if err := fee.ValidateDenom(cfg.UnitPrice.Denom); err != nil {
		return ir.Config{}, newError(KindValidation, "unit price: %v", err)
	}
	if cfg.FeeRecipient == "" {
		return ir.Config{}, newError(KindValidation, "fee recipient must not be empty")
	}
	if cfg.MaxNameLen < 1 {
		cfg.MaxNameLen = 1
	}

	err := st.WriteInit(ctx, cfg, ir.CurrentVersion())
	if errors.Is(err, store.ErrConfigExists) {
		return ir.Config{}, newError(KindAlreadyInitialized, "registry config is already set")
	}
	if err != nil {
		return ir.Config{}, fmt.Errorf("init: %w", err)
	}

	slog.Info("registry initialized",
		"unit_price", cfg.UnitPrice.String(),
		"fee_recipient", cfg.FeeRecipient,
		"max_name_len", cfg.MaxNameLen)
	return cfg, nil
}

// Migrate rewrites the version marker to the current version. It does not
// transform state. Returns the previous marker (zero if none).
func Migrate(ctx context.Context, st *store.Store) (previous ir.ContractVersion, err error) {
	if _, err := st.ReadConfig(ctx); errors.Is(err, store.ErrNotFound) {
		return ir.ContractVersion{}, newError(KindNotInitialized, "registry has no config; run init first")
	} else if err != nil {
		return ir.ContractVersion{}, fmt.Errorf("migrate: %w", err)
	}

	previous, err = st.ReadVersion(ctx)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return ir.ContractVersion{}, fmt.Errorf("migrate: %w", err)
	}

	current := ir.CurrentVersion()
	if err := st.WriteVersion(ctx, current); err != nil {
		return ir.ContractVersion{}, fmt.Errorf("migrate: %w", err)
	}

	slog.Info("registry migrated", "from", previous.Version, "to", current.Version)
	return previous, nil
}
