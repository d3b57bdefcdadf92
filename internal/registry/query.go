package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/namereg/internal/address"
	"github.com/roach88/namereg/internal/ir"
	"github.com/roach88/namereg/internal/render"
	"github.com/roach88/namereg/internal/store"
)

// Config returns the registry config.
func (r *Registry) Config() ir.Config {
	return r.config
}

// Resolve maps an identifier to a target address. A valid address is
// returned unchanged; anything else is looked up as a name.
func (r *Registry) Resolve(ctx context.Context, identifier string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolve(ctx, identifier)
}

func (r *Registry) resolve(ctx context.Context, identifier string) (string, error) {
	if address.IsValid(r.address, identifier) {
		return identifier, nil
	}
	rec, err := r.store.ReadRecord(ctx, ir.CanonicalName(identifier))
	if errors.Is(err, store.ErrNotFound) {
		return "", newError(KindNotFound, "could not resolve an address from %s", identifier)
	}
	if err != nil {
		return "", fmt.Errorf("resolve: %w", err)
	}
	return rec.TargetAddress, nil
}

// ReverseLookup returns the lowest canonical name whose record targets
// addr.
func (r *Registry) ReverseLookup(ctx context.Context, addr string) (string, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	name, err := r.store.ReverseLookup(ctx, addr)
	if errors.Is(err, store.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reverse lookup: %w", err)
	}
	return name, true, nil
}

// NameRecord returns the public record for a name or a target address.
// An address is mapped to a name through the reverse index.
func (r *Registry) NameRecord(ctx context.Context, identifier string) (rec ir.PublicNameRecord, err error) {
	defer func() { r.metrics.observe("name_record", err) }()

	r.mu.RLock()
	defer r.mu.RUnlock()

	canonical := ir.CanonicalName(identifier)
	if address.IsValid(r.address, identifier) {
		name, err := r.store.ReverseLookup(ctx, identifier)
		if errors.Is(err, store.ErrNotFound) {
			return ir.PublicNameRecord{}, newError(KindNotFound, "no name targets %s", identifier)
		}
		if err != nil {
			return ir.PublicNameRecord{}, fmt.Errorf("name record: %w", err)
		}
		canonical = name
	}

	nr, err := r.store.ReadRecord(ctx, canonical)
	if errors.Is(err, store.ErrNotFound) {
		return ir.PublicNameRecord{}, newError(KindNotFound, "name %s not found", canonical)
	}
	if err != nil {
		return ir.PublicNameRecord{}, fmt.Errorf("name record: %w", err)
	}

	meta, err := r.store.ReadMetadata(ctx, canonical)
	if errors.Is(err, store.ErrNotFound) {
		return ir.PublicNameRecord{}, newError(KindNotFound, "name %s has no metadata", canonical)
	}
	if err != nil {
		return ir.PublicNameRecord{}, fmt.Errorf("name record: %w", err)
	}

	return publicRecord(canonical, nr, meta), nil
}

// Render resolves identifier and forwards path and context to the
// renderer for the resulting address, returning its output unchanged.
// The read lock is released before the renderer is called.
func (r *Registry) Render(ctx context.Context, identifier, path string, renderCtx json.RawMessage) (out string, err error) {
	defer func() { r.metrics.observe("render", err) }()

	addr, err := r.Resolve(ctx, identifier)
	if err != nil {
		return "", err
	}
	if r.renderer == nil {
		return "", fmt.Errorf("render %s: %w", addr, render.ErrNoRenderer)
	}

	out, err = r.renderer.Render(ctx, addr, render.Params{Path: path, Context: renderCtx})
	if err != nil {
		return "", fmt.Errorf("render: %w", err)
	}
	return out, nil
}
