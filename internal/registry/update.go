package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/namereg/internal/ir"
	"github.com/roach88/namereg/internal/store"
)

// UpdateMetadata merges patch into the metadata of name and returns the
// merged metadata.
//
// Only the record owner may update: any other sender fails NotAuthorized
// whatever the patch contains, valid or not. The patch is validated before
// anything is written. An all-Unchanged patch writes nothing.
func (r *Registry) UpdateMetadata(ctx context.Context, rc Context, name string, patch ir.MetadataPatch) (merged ir.NameMetadata, err error) {
	defer func() { r.metrics.observe("update_metadata", err) }()

	canonical := ir.CanonicalName(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	rec, err := r.store.ReadRecord(ctx, canonical)
	if errors.Is(err, store.ErrNotFound) {
		return ir.NameMetadata{}, newError(KindNotFound, "name %s not found", canonical)
	}
	if err != nil {
		return ir.NameMetadata{}, fmt.Errorf("update metadata: %w", err)
	}

	if rc.Sender != rec.Owner {
		return ir.NameMetadata{}, newError(KindNotAuthorized, "you are not the owner of this name")
	}

	if err := r.limits.Validate(patch); err != nil {
		return ir.NameMetadata{}, err
	}

	current, err := r.store.ReadMetadata(ctx, canonical)
	if errors.Is(err, store.ErrNotFound) {
		slog.Warn("record without metadata", "name", canonical)
		return ir.NameMetadata{}, newError(KindNotFound, "name %s has no metadata", canonical)
	}
	if err != nil {
		return ir.NameMetadata{}, fmt.Errorf("update metadata: %w", err)
	}

	if patch.IsEmpty() {
		slog.Debug("empty metadata patch", "name", canonical)
		return current, nil
	}

	merged = patch.Apply(current)
	if err := r.store.WriteMetadata(ctx, canonical, merged); err != nil {
		return ir.NameMetadata{}, fmt.Errorf("update metadata: %w", err)
	}

	slog.Info("metadata updated", "name", canonical, "sender", rc.Sender)
	return merged, nil
}
