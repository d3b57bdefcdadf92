package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/namereg/internal/ir"
	"github.com/roach88/namereg/internal/store"
)

// ListRequest selects a page of records.
//
// Cursor is the canonical name of the last record of the previous page.
// AddressPrefix, when non-empty, keeps only records whose target address
// starts with it.
type ListRequest struct {
	Cursor        *string
	Limit         int
	AddressPrefix string
}

// ListResult is one page. NextCursor is nil once no matching record
// remains after Items.
type ListResult struct {
	Items      []ir.PublicNameRecord `json:"name_records"`
	NextCursor *string               `json:"next_cursor"`
}

// ListRecords returns up to req.Limit records in ascending canonical name
// order, starting strictly after req.Cursor.
//
// Limit is checked before storage is touched. The scan reads one matching
// row past the page to decide whether NextCursor is set, so a short page
// caused by filtering never ends the enumeration early.
func (r *Registry) ListRecords(ctx context.Context, req ListRequest) (res ListResult, err error) {
	defer func() { r.metrics.observe("list_records", err) }()

	if req.Limit > MaxPageLimit {
		return ListResult{}, newError(KindTooManyRecords, "too many records requested; maximum limit is %d", MaxPageLimit)
	}
	if req.Limit < 0 {
		return ListResult{}, newError(KindValidation, "limit must not be negative")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if req.Cursor != nil {
		ok, err := r.store.HasName(ctx, *req.Cursor)
		if err != nil {
			return ListResult{}, fmt.Errorf("list records: %w", err)
		}
		if !ok {
			return ListResult{}, newError(KindNotFound, "name %s not found", *req.Cursor)
		}
	}

	items := make([]ir.PublicNameRecord, 0, req.Limit)
	more := false
	err = r.store.ScanRecords(ctx, req.Cursor, func(row store.ScannedRecord) (bool, error) {
		if !strings.HasPrefix(row.Record.TargetAddress, req.AddressPrefix) {
			return true, nil
		}
		if len(items) == req.Limit {
			more = true
			return false, nil
		}
		if row.Metadata == nil {
			return false, newError(KindNotFound, "name %s has no metadata", row.CanonicalName)
		}
		items = append(items, publicRecord(row.CanonicalName, row.Record, *row.Metadata))
		return true, nil
	})
	if err != nil {
		if KindOf(err) != "" {
			return ListResult{}, err
		}
		return ListResult{}, fmt.Errorf("list records: %w", err)
	}

	res.Items = items
	if more && len(items) > 0 {
		next := items[len(items)-1].CanonicalName
		res.NextCursor = &next
	}
	return res, nil
}

// Snapshot returns every record in canonical name order.
func (r *Registry) Snapshot(ctx context.Context) ([]ir.PublicNameRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []ir.PublicNameRecord
	err := r.store.ScanRecords(ctx, nil, func(row store.ScannedRecord) (bool, error) {
		if row.Metadata == nil {
			return false, newError(KindNotFound, "name %s has no metadata", row.CanonicalName)
		}
		out = append(out, publicRecord(row.CanonicalName, row.Record, *row.Metadata))
		return true, nil
	})
	if err != nil {
		if KindOf(err) != "" {
			return nil, err
		}
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	return out, nil
}

// StateDigest hashes the full record set. Equal digests mean equal state.
func (r *Registry) StateDigest(ctx context.Context) (string, error) {
	records, err := r.Snapshot(ctx)
	if err != nil {
		return "", err
	}
	return ir.StateDigest(records)
}

func publicRecord(canonical string, rec ir.NameRecord, meta ir.NameMetadata) ir.PublicNameRecord {
	return ir.PublicNameRecord{
		Owner:         rec.Owner,
		CanonicalName: canonical,
		TargetAddress: rec.TargetAddress,
		CreatedAt:     rec.CreatedAt,
		Metadata:      meta,
	}
}
