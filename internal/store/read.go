package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/namereg/internal/ir"
)

// ReadConfig returns the registry config.
// Returns ErrNotFound if Init has not run.
func (s *Store) ReadConfig(ctx context.Context) (ir.Config, error) {
	var cfg ir.Config
	var amount string
	err := s.db.QueryRowContext(ctx, `
		SELECT unit_price_denom, unit_price_amount, fee_recipient, max_name_len
		FROM config
		WHERE id = 1
	`).Scan(&cfg.UnitPrice.Denom, &amount, &cfg.FeeRecipient, &cfg.MaxNameLen)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.Config{}, ErrNotFound
	}
	if err != nil {
		return ir.Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg.UnitPrice.Amount, err = parseAmount(amount)
	if err != nil {
		return ir.Config{}, fmt.Errorf("read config: %w", err)
	}
	return cfg, nil
}

// ReadVersion returns the version marker.
// Returns ErrNotFound if none was written.
func (s *Store) ReadVersion(ctx context.Context) (ir.ContractVersion, error) {
	var v ir.ContractVersion
	err := s.db.QueryRowContext(ctx, `
		SELECT contract, version FROM contract_version WHERE id = 1
	`).Scan(&v.Contract, &v.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.ContractVersion{}, ErrNotFound
	}
	if err != nil {
		return ir.ContractVersion{}, fmt.Errorf("read version: %w", err)
	}
	return v, nil
}

// HasName reports whether a record exists for the canonical name.
func (s *Store) HasName(ctx context.Context, canonicalName string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM name_records WHERE canonical_name = ?
	`, canonicalName).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check name: %w", err)
	}
	return count > 0, nil
}

// ReadRecord retrieves the record for a canonical name.
// Returns ErrNotFound if absent.
func (s *Store) ReadRecord(ctx context.Context, canonicalName string) (ir.NameRecord, error) {
	var rec ir.NameRecord
	var createdAt int64
	err := s.db.QueryRowContext(ctx, `
		SELECT owner, target_address, created_at
		FROM name_records
		WHERE canonical_name = ?
	`, canonicalName).Scan(&rec.Owner, &rec.TargetAddress, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.NameRecord{}, ErrNotFound
	}
	if err != nil {
		return ir.NameRecord{}, fmt.Errorf("read record: %w", err)
	}
	rec.CreatedAt = fromUnixNano(createdAt)
	return rec, nil
}

// ReadMetadata retrieves the metadata for a canonical name.
// Returns ErrNotFound if absent.
func (s *Store) ReadMetadata(ctx context.Context, canonicalName string) (ir.NameMetadata, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `
		SELECT metadata FROM name_metadata WHERE canonical_name = ?
	`, canonicalName).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.NameMetadata{}, ErrNotFound
	}
	if err != nil {
		return ir.NameMetadata{}, fmt.Errorf("read metadata: %w", err)
	}
	return unmarshalMetadata(data)
}

// ReverseLookup returns the lowest canonical name targeting address.
// Returns ErrNotFound if no record targets it.
func (s *Store) ReverseLookup(ctx context.Context, address string) (string, error) {
	var name string
	err := s.db.QueryRowContext(ctx, `
		SELECT canonical_name
		FROM address_index
		WHERE target_address = ?
		ORDER BY canonical_name COLLATE BINARY ASC
		LIMIT 1
	`, address).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("reverse lookup: %w", err)
	}
	return name, nil
}

// CountNames returns the number of registered names.
func (s *Store) CountNames(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM name_records`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count names: %w", err)
	}
	return count, nil
}

// ScannedRecord is one row produced by ScanRecords.
// Metadata is nil if the record has no metadata row, which callers must
// treat as an invariant violation.
type ScannedRecord struct {
	CanonicalName string
	Record        ir.NameRecord
	Metadata      *ir.NameMetadata
}

// ScanRecords walks name records in ascending canonical_name order
// (COLLATE BINARY), starting strictly after `after` when it is non-nil.
//
// visit is called once per row; returning false stops the scan. visit must
// not call back into the Store: the scan holds the single connection.
func (s *Store) ScanRecords(ctx context.Context, after *string, visit func(ScannedRecord) (bool, error)) error {
	query := `
		SELECT r.canonical_name, r.owner, r.target_address, r.created_at, m.metadata
		FROM name_records r
		LEFT JOIN name_metadata m ON m.canonical_name = r.canonical_name
	`
	var args []any
	if after != nil {
		query += ` WHERE r.canonical_name > ? COLLATE BINARY`
		args = append(args, *after)
	}
	query += ` ORDER BY r.canonical_name COLLATE BINARY ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("scan records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var row ScannedRecord
		var createdAt int64
		var metaJSON sql.NullString
		if err := rows.Scan(
			&row.CanonicalName, &row.Record.Owner, &row.Record.TargetAddress, &createdAt, &metaJSON,
		); err != nil {
			return fmt.Errorf("scan records: %w", err)
		}
		row.Record.CreatedAt = fromUnixNano(createdAt)

		if metaJSON.Valid {
			meta, err := unmarshalMetadata(metaJSON.String)
			if err != nil {
				return fmt.Errorf("scan records: %s: %w", row.CanonicalName, err)
			}
			row.Metadata = &meta
		}

		more, err := visit(row)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate records: %w", err)
	}
	return nil
}

// ReadTransfers returns the transfer log in execution order.
// Returns an empty slice (not nil) if no transfers exist.
func (s *Store) ReadTransfers(ctx context.Context) ([]ir.Transfer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, recipient, denom, amount, memo, executed_at
		FROM transfers
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query transfers: %w", err)
	}
	defer rows.Close()

	transfers := []ir.Transfer{}
	for rows.Next() {
		var t ir.Transfer
		var amount string
		var executedAt int64
		if err := rows.Scan(&t.ID, &t.Recipient, &t.Amount.Denom, &amount, &t.Memo, &executedAt); err != nil {
			return nil, fmt.Errorf("scan transfer: %w", err)
		}
		if t.Amount.Amount, err = parseAmount(amount); err != nil {
			return nil, fmt.Errorf("scan transfer: %w", err)
		}
		t.ExecutedAt = fromUnixNano(executedAt)
		transfers = append(transfers, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transfers: %w", err)
	}
	return transfers, nil
}
