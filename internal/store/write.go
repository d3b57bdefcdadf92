package store

import (
	"context"
	"fmt"

	"github.com/roach88/namereg/internal/ir"
)

// WriteInit writes the registry config and the version marker in one
// transaction. The config row is write-once: a second call returns
// ErrConfigExists and leaves both rows untouched.
func (s *Store) WriteInit(ctx context.Context, cfg ir.Config, version ir.ContractVersion) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write init: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	result, err := tx.ExecContext(ctx, `
		INSERT INTO config
		(id, unit_price_denom, unit_price_amount, fee_recipient, max_name_len)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		cfg.UnitPrice.Denom,
		formatAmount(cfg.UnitPrice.Amount),
		cfg.FeeRecipient,
		cfg.MaxNameLen,
	)
	if err != nil {
		return fmt.Errorf("write init: insert config: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("write init: rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrConfigExists
	}

	if err := writeVersion(ctx, tx, version); err != nil {
		return fmt.Errorf("write init: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write init: commit: %w", err)
	}
	return nil
}

// WriteVersion replaces the version marker.
func (s *Store) WriteVersion(ctx context.Context, version ir.ContractVersion) error {
	if err := writeVersion(ctx, s.db, version); err != nil {
		return fmt.Errorf("write version: %w", err)
	}
	return nil
}

func writeVersion(ctx context.Context, db execer, version ir.ContractVersion) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO contract_version (id, contract, version)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET contract = excluded.contract, version = excluded.version
	`, version.Contract, version.Version)
	if err != nil {
		return fmt.Errorf("upsert version: %w", err)
	}
	return nil
}

// InsertName atomically writes a name record, its metadata and its reverse
// index row. Returns ErrNameExists (and writes nothing) if the canonical
// name is already taken.
//
// Callers are expected to check for the name first; the ON CONFLICT guard
// here keeps the invariant even if they don't.
func (s *Store) InsertName(ctx context.Context, canonicalName string, rec ir.NameRecord, meta ir.NameMetadata) error {
	metaJSON, err := marshalMetadata(meta)
	if err != nil {
		return fmt.Errorf("insert name: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert name: begin tx: %w", err)
	}
	defer tx.Rollback()

	// Step 1: claim the name (unique primary key)
	result, err := tx.ExecContext(ctx, `
		INSERT INTO name_records (canonical_name, owner, target_address, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(canonical_name) DO NOTHING
	`,
		canonicalName,
		rec.Owner,
		rec.TargetAddress,
		toUnixNano(rec.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert name: insert record: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert name: rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNameExists
	}

	// Step 2: metadata, created with the record
	_, err = tx.ExecContext(ctx, `
		INSERT INTO name_metadata (canonical_name, metadata)
		VALUES (?, ?)
	`, canonicalName, metaJSON)
	if err != nil {
		return fmt.Errorf("insert name: insert metadata: %w", err)
	}

	// Step 3: reverse index
	_, err = tx.ExecContext(ctx, `
		INSERT INTO address_index (target_address, canonical_name)
		VALUES (?, ?)
	`, rec.TargetAddress, canonicalName)
	if err != nil {
		return fmt.Errorf("insert name: insert address index: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert name: commit: %w", err)
	}
	return nil
}

// WriteMetadata replaces the stored metadata of an existing name.
// Returns ErrNotFound if the name has no metadata row.
func (s *Store) WriteMetadata(ctx context.Context, canonicalName string, meta ir.NameMetadata) error {
	metaJSON, err := marshalMetadata(meta)
	if err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE name_metadata SET metadata = ? WHERE canonical_name = ?
	`, metaJSON, canonicalName)
	if err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("write metadata: rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// WriteTransfer appends an executed transfer to the transfer log.
// Uses ON CONFLICT(id) DO NOTHING for idempotency: re-executing the same
// directive returns inserted=false.
func (s *Store) WriteTransfer(ctx context.Context, t ir.Transfer) (inserted bool, err error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO transfers (id, recipient, denom, amount, memo, executed_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		t.ID,
		t.Recipient,
		t.Amount.Denom,
		formatAmount(t.Amount.Amount),
		t.Memo,
		toUnixNano(t.ExecutedAt),
	)
	if err != nil {
		return false, fmt.Errorf("write transfer: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("write transfer: rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}
