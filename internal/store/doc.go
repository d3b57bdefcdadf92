// Package store provides SQLite-backed durable storage for the name registry.
//
// The store holds:
//   - Config: the write-once registry configuration
//   - Name records and their metadata (always written together)
//   - The reverse address index (written in the registering transaction)
//   - The transfer log (written by the host after a registration committed)
//
// # Critical Patterns
//
// Atomic registration:
//   - InsertName writes record, metadata and reverse index in ONE transaction
//   - A failed insert rolls back every row; no record exists without metadata
//
// Ordered enumeration:
//   - name_records is a WITHOUT ROWID table keyed by canonical_name
//   - ScanRecords walks it with ORDER BY canonical_name COLLATE BINARY and an
//     exclusive lower bound, so pages are deterministic and restartable
//
// Canonical metadata:
//   - Metadata is stored as RFC 8785 canonical JSON (ir.MarshalCanonical)
//   - Equal metadata is byte-identical on disk
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//   - One open connection: SQLite has a single writer
package store
