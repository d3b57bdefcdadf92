// Package ir provides the canonical data model for the name registry.
//
// This package contains type definitions and pure helpers only. All other
// internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - NO float types anywhere - coin amounts are uint64
//   - canonical_name is the only record identity (see CanonicalName)
//   - Patch fields are tri-state (Unchanged, Clear, Set), never overloaded nil
//   - All JSON tags use snake_case
package ir
