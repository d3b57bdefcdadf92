// Package fee verifies registration payments and carries the transfers
// they produce.
//
// The registry decides whether a payment is sufficient and how much moves
// where; it never moves funds itself. Instead Register returns Effects,
// and the host runs them through an Executor only after the registration
// has committed. LedgerExecutor records executed transfers in the store's
// transfer log. RecordingExecutor keeps them in memory for tests.
package fee
