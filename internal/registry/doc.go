// Package registry implements the name registry state machine.
//
// A Registry owns one SQLite store and is the single-writer boundary for
// it: Register and UpdateMetadata run under an exclusive lock, queries under
// a shared one. Every mutating operation validates first and then writes in
// one transaction, so a failure leaves the store unchanged.
//
// Operations take a Context carrying the immutable Config together with the
// caller identity, attached funds and block time. Register does not move
// funds. It returns fee.Effects that the host executes after the call has
// returned successfully.
//
// All domain failures are *Error values with a Kind. Storage errors are
// wrapped and returned as-is.
package registry
