// Package harness runs registry scenarios as executable contract tests.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	config:
//	  unit_price: 1juno
//	  fee_recipient: juno1...
//	  max_name_len: 64
//	address_prefixes: [juno]
//	sender: alice
//	renderers:
//	  juno1...:
//	    /: "hello {{.who}}"
//	setup:
//	  - op: register
//	    funds: 1juno
//	    args: { name: apple, target: juno1... }
//	flow:
//	  - op: register
//	    funds: 1juno
//	    args: { name: Example, target: juno1... }
//	    expect:
//	      result: { canonical_name: example }
//	  - op: register
//	    funds: 1juno
//	    args: { name: EXAMPLE, target: juno1... }
//	    expect:
//	      error: NAME_EXISTS
//	assertions:
//	  - type: record_count
//	    count: 2
//
// # Operations
//
//   - register: name, target, owner (defaults to the sender), metadata
//   - update_metadata: name, patch (null clears a field)
//   - list: limit (default 10), cursor, prefix
//   - record, resolve: identifier
//   - reverse_lookup: address
//   - render: identifier, path, context
//   - config, migrate: no arguments
//
// A step without expect must succeed. expect.error names the registry
// error kind the step must fail with; expect.result is a subset match on
// the step result. Every failing step is also checked to have left the
// registry state unchanged.
//
// # Assertion Types
//
//   - record_count: number of records in the final state
//   - transfer_count: number of fee transfers executed
//   - record: subset match on a record looked up by name or address
//   - trace_count: number of flow steps with an op (and outcome)
//
// # Deterministic Testing
//
// Each scenario runs against a fresh in-memory SQLite store. Block times
// start at Epoch and advance by BlockInterval per step, and effect IDs are
// "op-1", "op-2", ... in order of registration. Traces are therefore
// byte-identical across runs and are compared against golden files in
// testdata/golden.
package harness
