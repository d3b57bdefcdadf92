package harness

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/go-cmp/cmp"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s -> %s\n", event.Index, event.Op, event.Outcome)
		}
	}
	return buf.String()
}

// matchSubset compares expected keys against actual (subset match; extra
// keys in actual are ignored). An expected null matches an absent key.
// Returns "" on match, otherwise a diff.
func matchSubset(actual, expected map[string]any) string {
	na, err := normalize(actual)
	if err != nil {
		return fmt.Sprintf("cannot normalize actual: %v", err)
	}
	ne, err := normalize(expected)
	if err != nil {
		return fmt.Sprintf("cannot normalize expected: %v", err)
	}
	am, _ := na.(map[string]any)
	em, _ := ne.(map[string]any)

	keys := make([]string, 0, len(em))
	for k := range em {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var diffs []string
	for _, k := range keys {
		want := em[k]
		got, present := am[k]
		if want == nil {
			if present && got != nil {
				diffs = append(diffs, fmt.Sprintf("%s: want absent, got %v", k, got))
			}
			continue
		}
		if !present {
			diffs = append(diffs, fmt.Sprintf("%s: missing", k))
			continue
		}
		if d := cmp.Diff(want, got); d != "" {
			diffs = append(diffs, fmt.Sprintf("%s:\n%s", k, d))
		}
	}
	return strings.Join(diffs, "\n")
}

// assertRecordCount checks the number of records in the final state.
func assertRecordCount(result *Result, a Assertion) error {
	names, _ := result.State["records"].([]string)
	if len(names) != a.Count {
		return &AssertionError{
			Type:     AssertRecordCount,
			Expected: fmt.Sprintf("%d records", a.Count),
			Actual:   fmt.Sprintf("%d records %v", len(names), names),
		}
	}
	return nil
}

// assertTransferCount checks the number of executed transfers.
func assertTransferCount(result *Result, a Assertion) error {
	n, _ := result.State["transfers"].(int)
	if n != a.Count {
		return &AssertionError{
			Type:     AssertTransferCount,
			Expected: fmt.Sprintf("%d transfers", a.Count),
			Actual:   fmt.Sprintf("%d transfers", n),
		}
	}
	return nil
}

// assertTraceCount checks how many flow steps match op (and outcome, if
// given).
func assertTraceCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Op != a.Op {
			continue
		}
		if a.Outcome != "" && event.Outcome != a.Outcome {
			continue
		}
		count++
	}

	if count != a.Count {
		what := a.Op
		if a.Outcome != "" {
			what += " with outcome " + a.Outcome
		}
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", a.Count, what),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertRecord loads a record from the registry and subset-matches it.
func (h *Harness) assertRecord(ctx context.Context, a Assertion) error {
	rec, err := h.reg.NameRecord(ctx, a.Name)
	if err != nil {
		return &AssertionError{
			Type:     AssertRecord,
			Expected: fmt.Sprintf("record %s", a.Name),
			Actual:   err.Error(),
		}
	}
	if diff := matchSubset(recordObject(rec), a.Expect); diff != "" {
		return &AssertionError{
			Type:     AssertRecord,
			Expected: fmt.Sprintf("record %s matching %v", a.Name, a.Expect),
			Actual:   diff,
		}
	}
	return nil
}

// evaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func (h *Harness) evaluateAssertions(ctx context.Context, result *Result, assertions []Assertion) []string {
	var errors []string

	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertRecordCount:
			err = assertRecordCount(result, a)
		case AssertTransferCount:
			err = assertTransferCount(result, a)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, a)
		case AssertRecord:
			err = h.assertRecord(ctx, a)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, a.Type)
		}
		if err != nil {
			errors = append(errors, err.Error())
		}
	}
	return errors
}
