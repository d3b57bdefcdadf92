package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchSubset(t *testing.T) {
	actual := map[string]any{
		"names":        []any{"a", "b"},
		"count":        uint64(3),
		"max_name_len": 64,
		"metadata":     map[string]any{"keywords": []string{}},
		"found":        true,
	}

	tests := []struct {
		name     string
		expected map[string]any
		match    bool
	}{
		{"empty expectation", map[string]any{}, true},
		{"extra actual keys ignored", map[string]any{"found": true}, true},
		{"yaml int matches uint64", map[string]any{"count": 3}, true},
		{"yaml int matches int", map[string]any{"max_name_len": 64}, true},
		{"list", map[string]any{"names": []any{"a", "b"}}, true},
		{"list order matters", map[string]any{"names": []any{"b", "a"}}, false},
		{"empty keywords", map[string]any{"metadata": map[string]any{"keywords": []any{}}}, true},
		{"null matches absent", map[string]any{"next_cursor": nil}, true},
		{"null does not match present", map[string]any{"found": nil}, false},
		{"missing key", map[string]any{"cursor": "a"}, false},
		{"wrong value", map[string]any{"found": false}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diff := matchSubset(actual, tt.expected)
			if tt.match {
				assert.Empty(t, diff)
			} else {
				assert.NotEmpty(t, diff)
			}
		})
	}
}

func TestAssertTraceCount(t *testing.T) {
	trace := []TraceEvent{
		{Index: 0, Op: OpRegister, Outcome: OutcomeOK},
		{Index: 1, Op: OpRegister, Outcome: "NAME_EXISTS"},
		{Index: 2, Op: OpList, Outcome: OutcomeOK},
	}

	assert.NoError(t, assertTraceCount(trace, Assertion{Op: OpRegister, Count: 2}))
	assert.NoError(t, assertTraceCount(trace, Assertion{Op: OpRegister, Outcome: "NAME_EXISTS", Count: 1}))
	assert.NoError(t, assertTraceCount(trace, Assertion{Op: OpRender, Count: 0}))

	err := assertTraceCount(trace, Assertion{Op: OpList, Outcome: "TOO_MANY_RECORDS", Count: 1})
	var ae *AssertionError
	assert.ErrorAs(t, err, &ae)
	assert.Contains(t, err.Error(), "list with outcome TOO_MANY_RECORDS")
	assert.Contains(t, err.Error(), "[1] register -> NAME_EXISTS")
}

func TestAssertRecordCount(t *testing.T) {
	result := NewResult("r")
	result.State["records"] = []string{"a", "b"}

	assert.NoError(t, assertRecordCount(result, Assertion{Count: 2}))
	assert.Error(t, assertRecordCount(result, Assertion{Count: 1}))
}
