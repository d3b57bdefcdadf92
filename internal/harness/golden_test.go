package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalTrace_Canonical(t *testing.T) {
	result := NewResult("golden")
	result.AddTrace(OpRegister, "NAME_EXISTS", nil)
	result.AddTrace(OpList, OutcomeOK, map[string]any{
		"names":       []any{"b", "a"},
		"next_cursor": "a",
	})
	result.AddTrace(OpConfig, OutcomeOK, map[string]any{"max_name_len": 64, "unit_price": "1juno"})

	data, err := MarshalTrace("golden", result)
	require.NoError(t, err)

	want := `{"scenario_name":"golden","trace":[` +
		`{"index":0,"op":"register","outcome":"NAME_EXISTS"},` +
		`{"index":1,"op":"list","outcome":"ok","result":{"names":["b","a"],"next_cursor":"a"}},` +
		`{"index":2,"op":"config","outcome":"ok","result":{"max_name_len":64,"unit_price":"1juno"}}]}`
	assert.Equal(t, want, string(data))
}

func TestMarshalTrace_EmptyTrace(t *testing.T) {
	data, err := MarshalTrace("empty", NewResult("empty"))
	require.NoError(t, err)
	assert.Equal(t, `{"scenario_name":"empty","trace":[]}`, string(data))
}

func TestMarshalTrace_RejectsFloats(t *testing.T) {
	result := NewResult("floats")
	result.AddTrace(OpConfig, OutcomeOK, map[string]any{"price": 1.5})

	_, err := MarshalTrace("floats", result)
	require.Error(t, err)
}

func TestAssertGolden_Metadata(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/metadata_and_queries.yaml")
	require.NoError(t, err)

	result, err := RunWithGolden(t, s)
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	// Re-asserting an existing result must not rerun the scenario.
	require.NoError(t, AssertGolden(t, s.Name, result))
}
