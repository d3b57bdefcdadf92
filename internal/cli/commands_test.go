package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	targetA = "juno1qyqszqgpqyqszqgpqyqszqgpqyqszqgpypz92q"
	targetB = "juno1qgpqyqszqgpqyqszqgpqyqszqgpqyqsz49yqpk"
	feeAddr = "juno1lml0alh7lml0alh7lml0alh7lml0alh7gsr2d2"
)

const testConfig = `registry: {
	unit_price: {denom: "juno", amount: 1}
	fee_recipient: "` + feeAddr + `"
	max_name_len: 32
}
address_prefixes: ["juno"]
`

// workspace holds a database and config under a temp dir.
type workspace struct {
	db     string
	config string
	dir    string
}

func newWorkspace(t *testing.T) *workspace {
	t.Helper()
	dir := t.TempDir()
	cfg := filepath.Join(dir, "registry.cue")
	require.NoError(t, os.WriteFile(cfg, []byte(testConfig), 0644))
	return &workspace{db: filepath.Join(dir, "namereg.db"), config: cfg, dir: dir}
}

// run executes the root command against the workspace database.
func (w *workspace) run(args ...string) (string, error) {
	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--db", w.db, "--config", w.config}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (w *workspace) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := w.run(args...)
	require.NoError(t, err, out)
	return out
}

// runJSON executes with --format json and decodes the response.
func (w *workspace) runJSON(t *testing.T, args ...string) (CLIResponse, error) {
	t.Helper()
	out, err := w.run(append([]string{"--format", "json"}, args...)...)
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	return resp, err
}

func TestInitRequiresConfig(t *testing.T) {
	dir := t.TempDir()
	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetArgs([]string{"--db", filepath.Join(dir, "x.db"), "init"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out.String(), "init requires --config")
}

func TestInitOnce(t *testing.T) {
	w := newWorkspace(t)

	out := w.mustRun(t, "init")
	assert.Contains(t, out, "unit_price: 1juno")
	assert.Contains(t, out, "max_name_len: 32")

	resp, err := w.runJSON(t, "init")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, "ALREADY_INITIALIZED", resp.Error.Code)
}

func TestCommandsBeforeInit(t *testing.T) {
	w := newWorkspace(t)

	resp, err := w.runJSON(t, "config")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, "NOT_INITIALIZED", resp.Error.Code)

	resp, err = w.runJSON(t, "migrate")
	require.Error(t, err)
	assert.Equal(t, "NOT_INITIALIZED", resp.Error.Code)
}

func TestRegisterAndQuery(t *testing.T) {
	w := newWorkspace(t)
	w.mustRun(t, "init")

	out := w.mustRun(t, "register", "Example", targetA,
		"--sender", "alice", "--funds", "1juno", "--block-time", "2024-03-01T00:00:00Z",
		"--meta", `{"title":"Example site","keywords":["demo"]}`)
	assert.Contains(t, out, "registered example -> "+targetA+" (owner alice)")
	assert.Contains(t, out, "1juno to "+feeAddr)

	out = w.mustRun(t, "config")
	assert.Contains(t, out, "fee_recipient: "+feeAddr)

	out = w.mustRun(t, "resolve", "EXAMPLE")
	assert.Equal(t, targetA+"\n", out)

	out = w.mustRun(t, "record", targetA)
	assert.Contains(t, out, "name: example")
	assert.Contains(t, out, "title: Example site")
	assert.Contains(t, out, "keywords: [demo]")
	assert.Contains(t, out, "created: 2024-03-01T00:00:00Z")

	out = w.mustRun(t, "transfers")
	assert.Contains(t, out, "1 transfer(s)")
	assert.Contains(t, out, feeAddr)
}

func TestRegisterFailures(t *testing.T) {
	w := newWorkspace(t)
	w.mustRun(t, "init")
	w.mustRun(t, "register", "example", targetA, "--sender", "alice", "--funds", "1juno")

	tests := []struct {
		name string
		args []string
		code string
	}{
		{"duplicate", []string{"register", "EXAMPLE", targetB, "--sender", "bob", "--funds", "1juno"}, "NAME_EXISTS"},
		{"no funds", []string{"register", "other", targetB, "--sender", "bob"}, "INSUFFICIENT_FUNDS"},
		{"wrong denom", []string{"register", "other", targetB, "--sender", "bob", "--funds", "5atom"}, "INSUFFICIENT_FUNDS"},
		{"bad address", []string{"register", "other", "cosmos1qyqszqgpqyqszqgpqyqszqgpqyqszqgpjnp7du", "--sender", "bob", "--funds", "1juno"}, "VALIDATION_ERROR"},
		{"name too long", []string{"register", "abcdefghijklmnopqrstuvwxyz0123456", targetB, "--sender", "bob", "--funds", "1juno"}, "VALIDATION_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := w.runJSON(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitFailure, GetExitCode(err))
			assert.Equal(t, "error", resp.Status)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}

	// Failed registrations leave no trace in the transfer log.
	out := w.mustRun(t, "transfers")
	assert.Contains(t, out, "1 transfer(s)")
}

func TestRegisterBadFlags(t *testing.T) {
	w := newWorkspace(t)
	w.mustRun(t, "init")

	_, err := w.run("register", "example", targetA, "--sender", "alice", "--funds", "one juno")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = w.run("register", "example", targetA, "--sender", "alice", "--funds", "1juno", "--meta", `{"bogus":1}`)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = w.run("register", "example", targetA, "--sender", "alice", "--funds", "1juno", "--block-time", "yesterday")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = w.run("register", "example", targetA, "--funds", "1juno")
	require.Error(t, err, "sender is required")
}

func TestUpdateMetadata(t *testing.T) {
	w := newWorkspace(t)
	w.mustRun(t, "init")
	w.mustRun(t, "register", "docs", targetA, "--sender", "alice", "--funds", "1juno",
		"--meta", `{"title":"Docs","keywords":["go"]}`)

	resp, err := w.runJSON(t, "update-metadata", "docs", "--sender", "bob", "--patch", `{"title":"Hacked"}`)
	require.Error(t, err)
	assert.Equal(t, "NOT_AUTHORIZED", resp.Error.Code)

	resp, err = w.runJSON(t, "update-metadata", "missing", "--sender", "alice")
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)

	out := w.mustRun(t, "update-metadata", "DOCS", "--sender", "alice", "--patch", `{"description":"Reference","keywords":null}`)
	assert.Contains(t, out, "updated docs")
	assert.Contains(t, out, "description: Reference")

	resp, err = w.runJSON(t, "record", "docs")
	require.NoError(t, err)
	rec := resp.Data.(map[string]any)
	meta := rec["metadata"].(map[string]any)
	assert.Equal(t, "Docs", meta["title"])
	assert.Equal(t, "Reference", meta["description"])
	assert.Equal(t, []any{}, meta["keywords"])
}

func TestRecordsPagination(t *testing.T) {
	w := newWorkspace(t)
	w.mustRun(t, "init")
	for _, name := range []string{"cherry", "apple", "banana"} {
		target := targetB
		if name == "cherry" {
			target = targetA
		}
		w.mustRun(t, "register", name, target, "--sender", "alice", "--funds", "1juno")
	}

	resp, err := w.runJSON(t, "records", "--limit", "2")
	require.NoError(t, err)
	page := resp.Data.(map[string]any)
	items := page["name_records"].([]any)
	require.Len(t, items, 2)
	assert.Equal(t, "apple", items[0].(map[string]any)["canonical_name"])
	assert.Equal(t, "banana", page["next_cursor"])

	out := w.mustRun(t, "records", "--limit", "2", "--cursor", "banana")
	assert.Contains(t, out, "cherry -> "+targetA)
	assert.Contains(t, out, "(end)")

	out = w.mustRun(t, "records", "--prefix", "juno1qyqs")
	assert.Contains(t, out, "cherry")
	assert.NotContains(t, out, "apple")

	resp, err = w.runJSON(t, "records", "--limit", "31")
	require.Error(t, err)
	assert.Equal(t, "TOO_MANY_RECORDS", resp.Error.Code)

	resp, err = w.runJSON(t, "records", "--cursor", "zebra")
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}

func TestRender(t *testing.T) {
	w := newWorkspace(t)
	w.mustRun(t, "init")
	w.mustRun(t, "register", "docs", targetA, "--sender", "alice", "--funds", "1juno")

	table := filepath.Join(w.dir, "renderers.yaml")
	require.NoError(t, os.WriteFile(table, []byte("renderers:\n  "+targetA+":\n    pages:\n      /: \"Hello {{.who}}\"\n"), 0644))

	out := w.mustRun(t, "render", "docs", "/", "--context", `{"who":"world"}`, "--renderers", table)
	assert.Equal(t, "Hello world\n", out)

	_, err := w.run("render", "docs", "/", "--context", "{not json", "--renderers", table)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	resp, err := w.runJSON(t, "render", "nobody", "/", "--renderers", table)
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}

func TestMigrate(t *testing.T) {
	w := newWorkspace(t)
	w.mustRun(t, "init")

	resp, err := w.runJSON(t, "migrate")
	require.NoError(t, err)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "0.1.0", data["previous"].(map[string]any)["version"])
	assert.Equal(t, "0.1.0", data["current"].(map[string]any)["version"])
}

func TestMetricsDump(t *testing.T) {
	w := newWorkspace(t)
	w.mustRun(t, "init")

	errOut := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(errOut)
	cmd.SetArgs([]string{"--db", w.db, "--config", w.config, "--metrics",
		"register", "example", targetA, "--sender", "alice", "--funds", "1juno"})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, errOut.String(), "namereg_")
}
