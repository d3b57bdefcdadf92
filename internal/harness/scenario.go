package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/namereg/internal/registry"
)

// Scenario defines a registry conformance scenario.
// A scenario initializes a fresh registry, runs setup steps that must
// succeed, then runs flow steps with expectations and finally evaluates
// assertions against the trace and the final state.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Config is passed to Init.
	Config ScenarioConfig `yaml:"config"`

	// AddressPrefixes restricts accepted bech32 prefixes. Empty accepts any.
	AddressPrefixes []string `yaml:"address_prefixes,omitempty"`

	// Sender is the default sender for steps that do not set one.
	Sender string `yaml:"sender,omitempty"`

	// Renderers maps a target address to its static pages (path -> template).
	Renderers map[string]map[string]string `yaml:"renderers,omitempty"`

	// Setup steps run before the flow and must all succeed.
	// They are not part of the trace.
	Setup []Step `yaml:"setup,omitempty"`

	// Flow contains the steps under test.
	Flow []Step `yaml:"flow"`

	// Assertions validate the final trace and state.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// ScenarioConfig is the registry config of a scenario.
type ScenarioConfig struct {
	UnitPrice    string `yaml:"unit_price"`
	FeeRecipient string `yaml:"fee_recipient"`
	MaxNameLen   int    `yaml:"max_name_len,omitempty"`
}

// Step is one registry operation.
type Step struct {
	// Op is one of the Op* constants.
	Op string `yaml:"op"`

	// Sender overrides Scenario.Sender.
	Sender string `yaml:"sender,omitempty"`

	// Funds are attached coins, e.g. "1juno,5atom".
	Funds string `yaml:"funds,omitempty"`

	// Args are the operation arguments. See the package documentation for
	// the arguments of each op.
	Args map[string]any `yaml:"args,omitempty"`

	// Expect specifies the expected outcome. Nil expects success.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected outcome of a step.
type ExpectClause struct {
	// Error is the expected registry error kind, e.g. "NAME_EXISTS".
	// Empty expects success.
	Error string `yaml:"error,omitempty"`

	// Result is a subset match against the step result.
	Result map[string]any `yaml:"result,omitempty"`
}

// Assertion validates trace or final state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Op and Outcome select trace events (trace_count).
	Op      string `yaml:"op,omitempty"`
	Outcome string `yaml:"outcome,omitempty"`

	// Name selects a record (record).
	Name string `yaml:"name,omitempty"`

	// Expect is a subset match against the record object (record).
	Expect map[string]any `yaml:"expect,omitempty"`

	// Count is the expected number (record_count, transfer_count, trace_count).
	Count int `yaml:"count,omitempty"`
}

// Step operations.
const (
	OpRegister       = "register"
	OpUpdateMetadata = "update_metadata"
	OpList           = "list"
	OpRecord         = "record"
	OpResolve        = "resolve"
	OpReverseLookup  = "reverse_lookup"
	OpConfig         = "config"
	OpRender         = "render"
	OpMigrate        = "migrate"
)

// Assertion types.
const (
	AssertRecordCount   = "record_count"
	AssertTransferCount = "transfer_count"
	AssertRecord        = "record"
	AssertTraceCount    = "trace_count"
)

var knownOps = map[string]bool{
	OpRegister:       true,
	OpUpdateMetadata: true,
	OpList:           true,
	OpRecord:         true,
	OpResolve:        true,
	OpReverseLookup:  true,
	OpConfig:         true,
	OpRender:         true,
	OpMigrate:        true,
}

var knownKinds = map[string]bool{
	string(registry.KindNotFound):           true,
	string(registry.KindNotAuthorized):      true,
	string(registry.KindNameExists):         true,
	string(registry.KindInsufficientFunds):  true,
	string(registry.KindValidation):         true,
	string(registry.KindTooManyRecords):     true,
	string(registry.KindAlreadyInitialized): true,
	string(registry.KindNotInitialized):     true,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadDir loads every *.yaml and *.yml scenario in dir, sorted by file name.
func LoadDir(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario dir: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".yaml" || ext == ".yml" {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Config.UnitPrice == "" {
		return fmt.Errorf("config.unit_price is required")
	}
	if s.Config.FeeRecipient == "" {
		return fmt.Errorf("config.fee_recipient is required")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	for i, step := range s.Setup {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("setup[%d]: %w", i, err)
		}
		if step.Expect != nil {
			return fmt.Errorf("setup[%d]: setup steps cannot have expect", i)
		}
	}
	for i, step := range s.Flow {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("flow[%d]: %w", i, err)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(step Step) error {
	if step.Op == "" {
		return fmt.Errorf("op is required")
	}
	if !knownOps[step.Op] {
		return fmt.Errorf("unknown op %q", step.Op)
	}
	if step.Expect != nil && step.Expect.Error != "" {
		if !knownKinds[step.Expect.Error] {
			return fmt.Errorf("expect: unknown error kind %q", step.Expect.Error)
		}
		if step.Expect.Result != nil {
			return fmt.Errorf("expect: result cannot be combined with error")
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertRecordCount, AssertTransferCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertRecord:
		if a.Name == "" {
			return fmt.Errorf("assertions[%d]: name is required for record", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for record", index)
		}
	case AssertTraceCount:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
