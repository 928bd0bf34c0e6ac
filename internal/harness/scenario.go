package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/relate/internal/environment"
	"github.com/roach88/relate/internal/model"
)

// Scenario defines a relationship test scenario.
// Scenarios execute a flow of operations against a seeded container and
// assert on the resulting trace and final provider state.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Specs lists paths to CUE spec files holding container definitions.
	Specs []string `yaml:"specs"`

	// Container names the container under test. May be empty when the
	// specs define exactly one container.
	Container string `yaml:"container,omitempty"`

	// Backend overrides the backend of every declared provider.
	Backend string `yaml:"backend,omitempty"`

	// Input holds the request parameters, e.g. {pid: "tl_article::a1"}.
	Input map[string]string `yaml:"input,omitempty"`

	// Fixtures seeds providers before the flow. Each record needs an "id".
	Fixtures Fixtures `yaml:"fixtures,omitempty"`

	// Flow contains the operations with expected results.
	Flow []FlowStep `yaml:"flow"`

	// Assertions validate the final trace and state.
	Assertions []Assertion `yaml:"assertions"`

	// IDPrefix prefixes the ids of records created by the flow.
	// Defaults to "new-".
	IDPrefix string `yaml:"id_prefix,omitempty"`
}

// FlowStep is one operation of the flow. Record references are
// "provider::id" tokens.
type FlowStep struct {
	Op      string `yaml:"op"`
	Parent  string `yaml:"parent,omitempty"`
	Record  string `yaml:"record,omitempty"`
	Sibling string `yaml:"sibling,omitempty"`

	// Expect specifies the expected outcome.
	// If nil, the step only has to succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies expected step behavior. Only the given fields
// are checked.
type ExpectClause struct {
	// IDs are the expected record tokens, in order.
	IDs []string `yaml:"ids,omitempty"`

	// Match is the expected answer of is_child and is_root.
	Match *bool `yaml:"match,omitempty"`

	// Filter is the expected formatted filter of base_config.
	Filter string `yaml:"filter,omitempty"`

	// Properties is a subset of the properties of the written record.
	Properties map[string]any `yaml:"properties,omitempty"`

	// Error is a substring of the expected error. The step must fail.
	Error string `yaml:"error,omitempty"`
}

// Assertion validates trace or final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_contains": Check op appears in trace with args
	// - "trace_order": Check ops appear in order
	// - "trace_count": Check op appears exactly N times
	// - "final_state": Fetch a record and verify expected properties
	// - "record_count": Check a provider holds exactly N records
	Type string `yaml:"type"`

	// Op is the operation name (trace_contains, trace_count).
	Op string `yaml:"op,omitempty"`

	// Args are the expected step args (trace_contains). Subset match.
	Args map[string]any `yaml:"args,omitempty"`

	// Ops is the expected operation order (trace_order).
	Ops []string `yaml:"ops,omitempty"`

	// Provider and ID address the record (final_state, record_count).
	Provider string `yaml:"provider,omitempty"`
	ID       string `yaml:"id,omitempty"`

	// Expect contains expected properties (final_state). Subset match.
	Expect map[string]any `yaml:"expect,omitempty"`

	// Count is the expected number (trace_count, record_count).
	Count int `yaml:"count,omitempty"`
}

// Operation names.
const (
	OpChildren    = "children"
	OpRoots       = "roots"
	OpParent      = "parent"
	OpIsChild     = "is_child"
	OpIsRoot      = "is_root"
	OpCreateChild = "create_child"
	OpCreateRoot  = "create_root"
	OpPasteAfter  = "paste_after"
	OpBaseConfig  = "base_config"
)

// Ops lists every operation name.
var Ops = []string{
	OpChildren, OpRoots, OpParent, OpIsChild, OpIsRoot,
	OpCreateChild, OpCreateRoot, OpPasteAfter, OpBaseConfig,
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
	AssertRecordCount   = "record_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Spec paths are resolved relative to the scenario file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving spec paths relative to the provided base path.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	// Resolve spec paths relative to base path BEFORE validation
	for i, specPath := range scenario.Specs {
		if !filepath.IsAbs(specPath) && basePath != "" {
			scenario.Specs[i] = filepath.Join(basePath, specPath)
		}
	}

	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return scenario, nil
}

// ParseScenario decodes scenario YAML without validating it.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Specs) == 0 {
		return fmt.Errorf("specs list is required and must be non-empty")
	}

	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	switch s.Backend {
	case "", environment.BackendMemory, environment.BackendSQLite:
	default:
		return fmt.Errorf("unknown backend %q", s.Backend)
	}

	for _, specPath := range s.Specs {
		if _, err := os.Stat(specPath); os.IsNotExist(err) {
			return fmt.Errorf("spec file not found: %s", specPath)
		}
	}

	for provider, records := range s.Fixtures {
		for i, rec := range records {
			if _, ok := rec["id"]; !ok {
				return fmt.Errorf("fixtures.%s[%d]: id is required", provider, i)
			}
		}
	}

	for i, step := range s.Flow {
		if err := step.Validate(); err != nil {
			return fmt.Errorf("flow[%d]: %w", i, err)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// Validate checks that the op is known and that the references it needs
// are present and well-formed.
func (step FlowStep) Validate() error {
	needs := map[string][]string{
		OpChildren:    nil,
		OpRoots:       nil,
		OpParent:      {"record"},
		OpIsChild:     {"parent", "record"},
		OpIsRoot:      {"record"},
		OpCreateChild: {"parent"},
		OpCreateRoot:  nil,
		OpPasteAfter:  {"sibling", "record"},
		OpBaseConfig:  nil,
	}
	required, ok := needs[step.Op]
	if !ok {
		if step.Op == "" {
			return fmt.Errorf("op is required")
		}
		return fmt.Errorf("unknown op %q", step.Op)
	}

	refs := map[string]string{"parent": step.Parent, "record": step.Record, "sibling": step.Sibling}
	for _, name := range required {
		if refs[name] == "" {
			return fmt.Errorf("%s is required for %s", name, step.Op)
		}
	}
	for _, name := range []string{"parent", "record", "sibling"} {
		if refs[name] == "" {
			continue
		}
		if _, err := model.ParseID(refs[name]); err != nil {
			return fmt.Errorf("%s: %w", name, err)
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
	case AssertTraceContains:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Ops) == 0 {
			return fmt.Errorf("assertions[%d]: ops list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalState:
		if a.Provider == "" || a.ID == "" {
			return fmt.Errorf("assertions[%d]: provider and id are required for final_state", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	case AssertRecordCount:
		if a.Provider == "" {
			return fmt.Errorf("assertions[%d]: provider is required for record_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for record_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
