// Package harness runs relationship scenarios against a compiled container.
//
// The harness loads container specs, seeds the declared data providers with
// fixture records, executes a flow of relationship operations through a real
// environment and validates the results as executable contract tests.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	specs:
//	  - path/to/container.cue
//	container: content        # optional when the specs hold one container
//	backend: sqlite           # optional, overrides every provider backend
//	input: { pid: "tl_article::a1" }
//	fixtures:
//	  tl_article:
//	    - { id: a1, title: "First" }
//	flow:
//	  - op: children
//	    parent: "tl_article::a1"
//	    expect:
//	      ids: ["tl_content::c1"]
//	assertions:
//	  - type: trace_contains
//	    op: children
//	    args: { parent: "tl_article::a1" }
//	  - type: final_state
//	    provider: tl_content
//	    id: c1
//	    expect: { pid: "a1" }
//
// Fixture records take their id from the "id" property. Records created by
// the flow get ids from a sequence generator ("new-1", "new-2", ...) so the
// trace is deterministic.
//
// # Operations
//
//   - children: list the current provider under parent (or the "pid" input)
//   - roots: list the root records
//   - parent: fetch the parent of record
//   - is_child: check record against parent
//   - is_root: check record against the root condition
//   - create_child: create a record of the current provider under parent
//   - create_root: create a root record
//   - paste_after: move record next to sibling
//   - base_config: build the base configuration under parent
//
// # Assertion Types
//
//   - trace_contains: an operation appears in the trace with matching args
//   - trace_order: operations appear in the given order
//   - trace_count: an operation appears exactly N times
//   - final_state: a stored record has the expected properties
//   - record_count: a provider holds exactly N records
//
// # Golden Files
//
// RunWithGolden compares the canonical JSON trace with
// testdata/golden/<scenario>.golden. To regenerate:
//
//	go test ./internal/harness -update
package harness
