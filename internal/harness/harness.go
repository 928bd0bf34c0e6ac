package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/roach88/relate/internal/basecfg"
	"github.com/roach88/relate/internal/compiler"
	"github.com/roach88/relate/internal/definition"
	"github.com/roach88/relate/internal/environment"
	"github.com/roach88/relate/internal/filter"
	"github.com/roach88/relate/internal/model"
	"github.com/roach88/relate/internal/provider"
	"github.com/roach88/relate/internal/store"
	"github.com/roach88/relate/internal/testutil"
	"github.com/roach88/relate/internal/value"
)

// DefaultIDPrefix prefixes the ids of records created during a flow.
const DefaultIDPrefix = "new-"

// Harness is the test execution engine.
// It runs one scenario flow against one environment.
type Harness struct {
	env       *environment.Environment
	providers *provider.Set
	logger    *slog.Logger
}

// Option configures Run.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger routes harness and environment logs to logger.
// Default: logs are discarded.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs against fresh providers: memory providers start empty
// and SQLite providers share a fresh in-memory database.
//
// Execution flow:
// 1. Load and compile the container specs
// 2. Open the declared providers and seed the fixtures
// 3. Execute flow steps with expect validation
// 4. Evaluate assertions
//
// The returned error reports setup failures. Failed expectations are
// reported through Result.Errors.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	return RunContext(context.Background(), scenario, opts...)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	o := options{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&o)
	}

	c, err := LoadContainer(scenario.Specs, scenario.Container, scenario.Backend)
	if err != nil {
		return nil, err
	}

	var st *store.Store
	if environment.NeedsStore(c) {
		st, err = store.Open(":memory:")
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory store: %w", err)
		}
		defer st.Close()
	}

	prefix := scenario.IDPrefix
	if prefix == "" {
		prefix = DefaultIDPrefix
	}
	providers, err := environment.OpenProviders(c, st, testutil.NewSequenceIDGenerator(prefix))
	if err != nil {
		return nil, fmt.Errorf("failed to open providers: %w", err)
	}

	seeded, err := Seed(ctx, providers, scenario.Fixtures)
	if err != nil {
		return nil, fmt.Errorf("failed to seed fixtures: %w", err)
	}
	o.logger.Info("fixtures seeded", "scenario", scenario.Name, "records", seeded)

	env := environment.New(c, providers,
		environment.WithInput(basecfg.Params(scenario.Input)),
		environment.WithLogger(o.logger),
	)
	h := New(env, providers, o.logger)

	result := NewResult()
	if err := h.executeFlow(ctx, scenario.Flow, result); err != nil {
		return nil, fmt.Errorf("failed to execute flow: %w", err)
	}

	actx := &AssertionContext{
		Providers: providers,
		Ctx:       ctx,
	}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	return result, nil
}

// LoadContainer compiles specs, selects the named container and validates
// it. A non-empty backend replaces the backend of every provider.
func LoadContainer(specs []string, name, backend string) (*definition.Container, error) {
	loaded, errs := compiler.LoadFiles(specs, compiler.LoadModeCollectAll)
	if len(errs) > 0 {
		return nil, fmt.Errorf("failed to load specs: %w", errors.Join(errs...))
	}
	c, err := loaded.Container(name)
	if err != nil {
		return nil, err
	}

	c = c.Clone()
	if backend != "" {
		for i := range c.Providers {
			c.Providers[i].Backend = backend
		}
	}

	if verrs := compiler.Validate(c); len(verrs) > 0 {
		joined := make([]error, len(verrs))
		for i, e := range verrs {
			joined[i] = e
		}
		return nil, fmt.Errorf("invalid container %s: %w", c.Name, errors.Join(joined...))
	}
	return c, nil
}

// New creates a harness over an existing environment. providers resolves
// the record references of flow steps.
func New(env *environment.Environment, providers *provider.Set, logger *slog.Logger) *Harness {
	if logger == nil {
		logger = slog.Default()
	}
	return &Harness{env: env, providers: providers, logger: logger}
}

// Execute runs one step outside a scenario and returns its trace event.
// The expect clause of step is ignored.
func (h *Harness) Execute(ctx context.Context, seq int64, step FlowStep) TraceEvent {
	event, _, _ := h.step(ctx, seq, step)
	return event
}

// executeFlow runs all flow steps and validates expect clauses.
//
// Each step:
// 1. Resolves record references through the providers
// 2. Executes the operation on the environment
// 3. Records the outcome in the trace
// 4. Validates the expect clause
func (h *Harness) executeFlow(ctx context.Context, flow []FlowStep, result *Result) error {
	for i, step := range flow {
		if err := ctx.Err(); err != nil {
			return err
		}

		event, out, err := h.step(ctx, int64(i+1), step)
		result.AddTrace(event)

		for _, msg := range checkExpect(step, out, err) {
			result.AddError(fmt.Sprintf("flow[%d] %s: %s", i, step.Op, msg))
		}
	}
	return nil
}

func (h *Harness) step(ctx context.Context, seq int64, step FlowStep) (TraceEvent, *stepOutput, error) {
	event := TraceEvent{
		Seq:     seq,
		Op:      step.Op,
		Args:    stepArgs(step),
		Outcome: OutcomeOK,
	}

	out, err := h.execute(ctx, step)
	if err != nil {
		event.Outcome = OutcomeError
		event.Error = err.Error()
	} else {
		event.Result = out.trace()
	}

	h.logger.Info("flow step completed",
		"seq", seq,
		"op", step.Op,
		"outcome", event.Outcome,
	)
	return event, out, err
}

// stepOutput is what one operation produced.
type stepOutput struct {
	ids    []string
	match  *bool
	record *model.Record
	config *provider.Config
}

// trace renders the output for the trace and golden files.
func (o *stepOutput) trace() any {
	switch {
	case o.match != nil:
		return *o.match
	case o.record != nil:
		return map[string]any{
			"id":         model.IDOf(o.record).Serialize(),
			"properties": o.record.Properties(),
		}
	case o.config != nil:
		sorting := make([]any, len(o.config.Sorting))
		for i, f := range o.config.Sorting {
			sorting[i] = f.Property + " " + string(f.Direction)
		}
		return map[string]any{
			"filter":  formatFilter(o.config.Filter),
			"sorting": sorting,
		}
	default:
		ids := make([]any, len(o.ids))
		for i, id := range o.ids {
			ids[i] = id
		}
		return ids
	}
}

func (h *Harness) execute(ctx context.Context, step FlowStep) (*stepOutput, error) {
	switch step.Op {
	case OpChildren:
		parent, err := optionalID(step.Parent)
		if err != nil {
			return nil, err
		}
		records, err := h.env.Children(ctx, parent)
		if err != nil {
			return nil, err
		}
		return &stepOutput{ids: tokens(records)}, nil

	case OpRoots:
		records, err := h.env.Roots(ctx)
		if err != nil {
			return nil, err
		}
		return &stepOutput{ids: tokens(records)}, nil

	case OpParent:
		child, err := h.fetch(ctx, step.Record)
		if err != nil {
			return nil, err
		}
		parent, err := h.env.Parent(ctx, child)
		if err != nil {
			return nil, err
		}
		return &stepOutput{ids: tokens([]*model.Record{parent})}, nil

	case OpIsChild:
		parent, err := h.fetch(ctx, step.Parent)
		if err != nil {
			return nil, err
		}
		child, err := h.fetch(ctx, step.Record)
		if err != nil {
			return nil, err
		}
		ok, err := h.env.IsChildOf(parent, child)
		if err != nil {
			return nil, err
		}
		return &stepOutput{match: &ok}, nil

	case OpIsRoot:
		rec, err := h.fetch(ctx, step.Record)
		if err != nil {
			return nil, err
		}
		ok, err := h.env.IsRoot(rec)
		if err != nil {
			return nil, err
		}
		return &stepOutput{match: &ok}, nil

	case OpCreateChild:
		parent, err := h.fetch(ctx, step.Parent)
		if err != nil {
			return nil, err
		}
		child, err := h.env.CreateChild(ctx, parent)
		if err != nil {
			return nil, err
		}
		return &stepOutput{record: child}, nil

	case OpCreateRoot:
		rec, err := h.env.CreateRoot(ctx)
		if err != nil {
			return nil, err
		}
		return &stepOutput{record: rec}, nil

	case OpPasteAfter:
		sibling, err := h.fetch(ctx, step.Sibling)
		if err != nil {
			return nil, err
		}
		rec, err := h.fetch(ctx, step.Record)
		if err != nil {
			return nil, err
		}
		if err := h.env.PasteAfter(ctx, sibling, rec); err != nil {
			return nil, err
		}
		return &stepOutput{record: rec}, nil

	case OpBaseConfig:
		parent, err := optionalID(step.Parent)
		if err != nil {
			return nil, err
		}
		cfg, err := h.env.BaseConfig(ctx, parent)
		if err != nil {
			return nil, err
		}
		return &stepOutput{config: cfg}, nil

	default:
		return nil, fmt.Errorf("unknown op %q", step.Op)
	}
}

// fetch loads the record a "provider::id" token refers to.
func (h *Harness) fetch(ctx context.Context, token string) (*model.Record, error) {
	id, err := model.ParseID(token)
	if err != nil {
		return nil, err
	}
	p, err := h.providers.Get(id.Provider)
	if err != nil {
		return nil, err
	}
	cfg := p.EmptyConfig()
	cfg.ID = id.ID
	rec, err := p.Fetch(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", token, err)
	}
	return rec, nil
}

// checkExpect compares a step outcome with its expect clause.
func checkExpect(step FlowStep, out *stepOutput, err error) []string {
	expect := step.Expect
	if expect == nil {
		if err != nil {
			return []string{fmt.Sprintf("unexpected error: %v", err)}
		}
		return nil
	}

	if expect.Error != "" {
		if err == nil {
			return []string{fmt.Sprintf("expected error containing %q, got success", expect.Error)}
		}
		if !containsFold(err.Error(), expect.Error) {
			return []string{fmt.Sprintf("expected error containing %q, got %q", expect.Error, err.Error())}
		}
		return nil
	}
	if err != nil {
		return []string{fmt.Sprintf("unexpected error: %v", err)}
	}

	var msgs []string
	if expect.IDs != nil && !slices.Equal(expect.IDs, out.ids) {
		msgs = append(msgs, fmt.Sprintf("expected ids %v, got %v", expect.IDs, out.ids))
	}
	if expect.Match != nil {
		switch {
		case out.match == nil:
			msgs = append(msgs, "expected a match result")
		case *out.match != *expect.Match:
			msgs = append(msgs, fmt.Sprintf("expected match %v, got %v", *expect.Match, *out.match))
		}
	}
	if expect.Filter != "" {
		got := ""
		if out.config != nil {
			got = formatFilter(out.config.Filter)
		}
		if got != expect.Filter {
			msgs = append(msgs, fmt.Sprintf("expected filter %s, got %s", expect.Filter, got))
		}
	}
	if expect.Properties != nil {
		if out.record == nil {
			msgs = append(msgs, "expected a written record")
		} else if msg := matchProperties(out.record, expect.Properties); msg != "" {
			msgs = append(msgs, msg)
		}
	}
	return msgs
}

func optionalID(token string) (*model.ID, error) {
	if token == "" {
		return nil, nil
	}
	id, err := model.ParseID(token)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func tokens(records []*model.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = model.IDOf(r).Serialize()
	}
	return out
}

func stepArgs(step FlowStep) map[string]any {
	args := map[string]any{}
	if step.Parent != "" {
		args["parent"] = step.Parent
	}
	if step.Record != "" {
		args["record"] = step.Record
	}
	if step.Sibling != "" {
		args["sibling"] = step.Sibling
	}
	if len(args) == 0 {
		return nil
	}
	return args
}

func formatFilter(node filter.Node) string {
	if node == nil {
		return ""
	}
	return filter.Format(node)
}

// matchProperties checks expected against the record with canonical JSON
// equality. Returns "" on match.
func matchProperties(rec model.Model, expected map[string]any) string {
	for _, name := range sortedKeys(expected) {
		want, err := value.From(expected[name])
		if err != nil {
			return fmt.Sprintf("property %q: %v", name, err)
		}
		got := rec.Property(name)
		if !canonicalEqual(want, got) {
			return fmt.Sprintf("property %q: expected %s, got %s", name, value.Format(want), value.Format(got))
		}
	}
	return ""
}
