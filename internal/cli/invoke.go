package cli

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/relate/internal/basecfg"
	"github.com/roach88/relate/internal/environment"
	"github.com/roach88/relate/internal/harness"
	"github.com/roach88/relate/internal/store"
)

// Error codes of operations and scenarios.
const (
	ErrCodeOperationFailed = "E010" // The operation returned an error
	ErrCodeTestFailed      = "E011" // One or more scenarios failed
)

// InvokeOptions holds flags for the invoke command.
type InvokeOptions struct {
	*RootOptions
	Container string
	DB        string            // SQLite database; memory providers when empty
	Fixtures  string            // fixtures seeded before the operation
	Parent    string            // "provider::id"
	Record    string            // "provider::id"
	Sibling   string            // "provider::id"
	Input     map[string]string // request parameters
}

// NewInvokeCommand creates the invoke command.
func NewInvokeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InvokeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "invoke <op> <spec>...",
		Short: "Run one relationship operation",
		Long: `Run one relationship operation against a container.

Operations: ` + strings.Join(harness.Ops, ", ") + `

With --db every provider reads and writes the SQLite database.
Without it providers live in memory and start with the --fixtures
records, so created records are not kept.

Examples:
  relate invoke children ./specs --db ./data.db --parent tl_page::1
  relate invoke base_config ./specs/content.cue --input pid=tl_article::a1 --fixtures ./fixtures.yaml`,
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInvoke(opts, args[0], args[1:], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Container, "container", "", "container name (optional with a single container)")
	cmd.Flags().StringVar(&opts.DB, "db", "", "path to SQLite database")
	cmd.Flags().StringVar(&opts.Fixtures, "fixtures", "", "path to fixtures YAML")
	cmd.Flags().StringVar(&opts.Parent, "parent", "", "parent record (provider::id)")
	cmd.Flags().StringVar(&opts.Record, "record", "", "record (provider::id)")
	cmd.Flags().StringVar(&opts.Sibling, "sibling", "", "sibling record (provider::id)")
	cmd.Flags().StringToStringVar(&opts.Input, "input", nil, "request parameters (key=value)")

	return cmd
}

func runInvoke(opts *InvokeOptions, op string, specs []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	step := harness.FlowStep{Op: op, Parent: opts.Parent, Record: opts.Record, Sibling: opts.Sibling}
	if err := step.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid operation", err)
	}

	backend := environment.BackendMemory
	dbPath := ":memory:"
	if opts.DB != "" {
		backend = environment.BackendSQLite
		dbPath = opts.DB
	}
	c, err := harness.LoadContainer(specs, opts.Container, backend)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load container", err)
	}

	var st *store.Store
	if environment.NeedsStore(c) {
		st, err = store.Open(dbPath)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer st.Close()
	}

	providers, err := environment.OpenProviders(c, st, nil)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open providers", err)
	}

	if opts.Fixtures != "" {
		fixtures, err := harness.LoadFixtures(opts.Fixtures)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load fixtures", err)
		}
		if _, err := harness.Seed(cmd.Context(), providers, fixtures); err != nil {
			return WrapExitError(ExitCommandError, "failed to seed fixtures", err)
		}
	}

	env := environment.New(c, providers,
		environment.WithInput(basecfg.Params(opts.Input)),
		environment.WithLogger(logger),
	)
	event := harness.New(env, providers, logger).Execute(cmd.Context(), 1, step)

	return outputInvokeEvent(formatter, event)
}

// outputInvokeEvent prints the outcome of one operation.
func outputInvokeEvent(formatter *OutputFormatter, event harness.TraceEvent) error {
	if event.Outcome == harness.OutcomeError {
		_ = formatter.Error(ErrCodeOperationFailed, event.Error, event.Args)
		return NewExitError(ExitFailure, fmt.Sprintf("%s failed: %s", event.Op, event.Error))
	}

	if formatter.Format == "json" {
		return formatter.Success(event)
	}

	fmt.Fprintf(formatter.Writer, "✓ %s\n", event.Op)
	switch result := event.Result.(type) {
	case []any:
		if len(result) == 0 {
			fmt.Fprintln(formatter.Writer, "  (no records)")
		}
		for _, id := range result {
			fmt.Fprintf(formatter.Writer, "  %v\n", id)
		}
	case map[string]any:
		for _, key := range slices.Sorted(maps.Keys(result)) {
			fmt.Fprintf(formatter.Writer, "  %s: %v\n", key, result[key])
		}
	default:
		fmt.Fprintf(formatter.Writer, "  %v\n", result)
	}
	return nil
}
