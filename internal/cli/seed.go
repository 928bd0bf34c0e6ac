package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/relate/internal/environment"
	"github.com/roach88/relate/internal/harness"
	"github.com/roach88/relate/internal/store"
)

// SeedOptions holds flags for the seed command.
type SeedOptions struct {
	*RootOptions
	DB        string // database path
	Fixtures  string // fixtures YAML path
	Container string // container name
}

// SeedResult holds the result of seeding.
type SeedResult struct {
	Container string `json:"container"`
	DB        string `json:"db"`
	Records   int    `json:"records"`
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SeedOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "seed <spec>...",
		Short: "Load fixture records into a SQLite database",
		Long: `Load fixture records into a SQLite database.

Every provider of the container is stored in the database, whatever
backend its definition declares. Records with an existing id are
replaced.

Example:
  relate seed ./specs --db ./data.db --fixtures ./fixtures/pages.yaml`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.Fixtures, "fixtures", "", "path to fixtures YAML (required)")
	cmd.Flags().StringVar(&opts.Container, "container", "", "container name (optional with a single container)")
	_ = cmd.MarkFlagRequired("db")
	_ = cmd.MarkFlagRequired("fixtures")

	return cmd
}

func runSeed(opts *SeedOptions, specs []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	c, err := harness.LoadContainer(specs, opts.Container, environment.BackendSQLite)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load container", err)
	}

	fixtures, err := harness.LoadFixtures(opts.Fixtures)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load fixtures", err)
	}

	st, err := store.Open(opts.DB)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	providers, err := environment.OpenProviders(c, st, nil)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open providers", err)
	}

	n, err := harness.Seed(cmd.Context(), providers, fixtures)
	if err != nil {
		return WrapExitError(ExitFailure, fmt.Sprintf("seeding stopped after %d record(s)", n), err)
	}
	logger.Debug("fixtures seeded", "container", c.Name, "db", opts.DB, "records", n)

	if formatter.Format == "json" {
		return formatter.Success(SeedResult{Container: c.Name, DB: opts.DB, Records: n})
	}
	fmt.Fprintf(formatter.Writer, "✓ Seeded %d record(s) into %s\n", n, opts.DB)
	return nil
}
