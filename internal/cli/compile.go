package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/relate/internal/compiler"
	"github.com/roach88/relate/internal/condition"
	"github.com/roach88/relate/internal/definition"
	"github.com/roach88/relate/internal/filter"
	"github.com/roach88/relate/internal/value"
)

// Error codes specific to compile.
const (
	ErrCodeWriteFailed = "E007" // Writing the output file failed
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompilationResult holds the compiled containers.
type CompilationResult struct {
	Containers []ContainerSummary `json:"containers"`
}

// ContainerSummary is the serializable form of a compiled container.
type ContainerSummary struct {
	Name               string                `json:"name"`
	Mode               string                `json:"mode"`
	DataProvider       string                `json:"data_provider"`
	ParentDataProvider string                `json:"parent_data_provider,omitempty"`
	RootDataProvider   string                `json:"root_data_provider,omitempty"`
	AdditionalFilter   []any                 `json:"additional_filter,omitempty"`
	Sorting            []string              `json:"sorting,omitempty"`
	Providers          map[string]string     `json:"providers"`
	Root               *RootSummary          `json:"root,omitempty"`
	Relationships      []RelationshipSummary `json:"relationships,omitempty"`
}

// RootSummary is the serializable form of a root condition.
type RootSummary struct {
	Provider string         `json:"provider"`
	Filter   []any          `json:"filter,omitempty"`
	Setters  map[string]any `json:"setters,omitempty"`
}

// RelationshipSummary is the serializable form of a parent-child
// condition.
type RelationshipSummary struct {
	From    string           `json:"from"`
	To      string           `json:"to"`
	Filter  []any            `json:"filter"`
	Inverse []any            `json:"inverse,omitempty"`
	Setters []map[string]any `json:"setters,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <spec>...",
		Short: "Compile CUE container definitions",
		Long: `Compile CUE container definitions and print them in array form.

Filters and relationship templates are printed as the operation arrays
the definitions accept, so the output can be compared across edits.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, specs []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	loadResult, loadErrors := compiler.LoadFiles(specs, compiler.LoadModeCollectAll)
	if loadResult == nil && len(loadErrors) > 0 {
		var loadErr *compiler.LoadError
		if errors.As(loadErrors[0], &loadErr) {
			return outputCompileError(formatter, loadErr.Code, loadErr.Message, nil)
		}
		return outputCompileError(formatter, compiler.ErrCodeGeneric, loadErrors[0].Error(), nil)
	}

	formatter.VerboseLog("Loaded %d CUE file(s)", loadResult.FileCount)

	if len(loadErrors) > 0 {
		return outputCompileErrors(formatter, loadErrors)
	}

	result := &CompilationResult{Containers: make([]ContainerSummary, 0, len(loadResult.Containers))}
	for _, c := range loadResult.Containers {
		formatter.VerboseLog("Compiled container: %s", c.Name)
		result.Containers = append(result.Containers, Summarize(c))
	}

	if opts.Output != "" {
		if err := writeResultToFile(result, opts.Output); err != nil {
			return outputCompileError(formatter, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
		}
	}

	return outputCompileSuccess(formatter, result, opts.Output)
}

// filterArray renders node in array form. A top-level AND is flattened into
// its children, as condition.TemplateToArray does for templates.
func filterArray(node filter.Node) []any {
	if and, ok := node.(*filter.Conjunction); ok && and.Op == filter.OpAnd {
		return filter.ToArray(and.Children)
	}
	return filter.ToArray([]filter.Node{node})
}

// Summarize converts a compiled container into its serializable form.
func Summarize(c *definition.Container) ContainerSummary {
	s := ContainerSummary{
		Name:               c.Name,
		Mode:               string(c.Basic.Mode),
		DataProvider:       c.Basic.DataProvider,
		ParentDataProvider: c.Basic.ParentDataProvider,
		RootDataProvider:   c.Basic.RootDataProvider,
		Providers:          make(map[string]string, len(c.Providers)),
	}
	if c.Basic.AdditionalFilter != nil {
		s.AdditionalFilter = filterArray(c.Basic.AdditionalFilter)
	}
	for _, f := range c.Listing.DefaultSorting {
		dir := f.Direction
		if dir == "" {
			dir = "ASC"
		}
		s.Sorting = append(s.Sorting, f.Property+" "+string(dir))
	}
	for _, p := range c.Providers {
		backend := p.Backend
		if backend == "" {
			backend = "memory"
		}
		s.Providers[p.Name] = backend
	}

	if c.Relationships == nil {
		return s
	}
	if root := c.Relationships.RootCondition(); root != nil {
		rs := &RootSummary{Provider: root.Provider}
		if root.Filter != nil {
			rs.Filter = filterArray(root.Filter)
		}
		if len(root.Setters) > 0 {
			rs.Setters = make(map[string]any, len(root.Setters))
			for _, setter := range root.Setters {
				rs.Setters[setter.Property] = value.Native(setter.Value)
			}
		}
		s.Root = rs
	}
	for _, cond := range c.Relationships.ChildConditions("") {
		s.Relationships = append(s.Relationships, summarizeCondition(cond))
	}
	return s
}

func summarizeCondition(cond *condition.ParentChildCondition) RelationshipSummary {
	rs := RelationshipSummary{
		From:   cond.Source,
		To:     cond.Destination,
		Filter: condition.TemplateToArray(cond.Filter),
	}
	if cond.Inverse != nil {
		rs.Inverse = condition.TemplateToArray(cond.Inverse)
	}
	for _, setter := range cond.Setters {
		m := map[string]any{"to": setter.ToField}
		if setter.FromField != "" {
			m["from"] = setter.FromField
		} else {
			m["value"] = value.Native(setter.Value)
		}
		rs.Setters = append(rs.Setters, m)
	}
	return rs
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, result *CompilationResult, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ Compiled %d container(s)\n\n", len(result.Containers))
	for _, c := range result.Containers {
		fmt.Fprintf(formatter.Writer, "  %s: %s on %s, %d provider(s), %d relationship(s)\n",
			c.Name, c.Mode, c.DataProvider, len(c.Providers), len(c.Relationships))
		for _, r := range c.Relationships {
			fmt.Fprintf(formatter.Writer, "    %s → %s\n", r.From, r.To)
		}
	}
	fmt.Fprintln(formatter.Writer)

	if outputFile != "" {
		fmt.Fprintf(formatter.Writer, "Wrote containers to %s\n", outputFile)
	}
	return nil
}

// outputCompileError outputs a single compilation error.
func outputCompileError(formatter *OutputFormatter, code, message string, details any) error {
	_ = formatter.Error(code, message, details)
	// Compilation errors are command-level errors (exit code 2)
	return WrapExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message), nil)
}

// outputCompileErrors outputs multiple compilation errors.
func outputCompileErrors(formatter *OutputFormatter, errs []error) error {
	if formatter.Format == "json" {
		cliErrors := make([]CLIError, len(errs))
		for i, err := range errs {
			code, message := parseCompileError(err)
			cliErrors[i] = CLIError{Code: code, Message: message}
		}

		response := CLIResponse{
			Status: "error",
			Error:  &cliErrors[0],
			Data:   cliErrors, // Include all errors in data
		}
		if err := formatter.JSON(response); err != nil {
			return err
		}
		return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Compilation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		code, message := parseCompileError(err)
		var loadErr *compiler.LoadError
		if errors.As(err, &loadErr) && loadErr.Pos.IsValid() {
			fmt.Fprintf(formatter.Writer, "%s:%d:%d\n",
				loadErr.Pos.Filename(),
				loadErr.Pos.Line(),
				loadErr.Pos.Column())
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", code, message)
	}

	return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
}

// parseCompileError extracts error code and message from an error.
func parseCompileError(err error) (string, string) {
	var loadErr *compiler.LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code, loadErr.Message
	}
	return compiler.ErrCodeGeneric, err.Error()
}

// writeResultToFile writes the compilation result as canonical JSON.
func writeResultToFile(result *CompilationResult, filename string) error {
	containers := make([]any, len(result.Containers))
	for i, c := range result.Containers {
		containers[i] = summaryMap(c)
	}
	data, err := value.MarshalCanonical(map[string]any{"containers": containers})
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}
	return os.WriteFile(filename, data, 0644)
}

// summaryMap converts a summary into plain maps for canonical encoding.
func summaryMap(c ContainerSummary) map[string]any {
	m := map[string]any{
		"name":          c.Name,
		"mode":          c.Mode,
		"data_provider": c.DataProvider,
	}
	providers := make(map[string]any, len(c.Providers))
	for name, backend := range c.Providers {
		providers[name] = backend
	}
	m["providers"] = providers
	if c.ParentDataProvider != "" {
		m["parent_data_provider"] = c.ParentDataProvider
	}
	if c.RootDataProvider != "" {
		m["root_data_provider"] = c.RootDataProvider
	}
	if c.AdditionalFilter != nil {
		m["additional_filter"] = c.AdditionalFilter
	}
	if len(c.Sorting) > 0 {
		sorting := make([]any, len(c.Sorting))
		for i, s := range c.Sorting {
			sorting[i] = s
		}
		m["sorting"] = sorting
	}
	if c.Root != nil {
		root := map[string]any{"provider": c.Root.Provider}
		if c.Root.Filter != nil {
			root["filter"] = c.Root.Filter
		}
		if c.Root.Setters != nil {
			root["setters"] = c.Root.Setters
		}
		m["root"] = root
	}
	if len(c.Relationships) > 0 {
		rels := make([]any, len(c.Relationships))
		for i, r := range c.Relationships {
			rel := map[string]any{"from": r.From, "to": r.To, "filter": r.Filter}
			if r.Inverse != nil {
				rel["inverse"] = r.Inverse
			}
			if len(r.Setters) > 0 {
				setters := make([]any, len(r.Setters))
				for j, s := range r.Setters {
					setters[j] = s
				}
				rel["setters"] = setters
			}
			rels[i] = rel
		}
		m["relationships"] = rels
	}
	return m
}
