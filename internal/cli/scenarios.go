package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/merchkit/freegift/internal/harness"
)

// ScenariosOptions holds flags for the scenarios command.
type ScenariosOptions struct {
	*RootOptions
	Filter string // scenario name filter (glob pattern)
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// ScenariosResult holds the overall run result.
type ScenariosResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewScenariosCommand creates the scenarios command.
func NewScenariosCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ScenariosOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "scenarios <scenarios-dir>",
		Short: "Run decision scenarios against the engine",
		Long: `Run YAML scenario files against the decision engine.

Each scenario describes a cart snapshot, a configuration source and the
expected decision. The real engine evaluates every scenario and each
divergence from the expectation is reported.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, unparseable scenarios)

Examples:
  freegift scenarios ./scenarios
  freegift scenarios ./scenarios --filter "flag-*"
  freegift scenarios ./scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern on the name")

	return cmd
}

func runScenarios(opts *ScenariosOptions, dir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", dir))
	}

	scenarios, err := harness.LoadDir(dir)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenarios", err)
	}

	if opts.Filter != "" {
		filtered := scenarios[:0]
		for _, s := range scenarios {
			ok, matchErr := filepath.Match(opts.Filter, s.Name)
			if matchErr != nil {
				return WrapExitError(ExitCommandError, "invalid filter pattern", matchErr)
			}
			if ok {
				filtered = append(filtered, s)
			}
		}
		scenarios = filtered
	}

	formatter.VerboseLog("running %d scenario(s) from %s", len(scenarios), dir)

	result := ScenariosResult{
		Scenarios: make([]ScenarioResult, 0, len(scenarios)),
		Total:     len(scenarios),
	}
	for _, s := range scenarios {
		res := harness.Run(s)
		result.Scenarios = append(result.Scenarios, ScenarioResult{
			Name:   s.Name,
			Pass:   res.Pass,
			Errors: res.Errors,
		})
		if res.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if opts.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		printScenariosText(cmd, result)
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

func printScenariosText(cmd *cobra.Command, result ScenariosResult) {
	out := cmd.OutOrStdout()
	for _, s := range result.Scenarios {
		status := "PASS"
		if !s.Pass {
			status = "FAIL"
		}
		fmt.Fprintf(out, "%s  %s\n", status, s.Name)
		for _, e := range s.Errors {
			fmt.Fprintf(out, "      %s\n", e)
		}
	}
	fmt.Fprintf(out, "\n%d passed, %d failed, %d total\n",
		result.Passed, result.Failed, result.Total)
}
