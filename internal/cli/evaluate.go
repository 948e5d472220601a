package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/merchkit/freegift/internal/decision"
)

// EvaluateOptions holds flags for the evaluate command.
type EvaluateOptions struct {
	*RootOptions

	// StaticOffered/StaticFree select the compiled-in fallback
	// configuration instead of the input's metafield.
	StaticOffered string
	StaticFree    string
}

// NewEvaluateCommand creates the evaluate command.
func NewEvaluateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvaluateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "evaluate <input.json>",
		Short: "Evaluate the discount decision for a cart snapshot",
		Long: `Evaluate the free-gift discount decision for one cart snapshot.

The input file carries the host-shaped evaluation input: the cart lines
and attributes, plus the discount node with its configuration metafield.
The decision is printed to stdout.

By default the configuration comes from the input's metafield. Passing
--static-offered and --static-free ignores the metafield and evaluates
against a fixed variant pair instead.

Examples:
  freegift evaluate ./input.json
  freegift evaluate ./input.json --format json
  freegift evaluate ./input.json --static-offered gid://V1 --static-free gid://V2`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvaluate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.StaticOffered, "static-offered", "", "offered variant id for static configuration")
	cmd.Flags().StringVar(&opts.StaticFree, "static-free", "", "free variant id for static configuration")
	cmd.MarkFlagsRequiredTogether("static-offered", "static-free")

	return cmd
}

func runEvaluate(opts *EvaluateOptions, inputPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	raw, err := os.ReadFile(inputPath)
	if err != nil {
		_ = formatter.Error(ErrCodeInput, fmt.Sprintf("cannot read input: %v", err), nil)
		return WrapExitError(ExitCommandError, "cannot read input", err)
	}

	var input decision.Input
	if err := json.Unmarshal(raw, &input); err != nil {
		_ = formatter.Error(ErrCodeInput, fmt.Sprintf("malformed input: %v", err), nil)
		return WrapExitError(ExitCommandError, "malformed input", err)
	}

	var resolver decision.Resolver = decision.MetafieldResolver{}
	if opts.StaticOffered != "" {
		resolver = decision.StaticResolver{Config: decision.Config{
			OfferedProductID: opts.StaticOffered,
			FreeProductID:    opts.StaticFree,
		}}
		formatter.VerboseLog("using static configuration (offered=%s free=%s)",
			opts.StaticOffered, opts.StaticFree)
	}

	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: evalLogLevel(opts.Verbose),
	}))
	eng := decision.New(resolver, decision.WithLogger(logger))

	out := eng.Evaluate(input)

	if opts.Format == "json" {
		return formatter.Success(out)
	}
	printDecision(formatter, out)
	return nil
}

func evalLogLevel(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	// Routine short-circuits (no config, ineligible cart) are debug
	// noise; only faults surface by default.
	return slog.LevelError
}

func printDecision(f *OutputFormatter, d decision.Decision) {
	fmt.Fprintf(f.Writer, "Strategy: %s\n", d.Strategy)
	if len(d.Discounts) == 0 {
		fmt.Fprintln(f.Writer, "No discounts.")
		return
	}
	for _, line := range d.Discounts {
		fmt.Fprintf(f.Writer, "  %d%% off %s (%s)\n",
			line.Percentage, line.TargetVariantID, line.Message)
	}
}
