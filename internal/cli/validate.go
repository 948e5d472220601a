package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/merchkit/freegift/internal/confschema"
)

// ValidationResult holds the outcome of validating one configuration blob.
type ValidationResult struct {
	Valid  bool                    `json:"valid"`
	Errors []confschema.FieldError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config.json>",
		Short: "Validate a merchant configuration blob",
		Long: `Validate a merchant configuration blob against the offer schema.

The blob is the JSON document stored on the discount definition's
metafield. Validation reports every violation, not just the first.

Exit codes:
  0 - Configuration is valid
  1 - Configuration violates the schema
  2 - Command error (unreadable file)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, configPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	raw, err := os.ReadFile(configPath)
	if err != nil {
		_ = formatter.Error(ErrCodeInput, fmt.Sprintf("cannot read configuration: %v", err), nil)
		return WrapExitError(ExitCommandError, "cannot read configuration", err)
	}

	err = confschema.Validate(raw)
	if err == nil {
		if opts.Format == "json" {
			return formatter.Success(ValidationResult{Valid: true})
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Configuration is valid.")
		return nil
	}

	var verr *confschema.ValidationError
	if !errors.As(err, &verr) {
		_ = formatter.Error(ErrCodeValidation, err.Error(), nil)
		return WrapExitError(ExitCommandError, "validation failed", err)
	}

	if opts.Format == "json" {
		if encErr := formatter.Error(ErrCodeValidation, "configuration is invalid",
			ValidationResult{Valid: false, Errors: verr.Fields}); encErr != nil {
			return encErr
		}
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Configuration is invalid (%d violation(s)):\n", len(verr.Fields))
		for _, f := range verr.Fields {
			fmt.Fprintf(cmd.OutOrStdout(), "  - %s\n", f.Error())
		}
	}

	return NewExitError(ExitFailure, "configuration is invalid")
}
