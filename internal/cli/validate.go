package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
}

// ValidationResult is the JSON output of validate.
type ValidationResult struct {
	Valid bool   `json:"valid"`
	Ops   int    `json:"ops"`
	Hash  string `json:"hash"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a transaction file",
		Long: `Parse a transaction file, build its log and report the log hash.

The file format is chosen by extension: .yaml/.yml, .json or .cue.

Exit codes:
  0 - The file builds into a valid log
  1 - The file failed to parse or its operations were rejected
  2 - Command error (file not found, etc.)

Examples:
  cruxtx validate ./tx.yaml
  cruxtx validate ./tx.cue --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, cmd, args[0])
		},
	}

	return cmd
}

func runValidate(opts *ValidateOptions, cmd *cobra.Command, path string) error {
	f := opts.formatter(cmd)

	log, err := loadLog(f, path)
	if err != nil {
		return err
	}

	if opts.Format == "json" {
		return f.Success(ValidationResult{Valid: true, Ops: log.Len(), Hash: log.Hash()})
	}
	fmt.Fprintf(f.Writer, "valid: %d ops\n", log.Len())
	fmt.Fprintf(f.Writer, "hash:  %s\n", log.Hash())
	return nil
}
