package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/cruxtx/internal/codec"
)

// EncodeOptions holds flags for the encode command.
type EncodeOptions struct {
	*RootOptions
	Output string
}

// NewEncodeCommand creates the encode command.
func NewEncodeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EncodeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "encode <file>",
		Short: "Print the canonical wire form of a transaction file",
		Long: `Build a transaction file and write its log as canonical JSON.

The output is byte-identical for equal logs regardless of the source
format, and is what the HTTP API accepts and returns.

Examples:
  cruxtx encode ./tx.yaml
  cruxtx encode ./tx.cue -o ./tx.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEncode(opts, cmd, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write to file instead of stdout")

	return cmd
}

func runEncode(opts *EncodeOptions, cmd *cobra.Command, path string) error {
	f := opts.formatter(cmd)

	log, err := loadLog(f, path)
	if err != nil {
		return err
	}

	data, err := codec.MarshalLog(log)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, "failed to encode log", err, nil)
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, data, 0o644); err != nil {
			return f.Fail(ExitCommandError, ErrCodeGeneric, "failed to write "+opts.Output, err, nil)
		}
		f.VerboseLog("Wrote %d bytes to %s", len(data), opts.Output)
		return nil
	}

	w := f.Writer
	if _, err := w.Write(append(data, '\n')); err != nil {
		return WrapExitError(ExitCommandError, "failed to write output", err)
	}
	return nil
}
