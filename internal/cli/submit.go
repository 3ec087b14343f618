package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// SubmitOptions holds flags for the submit command.
type SubmitOptions struct {
	*RootOptions
	Database string
}

// SubmitResult is the JSON output of submit.
type SubmitResult struct {
	Seq      int64  `json:"seq"`
	Hash     string `json:"hash"`
	TxTime   string `json:"tx_time"`
	Inserted bool   `json:"inserted"`
}

// NewSubmitCommand creates the submit command.
func NewSubmitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SubmitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "submit <file>",
		Short: "Append a transaction file to a store",
		Long: `Build a transaction file and append its log to the store as one
transaction.

Submitting an equal log twice is a no-op: the second submission reports the
sequence number of the first.

Examples:
  cruxtx submit ./tx.yaml --db ./cruxtx.db
  CRUXTX_DB=./cruxtx.db cruxtx submit ./tx.json --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubmit(opts, cmd, args[0])
		},
	}

	opts.addDatabaseFlag(cmd, &opts.Database)

	return cmd
}

func runSubmit(opts *SubmitOptions, cmd *cobra.Command, path string) error {
	f := opts.formatter(cmd)

	log, err := loadLog(f, path)
	if err != nil {
		return err
	}

	st, err := opts.openStore(cmd, f, opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	receipt, err := st.Submit(cmd.Context(), log)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeDatabase, "failed to submit transaction", err, nil)
	}

	result := SubmitResult{
		Seq:      receipt.Seq,
		Hash:     receipt.Hash,
		TxTime:   receipt.TxTime.UTC().Format(time.RFC3339Nano),
		Inserted: receipt.Inserted,
	}
	if opts.Format == "json" {
		return f.Success(result)
	}

	if result.Inserted {
		fmt.Fprintf(f.Writer, "committed tx %d (%d ops)\n", result.Seq, log.Len())
	} else {
		fmt.Fprintf(f.Writer, "already stored as tx %d\n", result.Seq)
	}
	fmt.Fprintf(f.Writer, "hash:    %s\n", result.Hash)
	fmt.Fprintf(f.Writer, "tx_time: %s\n", result.TxTime)
	return nil
}
