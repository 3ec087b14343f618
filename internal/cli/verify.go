package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/cruxtx/internal/store"
)

// VerifyOptions holds flags for the verify command.
type VerifyOptions struct {
	*RootOptions
	Database string
	After    int64
}

// VerifyResult is the JSON output of verify.
type VerifyResult struct {
	Transactions int   `json:"transactions"`
	Operations   int   `json:"operations"`
	Latest       int64 `json:"latest"`
	Valid        bool  `json:"valid"`
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VerifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Re-hash every stored transaction",
		Long: `Replay the store in sequence order, decoding every stored log and
checking that it still hashes to the hash it was recorded under.

Exit codes:
  0 - Every transaction verified
  1 - A stored log no longer matches its hash
  2 - Command error (database not found, etc.)

Examples:
  cruxtx verify --db ./cruxtx.db
  cruxtx verify --db ./cruxtx.db --after 100`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(opts, cmd)
		},
	}

	opts.addDatabaseFlag(cmd, &opts.Database)
	cmd.Flags().Int64Var(&opts.After, "after", 0, "only verify transactions after this sequence number")

	return cmd
}

func runVerify(opts *VerifyOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	st, err := opts.openStore(cmd, f, opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	result := VerifyResult{Latest: opts.After}
	err = st.Replay(cmd.Context(), opts.After, func(t store.Transaction) error {
		result.Transactions++
		result.Operations += t.Log.Len()
		result.Latest = t.Seq
		f.VerboseLog("tx %d ok (%d ops, %s)", t.Seq, t.Log.Len(), shortHash(t.Hash))
		return nil
	})
	switch {
	case errors.Is(err, store.ErrHashMismatch):
		return f.Fail(ExitFailure, ErrCodeIntegrity, "store verification failed", err, result)
	case err != nil:
		return f.Fail(ExitCommandError, ErrCodeDatabase, "failed to replay store", err, nil)
	}

	result.Valid = true
	if opts.Format == "json" {
		return f.Success(result)
	}
	fmt.Fprintf(f.Writer, "verified %d transactions (%d ops), latest tx %d\n",
		result.Transactions, result.Operations, result.Latest)
	return nil
}
