package cli

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/roach88/cruxtx/internal/codec"
	"github.com/roach88/cruxtx/internal/store"
	"github.com/roach88/cruxtx/internal/txlog"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	Database string
}

// ShowResult is the JSON output of show.
type ShowResult struct {
	Seq    int64               `json:"seq"`
	Hash   string              `json:"hash"`
	TxTime string              `json:"tx_time"`
	Log    jsoniter.RawMessage `json:"log"`
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show <seq>",
		Short: "Print a stored transaction",
		Long: `Print the transaction with the given sequence number.

Text output lists one line per operation. JSON output embeds the log in
its canonical wire form.

Examples:
  cruxtx show 1 --db ./cruxtx.db
  cruxtx show 1 --db ./cruxtx.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, cmd, args[0])
		},
	}

	opts.addDatabaseFlag(cmd, &opts.Database)

	return cmd
}

func runShow(opts *ShowOptions, cmd *cobra.Command, arg string) error {
	f := opts.formatter(cmd)

	seq, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || seq < 1 {
		return f.Fail(ExitCommandError, ErrCodeBadArg, fmt.Sprintf("invalid sequence number %q", arg), nil, nil)
	}

	st, err := opts.openStore(cmd, f, opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	t, err := st.ReadTx(cmd.Context(), seq)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return f.Fail(ExitFailure, ErrCodeNotFound, fmt.Sprintf("transaction %d not found", seq), nil, nil)
	case errors.Is(err, store.ErrHashMismatch):
		return f.Fail(ExitFailure, ErrCodeIntegrity, fmt.Sprintf("transaction %d is corrupt", seq), err, nil)
	case err != nil:
		return f.Fail(ExitCommandError, ErrCodeDatabase, "failed to read transaction", err, nil)
	}

	txTime := t.TxTime.UTC().Format(time.RFC3339Nano)
	if opts.Format == "json" {
		body, err := codec.MarshalLog(t.Log)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeGeneric, "failed to encode log", err, nil)
		}
		return f.Success(ShowResult{Seq: t.Seq, Hash: t.Hash, TxTime: txTime, Log: body})
	}

	fmt.Fprintf(f.Writer, "tx %d\n", t.Seq)
	fmt.Fprintf(f.Writer, "hash:    %s\n", t.Hash)
	fmt.Fprintf(f.Writer, "tx_time: %s\n", txTime)
	fmt.Fprintf(f.Writer, "ops:     %d\n", t.Log.Len())
	for i, line := range txlog.Walk[string](t.Log, describer{}) {
		fmt.Fprintf(f.Writer, "  [%d] %s\n", i, line)
	}
	return nil
}
