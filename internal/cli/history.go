package cli

import (
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/roach88/cruxtx/internal/codec"
	"github.com/roach88/cruxtx/internal/doc"
	"github.com/roach88/cruxtx/internal/tx"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Kinds    []string
}

// HistoryEntry is one line of history output.
type HistoryEntry struct {
	Seq        int64               `json:"seq"`
	Position   int                 `json:"position"`
	TxTime     string              `json:"tx_time"`
	Kind       string              `json:"kind"`
	OpHash     string              `json:"op_hash"`
	StartValid *int64              `json:"start_valid,omitempty"`
	EndValid   *int64              `json:"end_valid,omitempty"`
	Op         jsoniter.RawMessage `json:"op"`
}

// HistoryResult is the JSON output of history.
type HistoryResult struct {
	Identity string         `json:"identity"`
	Entries  []HistoryEntry `json:"entries"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history <id>",
		Short: "List stored operations touching an identity",
		Long: `List every stored operation on an identity, oldest first.

Identities use their display form: ":person/ivan" is a keyword, a
canonical UUID is a UUID id and a bare integer such as 42 is an integer
id. Anything else is a string id; quote it ('"42"', '":x"') to keep it a
string.

Examples:
  cruxtx history :person/ivan --db ./cruxtx.db
  cruxtx history :person/ivan --db ./cruxtx.db --kind put --kind delete`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd, args[0])
		},
	}

	opts.addDatabaseFlag(cmd, &opts.Database)
	cmd.Flags().StringSliceVar(&opts.Kinds, "kind", nil, "only these operation kinds (put|delete|match|evict|fn)")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command, arg string) error {
	f := opts.formatter(cmd)

	id, err := doc.ParseID(arg)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeBadArg, fmt.Sprintf("invalid identity %q", arg), err, nil)
	}

	kinds := make([]tx.Kind, 0, len(opts.Kinds))
	for _, name := range opts.Kinds {
		k, err := tx.ParseKind(name)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeBadArg, fmt.Sprintf("invalid kind %q", name), err, nil)
		}
		kinds = append(kinds, k)
	}

	st, err := opts.openStore(cmd, f, opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	entries, err := st.History(cmd.Context(), id, kinds...)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeDatabase, "failed to read history", err, nil)
	}

	if opts.Format == "json" {
		result := HistoryResult{Identity: id.String(), Entries: make([]HistoryEntry, 0, len(entries))}
		for _, e := range entries {
			body, err := codec.MarshalOp(e.Op)
			if err != nil {
				return f.Fail(ExitCommandError, ErrCodeGeneric, "failed to encode operation", err, nil)
			}
			entry := HistoryEntry{
				Seq:      e.Seq,
				Position: e.Position,
				TxTime:   e.TxTime.UTC().Format(time.RFC3339Nano),
				Kind:     e.Kind.String(),
				OpHash:   e.OpHash,
				Op:       body,
			}
			if ms, ok := e.StartValid.Millis(); ok {
				entry.StartValid = &ms
			}
			if ms, ok := e.EndValid.Millis(); ok {
				entry.EndValid = &ms
			}
			result.Entries = append(result.Entries, entry)
		}
		return f.Success(result)
	}

	if len(entries) == 0 {
		fmt.Fprintf(f.Writer, "No history for %s\n", id)
		return nil
	}
	fmt.Fprintf(f.Writer, "History for %s (%d ops)\n", id, len(entries))
	for _, e := range entries {
		fmt.Fprintf(f.Writer, "  tx %d [%d] %s  %s\n",
			e.Seq, e.Position, e.TxTime.UTC().Format(time.RFC3339), describe(e.Op))
	}
	return nil
}
