// Package cli implements the cruxtx command line.
//
// Commands:
//
//	validate <file>        build a transaction file and report its log hash
//	encode <file>          print the canonical wire form of a transaction file
//	submit <file> --db     append a transaction file to a store
//	show <seq> --db        print a stored transaction
//	history <id> --db      list stored operations touching an identity
//	verify --db            re-hash every stored transaction
//	test <dir>             run transaction scenarios
//	serve --db --addr      run the HTTP API
package cli

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/cruxtx/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	defaults Defaults
}

// Defaults seeds flag values that may also come from the environment.
type Defaults struct {
	Database string
	Addr     string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the cruxtx CLI.
func NewRootCommand(defaults Defaults) *cobra.Command {
	opts := &RootOptions{defaults: defaults}

	cmd := &cobra.Command{
		Use:   "cruxtx",
		Short: "cruxtx - bitemporal transaction logs",
		Long: `Build, validate and store bitemporal transaction logs.

A transaction file lists put, delete, match, evict and fn operations.
Each file is assembled into an immutable, content-addressed log; logs with
overlapping valid-time windows for one identity are rejected.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewEncodeCommand(opts))
	cmd.AddCommand(NewSubmitCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewVerifyCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// formatter returns the output formatter for cmd.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// logger returns a text logger on cmd's stderr. Debug records are emitted
// only with --verbose.
func (o *RootOptions) logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if o.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// addDatabaseFlag registers --db on cmd, defaulting to the environment.
func (o *RootOptions) addDatabaseFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVar(target, "db", o.defaults.Database, "path to SQLite database (or CRUXTX_DB)")
}

// openStore opens the store at path, reporting failures through f.
func (o *RootOptions) openStore(cmd *cobra.Command, f *OutputFormatter, path string) (*store.Store, error) {
	if path == "" {
		return nil, f.Fail(ExitCommandError, ErrCodeBadArg, "--db is required", nil, nil)
	}
	st, err := store.Open(path, store.WithLogger(o.logger(cmd)))
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeDatabase, "failed to open database", err, nil)
	}
	f.VerboseLog("Opened database: %s", path)
	return st, nil
}
