package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/cruxtx/internal/server"
)

// DefaultAddr is the listen address when neither --addr nor CRUXTX_ADDR is set.
const DefaultAddr = ":8080"

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Database     string
	Addr         string
	MaxBodyBytes int64
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	addr := rootOpts.defaults.Addr
	if addr == "" {
		addr = DefaultAddr
	}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve the transaction API over HTTP until interrupted.

Routes:
  GET  /health
  POST /transactions
  GET  /transactions/{seq}
  GET  /entities/{id}/history

Examples:
  cruxtx serve --db ./cruxtx.db
  CRUXTX_DB=./cruxtx.db CRUXTX_ADDR=:9090 cruxtx serve -v`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	opts.addDatabaseFlag(cmd, &opts.Database)
	cmd.Flags().StringVar(&opts.Addr, "addr", addr, "listen address (or CRUXTX_ADDR)")
	cmd.Flags().Int64Var(&opts.MaxBodyBytes, "max-body", server.DefaultMaxBodyBytes, "maximum request body size in bytes")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	st, err := opts.openStore(cmd, f, opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(st,
		server.WithLogger(opts.logger(cmd)),
		server.WithMaxBodyBytes(opts.MaxBodyBytes),
	)
	if err := srv.ListenAndServe(ctx, opts.Addr); err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, "server failed", err, nil)
	}
	return nil
}
