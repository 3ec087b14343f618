package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/cruxtx/internal/cli"
)

func main() {
	root := cli.NewRootCommand(cli.Defaults{
		Database: os.Getenv("CRUXTX_DB"),
		Addr:     envOrDefault("CRUXTX_ADDR", cli.DefaultAddr),
	})
	if err := root.Execute(); err != nil {
		// ExitErrors have already been reported by the command.
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
