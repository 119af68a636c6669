// Package main is the entry point for the recheck CLI.
//
// recheck waits for a dependency to become ready, polling it with the retry
// or timeout schedule of a named profile.
//
// Usage:
//
//	recheck http http://localhost:8080/healthz
//	recheck tcp db:5432 --mode timeout --timeout 30s --interval 500ms
//	recheck exec -- pg_isready -h db
//	recheck validate -c recheck.yaml
//	recheck version
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Set at build time via ldflags, e.g. -X main.version=1.0.0.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func newRootCmd(opts *rootOptions) *cobra.Command {
	root := &cobra.Command{
		Use:   "recheck",
		Short: "Wait until a dependency is ready",
		Long: `recheck polls a readiness probe until it succeeds, the attempt budget
runs out, or the process is interrupted.

Exit codes:
  0 - the probe became ready
  1 - polling gave up, was interrupted, or the configuration is invalid

Example config:
  defaults:
    attempts: 30
    interval: [1s]
  profiles:
    db:
      mode: timeout
      timeout: 2m
      interval: [2s]
      probe_timeout: 3s`,
		SilenceUsage: true,
	}

	opts.bindPersistent(root.PersistentFlags())

	root.AddCommand(
		newHTTPCmd(opts),
		newTCPCmd(opts),
		newExecCmd(opts),
		newRedisCmd(opts),
		newPostgresCmd(opts),
		newGRPCCmd(opts),
		newValidateCmd(opts),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "recheck %s\n", version)
			fmt.Fprintf(out, "  commit: %s\n", commit)
			fmt.Fprintf(out, "  built:  %s\n", date)
		},
	}
}

func main() {
	if err := newRootCmd(newRootOptions()).ExecuteContext(context.Background()); err != nil {
		// cobra already printed the error
		os.Exit(1)
	}
}
