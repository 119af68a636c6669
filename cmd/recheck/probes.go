package main

import (
	"github.com/spf13/cobra"

	"github.com/aponysus/recheck/probe"
)

func newHTTPCmd(opts *rootOptions) *cobra.Command {
	p := &probe.HTTP{}
	cmd := &cobra.Command{
		Use:   "http URL",
		Short: "Wait for an HTTP endpoint",
		Long: `Wait until URL answers with a 2xx status, or with one of the
statuses given by --expect-status.

Example:
  recheck http http://localhost:8080/healthz --attempts 60 --interval 1s
  recheck http https://api.internal/ready -H "Authorization=Bearer $TOKEN"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p.URL = args[0]
			return opts.waitFor(cmd, p)
		},
	}
	cmd.Flags().StringVarP(&p.Method, "method", "X", "GET", "request method")
	cmd.Flags().StringToStringVarP(&p.Headers, "header", "H", nil, "request header as key=value")
	cmd.Flags().IntSliceVar(&p.ExpectStatus, "expect-status", nil, "statuses that count as ready")
	return cmd
}

func newTCPCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tcp ADDRESS",
		Short: "Wait for a TCP port to accept connections",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.waitFor(cmd, &probe.TCP{Address: args[0]})
		},
	}
}

func newExecCmd(opts *rootOptions) *cobra.Command {
	p := &probe.Command{}
	cmd := &cobra.Command{
		Use:   "exec [flags] -- COMMAND [ARG...]",
		Short: "Wait for a command to exit 0",
		Long: `Run COMMAND on every attempt until it exits 0. A single argument is
split with shell quoting rules.

Example:
  recheck exec -- pg_isready -h db
  recheck exec "curl -fsS http://localhost:9000/minio/health/live"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				p.Line = args[0]
			} else {
				p.Args = args
			}
			return opts.waitFor(cmd, p)
		},
	}
	cmd.Flags().StringVar(&p.Dir, "dir", "", "working directory")
	cmd.Flags().StringArrayVarP(&p.Env, "env", "e", nil, "extra environment variable as KEY=VALUE")
	return cmd
}

func newRedisCmd(opts *rootOptions) *cobra.Command {
	p := &probe.Redis{}
	cmd := &cobra.Command{
		Use:   "redis ADDRESS",
		Short: "Wait for Redis to answer PING",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p.Addr = args[0]
			return opts.waitFor(cmd, p)
		},
	}
	cmd.Flags().StringVar(&p.Password, "password", "", "AUTH password")
	cmd.Flags().IntVar(&p.DB, "db", 0, "database number")
	cmd.Flags().StringVar(&p.Key, "key", "", "also wait for this key to exist")
	return cmd
}

func newPostgresCmd(opts *rootOptions) *cobra.Command {
	p := &probe.Postgres{}
	cmd := &cobra.Command{
		Use:   "postgres DSN",
		Short: "Wait for PostgreSQL to accept connections",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p.DSN = args[0]
			return opts.waitFor(cmd, p)
		},
	}
	cmd.Flags().StringVar(&p.Query, "query", "", "statement that must also succeed, e.g. \"SELECT 1 FROM schema_migrations\"")
	return cmd
}

func newGRPCCmd(opts *rootOptions) *cobra.Command {
	p := &probe.GRPC{}
	cmd := &cobra.Command{
		Use:   "grpc TARGET",
		Short: "Wait for a gRPC health check to report SERVING",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p.Target = args[0]
			return opts.waitFor(cmd, p)
		},
	}
	cmd.Flags().StringVar(&p.Service, "service", "", "service name to check; empty checks the server")
	return cmd
}
