package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aponysus/recheck/config"
	"github.com/aponysus/recheck/poll"
)

func newValidateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate a config file",
		Long: `Load a config file, apply RECHECK_* environment overrides, and print
every resolved profile.

Exit codes:
  0 - config is valid
  1 - config is invalid (error details printed to stderr)

Example:
  recheck validate -c recheck.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.configPath == "" {
				return errors.New("validate needs --config")
			}
			file, err := opts.loadConfig()
			if err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			return printProfiles(cmd, file)
		},
	}
}

func printProfiles(cmd *cobra.Command, file *config.File) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Config is valid!")

	names := []string{config.DefaultProfileName}
	for _, name := range file.ProfileNames() {
		if name != config.DefaultProfileName {
			names = append(names, name)
		}
	}
	for _, name := range names {
		prof, err := file.Profile(name)
		if err != nil {
			return err
		}
		cfg, err := prof.PollConfig()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "  %s:\n", name)
		fmt.Fprintf(out, "    mode:         %s\n", cfg.Mode)
		if cfg.Mode == poll.ModeTimeout {
			fmt.Fprintf(out, "    timeout:      %s\n", cfg.Timeout)
		}
		fmt.Fprintf(out, "    max attempts: %d\n", cfg.MaxAttempts())
		fmt.Fprintf(out, "    interval:     %v\n", []time.Duration(cfg.Interval))
		if prof.ProbeTimeout > 0 {
			fmt.Fprintf(out, "    probe timeout: %s\n", prof.ProbeTimeout)
		}
	}
	return nil
}
