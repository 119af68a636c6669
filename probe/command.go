package probe

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/google/shlex"
)

// Command is ready when the command exits 0.
//
// Args is used as-is when set; otherwise Line is split with shell quoting
// rules (no expansion or pipes).
type Command struct {
	Line string
	Args []string
	Dir  string
	// Env is appended to the current environment.
	Env []string
}

func (c *Command) argv() ([]string, error) {
	if len(c.Args) > 0 {
		return c.Args, nil
	}
	parts, err := shlex.Split(c.Line)
	if err != nil {
		return nil, fmt.Errorf("failed to parse command: %w", err)
	}
	if len(parts) == 0 {
		return nil, errors.New("command probe: empty command")
	}
	return parts, nil
}

func (c *Command) Probe(ctx context.Context) error {
	argv, err := c.argv()
	if err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}

	out, err := cmd.CombinedOutput()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("%w: %s exited %d: %s", ErrNotReady, argv[0], exitErr.ExitCode(), strings.TrimSpace(string(out)))
		}
		return fmt.Errorf("command probe %s: %w", argv[0], err)
	}
	return nil
}
