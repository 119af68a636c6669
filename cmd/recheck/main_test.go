package main

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/aponysus/recheck/abort"
	"github.com/aponysus/recheck/poll"
)

// executeCmd runs a fresh root command and returns captured stdout and stderr.
func executeCmd(t *testing.T, opts *rootOptions, args ...string) (string, string, error) {
	t.Helper()
	if opts == nil {
		opts = newRootOptions()
	}
	var stdout, stderr bytes.Buffer
	root := newRootCmd(opts)
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func statusServer(t *testing.T, code int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(code)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "recheck.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestHTTPReady(t *testing.T) {
	srv := statusServer(t, http.StatusOK)

	out, _, err := executeCmd(t, nil, "http", srv.URL, "--attempts", "3", "--interval", "1ms")
	if err != nil {
		t.Fatalf("http command error = %v", err)
	}
	if !strings.Contains(out, "default: ready") {
		t.Fatalf("output = %q, want ready line", out)
	}
}

func TestHTTPExhausted(t *testing.T) {
	srv := statusServer(t, http.StatusServiceUnavailable)

	_, logs, err := executeCmd(t, nil, "http", srv.URL, "--attempts", "2", "--interval", "1ms")
	var exhausted *poll.ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("err = %v, want *poll.ExhaustedError", err)
	}
	if err.Error() != poll.DefaultRetryMessage {
		t.Fatalf("err = %q, want %q", err.Error(), poll.DefaultRetryMessage)
	}
	if got := strings.Count(logs, "attempt"); got < 2 {
		t.Fatalf("logged %d attempt lines, want at least 2\n%s", got, logs)
	}
}

func TestHTTPCustomErrorMessage(t *testing.T) {
	srv := statusServer(t, http.StatusServiceUnavailable)

	_, _, err := executeCmd(t, nil, "http", srv.URL,
		"--attempts", "1", "--error-message", "api never came up")
	if err == nil || err.Error() != "api never came up" {
		t.Fatalf("err = %v, want custom message", err)
	}
}

func TestHTTPIgnoreFailure(t *testing.T) {
	srv := statusServer(t, http.StatusServiceUnavailable)

	_, _, err := executeCmd(t, nil, "http", srv.URL, "--attempts", "1", "--ignore-failure")
	if !errors.Is(err, errNotReady) {
		t.Fatalf("err = %v, want errNotReady", err)
	}
}

func TestHTTPExpectStatus(t *testing.T) {
	srv := statusServer(t, http.StatusUnauthorized)

	_, _, err := executeCmd(t, nil, "http", srv.URL, "--attempts", "1", "--expect-status", "401")
	if err != nil {
		t.Fatalf("http command error = %v", err)
	}
}

func TestTimeoutModeFlags(t *testing.T) {
	srv := statusServer(t, http.StatusServiceUnavailable)

	_, _, err := executeCmd(t, nil, "http", srv.URL,
		"--mode", "timeout", "--timeout", "20ms", "--interval", "5ms")
	var exhausted *poll.ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("err = %v, want *poll.ExhaustedError", err)
	}
	if exhausted.Mode != poll.ModeTimeout || exhausted.Attempts != 4 {
		t.Fatalf("exhausted = %+v, want timeout mode after 4 attempts", exhausted)
	}
}

func TestInvalidFlagsFailBeforeProbing(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { hits.Add(1) }))
	defer srv.Close()

	_, _, err := executeCmd(t, nil, "http", srv.URL, "--mode", "timeout", "--timeout", "1s", "--interval", "0s")
	if !errors.Is(err, poll.ErrInvalidConfig) {
		t.Fatalf("err = %v, want ErrInvalidConfig", err)
	}
	if n := hits.Load(); n != 0 {
		t.Fatalf("probe ran %d times before the config was rejected", n)
	}
}

func TestProfileFromConfig(t *testing.T) {
	srv := statusServer(t, http.StatusServiceUnavailable)
	path := writeConfig(t, `
profiles:
  quick:
    attempts: 1
    interval: [1ms]
    error_message: quick gave up
`)

	_, _, err := executeCmd(t, nil, "http", srv.URL, "-c", path, "--profile", "quick")
	if err == nil || err.Error() != "quick gave up" {
		t.Fatalf("err = %v, want profile error message", err)
	}
}

func TestUnknownProfile(t *testing.T) {
	_, _, err := executeCmd(t, nil, "tcp", "127.0.0.1:1", "--profile", "nope")
	if err == nil || !strings.Contains(err.Error(), "unknown profile") {
		t.Fatalf("err = %v, want unknown profile", err)
	}
}

func TestInterruptAbortsRun(t *testing.T) {
	srv := statusServer(t, http.StatusServiceUnavailable)

	sigs := make(chan os.Signal, 1)
	opts := newRootOptions()
	opts.interrupts = func() (<-chan os.Signal, func()) { return sigs, func() {} }

	go func() {
		time.Sleep(50 * time.Millisecond)
		sigs <- syscall.SIGINT
	}()

	start := time.Now()
	_, logs, err := executeCmd(t, opts, "http", srv.URL, "--attempts", "100000", "--interval", "10ms")
	if !errors.Is(err, abort.ErrAborted) {
		t.Fatalf("err = %v, want abort.ErrAborted", err)
	}
	if err.Error() != interruptReason {
		t.Fatalf("err = %q, want %q", err.Error(), interruptReason)
	}
	if time.Since(start) > 5*time.Second {
		t.Fatal("interrupt did not stop the run promptly")
	}
	if !strings.Contains(logs, "aborting") {
		t.Fatalf("logs missing abort line:\n%s", logs)
	}
	// The run's own failure line lands before the command returns.
	if !strings.Contains(logs, "polling failed") {
		t.Fatalf("logs missing the run's failure line:\n%s", logs)
	}
}

func TestInterruptDuringFirstAttempt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	sigs := make(chan os.Signal, 1)
	opts := newRootOptions()
	opts.interrupts = func() (<-chan os.Signal, func()) { return sigs, func() {} }

	go func() {
		time.Sleep(50 * time.Millisecond)
		sigs <- syscall.SIGTERM
	}()

	start := time.Now()
	_, _, err := executeCmd(t, opts, "http", srv.URL, "--attempts", "3", "--probe-timeout", "10s")
	if !errors.Is(err, abort.ErrAborted) || err.Error() != interruptReason {
		t.Fatalf("err = %v, want abort with %q", err, interruptReason)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("interrupt waited for the first attempt to finish (%v)", elapsed)
	}
}

func TestExecReady(t *testing.T) {
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("sh not available")
	}

	_, _, err := executeCmd(t, nil, "exec", "--attempts", "1", "--", "sh", "-c", "exit 0")
	if err != nil {
		t.Fatalf("exec command error = %v", err)
	}
}

func TestValidate(t *testing.T) {
	path := writeConfig(t, `
defaults:
  attempts: 5
  interval: [200ms]
profiles:
  db:
    mode: timeout
    timeout: 30s
    interval: [1s, 500ms]
`)

	out, _, err := executeCmd(t, nil, "validate", "-c", path)
	if err != nil {
		t.Fatalf("validate command error = %v", err)
	}
	for _, phrase := range []string{
		"Config is valid!",
		"default:",
		"max attempts: 5",
		"db:",
		"mode:         timeout",
		"timeout:      30s",
		"max attempts: 60",
		"interval:     [1s 500ms]",
	} {
		if !strings.Contains(out, phrase) {
			t.Errorf("output missing %q\nGot: %s", phrase, out)
		}
	}
}

func TestValidateInvalid(t *testing.T) {
	path := writeConfig(t, "profiles:\n  x:\n    mode: forever\n")

	_, _, err := executeCmd(t, nil, "validate", "-c", path)
	if err == nil || !strings.Contains(err.Error(), "invalid config") {
		t.Fatalf("err = %v, want invalid config", err)
	}
}

func TestValidateMissingFile(t *testing.T) {
	_, _, err := executeCmd(t, nil, "validate", "-c", "/nonexistent/path/recheck.yaml")
	if err == nil || !strings.Contains(err.Error(), "failed to read") {
		t.Fatalf("err = %v, want read failure", err)
	}
}

func TestVersion(t *testing.T) {
	out, _, err := executeCmd(t, nil, "version")
	if err != nil {
		t.Fatalf("version command error = %v", err)
	}
	if !strings.Contains(out, "recheck dev") {
		t.Fatalf("output = %q, want version line", out)
	}
}

func TestEnvFile(t *testing.T) {
	const key = "RECHECK_DEFAULTS__ERROR_MESSAGE"
	if _, set := os.LookupEnv(key); set {
		t.Skipf("%s already set", key)
	}
	t.Cleanup(func() { os.Unsetenv(key) })

	srv := statusServer(t, http.StatusServiceUnavailable)
	envPath := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(envPath, []byte(key+"=from env file\n"), 0o644); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}

	_, _, err := executeCmd(t, nil, "http", srv.URL, "--env-file", envPath, "--attempts", "1")
	if err == nil || err.Error() != "from env file" {
		t.Fatalf("err = %v, want message from env file", err)
	}
}

func TestEnvFileMissing(t *testing.T) {
	_, _, err := executeCmd(t, nil, "validate", "-c", writeConfig(t, "{}\n"), "--env-file", "/nonexistent/.env")
	if err == nil || !strings.Contains(err.Error(), "failed to load env file") {
		t.Fatalf("err = %v, want env file failure", err)
	}
}
