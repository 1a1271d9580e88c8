package toolchain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sys/execabs"
)

var (
	// ErrNotFound marks a tool that could not be started because its
	// executable does not exist.
	ErrNotFound = errors.New("executable not found")

	// ErrExit marks a tool that ran and exited with a nonzero status.
	ErrExit = errors.New("exited with nonzero status")

	// ErrTimeout marks a tool killed because its deadline passed.
	ErrTimeout = errors.New("timed out")
)

// ExecError describes a failed tool invocation.
type ExecError struct {
	Tool     string
	Args     []string
	ExitCode int // -1 when the process never exited on its own

	// Diagnostic is what the tool reported: its stderr, or its stdout when
	// stderr is empty (cl.exe and link.exe print errors to stdout).
	Diagnostic string

	// Hint tells the user how to fix a missing executable.
	Hint string

	// Err is one of ErrNotFound, ErrExit, ErrTimeout, context.Canceled, or
	// the error returned when starting the process.
	Err error
}

func (e *ExecError) Error() string {
	var b strings.Builder
	switch {
	case errors.Is(e.Err, ErrNotFound):
		fmt.Fprintf(&b, "%s: %v", e.Tool, ErrNotFound)
		if e.Hint != "" {
			b.WriteString("; " + e.Hint)
		}
	case errors.Is(e.Err, ErrExit):
		fmt.Fprintf(&b, "%s exited with status %d", e.Tool, e.ExitCode)
	default:
		fmt.Fprintf(&b, "%s: %v", e.Tool, e.Err)
	}
	if e.Diagnostic != "" {
		b.WriteString(":\n" + e.Diagnostic)
	}
	return b.String()
}

func (e *ExecError) Unwrap() error { return e.Err }

// waitDelay bounds how long Run waits for output pipes after the tool was
// killed; grandchildren may still hold them open.
const waitDelay = 2 * time.Second

// Runner starts tool subprocesses on behalf of a backend.
type Runner struct {
	// Env is merged over the current process environment.
	Env map[string]string

	// Timeout bounds each invocation. Zero means no limit.
	Timeout time.Duration

	// Hint is attached to ErrNotFound failures.
	Hint string

	Logger zerolog.Logger
}

// Run executes bin with args and blocks until it exits. It succeeds only on
// exit status zero; every other outcome is an *ExecError.
func (r *Runner) Run(ctx context.Context, bin string, args ...string) error {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := execabs.CommandContext(ctx, bin, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay
	if len(r.Env) > 0 {
		cmd.Env = mergeEnv(os.Environ(), r.Env)
	}

	r.Logger.Debug().Str("tool", bin).Strs("args", args).Msg("exec")

	err := cmd.Run()
	if err == nil {
		return nil
	}

	e := &ExecError{
		Tool:       bin,
		Args:       args,
		ExitCode:   -1,
		Diagnostic: diagnostic(stderr.Bytes(), stdout.Bytes()),
		Err:        err,
	}
	var exitErr *execabs.ExitError
	switch {
	case ctx.Err() == context.DeadlineExceeded:
		e.Err = ErrTimeout
	case ctx.Err() == context.Canceled:
		e.Err = context.Canceled
	case errors.Is(err, execabs.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		e.Err = ErrNotFound
		e.Hint = r.Hint
	case errors.As(err, &exitErr):
		e.ExitCode = exitErr.ExitCode()
		e.Err = ErrExit
	}
	return e
}

func diagnostic(stderr, stdout []byte) string {
	if s := strings.TrimSpace(string(stderr)); s != "" {
		return s
	}
	return strings.TrimSpace(string(stdout))
}

// mergeEnv returns base with override applied, sorted by key.
func mergeEnv(base []string, override map[string]string) []string {
	envMap := make(map[string]string, len(base))
	for _, kv := range base {
		if k, v, ok := strings.Cut(kv, "="); ok {
			envMap[k] = v
		}
	}
	for k, v := range override {
		envMap[k] = v
	}
	keys := make([]string, 0, len(envMap))
	for k := range envMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+envMap[k])
	}
	return out
}
