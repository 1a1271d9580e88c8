package toolchain

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// writeScript creates an executable shell script in dir.
func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestRunSuccess(t *testing.T) {
	tool := writeScript(t, t.TempDir(), "ok", `echo "all good"`)
	r := &Runner{}
	if err := r.Run(context.Background(), tool); err != nil {
		t.Fatalf("Run() = %v, want nil", err)
	}
}

func TestRunNonzeroExit(t *testing.T) {
	tool := writeScript(t, t.TempDir(), "fail", `echo "a.c:1: error: boom" >&2; exit 3`)
	r := &Runner{}

	err := r.Run(context.Background(), tool, "-c", "a.c")
	var execErr *ExecError
	if !errors.As(err, &execErr) {
		t.Fatalf("Run() = %v, want *ExecError", err)
	}
	if !errors.Is(err, ErrExit) {
		t.Errorf("Run() = %v, want ErrExit", err)
	}
	if errors.Is(err, ErrNotFound) {
		t.Errorf("nonzero exit must not be reported as not found")
	}
	if execErr.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", execErr.ExitCode)
	}
	if execErr.Diagnostic != "a.c:1: error: boom" {
		t.Errorf("Diagnostic = %q", execErr.Diagnostic)
	}
	if diff := cmp.Diff([]string{"-c", "a.c"}, execErr.Args); diff != "" {
		t.Errorf("Args mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(err.Error(), "a.c:1: error: boom") {
		t.Errorf("Error() = %q, want the diagnostic verbatim", err.Error())
	}
}

func TestRunDiagnosticFallsBackToStdout(t *testing.T) {
	tool := writeScript(t, t.TempDir(), "cl", `echo "main.cpp(3): error C2065"; exit 2`)
	r := &Runner{}

	err := r.Run(context.Background(), tool)
	var execErr *ExecError
	if !errors.As(err, &execErr) {
		t.Fatalf("Run() = %v, want *ExecError", err)
	}
	if execErr.Diagnostic != "main.cpp(3): error C2065" {
		t.Errorf("Diagnostic = %q, want stdout text", execErr.Diagnostic)
	}
}

func TestRunNotFound(t *testing.T) {
	r := &Runner{Hint: "install it"}

	for _, bin := range []string{
		"sugar-test-no-such-tool",
		filepath.Join(t.TempDir(), "missing"),
	} {
		err := r.Run(context.Background(), bin)
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("Run(%q) = %v, want ErrNotFound", bin, err)
		}
		if errors.Is(err, ErrExit) {
			t.Errorf("Run(%q): missing executable reported as nonzero exit", bin)
		}
		if !strings.Contains(err.Error(), "install it") {
			t.Errorf("Error() = %q, want remediation hint", err.Error())
		}
	}
}

func TestRunTimeout(t *testing.T) {
	tool := writeScript(t, t.TempDir(), "hang", `exec sleep 10`)
	r := &Runner{Timeout: 50 * time.Millisecond}

	start := time.Now()
	err := r.Run(context.Background(), tool)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Run() = %v, want ErrTimeout", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Run() took %v, want it killed promptly", elapsed)
	}
}

func TestRunCanceled(t *testing.T) {
	tool := writeScript(t, t.TempDir(), "hang", `exec sleep 10`)
	r := &Runner{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := r.Run(ctx, tool); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() = %v, want context.Canceled", err)
	}
}

func TestRunEnv(t *testing.T) {
	tool := writeScript(t, t.TempDir(), "env", `[ "$SUGAR_TEST_FLAG" = "on" ] || exit 1`)

	if err := (&Runner{}).Run(context.Background(), tool); !errors.Is(err, ErrExit) {
		t.Fatalf("Run() without env = %v, want ErrExit", err)
	}
	r := &Runner{Env: map[string]string{"SUGAR_TEST_FLAG": "on"}}
	if err := r.Run(context.Background(), tool); err != nil {
		t.Fatalf("Run() with env = %v, want nil", err)
	}
}

func TestMergeEnv(t *testing.T) {
	got := mergeEnv([]string{"B=1", "A=2", "C=3"}, map[string]string{"A": "x", "D": "y"})
	want := []string{"A=x", "B=1", "C=3", "D=y"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mergeEnv mismatch (-want +got):\n%s", diff)
	}
}
