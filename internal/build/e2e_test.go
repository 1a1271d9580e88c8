package build

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/goplus/sugar/internal/config"
	"github.com/goplus/sugar/internal/toolchain"
	"github.com/goplus/sugar/internal/toolchain/gcc"
)

// ---------------------------------------------------------------------------
// E2E tests: real subprocesses through the gcc backend
// ---------------------------------------------------------------------------

func writeSource(t *testing.T, root, name, code string) {
	t.Helper()
	path := filepath.Join(root, "src", name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(code), 0o644); err != nil {
		t.Fatal(err)
	}
}

func gccBuilder() *Builder {
	return NewBuilder(Options{
		NewToolchain: func(name string, opts toolchain.Options) (toolchain.Toolchain, error) {
			return gcc.New(name, gcc.Options{Options: opts}), nil
		},
	})
}

// TestE2E_Executable compiles a.c and b.c with the system C compiler and
// runs the linked program.
func TestE2E_Executable(t *testing.T) {
	cc, err := exec.LookPath("cc")
	if err != nil {
		t.Skip("cc not found, skipping test")
	}
	t.Setenv("CC", cc)

	root := t.TempDir()
	writeSource(t, root, "a.c", "int answer(void);\nint main(void) { return answer() == 42 ? 0 : 1; }\n")
	writeSource(t, root, "b.c", "int answer(void) { return 42; }\n")

	cfg := &config.Config{Name: "e2e", Compiler: "gcc", ProjectType: config.Executable}
	res, err := gccBuilder().BuildConfig(context.Background(), root, cfg)
	if err != nil {
		t.Fatalf("BuildConfig() = %v", err)
	}
	for _, obj := range []string{"a.o", "b.o"} {
		if _, err := os.Stat(filepath.Join(root, "build", obj)); err != nil {
			t.Errorf("object %s missing: %v", obj, err)
		}
	}
	if out, err := exec.Command(res.Artifact).CombinedOutput(); err != nil {
		t.Errorf("running %s: %v\n%s", res.Artifact, err, out)
	}
}

// TestE2E_StaticNoSources leaves the build and output directories empty.
func TestE2E_StaticNoSources(t *testing.T) {
	root := t.TempDir()
	cfg := &config.Config{Name: "empty", Compiler: "gcc", ProjectType: config.StaticLibrary}
	_, err := gccBuilder().BuildConfig(context.Background(), root, cfg)
	if StageOf(err) != StageDiscovery {
		t.Fatalf("err = %v, want discovery failure", err)
	}
	for _, dir := range []string{"build", "output"} {
		entries, err := os.ReadDir(filepath.Join(root, dir))
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 0 {
			t.Errorf("%s is not empty: %v", dir, entries)
		}
	}
}

// TestE2E_SharedCompileFailure uses a compiler that always fails and an
// archiver that records whether it ran.
func TestE2E_SharedCompileFailure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}
	bin := t.TempDir()
	cc := filepath.Join(bin, "cc")
	linked := filepath.Join(bin, "linked")
	script := "#!/bin/sh\ncase \"$1\" in\n-c) echo 'broken.c:1:1: error: unknown type name' >&2; exit 1;;\nesac\ntouch " + linked + "\n"
	if err := os.WriteFile(cc, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CC", cc)

	root := t.TempDir()
	writeSource(t, root, "broken.c", "nope x;\n")
	cfg := &config.Config{Name: "broken", Compiler: "gcc", ProjectType: config.SharedLibrary}
	_, err := gccBuilder().BuildConfig(context.Background(), root, cfg)
	if StageOf(err) != StageCompilation {
		t.Fatalf("err = %v, want compilation failure", err)
	}
	if _, err := os.Stat(linked); err == nil {
		t.Error("linker ran after a compile failure")
	}
}
