package build

import (
	"context"
	"os"
	"path/filepath"

	"github.com/goplus/sugar/internal/toolchain"
)

// call is one recorded toolchain invocation.
type call struct {
	Op     string
	Inputs []string
	Output string
	Dirs   []string
	Libs   []string
	Flags  []string
}

// mockToolchain records invocations and writes placeholder outputs. It
// fails, or panics, on the sources and operations it is told to.
type mockToolchain struct {
	calls []call

	compileErr  map[string]error // keyed by source base name
	linkErr     error
	panicOnLink bool
}

var _ toolchain.Toolchain = (*mockToolchain)(nil)

func (m *mockToolchain) Name() string                { return "mock" }
func (m *mockToolchain) ObjectFileExtension() string { return ".o" }

func (m *mockToolchain) Compile(ctx context.Context, source, object string, includeDirs, flags []string) error {
	m.calls = append(m.calls, call{Op: "compile", Inputs: []string{source}, Output: object, Dirs: includeDirs, Flags: flags})
	if err := m.compileErr[filepath.Base(source)]; err != nil {
		return err
	}
	return os.WriteFile(object, []byte("obj"), 0o644)
}

func (m *mockToolchain) link(op string, objects []string, output string, libDirs, libs, flags []string) error {
	m.calls = append(m.calls, call{Op: op, Inputs: objects, Output: output, Dirs: libDirs, Libs: libs, Flags: flags})
	if m.panicOnLink {
		panic("linker exploded")
	}
	if m.linkErr != nil {
		return m.linkErr
	}
	if len(objects) == 0 {
		return toolchain.ErrNoObjects
	}
	return os.WriteFile(output, []byte(op), 0o755)
}

func (m *mockToolchain) LinkExecutable(ctx context.Context, objects []string, output string, libDirs, libraries, flags []string) error {
	return m.link("exe", objects, output, libDirs, libraries, flags)
}

func (m *mockToolchain) LinkStaticLibrary(ctx context.Context, objects []string, output string, flags []string) error {
	return m.link("static", objects, output, nil, nil, flags)
}

func (m *mockToolchain) LinkSharedLibrary(ctx context.Context, objects []string, output string, libDirs, libraries, flags []string) error {
	return m.link("shared", objects, output, libDirs, libraries, flags)
}

func (m *mockToolchain) ops() []string {
	ops := make([]string, len(m.calls))
	for i, c := range m.calls {
		ops[i] = c.Op
	}
	return ops
}

// picToolchain is a mockToolchain that needs position-independent code.
type picToolchain struct{ *mockToolchain }

func (picToolchain) PICFlags() []string { return []string{"-fPIC"} }
