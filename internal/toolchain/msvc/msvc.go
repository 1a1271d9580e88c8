// Package msvc implements the Microsoft Visual C++ backend (cl.exe,
// link.exe and lib.exe).
package msvc

import (
	"context"
	"slices"

	"github.com/goplus/sugar/internal/env"
	"github.com/goplus/sugar/internal/toolchain"
)

// Name is the compiler key selecting this backend.
const Name = "msvc"

// DefaultLibraries are linked into every executable, after the user's
// library directories and before link_dependencies. Shared libraries do not
// get them.
var DefaultLibraries = []string{"kernel32", "user32", "msvcrt"}

const notFoundHint = "ensure MSVC is installed and on PATH (run from a Developer Command Prompt)"

// Options configure the backend.
type Options struct {
	toolchain.Options

	// VSRoots are VC/Tools/MSVC directories. nil means env.VisualStudioRoots.
	VSRoots []string

	// KitsRoots are Windows 10 SDK roots. nil means env.WindowsKitsRoots.
	KitsRoots []string

	// LookPath searches the ambient path. nil means toolchain.LookPath.
	LookPath toolchain.LookPathFunc

	// DefaultLibraries replaces the package-level DefaultLibraries when non-nil.
	DefaultLibraries []string
}

func (o Options) roots() (vs, kits []string) {
	vs, kits = o.VSRoots, o.KitsRoots
	if vs == nil {
		vs = env.VisualStudioRoots()
	}
	if kits == nil {
		kits = env.WindowsKitsRoots()
	}
	return
}

// MSVC drives the Visual C++ tools.
type MSVC struct {
	handle      toolchain.Handle
	defaultLibs []string
	runner      *toolchain.Runner
}

var _ toolchain.Toolchain = (*MSVC)(nil)

func init() {
	toolchain.Register(Name, func(opts toolchain.Options) (toolchain.Toolchain, error) {
		return New(Options{Options: opts}), nil
	})
}

// New resolves the toolchain once and returns a ready-to-use MSVC.
func New(opts Options) *MSVC {
	libs := opts.DefaultLibraries
	if libs == nil {
		libs = DefaultLibraries
	}
	return &MSVC{
		handle:      Resolve(opts),
		defaultLibs: slices.Clone(libs),
		runner:      opts.Runner(notFoundHint),
	}
}

func (m *MSVC) Name() string { return Name }

// Handle returns the resolved executables and default directories.
func (m *MSVC) Handle() toolchain.Handle { return m.handle }

func (m *MSVC) ObjectFileExtension() string { return ".obj" }

// Compile runs: cl.exe /nologo /c /Fo<object> [/I<dir>]... [flags] <source>
func (m *MSVC) Compile(ctx context.Context, source, object string, includeDirs, flags []string) error {
	return m.runner.Run(ctx, m.handle.Compiler, m.compileArgs(source, object, includeDirs, flags)...)
}

func (m *MSVC) compileArgs(source, object string, includeDirs, flags []string) []string {
	args := []string{"/nologo", "/c", "/Fo" + object}
	for _, dir := range m.handle.IncludeDirs {
		args = append(args, "/I"+dir)
	}
	for _, dir := range includeDirs {
		args = append(args, "/I"+dir)
	}
	args = append(args, flags...)
	return append(args, source)
}

// LinkExecutable runs: link.exe /NOLOGO /OUT:<output> <objects> [/LIBPATH:<dir>]... <libs>.lib [flags]
func (m *MSVC) LinkExecutable(ctx context.Context, objects []string, output string, libDirs, libraries, flags []string) error {
	if len(objects) == 0 {
		return toolchain.ErrNoObjects
	}
	libs := append(slices.Clone(m.defaultLibs), libraries...)
	return m.runner.Run(ctx, m.handle.Linker, m.linkArgs(nil, objects, output, libDirs, libs, flags)...)
}

// LinkSharedLibrary runs link.exe with /DLL.
func (m *MSVC) LinkSharedLibrary(ctx context.Context, objects []string, output string, libDirs, libraries, flags []string) error {
	if len(objects) == 0 {
		return toolchain.ErrNoObjects
	}
	return m.runner.Run(ctx, m.handle.Linker, m.linkArgs([]string{"/DLL"}, objects, output, libDirs, libraries, flags)...)
}

func (m *MSVC) linkArgs(mode, objects []string, output string, libDirs, libraries, flags []string) []string {
	args := append([]string{"/NOLOGO"}, mode...)
	args = append(args, "/OUT:"+output)
	args = append(args, objects...)
	for _, dir := range m.handle.LibDirs {
		args = append(args, "/LIBPATH:"+dir)
	}
	for _, dir := range libDirs {
		args = append(args, "/LIBPATH:"+dir)
	}
	for _, lib := range libraries {
		args = append(args, lib+".lib")
	}
	return append(args, flags...)
}

// LinkStaticLibrary runs: lib.exe /NOLOGO /OUT:<output> <objects> [flags]
func (m *MSVC) LinkStaticLibrary(ctx context.Context, objects []string, output string, flags []string) error {
	if len(objects) == 0 {
		return toolchain.ErrNoObjects
	}
	args := append([]string{"/NOLOGO", "/OUT:" + output}, objects...)
	return m.runner.Run(ctx, m.handle.Archiver, append(args, flags...)...)
}
