// Package gcc implements the GCC-compatible driver backend, registered as
// "gcc" and "clang".
package gcc

import (
	"context"
	"runtime"
	"slices"
	"strings"

	"github.com/goplus/sugar/internal/env"
	"github.com/goplus/sugar/internal/toolchain"
)

// family is a compiler driver and the archivers that go with it, in
// preference order.
type family struct {
	cc        string
	archivers []string
}

var families = map[string]family{
	"gcc":   {cc: "gcc", archivers: []string{"ar"}},
	"clang": {cc: "clang", archivers: []string{"llvm-ar", "ar"}},
}

func init() {
	for name := range families {
		toolchain.Register(name, func(opts toolchain.Options) (toolchain.Toolchain, error) {
			return New(name, Options{Options: opts}), nil
		})
	}
}

// Options configure the backend.
type Options struct {
	toolchain.Options

	// LookPath searches the ambient path. nil means toolchain.LookPath.
	LookPath toolchain.LookPathFunc

	// GOOS is the target platform. Empty means runtime.GOOS.
	GOOS string
}

// GCC drives a GCC-compatible compiler and an ar-compatible archiver.
type GCC struct {
	name   string
	handle toolchain.Handle
	goos   string
	runner *toolchain.Runner

	// Leading arguments split off $CC and $AR, as in CC="ccache gcc".
	ccArgs []string
	arArgs []string
}

var _ toolchain.Toolchain = (*GCC)(nil)
var _ toolchain.PICer = (*GCC)(nil)

// New returns the backend for the driver family name ("gcc" or "clang").
// $CC and $AR, when set, replace the family's executables. Their first word
// is the executable and any further words are passed before every argument
// list. Quoting is not interpreted. An unknown name is treated as the name of
// the driver itself.
func New(name string, opts Options) *GCC {
	f, ok := families[name]
	if !ok {
		f = family{cc: name, archivers: []string{"ar"}}
	}
	goos := opts.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}
	cc, ccArgs := command(opts.LookPath, env.Tool("CC", f.cc))
	ar, arArgs := archiver(opts.LookPath, f.archivers)
	return &GCC{
		name: name,
		handle: toolchain.Handle{
			Compiler: cc,
			Linker:   cc,
			Archiver: ar,
		},
		goos:   goos,
		runner: opts.Runner("ensure " + f.cc + " is installed and on PATH, or set $CC"),
		ccArgs: ccArgs,
		arArgs: arArgs,
	}
}

// command splits a tool setting into the located executable and its
// leading arguments.
func command(lookPath toolchain.LookPathFunc, value string) (string, []string) {
	words := strings.Fields(value)
	if len(words) == 0 {
		return toolchain.Locate(lookPath, value, nil), nil
	}
	return toolchain.Locate(lookPath, words[0], nil), words[1:]
}

// archiver returns $AR, else the first candidate on the search path, else
// the last candidate as a bare name.
func archiver(lookPath toolchain.LookPathFunc, candidates []string) (string, []string) {
	if ar := env.Tool("AR", ""); strings.TrimSpace(ar) != "" {
		return command(lookPath, ar)
	}
	for _, name := range candidates {
		if path := toolchain.Locate(lookPath, name, nil); path != name {
			return path, nil
		}
	}
	return candidates[len(candidates)-1], nil
}

func (g *GCC) Name() string { return g.name }

// Handle returns the resolved executables.
func (g *GCC) Handle() toolchain.Handle { return g.handle }

func (g *GCC) ObjectFileExtension() string { return ".o" }

// PICFlags returns -fPIC except on windows, where code is always
// position independent.
func (g *GCC) PICFlags() []string {
	if g.goos == "windows" {
		return nil
	}
	return []string{"-fPIC"}
}

// Compile runs: cc -c -o <object> [-I<dir>]... [flags] <source>
func (g *GCC) Compile(ctx context.Context, source, object string, includeDirs, flags []string) error {
	args := append(slices.Clone(g.ccArgs), "-c", "-o", object)
	for _, dir := range includeDirs {
		args = append(args, "-I"+dir)
	}
	args = append(args, flags...)
	return g.runner.Run(ctx, g.handle.Compiler, append(args, source)...)
}

// LinkExecutable runs: cc -o <output> [-L<dir>]... <objects> [-l<lib>]... [flags]
func (g *GCC) LinkExecutable(ctx context.Context, objects []string, output string, libDirs, libraries, flags []string) error {
	if len(objects) == 0 {
		return toolchain.ErrNoObjects
	}
	return g.runner.Run(ctx, g.handle.Linker, linkArgs(slices.Clone(g.ccArgs), objects, output, libDirs, libraries, flags)...)
}

// LinkSharedLibrary runs the driver with -shared.
func (g *GCC) LinkSharedLibrary(ctx context.Context, objects []string, output string, libDirs, libraries, flags []string) error {
	if len(objects) == 0 {
		return toolchain.ErrNoObjects
	}
	return g.runner.Run(ctx, g.handle.Linker, linkArgs(append(slices.Clone(g.ccArgs), "-shared"), objects, output, libDirs, libraries, flags)...)
}

// Libraries come after objects so that single-pass linkers resolve them.
func linkArgs(mode, objects []string, output string, libDirs, libraries, flags []string) []string {
	args := append(mode, "-o", output)
	for _, dir := range libDirs {
		args = append(args, "-L"+dir)
	}
	args = append(args, objects...)
	for _, lib := range libraries {
		args = append(args, "-l"+lib)
	}
	return append(args, flags...)
}

// LinkStaticLibrary runs: ar rcs <output> <objects> [flags]
func (g *GCC) LinkStaticLibrary(ctx context.Context, objects []string, output string, flags []string) error {
	if len(objects) == 0 {
		return toolchain.ErrNoObjects
	}
	args := append(append(slices.Clone(g.arArgs), "rcs", output), objects...)
	return g.runner.Run(ctx, g.handle.Archiver, append(args, flags...)...)
}
