// Package toolchain defines the contract every compiler backend satisfies,
// together with the subprocess and lookup helpers the backends share.
package toolchain

import (
	"context"
	"errors"
)

// Toolchain compiles single sources and links object files. Every method is
// one blocking subprocess invocation; a nonzero exit is always a failure.
type Toolchain interface {
	// Name returns the key the backend is registered under.
	Name() string

	// Compile translates exactly one source into exactly one object file.
	// It never links. The parent directory of object must already exist.
	// On failure a partial object may be left behind.
	Compile(ctx context.Context, source, object string, includeDirs, flags []string) error

	// LinkExecutable links objects into a runnable artifact. Default system
	// library directories are searched before libDirs.
	LinkExecutable(ctx context.Context, objects []string, output string, libDirs, libraries, flags []string) error

	// LinkStaticLibrary archives objects into a static library.
	LinkStaticLibrary(ctx context.Context, objects []string, output string, flags []string) error

	// LinkSharedLibrary is LinkExecutable producing a dynamically loadable artifact.
	LinkSharedLibrary(ctx context.Context, objects []string, output string, libDirs, libraries, flags []string) error

	// ObjectFileExtension returns the object suffix, including the dot.
	ObjectFileExtension() string
}

// PICer is implemented by backends whose objects need extra compile flags
// to be linked into a shared library.
type PICer interface {
	PICFlags() []string
}

// Handle is the resolved state of a backend: where its executables live and
// which system directories it searches by default. It is computed once when
// the backend is constructed and never changes afterwards.
type Handle struct {
	Compiler string
	Linker   string
	Archiver string

	IncludeDirs []string
	LibDirs     []string
}

// ErrNoObjects is returned by the link operations when given no objects.
var ErrNoObjects = errors.New("no object files to link")
