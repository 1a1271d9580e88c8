// Package config loads and validates the sugar project file.
//
// A project is described by sugar.toml (or sugar.yaml / sugar.yml) at the
// project root:
//
//	name = "calculator"
//	compiler = "gcc"
//	project_type = "exe"
//	link_dependencies = ["m"]
//	include_dirs = ["include"]
//
// Relative directories are resolved against the directory holding the file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/mod/semver"
)

// ProjectType is the kind of artifact a project links into.
type ProjectType string

const (
	Executable    ProjectType = "exe"
	StaticLibrary ProjectType = "static"
	SharedLibrary ProjectType = "shared"
)

// Valid reports whether t is one of the known project types.
func (t ProjectType) Valid() bool {
	switch t {
	case Executable, StaticLibrary, SharedLibrary:
		return true
	}
	return false
}

var (
	ErrInvalidConfig      = errors.New("invalid configuration")
	ErrUnknownProjectType = errors.New("unknown project type")
)

// Config is a validated project description. It is not modified after Load.
type Config struct {
	Name    string `toml:"name" yaml:"name"`
	Version string `toml:"version" yaml:"version"`

	// Compiler selects the toolchain backend, e.g. "msvc", "gcc" or "clang".
	Compiler    string      `toml:"compiler" yaml:"compiler"`
	ProjectType ProjectType `toml:"project_type" yaml:"project_type"`

	// LinkDependencies are library names without prefix or extension.
	LinkDependencies []string `toml:"link_dependencies" yaml:"link_dependencies"`

	IncludeDirs   []string `toml:"include_dirs" yaml:"include_dirs"`
	LibDirs       []string `toml:"lib_dirs" yaml:"lib_dirs"`
	CompilerFlags []string `toml:"compiler_flags" yaml:"compiler_flags"`
	LinkerFlags   []string `toml:"linker_flags" yaml:"linker_flags"`
	ArchiverFlags []string `toml:"archiver_flags" yaml:"archiver_flags"`

	SourceDir string `toml:"source_dir" yaml:"source_dir"`
	BuildDir  string `toml:"build_dir" yaml:"build_dir"`
	OutputDir string `toml:"output_dir" yaml:"output_dir"`

	// Timeout bounds every compiler, linker and archiver invocation.
	// It is a Go duration string; empty means no limit.
	Timeout string `toml:"timeout" yaml:"timeout"`

	// Env is merged into the environment of every toolchain subprocess.
	Env map[string]string `toml:"env" yaml:"env"`
}

// Validate checks c for missing or malformed values. The returned error
// wraps ErrInvalidConfig and lists every problem found.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Compiler) == "" {
		errs = append(errs, errors.New("compiler is required"))
	}
	switch {
	case c.ProjectType == "":
		errs = append(errs, errors.New("project_type is required"))
	case !c.ProjectType.Valid():
		errs = append(errs, fmt.Errorf("%w %q (want exe, static or shared)", ErrUnknownProjectType, c.ProjectType))
	}
	if c.Version != "" && !semver.IsValid(canonicalVersion(c.Version)) {
		errs = append(errs, fmt.Errorf("version %q is not a semantic version", c.Version))
	}
	if c.Timeout != "" {
		if d, err := time.ParseDuration(c.Timeout); err != nil {
			errs = append(errs, fmt.Errorf("timeout: %w", err))
		} else if d < 0 {
			errs = append(errs, fmt.Errorf("timeout %q is negative", c.Timeout))
		}
	}
	for _, dep := range c.LinkDependencies {
		if strings.TrimSpace(dep) == "" {
			errs = append(errs, errors.New("link_dependencies contains an empty name"))
			break
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

// TimeoutDuration returns the per-subprocess timeout, zero when unset.
// It must only be called on a validated Config.
func (c *Config) TimeoutDuration() time.Duration {
	if c.Timeout == "" {
		return 0
	}
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

func canonicalVersion(v string) string {
	if strings.HasPrefix(v, "v") {
		return v
	}
	return "v" + v
}
