// Package project derives source, object and artifact paths from a project
// configuration.
package project

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/goplus/sugar/internal/config"
)

// SourceExtensions are the file extensions recognised as translation units.
var SourceExtensions = []string{".c", ".cc", ".cpp", ".cxx", ".c++"}

var (
	ErrNoSources       = errors.New("no source files found")
	ErrObjectCollision = errors.New("object file name collision")
	ErrUnsafeClean     = errors.New("refusing to clean")
)

// Project is a configuration anchored at its root directory.
type Project struct {
	Root   string
	Config *config.Config

	// GOOS selects platform naming conventions. Empty means runtime.GOOS.
	GOOS string
}

// New returns the project described by cfg, rooted at root.
func New(root string, cfg *config.Config) (*Project, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	return &Project{Root: abs, Config: cfg}, nil
}

func (p *Project) goos() string {
	if p.GOOS != "" {
		return p.GOOS
	}
	return runtime.GOOS
}

// Name is the configured project name, or the root directory name.
func (p *Project) Name() string {
	if p.Config.Name != "" {
		return p.Config.Name
	}
	return filepath.Base(p.Root)
}

func (p *Project) dir(configured, def string) string {
	if configured == "" {
		configured = def
	}
	if filepath.IsAbs(configured) {
		return filepath.Clean(configured)
	}
	return filepath.Join(p.Root, configured)
}

func (p *Project) BuildDir() string  { return p.dir(p.Config.BuildDir, "build") }
func (p *Project) OutputDir() string { return p.dir(p.Config.OutputDir, "output") }
func (p *Project) SourceDir() string { return p.dir(p.Config.SourceDir, "src") }

// IncludeDirs returns the configured include directories resolved against
// the root.
func (p *Project) IncludeDirs() []string { return p.dirs(p.Config.IncludeDirs) }

// LibDirs returns the configured library directories resolved against the
// root.
func (p *Project) LibDirs() []string { return p.dirs(p.Config.LibDirs) }

func (p *Project) dirs(configured []string) []string {
	if len(configured) == 0 {
		return nil
	}
	out := make([]string, 0, len(configured))
	for _, dir := range configured {
		out = append(out, p.dir(dir, ""))
	}
	return out
}

// SourceFiles returns the source files under SourceDir in lexical walk
// order. A missing source directory yields no files and no error.
func (p *Project) SourceFiles() ([]string, error) {
	root := p.SourceDir()
	var sources []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root && errors.Is(err, fs.ErrNotExist) {
				return filepath.SkipDir
			}
			return err
		}
		if !d.IsDir() && IsSource(path) {
			sources = append(sources, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sources, nil
}

// IsSource reports whether path has one of SourceExtensions. The match is
// case-insensitive, so main.C and main.CPP count.
func IsSource(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range SourceExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// TargetFilename is the artifact file name for the project type on the
// target platform.
func (p *Project) TargetFilename() (string, error) {
	name := p.Name()
	windows := p.goos() == "windows"
	switch p.Config.ProjectType {
	case config.Executable:
		if windows {
			return name + ".exe", nil
		}
		return name, nil
	case config.StaticLibrary:
		if windows {
			return name + ".lib", nil
		}
		return "lib" + name + ".a", nil
	case config.SharedLibrary:
		switch p.goos() {
		case "windows":
			return name + ".dll", nil
		case "darwin":
			return "lib" + name + ".dylib", nil
		}
		return "lib" + name + ".so", nil
	}
	return "", fmt.Errorf("%w %q", config.ErrUnknownProjectType, p.Config.ProjectType)
}

// Artifact is the full path of the linked output.
func (p *Project) Artifact() (string, error) {
	name, err := p.TargetFilename()
	if err != nil {
		return "", err
	}
	return filepath.Join(p.OutputDir(), name), nil
}

// ObjectFile is <BuildDir>/<source stem><ext>.
func (p *Project) ObjectFile(source, ext string) string {
	base := filepath.Base(source)
	return filepath.Join(p.BuildDir(), strings.TrimSuffix(base, filepath.Ext(base))+ext)
}

// ObjectFiles maps sources to object files, one to one and in order. Two
// sources with the same stem would overwrite each other's object, which is
// reported as ErrObjectCollision. On windows and darwin stems are compared
// case-insensitively.
func (p *Project) ObjectFiles(sources []string, ext string) ([]string, error) {
	foldCase := p.goos() == "windows" || p.goos() == "darwin"
	seen := make(map[string]string, len(sources))
	objects := make([]string, 0, len(sources))
	for _, src := range sources {
		obj := p.ObjectFile(src, ext)
		key := obj
		if foldCase {
			key = strings.ToLower(obj)
		}
		if prev, dup := seen[key]; dup {
			return nil, fmt.Errorf("%w: %s and %s both compile to %s", ErrObjectCollision, rel(p.Root, prev), rel(p.Root, src), filepath.Base(obj))
		}
		seen[key] = src
		objects = append(objects, obj)
	}
	return objects, nil
}

// Clean removes the build and output directories. Both must lie strictly
// inside the project root and must not hold the source directory; otherwise
// nothing is removed.
func (p *Project) Clean() error {
	dirs := []string{p.BuildDir(), p.OutputDir()}
	for _, dir := range dirs {
		if err := p.checkRemovable(dir); err != nil {
			return err
		}
	}
	for _, dir := range dirs {
		if err := os.RemoveAll(dir); err != nil {
			return err
		}
	}
	return nil
}

func (p *Project) checkRemovable(dir string) error {
	if !within(p.Root, dir) {
		return fmt.Errorf("%w: %s is not inside project root %s", ErrUnsafeClean, dir, p.Root)
	}
	if src := p.SourceDir(); src == dir || within(dir, src) {
		return fmt.Errorf("%w: %s holds the sources %s", ErrUnsafeClean, dir, src)
	}
	return nil
}

// within reports whether path is strictly below dir.
func within(dir, path string) bool {
	r, err := filepath.Rel(dir, path)
	if err != nil || r == "." || filepath.IsAbs(r) {
		return false
	}
	return r != ".." && !strings.HasPrefix(r, ".."+string(filepath.Separator))
}

func rel(root, path string) string {
	if r, err := filepath.Rel(root, path); err == nil {
		return r
	}
	return path
}
