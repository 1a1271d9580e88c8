package toolchain

import (
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sys/execabs"
)

// LookPathFunc searches the ambient execution path for an executable.
type LookPathFunc func(file string) (string, error)

// LookPath is the default LookPathFunc.
var LookPath LookPathFunc = execabs.LookPath

// Locate finds the executable name. It tries, in order, the search path,
// then every version directory under each root (highest version first)
// joined with sub. When nothing matches it returns name unchanged, so the
// failure surfaces as ErrNotFound on first use.
func Locate(lookPath LookPathFunc, name string, roots []string, sub ...string) string {
	if lookPath == nil {
		lookPath = LookPath
	}
	if path, err := lookPath(name); err == nil {
		if abs, err := filepath.Abs(path); err == nil {
			return abs
		}
		return path
	}
	for _, root := range roots {
		for _, version := range VersionDirs(root) {
			elem := append([]string{root, version}, sub...)
			candidate := filepath.Join(append(elem, name)...)
			if IsFile(candidate) {
				return candidate
			}
		}
	}
	return name
}

// VersionDirs returns the names of the subdirectories of root, highest
// version first. Versions are compared lexicographically so that the order
// is stable for a given filesystem state. A missing root yields nil.
func VersionDirs(root string) []string {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil
	}
	var versions []string
	for _, e := range entries {
		if e.IsDir() {
			versions = append(versions, e.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(versions)))
	return versions
}

// LatestVersion returns the path of the highest version directory under
// root for which ok reports true, or "" if there is none.
func LatestVersion(root string, ok func(dir string) bool) string {
	for _, version := range VersionDirs(root) {
		dir := filepath.Join(root, version)
		if ok(dir) {
			return dir
		}
	}
	return ""
}

// IsDir reports whether path exists and is a directory.
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// IsFile reports whether path exists and is not a directory.
func IsFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
