package msvc

import (
	"path/filepath"

	"github.com/goplus/sugar/internal/toolchain"
)

// hostBin is where a VC tools version keeps its x64-hosted, x64-targeting tools.
var hostBin = []string{"bin", "Hostx64", "x64"}

// Resolve looks through the search path and the install roots in opts and returns
// the toolchain handle. It only reads the filesystem, so two calls against
// the same filesystem state return equal handles.
func Resolve(opts Options) toolchain.Handle {
	vsRoots, kitsRoots := opts.roots()
	h := toolchain.Handle{
		Compiler: toolchain.Locate(opts.LookPath, "cl.exe", vsRoots, hostBin...),
		Linker:   toolchain.Locate(opts.LookPath, "link.exe", vsRoots, hostBin...),
		Archiver: toolchain.Locate(opts.LookPath, "lib.exe", vsRoots, hostBin...),
	}

	// One VC include and lib directory per Visual Studio installation,
	// taken from its highest version that has one.
	for _, root := range vsRoots {
		if dir := toolchain.LatestVersion(root, hasDir("include")); dir != "" {
			h.IncludeDirs = append(h.IncludeDirs, filepath.Join(dir, "include"))
		}
	}
	for _, root := range vsRoots {
		if dir := toolchain.LatestVersion(root, hasDir("lib", "x64")); dir != "" {
			h.LibDirs = append(h.LibDirs, filepath.Join(dir, "lib", "x64"))
		}
	}

	// The Windows SDK contributes the ucrt and um directories of its
	// highest version only.
	for _, root := range kitsRoots {
		if versions := toolchain.VersionDirs(filepath.Join(root, "Include")); len(versions) > 0 {
			dir := filepath.Join(root, "Include", versions[0])
			h.IncludeDirs = appendDirs(h.IncludeDirs, filepath.Join(dir, "ucrt"), filepath.Join(dir, "um"))
		}
	}
	for _, root := range kitsRoots {
		if versions := toolchain.VersionDirs(filepath.Join(root, "Lib")); len(versions) > 0 {
			dir := filepath.Join(root, "Lib", versions[0])
			h.LibDirs = appendDirs(h.LibDirs, filepath.Join(dir, "ucrt", "x64"), filepath.Join(dir, "um", "x64"))
		}
	}
	return h
}

func hasDir(elem ...string) func(string) bool {
	return func(dir string) bool {
		return toolchain.IsDir(filepath.Join(append([]string{dir}, elem...)...))
	}
}

// appendDirs appends the entries of dirs that exist.
func appendDirs(to []string, dirs ...string) []string {
	for _, dir := range dirs {
		if toolchain.IsDir(dir) {
			to = append(to, dir)
		}
	}
	return to
}
