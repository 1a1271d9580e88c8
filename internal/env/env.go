package env

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
)

// WorkDir returns the per-user state directory of sugar.
func WorkDir() (string, error) {
	userCacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(userCacheDir, ".sugar"), nil
}

// LockFile returns the lock file guarding builds of the project rooted at
// root. The directory holding it is created with 0700 permissions.
func LockFile(root string) (string, error) {
	workDir, err := WorkDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(workDir, "locks")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(filepath.Clean(root)))
	return filepath.Join(dir, hex.EncodeToString(sum[:8])+".lock"), nil
}

// ProgramFiles returns the 64-bit and 32-bit Program Files directories,
// honouring the ProgramFiles and ProgramFiles(x86) variables.
func ProgramFiles() (x64, x86 string) {
	x64 = os.Getenv("ProgramFiles")
	if x64 == "" {
		x64 = "C:/Program Files"
	}
	x86 = os.Getenv("ProgramFiles(x86)")
	if x86 == "" {
		x86 = "C:/Program Files (x86)"
	}
	return
}

// VisualStudioRoots returns the VC/Tools/MSVC directories searched for an
// MSVC installation, in search order.
func VisualStudioRoots() []string {
	x64, x86 := ProgramFiles()
	tools := filepath.Join("VC", "Tools", "MSVC")
	return []string{
		filepath.Join(x64, "Microsoft Visual Studio", "18", "Community", tools),
		filepath.Join(x86, "Microsoft Visual Studio", "2019", "Community", tools),
		filepath.Join(x86, "Microsoft Visual Studio", "2019", "BuildTools", tools),
		filepath.Join(x64, "Microsoft Visual Studio", "2022", "Community", tools),
	}
}

// WindowsKitsRoots returns the Windows 10 SDK roots, in search order. Each root
// holds an Include and a Lib directory with one subdirectory per SDK version.
func WindowsKitsRoots() []string {
	x64, x86 := ProgramFiles()
	return []string{
		filepath.Join(x86, "Windows Kits", "10"),
		filepath.Join(x64, "Windows Kits", "10"),
	}
}

// Tool returns the value of the environment variable key when set, otherwise def.
// It is how $CC and $AR override a backend's default executables.
func Tool(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
