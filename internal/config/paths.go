package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// ExecutableDir returns the directory of the running binary with symlinks
// resolved.
func ExecutableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("failed to resolve executable symlinks: %w", err)
	}
	return filepath.Dir(exe), nil
}

// ResolvePath makes a configured path absolute. Relative paths are tried
// against the working directory first, then against the executable
// directory, so the binary works both from the repository and from a
// distribution folder. A path found in neither place resolves against the
// working directory.
func ResolvePath(p string) (string, error) {
	if p == "" || filepath.IsAbs(p) {
		return p, nil
	}

	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	if FileExists(abs) {
		return abs, nil
	}

	if dir, err := ExecutableDir(); err == nil {
		candidate := filepath.Join(dir, p)
		if FileExists(candidate) {
			return candidate, nil
		}
	}
	return abs, nil
}

// EnsureDir creates the parent directory of file if needed.
func EnsureDir(file string) error {
	dir := filepath.Dir(file)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// FileExists checks if a file or directory exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
