// Package fsutil holds small path helpers shared by the catalog and the CLI.
package fsutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ExpandHome expands a leading '~' to the user's home directory.
func ExpandHome(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
}

// Resolve returns p unchanged when it is absolute (after ~ expansion),
// otherwise p joined onto dir. An empty p resolves to "".
func Resolve(dir, p string) string {
	if p == "" {
		return ""
	}
	if exp, err := ExpandHome(p); err == nil {
		p = exp
	}
	if filepath.IsAbs(p) {
		return p
	}
	if exp, err := ExpandHome(dir); err == nil {
		dir = exp
	}
	return filepath.Join(dir, p)
}

// PathExists checks if the given path exists. Stat errors other than
// not-exist (e.g. permission denied) count as existing.
func PathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !errors.Is(err, os.ErrNotExist)
}
