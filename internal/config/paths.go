package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// defaultCacheDir is the subdirectory within the user's home used for extracted model bundles.
const defaultCacheDir = ".cache/bookgenre"

// ResolveModelDir returns the directory model artifacts are read from.
// Absolute paths are used as-is. Relative paths stay relative to the working
// directory for the "dir" source, and are placed under ~/.cache/bookgenre for
// the "archive" source so downloads do not litter the working tree.
func ResolveModelDir(configured, source string) (string, error) {
	if filepath.IsAbs(configured) {
		return configured, nil
	}
	if source != SourceArchive {
		if configured == "" {
			return "", fmt.Errorf("model.dir is required for the %q source", source)
		}
		return filepath.Clean(configured), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	name := configured
	if name == "" {
		name = "model"
	}
	return filepath.Join(homeDir, defaultCacheDir, name), nil
}
