package storage

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ValidatePathWithinDir resolves filePath against dir and rejects anything
// that lands outside it (e.g. "../../etc/passwd" or an absolute path elsewhere).
func ValidatePathWithinDir(filePath, dir string) (string, error) {
	targetPath := filePath
	if !filepath.IsAbs(targetPath) {
		targetPath = filepath.Join(dir, targetPath)
	}

	absPath, err := filepath.Abs(targetPath)
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve directory: %w", err)
	}

	// Trailing separator so /requests-evil does not match /requests.
	if !strings.HasSuffix(absDir, string(filepath.Separator)) {
		absDir += string(filepath.Separator)
	}

	if !strings.HasPrefix(absPath, absDir) {
		return "", fmt.Errorf("access denied: path outside requests directory")
	}

	return absPath, nil
}
