package util

import (
	"os"
	"path/filepath"
)

// FindGitRoot finds the root of the git repository containing start.
// Returns start unchanged if no .git directory is found above it.
func FindGitRoot(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}

	for cur := dir; ; {
		if _, err := os.Stat(filepath.Join(cur, ".git")); err == nil {
			return cur, nil
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			// Reached root
			return dir, nil
		}
		cur = parent
	}
}
