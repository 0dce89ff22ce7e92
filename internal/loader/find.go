package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FindFile returns the name of the first regular file in dir whose
// lower-cased name matches the lower-cased declared pattern, or "" when none
// does. Entries are checked in name order.
func FindFile(dir, declared string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read partition dir: %w", err)
	}

	pattern := strings.ToLower(declared)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ok, err := filepath.Match(pattern, strings.ToLower(e.Name()))
		if err != nil {
			return "", fmt.Errorf("match %q: %w", declared, err)
		}
		if ok {
			return e.Name(), nil
		}
	}
	return "", nil
}
