package keyfile

import (
	"fmt"
	"os"
	"strings"
)

// Load reads a newline-delimited key file. Each line is trimmed of
// surrounding whitespace, blank lines are skipped, and duplicate keys
// are dropped while preserving first-seen order. Keys are opaque
// tokens; no further validation is performed.
func Load(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading key file %s: %w", path, err)
	}

	lines := strings.Split(string(data), "\n")
	seen := make(map[string]struct{}, len(lines))
	var keys []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		keys = append(keys, line)
	}

	return keys, nil
}
