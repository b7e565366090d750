package output

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// WriteSuccessFile writes the valid keys to path, one per line in
// lexicographic order, so repeated runs over the same set produce
// byte-identical files. Nothing is written when the set is empty.
func WriteSuccessFile(path string, keys map[string]struct{}) error {
	if len(keys) == 0 {
		return nil
	}

	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	var b strings.Builder
	for _, k := range sorted {
		b.WriteString(k)
		b.WriteByte('\n')
	}

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("writing success file %s: %w", path, err)
	}
	return nil
}
