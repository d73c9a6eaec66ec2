package app

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNoResources is returned when a batch run has nothing to process.
var ErrNoResources = errors.New("no resources")

// resolveResources merges explicit names with the lines of the input file.
// Blank lines and '#' comments are skipped and duplicates keep their first
// position.
func resolveResources(names []string, inputPath string) ([]string, error) {
	all := append([]string{}, names...)
	if strings.TrimSpace(inputPath) != "" {
		lines, err := readResourceFile(inputPath)
		if err != nil {
			return nil, fmt.Errorf("read input: %w", err)
		}
		all = append(all, lines...)
	}
	seen := make(map[string]bool, len(all))
	out := make([]string, 0, len(all))
	for _, n := range all {
		n = NormalizeResource(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	if len(out) == 0 {
		return nil, ErrNoResources
	}
	return out, nil
}

func readResourceFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out, scanner.Err()
}
