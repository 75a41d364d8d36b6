package engine

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// ExpandFileReferences splices local file references into the flat
// reference sequence: each non-comment, non-blank line of the file
// becomes one downstream reference, in file order. An unreadable file
// fails that one reference; its siblings are unaffected.
func ExpandFileReferences(references []string) ([]string, []error) {
	expanded := []string{}
	failures := []error{}

	for _, reference := range references {
		trimmed := strings.TrimSpace(reference)
		if trimmed == "" {
			continue
		}

		info, err := os.Stat(trimmed)
		if err != nil || info.IsDir() {
			expanded = append(expanded, trimmed)
			continue
		}

		lines, err := readReferenceFile(trimmed)
		if err != nil {
			failures = append(failures, fmt.Errorf("reference file %s: %w", trimmed, err))
			continue
		}
		expanded = append(expanded, lines...)
	}

	return expanded, failures
}

func readReferenceFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	lines := []string{}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}
