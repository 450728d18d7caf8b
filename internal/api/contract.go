package api

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"eve-buyback/internal/engine"
)

// Contract lines are "<item name><sep><volume>" where the separator is a tab
// or a run of two or more spaces. Item names may contain single spaces.
var lineSeparator = regexp.MustCompile(`\t+| {2,}`)

// ParseContract tokenizes a pasted plain-text contract into items. Empty lines
// are skipped; any malformed line fails the whole contract.
func ParseContract(raw string) ([]engine.ContractItem, error) {
	var items []engine.ContractItem
	for i, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(strings.TrimSpace(line), "\r")
		if line == "" {
			continue
		}

		parts := splitLine(line)
		if len(parts) < 2 {
			return nil, fmt.Errorf("line %d: %w", i+1, engine.ErrBadInput)
		}

		// Volumes pasted from the client often carry thousands separators.
		volumeStr := strings.ReplaceAll(parts[len(parts)-1], ",", "")
		volume, err := strconv.ParseInt(volumeStr, 10, 64)
		if err != nil || volume < 1 {
			return nil, fmt.Errorf("line %d: volume %q must be a positive integer: %w", i+1, parts[len(parts)-1], engine.ErrBadInput)
		}

		name := strings.TrimSpace(strings.Join(parts[:len(parts)-1], " "))
		items = append(items, engine.ContractItem{Name: name, Volume: volume})
	}
	return items, nil
}

func splitLine(line string) []string {
	var parts []string
	for _, p := range lineSeparator.Split(line, -1) {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}
