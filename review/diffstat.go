// Package review implements the patch review pipeline: deterministic diff
// metrics, a heuristic rule scanner, a narrative review client, and the
// orchestrator that assembles the three into a report.
package review

import "strings"

// Stats holds the line counts for one patch.
type Stats struct {
	Added   int
	Removed int
}

// Total returns the total number of changed lines.
func (s Stats) Total() int {
	return s.Added + s.Removed
}

// ComputeStats counts added and removed lines in a unified diff. Lines
// whose first character is '+' or '-' count, except the "+++" and "---"
// file header lines, which would otherwise inflate both totals.
func ComputeStats(patch string) Stats {
	var s Stats
	for _, line := range strings.Split(patch, "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			// file headers, not content
		case strings.HasPrefix(line, "+"):
			s.Added++
		case strings.HasPrefix(line, "-"):
			s.Removed++
		}
	}
	return s
}
