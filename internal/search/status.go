package search

import "fmt"

const (
	StatusReady     = "Ready to search."
	StatusSearching = "Searching..."
)

// FormatFinished renders the status line shown once a run completes.
func FormatFinished(stats Stats) string {
	noun := "results"
	if stats.MatchCount == 1 {
		noun = "result"
	}
	seconds := float64(stats.ElapsedNanos) / 1e9
	return fmt.Sprintf("Found %d %s in %.6f seconds.", stats.MatchCount, noun, seconds)
}
