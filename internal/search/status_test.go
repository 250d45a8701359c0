package search

import "testing"

func TestFormatFinished(t *testing.T) {
	tests := []struct {
		stats Stats
		want  string
	}{
		{Stats{MatchCount: 0}, "Found 0 results in 0.000000 seconds."},
		{Stats{MatchCount: 1, ElapsedNanos: 5000000}, "Found 1 result in 0.005000 seconds."},
		{Stats{MatchCount: 42, ElapsedNanos: 1234567891}, "Found 42 results in 1.234568 seconds."},
	}

	for _, tt := range tests {
		if got := FormatFinished(tt.stats); got != tt.want {
			t.Fatalf("FormatFinished(%+v) = %q, want %q", tt.stats, got, tt.want)
		}
	}
}
