package search

import (
	"testing"

	"github.com/Paintersrp/rgpanel/internal/ripgrep"
)

func TestLocationOf(t *testing.T) {
	m := Match{
		File:       "/src/a.go",
		LineNumber: 12,
		LineText:   "\tfoo := bar",
		Submatches: []ripgrep.Submatch{{Start: 1, End: 4}, {Start: 8, End: 11}},
	}

	loc := LocationOf(m)
	if loc != (Location{File: "/src/a.go", Line: 12, StartColumn: 1, EndColumn: 4}) {
		t.Fatalf("LocationOf = %+v", loc)
	}
	if got, want := loc.Describe(), "/src/a.go, line 12, column 2 to 5"; got != want {
		t.Fatalf("Describe = %q, want %q", got, want)
	}
	if got, want := loc.String(), "/src/a.go:12:2"; got != want {
		t.Fatalf("String = %q, want %q", got, want)
	}
	if got := loc.BaseName(); got != "a.go" {
		t.Fatalf("BaseName = %q", got)
	}

	m.Submatches = nil
	if loc := LocationOf(m); loc.StartColumn != 0 || loc.EndColumn != 0 {
		t.Fatalf("match without spans should point at the line start, got %+v", loc)
	}

	if loc := FileLocation(FileNode{File: "/src/b.go"}); loc != (Location{File: "/src/b.go", Line: 1}) {
		t.Fatalf("FileLocation = %+v", loc)
	}
}
