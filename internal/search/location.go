package search

import (
	"fmt"
	"path/filepath"
)

// Location is a place in a file to jump to. Line is 1-based, columns are
// 0-based byte offsets.
type Location struct {
	File        string
	Line        int
	StartColumn int
	EndColumn   int
}

// LocationOf returns the location of the first highlighted span of m, or the
// start of the line when m has no spans.
func LocationOf(m Match) Location {
	loc := Location{File: m.File, Line: m.LineNumber}
	if len(m.Submatches) > 0 {
		loc.StartColumn = m.Submatches[0].Start
		loc.EndColumn = m.Submatches[0].End
	}
	return loc
}

// FileLocation returns the top of the file represented by n.
func FileLocation(n FileNode) Location {
	return Location{File: n.File, Line: 1}
}

// Describe renders a human readable description with 1-based columns.
func (l Location) Describe() string {
	return fmt.Sprintf("%s, line %d, column %d to %d", l.File, l.Line, l.StartColumn+1, l.EndColumn+1)
}

// String renders the location as file:line:column with a 1-based column.
func (l Location) String() string {
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.StartColumn+1)
}

// BaseName returns the file name without its directory.
func (l Location) BaseName() string {
	return filepath.Base(l.File)
}
