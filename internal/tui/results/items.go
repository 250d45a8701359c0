package results

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Paintersrp/rgpanel/internal/pathutil"
	"github.com/Paintersrp/rgpanel/internal/search"
)

type fileItem struct {
	file    string
	display string
	count   int
}

type matchItem struct {
	match search.Match
}

func newFileItem(file, project string) fileItem {
	return fileItem{file: file, display: pathutil.Display(project, file)}
}

func (i fileItem) Title() string {
	return filepath.Base(i.file)
}

func (i fileItem) Description() string {
	noun := "matches"
	if i.count == 1 {
		noun = "match"
	}
	return fmt.Sprintf("%s · %d %s", i.display, i.count, noun)
}

func (i fileItem) FilterValue() string {
	return i.display
}

func (i fileItem) location() search.Location {
	return search.FileLocation(search.FileNode{File: i.file})
}

func (i matchItem) Title() string {
	return fmt.Sprintf("  %d: %s", i.match.LineNumber, strings.TrimSpace(i.match.LineText))
}

func (i matchItem) Description() string {
	return "  " + search.LocationOf(i.match).Describe()
}

func (i matchItem) FilterValue() string {
	return i.match.LineText
}

func (i matchItem) location() search.Location {
	return search.LocationOf(i.match)
}

// locatable is implemented by every list item that can be jumped to.
type locatable interface {
	location() search.Location
}
