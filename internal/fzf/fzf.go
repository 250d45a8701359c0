package fzf

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/ktr0731/go-fuzzyfinder"
	"github.com/muesli/termenv"

	"github.com/Paintersrp/rgpanel/internal/cache"
	"github.com/Paintersrp/rgpanel/internal/pathutil"
	"github.com/Paintersrp/rgpanel/internal/search"
)

// ErrNoSelection is returned when the user aborts the finder.
var ErrNoSelection = errors.New("no match selected")

const previewCacheSize = 32

// Item is one selectable match.
type Item struct {
	Location search.Location
	Label    string
}

// FuzzyFinder lets the user pick one match from a finished search.
type FuzzyFinder struct {
	Header  string
	Project string
	// Context is the number of lines shown around the match in the preview.
	Context int
	items   []Item
	// files holds the lines of recently previewed files. The preview is
	// redrawn on every cursor move.
	files *cache.LRUCache[string, []string]
}

func NewFuzzyFinder(project, header string) *FuzzyFinder {
	files, _ := cache.NewLRUCache[string, []string](previewCacheSize)
	return &FuzzyFinder{Project: project, Header: header, Context: 5, files: files}
}

// Items flattens the tree into selectable entries, one per match.
func Items(tree []search.FileNode, project string) []Item {
	var items []Item
	for _, node := range tree {
		display := pathutil.Display(project, node.File)
		for _, m := range node.Matches {
			loc := search.LocationOf(m)
			items = append(items, Item{
				Location: loc,
				Label:    fmt.Sprintf("%s:%d: %s", display, m.LineNumber, strings.TrimSpace(m.LineText)),
			})
		}
	}
	return items
}

// Pick runs the finder over tree. query pre-fills the prompt.
func (f *FuzzyFinder) Pick(tree []search.FileNode, query string) (search.Location, error) {
	f.items = Items(tree, f.Project)
	if len(f.items) == 0 {
		return search.Location{}, ErrNoSelection
	}

	options := []fuzzyfinder.Option{
		fuzzyfinder.WithPreviewWindow(f.renderPreview),
	}

	if query != "" {
		options = append(options, fuzzyfinder.WithQuery(query))
	}

	if f.Header != "" {
		options = append(options, fuzzyfinder.WithHeader(f.Header))
	}

	idx, err := fuzzyfinder.Find(f.items, func(i int) string {
		return f.items[i].Label
	}, options...)
	if err != nil {
		if errors.Is(err, fuzzyfinder.ErrAbort) {
			return search.Location{}, ErrNoSelection
		}
		return search.Location{}, fmt.Errorf("error selecting match: %w", err)
	}

	return f.items[idx].Location, nil
}

func (f *FuzzyFinder) renderPreview(i, w, h int) string {
	if i == -1 || i >= len(f.items) {
		return ""
	}
	loc := f.items[i].Location

	lines, ok := f.files.Get(loc.File)
	if !ok {
		var err error
		if lines, err = readLines(loc.File); err != nil {
			return "Error reading file"
		}
		f.files.Put(loc.File, lines)
	}

	if out, err := Highlight(loc, lines, f.Context, w); err == nil {
		return out
	}
	return render(loc, lines, f.Context)
}

// Preview renders the lines around loc with the matching line marked.
func Preview(loc search.Location, context int) string {
	lines, err := readLines(loc.File)
	if err != nil {
		return "Error reading file"
	}
	return render(loc, lines, context)
}

// Highlight renders the lines around loc as a fenced code block, so the
// terminal preview gets syntax colouring for the file's language.
func Highlight(loc search.Location, lines []string, context, width int) (string, error) {
	first, last := window(loc, lines, context)
	lang := strings.TrimPrefix(filepath.Ext(loc.File), ".")

	var code strings.Builder
	for n := first; n <= last; n++ {
		marker := "  "
		if n == loc.Line {
			marker = "> "
		}
		fmt.Fprintf(&code, "%s%5d  %s\n", marker, n, lines[n-1])
	}
	fence := strings.Repeat("`", max(3, longestRun(code.String(), '`')+1))

	markdown := fmt.Sprintf("**%s**\n\n%s%s\n%s%s\n", loc.Describe(), fence, lang, code.String(), fence)

	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dracula"),
		glamour.WithWordWrap(max(width, 40)),
		glamour.WithColorProfile(termenv.ANSI256),
	)
	if err != nil {
		return "", err
	}
	return r.Render(markdown)
}

func longestRun(s string, c rune) int {
	longest, run := 0, 0
	for _, r := range s {
		if r != c {
			run = 0
			continue
		}
		run++
		longest = max(longest, run)
	}
	return longest
}

func window(loc search.Location, lines []string, context int) (first, last int) {
	return max(loc.Line-context, 1), min(loc.Line+context, len(lines))
}

func render(loc search.Location, lines []string, context int) string {
	first, last := window(loc, lines, context)

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", loc.Describe())
	for n := first; n <= last; n++ {
		marker := "  "
		if n == loc.Line {
			marker = "> "
		}
		fmt.Fprintf(&b, "%s%5d  %s\n", marker, n, lines[n-1])
	}
	return b.String()
}

func readLines(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}
