package search

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Paintersrp/rgpanel/internal/fzf"
	"github.com/Paintersrp/rgpanel/internal/jump"
	"github.com/Paintersrp/rgpanel/internal/pathutil"
	searchsvc "github.com/Paintersrp/rgpanel/internal/search"
	"github.com/Paintersrp/rgpanel/internal/state"
)

var (
	fileStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#0AF")).Bold(true)
	lineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

var isTerminal = func(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

type searchFlags struct {
	word          bool
	caseSensitive bool
	regex         bool
	globs         []string
	excludes      []string
	pick          bool
	asJSON        bool
}

func NewCmdSearch(s *state.State) *cobra.Command {
	var flags searchFlags

	cmd := &cobra.Command{
		Use:     "search [term] [path...]",
		Aliases: []string{"s"},
		Short:   "Search files with ripgrep and print the results grouped by file.",
		Long: heredoc.Doc(`
			Search runs ripgrep for a term and prints every match grouped by file,
			followed by a summary line.

			Without paths the current directory is searched. A single directory is
			searched recursively; otherwise the given files are searched in order.
			Toggles default to the search section of the config file.

			Examples:
			  rgp search TODO
			  rgp search -w -s Session internal/
			  rgp search -e 'func \w+Test' -g '*.go' -x 'vendor/**'
			  rgp search --pick handleSubdirs
		`),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if s == nil {
				return errors.New("state is not configured")
			}
			return run(cmd, s, flags, args[0], args[1:])
		},
	}

	cmd.Flags().BoolVarP(&flags.word, "word", "w", false, "Match whole words only")
	cmd.Flags().BoolVarP(&flags.caseSensitive, "case-sensitive", "s", false, "Match case exactly")
	cmd.Flags().BoolVarP(&flags.regex, "regex", "e", false, "Treat the term as a regular expression")
	cmd.Flags().StringArrayVarP(&flags.globs, "glob", "g", nil, "Only search files matching the glob (repeatable)")
	cmd.Flags().StringArrayVarP(&flags.excludes, "exclude", "x", nil, "Skip files matching the glob (repeatable)")
	cmd.Flags().BoolVar(&flags.pick, "pick", false, "Fuzzy-pick a match and open it in the editor")
	cmd.Flags().BoolVar(&flags.asJSON, "json", false, "Print the results as JSON")

	return cmd
}

func run(cmd *cobra.Command, s *state.State, flags searchFlags, term string, paths []string) error {
	scope, project, err := resolveScope(paths)
	if err != nil {
		return err
	}

	opts := s.Config.SearchOptions()
	if cmd.Flags().Changed("word") {
		opts.WholeWord = flags.word
	}
	if cmd.Flags().Changed("case-sensitive") {
		opts.CaseSensitive = flags.caseSensitive
	}
	if cmd.Flags().Changed("regex") {
		opts.UseRegex = flags.regex
	}
	opts.IncludeGlobs = append(opts.IncludeGlobs, flags.globs...)
	opts.ExcludeGlobs = append(opts.ExcludeGlobs, flags.excludes...)

	if flags.pick && !isTerminal(os.Stdin) {
		return errors.New("--pick needs an interactive terminal")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	session := s.NewSession("")
	defer session.Close()

	r, err := session.Start(ctx, searchsvc.Request{Term: term, Scope: scope}, opts)
	if err != nil {
		return err
	}
	stats, runErr := r.Wait(ctx)
	if errors.Is(runErr, searchsvc.ErrCancelled) {
		return runErr
	}

	tree := session.Tree()
	out := cmd.OutOrStdout()

	switch {
	case flags.pick:
		if err := pick(s, tree, project, term); err != nil {
			return err
		}
	case flags.asJSON:
		if err := printJSON(out, tree, stats); err != nil {
			return err
		}
	default:
		printTree(out, tree, project, styled(out))
		fmt.Fprintln(out, searchsvc.FormatFinished(stats))
	}

	return runErr
}

// resolveScope maps the positional paths to a search scope and the
// directory results are shown relative to.
func resolveScope(paths []string) (searchsvc.Scope, string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return searchsvc.Scope{}, "", fmt.Errorf("failed to get working directory: %w", err)
	}

	switch len(paths) {
	case 0:
		return searchsvc.DirScope(cwd), cwd, nil
	case 1:
		info, err := os.Stat(paths[0])
		if err != nil {
			return searchsvc.Scope{}, "", err
		}
		if info.IsDir() {
			return searchsvc.DirScope(paths[0]), cwd, nil
		}
	}

	scope := searchsvc.ResolveScope("", paths, nil)
	if scope.Empty() {
		return searchsvc.Scope{}, "", fmt.Errorf("none of the given files exist: %w", searchsvc.ErrEmptyScope)
	}
	return scope, cwd, nil
}

func styled(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isTerminal(f)
}

func printTree(w io.Writer, tree []searchsvc.FileNode, project string, color bool) {
	for i, node := range searchsvc.Prune(tree) {
		if i > 0 {
			fmt.Fprintln(w)
		}
		name := pathutil.Display(project, node.File)
		if color {
			name = fileStyle.Render(name)
		}
		fmt.Fprintln(w, name)

		for _, m := range node.Matches {
			num := fmt.Sprintf("%d:", m.LineNumber)
			if color {
				num = lineStyle.Render(num)
			}
			fmt.Fprintf(w, "%s%s\n", num, m.LineText)
		}
	}
	if len(searchsvc.Prune(tree)) > 0 {
		fmt.Fprintln(w)
	}
}

type jsonMatch struct {
	Line       int            `json:"line"`
	Text       string         `json:"text"`
	Submatches []jsonSubmatch `json:"submatches"`
	Location   string         `json:"location"`
}

type jsonSubmatch struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

type jsonFile struct {
	Path    string      `json:"path"`
	Matches []jsonMatch `json:"matches"`
}

type jsonResult struct {
	Files        []jsonFile `json:"files"`
	MatchCount   int        `json:"match_count"`
	ElapsedNanos int64      `json:"elapsed_nanos"`
}

func printJSON(w io.Writer, tree []searchsvc.FileNode, stats searchsvc.Stats) error {
	result := jsonResult{
		Files:        make([]jsonFile, 0, len(tree)),
		MatchCount:   stats.MatchCount,
		ElapsedNanos: stats.ElapsedNanos,
	}
	for _, node := range tree {
		file := jsonFile{Path: node.File, Matches: make([]jsonMatch, 0, len(node.Matches))}
		for _, m := range node.Matches {
			subs := make([]jsonSubmatch, 0, len(m.Submatches))
			for _, sm := range m.Submatches {
				subs = append(subs, jsonSubmatch{Start: sm.Start, End: sm.End})
			}
			file.Matches = append(file.Matches, jsonMatch{
				Line:       m.LineNumber,
				Text:       m.LineText,
				Submatches: subs,
				Location:   searchsvc.LocationOf(m).String(),
			})
		}
		result.Files = append(result.Files, file)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func pick(s *state.State, tree []searchsvc.FileNode, project, term string) error {
	finder := fzf.NewFuzzyFinder(project, fmt.Sprintf("Matches for %q", term))
	loc, err := finder.Pick(tree, "")
	if err != nil {
		return err
	}
	return jump.Open(s.Config.Editor, loc, project)
}
