package search

import (
	"errors"
	"slices"
	"strings"

	"github.com/Paintersrp/rgpanel/internal/ripgrep"
)

// Options is the immutable set of toggles applied to a single search.
type Options = ripgrep.Options

var (
	// ErrNothingToSearch is the umbrella for requests that cannot launch a
	// search. Start returns it without spawning a process.
	ErrNothingToSearch = errors.New("nothing to search")
	// ErrEmptyTerm is returned for requests with a blank term.
	ErrEmptyTerm = errNothing("search term is empty")
	// ErrEmptyScope is returned for requests without a directory or files.
	ErrEmptyScope = errNothing("search scope is empty")
)

type nothingError struct{ msg string }

func errNothing(msg string) error { return &nothingError{msg: msg} }

func (e *nothingError) Error() string        { return e.msg }
func (e *nothingError) Is(target error) bool { return target == ErrNothingToSearch }

// Scope restricts a search to either a single directory or an explicit list
// of files. When both are set the directory wins.
type Scope struct {
	Dir   string
	Files []string
}

// DirScope scopes a search to everything below dir.
func DirScope(dir string) Scope {
	return Scope{Dir: dir}
}

// FileScope scopes a search to the given files, in order.
func FileScope(files ...string) Scope {
	return Scope{Files: slices.Clone(files)}
}

// IsDir reports whether the scope is a directory scope.
func (s Scope) IsDir() bool {
	return s.Dir != ""
}

// Empty reports whether the scope names nothing to search.
func (s Scope) Empty() bool {
	return len(s.Targets()) == 0
}

// Targets returns the positional rg arguments for the scope: the directory,
// or one argument per non-empty file path.
func (s Scope) Targets() []string {
	if s.Dir != "" {
		return []string{s.Dir}
	}
	targets := make([]string, 0, len(s.Files))
	for _, f := range s.Files {
		if strings.TrimSpace(f) == "" {
			continue
		}
		targets = append(targets, f)
	}
	return targets
}

// Request describes what to search for and where.
type Request struct {
	Term  string
	Scope Scope
}

// Validate reports why a request cannot be searched, if it cannot.
func (r Request) Validate() error {
	if r.Term == "" {
		return ErrEmptyTerm
	}
	if r.Scope.Empty() {
		return ErrEmptyScope
	}
	return nil
}

func (r Request) clone() Request {
	r.Scope.Files = slices.Clone(r.Scope.Files)
	return r
}
