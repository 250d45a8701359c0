package ripgrep

import "slices"

// DefaultProgram is the executable looked up on PATH when no explicit path is
// configured.
const DefaultProgram = "rg"

// Options are the user-facing search toggles translated into rg flags.
type Options struct {
	WholeWord     bool     `yaml:"whole_word"     json:"whole_word"`
	CaseSensitive bool     `yaml:"case_sensitive" json:"case_sensitive"`
	UseRegex      bool     `yaml:"use_regex"      json:"use_regex"`
	IncludeGlobs  []string `yaml:"include_globs"  json:"include_globs"`
	ExcludeGlobs  []string `yaml:"exclude_globs"  json:"exclude_globs"`
}

// Clone returns a deep copy so later edits to the caller's slices do not
// leak into a running search.
func (o Options) Clone() Options {
	o.IncludeGlobs = slices.Clone(o.IncludeGlobs)
	o.ExcludeGlobs = slices.Clone(o.ExcludeGlobs)
	return o
}

// Equal reports whether two option sets produce the same rg invocation.
func (o Options) Equal(other Options) bool {
	return o.WholeWord == other.WholeWord &&
		o.CaseSensitive == other.CaseSensitive &&
		o.UseRegex == other.UseRegex &&
		slices.Equal(o.IncludeGlobs, other.IncludeGlobs) &&
		slices.Equal(o.ExcludeGlobs, other.ExcludeGlobs)
}

// BuildArgs returns the rg argument vector for a search. The flag order is
// fixed so identical inputs always yield identical vectors:
//
//	[--word-regexp] (--case-sensitive|--ignore-case) [--fixed-strings]
//	[--glob <p>]... [--glob !<p>]... [extra...] --json --regexp <term> <targets...>
//
// Empty glob patterns are skipped.
func BuildArgs(term string, opts Options, targets []string, extra ...string) []string {
	args := make([]string, 0, 6+2*(len(opts.IncludeGlobs)+len(opts.ExcludeGlobs))+len(extra)+len(targets))

	if opts.WholeWord {
		args = append(args, "--word-regexp")
	}
	if opts.CaseSensitive {
		args = append(args, "--case-sensitive")
	} else {
		args = append(args, "--ignore-case")
	}
	if !opts.UseRegex {
		args = append(args, "--fixed-strings")
	}
	for _, glob := range opts.IncludeGlobs {
		if glob == "" {
			continue
		}
		args = append(args, "--glob", glob)
	}
	for _, glob := range opts.ExcludeGlobs {
		if glob == "" {
			continue
		}
		args = append(args, "--glob", "!"+glob)
	}
	args = append(args, extra...)
	args = append(args, "--json", "--regexp", term)
	args = append(args, targets...)
	return args
}
