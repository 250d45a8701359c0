package search

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"

	"github.com/Paintersrp/rgpanel/internal/config"
	searchsvc "github.com/Paintersrp/rgpanel/internal/search"
	"github.com/Paintersrp/rgpanel/internal/state"
)

const fixture = `{"type":"begin","data":{"path":{"text":"a.txt"}}}
{"type":"match","data":{"path":{"text":"a.txt"},"lines":{"text":"foo bar\n"},"line_number":3,"submatches":[{"start":0,"end":3}]}}
{"type":"end","data":{"path":{"text":"a.txt"}}}
{"type":"begin","data":{"path":{"text":"empty.txt"}}}
{"type":"summary","data":{"stats":{"matches":1},"elapsed_total":{"nanos":5000000}}}
`

// fakeRipgrep writes a script that records its arguments, prints output and
// exits with code.
func fakeRipgrep(t *testing.T, output string, code int) (script, argsFile string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not supported on windows")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	dir := t.TempDir()
	argsFile = filepath.Join(dir, "args")
	outFile := filepath.Join(dir, "out.json")
	if err := os.WriteFile(outFile, []byte(output), 0o644); err != nil {
		t.Fatalf("write output: %v", err)
	}

	script = filepath.Join(dir, "rg")
	body := "#!/bin/sh\n" +
		"printf '%s\\n' \"$@\" > '" + argsFile + "'\n" +
		"cat '" + outFile + "'\n" +
		"exit " + strconv.Itoa(code) + "\n"
	if err := os.WriteFile(script, []byte(body), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return script, argsFile
}

func newTestState(t *testing.T, rg string) *state.State {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg := config.Default()
	cfg.Ripgrep.Path = rg
	s := &state.State{Config: cfg, Home: home}
	t.Cleanup(func() { s.Close() })
	return s
}

func execute(t *testing.T, s *state.State, args ...string) (string, error) {
	t.Helper()
	cmd := NewCmdSearch(s)
	cmd.SetArgs(args)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.Execute()
	return out.String(), err
}

func readArgs(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read args: %v", err)
	}
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

func TestSearchCommandPrintsTree(t *testing.T) {
	rg, argsFile := fakeRipgrep(t, fixture, 0)
	s := newTestState(t, rg)
	dir := t.TempDir()

	out, err := execute(t, s, "-w", "-g", "*.txt", "foo", dir)
	if err != nil {
		t.Fatalf("search returned error: %v\n%s", err, out)
	}

	want := "a.txt\n3:foo bar\n\nFound 1 result in 0.005000 seconds.\n"
	if out != want {
		t.Fatalf("output = %q, want %q", out, want)
	}

	args := readArgs(t, argsFile)
	wantArgs := []string{"--word-regexp", "--ignore-case", "--fixed-strings", "--glob", "*.txt", "--json", "--regexp", "foo", dir}
	if strings.Join(args, " ") != strings.Join(wantArgs, " ") {
		t.Fatalf("args = %q, want %q", args, wantArgs)
	}
}

func TestSearchCommandUsesConfigDefaults(t *testing.T) {
	rg, argsFile := fakeRipgrep(t, "", 1)
	s := newTestState(t, rg)
	s.Config.Search.CaseSensitive = true
	s.Config.Search.ExcludeGlobs = []string{"vendor/**"}

	out, err := execute(t, s, "-e", "fo+", t.TempDir())
	if err != nil {
		t.Fatalf("search returned error: %v", err)
	}
	if out != "Found 0 results in 0.000000 seconds.\n" {
		t.Fatalf("output = %q", out)
	}

	args := strings.Join(readArgs(t, argsFile), " ")
	if !strings.HasPrefix(args, "--case-sensitive --glob !vendor/** --json --regexp fo+") {
		t.Fatalf("args = %q", args)
	}
}

func TestSearchCommandJSON(t *testing.T) {
	rg, _ := fakeRipgrep(t, fixture, 0)
	s := newTestState(t, rg)

	out, err := execute(t, s, "--json", "foo", t.TempDir())
	if err != nil {
		t.Fatalf("search returned error: %v", err)
	}

	var result jsonResult
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if result.MatchCount != 1 || result.ElapsedNanos != 5000000 {
		t.Fatalf("stats = %+v", result)
	}
	if len(result.Files) != 2 || result.Files[1].Path != "empty.txt" {
		t.Fatalf("files = %+v", result.Files)
	}
	m := result.Files[0].Matches[0]
	if m.Line != 3 || m.Text != "foo bar" || m.Location != "a.txt:3:1" {
		t.Fatalf("match = %+v", m)
	}
}

func TestSearchCommandAbnormalExit(t *testing.T) {
	rg, _ := fakeRipgrep(t, fixture, 2)
	s := newTestState(t, rg)

	out, err := execute(t, s, "foo", t.TempDir())
	if !errors.Is(err, searchsvc.ErrAbnormalExit) {
		t.Fatalf("error = %v, want ErrAbnormalExit", err)
	}
	if !strings.Contains(out, "Found 1 result") {
		t.Fatalf("results should still be printed, got %q", out)
	}
}

func TestSearchCommandLaunchFailure(t *testing.T) {
	s := newTestState(t, "rgpanel-missing-rg")

	_, err := execute(t, s, "foo", t.TempDir())
	if !errors.Is(err, searchsvc.ErrLaunch) {
		t.Fatalf("error = %v, want ErrLaunch", err)
	}
}

func TestSearchCommandRejectsMissingFiles(t *testing.T) {
	s := newTestState(t, "rg")
	dir := t.TempDir()

	_, err := execute(t, s, "foo", filepath.Join(dir, "a"), filepath.Join(dir, "b"))
	if !errors.Is(err, searchsvc.ErrNothingToSearch) {
		t.Fatalf("error = %v, want ErrNothingToSearch", err)
	}
}

func TestSearchCommandPickNeedsTerminal(t *testing.T) {
	s := newTestState(t, "rg")
	orig := isTerminal
	isTerminal = func(*os.File) bool { return false }
	t.Cleanup(func() { isTerminal = orig })

	if _, err := execute(t, s, "--pick", "foo", t.TempDir()); err == nil || !strings.Contains(err.Error(), "terminal") {
		t.Fatalf("error = %v, want terminal error", err)
	}
}
