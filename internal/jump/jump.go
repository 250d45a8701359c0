package jump

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Paintersrp/rgpanel/internal/config"
	"github.com/Paintersrp/rgpanel/internal/pathutil"
	"github.com/Paintersrp/rgpanel/internal/search"
)

var ErrNoEditor = errors.New("no editor configured")

type jumpContext struct {
	File     string
	Project  string
	Relative string
	Filename string
	Line     string
	Column   string
}

// Command builds the editor command for loc. wait reports whether the
// caller should run it in the foreground.
func Command(template config.CommandTemplate, loc search.Location, project string) (cmd *exec.Cmd, wait bool, err error) {
	ctx := newJumpContext(loc, project)

	execName := strings.TrimSpace(applyPlaceholders(template.Exec, ctx))
	if execName == "" {
		return nil, false, ErrNoEditor
	}

	cmd = exec.Command(execName, expandArgs(template.Args, ctx)...)
	if project != "" {
		cmd.Dir = project
	}

	if template.Silence != nil && *template.Silence {
		cmd.Stdout = io.Discard
		cmd.Stderr = io.Discard
	}

	wait = true
	if template.Wait != nil {
		wait = *template.Wait
	}

	return cmd, wait, nil
}

// Open runs the editor for loc attached to the current terminal, waiting
// for it to exit unless the template says otherwise.
func Open(template config.CommandTemplate, loc search.Location, project string) error {
	cmd, wait, err := Command(template, loc, project)
	if err != nil {
		return err
	}
	name := filepath.Base(cmd.Path)

	if cmd.Stdout == nil {
		cmd.Stdin = os.Stdin
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("editor %q failed to start: %w", name, err)
	}

	if wait {
		if err := cmd.Wait(); err != nil {
			return fmt.Errorf("editor %q failed: %w", name, err)
		}
		return nil
	}

	if err := cmd.Process.Release(); err != nil {
		return fmt.Errorf("editor %q release failed: %w", name, err)
	}
	return nil
}

func newJumpContext(loc search.Location, project string) jumpContext {
	relative, err := pathutil.ProjectRelative(project, loc.File)
	if err != nil || project == "" {
		relative = loc.File
	}

	line := loc.Line
	if line < 1 {
		line = 1
	}

	return jumpContext{
		File:     loc.File,
		Project:  project,
		Relative: relative,
		Filename: filepath.Base(loc.File),
		Line:     strconv.Itoa(line),
		Column:   strconv.Itoa(loc.StartColumn + 1),
	}
}

func expandArgs(args []string, ctx jumpContext) []string {
	if len(args) == 0 {
		return nil
	}

	expanded := make([]string, 0, len(args))
	for _, arg := range args {
		expanded = append(expanded, applyPlaceholders(arg, ctx))
	}

	return expanded
}

func applyPlaceholders(value string, ctx jumpContext) string {
	replacements := map[string]string{
		"{file}":     ctx.File,
		"{project}":  ctx.Project,
		"{relative}": ctx.Relative,
		"{filename}": ctx.Filename,
		"{line}":     ctx.Line,
		"{column}":   ctx.Column,
	}

	result := value
	for placeholder, replacement := range replacements {
		result = strings.ReplaceAll(result, placeholder, replacement)
	}

	return result
}
