package pathutil

import (
	"path/filepath"
	"strings"
)

// NormalizePath converts Windows-style separators to the current platform's separator
// and cleans the resulting path.
func NormalizePath(p string) string {
	if p == "" {
		return ""
	}

	// Replace Windows separators and collapse redundant separators/segments.
	replaced := strings.ReplaceAll(p, "\\", "/")
	return filepath.Clean(filepath.FromSlash(replaced))
}

// ProjectRelative returns the path to target relative to the provided project directory.
// The returned path always uses forward slashes to simplify downstream processing
// and ensure platform agnosticism.
func ProjectRelative(projectDir, target string) (string, error) {
	base := NormalizePath(projectDir)
	cleanedTarget := NormalizePath(target)

	rel, err := filepath.Rel(base, cleanedTarget)
	if err != nil {
		return "", err
	}

	return filepath.ToSlash(rel), nil
}

// Display shortens target for output: paths inside projectDir are shown
// relative to it, anything else is returned cleaned but otherwise unchanged.
func Display(projectDir, target string) string {
	if projectDir == "" || target == "" {
		return target
	}

	rel, err := ProjectRelative(projectDir, target)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return NormalizePath(target)
	}

	return rel
}
