package search

import "os"

// FileExists reports whether path names an existing file.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ResolveScope picks what a search should cover. The project directory wins
// when set; otherwise the open files that still exist are searched. An empty
// scope is returned when neither applies. A nil exists uses FileExists.
func ResolveScope(baseDir string, openFiles []string, exists func(string) bool) Scope {
	if baseDir != "" {
		return DirScope(baseDir)
	}
	if exists == nil {
		exists = FileExists
	}

	var files []string
	for _, f := range openFiles {
		if f == "" || !exists(f) {
			continue
		}
		files = append(files, f)
	}
	return Scope{Files: files}
}
