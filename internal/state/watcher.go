package state

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"

	"github.com/Paintersrp/rgpanel/internal/pathutil"
)

// ProjectChangedMsg carries the project-relative paths changed during one
// debounce window.
type ProjectChangedMsg struct {
	Paths []string
}

type ProjectWatcherErrMsg struct {
	Err error
}

type ProjectWatcher struct {
	watcher  *fsnotify.Watcher
	root     string
	ignored  []string
	debounce time.Duration
	done     chan struct{}
	once     sync.Once
	onChange func([]string)
	onClose  func()
}

func NewProjectWatcher(root string, ignored []string, debounce time.Duration) (*ProjectWatcher, error) {
	normalizedRoot := pathutil.NormalizePath(root)
	if normalizedRoot == "" {
		return nil, errors.New("project directory cannot be empty")
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	watcher := &ProjectWatcher{
		watcher:  w,
		root:     normalizedRoot,
		ignored:  slices.Clone(ignored),
		debounce: debounce,
		done:     make(chan struct{}),
	}

	if err := watcher.addRecursive(normalizedRoot); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	return watcher, nil
}

// Start returns a command that blocks until a batch of changes has settled
// and reports it. Re-issue the command after each message to keep watching.
func (w *ProjectWatcher) Start() tea.Cmd {
	if w == nil {
		return nil
	}

	return func() tea.Msg {
		paths, err := w.Next()
		if err != nil {
			return ProjectWatcherErrMsg{Err: err}
		}
		if paths == nil {
			return nil
		}
		return ProjectChangedMsg{Paths: paths}
	}
}

// Next blocks until at least one relevant change arrives and no further
// change follows within the debounce window. It returns nil, nil once the
// watcher is closed.
func (w *ProjectWatcher) Next() ([]string, error) {
	var (
		batch []string
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-w.done:
			return nil, nil
		case <-fire:
			if w.onChange != nil {
				w.onChange(batch)
			}
			return batch, nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil, nil
			}

			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if !w.isIgnored(event.Name) {
						_ = w.addRecursive(event.Name)
					}
				}
			}

			rel, ok := w.relevant(event)
			if !ok {
				continue
			}
			if !slices.Contains(batch, rel) {
				batch = append(batch, rel)
			}

			if timer == nil {
				timer = time.NewTimer(w.debounce)
				fire = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil, nil
			}
			if err != nil {
				return nil, err
			}
		}
	}
}

func (w *ProjectWatcher) Close() error {
	if w == nil {
		return nil
	}

	var closeErr error
	w.once.Do(func() {
		close(w.done)
		closeErr = w.watcher.Close()
		if w.onClose != nil {
			w.onClose()
		}
	})

	return closeErr
}

// Root returns the watched directory.
func (w *ProjectWatcher) Root() string {
	return w.root
}

// OnChange registers a callback that receives each settled batch of
// project-relative paths.
func (w *ProjectWatcher) OnChange(fn func([]string)) {
	if w == nil {
		return
	}
	w.onChange = fn
}

// OnClose registers a callback that is invoked exactly once when the watcher
// shuts down.
func (w *ProjectWatcher) OnClose(fn func()) {
	if w == nil {
		return
	}
	w.onClose = fn
}

func (w *ProjectWatcher) addRecursive(root string) error {
	normalized := pathutil.NormalizePath(root)
	return filepath.WalkDir(normalized, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrPermission) {
				return filepath.SkipDir
			}
			return err
		}

		if !d.IsDir() {
			return nil
		}
		if path != w.root && w.isIgnored(path) {
			return filepath.SkipDir
		}

		return w.watcher.Add(path)
	})
}

func (w *ProjectWatcher) relevant(event fsnotify.Event) (string, bool) {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return "", false
	}

	rel, err := w.relativePath(event.Name)
	if err != nil || rel == "" {
		return "", false
	}
	if w.isIgnored(event.Name) {
		return "", false
	}

	return rel, true
}

// isIgnored reports whether any directory between the root and path is in
// the ignore list.
func (w *ProjectWatcher) isIgnored(path string) bool {
	if len(w.ignored) == 0 {
		return false
	}
	rel, err := w.relativePath(path)
	if err != nil || rel == "" {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if slices.Contains(w.ignored, part) {
			return true
		}
	}
	return false
}

func (w *ProjectWatcher) relativePath(path string) (string, error) {
	normalized := pathutil.NormalizePath(path)
	rel, err := pathutil.ProjectRelative(w.root, normalized)
	if err != nil {
		return "", err
	}

	if rel == "." || rel == "" || strings.HasPrefix(rel, "..") {
		return "", nil
	}

	return rel, nil
}
