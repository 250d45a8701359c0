package state

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/spf13/viper"

	"github.com/Paintersrp/rgpanel/internal/config"
	"github.com/Paintersrp/rgpanel/internal/constants"
	"github.com/Paintersrp/rgpanel/internal/logging"
	"github.com/Paintersrp/rgpanel/internal/search"
)

type State struct {
	Config *config.Config
	Home   string

	mu        sync.Mutex
	logger    *slog.Logger
	logCloser io.Closer
	sessions  []*search.Session
	watchers  []*ProjectWatcher
}

func NewState() (*State, error) {
	home, err := GetHomeDir()
	if err != nil {
		return nil, err
	}

	cfg, err := LoadConfig(home)
	if err != nil {
		return nil, err
	}

	return &State{
		Config: cfg,
		Home:   home,
	}, nil
}

func GetHomeDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory. err: %s", err)
	}

	return home, nil
}

func LoadConfig(home string) (*config.Config, error) {
	viper.AddConfigPath(home + constants.ConfigDir)
	viper.SetConfigName(constants.ConfigFile)
	viper.SetConfigType(constants.ConfigFileType)

	err := config.EnsureConfigExists(home)
	if err != nil {
		return nil, err
	}
	viper.ReadInConfig()

	return config.Load(home)
}

// RipgrepPath is the rg executable, with the --rg flag taking precedence
// over the config file.
func (s *State) RipgrepPath() string {
	if p := viper.GetString("ripgrep.path"); p != "" {
		return p
	}
	return s.Config.Ripgrep.Path
}

// LogLevel is the configured level, with the --log-level flag taking
// precedence over the config file.
func (s *State) LogLevel() string {
	if l := viper.GetString("log.level"); l != "" {
		return l
	}
	return s.Config.Log.Level
}

// LogPath is the file the logger appends to.
func (s *State) LogPath() string {
	if s.Config.Log.File != "" {
		return s.Config.Log.File
	}
	return config.GetLogPath(s.Home)
}

// Logger opens the log file on first use. Flags are parsed by then, so the
// level reflects --log-level.
func (s *State) Logger() *slog.Logger {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.logger != nil {
		return s.logger
	}

	logger, closer, err := logging.Open(s.LogPath(), s.LogLevel())
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging disabled: %v\n", err)
		s.logger = logging.Discard()
		return s.logger
	}
	s.logger = logger
	s.logCloser = closer
	return s.logger
}

// NewSession builds a search session for dir using the configured rg
// executable and extra arguments. The state closes it on Close.
func (s *State) NewSession(dir string, listeners ...search.Listener) *search.Session {
	opts := []search.SessionOption{
		search.WithLogger(s.Logger()),
		search.WithProgram(s.RipgrepPath()),
		search.WithExtraArgs(s.Config.Ripgrep.ExtraArgs...),
	}
	for _, l := range listeners {
		opts = append(opts, search.WithListener(l))
	}

	session := search.NewSession(search.ExecLauncher{Dir: dir}, opts...)

	s.mu.Lock()
	s.sessions = append(s.sessions, session)
	s.mu.Unlock()
	return session
}

// NewWatcher watches dir with the configured ignore list and debounce. It
// returns nil, nil when watching is disabled.
func (s *State) NewWatcher(dir string) (*ProjectWatcher, error) {
	if !s.Config.Watch.Enable {
		return nil, nil
	}

	w, err := NewProjectWatcher(dir, s.Config.Watch.IgnoredFolders, s.Config.Watch.Debounce)
	if err != nil {
		return nil, fmt.Errorf("failed to create project watcher: %w", err)
	}

	s.mu.Lock()
	s.watchers = append(s.watchers, w)
	s.mu.Unlock()
	return w, nil
}

// Close releases resources associated with the state, including running
// searches, project watchers and the log file.
func (s *State) Close() error {
	if s == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for _, session := range s.sessions {
		if err := session.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.sessions = nil
	for _, w := range s.watchers {
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.watchers = nil
	if s.logCloser != nil {
		if err := s.logCloser.Close(); err != nil {
			errs = append(errs, err)
		}
		s.logCloser = nil
	}

	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}
