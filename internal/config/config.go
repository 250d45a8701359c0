package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Paintersrp/rgpanel/internal/search"
)

type RipgrepConfig struct {
	Path      string   `yaml:"path"       json:"path"`
	ExtraArgs []string `yaml:"extra_args" json:"extra_args"`
}

type SearchConfig struct {
	WholeWord     bool     `yaml:"whole_word"     json:"whole_word"`
	CaseSensitive bool     `yaml:"case_sensitive" json:"case_sensitive"`
	UseRegex      bool     `yaml:"use_regex"      json:"use_regex"`
	IncludeGlobs  []string `yaml:"include_globs"  json:"include_globs"`
	ExcludeGlobs  []string `yaml:"exclude_globs"  json:"exclude_globs"`
}

// CommandTemplate describes an external command. Args may contain the
// {file}, {line} and {column} placeholders.
type CommandTemplate struct {
	Exec    string   `yaml:"exec"    json:"exec"`
	Args    []string `yaml:"args"    json:"args"`
	Wait    *bool    `yaml:"wait"    json:"wait"`
	Silence *bool    `yaml:"silence" json:"silence"`
}

type WatchConfig struct {
	Enable         bool          `yaml:"enable"          json:"enable"`
	Debounce       time.Duration `yaml:"debounce"        json:"debounce"`
	IgnoredFolders []string      `yaml:"ignored_folders" json:"ignored_folders"`
}

type LogConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file"  json:"file"`
}

type Config struct {
	Ripgrep RipgrepConfig   `yaml:"ripgrep" json:"ripgrep"`
	Search  SearchConfig    `yaml:"search"  json:"search"`
	Editor  CommandTemplate `yaml:"editor"  json:"editor"`
	Watch   WatchConfig     `yaml:"watch"   json:"watch"`
	Log     LogConfig       `yaml:"log"     json:"log"`

	path string `yaml:"-"`
}

const (
	defaultDebounce = 300 * time.Millisecond
	defaultLevel    = "info"
)

var validLevelNames = []string{"debug", "info", "warn", "error"}

// Default returns the configuration written for new installs.
func Default() *Config {
	wait := true
	return &Config{
		Ripgrep: RipgrepConfig{Path: "rg", ExtraArgs: []string{}},
		Search: SearchConfig{
			IncludeGlobs: []string{},
			ExcludeGlobs: []string{},
		},
		Editor: CommandTemplate{
			Exec: "nvim",
			Args: []string{"+{line}", "{file}"},
			Wait: &wait,
		},
		Watch: WatchConfig{
			Enable:         true,
			Debounce:       defaultDebounce,
			IgnoredFolders: []string{".git", "node_modules"},
		},
		Log: LogConfig{Level: defaultLevel},
	}
}

func Load(home string) (*Config, error) {
	path := GetConfigPath(home)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if len(strings.TrimSpace(string(data))) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}
	cfg.path = path
	cfg.ensureDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (cfg *Config) ensureDefaults() {
	if strings.TrimSpace(cfg.Ripgrep.Path) == "" {
		cfg.Ripgrep.Path = "rg"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaultLevel
	}
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = defaultDebounce
	}
}

// Validate reports the first invalid setting as a *ConfigInitError.
func (cfg *Config) Validate() error {
	if err := ValidateLevel(cfg.Log.Level); err != nil {
		return err
	}
	if strings.TrimSpace(cfg.Editor.Exec) == "" {
		return &ConfigInitError{
			msg:   `required config variable "editor.exec" is not set`,
			Field: "editor.exec",
		}
	}
	if cfg.Watch.Debounce < 0 {
		return &ConfigInitError{
			msg:   fmt.Sprintf("watch.debounce must not be negative, got %s", cfg.Watch.Debounce),
			Field: "watch.debounce",
		}
	}
	return nil
}

func ValidateLevel(level string) error {
	if slices.Contains(validLevelNames, level) {
		return nil
	}

	return &ConfigInitError{
		msg: fmt.Sprintf(
			"invalid log level: %q. Please choose from %s.",
			level,
			strings.Join(validLevelNames, ", "),
		),
		Field: "log.level",
	}
}

// SearchOptions returns the default toggles for new searches.
func (cfg *Config) SearchOptions() search.Options {
	return search.Options{
		WholeWord:     cfg.Search.WholeWord,
		CaseSensitive: cfg.Search.CaseSensitive,
		UseRegex:      cfg.Search.UseRegex,
		IncludeGlobs:  slices.Clone(cfg.Search.IncludeGlobs),
		ExcludeGlobs:  slices.Clone(cfg.Search.ExcludeGlobs),
	}
}

func (cfg *Config) GetConfigPath() string {
	if cfg.path != "" {
		return cfg.path
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return GetConfigPath(homeDir)
}

func (cfg *Config) Save() error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	configPath := cfg.GetConfigPath()
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0o644)
}

type setter func(cfg *Config, value string) error

var setters = map[string]setter{
	"ripgrep.path": func(cfg *Config, v string) error {
		cfg.Ripgrep.Path = strings.TrimSpace(v)
		return nil
	},
	"ripgrep.extra_args": func(cfg *Config, v string) error {
		cfg.Ripgrep.ExtraArgs = strings.Fields(v)
		return nil
	},
	"search.whole_word":     boolSetter(func(cfg *Config) *bool { return &cfg.Search.WholeWord }),
	"search.case_sensitive": boolSetter(func(cfg *Config) *bool { return &cfg.Search.CaseSensitive }),
	"search.use_regex":      boolSetter(func(cfg *Config) *bool { return &cfg.Search.UseRegex }),
	"search.include_globs": func(cfg *Config, v string) error {
		cfg.Search.IncludeGlobs = splitList(v)
		return nil
	},
	"search.exclude_globs": func(cfg *Config, v string) error {
		cfg.Search.ExcludeGlobs = splitList(v)
		return nil
	},
	"editor.exec": func(cfg *Config, v string) error {
		cfg.Editor.Exec = strings.TrimSpace(v)
		return nil
	},
	"editor.args": func(cfg *Config, v string) error {
		cfg.Editor.Args = strings.Fields(v)
		return nil
	},
	"editor.wait": func(cfg *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		cfg.Editor.Wait = &b
		return nil
	},
	"watch.enable": boolSetter(func(cfg *Config) *bool { return &cfg.Watch.Enable }),
	"watch.debounce": func(cfg *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		cfg.Watch.Debounce = d
		return nil
	},
	"watch.ignored_folders": func(cfg *Config, v string) error {
		cfg.Watch.IgnoredFolders = splitList(v)
		return nil
	},
	"log.level": func(cfg *Config, v string) error {
		cfg.Log.Level = strings.ToLower(strings.TrimSpace(v))
		return nil
	},
	"log.file": func(cfg *Config, v string) error {
		cfg.Log.File = strings.TrimSpace(v)
		return nil
	},
}

func boolSetter(field func(*Config) *bool) setter {
	return func(cfg *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*field(cfg) = b
		return nil
	}
}

// Keys lists the settings accepted by Set.
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set updates a single setting by its dotted key and saves the file. List
// values are comma separated.
func (cfg *Config) Set(key, value string) error {
	set, ok := setters[key]
	if !ok {
		return fmt.Errorf("unknown config key %q. Valid keys: %s", key, strings.Join(Keys(), ", "))
	}

	updated := *cfg
	if err := set(&updated, value); err != nil {
		return fmt.Errorf("invalid value %q for %s: %w", value, key, err)
	}
	if err := updated.Validate(); err != nil {
		return err
	}

	*cfg = updated
	return cfg.Save()
}

func splitList(v string) []string {
	out := []string{}
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Get returns the current value of a setting in the form Set accepts.
func (cfg *Config) Get(key string) (string, error) {
	switch key {
	case "ripgrep.path":
		return cfg.Ripgrep.Path, nil
	case "ripgrep.extra_args":
		return strings.Join(cfg.Ripgrep.ExtraArgs, " "), nil
	case "search.whole_word":
		return strconv.FormatBool(cfg.Search.WholeWord), nil
	case "search.case_sensitive":
		return strconv.FormatBool(cfg.Search.CaseSensitive), nil
	case "search.use_regex":
		return strconv.FormatBool(cfg.Search.UseRegex), nil
	case "search.include_globs":
		return strings.Join(cfg.Search.IncludeGlobs, ","), nil
	case "search.exclude_globs":
		return strings.Join(cfg.Search.ExcludeGlobs, ","), nil
	case "editor.exec":
		return cfg.Editor.Exec, nil
	case "editor.args":
		return strings.Join(cfg.Editor.Args, " "), nil
	case "editor.wait":
		return strconv.FormatBool(cfg.Editor.Wait == nil || *cfg.Editor.Wait), nil
	case "watch.enable":
		return strconv.FormatBool(cfg.Watch.Enable), nil
	case "watch.debounce":
		return cfg.Watch.Debounce.String(), nil
	case "watch.ignored_folders":
		return strings.Join(cfg.Watch.IgnoredFolders, ","), nil
	case "log.level":
		return cfg.Log.Level, nil
	case "log.file":
		return cfg.Log.File, nil
	}
	return "", fmt.Errorf("unknown config key %q", key)
}

// Choices lists the accepted values for settings with a fixed set of
// values, or nil for free-form settings.
func Choices(key string) []string {
	switch key {
	case "search.whole_word", "search.case_sensitive", "search.use_regex",
		"editor.wait", "watch.enable":
		return []string{"true", "false"}
	case "log.level":
		return slices.Clone(validLevelNames)
	}
	return nil
}
