// internal/config/config.go
//
// This package handles configuration and the .cadence directory structure.
// All state is single-user and single-machine, so everything lives under
// one dot-directory in the user's home (overridable with CADENCE_HOME).

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// CadenceDir is the name of the directory created in the user's home.
	CadenceDir = ".cadence"

	// HomeEnv overrides the location of the cadence directory.
	HomeEnv = "CADENCE_HOME"
)

// Skip modes accepted by the break timer. "type-based" resolves to
// "always" for short breaks and "after50" for long ones before launch.
const (
	SkipNever     = "never"
	SkipAfter50   = "after50"
	SkipAlways    = "always"
	SkipTypeBased = "type-based"
)

const defaultConfigYAML = `# cadence configuration
version: 1

enforcement:
  # Require a break between work sessions.
  break_required: true
  # Deny project switches during an active session instead of warning.
  blocking_enabled: false
  # Ask for confirmation (and a reason) when stopping a session early.
  confirm_early_stop: true
  # Record break sessions in the monthly archive.
  track_breaks: true

cadence:
  pomodoro_minutes: 25
  short_break_minutes: 5
  long_break_minutes: 15
  # Every Nth completed session requires a long break.
  sessions_per_long_break: 4
  # One of: never, after50, always, type-based.
  skip_mode: type-based
`

// Enforcement holds the policy toggles. Each toggle is read fresh at
// the start of the operation that consults it, never cached across
// invocations.
type Enforcement struct {
	BreakRequired    bool `yaml:"break_required"`
	BlockingEnabled  bool `yaml:"blocking_enabled"`
	ConfirmEarlyStop bool `yaml:"confirm_early_stop"`
	TrackBreaks      bool `yaml:"track_breaks"`
}

// Cadence holds the session/break timing parameters.
type Cadence struct {
	PomodoroMinutes      int    `yaml:"pomodoro_minutes"`
	ShortBreakMinutes    int    `yaml:"short_break_minutes"`
	LongBreakMinutes     int    `yaml:"long_break_minutes"`
	SessionsPerLongBreak int    `yaml:"sessions_per_long_break"`
	SkipMode             string `yaml:"skip_mode"`
}

// Settings models config.yaml.
type Settings struct {
	Version     int         `yaml:"version"`
	Enforcement Enforcement `yaml:"enforcement"`
	Cadence     Cadence     `yaml:"cadence"`
}

// rawSettings distinguishes absent toggles from explicit false so that
// a partial config file keeps the enforcement defaults.
type rawSettings struct {
	Version     int `yaml:"version"`
	Enforcement struct {
		BreakRequired    *bool `yaml:"break_required"`
		BlockingEnabled  *bool `yaml:"blocking_enabled"`
		ConfirmEarlyStop *bool `yaml:"confirm_early_stop"`
		TrackBreaks      *bool `yaml:"track_breaks"`
	} `yaml:"enforcement"`
	Cadence Cadence `yaml:"cadence"`
}

func (r rawSettings) resolve() Settings {
	settings := defaultSettings()
	settings.Version = r.Version
	settings.Cadence = r.Cadence
	if r.Enforcement.BreakRequired != nil {
		settings.Enforcement.BreakRequired = *r.Enforcement.BreakRequired
	}
	if r.Enforcement.BlockingEnabled != nil {
		settings.Enforcement.BlockingEnabled = *r.Enforcement.BlockingEnabled
	}
	if r.Enforcement.ConfirmEarlyStop != nil {
		settings.Enforcement.ConfirmEarlyStop = *r.Enforcement.ConfirmEarlyStop
	}
	if r.Enforcement.TrackBreaks != nil {
		settings.Enforcement.TrackBreaks = *r.Enforcement.TrackBreaks
	}
	return settings
}

// Config holds the runtime configuration for a cadence invocation.
type Config struct {
	// HomeDir is the resolved .cadence directory.
	HomeDir string

	Settings Settings
}

// InitCadenceDir creates the cadence directory structure and a default
// config file if none exists.
//
// Structure created:
// .cadence/
// ├── config.yaml
// ├── state/     <- enforcement state and active session documents
// ├── archive/   <- monthly work/break record logs
// └── logs/      <- operational and audit logs
func InitCadenceDir(homeDir string) error {
	dirs := []string{
		filepath.Join(homeDir, "state"),
		filepath.Join(homeDir, "archive"),
		filepath.Join(homeDir, "logs"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return ensureConfigFile(filepath.Join(homeDir, "config.yaml"))
}

// ResolveHome returns the cadence directory for this machine, honoring
// the CADENCE_HOME override.
func ResolveHome() (string, error) {
	if custom := strings.TrimSpace(os.Getenv(HomeEnv)); custom != "" {
		return filepath.Clean(custom), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve home directory: %w", err)
	}
	return filepath.Join(home, CadenceDir), nil
}

// Load reads config.yaml from the given cadence directory. A missing
// file yields the defaults; a malformed one is an error.
func Load(homeDir string) (*Config, error) {
	cfg := &Config{
		HomeDir:  homeDir,
		Settings: defaultSettings(),
	}

	data, err := os.ReadFile(cfg.ConfigPath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", cfg.ConfigPath(), err)
	}

	var raw rawSettings
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", cfg.ConfigPath(), err)
	}
	parsed := raw.resolve()
	parsed.applyDefaults()
	parsed.normalize()
	if err := parsed.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	cfg.Settings = parsed
	return cfg, nil
}

// ConfigPath returns the on-disk location of config.yaml.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.HomeDir, "config.yaml")
}

// StateDir returns the directory holding mutable state documents.
func (c *Config) StateDir() string {
	return filepath.Join(c.HomeDir, "state")
}

// ArchiveDir returns the directory holding the monthly record logs.
func (c *Config) ArchiveDir() string {
	return filepath.Join(c.HomeDir, "archive")
}

// LogsDir returns the directory holding operational and audit logs.
func (c *Config) LogsDir() string {
	return filepath.Join(c.HomeDir, "logs")
}

// PomodoroDuration returns the planned length of a work session.
func (c *Config) PomodoroDuration() time.Duration {
	return time.Duration(c.Settings.Cadence.PomodoroMinutes) * time.Minute
}

// BreakDuration returns the planned length for a break of the given
// type ("short" or "long").
func (c *Config) BreakDuration(breakType string) time.Duration {
	if breakType == "long" {
		return time.Duration(c.Settings.Cadence.LongBreakMinutes) * time.Minute
	}
	return time.Duration(c.Settings.Cadence.ShortBreakMinutes) * time.Minute
}

func defaultSettings() Settings {
	return Settings{
		Version: 1,
		Enforcement: Enforcement{
			BreakRequired:    true,
			BlockingEnabled:  false,
			ConfirmEarlyStop: true,
			TrackBreaks:      true,
		},
		Cadence: Cadence{
			PomodoroMinutes:      25,
			ShortBreakMinutes:    5,
			LongBreakMinutes:     15,
			SessionsPerLongBreak: 4,
			SkipMode:             SkipTypeBased,
		},
	}
}

func (s *Settings) applyDefaults() {
	defaults := defaultSettings()
	if s.Version == 0 {
		s.Version = defaults.Version
	}
	if s.Cadence.PomodoroMinutes == 0 {
		s.Cadence.PomodoroMinutes = defaults.Cadence.PomodoroMinutes
	}
	if s.Cadence.ShortBreakMinutes == 0 {
		s.Cadence.ShortBreakMinutes = defaults.Cadence.ShortBreakMinutes
	}
	if s.Cadence.LongBreakMinutes == 0 {
		s.Cadence.LongBreakMinutes = defaults.Cadence.LongBreakMinutes
	}
	if s.Cadence.SessionsPerLongBreak == 0 {
		s.Cadence.SessionsPerLongBreak = defaults.Cadence.SessionsPerLongBreak
	}
	if strings.TrimSpace(s.Cadence.SkipMode) == "" {
		s.Cadence.SkipMode = defaults.Cadence.SkipMode
	}
}

func (s *Settings) normalize() {
	s.Cadence.SkipMode = strings.ToLower(strings.TrimSpace(s.Cadence.SkipMode))
}

func (s *Settings) validate() error {
	if s.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if s.Cadence.PomodoroMinutes < 1 {
		return fmt.Errorf("cadence.pomodoro_minutes must be >= 1")
	}
	if s.Cadence.ShortBreakMinutes < 1 {
		return fmt.Errorf("cadence.short_break_minutes must be >= 1")
	}
	if s.Cadence.LongBreakMinutes < 1 {
		return fmt.Errorf("cadence.long_break_minutes must be >= 1")
	}
	if s.Cadence.SessionsPerLongBreak < 1 {
		return fmt.Errorf("cadence.sessions_per_long_break must be >= 1")
	}
	switch s.Cadence.SkipMode {
	case SkipNever, SkipAfter50, SkipAlways, SkipTypeBased:
	default:
		return fmt.Errorf("cadence.skip_mode must be one of never, after50, always, type-based")
	}
	return nil
}

func ensureConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
