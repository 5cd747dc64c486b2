package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// WatchConfig controls the scheduled `icsfix watch` mode.
type WatchConfig struct {
	// Schedule is a cron expression (e.g. "*/15 * * * *") or a cron
	// descriptor such as "@every 10m".
	Schedule string `yaml:"schedule" json:"schedule"`

	// Paths are the files and directories fixed on every run.
	Paths []string `yaml:"paths" json:"paths"`
}

// Config is the top-level application configuration.
type Config struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// Lenient accepts files whose first line only ends with
	// BEGIN:VCALENDAR (binary junk before it is trimmed).
	Lenient bool `yaml:"lenient" json:"lenient"`

	// DebugPatterns makes the parser log every line containing one of
	// these substrings, with its component context.
	DebugPatterns []string `yaml:"debug_patterns" json:"debug_patterns"`

	// SideSuffix is appended to a file name for the candidate output.
	SideSuffix string `yaml:"side_suffix" json:"side_suffix"`

	// Replace renames a changed candidate over the original. When false
	// the candidate is left next to the original for review.
	Replace bool `yaml:"replace" json:"replace"`

	// SkipDotfiles ignores files whose name starts with ".".
	SkipDotfiles bool `yaml:"skip_dotfiles" json:"skip_dotfiles"`

	// Lint runs the diagnostic linter on every written candidate.
	Lint bool `yaml:"lint" json:"lint"`

	// SplitDir is where `icsfix split` writes parts. Empty means next to
	// the source file.
	SplitDir string `yaml:"split_dir" json:"split_dir"`

	Watch WatchConfig `yaml:"watch" json:"watch"`
}

const (
	defaultLogLevel   = "info"
	defaultSideSuffix = ".new"
	defaultSchedule   = "*/15 * * * *"
)

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:      defaultLogLevel,
		Lenient:       false,
		DebugPatterns: []string{},
		SideSuffix:    defaultSideSuffix,
		Replace:       true,
		SkipDotfiles:  true,
		Lint:          false,
		Watch: WatchConfig{
			Schedule: defaultSchedule,
			Paths:    []string{},
		},
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
		// ok
	default:
		c.LogLevel = defaultLogLevel
	}
	if c.SideSuffix == "" {
		c.SideSuffix = defaultSideSuffix
	}
	if c.DebugPatterns == nil {
		c.DebugPatterns = []string{}
	}
	if c.Watch.Schedule == "" {
		c.Watch.Schedule = defaultSchedule
	}
	if c.Watch.Paths == nil {
		c.Watch.Paths = []string{}
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If path is empty, return the defaults without touching disk.
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML over the defaults (so omitted booleans keep theirs)
//   - normalize
func Load(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".icsfix-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
