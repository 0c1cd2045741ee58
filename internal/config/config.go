package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

const appDirName = "nest-cleaner"

// WindowsDefaultTargetPath is the folder the list is resolved against on first run.
const WindowsDefaultTargetPath = `C:\DragonNest\Reborn`

type PrometheusCfg struct {
	Port int `yaml:"port" json:"port"` // 0 disables the metrics endpoint
}

type LoggingCfg struct {
	RotationDays int    `yaml:"rotation_days" json:"rotation_days"` // Days to keep logs before rotation
	Level        string `yaml:"level" json:"level"`                 // zerolog level name (debug, info, warn, error)
}

type Config struct {
	SettingsPath      string        `yaml:"settings_path" json:"settings_path"`             // JSON record holding {path, files}
	DefaultTargetPath string        `yaml:"default_target_path" json:"default_target_path"` // Used until the user picks a folder
	DatabasePath      string        `yaml:"database_path" json:"database_path"`             // SQLite history; "-" disables
	LogDir            string        `yaml:"log_dir" json:"log_dir"`
	Logging           LoggingCfg    `yaml:"logging" json:"logging"`
	Prometheus        PrometheusCfg `yaml:"prometheus" json:"prometheus"`
	PermanentDelete   bool          `yaml:"permanent_delete" json:"permanent_delete"` // Bypass the trash
	DryRun            bool          `yaml:"dry_run" json:"dry_run"`
	ProtectedPaths    []string      `yaml:"protected_paths" json:"protected_paths"`
}

// DatabaseDisabled is the database_path value that turns history off.
const DatabaseDisabled = "-"

var (
	errNegativePort     = errors.New("prometheus.port cannot be negative")
	errNegativeRotation = errors.New("logging.rotation_days cannot be negative")
	errUnknownLevel     = errors.New("logging.level is not a known level")
)

// Load reads the YAML config at path. A missing file is not an error: the
// returned config carries defaults only.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		f, err := os.Open(path)
		switch {
		case err == nil:
			defer f.Close()
			cfg, err = decode(f)
			if err != nil {
				return nil, err
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("open config: %w", err)
		}
	}
	if err := cfg.validateAndDefault(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultPath is where the executables look for the config file.
func DefaultPath() string {
	return filepath.Join(userDir(os.UserConfigDir), appDirName, "config.yaml")
}

// Default returns a config with every field defaulted.
func Default() *Config {
	cfg := &Config{}
	// Defaults never fail validation.
	_ = cfg.validateAndDefault()
	return cfg
}

func decode(r io.Reader) (*Config, error) {
	cfg := &Config{}
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return cfg, nil
		}
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return cfg, nil
}

func (c *Config) validateAndDefault() error {
	if c.Prometheus.Port < 0 {
		return errNegativePort
	}
	if c.Logging.RotationDays < 0 {
		return errNegativeRotation
	}
	if c.Logging.RotationDays == 0 {
		c.Logging.RotationDays = 30
	}

	switch strings.ToLower(c.Logging.Level) {
	case "":
		c.Logging.Level = "info"
	case "trace", "debug", "info", "warn", "error":
		c.Logging.Level = strings.ToLower(c.Logging.Level)
	default:
		return fmt.Errorf("%w: %q", errUnknownLevel, c.Logging.Level)
	}

	if c.DefaultTargetPath == "" {
		c.DefaultTargetPath = defaultTargetPath()
	}

	c.SettingsPath = expandHome(c.SettingsPath)
	if c.SettingsPath == "" {
		c.SettingsPath = filepath.Join(userDir(os.UserConfigDir), appDirName, "settings.json")
	}

	if c.DatabasePath != DatabaseDisabled {
		c.DatabasePath = expandHome(c.DatabasePath)
		if c.DatabasePath == "" {
			c.DatabasePath = filepath.Join(userDir(os.UserConfigDir), appDirName, "history.db")
		}
	}

	c.LogDir = expandHome(c.LogDir)
	if c.LogDir == "" {
		c.LogDir = filepath.Join(userDir(os.UserCacheDir), appDirName, "logs")
	}

	cleaned := make([]string, 0, len(c.ProtectedPaths))
	for _, p := range c.ProtectedPaths {
		if strings.TrimSpace(p) == "" {
			continue
		}
		cleaned = append(cleaned, filepath.Clean(expandHome(p)))
	}
	c.ProtectedPaths = cleaned

	return nil
}

// HistoryEnabled reports whether a history database should be opened.
func (c *Config) HistoryEnabled() bool {
	return c.DatabasePath != "" && c.DatabasePath != DatabaseDisabled
}

// PrometheusAddress is the loopback listen address for the metrics endpoint.
func (c *Config) PrometheusAddress() string {
	return fmt.Sprintf("127.0.0.1:%d", c.Prometheus.Port)
}

func defaultTargetPath() string {
	if runtime.GOOS == "windows" {
		return WindowsDefaultTargetPath
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join("DragonNest", "Reborn")
	}
	return filepath.Join(home, "DragonNest", "Reborn")
}

// userDir falls back to the working directory when the OS gives no answer.
func userDir(fn func() (string, error)) string {
	dir, err := fn()
	if err != nil || dir == "" {
		return "."
	}
	return dir
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
