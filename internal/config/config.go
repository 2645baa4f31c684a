package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/five82/roster/internal/directory"
)

// Config holds the roster settings.
type Config struct {
	APIBase        string
	LogFile        string // empty when not configured; see LogPath
	LogLevel       string
	RequestTimeout time.Duration // zero means no timeout
	MetricsAddr    string        // empty disables the ops listener
	ReloadSchedule string        // cron spec; empty disables scheduled reloads
}

const (
	defaultConfigPath = "~/.config/roster/config.toml"
	defaultLogFile    = "~/.local/state/roster/roster.log"
	defaultLogLevel   = "info"
)

type rawConfig struct {
	APIBase        string `toml:"api_base" yaml:"api_base"`
	LogFile        string `toml:"log_file" yaml:"log_file"`
	LogLevel       string `toml:"log_level" yaml:"log_level"`
	RequestTimeout string `toml:"request_timeout" yaml:"request_timeout"`
	MetricsAddr    string `toml:"metrics_addr" yaml:"metrics_addr"`
	ReloadSchedule string `toml:"reload_schedule" yaml:"reload_schedule"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{APIBase: directory.DefaultBaseURL, LogLevel: defaultLogLevel}
}

// Load locates and parses the roster config, falling back to defaults when
// the file is missing. Files ending in .yaml or .yml are read as YAML,
// everything else as TOML. ${VAR} references are expanded before parsing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	expanded := []byte(os.ExpandEnv(string(data)))

	var raw rawConfig
	if isYAML(resolved) {
		err = yaml.Unmarshal(expanded, &raw)
	} else {
		err = toml.Unmarshal(expanded, &raw)
	}
	if err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", resolved, err)
	}

	if v := strings.TrimSpace(raw.APIBase); v != "" {
		cfg.APIBase = v
	}
	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := strings.TrimSpace(raw.LogFile); v != "" {
		cfg.LogFile = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.RequestTimeout); v != "" {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse request_timeout: %w", err)
		}
		if timeout < 0 {
			return Config{}, fmt.Errorf("request_timeout must not be negative: %s", v)
		}
		cfg.RequestTimeout = timeout
	}
	cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)
	cfg.ReloadSchedule = strings.TrimSpace(raw.ReloadSchedule)

	return cfg, nil
}

// LogPath returns the log file the TUI writes to.
func (c Config) LogPath() string {
	if strings.TrimSpace(c.LogFile) == "" {
		return mustExpand(defaultLogFile)
	}
	return c.LogFile
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
