// Package config loads PomoHatch settings from a YAML file in the user's
// config directory, then applies .env and environment overrides.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"PomoHatch/progress"
	"PomoHatch/timer"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	AppName          = "PomoHatch"
	settingsFileName = "settings.yaml"
)

// Environment variable names. EnvStartMode takes a mode wire name
// (focus, short or long).
const (
	EnvAPIURL    = "POMOHATCH_API_URL"
	EnvSFXDir    = "POMOHATCH_SFX_DIR"
	EnvJournal   = "POMOHATCH_JOURNAL"
	EnvLogLevel  = "POMOHATCH_LOG_LEVEL"
	EnvLang      = "POMOHATCH_LANG"
	EnvDevMode   = "POMOHATCH_DEV"
	EnvStartMode = "POMOHATCH_START_MODE"
)

// Config is the resolved runtime configuration.
type Config struct {
	APIURL      string
	APITimeout  time.Duration
	SFXDir      string
	Volume      float64
	JournalPath string
	LogLevel    string
	Lang        string
	DevMode     bool
	StartMode   timer.Mode
	Durations   timer.Durations
}

type yamlSettings struct {
	API struct {
		URL            string `yaml:"url"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"api"`
	Sounds struct {
		Dir    string  `yaml:"dir"`
		Volume float64 `yaml:"volume"`
	} `yaml:"sounds"`
	Journal struct {
		Path string `yaml:"path"`
	} `yaml:"journal"`
	Durations struct {
		FocusSeconds      int `yaml:"focus_seconds"`
		ShortBreakSeconds int `yaml:"short_break_seconds"`
		LongBreakSeconds  int `yaml:"long_break_seconds"`
	} `yaml:"durations"`
	LogLevel  string `yaml:"log_level"`
	Language  string `yaml:"language"`
	DevMode   bool   `yaml:"dev_mode"`
	StartMode string `yaml:"start_mode"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		APIURL:     progress.DefaultBaseURL,
		APITimeout: 10 * time.Second,
		SFXDir:     "sounds",
		Volume:     0.9,
		LogLevel:   "info",
		StartMode:  timer.ModeFocus,
		Durations:  timer.DefaultDurations,
	}
}

// Load reads settings.yaml from the user config dir, then applies .env and
// environment overrides. A missing settings file is not an error.
func Load() (Config, error) {
	LoadEnv()
	path, err := SettingsPath()
	if err != nil {
		cfg := Default()
		applyEnv(&cfg)
		return cfg, err
	}
	cfg, err := LoadFile(path)
	applyEnv(&cfg)
	return cfg, err
}

// LoadEnv loads a .env file from the working directory if one exists.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("config.LoadEnv: no .env file loaded", "error", err)
	} else {
		slog.Debug("config.LoadEnv: loaded .env file")
	}
}

// SettingsPath returns the settings file location.
func SettingsPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(dir, AppName, settingsFileName), nil
}

// LoadFile reads settings from path on top of the defaults.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Debug("config.LoadFile: no settings file, using defaults", "path", path)
			return cfg, nil
		}
		return cfg, fmt.Errorf("read settings file: %w", err)
	}

	var fileData yamlSettings
	if err := yaml.Unmarshal(raw, &fileData); err != nil {
		return cfg, fmt.Errorf("parse settings yaml: %w", err)
	}
	applyYaml(&cfg, fileData)
	return cfg, nil
}

// Save writes cfg to path, creating the directory if needed.
func Save(path string, cfg Config) error {
	var fileData yamlSettings
	fileData.API.URL = cfg.APIURL
	fileData.API.TimeoutSeconds = int(cfg.APITimeout / time.Second)
	fileData.Sounds.Dir = cfg.SFXDir
	fileData.Sounds.Volume = cfg.Volume
	fileData.Journal.Path = cfg.JournalPath
	fileData.Durations.FocusSeconds = cfg.Durations.Focus
	fileData.Durations.ShortBreakSeconds = cfg.Durations.ShortBreak
	fileData.Durations.LongBreakSeconds = cfg.Durations.LongBreak
	fileData.LogLevel = cfg.LogLevel
	fileData.Language = cfg.Lang
	fileData.DevMode = cfg.DevMode
	fileData.StartMode = cfg.StartMode.String()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	serialized, err := yaml.Marshal(fileData)
	if err != nil {
		return fmt.Errorf("marshal settings yaml: %w", err)
	}
	if err := os.WriteFile(path, serialized, 0o644); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}
	return nil
}

// EnsureFile writes the default settings to path when no file exists yet.
// It reports whether a file was written.
func EnsureFile(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("stat settings file: %w", err)
	}
	if err := Save(path, Default()); err != nil {
		return false, err
	}
	return true, nil
}

func applyYaml(cfg *Config, f yamlSettings) {
	if f.API.URL != "" {
		cfg.APIURL = f.API.URL
	}
	if f.API.TimeoutSeconds > 0 {
		cfg.APITimeout = time.Duration(f.API.TimeoutSeconds) * time.Second
	}
	if f.Sounds.Dir != "" {
		cfg.SFXDir = f.Sounds.Dir
	}
	if f.Sounds.Volume > 0 && f.Sounds.Volume <= 1 {
		cfg.Volume = f.Sounds.Volume
	}
	if f.Journal.Path != "" {
		cfg.JournalPath = f.Journal.Path
	}
	// Durations must stay positive; anything else keeps the nominal value.
	if f.Durations.FocusSeconds > 0 {
		cfg.Durations.Focus = f.Durations.FocusSeconds
	}
	if f.Durations.ShortBreakSeconds > 0 {
		cfg.Durations.ShortBreak = f.Durations.ShortBreakSeconds
	}
	if f.Durations.LongBreakSeconds > 0 {
		cfg.Durations.LongBreak = f.Durations.LongBreakSeconds
	}
	if f.LogLevel != "" {
		cfg.LogLevel = f.LogLevel
	}
	cfg.Lang = f.Language
	cfg.DevMode = f.DevMode
	if f.StartMode != "" {
		setStartMode(cfg, f.StartMode, "settings")
	}
}

func setStartMode(cfg *Config, name, source string) {
	mode, err := timer.ParseMode(strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		slog.Warn("config: ignoring start mode", "source", source, "error", err)
		return
	}
	cfg.StartMode = mode
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvAPIURL)); v != "" {
		cfg.APIURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvSFXDir)); v != "" {
		cfg.SFXDir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvJournal)); v != "" {
		cfg.JournalPath = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.LogLevel = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLang)); v != "" {
		cfg.Lang = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvStartMode)); v != "" {
		setStartMode(cfg, v, EnvStartMode)
	}
	if v := strings.TrimSpace(os.Getenv(EnvDevMode)); v != "" {
		if dev, err := strconv.ParseBool(v); err == nil {
			cfg.DevMode = dev
		} else {
			slog.Warn("config.applyEnv: ignoring invalid bool", "var", EnvDevMode, "value", v)
		}
	}
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
