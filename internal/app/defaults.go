package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"hr-go/internal/config"
)

// Environment variables consulted for default locations.
const (
	EnvConfigPath = "HR_CONFIG_PATH" // config file, default ~/.config/hr.toml
	EnvHome       = "HR_HOME"        // data directory, default ~/.local/share/hr
	EnvLogLevel   = "HR_LOG_LEVEL"   // overrides [log] level when set
)

// Defaults are the locations used when no explicit path is given.
type Defaults struct {
	ConfigPath string
	BaseDir    string
	LogDir     string
}

// GetDefaults returns the default locations, checking environment variables first.
func GetDefaults() (*Defaults, error) {
	homeDir, homeErr := os.UserHomeDir()

	configPath := os.Getenv(EnvConfigPath)
	if configPath == "" {
		if homeErr != nil {
			return nil, fmt.Errorf("cannot determine home directory: %w", homeErr)
		}
		configPath = filepath.Join(homeDir, ".config", "hr.toml")
	}

	baseDir := os.Getenv(EnvHome)
	if baseDir == "" {
		if homeErr != nil {
			return nil, fmt.Errorf("cannot determine home directory: %w", homeErr)
		}
		baseDir = filepath.Join(homeDir, ".local", "share", "hr")
	}

	return &Defaults{
		ConfigPath: configPath,
		BaseDir:    baseDir,
		LogDir:     filepath.Join(baseDir, "log"),
	}, nil
}

// ErrNoConfig is returned by LoadConfig when the config file does not exist.
var ErrNoConfig = errors.New("no config file: run 'hr config init' first")

// LoadConfig reads the config file at path and applies environment overrides.
func LoadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w (looked in %s)", ErrNoConfig, path)
	}
	cfg, err := config.ReadFromFile(path)
	if err != nil {
		return nil, err
	}
	if level := os.Getenv(EnvLogLevel); level != "" {
		cfg.Log.Level = level
	}
	return cfg, nil
}
