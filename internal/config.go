package internal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultServer is where the backend listens when nothing else is configured
const DefaultServer = "http://localhost:8000"

// Config holds the client settings
type Config struct {
	Server      string          `yaml:"server"`
	APIPrefix   string          `yaml:"api_prefix"`
	Model       string          `yaml:"model,omitempty"`
	HistoryPath string          `yaml:"history_path,omitempty"`
	StatePath   string          `yaml:"state_path,omitempty"`
	Reconnect   ReconnectPolicy `yaml:"reconnect"`
}

// DefaultConfig returns the built-in settings rooted at dir
func DefaultConfig(dir string) Config {
	return Config{
		Server:      DefaultServer,
		APIPrefix:   DefaultAPIPrefix,
		HistoryPath: filepath.Join(dir, "history.db"),
		StatePath:   filepath.Join(dir, "state.yaml"),
		Reconnect:   DefaultReconnectPolicy(),
	}
}

// ConfigDir returns ~/.vedit-session, or $VEDIT_HOME when set
func ConfigDir() (string, error) {
	if dir := os.Getenv("VEDIT_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".vedit-session"), nil
}

// LoadConfig reads dir/config.yaml over the defaults, then applies a .env
// file from the working directory and the environment
func LoadConfig(dir string) (Config, error) {
	cfg := DefaultConfig(dir)

	path := filepath.Join(dir, "config.yaml")
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		LogDebug("No config file at %s, using defaults", path)
	default:
		return cfg, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := godotenv.Load(); err != nil {
		LogDebug("No .env file loaded: %v", err)
	}

	cfg.Server = getEnv("VEDIT_SERVER", cfg.Server)
	cfg.APIPrefix = getEnv("VEDIT_API_PREFIX", cfg.APIPrefix)
	cfg.Model = getEnv("VEDIT_MODEL", getEnv("GEMINI_MODEL", cfg.Model))
	cfg.HistoryPath = getEnv("VEDIT_HISTORY", cfg.HistoryPath)
	return cfg, nil
}

// SaveConfig writes cfg to dir/config.yaml
func SaveConfig(dir string, cfg Config) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, "config.yaml"), data, 0644)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
