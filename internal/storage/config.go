package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/nikbrunner/nbm/internal/model"
)

// Settings backends.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// ErrUnknownBackend is returned for a backend name other than json or sqlite.
var ErrUnknownBackend = errors.New("unknown settings backend")

// Config holds application configuration.
type Config struct {
	SettingsPath string `yaml:"settings_path"`
	Backend      string `yaml:"backend"`
	ServerURL    string `yaml:"server_url"`
	Token        string `yaml:"token"`
	ContentRoot  string `yaml:"content_root"`
	TempPrefix   string `yaml:"temp_prefix"`
	LogLevel     string `yaml:"log_level"`
	Listen       string `yaml:"listen"`
	ServerDBPath string `yaml:"server_db_path"`
}

// DefaultConfig returns the default configuration with paths left empty.
func DefaultConfig() Config {
	return Config{
		Backend:    BackendJSON,
		TempPrefix: model.DefaultTempPrefix,
		LogLevel:   "info",
		Listen:     "127.0.0.1:8765",
	}
}

// envKeys maps environment variables onto config fields.
var envKeys = map[string]func(c *Config) *string{
	"NBM_SETTINGS_PATH":  func(c *Config) *string { return &c.SettingsPath },
	"NBM_BACKEND":        func(c *Config) *string { return &c.Backend },
	"NBM_SERVER_URL":     func(c *Config) *string { return &c.ServerURL },
	"NBM_TOKEN":          func(c *Config) *string { return &c.Token },
	"NBM_CONTENT_ROOT":   func(c *Config) *string { return &c.ContentRoot },
	"NBM_TEMP_PREFIX":    func(c *Config) *string { return &c.TempPrefix },
	"NBM_LOG_LEVEL":      func(c *Config) *string { return &c.LogLevel },
	"NBM_LISTEN":         func(c *Config) *string { return &c.Listen },
	"NBM_SERVER_DB_PATH": func(c *Config) *string { return &c.ServerDBPath },
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Environment variables (NBM_*)
// 2. .env.local (dotenv), found by walking up from the working directory
// 3. the YAML file at path, or ~/.config/nbm/config.yaml when path is empty
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	// godotenv.Load never overrides variables that are already set
	if envPath := findEnvLocal(); envPath != "" {
		_ = godotenv.Load(envPath)
	}

	explicit := path != ""
	if !explicit {
		p, err := DefaultConfigFilePath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	if err := loadYAMLConfig(path, &cfg); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	for key, field := range envKeys {
		if v := getEnvOrFile(key, key+"_FILE"); v != "" {
			*field(&cfg) = v
		}
	}

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() error {
	if c.Backend == "" {
		c.Backend = BackendJSON
	}
	if c.TempPrefix == "" {
		c.TempPrefix = model.DefaultTempPrefix
	}
	if c.SettingsPath == "" {
		var (
			p   string
			err error
		)
		if c.Backend == BackendSQLite {
			p, err = DefaultSQLitePath()
		} else {
			p, err = DefaultSettingsPath()
		}
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		c.SettingsPath = p
	}
	if c.ServerDBPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		c.ServerDBPath = filepath.Join(homeDir, ".local", "share", "nbm", "server.db")
	}
	return nil
}

// SaveConfig writes config as YAML.
// Creates the directory if it doesn't exist.
func SaveConfig(path string, config *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultConfigFilePath returns the default config path: ~/.config/nbm/config.yaml
func DefaultConfigFilePath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "nbm", "config.yaml"), nil
}

func loadYAMLConfig(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// getEnvOrFile gets an environment variable value, or reads it from a file
// if the _FILE variant is set
func getEnvOrFile(envVar, fileVar string) string {
	if val := os.Getenv(envVar); val != "" {
		return val
	}

	if filePath := os.Getenv(fileVar); filePath != "" {
		data, err := os.ReadFile(filePath)
		if err == nil {
			return strings.TrimSpace(string(data))
		}
	}

	return ""
}

// findEnvLocal searches for .env.local starting from cwd and walking up
// parent directories. Stops at the user's home directory.
func findEnvLocal() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = ""
	}
	homeDir = filepath.Clean(homeDir)
	dir := filepath.Clean(cwd)

	for {
		envPath := filepath.Join(dir, ".env.local")
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
		if dir == homeDir {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}
