package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

var validate = validator.New()

// Config holds all application configuration
type Config struct {
	Server struct {
		Port      string `json:"port" validate:"required,numeric"`
		StaticDir string `json:"static_dir"`
		LogLevel  string `json:"log_level" validate:"omitempty,oneof=debug info warn error"`
	} `json:"server"`

	Database struct {
		// Path of the SQLite file; ":memory:" keeps everything in process.
		Path string `json:"path" validate:"required"`
	} `json:"database"`

	ML struct {
		Type       string `json:"type" validate:"required,oneof=vertex gemini"`
		Model      string `json:"model"`
		ConfigPath string `json:"config_path"`
	} `json:"ml"`
}

// Load reads the JSON config file at configPath when it exists, applies
// environment overrides (a .env file in the working directory is loaded
// first) and validates the result.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var config Config
	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// Environment only.
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config.Server.Port = Get("WELLNESS_PORT", config.Server.Port)
	config.Server.StaticDir = Get("WELLNESS_STATIC_DIR", config.Server.StaticDir)
	config.Server.LogLevel = Get("WELLNESS_LOG_LEVEL", config.Server.LogLevel)
	config.Database.Path = Get("WELLNESS_DB_PATH", config.Database.Path)
	config.ML.Type = Get("WELLNESS_ML_TYPE", config.ML.Type)
	config.ML.Model = Get("WELLNESS_ML_MODEL", config.ML.Model)
	config.ML.ConfigPath = Get("WELLNESS_ML_CONFIG", config.ML.ConfigPath)

	if config.Server.StaticDir == "" {
		config.Server.StaticDir = "./static"
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = "info"
	}
	if config.Database.Path == "" {
		config.Database.Path = "wellnesscraft.db"
	}

	if err := validate.Struct(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &config, nil
}

// Get returns the value of the environment variable name, or fallback when
// it is unset or empty.
func Get(name, fallback string) string {
	if value, ok := os.LookupEnv(name); ok && value != "" {
		return value
	}
	return fallback
}

// GetConfigPath returns the path to the configuration file
func GetConfigPath() string {
	// First try environment variable
	if path := os.Getenv("WELLNESS_CONFIG"); path != "" {
		return path
	}

	// Then try config directory
	configDir := "config"
	if _, err := os.Stat(configDir); err == nil {
		return filepath.Join(configDir, "config.json")
	}

	return "config.json"
}
