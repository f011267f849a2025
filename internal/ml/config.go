package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// BaseConfig provides the file loading shared by backend configs.
type BaseConfig struct {
	ConfigPath string `json:"-"`
}

// LoadConfig fills config from ConfigPath when set, otherwise from
// config/<name>.json when present. Fields left empty are filled by the
// backend from environment variables.
func (c *BaseConfig) LoadConfig(name string, config any, logger *slog.Logger) error {
	if c.ConfigPath != "" {
		data, err := os.ReadFile(c.ConfigPath)
		if err != nil {
			return fmt.Errorf("read %s config: %w", name, err)
		}
		if err := json.Unmarshal(data, config); err != nil {
			return fmt.Errorf("parse %s config %s: %w", name, c.ConfigPath, err)
		}
		logger.Info("Loaded generator configuration from file", "backend", name, "path", c.ConfigPath)
		return nil
	}

	defaultPath := filepath.Join("config", name+".json")
	if data, err := os.ReadFile(defaultPath); err == nil {
		if err := json.Unmarshal(data, config); err != nil {
			return fmt.Errorf("parse %s config %s: %w", name, defaultPath, err)
		}
		logger.Info("Loaded generator configuration from default file", "backend", name, "path", defaultPath)
		return nil
	}

	logger.Info("Using environment variables for generator configuration", "backend", name)
	return nil
}

// firstEnv returns value, or the first non-empty environment variable
// among keys.
func firstEnv(value string, keys ...string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	for _, key := range keys {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	return ""
}

// VertexConfig holds configuration for the Vertex AI backend.
type VertexConfig struct {
	BaseConfig
	ProjectID       string `json:"project_id"`
	Location        string `json:"location"`
	CredentialsFile string `json:"credentials_file"`
}

func (c *VertexConfig) Load(logger *slog.Logger) error {
	if err := c.LoadConfig(TypeVertex, c, logger); err != nil {
		return err
	}
	c.ProjectID = firstEnv(c.ProjectID, "GOOGLE_PROJECT_ID", "GOOGLE_CLOUD_PROJECT")
	c.Location = firstEnv(c.Location, "GOOGLE_LOCATION", "GOOGLE_CLOUD_LOCATION")
	c.CredentialsFile = firstEnv(c.CredentialsFile, "GOOGLE_CREDENTIALS_FILE", "GOOGLE_APPLICATION_CREDENTIALS")

	if c.ProjectID == "" {
		return errors.New("vertex project id missing")
	}
	if c.Location == "" {
		return errors.New("vertex location missing")
	}
	return nil
}

// GeminiConfig holds configuration for the Gemini API backend.
type GeminiConfig struct {
	BaseConfig
	APIKey string `json:"api_key"`
}

func (c *GeminiConfig) Load(logger *slog.Logger) error {
	if err := c.LoadConfig(TypeGemini, c, logger); err != nil {
		return err
	}
	c.APIKey = firstEnv(c.APIKey, "GEMINI_API_KEY", "GOOGLE_API_KEY", "API_KEY")
	if c.APIKey == "" {
		return errors.New("gemini api key missing")
	}
	return nil
}
