package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"taskflow/internal/domain"
)

// marshalIndent and writeFile are used by WriteDefault and Save; tests may replace to force errors.
var (
	marshalIndent = json.MarshalIndent
	writeFile     = os.WriteFile
)

// DefaultPath is the config filename looked up in the working directory.
const DefaultPath = "taskflow.json"

// Default returns the built-in configuration: local SQLite file, Groq with
// a small fast model, no gateway auth.
func Default() *domain.Config {
	return &domain.Config{
		Gateway: domain.GatewayConfig{
			Port: 8000,
			Auth: domain.AuthConfig{Mode: "none"},
		},
		Agents: domain.AgentsConfig{
			Provider:      "groq",
			DefaultModel:  "llama-3.1-8b-instant",
			HistoryBudget: 2048,
		},
		Database: domain.DatabaseConfig{URL: "file:taskflow.db"},
		Infra:    domain.InfraConfig{LogFormat: "text", LogLevel: "info"},
		Retry: domain.RetryConfig{
			MaxRetries:     5,
			InitialBackoff: 1000,
			MaxBackoff:     30000,
			Multiplier:     2,
		},
	}
}

// WriteDefault writes the default Config to path (e.g. taskflow.json).
// Parent directories are not created.
func WriteDefault(path string) error {
	data, err := marshalIndent(Default(), "", "  ")
	if err != nil {
		return err
	}
	return writeFile(path, data, 0644)
}

// Load reads path, unmarshals into domain.Config, and fills unset sections
// from defaults. Returns an error if the file is missing or invalid JSON.
func Load(path string) (*domain.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}
	c := Default()
	if err := json.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("config parse: %w", err)
	}
	return c, nil
}

// Save writes cfg to path as indented JSON.
func Save(path string, cfg *domain.Config) error {
	if cfg == nil {
		return fmt.Errorf("config save: nil config")
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("config save mkdir: %w", err)
	}
	data, err := marshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("config save marshal: %w", err)
	}
	if err := writeFile(path, data, 0644); err != nil {
		return fmt.Errorf("config save write: %w", err)
	}
	return nil
}
