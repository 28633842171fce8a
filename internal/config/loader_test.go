package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// =============================================================================
// Default / WriteDefault tests
// =============================================================================

func TestDefault_ShouldBeSelfConsistent(t *testing.T) {
	cfg := Default()
	if cfg.Gateway.Port != 8000 {
		t.Errorf("port = %d, want 8000", cfg.Gateway.Port)
	}
	if cfg.Agents.Provider != "groq" {
		t.Errorf("provider = %q, want groq", cfg.Agents.Provider)
	}
	if cfg.Database.URL == "" {
		t.Error("database URL must not be empty")
	}
	if cfg.Retry.MaxRetries <= 0 {
		t.Errorf("max retries = %d, want positive", cfg.Retry.MaxRetries)
	}
}

func TestWriteDefault_ShouldRoundTripThroughLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taskflow.json")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if *cfg != *Default() {
		t.Errorf("loaded config differs from default:\n got %+v\nwant %+v", cfg, Default())
	}
}

func TestWriteDefault_ShouldPropagateWriteError(t *testing.T) {
	orig := writeFile
	defer func() { writeFile = orig }()
	writeFile = func(name string, data []byte, perm os.FileMode) error {
		return errors.New("disk full")
	}

	if err := WriteDefault(filepath.Join(t.TempDir(), "x.json")); err == nil {
		t.Fatal("expected write error to propagate")
	}
}

// =============================================================================
// Load tests
// =============================================================================

func TestLoad_ShouldFillUnsetSectionsFromDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taskflow.json")
	partial := `{"gateway": {"port": 9001}}`
	if err := os.WriteFile(path, []byte(partial), 0644); err != nil {
		t.Fatalf("write partial config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Gateway.Port != 9001 {
		t.Errorf("port = %d, want the configured 9001", cfg.Gateway.Port)
	}
	if cfg.Agents.Provider != "groq" {
		t.Errorf("provider = %q, want the default groq", cfg.Agents.Provider)
	}
	if cfg.Retry.MaxRetries != 5 {
		t.Errorf("max retries = %d, want the default 5", cfg.Retry.MaxRetries)
	}
}

func TestLoad_ShouldErrorForMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_ShouldErrorForInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("write bad config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

// =============================================================================
// Save tests
// =============================================================================

func TestSave_ShouldCreateParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "taskflow.json")
	if err := Save(path, Default()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := Load(path); err != nil {
		t.Errorf("saved config should load back: %v", err)
	}
}

func TestSave_ShouldRejectNilConfig(t *testing.T) {
	if err := Save(filepath.Join(t.TempDir(), "x.json"), nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}
