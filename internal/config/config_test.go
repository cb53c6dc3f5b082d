package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.toml"))
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("RAG_TEMPERATURE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.RAG.ChunkSize != 1200 || cfg.RAG.ChunkOverlap != 200 || cfg.RAG.TopK != 4 {
		t.Fatalf("unexpected rag defaults %#v", cfg.RAG)
	}
	if cfg.EvictionDelay() != 5*time.Second || cfg.InitialBackoff() != time.Second {
		t.Fatalf("unexpected durations %s %s", cfg.EvictionDelay(), cfg.InitialBackoff())
	}
	if cfg.RAG.Temperature == nil || *cfg.RAG.Temperature != 0.1 {
		t.Fatalf("Temperature = %v, want 0.1", cfg.RAG.Temperature)
	}
	if cfg.Upload.MaxBytes != 10<<20 {
		t.Fatalf("MaxBytes = %d", cfg.Upload.MaxBytes)
	}
	if cfg.MySQL.Enabled || cfg.Redis.Enabled || cfg.RabbitMQ.Enabled {
		t.Fatalf("run history backends must be off by default")
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[app]
port = 9000

[rag]
chunk_size = 800
top_k = 6

[cors]
allowed_origins = ["https://a.example"]

[redis]
enabled = true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("RAG_TOP_K", "2")
	t.Setenv("RAG_TEMPERATURE", "0.4")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://b.example, https://c.example")
	t.Setenv("MYSQL_ENABLED", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.App.Port != 9000 || cfg.RAG.ChunkSize != 800 || cfg.RAG.ChunkOverlap != 200 {
		t.Fatalf("file values not applied: %#v %#v", cfg.App, cfg.RAG)
	}
	if cfg.RAG.TopK != 2 || cfg.RAG.Temperature == nil || *cfg.RAG.Temperature != 0.4 {
		t.Fatalf("env overrides not applied: %#v", cfg.RAG)
	}
	if len(cfg.CORS.AllowedOrigins) != 2 || cfg.CORS.AllowedOrigins[1] != "https://c.example" {
		t.Fatalf("AllowedOrigins = %v", cfg.CORS.AllowedOrigins)
	}
	if !cfg.Redis.Enabled || !cfg.MySQL.Enabled {
		t.Fatalf("enabled flags not applied")
	}
}

func TestLoadRejectsBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[rag\nchunk_size = "), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	if _, err := Load(); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestLoadKeepsExplicitZeroTemperature(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[rag]\ntemperature = 0.0\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("RAG_TEMPERATURE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.RAG.Temperature == nil || *cfg.RAG.Temperature != 0 {
		t.Fatalf("Temperature = %v, want explicit 0", cfg.RAG.Temperature)
	}

	t.Setenv("RAG_TEMPERATURE", "0")
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.toml"))
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.RAG.Temperature == nil || *cfg.RAG.Temperature != 0 {
		t.Fatalf("env Temperature = %v, want explicit 0", cfg.RAG.Temperature)
	}
}
