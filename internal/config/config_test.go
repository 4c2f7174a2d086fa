package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg := Load()
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.ChunkWindowSec != 300 || cfg.ChunkOverlapSec != 30 {
		t.Errorf("chunking = %v/%v, want 300/30", cfg.ChunkWindowSec, cfg.ChunkOverlapSec)
	}
	if cfg.DBPath != "/data/lifecontext.db" {
		t.Errorf("DBPath = %q, want derived from DataPath", cfg.DBPath)
	}
	if cfg.BlobPath != "/data/blobs" {
		t.Errorf("BlobPath = %q, want derived from DataPath", cfg.BlobPath)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PORT", "9999")
	t.Setenv("DATA_PATH", "/tmp/lc")
	t.Setenv("CHUNK_WINDOW_SEC", "120")
	t.Setenv("CHUNK_OVERLAP_SEC", "10")
	t.Setenv("CHUNK_RETRY_ATTEMPTS", "5")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg := Load()
	if cfg.Port != 9999 {
		t.Errorf("Port = %d, want 9999", cfg.Port)
	}
	if cfg.DBPath != "/tmp/lc/lifecontext.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.ChunkWindowSec != 120 || cfg.ChunkOverlapSec != 10 {
		t.Errorf("chunking = %v/%v, want 120/10", cfg.ChunkWindowSec, cfg.ChunkOverlapSec)
	}
	if cfg.ChunkRetryAttempts != 5 {
		t.Errorf("ChunkRetryAttempts = %d, want 5", cfg.ChunkRetryAttempts)
	}
	want := []string{"https://a.example", "https://b.example"}
	if !reflect.DeepEqual(cfg.CORSOrigins, want) {
		t.Errorf("CORSOrigins = %v, want %v", cfg.CORSOrigins, want)
	}
}

func TestLoadYAMLFileThenEnvWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := "port: 7000\nwhisper_url: http://whisper:9000\nchunk_window_sec: 240\n"
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("PORT", "7001")

	cfg := Load()
	if cfg.Port != 7001 {
		t.Errorf("Port = %d, env must override file", cfg.Port)
	}
	if cfg.WhisperURL != "http://whisper:9000" {
		t.Errorf("WhisperURL = %q, want value from file", cfg.WhisperURL)
	}
	if cfg.ChunkWindowSec != 240 {
		t.Errorf("ChunkWindowSec = %v, want 240 from file", cfg.ChunkWindowSec)
	}
}

func TestRandomJWTSecretWhenUnset(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	a := Load()
	b := Load()
	if a.JWTSecret == "" {
		t.Fatal("generated JWT secret must not be empty")
	}
	if a.JWTSecret == b.JWTSecret {
		t.Error("each Load without JWT_SECRET should generate a fresh secret")
	}
}
