package config

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port     int    `yaml:"port"`
	DataPath string `yaml:"data_path"`
	DBPath   string `yaml:"db_path"`
	BlobPath string `yaml:"blob_path"`

	JWTSecret     string   `yaml:"jwt_secret"`
	AdminUsername string   `yaml:"admin_username"`
	AdminPassword string   `yaml:"admin_password"`
	CORSOrigins   []string `yaml:"cors_origins"`

	WhisperURL string `yaml:"whisper_url"`
	OpenAIKey  string `yaml:"openai_api_key"`

	ChunkWindowSec     float64 `yaml:"chunk_window_sec"`
	ChunkOverlapSec    float64 `yaml:"chunk_overlap_sec"`
	PromptTailChars    int     `yaml:"prompt_tail_chars"`
	ChunkRetryAttempts int     `yaml:"chunk_retry_attempts"`
	MaxUploadMB        int64   `yaml:"max_upload_mb"`
}

// Default returns the built-in configuration values.
func Default() *Config {
	return &Config{
		Port:               8080,
		DataPath:           "/data",
		CORSOrigins:        []string{"*"},
		ChunkWindowSec:     300,
		ChunkOverlapSec:    30,
		PromptTailChars:    300,
		ChunkRetryAttempts: 3,
		MaxUploadMB:        500,
		AdminUsername:      "admin",
		AdminPassword:      "admin",
	}
}

// Load builds the configuration from defaults, an optional YAML file
// (CONFIG_PATH) and environment variables, in that order of precedence.
func Load() *Config {
	cfg := Default()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Fatalf("Failed to read config file %s: %v", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			log.Fatalf("Failed to parse config file %s: %v", path, err)
		}
	}

	cfg.Port = getEnvInt("PORT", cfg.Port)
	cfg.DataPath = getEnv("DATA_PATH", cfg.DataPath)
	cfg.DBPath = getEnv("DB_PATH", cfg.DBPath)
	cfg.BlobPath = getEnv("BLOB_PATH", cfg.BlobPath)
	cfg.AdminUsername = getEnv("ADMIN_USERNAME", cfg.AdminUsername)
	cfg.AdminPassword = getEnv("ADMIN_PASSWORD", cfg.AdminPassword)
	cfg.WhisperURL = getEnv("WHISPER_URL", cfg.WhisperURL)
	cfg.OpenAIKey = getEnv("OPENAI_API_KEY", cfg.OpenAIKey)
	cfg.ChunkWindowSec = getEnvFloat("CHUNK_WINDOW_SEC", cfg.ChunkWindowSec)
	cfg.ChunkOverlapSec = getEnvFloat("CHUNK_OVERLAP_SEC", cfg.ChunkOverlapSec)
	cfg.PromptTailChars = getEnvInt("PROMPT_TAIL_CHARS", cfg.PromptTailChars)
	cfg.ChunkRetryAttempts = getEnvInt("CHUNK_RETRY_ATTEMPTS", cfg.ChunkRetryAttempts)
	cfg.MaxUploadMB = int64(getEnvInt("MAX_UPLOAD_MB", int(cfg.MaxUploadMB)))

	if cfg.DBPath == "" {
		cfg.DBPath = cfg.DataPath + "/lifecontext.db"
	}
	if cfg.BlobPath == "" {
		cfg.BlobPath = cfg.DataPath + "/blobs"
	}

	// JWT secret: require explicit setting or generate random
	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	if cfg.JWTSecret == "" {
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			log.Fatalf("Failed to generate random JWT secret: %v", err)
		}
		cfg.JWTSecret = hex.EncodeToString(b)
		log.Println("WARNING: JWT_SECRET not set, using random secret. Sessions will not survive restarts. Set JWT_SECRET env var for persistent sessions.")
	}

	// CORS origins: comma-separated list or "*" (default)
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		cfg.CORSOrigins = make([]string, 0, len(origins))
		for _, o := range origins {
			o = strings.TrimSpace(o)
			if o != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, o)
			}
		}
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
