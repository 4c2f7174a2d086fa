package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Mario928/life-context-api/internal/api"
	"github.com/Mario928/life-context-api/internal/auth"
	"github.com/Mario928/life-context-api/internal/config"
	"github.com/Mario928/life-context-api/internal/db"
	"github.com/Mario928/life-context-api/internal/pipeline"
	"github.com/Mario928/life-context-api/internal/storage"
	"github.com/Mario928/life-context-api/internal/transcribe"
)

func main() {
	cfg := config.Load()

	// Ensure data directory exists
	os.MkdirAll(cfg.DataPath, 0755)

	// Initialize database
	database, err := db.NewSQLite(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	// Ensure admin user exists
	if err := database.EnsureAdmin(cfg.AdminUsername, cfg.AdminPassword); err != nil {
		log.Fatalf("Failed to create admin user: %v", err)
	}
	log.Printf("Admin user ensured: %s", cfg.AdminUsername)

	// Blob store for chunk audio
	blobs, err := storage.NewFilesystem(cfg.BlobPath)
	if err != nil {
		log.Fatalf("Failed to initialize blob store: %v", err)
	}

	// Transcription engine: local whisper server preferred, OpenAI fallback
	var engine transcribe.Engine
	switch {
	case cfg.WhisperURL != "":
		engine = transcribe.NewWhisperServerClient(cfg.WhisperURL)
		log.Printf("Transcription engine: whisper server at %s", cfg.WhisperURL)
	case cfg.OpenAIKey != "":
		engine = transcribe.NewOpenAIClient(cfg.OpenAIKey)
		log.Printf("Transcription engine: OpenAI Whisper API")
	default:
		log.Fatal("No transcription engine configured. Set WHISPER_URL or OPENAI_API_KEY.")
	}

	// Pipeline
	chunker := pipeline.NewChunker(database, blobs, cfg.ChunkWindowSec, cfg.ChunkOverlapSec)
	runner := pipeline.NewRunner(database, blobs, engine, cfg.ChunkOverlapSec, cfg.PromptTailChars, cfg.ChunkRetryAttempts)

	// Initialize JWT service
	jwtService := auth.NewJWTService(cfg.JWTSecret)

	// Create router
	router := api.NewRouter(database, jwtService, cfg, blobs, chunker, runner)

	// Start server
	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Printf("Starting server on %s", addr)
	log.Printf("Chunking: window=%.0fs overlap=%.0fs", cfg.ChunkWindowSec, cfg.ChunkOverlapSec)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("Shutting down...")
		os.Exit(0)
	}()

	if err := http.ListenAndServe(addr, router); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
