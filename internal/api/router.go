package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Mario928/life-context-api/internal/api/handlers"
	"github.com/Mario928/life-context-api/internal/api/middleware"
	"github.com/Mario928/life-context-api/internal/auth"
	"github.com/Mario928/life-context-api/internal/config"
	"github.com/Mario928/life-context-api/internal/db"
	"github.com/Mario928/life-context-api/internal/pipeline"
	"github.com/Mario928/life-context-api/internal/storage"
)

func NewRouter(database *db.Database, jwtService *auth.JWTService, cfg *config.Config, blobs storage.Blob, chunker *pipeline.Chunker, runner *pipeline.Runner) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger)
	r.Use(cors.Handler(middleware.CORSHandler(cfg.CORSOrigins)))

	// Handlers
	authHandler := handlers.NewAuthHandler(database, jwtService)
	uploadHandler := handlers.NewUploadHandler(database, blobs, chunker, cfg.MaxUploadMB*1024*1024)
	processHandler := handlers.NewProcessHandler(database, runner, cfg.ChunkOverlapSec)
	gpsHandler := handlers.NewGPSHandler(database)

	r.Route("/api", func(r chi.Router) {
		// Public
		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":"healthy","service":"life-context-api"}`))
		})
		r.With(middleware.MaxBodySize(1 << 20)).Post("/auth/login", authHandler.Login)

		// Protected
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(jwtService))

			r.Get("/auth/me", authHandler.Me)

			// Audio ingestion
			r.Post("/audio/upload/{memberID}", uploadHandler.Upload)
			r.Get("/audio/uploads/{memberID}", uploadHandler.ListUploads)
			r.Get("/audio/upload/{uploadID}", uploadHandler.GetUpload)

			// Transcription pipeline
			r.Post("/whisper/process/{uploadID}", processHandler.Process)
			r.Get("/whisper/transcript/{uploadID}", processHandler.Transcript)
			r.Get("/whisper/status/{uploadID}", processHandler.Status)

			// Location log
			r.Group(func(r chi.Router) {
				r.Use(middleware.MaxBodySize(1 << 20))
				r.Post("/gps/{memberID}", gpsHandler.Receive)
				r.Get("/gps/{memberID}", gpsHandler.List)
				r.Get("/gps/{memberID}/stats", gpsHandler.Stats)
			})
		})
	})

	return r
}
