package handlers

import (
	"database/sql"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Mario928/life-context-api/internal/audio"
	"github.com/Mario928/life-context-api/internal/db"
	"github.com/Mario928/life-context-api/internal/db/models"
	"github.com/Mario928/life-context-api/internal/pipeline"
	"github.com/Mario928/life-context-api/internal/storage"
)

type UploadHandler struct {
	db       *db.Database
	blobs    storage.Blob
	chunker  *pipeline.Chunker
	maxBytes int64
}

func NewUploadHandler(database *db.Database, blobs storage.Blob, chunker *pipeline.Chunker, maxBytes int64) *UploadHandler {
	return &UploadHandler{db: database, blobs: blobs, chunker: chunker, maxBytes: maxBytes}
}

// Upload accepts one WAV file, stores the original, segments it into
// overlapping chunks and persists them. The upload is created in
// 'received' and only reaches 'chunked' once every chunk is in place.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	memberID := chi.URLParam(r, "memberID")
	if memberID == "" {
		writeError(w, http.StatusBadRequest, "missing member ID")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing or oversized file upload")
		return
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".wav") {
		writeError(w, http.StatusBadRequest, "only WAV files supported")
		return
	}

	// Spool to a temp file; chunking needs a seekable source.
	tmp, err := os.CreateTemp("", "upload-*.wav")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to buffer upload")
		return
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		writeError(w, http.StatusBadRequest, "failed to read upload")
		return
	}
	tmp.Close()

	upload := &models.Upload{
		ID:               uuid.New().String(),
		MemberID:         memberID,
		OriginalFilename: header.Filename,
		Status:           models.StatusReceived,
		UploadedAt:       time.Now().UTC(),
	}
	if t, ok := pipeline.ParseRecordingTime(header.Filename); ok {
		upload.RecordingTime = &t
	}

	if err := h.db.CreateUpload(upload); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to record upload")
		return
	}

	// Keep the original alongside the chunks. Best effort: chunks carry
	// all the data the pipeline needs.
	if src, err := os.Open(tmp.Name()); err == nil {
		key := storage.OriginalKey(upload.ID, header.Filename)
		if err := h.blobs.Put(key, src); err != nil {
			log.Printf("[upload] warning: storing original for %s failed: %v", upload.ID, err)
		}
		src.Close()
	}

	chunks, err := h.chunker.ChunkFile(upload, tmp.Name())
	if err != nil {
		switch {
		case errors.Is(err, audio.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, "invalid audio file: "+err.Error())
		case errors.Is(err, storage.ErrUnavailable):
			writeError(w, http.StatusServiceUnavailable, "chunk storage unavailable")
		default:
			writeError(w, http.StatusInternalServerError, "chunking failed: "+err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":             "success",
		"upload_id":          upload.ID,
		"member_id":          memberID,
		"original_filename":  header.Filename,
		"recording_datetime": upload.RecordingTime,
		"duration_seconds":   upload.DurationSeconds,
		"total_chunks":       len(chunks),
		"message":            "Audio chunked and ready for processing",
	})
}

// ListUploads returns all uploads for a member.
func (h *UploadHandler) ListUploads(w http.ResponseWriter, r *http.Request) {
	memberID := chi.URLParam(r, "memberID")
	uploads, err := h.db.ListUploads(memberID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list uploads: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"member_id": memberID,
		"count":     len(uploads),
		"uploads":   uploads,
	})
}

// GetUpload returns one upload's details including its chunk layout.
func (h *UploadHandler) GetUpload(w http.ResponseWriter, r *http.Request) {
	uploadID := chi.URLParam(r, "uploadID")
	upload, err := h.db.GetUpload(uploadID)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "upload not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load upload: "+err.Error())
		return
	}

	chunks, err := h.db.GetChunks(uploadID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load chunks: "+err.Error())
		return
	}
	if chunks == nil {
		chunks = []models.Chunk{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"upload": upload,
		"chunks": chunks,
	})
}
