package handlers

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Mario928/life-context-api/internal/db"
	"github.com/Mario928/life-context-api/internal/pipeline"
	"github.com/Mario928/life-context-api/internal/storage"
	"github.com/Mario928/life-context-api/internal/transcribe"
)

type ProcessHandler struct {
	db      *db.Database
	runner  *pipeline.Runner
	overlap float64
}

func NewProcessHandler(database *db.Database, runner *pipeline.Runner, overlap float64) *ProcessHandler {
	return &ProcessHandler{db: database, runner: runner, overlap: overlap}
}

type processResponse struct {
	*pipeline.Result
	Error string `json:"error,omitempty"`
}

// Process starts or continues transcription for an upload and blocks
// until it finishes. The response carries the transcript as it stands:
// final on completion, partial when the run failed partway.
func (h *ProcessHandler) Process(w http.ResponseWriter, r *http.Request) {
	uploadID := chi.URLParam(r, "uploadID")

	result, err := h.runner.Process(r.Context(), uploadID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			writeError(w, http.StatusNotFound, "upload not found")
		case errors.Is(err, pipeline.ErrAlreadyInProgress):
			writeError(w, http.StatusConflict, "processing already in progress")
		case errors.Is(err, pipeline.ErrNotChunked):
			writeError(w, http.StatusUnprocessableEntity, "upload has not been chunked yet")
		case errors.Is(err, storage.ErrUnavailable):
			writeError(w, http.StatusServiceUnavailable, "chunk storage unavailable")
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			// Client went away; nothing useful to write.
		default:
			var terr *transcribe.Error
			if errors.As(err, &terr) && result != nil {
				// The upload is failed but the chunks transcribed before
				// the failure have standalone value.
				writeJSON(w, http.StatusOK, processResponse{Result: result, Error: terr.Error()})
				return
			}
			writeError(w, http.StatusInternalServerError, "processing failed: "+err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, processResponse{Result: result})
}

// Transcript returns the current transcript for an upload regardless of
// its lifecycle state.
func (h *ProcessHandler) Transcript(w http.ResponseWriter, r *http.Request) {
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
	stored, err := h.db.GetChunkTranscripts(uploadID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load transcripts: "+err.Error())
		return
	}

	transcript := pipeline.AssembleStored(uploadID, chunks, stored, h.overlap)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"upload_id":          uploadID,
		"member_id":          upload.MemberID,
		"original_filename":  upload.OriginalFilename,
		"status":             upload.Status,
		"processed_at":       upload.ProcessedAt,
		"chunks_transcribed": len(stored),
		"total_chunks":       upload.TotalChunks,
		"full_transcript":    transcript.FullText,
		"segments":           transcript.Segments,
		"languages":          transcript.Languages,
	})
}

// Status reports the upload's lifecycle state and chunk progress.
func (h *ProcessHandler) Status(w http.ResponseWriter, r *http.Request) {
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

	stored, err := h.db.GetChunkTranscripts(uploadID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load transcripts: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"upload_id":          upload.ID,
		"member_id":          upload.MemberID,
		"original_filename":  upload.OriginalFilename,
		"status":             upload.Status,
		"total_chunks":       upload.TotalChunks,
		"chunks_transcribed": len(stored),
		"uploaded_at":        upload.UploadedAt,
		"processed_at":       upload.ProcessedAt,
	})
}
