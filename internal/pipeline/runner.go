package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path"
	"sync"

	"github.com/Mario928/life-context-api/internal/db"
	"github.com/Mario928/life-context-api/internal/db/models"
	"github.com/Mario928/life-context-api/internal/storage"
	"github.com/Mario928/life-context-api/internal/transcribe"
)

// Result is the outcome of one processing request: the transcript as it
// stands (final or partial) plus progress counters.
type Result struct {
	UploadID        string              `json:"upload_id"`
	Status          models.UploadStatus `json:"status"`
	ChunksProcessed int                 `json:"chunks_processed"`
	TotalChunks     int                 `json:"total_chunks"`
	Transcript      models.Transcript   `json:"transcript"`
}

// Runner drives the transcription stage of the upload state machine. One
// upload is processed by at most one run at a time; chunks within a run
// are transcribed strictly in index order because each chunk's call is
// conditioned on the trailing text of the previous chunk. Runs for
// different uploads are independent and may proceed in parallel.
type Runner struct {
	db        *db.Database
	blobs     storage.Blob
	engine    transcribe.Engine
	overlap   float64
	tailChars int
	attempts  int

	mu     sync.Mutex
	active map[string]struct{}
}

func NewRunner(database *db.Database, blobs storage.Blob, engine transcribe.Engine, overlap float64, tailChars, attempts int) *Runner {
	if tailChars <= 0 {
		tailChars = 300
	}
	if attempts <= 0 {
		attempts = 3
	}
	return &Runner{
		db:        database,
		blobs:     blobs,
		engine:    engine,
		overlap:   overlap,
		tailChars: tailChars,
		attempts:  attempts,
		active:    make(map[string]struct{}),
	}
}

// acquire registers an active run for the upload, rejecting a concurrent
// second request outright.
func (r *Runner) acquire(uploadID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, busy := r.active[uploadID]; busy {
		return ErrAlreadyInProgress
	}
	r.active[uploadID] = struct{}{}
	return nil
}

func (r *Runner) release(uploadID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, uploadID)
}

// Process starts or continues transcription for an upload and blocks
// until it completes, fails, or ctx is cancelled. A run resumes from the
// first chunk without a stored transcript; completed chunks are never
// redone. Cancellation is observed only between chunks, so a single
// chunk's result is always applied entirely or not at all; a cancelled
// run leaves the upload in transcribing and a later request picks it up
// where it stopped.
func (r *Runner) Process(ctx context.Context, uploadID string) (*Result, error) {
	if err := r.acquire(uploadID); err != nil {
		return nil, err
	}
	defer r.release(uploadID)

	upload, err := r.db.GetUpload(uploadID)
	if err != nil {
		return nil, err
	}

	chunks, err := r.db.GetChunks(uploadID)
	if err != nil {
		return nil, err
	}

	// A completed upload is served from its stored fold state; re-running
	// the pipeline yields a byte-identical transcript.
	if upload.Status == models.StatusCompleted {
		return r.snapshot(upload, chunks, models.StatusCompleted)
	}

	if upload.Status == models.StatusReceived || len(chunks) == 0 {
		return nil, ErrNotChunked
	}

	ok, err := r.db.TryStartProcessing(uploadID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("upload %s in state %s cannot start processing", uploadID, upload.Status)
	}

	stored, err := r.db.GetChunkTranscripts(uploadID)
	if err != nil {
		return nil, err
	}
	done := make(map[int]models.ChunkTranscript, len(stored))
	for _, ct := range stored {
		done[ct.ChunkIndex] = ct
	}

	asm := NewAssembler(r.overlap)
	var prevTail string

	for _, chunk := range chunks {
		if ct, ok := done[chunk.Index]; ok {
			asm.Fold(chunk, ct)
			prevTail = tail(ct.Text, r.tailChars)
			continue
		}

		// Cancellation is only delivered at chunk boundaries.
		select {
		case <-ctx.Done():
			log.Printf("[pipeline] upload %s: cancelled after %d/%d chunks", uploadID, asm.Folded(), len(chunks))
			return r.partial(upload, asm, len(chunks), models.StatusTranscribing), ctx.Err()
		default:
		}

		ct, err := r.transcribeChunk(ctx, chunk, prevTail)
		if err != nil {
			switch {
			case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
				// Mid-call cancellation: the chunk's result is discarded
				// whole, the upload stays in transcribing.
				return r.partial(upload, asm, len(chunks), models.StatusTranscribing), err
			case errors.Is(err, storage.ErrUnavailable):
				// Storage failures are surfaced unretried so data-loss
				// risk is never masked; state is unchanged for the caller
				// to decide.
				return r.partial(upload, asm, len(chunks), models.StatusTranscribing), err
			default:
				if ferr := r.db.MarkFailed(uploadID); ferr != nil {
					log.Printf("[pipeline] upload %s: failed to record failure: %v", uploadID, ferr)
				}
				log.Printf("[pipeline] upload %s: chunk %d failed permanently: %v", uploadID, chunk.Index, err)
				return r.partial(upload, asm, len(chunks), models.StatusFailed), err
			}
		}

		if err := r.db.SaveChunkTranscript(ct); err != nil {
			return r.partial(upload, asm, len(chunks), models.StatusTranscribing), fmt.Errorf("persist chunk %d transcript: %w", chunk.Index, err)
		}
		asm.Fold(chunk, *ct)
		prevTail = tail(ct.Text, r.tailChars)
	}

	if err := r.db.MarkCompleted(uploadID); err != nil {
		return r.partial(upload, asm, len(chunks), models.StatusTranscribing), err
	}
	log.Printf("[pipeline] upload %s: transcription complete (%d chunks)", uploadID, len(chunks))
	return r.partial(upload, asm, len(chunks), models.StatusCompleted), nil
}

// transcribeChunk runs the engine on one chunk with a bounded number of
// attempts. Context errors abort immediately and are never counted as
// engine failures.
func (r *Runner) transcribeChunk(ctx context.Context, chunk models.Chunk, prompt string) (*models.ChunkTranscript, error) {
	var lastErr error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		blob, err := r.blobs.Get(chunk.BlobKey)
		if err != nil {
			return nil, err
		}

		res, err := r.engine.Transcribe(ctx, transcribe.Request{
			Audio:    blob,
			Filename: path.Base(chunk.BlobKey),
			Prompt:   prompt,
		})
		blob.Close()
		if err == nil {
			segments := make([]models.ChunkSegment, len(res.Segments))
			for i, s := range res.Segments {
				segments[i] = models.ChunkSegment{Start: s.Start, End: s.End, Text: s.Text}
			}
			return &models.ChunkTranscript{
				UploadID:            chunk.UploadID,
				ChunkIndex:          chunk.Index,
				Text:                res.Text,
				Language:            res.Language,
				LanguageProbability: res.LanguageProbability,
				Segments:            segments,
			}, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
		log.Printf("[pipeline] upload %s: chunk %d attempt %d/%d failed: %v",
			chunk.UploadID, chunk.Index, attempt, r.attempts, err)
	}
	return nil, &transcribe.Error{ChunkIndex: chunk.Index, Err: lastErr}
}

func (r *Runner) partial(upload *models.Upload, asm *Assembler, total int, status models.UploadStatus) *Result {
	return &Result{
		UploadID:        upload.ID,
		Status:          status,
		ChunksProcessed: asm.Folded(),
		TotalChunks:     total,
		Transcript:      asm.Transcript(upload.ID),
	}
}

// snapshot rebuilds a result purely from stored fold state.
func (r *Runner) snapshot(upload *models.Upload, chunks []models.Chunk, status models.UploadStatus) (*Result, error) {
	stored, err := r.db.GetChunkTranscripts(upload.ID)
	if err != nil {
		return nil, err
	}
	return &Result{
		UploadID:        upload.ID,
		Status:          status,
		ChunksProcessed: len(stored),
		TotalChunks:     len(chunks),
		Transcript:      AssembleStored(upload.ID, chunks, stored, r.overlap),
	}, nil
}

// tail returns the last n runes of s, the context carried into the next
// chunk's transcription call.
func tail(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}
