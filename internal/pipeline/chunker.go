package pipeline

import (
	"bytes"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Mario928/life-context-api/internal/audio"
	"github.com/Mario928/life-context-api/internal/db"
	"github.com/Mario928/life-context-api/internal/db/models"
	"github.com/Mario928/life-context-api/internal/storage"
)

// Chunker turns an accepted WAV file into persisted, overlapping chunks.
// Chunking is atomic from the state machine's point of view: the upload
// only moves received -> chunked once every chunk blob and row is in
// place. A failure partway leaves the upload in received and the whole
// pass is retried; blob keys and chunk rows are keyed by (upload, index)
// so the retry overwrites instead of duplicating.
type Chunker struct {
	db      *db.Database
	blobs   storage.Blob
	window  float64
	overlap float64
}

func NewChunker(database *db.Database, blobs storage.Blob, window, overlap float64) *Chunker {
	return &Chunker{db: database, blobs: blobs, window: window, overlap: overlap}
}

// ChunkFile segments the WAV at path, stores each chunk's bytes, records
// chunk metadata and marks the upload chunked. The returned chunks are in
// index order.
func (c *Chunker) ChunkFile(upload *models.Upload, path string) ([]models.Chunk, error) {
	wavFile, err := audio.DecodeFile(path)
	if err != nil {
		return nil, err
	}

	duration := wavFile.Duration()
	specs, err := audio.Plan(duration, c.window, c.overlap)
	if err != nil {
		return nil, err
	}

	chunks := make([]models.Chunk, 0, len(specs))
	for _, spec := range specs {
		data, err := wavFile.Slice(spec)
		if err != nil {
			return nil, err
		}
		key := storage.ChunkKey(upload.ID, spec.Index)
		if err := c.blobs.Put(key, bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("store chunk %d: %w", spec.Index, err)
		}
		chunks = append(chunks, models.Chunk{
			ID:       uuid.New().String(),
			UploadID: upload.ID,
			Index:    spec.Index,
			Start:    spec.Start,
			Duration: spec.Duration,
			BlobKey:  key,
		})
	}

	if err := c.db.MarkChunked(upload.ID, duration, chunks); err != nil {
		return nil, fmt.Errorf("persist chunk metadata: %w", err)
	}

	log.Printf("[chunker] upload %s: %.1fs of audio split into %d chunks (window=%.0fs overlap=%.0fs)",
		upload.ID, duration, len(chunks), c.window, c.overlap)

	upload.DurationSeconds = duration
	upload.TotalChunks = len(chunks)
	upload.Status = models.StatusChunked
	return chunks, nil
}

// ParseRecordingTime extracts the recording start time from filenames
// like "recording_2024-11-26_14-00-00.wav".
func ParseRecordingTime(filename string) (time.Time, bool) {
	name := strings.TrimSuffix(strings.TrimSuffix(filename, ".wav"), ".WAV")
	parts := strings.Split(name, "_")
	for i := 0; i < len(parts)-1; i++ {
		if t, err := time.Parse("2006-01-02_15-04-05", parts[i]+"_"+parts[i+1]); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
