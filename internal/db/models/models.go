package models

import (
	"encoding/json"
	"time"
)

type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Password  string    `json:"-"`
	Role      string    `json:"role"` // admin, member
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UploadStatus is the lifecycle state of an audio upload.
type UploadStatus string

const (
	StatusReceived     UploadStatus = "received"
	StatusChunked      UploadStatus = "chunked"
	StatusTranscribing UploadStatus = "transcribing"
	StatusCompleted    UploadStatus = "completed"
	StatusFailed       UploadStatus = "failed"
)

// Upload is one accepted audio recording. Chunk and transcript rows hang
// off its ID; the row itself is never deleted automatically.
type Upload struct {
	ID               string       `json:"upload_id"`
	MemberID         string       `json:"member_id"`
	OriginalFilename string       `json:"original_filename"`
	RecordingTime    *time.Time   `json:"recording_datetime,omitempty"`
	DurationSeconds  float64      `json:"duration_seconds"`
	TotalChunks      int          `json:"total_chunks"`
	Status           UploadStatus `json:"status"`
	UploadedAt       time.Time    `json:"uploaded_at"`
	ProcessedAt      *time.Time   `json:"processed_at,omitempty"`
}

// Chunk is one overlapping window of an upload's audio. Immutable once
// persisted. For index i > 0, Start = i * (window - overlap).
type Chunk struct {
	ID       string  `json:"id"`
	UploadID string  `json:"upload_id"`
	Index    int     `json:"chunk_index"`
	Start    float64 `json:"start_time_sec"`
	Duration float64 `json:"duration_sec"`
	BlobKey  string  `json:"blob_key"`
}

// ChunkSegment is one engine-emitted span of speech, with offsets
// relative to the start of its chunk.
type ChunkSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// ChunkTranscript is the raw transcription result for one chunk, stored
// as the resumable fold state of an upload's transcript.
type ChunkTranscript struct {
	UploadID            string         `json:"upload_id"`
	ChunkIndex          int            `json:"chunk_index"`
	Text                string         `json:"text"`
	Language            string         `json:"language"`
	LanguageProbability float64        `json:"language_probability"`
	Segments            []ChunkSegment `json:"segments"`
	ProcessedAt         time.Time      `json:"processed_at"`
}

// TranscriptSegment is a ChunkSegment lifted to upload-absolute time
// after overlap resolution.
type TranscriptSegment struct {
	ChunkIndex          int     `json:"chunk_index"`
	Start               float64 `json:"start"`
	End                 float64 `json:"end"`
	Text                string  `json:"text"`
	Language            string  `json:"language"`
	LanguageProbability float64 `json:"language_probability"`
}

// Transcript is the assembled, overlap-resolved transcript of an upload.
// Languages preserves order of first appearance.
type Transcript struct {
	UploadID  string              `json:"upload_id"`
	FullText  string              `json:"full_transcript"`
	Segments  []TranscriptSegment `json:"segments"`
	Languages []string            `json:"languages"`
}

// GPSStats summarizes a member's location log.
type GPSStats struct {
	TotalPoints int64      `json:"total_points"`
	FirstLog    *time.Time `json:"first_log,omitempty"`
	LastLog     *time.Time `json:"last_log,omitempty"`
}

// GPSPoint is one raw location payload from a member's logger app.
type GPSPoint struct {
	ID         int64           `json:"id"`
	MemberID   string          `json:"member_id"`
	Payload    json.RawMessage `json:"data"`
	ReceivedAt time.Time       `json:"received_at"`
}
