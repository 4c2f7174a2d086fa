package transcribe

import (
	"context"
	"fmt"
	"io"
)

// Segment is one engine-emitted span of speech with offsets relative to
// the start of the submitted audio.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// ChunkResult is the engine output for one chunk of audio. Language is
// the detected source language of the audio, independent of the
// translation target.
type ChunkResult struct {
	Text                string
	Segments            []Segment
	Language            string
	LanguageProbability float64
}

// Request carries one chunk of audio to the engine. Prompt is the
// trailing transcript text of the previous chunk, supplied as a decoding
// hint only; the engine must not echo it back as output. Empty for the
// first chunk.
type Request struct {
	Audio    io.Reader
	Filename string
	Prompt   string
}

// Engine is a speech-transcription backend invoked in
// translate-to-English mode.
type Engine interface {
	Transcribe(ctx context.Context, req Request) (*ChunkResult, error)
	Name() string
}

// Error tags an engine failure with the chunk it occurred on. Completed
// chunks are unaffected by a later chunk's Error.
type Error struct {
	ChunkIndex int
	Err        error
}

func (e *Error) Error() string {
	return fmt.Sprintf("transcribe chunk %d: %v", e.ChunkIndex, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
