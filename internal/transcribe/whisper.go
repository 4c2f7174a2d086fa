package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// WhisperServerClient talks to a faster-whisper HTTP server. Each call
// runs the engine in translate mode and returns per-segment timestamps
// plus the detected source language.
type WhisperServerClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewWhisperServerClient(baseURL string) *WhisperServerClient {
	return &WhisperServerClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Minute, // transcription can be very long
		},
	}
}

func (c *WhisperServerClient) Name() string {
	return "whisper-server"
}

// whisperResponse mirrors the server's verbose_json payload.
type whisperResponse struct {
	Text                string    `json:"text"`
	Language            string    `json:"language"`
	LanguageProbability float64   `json:"language_probability"`
	Segments            []Segment `json:"segments"`
}

func (c *WhisperServerClient) Transcribe(ctx context.Context, req Request) (*ChunkResult, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", req.Filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, req.Audio); err != nil {
		return nil, fmt.Errorf("copy audio data: %w", err)
	}

	writer.WriteField("task", "translate")
	writer.WriteField("response_format", "verbose_json")
	writer.WriteField("temperature", "0.0")
	writer.WriteField("vad_filter", "true")
	if req.Prompt != "" {
		writer.WriteField("initial_prompt", req.Prompt)
	}
	writer.Close()

	url := c.baseURL + "/inference"
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	log.Printf("[whisper] sending request to %s (audio: %s, prompt: %d chars)", url, req.Filename, len(req.Prompt))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("whisper server request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("whisper server error (status %d): %s", resp.StatusCode, string(body))
	}

	var parsed whisperResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse whisper response: %w", err)
	}

	return &ChunkResult{
		Text:                parsed.Text,
		Segments:            parsed.Segments,
		Language:            parsed.Language,
		LanguageProbability: parsed.LanguageProbability,
	}, nil
}
