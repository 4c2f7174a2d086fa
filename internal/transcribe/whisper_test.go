package transcribe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWhisperServerClientTranscribe(t *testing.T) {
	var gotPath string
	var gotForm map[string]string
	var gotFilename string
	var gotAudio string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			t.Errorf("parse multipart form: %v", err)
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		gotForm = make(map[string]string)
		for key, vals := range r.MultipartForm.Value {
			gotForm[key] = vals[0]
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("read file part: %v", err)
			http.Error(w, "missing file", http.StatusBadRequest)
			return
		}
		defer file.Close()
		gotFilename = header.Filename
		buf := make([]byte, 64)
		n, _ := file.Read(buf)
		gotAudio = string(buf[:n])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"text": "and then we left",
			"language": "nl",
			"language_probability": 0.93,
			"segments": [
				{"start": 0.5, "end": 2.1, "text": " and then"},
				{"start": 2.1, "end": 3.8, "text": " we left"}
			]
		}`))
	}))
	defer server.Close()

	client := NewWhisperServerClient(server.URL + "/")
	res, err := client.Transcribe(context.Background(), Request{
		Audio:    strings.NewReader("fake wav bytes"),
		Filename: "0001.wav",
		Prompt:   "previous chunk tail",
	})
	if err != nil {
		t.Fatalf("Transcribe returned error: %v", err)
	}

	if gotPath != "/inference" {
		t.Errorf("request path = %q, want /inference", gotPath)
	}
	if gotFilename != "0001.wav" {
		t.Errorf("file part name = %q, want 0001.wav", gotFilename)
	}
	if gotAudio != "fake wav bytes" {
		t.Errorf("audio body = %q", gotAudio)
	}
	wantFields := map[string]string{
		"task":            "translate",
		"response_format": "verbose_json",
		"temperature":     "0.0",
		"vad_filter":      "true",
		"initial_prompt":  "previous chunk tail",
	}
	for key, want := range wantFields {
		if got := gotForm[key]; got != want {
			t.Errorf("form field %s = %q, want %q", key, got, want)
		}
	}

	if res.Text != "and then we left" {
		t.Errorf("Text = %q", res.Text)
	}
	if res.Language != "nl" || res.LanguageProbability != 0.93 {
		t.Errorf("language = %s (%v), want nl (0.93)", res.Language, res.LanguageProbability)
	}
	if len(res.Segments) != 2 {
		t.Fatalf("got %d segments, want 2", len(res.Segments))
	}
	if res.Segments[1].Start != 2.1 || res.Segments[1].End != 3.8 {
		t.Errorf("segment 1 = %+v", res.Segments[1])
	}
}

func TestWhisperServerClientOmitsEmptyPrompt(t *testing.T) {
	var promptSent bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseMultipartForm(10 << 20)
		_, promptSent = r.MultipartForm.Value["initial_prompt"]
		w.Write([]byte(`{"text": "", "language": "en", "language_probability": 1.0, "segments": []}`))
	}))
	defer server.Close()

	client := NewWhisperServerClient(server.URL)
	_, err := client.Transcribe(context.Background(), Request{
		Audio:    strings.NewReader("x"),
		Filename: "0000.wav",
	})
	if err != nil {
		t.Fatalf("Transcribe returned error: %v", err)
	}
	if promptSent {
		t.Error("first chunk must not send an initial_prompt field")
	}
}

func TestWhisperServerClientServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewWhisperServerClient(server.URL)
	_, err := client.Transcribe(context.Background(), Request{
		Audio:    strings.NewReader("x"),
		Filename: "0000.wav",
	})
	if err == nil {
		t.Fatal("Transcribe should surface non-200 responses as errors")
	}
	if !strings.Contains(err.Error(), "status 500") {
		t.Errorf("error %q should mention the status code", err)
	}
}
