package audio

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// writeTestWAV synthesizes a mono 16-bit WAV of the given length and
// returns its path.
func writeTestWAV(t *testing.T, seconds float64, sampleRate int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create test wav: %v", err)
	}

	frames := int(seconds * float64(sampleRate))
	data := make([]int, frames)
	for i := range data {
		data[i] = int(1000 * math.Sin(2*math.Pi*440*float64(i)/float64(sampleRate)))
	}

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	err = enc.Write(&gaudio.IntBuffer{
		Format:         &gaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	})
	if err != nil {
		t.Fatalf("write test wav: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close file: %v", err)
	}
	return path
}

func TestDecodeFileDuration(t *testing.T) {
	path := writeTestWAV(t, 2.5, 16000)

	f, err := DecodeFile(path)
	if err != nil {
		t.Fatalf("DecodeFile returned error: %v", err)
	}
	if got := f.Duration(); math.Abs(got-2.5) > 0.001 {
		t.Errorf("Duration() = %v, want 2.5", got)
	}
}

func TestDecodeFileRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.wav")
	if err := os.WriteFile(path, []byte("not a wav file at all"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := DecodeFile(path); err == nil {
		t.Fatal("DecodeFile on garbage should return error")
	}
}

func TestSliceMatchesDescriptor(t *testing.T) {
	const sampleRate = 8000
	path := writeTestWAV(t, 10, sampleRate)

	f, err := DecodeFile(path)
	if err != nil {
		t.Fatalf("DecodeFile returned error: %v", err)
	}

	specs, err := Plan(10, 4, 1)
	if err != nil {
		t.Fatalf("Plan returned error: %v", err)
	}

	for _, spec := range specs {
		data, err := f.Slice(spec)
		if err != nil {
			t.Fatalf("Slice(chunk %d) returned error: %v", spec.Index, err)
		}

		dec := wav.NewDecoder(bytes.NewReader(data))
		buf, err := dec.FullPCMBuffer()
		if err != nil {
			t.Fatalf("decode chunk %d: %v", spec.Index, err)
		}
		wantFrames := int(spec.Duration * sampleRate)
		if len(buf.Data) != wantFrames {
			t.Errorf("chunk %d has %d frames, want %d", spec.Index, len(buf.Data), wantFrames)
		}
		if buf.Format.SampleRate != sampleRate {
			t.Errorf("chunk %d sample rate = %d, want %d", spec.Index, buf.Format.SampleRate, sampleRate)
		}
	}
}

func TestSliceBeyondEnd(t *testing.T) {
	path := writeTestWAV(t, 1, 8000)

	f, err := DecodeFile(path)
	if err != nil {
		t.Fatalf("DecodeFile returned error: %v", err)
	}
	if _, err := f.Slice(ChunkSpec{Index: 5, Start: 10, Duration: 4}); err == nil {
		t.Fatal("Slice starting past the end of audio should return error")
	}
}
