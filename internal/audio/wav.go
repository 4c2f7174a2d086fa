package audio

import (
	"fmt"
	"os"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// File holds a fully decoded WAV recording so that multiple chunk slices
// can be cut from a single decode pass.
type File struct {
	sampleRate int
	bitDepth   int
	numChans   int
	buf        *gaudio.IntBuffer
}

// DecodeFile reads and decodes a WAV file from disk.
func DecodeFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open wav: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: not a valid WAV file", ErrInvalidInput)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode wav: %w", err)
	}
	if buf.Format == nil || buf.Format.SampleRate <= 0 || buf.Format.NumChannels <= 0 {
		return nil, fmt.Errorf("%w: missing WAV format information", ErrInvalidInput)
	}

	return &File{
		sampleRate: buf.Format.SampleRate,
		bitDepth:   int(dec.BitDepth),
		numChans:   buf.Format.NumChannels,
		buf:        buf,
	}, nil
}

// Duration returns the recording length in seconds.
func (f *File) Duration() float64 {
	frames := len(f.buf.Data) / f.numChans
	return float64(frames) / float64(f.sampleRate)
}

// Slice encodes the frames covered by spec into a standalone WAV payload.
// The byte range matches the descriptor exactly: frame offsets are derived
// from spec.Start and spec.Duration at the file's sample rate, clamped to
// the end of the recording.
func (f *File) Slice(spec ChunkSpec) ([]byte, error) {
	frames := len(f.buf.Data) / f.numChans
	startFrame := int(spec.Start * float64(f.sampleRate))
	endFrame := int(spec.End() * float64(f.sampleRate))
	if startFrame >= frames {
		return nil, fmt.Errorf("%w: chunk %d starts at %.3fs beyond end of audio", ErrInvalidInput, spec.Index, spec.Start)
	}
	if endFrame > frames {
		endFrame = frames
	}

	data := f.buf.Data[startFrame*f.numChans : endFrame*f.numChans]

	// The wav encoder needs an io.WriteSeeker to patch up header sizes,
	// so the slice goes through a temp file.
	tmp, err := os.CreateTemp("", "chunk-*.wav")
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp.Name())

	enc := wav.NewEncoder(tmp, f.sampleRate, f.bitDepth, f.numChans, 1)
	err = enc.Write(&gaudio.IntBuffer{
		Format:         &gaudio.Format{NumChannels: f.numChans, SampleRate: f.sampleRate},
		Data:           data,
		SourceBitDepth: f.bitDepth,
	})
	if err != nil {
		tmp.Close()
		return nil, fmt.Errorf("encode chunk %d: %w", spec.Index, err)
	}
	if err := enc.Close(); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("finalize chunk %d: %w", spec.Index, err)
	}
	if err := tmp.Close(); err != nil {
		return nil, err
	}

	return os.ReadFile(tmp.Name())
}
