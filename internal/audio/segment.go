package audio

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is returned when segmentation parameters are unusable
// (non-positive duration or window, or overlap >= window).
var ErrInvalidInput = errors.New("invalid segmentation parameters")

// ChunkSpec describes one window of an upload's audio. Start is relative
// to the beginning of the recording.
type ChunkSpec struct {
	Index    int     `json:"chunk_index"`
	Start    float64 `json:"start_time_sec"`
	Duration float64 `json:"duration_sec"`
}

// End returns the exclusive end offset of the window.
func (s ChunkSpec) End() float64 {
	return s.Start + s.Duration
}

// Plan divides a recording of total seconds into fixed-length windows of
// window seconds that overlap by overlap seconds. Consecutive windows are
// stride = window - overlap apart, so chunk i starts at i*stride. The
// final chunk is truncated to end exactly at total; a recording no longer
// than one window yields a single chunk covering all of it.
//
// Plan is pure: it never touches the audio itself.
func Plan(total, window, overlap float64) ([]ChunkSpec, error) {
	if total <= 0 {
		return nil, fmt.Errorf("%w: total duration %.3fs", ErrInvalidInput, total)
	}
	if window <= 0 {
		return nil, fmt.Errorf("%w: window %.3fs", ErrInvalidInput, window)
	}
	if overlap < 0 || overlap >= window {
		return nil, fmt.Errorf("%w: overlap %.3fs with window %.3fs", ErrInvalidInput, overlap, window)
	}

	stride := window - overlap
	var specs []ChunkSpec
	for i := 0; ; i++ {
		start := float64(i) * stride
		if start >= total {
			break
		}
		dur := window
		if start+dur > total {
			dur = total - start
		}
		specs = append(specs, ChunkSpec{Index: i, Start: start, Duration: dur})
		if start+dur >= total {
			break
		}
	}
	return specs, nil
}
