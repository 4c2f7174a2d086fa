package pipeline

import (
	"strings"

	"github.com/Mario928/life-context-api/internal/db/models"
)

// Assembler folds per-chunk transcription results, in chunk-index order,
// into one upload-wide transcript. Adjacent chunks both transcribe the
// overlap region at the boundary; the fold attributes that region to the
// earlier chunk by dropping, for every chunk after the first, any segment
// whose chunk-relative start lies inside the overlap window. The trim is
// purely offset-based and independent of transcription content, so the
// fold is deterministic: identical inputs always yield an identical
// transcript.
type Assembler struct {
	overlap float64

	segments  []models.TranscriptSegment
	texts     []string
	languages []string
	seenLang  map[string]bool
	folded    int
}

func NewAssembler(overlap float64) *Assembler {
	return &Assembler{
		overlap:  overlap,
		seenLang: make(map[string]bool),
	}
}

// Fold appends one chunk's result to the transcript. Chunks must be
// folded in index order; segment offsets are lifted from chunk-relative
// to upload-absolute time using the chunk's start offset.
func (a *Assembler) Fold(chunk models.Chunk, ct models.ChunkTranscript) {
	if ct.Language != "" && !a.seenLang[ct.Language] {
		a.seenLang[ct.Language] = true
		a.languages = append(a.languages, ct.Language)
	}

	for _, seg := range ct.Segments {
		// Segments starting inside the overlap window were already
		// transcribed as the tail of the previous chunk.
		if chunk.Index > 0 && seg.Start < a.overlap {
			continue
		}
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		a.segments = append(a.segments, models.TranscriptSegment{
			ChunkIndex:          chunk.Index,
			Start:               chunk.Start + seg.Start,
			End:                 chunk.Start + seg.End,
			Text:                text,
			Language:            ct.Language,
			LanguageProbability: ct.LanguageProbability,
		})
		a.texts = append(a.texts, text)
	}
	a.folded++
}

// Folded returns how many chunks have been folded in so far.
func (a *Assembler) Folded() int {
	return a.folded
}

// Transcript returns the current (possibly partial) transcript. Calling
// it mid-fold is valid: chunks 0..k form a complete transcript of the
// audio they cover.
func (a *Assembler) Transcript(uploadID string) models.Transcript {
	segments := make([]models.TranscriptSegment, len(a.segments))
	copy(segments, a.segments)
	languages := make([]string, len(a.languages))
	copy(languages, a.languages)
	return models.Transcript{
		UploadID:  uploadID,
		FullText:  strings.Join(a.texts, " "),
		Segments:  segments,
		Languages: languages,
	}
}

// AssembleStored rebuilds a transcript from persisted per-chunk results.
// Transcript rows may cover only a prefix (or any subset) of the chunks;
// whatever is present is folded in index order.
func AssembleStored(uploadID string, chunks []models.Chunk, stored []models.ChunkTranscript, overlap float64) models.Transcript {
	byIndex := make(map[int]models.Chunk, len(chunks))
	for _, c := range chunks {
		byIndex[c.Index] = c
	}

	a := NewAssembler(overlap)
	for _, ct := range stored {
		chunk, ok := byIndex[ct.ChunkIndex]
		if !ok {
			continue
		}
		a.Fold(chunk, ct)
	}
	return a.Transcript(uploadID)
}
