// Package transcript holds the timed-text types shared by ingestion,
// summarization and quiz generation: segments as produced by transcription,
// and the size-bounded chunks derived from them.
package transcript

import (
	"strings"
	"unicode/utf8"
)

// Segment is a single timed span of transcript text
type Segment struct {
	Text    string  `json:"text"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker string  `json:"speaker,omitempty"`
}

// Transcript is the content JSON stored for a lecture: the ordered segments
// plus the optional total duration reported by transcription
type Transcript struct {
	Segments []Segment `json:"segments"`
	Duration *float64  `json:"duration,omitempty"`
}

// Chunk is a contiguous, size-bounded span of segments. It is never persisted
// standalone; it becomes a LectureChunk row after enrichment.
type Chunk struct {
	Text           string  `json:"text"`
	Start          float64 `json:"start"`
	End            float64 `json:"end"`
	SegmentIndices []int   `json:"segment_indices"`
}

// Flatten joins segment texts with newlines, prefixing "[speaker] " when a
// speaker is present, and truncates the result to maxChars characters.
// maxChars <= 0 means no limit.
func (t *Transcript) Flatten(maxChars int) string {
	lines := make([]string, 0, len(t.Segments))
	for _, seg := range t.Segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		if seg.Speaker != "" {
			lines = append(lines, "["+seg.Speaker+"] "+text)
		} else {
			lines = append(lines, text)
		}
	}
	return TruncateChars(strings.Join(lines, "\n"), maxChars)
}

// FlattenText is Flatten without speaker prefixes
func (t *Transcript) FlattenText(maxChars int) string {
	lines := make([]string, 0, len(t.Segments))
	for _, seg := range t.Segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		lines = append(lines, text)
	}
	return TruncateChars(strings.Join(lines, "\n"), maxChars)
}

// TruncateChars cuts s to at most maxChars characters (runes, not bytes, so
// multibyte transcripts are not split mid-character). maxChars <= 0 means no
// limit.
func TruncateChars(s string, maxChars int) string {
	if maxChars <= 0 || utf8.RuneCountInString(s) <= maxChars {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxChars])
}
