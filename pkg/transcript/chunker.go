package transcript

import (
	"strings"
	"unicode/utf8"
)

// ChunkByMaxChars greedily packs segments into chunks whose joined text stays
// within maxChars. Segment texts are joined by newline; the separator costs
// one character once a chunk already holds text. Blank segments are skipped
// entirely and never indexed. A single segment longer than maxChars still
// forms its own chunk: the limit only decides whether a segment may be added
// to a non-empty chunk.
func ChunkByMaxChars(segments []Segment, maxChars int) []Chunk {
	if len(segments) == 0 {
		return nil
	}

	var chunks []Chunk
	var currentTexts []string
	var currentIndices []int
	var currentStart float64
	var currentEnd float64
	totalLen := 0

	for i, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}

		segLen := utf8.RuneCountInString(text)
		if len(currentTexts) > 0 {
			segLen++ // newline separator
		}

		if totalLen+segLen > maxChars && len(currentTexts) > 0 {
			chunks = append(chunks, Chunk{
				Text:           strings.Join(currentTexts, "\n"),
				Start:          currentStart,
				End:            currentEnd,
				SegmentIndices: append([]int(nil), currentIndices...),
			})
			currentTexts = []string{text}
			currentIndices = []int{i}
			currentStart = seg.Start
			currentEnd = seg.End
			totalLen = utf8.RuneCountInString(text)
		} else {
			if len(currentTexts) == 0 {
				currentStart = seg.Start
			}
			currentTexts = append(currentTexts, text)
			currentIndices = append(currentIndices, i)
			currentEnd = seg.End
			totalLen += segLen
		}
	}

	if len(currentTexts) > 0 {
		chunks = append(chunks, Chunk{
			Text:           strings.Join(currentTexts, "\n"),
			Start:          currentStart,
			End:            currentEnd,
			SegmentIndices: currentIndices,
		})
	}
	return chunks
}
