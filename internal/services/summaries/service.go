package summaries

import (
	"context"
	"strings"

	"github.com/opencourselab/lecture-api/internal/services/llm"
	"github.com/opencourselab/lecture-api/pkg/transcript"
)

// Options carries the optional titling context for one summarize call
type Options struct {
	MaxTranscriptChars int
	CourseTitle        string
	SectionTitle       string
	LectureTitle       string
}

// Service turns a lecture transcript into a short abstractive summary
type Service interface {
	Summarize(ctx context.Context, content *transcript.Transcript, opts Options) (string, error)
}

type service struct {
	llm                llm.Client
	maxTranscriptChars int
}

// NewService creates a summary service. defaultMaxChars bounds the transcript
// sent to the model when a call does not override it.
func NewService(llmClient llm.Client, defaultMaxChars int) Service {
	return &service{
		llm:                llmClient,
		maxTranscriptChars: defaultMaxChars,
	}
}

// Summarize flattens the transcript into speaker-prefixed lines and asks the
// model for a 2-4 sentence summary. A blank transcript returns "" without a
// model call.
func (s *service) Summarize(ctx context.Context, content *transcript.Transcript, opts Options) (string, error) {
	limit := opts.MaxTranscriptChars
	if limit <= 0 {
		limit = s.maxTranscriptChars
	}

	flattened := content.Flatten(limit)
	if strings.TrimSpace(flattened) == "" {
		return "", nil
	}

	system := "You are an expert at reading lecture or presentation transcripts and writing short summaries. " +
		"Summarize the key points concisely in 2-4 sentences. Output only the summary, no other commentary."

	var titleLines []string
	if title := strings.TrimSpace(opts.CourseTitle); title != "" {
		titleLines = append(titleLines, "Course: "+title)
	}
	if title := strings.TrimSpace(opts.SectionTitle); title != "" {
		titleLines = append(titleLines, "Section: "+title)
	}
	if title := strings.TrimSpace(opts.LectureTitle); title != "" {
		titleLines = append(titleLines, "Lecture: "+title)
	}

	var sb strings.Builder
	if len(titleLines) > 0 {
		sb.WriteString(strings.Join(titleLines, "\n"))
		sb.WriteString("\n\n")
	}
	sb.WriteString("Summarize the transcript below.\n\nTranscript:\n")
	sb.WriteString(flattened)

	response, err := s.llm.Chat(ctx, system, sb.String())
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(response), nil
}
