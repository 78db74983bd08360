// Package quiz generates a quiz directly from a supplied transcript, without
// requiring a stored lecture. This is the CLI-facing path; the per-lecture
// path with prior-summary context lives in internal/services/quizzes.
package quiz

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/opencourselab/lecture-api/internal/services/llm"
	apperrors "github.com/opencourselab/lecture-api/pkg/errors"
	"github.com/opencourselab/lecture-api/pkg/transcript"
)

// QuestionType enumerates the question shapes the generator can request
type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	TrueFalse      QuestionType = "true_false"
	ShortAnswer    QuestionType = "short_answer"
)

// ValidQuestionType reports whether t is one of the known question types
func ValidQuestionType(t QuestionType) bool {
	switch t {
	case MultipleChoice, TrueFalse, ShortAnswer:
		return true
	}
	return false
}

// Request describes one generation run over a transcript
type Request struct {
	Segments      []transcript.Segment
	NumQuestions  int
	QuestionTypes []QuestionType
	Language      string
	Difficulty    string

	// MaxTranscriptChars bounds the formatted transcript sent to the model.
	// 0 means no limit.
	MaxTranscriptChars int
}

func (r Request) withDefaults() Request {
	if r.NumQuestions <= 0 {
		r.NumQuestions = 5
	}
	if len(r.QuestionTypes) == 0 {
		r.QuestionTypes = []QuestionType{MultipleChoice}
	}
	if r.Language == "" {
		r.Language = "ko"
	}
	if r.Difficulty == "" {
		r.Difficulty = "medium"
	}
	return r
}

// Question is one generated quiz item. Options is nil for short_answer and,
// before normalization, possibly for true_false. Start and End reference the
// transcript span the question is grounded on.
type Question struct {
	ID          string       `json:"id"`
	Type        QuestionType `json:"type"`
	Question    string       `json:"question"`
	Options     []string     `json:"options"`
	Answer      string       `json:"answer"`
	Explanation string       `json:"explanation"`
	Start       float64      `json:"start"`
	End         float64      `json:"end"`
}

// draft is the shape the model is asked to return
type draft struct {
	Title     string     `json:"title"`
	Language  string     `json:"language"`
	Questions []Question `json:"questions"`
}

// Source describes the transcript the quiz was generated from
type Source struct {
	SegmentCount int     `json:"segment_count"`
	Start        float64 `json:"start"`
	End          float64 `json:"end"`
	Truncated    bool    `json:"truncated"`
}

// Result is the generated quiz plus its source block
type Result struct {
	Title     string     `json:"title"`
	Language  string     `json:"language"`
	Questions []Question `json:"questions"`
	Source    Source     `json:"source"`
}

// ChatClient is the model-call subset the generator needs
type ChatClient interface {
	Chat(ctx context.Context, system, user string, opts ...llm.ChatOption) (string, error)
}

// Generator turns a transcript into a quiz with one model call, plus at most
// one repair retry when the first response fails schema validation.
type Generator struct {
	llm ChatClient
}

// NewGenerator creates a transcript-driven quiz generator
func NewGenerator(client ChatClient) *Generator {
	return &Generator{llm: client}
}

// Generate runs the full pass: format the transcript, ask the model, repair
// once if the JSON does not validate, then normalize the questions.
func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	req = req.withDefaults()

	formatted, truncated := FormatSegments(req.Segments, req.MaxTranscriptChars)
	systemPrompt, userPrompt := buildPrompt(req, formatted)

	content, err := g.llm.Chat(ctx, systemPrompt, userPrompt, llm.WithJSONMode())
	if err != nil {
		return nil, apperrors.UpstreamError("quiz generation", err)
	}

	parsed, parseErr := parseDraft(content)
	if parseErr != nil {
		log.Printf("[DEBUG] Quiz draft failed validation, retrying with repair prompt: %v", parseErr)
		repairPrompt := buildRepairPrompt(req, content, parseErr.Error())
		content, err = g.llm.Chat(ctx, systemPrompt, repairPrompt, llm.WithJSONMode())
		if err != nil {
			return nil, apperrors.UpstreamError("quiz repair", err)
		}
		parsed, parseErr = parseDraft(content)
		if parseErr != nil {
			return nil, apperrors.SchemaViolationError("quiz draft failed validation after repair", parseErr)
		}
	}

	return &Result{
		Title:     parsed.Title,
		Language:  parsed.Language,
		Questions: normalizeQuestions(parsed.Questions, req),
		Source:    buildSource(req.Segments, truncated),
	}, nil
}

// FormatTimestamp renders seconds as MM:SS.ss, with an hour part only when
// the value reaches a full hour. Negative inputs clamp to zero.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	hours := int(seconds) / 3600
	minutes := (int(seconds) % 3600) / 60
	secs := seconds - float64(hours*3600+minutes*60)
	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%05.2f", hours, minutes, secs)
	}
	return fmt.Sprintf("%02d:%05.2f", minutes, secs)
}

// FormatSegments renders the numbered, timestamped transcript block sent to
// the model and reports whether it was cut at maxChars.
func FormatSegments(segments []transcript.Segment, maxChars int) (string, bool) {
	lines := make([]string, 0, len(segments))
	for idx, seg := range segments {
		speaker := ""
		if seg.Speaker != "" {
			speaker = "[" + seg.Speaker + "]"
		}
		line := fmt.Sprintf("%04d %s-%s %s %s",
			idx+1, FormatTimestamp(seg.Start), FormatTimestamp(seg.End), speaker, seg.Text)
		lines = append(lines, strings.TrimSpace(line))
	}
	joined := strings.Join(lines, "\n")

	if maxChars > 0 && utf8.RuneCountInString(joined) > maxChars {
		return transcript.TruncateChars(joined, maxChars), true
	}
	return joined, false
}

func questionTypeList(types []QuestionType) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

func buildPrompt(req Request, formatted string) (string, string) {
	systemPrompt := "너는 한국어 강의 전사를 읽고 학습용 퀴즈를 만드는 전문가다. " +
		"외부 지식에 의존하지 말고 제공된 전사 내용만 사용한다."

	userPrompt := fmt.Sprintf(`아래 전사를 기반으로 퀴즈를 만들어줘.

요청 조건:
- 질문 수: %d
- 질문 유형: %s
- 난이도: %s
- 언어: %s
- 질문은 전사 내용에만 근거해야 함
- 각 질문에는 근거가 되는 시간 구간(start/end)을 포함

출력은 JSON만 반환해. 다른 텍스트는 절대 포함하지 마.

JSON 형식:
{
  "title": "string",
  "language": "%s",
  "questions": [
    {
      "id": "q1",
      "type": "multiple_choice | true_false | short_answer",
      "question": "string",
      "options": ["string", "string", "string", "string"] | null,
      "answer": "string",
      "explanation": "string",
      "start": 0.0,
      "end": 0.0
    }
  ]
}

규칙:
- multiple_choice: options는 4개 필수
- true_false, short_answer: options는 null로 설정

전사:
%s`, req.NumQuestions, questionTypeList(req.QuestionTypes), req.Difficulty, req.Language, req.Language, formatted)

	return systemPrompt, userPrompt
}

func buildRepairPrompt(req Request, badJSON, validationErr string) string {
	return fmt.Sprintf(`다음 JSON이 스키마 검증에 실패했어. 에러 메시지를 참고해서 JSON만 수정해 줘.

에러:
%s

원본 JSON:
%s

요청 조건:
- 질문 수: %d
- 질문 유형: %s
- 난이도: %s
- 언어: %s
- JSON만 출력`, validationErr, badJSON, req.NumQuestions, questionTypeList(req.QuestionTypes), req.Difficulty, req.Language)
}

// parseDraft decodes and structurally validates one model response
func parseDraft(content string) (*draft, error) {
	var d draft
	if err := json.Unmarshal([]byte(content), &d); err != nil {
		return nil, fmt.Errorf("decoding quiz JSON: %w", err)
	}
	for i, q := range d.Questions {
		if !ValidQuestionType(q.Type) {
			return nil, fmt.Errorf("question %d: unknown type %q", i+1, q.Type)
		}
		if strings.TrimSpace(q.Question) == "" {
			return nil, fmt.Errorf("question %d: question text is empty", i+1)
		}
		if q.Start < 0 || q.End < 0 {
			return nil, fmt.Errorf("question %d: negative timestamp", i+1)
		}
	}
	return &d, nil
}

// normalizeQuestions truncates to the requested count, fills in missing ids
// and true/false options, and clamps the time span.
func normalizeQuestions(questions []Question, req Request) []Question {
	if len(questions) > req.NumQuestions {
		questions = questions[:req.NumQuestions]
	}

	normalized := make([]Question, 0, len(questions))
	for idx, q := range questions {
		if strings.TrimSpace(q.ID) == "" {
			q.ID = fmt.Sprintf("q%d", idx+1)
		} else {
			q.ID = strings.TrimSpace(q.ID)
		}

		if q.Type == TrueFalse && len(q.Options) == 0 {
			if strings.HasPrefix(req.Language, "ko") {
				q.Options = []string{"참", "거짓"}
			} else {
				q.Options = []string{"True", "False"}
			}
		}

		if q.Start < 0 {
			q.Start = 0
		}
		if q.End < q.Start {
			q.End = q.Start
		}

		normalized = append(normalized, q)
	}
	return normalized
}

func buildSource(segments []transcript.Segment, truncated bool) Source {
	if len(segments) == 0 {
		return Source{Truncated: truncated}
	}

	start := segments[0].Start
	end := segments[0].End
	for _, seg := range segments[1:] {
		if seg.Start < start {
			start = seg.Start
		}
		if seg.End > end {
			end = seg.End
		}
	}
	return Source{
		SegmentCount: len(segments),
		Start:        start,
		End:          end,
		Truncated:    truncated,
	}
}
