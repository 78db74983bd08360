package quizzes

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/opencourselab/lecture-api/internal/models"
	"github.com/opencourselab/lecture-api/internal/services/lectures"
	"github.com/opencourselab/lecture-api/internal/services/llm"
	"github.com/opencourselab/lecture-api/internal/services/summaries"
	apperrors "github.com/opencourselab/lecture-api/pkg/errors"
	"github.com/opencourselab/lecture-api/pkg/transcript"
)

const (
	// transcriptExcerptChars bounds the transcript slice included in the
	// generation prompt
	transcriptExcerptChars = 8000

	// noContextSentinel stands in for the prior-summaries block when no prior
	// lecture contributes context
	noContextSentinel = "(none)"

	contextSeparator = "\n\n---\n\n"
)

// GenerateOptions selects the question count and context mode for one run.
// UseSemanticPrevious and MaxContextLectures are mutually exclusive modes;
// when neither is set all prior lectures of the course provide context.
type GenerateOptions struct {
	NumQuestions        int
	UseSemanticPrevious bool
	SemanticLimit       int
	MaxContextLectures  int
}

// Result is one quiz generation run's output
type Result struct {
	Questions []models.QuizQuestion `json:"questions"`
}

// Service generates grounded quizzes for stored lectures
type Service interface {
	Generate(ctx context.Context, courseID, lectureID, userID string, opts GenerateOptions) (*Result, error)
	GenerateValidated(ctx context.Context, courseID, lectureID, userID string, opts GenerateOptions) (*Result, error)
	SaveResult(ctx context.Context, courseID, lectureID string, result *Result) (*models.LectureQuiz, error)
}

type service struct {
	repo      Repository
	lectures  lectures.Repository
	llm       llm.Client
	summaries summaries.Service
	validator Validator
}

// NewService creates a quiz generation service
func NewService(repo Repository, lectureRepo lectures.Repository, llmClient llm.Client, summaryService summaries.Service, v Validator) Service {
	return &service{
		repo:      repo,
		lectures:  lectureRepo,
		llm:       llmClient,
		summaries: summaryService,
		validator: v,
	}
}

// Generate builds a grounded prompt from the stored lecture plus selected
// prior context and requests the questions in one JSON-mode call. A malformed
// response is not retried here.
func (s *service) Generate(ctx context.Context, courseID, lectureID, userID string, opts GenerateOptions) (*Result, error) {
	current, err := s.lectures.GetLecture(ctx, courseID, lectureID, userID)
	if err != nil {
		if err == lectures.ErrLectureNotFound {
			return nil, apperrors.NotFound("lecture", fmt.Sprintf("%s/%s/%s", courseID, lectureID, userID))
		}
		return nil, err
	}

	currentSummary := strings.TrimSpace(current.Summary)
	content, err := decodeContent(current.Content)
	if err != nil {
		return nil, err
	}
	if currentSummary == "" {
		log.Printf("[DEBUG] Lecture %s/%s has no stored summary, generating one for this run", courseID, lectureID)
		currentSummary, err = s.summaries.Summarize(ctx, content, summaries.Options{})
		if err != nil {
			return nil, fmt.Errorf("summarizing for quiz: %w", err)
		}
	}

	previousSummaries, err := s.selectContext(ctx, current, currentSummary, opts)
	if err != nil {
		return nil, err
	}

	previousContext := noContextSentinel
	if len(previousSummaries) > 0 {
		previousContext = strings.Join(previousSummaries, contextSeparator)
	}

	excerpt := content.FlattenText(transcriptExcerptChars)

	system := `You are an expert at writing study quizzes from lecture summaries and transcripts.
- Base every question strictly on the CURRENT lecture's summary/transcript.
- Prior lecture summaries are context only; never quiz on earlier or later lectures.
- Every question must have exactly one question text, 5 options (numbered 1-5), one answer (1-5) and an explanation.
- Return only the JSON format below, no other text.`

	user := fmt.Sprintf(`[Prior lecture summaries - context only]
%s

[Current lecture summary]
%s

[Current lecture transcript excerpt - quiz source]
%s

Write %d multiple-choice questions based only on the CURRENT lecture above.
Each question: question, options (5 strings, option 1 through 5 in order), answer (correct option number 1-5), explanation.
Output JSON only.

Format:
{"questions": [{"question": "...", "options": ["option 1", "option 2", "option 3", "option 4", "option 5"], "answer": 1, "explanation": "..."}, ...]}`,
		previousContext, currentSummary, excerpt, opts.NumQuestions)

	log.Printf("[DEBUG] Generating %d quiz questions for %s/%s", opts.NumQuestions, courseID, lectureID)
	response, err := s.llm.Chat(ctx, system, user, llm.WithJSONMode())
	if err != nil {
		return nil, err
	}

	var result Result
	if err := json.Unmarshal([]byte(response), &result); err != nil {
		return nil, apperrors.SchemaViolationError("quiz response is not valid JSON", err)
	}
	for i := range result.Questions {
		if err := result.Questions[i].Validate(); err != nil {
			return nil, apperrors.SchemaViolationError(fmt.Sprintf("question %d invalid", i+1), err)
		}
	}

	log.Printf("[DEBUG] Received %d questions", len(result.Questions))
	return &result, nil
}

// selectContext picks the prior-summary set under exactly one of the three
// modes: semantic, bounded-prefix or all-prior
func (s *service) selectContext(ctx context.Context, current *models.LectureSummaryEmbedding, currentSummary string, opts GenerateOptions) ([]string, error) {
	if opts.UseSemanticPrevious {
		queryEmbedding, err := s.queryVector(ctx, current, currentSummary)
		if err != nil {
			return nil, err
		}
		similar, err := s.lectures.GetSimilarSummaries(ctx, current.CourseID, current.UserID, queryEmbedding, opts.SemanticLimit, current.LectureID)
		if err != nil {
			return nil, err
		}
		result := make([]string, 0, len(similar))
		for _, hit := range similar {
			result = append(result, hit.Summary)
		}
		log.Printf("[DEBUG] Semantic context: %d similar prior summaries", len(result))
		return result, nil
	}

	if opts.MaxContextLectures > 0 {
		result, err := s.lectures.GetSummariesFromFirstN(ctx, current.CourseID, current.UserID, opts.MaxContextLectures, current.ID)
		if err != nil {
			return nil, err
		}
		log.Printf("[DEBUG] Bounded-prefix context: %d summaries from the first %d lectures", len(result), opts.MaxContextLectures)
		return result, nil
	}

	result, err := s.lectures.GetPreviousSummaries(ctx, current.CourseID, current.UserID, current.ID)
	if err != nil {
		return nil, err
	}
	log.Printf("[DEBUG] All-prior context: %d summaries", len(result))
	return result, nil
}

// queryVector reuses the stored embedding when present; otherwise it spends
// one extra model call embedding the current summary
func (s *service) queryVector(ctx context.Context, current *models.LectureSummaryEmbedding, currentSummary string) ([]float32, error) {
	if current.Embedding != nil {
		return current.Embedding.Slice(), nil
	}
	return s.llm.Embed(ctx, currentSummary)
}

// GenerateValidated composes Generate with the per-question validator
func (s *service) GenerateValidated(ctx context.Context, courseID, lectureID, userID string, opts GenerateOptions) (*Result, error) {
	result, err := s.Generate(ctx, courseID, lectureID, userID, opts)
	if err != nil {
		return nil, err
	}

	validated, err := s.validator.ValidateAll(ctx, result.Questions)
	if err != nil {
		return nil, err
	}
	return &Result{Questions: validated}, nil
}

// SaveResult persists the run as a new quiz row
func (s *service) SaveResult(ctx context.Context, courseID, lectureID string, result *Result) (*models.LectureQuiz, error) {
	row, err := s.repo.Insert(ctx, courseID, lectureID, result.Questions)
	if err != nil {
		return nil, err
	}
	log.Printf("[DEBUG] Saved quiz for %s/%s with %d questions", courseID, lectureID, len(result.Questions))
	return row, nil
}

func decodeContent(raw []byte) (*transcript.Transcript, error) {
	var content transcript.Transcript
	if len(raw) == 0 {
		return &content, nil
	}
	if err := json.Unmarshal(raw, &content); err != nil {
		return nil, fmt.Errorf("decoding stored transcript: %w", err)
	}
	return &content, nil
}
