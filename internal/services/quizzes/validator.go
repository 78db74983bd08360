package quizzes

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/opencourselab/lecture-api/internal/models"
	"github.com/opencourselab/lecture-api/internal/services/llm"
)

// Validator independently re-derives the answer for a question and marks it
// verified when the blind pick matches the declared answer
type Validator interface {
	ValidateQuestion(ctx context.Context, question models.QuizQuestion) (models.QuizQuestion, error)
	ValidateAll(ctx context.Context, questions []models.QuizQuestion) ([]models.QuizQuestion, error)
}

type validator struct {
	llm llm.Client
}

// NewValidator creates a quiz validator backed by the given model client
func NewValidator(llmClient llm.Client) Validator {
	return &validator{
		llm: llmClient,
	}
}

// pickAnswer shows the model only the question and its five options and asks
// for a single digit. Returns (0, false) when no digit 1-5 can be parsed.
func (v *validator) pickAnswer(ctx context.Context, question string, options []string) (int, bool, error) {
	var opts strings.Builder
	for i, opt := range options {
		fmt.Fprintf(&opts, "%d. %s\n", i+1, opt)
	}

	system := "You are a quiz grader. Given a question and 5 options, decide which option number (1, 2, 3, 4 or 5) " +
		"is correct. Output exactly one digit and nothing else. Example: 3"
	user := fmt.Sprintf("Question: %s\n\nOptions:\n%s\nAnswer number (1-5):", question, opts.String())

	response, err := v.llm.Chat(ctx, system, user, llm.WithTemperature(0.0))
	if err != nil {
		return 0, false, err
	}

	for _, r := range response {
		if r >= '1' && r <= '5' {
			return int(r - '0'), true, nil
		}
	}
	log.Printf("[DEBUG] Validator could not parse an answer from %q", strings.TrimSpace(response))
	return 0, false, nil
}

// ValidateQuestion re-derives the answer blindly. verified is true only when
// a pick was parsed and it equals the declared answer.
func (v *validator) ValidateQuestion(ctx context.Context, question models.QuizQuestion) (models.QuizQuestion, error) {
	picked, ok, err := v.pickAnswer(ctx, question.Question, question.Options)
	if err != nil {
		return question, err
	}

	verified := ok && picked == question.Answer
	if !verified {
		log.Printf("[DEBUG] Question not verified: validator picked %d, declared answer %d", picked, question.Answer)
	}
	question.Verified = &verified
	return question, nil
}

// ValidateAll validates every question in order, one call per question
func (v *validator) ValidateAll(ctx context.Context, questions []models.QuizQuestion) ([]models.QuizQuestion, error) {
	validated := make([]models.QuizQuestion, 0, len(questions))
	for i, q := range questions {
		log.Printf("[DEBUG] Validating question %d/%d", i+1, len(questions))
		result, err := v.ValidateQuestion(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("validating question %d: %w", i+1, err)
		}
		validated = append(validated, result)
	}
	return validated, nil
}
