package quizzes

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencourselab/lecture-api/internal/models"
	"github.com/opencourselab/lecture-api/internal/services/llm"
	"github.com/opencourselab/lecture-api/pkg/transcript"
)

type fakeGrader struct {
	responses []string
	err       error
	calls     int
	lastUser  string
}

func (f *fakeGrader) Chat(ctx context.Context, system, user string, opts ...llm.ChatOption) (string, error) {
	f.lastUser = user
	response := ""
	if f.calls < len(f.responses) {
		response = f.responses[f.calls]
	}
	f.calls++
	return response, f.err
}

func (f *fakeGrader) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeGrader) Transcribe(ctx context.Context, audioPath string) (*transcript.Transcript, error) {
	return nil, errors.New("not implemented")
}

func testQuestion() models.QuizQuestion {
	return models.QuizQuestion{
		Question:    "Which traversal visits neighbors first?",
		Options:     []string{"DFS", "BFS", "Dijkstra", "A*", "Kruskal"},
		Answer:      2,
		Explanation: "BFS explores breadth before depth.",
	}
}

func TestValidateQuestion_Agreement(t *testing.T) {
	v := NewValidator(&fakeGrader{responses: []string{"2"}})

	result, err := v.ValidateQuestion(context.Background(), testQuestion())
	require.NoError(t, err)
	require.NotNil(t, result.Verified)
	assert.True(t, *result.Verified)
}

func TestValidateQuestion_Disagreement(t *testing.T) {
	v := NewValidator(&fakeGrader{responses: []string{"5"}})

	result, err := v.ValidateQuestion(context.Background(), testQuestion())
	require.NoError(t, err)
	require.NotNil(t, result.Verified)
	assert.False(t, *result.Verified)
}

func TestValidateQuestion_ParsesFirstDigit(t *testing.T) {
	v := NewValidator(&fakeGrader{responses: []string{"The answer is 2 because BFS."}})

	result, err := v.ValidateQuestion(context.Background(), testQuestion())
	require.NoError(t, err)
	assert.True(t, *result.Verified)
}

func TestValidateQuestion_NoPickMeansUnverified(t *testing.T) {
	v := NewValidator(&fakeGrader{responses: []string{"I cannot decide"}})

	result, err := v.ValidateQuestion(context.Background(), testQuestion())
	require.NoError(t, err)
	require.NotNil(t, result.Verified)
	assert.False(t, *result.Verified, "an unparseable pick is never verified")
}

func TestValidateQuestion_NeverSeesDeclaredAnswer(t *testing.T) {
	grader := &fakeGrader{responses: []string{"2"}}
	v := NewValidator(grader)

	_, err := v.ValidateQuestion(context.Background(), testQuestion())
	require.NoError(t, err)

	assert.NotContains(t, grader.lastUser, "explanation")
	assert.NotContains(t, grader.lastUser, "BFS explores breadth before depth.")
}

func TestValidateAll_InOrder(t *testing.T) {
	grader := &fakeGrader{responses: []string{"2", "1"}}
	v := NewValidator(grader)

	q1 := testQuestion()
	q2 := testQuestion()
	q2.Answer = 3

	results, err := v.ValidateAll(context.Background(), []models.QuizQuestion{q1, q2})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, *results[0].Verified)
	assert.False(t, *results[1].Verified)
	assert.Equal(t, 2, grader.calls)
}

func TestValidateAll_UpstreamErrorPropagates(t *testing.T) {
	v := NewValidator(&fakeGrader{err: errors.New("timeout")})

	_, err := v.ValidateAll(context.Background(), []models.QuizQuestion{testQuestion()})
	assert.Error(t, err)
}
