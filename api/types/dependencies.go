package types

import (
	"github.com/opencourselab/lecture-api/internal/database"
	"github.com/opencourselab/lecture-api/internal/services/jobs"
	"github.com/opencourselab/lecture-api/internal/services/lectures"
	"github.com/opencourselab/lecture-api/internal/services/llm"
	"github.com/opencourselab/lecture-api/internal/services/quizzes"
)

// Dependencies holds all the dependencies needed by handlers
type Dependencies struct {
	DB             *database.DB
	JobService     jobs.Service
	LectureService lectures.Service
	QuizService    quizzes.Service
	LLM            llm.Client

	// UploadDir is where multipart audio uploads are written before a job
	// references them by path
	UploadDir string
}
