package api

import (
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/opencourselab/lecture-api/api/health"
	"github.com/opencourselab/lecture-api/api/lectures"
	"github.com/opencourselab/lecture-api/api/quiz"
	"github.com/opencourselab/lecture-api/api/types"
	"github.com/opencourselab/lecture-api/api/version"
	jobsService "github.com/opencourselab/lecture-api/internal/services/jobs"
	lecturesService "github.com/opencourselab/lecture-api/internal/services/lectures"
	"github.com/opencourselab/lecture-api/internal/services/llm"
	quizzesService "github.com/opencourselab/lecture-api/internal/services/quizzes"
	"github.com/opencourselab/lecture-api/internal/services/summaries"
	"github.com/opencourselab/lecture-api/pkg/config"
)

// RegisterRoutes registers all API routes
func RegisterRoutes(engine *gin.Engine, deps *types.Dependencies, rateLimiters *sync.Map, cleanupStop chan struct{}, cleanupInitialized *sync.Once) error {
	// Register public routes (no rate limiting)
	health.RegisterRoutes(engine, deps)
	version.RegisterRoutes(engine, deps)

	// Setup 404 handler
	engine.NoRoute(NotFoundHandler())

	// API v1 routes
	v1 := engine.Group("/api/v1")

	if deps == nil {
		deps = &types.Dependencies{}
	}

	if deps.LLM == nil {
		deps.LLM = llm.NewOpenAIClient(llm.Config{
			APIKey:              config.GetString("openai.api_key"),
			BaseURL:             config.GetString("openai.base_url"),
			Model:               config.GetString("openai.model"),
			EmbeddingModel:      config.GetString("openai.embedding_model"),
			EmbeddingDimensions: config.GetInt("openai.embedding_dimensions"),
			TranscribeModel:     config.GetString("openai.transcribe_model"),
			Temperature:         float32(config.GetFloat64("openai.temperature")),
			RequestTimeout:      config.GetDuration("openai.request_timeout"),
		})
	}
	if deps.UploadDir == "" {
		deps.UploadDir = config.GetString("storage.upload_dir")
	}

	// Initialize services if database is available
	if deps.DB != nil && deps.DB.DB != nil {
		initializeLectureServices(deps)

		// Register ingestion/storage routes with general rate limiting
		// (10 req/s, burst of 20)
		lectureGroup := v1.Group("/lectures")
		lectureGroup.Use(PerClientRateLimit(rateLimiters, cleanupStop, cleanupInitialized, 10, 20))
		lectures.RegisterRoutes(lectureGroup, deps)

		// Quiz generation spends several model calls per request, so it gets a
		// tighter limit (2 req/s, burst of 5)
		quizGroup := v1.Group("/quiz")
		quizGroup.Use(PerClientRateLimit(rateLimiters, cleanupStop, cleanupInitialized, 2, 5))
		quiz.RegisterRoutes(quizGroup, deps)
	}

	return nil
}

// initializeLectureServices wires the job, lecture and quiz services over the
// shared database and model client
func initializeLectureServices(deps *types.Dependencies) {
	maxSummaryChars := config.GetInt("summary.max_transcript_chars")
	if maxSummaryChars <= 0 {
		maxSummaryChars = 12000
	}
	summaryService := summaries.NewService(deps.LLM, maxSummaryChars)

	if deps.JobService == nil {
		deps.JobService = jobsService.NewService(jobsService.NewRepository(deps.DB.DB))
	}

	lectureRepo := lecturesService.NewRepository(deps.DB.DB)
	if deps.LectureService == nil {
		deps.LectureService = lecturesService.NewService(lectureRepo, deps.LLM, summaryService)
	}

	if deps.QuizService == nil {
		deps.QuizService = quizzesService.NewService(
			quizzesService.NewRepository(deps.DB.DB),
			lectureRepo,
			deps.LLM,
			summaryService,
			quizzesService.NewValidator(deps.LLM),
		)
	}
}

// NotFoundHandler handles 404 errors
func NotFoundHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(404, gin.H{
			"status":  "error",
			"message": "The requested endpoint was not found",
			"path":    c.Request.URL.Path,
		})
	}
}
