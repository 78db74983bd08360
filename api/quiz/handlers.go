package quiz

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/opencourselab/lecture-api/api/types"
	"github.com/opencourselab/lecture-api/internal/services/quizzes"
)

// Generate creates a quiz for a stored lecture. Validation runs by default;
// the result is persisted only when the request asks for it.
func Generate(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req types.QuizGenerateRequest
		if !types.BindJSONOrError(c, &req) {
			return
		}
		req.ApplyDefaults()
		if err := req.CheckBounds(); err != nil {
			types.SendBadRequest(c, err.Error())
			return
		}

		opts := quizzes.GenerateOptions{
			NumQuestions:        req.NumQuestions,
			UseSemanticPrevious: req.UseSemanticPrevious,
			SemanticLimit:       req.SemanticLimit,
		}
		if req.MaxContextLectures != nil {
			opts.MaxContextLectures = *req.MaxContextLectures
		}

		var result *quizzes.Result
		var err error
		if *req.Validate {
			result, err = deps.QuizService.GenerateValidated(c.Request.Context(), req.CourseID, req.LectureID, req.UserID, opts)
		} else {
			result, err = deps.QuizService.Generate(c.Request.Context(), req.CourseID, req.LectureID, req.UserID, opts)
		}
		if err != nil {
			types.SendError(c, err)
			return
		}

		saved := false
		if req.Save {
			if _, err := deps.QuizService.SaveResult(c.Request.Context(), req.CourseID, req.LectureID, result); err != nil {
				types.SendError(c, err)
				return
			}
			saved = true
		}

		questions := make([]types.QuizQuestionOut, 0, len(result.Questions))
		for _, q := range result.Questions {
			questions = append(questions, types.QuizQuestionOut{
				Question:    q.Question,
				Options:     q.Options,
				Answer:      q.Answer,
				Explanation: q.Explanation,
				Verified:    q.Verified,
			})
		}

		c.JSON(http.StatusOK, types.QuizGenerateResponse{
			Questions: questions,
			Saved:     saved,
		})
	}
}
