package lectures

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/opencourselab/lecture-api/api/types"
	"github.com/opencourselab/lecture-api/internal/models"
	lectureService "github.com/opencourselab/lecture-api/internal/services/lectures"
	"github.com/opencourselab/lecture-api/pkg/transcript"
)

// Upload accepts a multipart audio upload and enqueues an audio ingestion job.
// The file is stored under the configured upload directory with a generated
// name; the job payload references it by path.
func Upload(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		courseID := strings.TrimSpace(c.PostForm("courseId"))
		lectureID := strings.TrimSpace(c.PostForm("lectureId"))
		userID := strings.TrimSpace(c.PostForm("userId"))

		file, err := c.FormFile("file")
		if err != nil {
			types.SendBadRequest(c, "file is required")
			return
		}

		if err := os.MkdirAll(deps.UploadDir, 0o755); err != nil {
			types.SendInternalError(c, "Failed to prepare upload directory")
			return
		}

		ext := filepath.Ext(file.Filename)
		if ext == "" {
			ext = ".bin"
		}
		storedPath := filepath.Join(deps.UploadDir, strings.ReplaceAll(uuid.New().String(), "-", "")+ext)
		if err := c.SaveUploadedFile(file, storedPath); err != nil {
			types.SendInternalError(c, "Failed to store uploaded file")
			return
		}

		payload := models.JobPayload{"audio_path": storedPath}
		if hint := strings.TrimSpace(c.PostForm("conceptHint")); hint != "" {
			payload["concept_hint"] = hint
		}
		if title := strings.TrimSpace(c.PostForm("lectureTitle")); title != "" {
			payload["lecture_title"] = title
		}

		job, err := deps.JobService.EnqueueJob(c.Request.Context(), courseID, lectureID, userID, models.JobTypeAudio, payload)
		if err != nil {
			types.SendError(c, err)
			return
		}

		c.JSON(http.StatusAccepted, types.EnqueueResponse{
			JobID:   job.ID,
			Message: "Ingestion job enqueued. Run worker to process.",
		})
	}
}

// EnqueueTranscript enqueues a transcript ingestion job from JSON
func EnqueueTranscript(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req types.EnqueueTranscriptRequest
		if !types.BindJSONOrError(c, &req) {
			return
		}

		content := req.Transcript
		if content == nil {
			content = req.Content
		}
		if content == nil {
			types.SendBadRequest(c, "transcript or content required")
			return
		}

		payload := models.JobPayload{"transcript": content}
		if hint := strings.TrimSpace(req.ConceptHint); hint != "" {
			payload["concept_hint"] = hint
		}
		if title := strings.TrimSpace(req.LectureTitle); title != "" {
			payload["lecture_title"] = title
		}

		job, err := deps.JobService.EnqueueJob(c.Request.Context(), req.CourseID, req.LectureID, req.UserID, models.JobTypeTranscript, payload)
		if err != nil {
			types.SendError(c, err)
			return
		}

		c.JSON(http.StatusAccepted, types.EnqueueResponse{
			JobID:   job.ID,
			Message: "Ingestion job enqueued.",
		})
	}
}

// GetJobStatus reports the lifecycle state of one ingestion job
func GetJobStatus(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		jobID, ok := types.ParseUintParam(c, "id")
		if !ok {
			return
		}

		job, err := deps.JobService.GetJob(c.Request.Context(), jobID)
		if err != nil {
			types.SendNotFound(c, "Job not found")
			return
		}

		c.JSON(http.StatusOK, types.JobStatusResponse{
			JobID:        job.ID,
			Status:       string(job.Status),
			ErrorMessage: job.ErrorMessage,
		})
	}
}

// SummarizeAndStore stores the canonical summary record for a lecture,
// generating the summary when the request does not carry one
func SummarizeAndStore(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req types.SummarizeAndStoreRequest
		if !types.BindJSONOrError(c, &req) {
			return
		}

		content, err := decodeTranscript(req.Content)
		if err != nil {
			types.SendBadRequest(c, "content must be a transcript object with segments")
			return
		}

		summary, err := deps.LectureService.Store(c.Request.Context(), lectureService.StoreParams{
			CourseID:     req.CourseID,
			LectureID:    req.LectureID,
			UserID:       req.UserID,
			Content:      content,
			Summary:      req.Summary,
			CourseTitle:  req.CourseTitle,
			SectionTitle: req.SectionTitle,
			LectureTitle: req.LectureTitle,
		})
		if err != nil {
			types.SendError(c, err)
			return
		}

		c.JSON(http.StatusOK, types.SummarizeResponse{
			Summary: summary,
			Message: "Lecture stored.",
		})
	}
}

func decodeTranscript(raw map[string]interface{}) (*transcript.Transcript, error) {
	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var content transcript.Transcript
	if err := json.Unmarshal(encoded, &content); err != nil {
		return nil, err
	}
	return &content, nil
}
