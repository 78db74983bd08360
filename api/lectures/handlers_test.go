package lectures

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencourselab/lecture-api/api/types"
	"github.com/opencourselab/lecture-api/internal/models"
	lectureService "github.com/opencourselab/lecture-api/internal/services/lectures"
	apperrors "github.com/opencourselab/lecture-api/pkg/errors"
)

type fakeJobService struct {
	enqueued *models.IngestionJob
	jobs     map[uint]*models.IngestionJob
}

func (f *fakeJobService) EnqueueJob(ctx context.Context, courseID, lectureID, userID string, jobType models.JobType, payload models.JobPayload) (*models.IngestionJob, error) {
	if courseID == "" {
		return nil, apperrors.MissingFieldError("courseId")
	}
	job := &models.IngestionJob{
		CourseID:  courseID,
		LectureID: lectureID,
		UserID:    userID,
		JobType:   jobType,
		Payload:   payload,
		Status:    models.JobStatusPending,
	}
	job.ID = 7
	f.enqueued = job
	return job, nil
}

func (f *fakeJobService) GetJob(ctx context.Context, jobID uint) (*models.IngestionJob, error) {
	job, ok := f.jobs[jobID]
	if !ok {
		return nil, apperrors.NotFound("job", jobID)
	}
	return job, nil
}

func (f *fakeJobService) ClaimNextJob(ctx context.Context) (*models.IngestionJob, error) {
	return nil, nil
}

func (f *fakeJobService) CompleteJob(ctx context.Context, jobID uint) error { return nil }

func (f *fakeJobService) FailJob(ctx context.Context, jobID uint, jobErr error) error { return nil }

type fakeLectureService struct {
	params  lectureService.StoreParams
	summary string
	err     error
}

func (f *fakeLectureService) Store(ctx context.Context, params lectureService.StoreParams) (string, error) {
	f.params = params
	return f.summary, f.err
}

func (f *fakeLectureService) GetLecture(ctx context.Context, courseID, lectureID, userID string) (*models.LectureSummaryEmbedding, error) {
	return nil, lectureService.ErrLectureNotFound
}

func setupRouter(deps *types.Dependencies) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	RegisterRoutes(router.Group("/lectures"), deps)
	return router
}

func multipartUpload(t *testing.T, fields map[string]string, fileName string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	if fileName != "" {
		part, err := writer.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = part.Write([]byte("fake audio bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func TestUpload(t *testing.T) {
	jobSvc := &fakeJobService{}
	deps := &types.Dependencies{JobService: jobSvc, UploadDir: t.TempDir()}
	router := setupRouter(deps)

	body, contentType := multipartUpload(t, map[string]string{
		"courseId":    "course-1",
		"lectureId":   "lecture-1",
		"userId":      "user-1",
		"conceptHint": "  Dynamic Programming  ",
	}, "lecture.mp3")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/lectures/upload", body)
	req.Header.Set("Content-Type", contentType)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	var response types.EnqueueResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, uint(7), response.JobID)

	require.NotNil(t, jobSvc.enqueued)
	assert.Equal(t, models.JobTypeAudio, jobSvc.enqueued.JobType)

	audioPath, ok := jobSvc.enqueued.GetPayloadString("audio_path")
	require.True(t, ok)
	assert.True(t, strings.HasSuffix(audioPath, ".mp3"))
	_, err := os.Stat(audioPath)
	assert.NoError(t, err, "uploaded file is written to disk")

	hint, _ := jobSvc.enqueued.GetPayloadString("concept_hint")
	assert.Equal(t, "Dynamic Programming", hint)
}

func TestUpload_MissingFile(t *testing.T) {
	deps := &types.Dependencies{JobService: &fakeJobService{}, UploadDir: t.TempDir()}
	router := setupRouter(deps)

	body, contentType := multipartUpload(t, map[string]string{
		"courseId":  "course-1",
		"lectureId": "lecture-1",
		"userId":    "user-1",
	}, "")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/lectures/upload", body)
	req.Header.Set("Content-Type", contentType)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEnqueueTranscript(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantKey    string
	}{
		{
			name:       "transcript field",
			body:       `{"courseId": "c1", "lectureId": "l1", "userId": "u1", "transcript": {"segments": []}}`,
			wantStatus: http.StatusAccepted,
			wantKey:    "transcript",
		},
		{
			name:       "content field accepted as alias",
			body:       `{"courseId": "c1", "lectureId": "l1", "userId": "u1", "content": {"segments": []}}`,
			wantStatus: http.StatusAccepted,
			wantKey:    "transcript",
		},
		{
			name:       "both missing",
			body:       `{"courseId": "c1", "lectureId": "l1", "userId": "u1"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing required field",
			body:       `{"lectureId": "l1", "userId": "u1", "transcript": {"segments": []}}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jobSvc := &fakeJobService{}
			router := setupRouter(&types.Dependencies{JobService: jobSvc})

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/lectures/ingestion/enqueue", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.wantStatus == http.StatusAccepted {
				require.NotNil(t, jobSvc.enqueued)
				assert.Equal(t, models.JobTypeTranscript, jobSvc.enqueued.JobType)
				_, ok := jobSvc.enqueued.GetPayloadValue(tt.wantKey)
				assert.True(t, ok)
			}
		})
	}
}

func TestGetJobStatus(t *testing.T) {
	job := &models.IngestionJob{
		Status:       models.JobStatusFailed,
		ErrorMessage: "audio file not found",
	}
	job.ID = 42
	jobSvc := &fakeJobService{jobs: map[uint]*models.IngestionJob{42: job}}
	router := setupRouter(&types.Dependencies{JobService: jobSvc})

	t.Run("found", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/lectures/ingestion/jobs/42", nil)
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var response types.JobStatusResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, uint(42), response.JobID)
		assert.Equal(t, "failed", response.Status)
		assert.Equal(t, "audio file not found", response.ErrorMessage)
	})

	t.Run("unknown job", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/lectures/ingestion/jobs/99", nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/lectures/ingestion/jobs/abc", nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSummarizeAndStore(t *testing.T) {
	lectureSvc := &fakeLectureService{summary: "A lecture on BFS."}
	router := setupRouter(&types.Dependencies{LectureService: lectureSvc})

	body := `{
		"courseId": "c1", "lectureId": "l1", "userId": "u1",
		"content": {"segments": [{"text": "BFS uses a queue.", "start": 0, "end": 3}]},
		"lectureTitle": "Lecture 4"
	}`

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/lectures/summarize-and-store", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var response types.SummarizeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "A lecture on BFS.", response.Summary)

	assert.Equal(t, "c1", lectureSvc.params.CourseID)
	assert.Equal(t, "Lecture 4", lectureSvc.params.LectureTitle)
	require.NotNil(t, lectureSvc.params.Content)
	require.Len(t, lectureSvc.params.Content.Segments, 1)
	assert.Equal(t, "BFS uses a queue.", lectureSvc.params.Content.Segments[0].Text)
}

func TestSummarizeAndStore_UpstreamError(t *testing.T) {
	lectureSvc := &fakeLectureService{err: apperrors.UpstreamError("summarization", assert.AnError)}
	router := setupRouter(&types.Dependencies{LectureService: lectureSvc})

	body := `{"courseId": "c1", "lectureId": "l1", "userId": "u1", "content": {"segments": []}}`

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/lectures/summarize-and-store", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}
