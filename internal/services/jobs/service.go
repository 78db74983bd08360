package jobs

import (
	"context"
	"fmt"
	"log"

	"github.com/opencourselab/lecture-api/internal/models"
	apperrors "github.com/opencourselab/lecture-api/pkg/errors"
)

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{
		repo: repo,
	}
}

func (s *service) EnqueueJob(ctx context.Context, courseID, lectureID, userID string, jobType models.JobType, payload models.JobPayload) (*models.IngestionJob, error) {
	if courseID == "" {
		return nil, apperrors.MissingFieldError("courseId")
	}
	if lectureID == "" {
		return nil, apperrors.MissingFieldError("lectureId")
	}
	if userID == "" {
		return nil, apperrors.MissingFieldError("userId")
	}
	if !models.ValidJobType(jobType) {
		return nil, apperrors.Newf(apperrors.ErrCodeInvalidInput, "unsupported job type: %s", jobType)
	}

	job := &models.IngestionJob{
		CourseID:  courseID,
		LectureID: lectureID,
		UserID:    userID,
		JobType:   jobType,
		Payload:   payload,
		Status:    models.JobStatusPending,
	}

	if err := s.repo.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("creating job: %w", err)
	}

	log.Printf("[DEBUG] Enqueued %s job ID %d for lecture %s/%s", jobType, job.ID, courseID, lectureID)

	return job, nil
}

func (s *service) GetJob(ctx context.Context, jobID uint) (*models.IngestionJob, error) {
	return s.repo.GetJob(ctx, jobID)
}

func (s *service) ClaimNextJob(ctx context.Context) (*models.IngestionJob, error) {
	return s.repo.ClaimNextPending(ctx)
}

func (s *service) CompleteJob(ctx context.Context, jobID uint) error {
	if err := s.repo.MarkDone(ctx, jobID); err != nil {
		return err
	}
	log.Printf("[DEBUG] Job %d completed", jobID)
	return nil
}

func (s *service) FailJob(ctx context.Context, jobID uint, jobErr error) error {
	msg := ""
	if jobErr != nil {
		msg = jobErr.Error()
	}
	if err := s.repo.MarkFailed(ctx, jobID, msg); err != nil {
		return err
	}
	log.Printf("[ERROR] Job %d failed: %s", jobID, msg)
	return nil
}
