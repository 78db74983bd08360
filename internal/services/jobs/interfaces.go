package jobs

import (
	"context"

	"github.com/opencourselab/lecture-api/internal/models"
)

// Service defines the business logic interface for the ingestion queue
type Service interface {
	// Enqueue operations
	EnqueueJob(ctx context.Context, courseID, lectureID, userID string, jobType models.JobType, payload models.JobPayload) (*models.IngestionJob, error)

	// Status and retrieval
	GetJob(ctx context.Context, jobID uint) (*models.IngestionJob, error)

	// Worker operations
	ClaimNextJob(ctx context.Context) (*models.IngestionJob, error)
	CompleteJob(ctx context.Context, jobID uint) error
	FailJob(ctx context.Context, jobID uint, err error) error
}
