package jobs

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/opencourselab/lecture-api/internal/models"
)

// Repository errors
var (
	ErrJobNotFound     = errors.New("job not found")
	ErrNoJobsAvailable = errors.New("no jobs available")
)

// Repository defines the interface for job persistence
type Repository interface {
	// Create operations
	CreateJob(ctx context.Context, job *models.IngestionJob) error

	// Read operations
	GetJob(ctx context.Context, id uint) (*models.IngestionJob, error)
	GetNextPending(ctx context.Context) (*models.IngestionJob, error)

	// Update operations. ClaimNextPending is the only way a job moves to
	// processing; the mark operations are silent no-ops on unknown ids.
	ClaimNextPending(ctx context.Context) (*models.IngestionJob, error)
	MarkDone(ctx context.Context, jobID uint) error
	MarkFailed(ctx context.Context, jobID uint, errorMsg string) error
}

// repository implements Repository interface
type repository struct {
	db *gorm.DB
}

// NewRepository creates a new job repository
func NewRepository(db *gorm.DB) Repository {
	return &repository{
		db: db,
	}
}

// CreateJob creates a new job in pending status
func (r *repository) CreateJob(ctx context.Context, job *models.IngestionJob) error {
	if job.Status == "" {
		job.Status = models.JobStatusPending
	}
	return r.db.WithContext(ctx).Create(job).Error
}

// GetJob retrieves a job by ID
func (r *repository) GetJob(ctx context.Context, id uint) (*models.IngestionJob, error) {
	var job models.IngestionJob
	err := r.db.WithContext(ctx).First(&job, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("getting job: %w", err)
	}
	return &job, nil
}

// GetNextPending returns the lowest-id pending job without claiming it
func (r *repository) GetNextPending(ctx context.Context) (*models.IngestionJob, error) {
	var job models.IngestionJob
	err := r.db.WithContext(ctx).
		Where("status = ?", models.JobStatusPending).
		Order("id ASC").
		First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoJobsAvailable
		}
		return nil, fmt.Errorf("getting next pending job: %w", err)
	}
	return &job, nil
}

// ClaimNextPending atomically claims the lowest-id pending job: the status
// flip is a conditional update, so when two workers race over the same row
// only one update matches and the loser moves on to the next candidate.
func (r *repository) ClaimNextPending(ctx context.Context) (*models.IngestionJob, error) {
	for {
		var job models.IngestionJob
		err := r.db.WithContext(ctx).
			Where("status = ?", models.JobStatusPending).
			Order("id ASC").
			First(&job).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNoJobsAvailable
			}
			return nil, fmt.Errorf("finding job to claim: %w", err)
		}

		result := r.db.WithContext(ctx).
			Model(&models.IngestionJob{}).
			Where("id = ? AND status = ?", job.ID, models.JobStatusPending).
			Update("status", models.JobStatusProcessing)
		if result.Error != nil {
			return nil, fmt.Errorf("claiming job: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			// Lost the race for this row, try the next pending job
			continue
		}

		job.Status = models.JobStatusProcessing
		return &job, nil
	}
}

// MarkDone marks a job as done. Unknown ids are a silent no-op.
func (r *repository) MarkDone(ctx context.Context, jobID uint) error {
	err := r.db.WithContext(ctx).
		Model(&models.IngestionJob{}).
		Where("id = ?", jobID).
		Update("status", models.JobStatusDone).Error
	if err != nil {
		return fmt.Errorf("marking job done: %w", err)
	}
	return nil
}

// MarkFailed marks a job as failed with an error message. Unknown ids are a
// silent no-op.
func (r *repository) MarkFailed(ctx context.Context, jobID uint, errorMsg string) error {
	err := r.db.WithContext(ctx).
		Model(&models.IngestionJob{}).
		Where("id = ?", jobID).
		Updates(map[string]interface{}{
			"status":        models.JobStatusFailed,
			"error_message": errorMsg,
		}).Error
	if err != nil {
		return fmt.Errorf("marking job failed: %w", err)
	}
	return nil
}
