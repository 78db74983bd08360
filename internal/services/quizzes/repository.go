package quizzes

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/opencourselab/lecture-api/internal/models"
)

// Repository defines the interface for quiz persistence
type Repository interface {
	// Insert appends a new quiz row; earlier generation runs are retained
	Insert(ctx context.Context, courseID, lectureID string, questions []models.QuizQuestion) (*models.LectureQuiz, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new quiz repository
func NewRepository(db *gorm.DB) Repository {
	return &repository{
		db: db,
	}
}

func (r *repository) Insert(ctx context.Context, courseID, lectureID string, questions []models.QuizQuestion) (*models.LectureQuiz, error) {
	encoded, err := json.Marshal(questions)
	if err != nil {
		return nil, fmt.Errorf("encoding questions: %w", err)
	}

	row := &models.LectureQuiz{
		CourseID:  courseID,
		LectureID: lectureID,
		Questions: datatypes.JSON(encoded),
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, fmt.Errorf("inserting quiz: %w", err)
	}
	return row, nil
}
