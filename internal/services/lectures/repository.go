package lectures

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"github.com/opencourselab/lecture-api/internal/models"
)

// ErrLectureNotFound is returned when no stored record matches a lecture key
var ErrLectureNotFound = errors.New("lecture not found")

// SimilarSummary is one vector-search hit: the lecture it came from and its
// summary text
type SimilarSummary struct {
	LectureID string
	Summary   string
}

// Repository defines the interface for lecture summary/embedding persistence
type Repository interface {
	// Upsert overwrites the row for the (course, lecture, user) key in place,
	// or inserts it when absent
	Upsert(ctx context.Context, row *models.LectureSummaryEmbedding) error

	// GetLecture returns the stored record for a lecture key
	GetLecture(ctx context.Context, courseID, lectureID, userID string) (*models.LectureSummaryEmbedding, error)

	// GetPreviousSummaries returns the non-blank summaries of all lectures in
	// the same course and user with id below beforeID, ascending id order
	GetPreviousSummaries(ctx context.Context, courseID, userID string, beforeID uint) ([]string, error)

	// GetSummariesFromFirstN restricts context to the course's first firstN
	// lectures by id, still excluding beforeID and later
	GetSummariesFromFirstN(ctx context.Context, courseID, userID string, firstN int, beforeID uint) ([]string, error)

	// GetSimilarSummaries orders other lectures of the course by cosine
	// distance to the query vector, nearest first. Requires pgvector, so it
	// only works against postgres.
	GetSimilarSummaries(ctx context.Context, courseID, userID string, queryEmbedding []float32, limit int, excludeLectureID string) ([]SimilarSummary, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new lecture repository
func NewRepository(db *gorm.DB) Repository {
	return &repository{
		db: db,
	}
}

func (r *repository) Upsert(ctx context.Context, row *models.LectureSummaryEmbedding) error {
	var existing models.LectureSummaryEmbedding
	err := r.db.WithContext(ctx).
		Where("course_id = ? AND lecture_id = ? AND user_id = ?", row.CourseID, row.LectureID, row.UserID).
		First(&existing).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		if createErr := r.db.WithContext(ctx).Create(row).Error; createErr != nil {
			return fmt.Errorf("inserting lecture record: %w", createErr)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("looking up lecture record: %w", err)
	}

	updates := map[string]interface{}{
		"content":   row.Content,
		"summary":   row.Summary,
		"embedding": row.Embedding,
		"metadata":  row.Metadata,
	}
	if updateErr := r.db.WithContext(ctx).
		Model(&existing).
		Updates(updates).Error; updateErr != nil {
		return fmt.Errorf("updating lecture record: %w", updateErr)
	}

	row.ID = existing.ID
	return nil
}

func (r *repository) GetLecture(ctx context.Context, courseID, lectureID, userID string) (*models.LectureSummaryEmbedding, error) {
	var record models.LectureSummaryEmbedding
	err := r.db.WithContext(ctx).
		Where("course_id = ? AND lecture_id = ? AND user_id = ?", courseID, lectureID, userID).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLectureNotFound
		}
		return nil, fmt.Errorf("getting lecture: %w", err)
	}
	return &record, nil
}

func (r *repository) GetPreviousSummaries(ctx context.Context, courseID, userID string, beforeID uint) ([]string, error) {
	var summaries []string
	err := r.db.WithContext(ctx).
		Model(&models.LectureSummaryEmbedding{}).
		Where("course_id = ? AND user_id = ? AND id < ?", courseID, userID, beforeID).
		Where("summary IS NOT NULL").
		Order("id ASC").
		Pluck("summary", &summaries).Error
	if err != nil {
		return nil, fmt.Errorf("getting previous summaries: %w", err)
	}
	return filterBlank(summaries), nil
}

func (r *repository) GetSummariesFromFirstN(ctx context.Context, courseID, userID string, firstN int, beforeID uint) ([]string, error) {
	subquery := r.db.
		Model(&models.LectureSummaryEmbedding{}).
		Select("id").
		Where("course_id = ? AND user_id = ?", courseID, userID).
		Order("id ASC").
		Limit(firstN)

	var summaries []string
	err := r.db.WithContext(ctx).
		Model(&models.LectureSummaryEmbedding{}).
		Where("course_id = ? AND user_id = ?", courseID, userID).
		Where("summary IS NOT NULL").
		Where("id IN (?)", subquery).
		Where("id < ?", beforeID).
		Order("id ASC").
		Pluck("summary", &summaries).Error
	if err != nil {
		return nil, fmt.Errorf("getting first-n summaries: %w", err)
	}
	return filterBlank(summaries), nil
}

func (r *repository) GetSimilarSummaries(ctx context.Context, courseID, userID string, queryEmbedding []float32, limit int, excludeLectureID string) ([]SimilarSummary, error) {
	var rows []SimilarSummary
	err := r.db.WithContext(ctx).Raw(`
		SELECT lecture_id, summary
		FROM lecture_summary_embeddings
		WHERE course_id = ?
		  AND user_id = ?
		  AND embedding IS NOT NULL
		  AND summary IS NOT NULL
		  AND deleted_at IS NULL
		  AND (? = '' OR lecture_id != ?)
		ORDER BY embedding <=> ?
		LIMIT ?`,
		courseID, userID, excludeLectureID, excludeLectureID,
		pgvector.NewVector(queryEmbedding), limit,
	).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	result := make([]SimilarSummary, 0, len(rows))
	for _, row := range rows {
		if strings.TrimSpace(row.Summary) != "" {
			result = append(result, row)
		}
	}
	return result, nil
}

func filterBlank(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}
