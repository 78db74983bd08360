package chunks

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"github.com/opencourselab/lecture-api/internal/models"
)

// Repository defines the interface for chunk persistence
type Repository interface {
	// InsertChunkWithVector persists a chunk row and immediately after it the
	// chunk's embedding row
	InsertChunkWithVector(ctx context.Context, chunk *models.LectureChunk, embedding []float32) error

	// DeleteByLecture removes all chunk and vector rows for a lecture key.
	// Each pipeline run replaces the full chunk set.
	DeleteByLecture(ctx context.Context, courseID, lectureID, userID string) error

	// GetByLecture returns the lecture's current chunks in chunk index order
	GetByLecture(ctx context.Context, courseID, lectureID, userID string) ([]*models.LectureChunk, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new chunk repository
func NewRepository(db *gorm.DB) Repository {
	return &repository{
		db: db,
	}
}

func (r *repository) InsertChunkWithVector(ctx context.Context, chunk *models.LectureChunk, embedding []float32) error {
	if err := r.db.WithContext(ctx).Create(chunk).Error; err != nil {
		return fmt.Errorf("inserting chunk %d: %w", chunk.ChunkIndex, err)
	}

	vector := &models.LectureChunkVector{
		ChunkID:   chunk.ID,
		Embedding: pgvector.NewVector(embedding),
	}
	if err := r.db.WithContext(ctx).Create(vector).Error; err != nil {
		return fmt.Errorf("inserting vector for chunk %d: %w", chunk.ChunkIndex, err)
	}

	return nil
}

func (r *repository) DeleteByLecture(ctx context.Context, courseID, lectureID, userID string) error {
	var chunkIDs []uint
	err := r.db.WithContext(ctx).
		Model(&models.LectureChunk{}).
		Where("course_id = ? AND lecture_id = ? AND user_id = ?", courseID, lectureID, userID).
		Pluck("id", &chunkIDs).Error
	if err != nil {
		return fmt.Errorf("listing chunks to delete: %w", err)
	}

	if len(chunkIDs) > 0 {
		if err := r.db.WithContext(ctx).
			Where("chunk_id IN ?", chunkIDs).
			Delete(&models.LectureChunkVector{}).Error; err != nil {
			return fmt.Errorf("deleting chunk vectors: %w", err)
		}
	}

	if err := r.db.WithContext(ctx).
		Where("course_id = ? AND lecture_id = ? AND user_id = ?", courseID, lectureID, userID).
		Delete(&models.LectureChunk{}).Error; err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}

	return nil
}

func (r *repository) GetByLecture(ctx context.Context, courseID, lectureID, userID string) ([]*models.LectureChunk, error) {
	var result []*models.LectureChunk
	err := r.db.WithContext(ctx).
		Where("course_id = ? AND lecture_id = ? AND user_id = ?", courseID, lectureID, userID).
		Order("chunk_index ASC").
		Find(&result).Error
	if err != nil {
		return nil, fmt.Errorf("getting chunks: %w", err)
	}
	return result, nil
}
