package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Difficulty is the per-chunk difficulty tier assigned by enrichment
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ParseDifficulty maps a model response onto a difficulty tier. Anything that
// is not a case-insensitive match for a known tier becomes medium.
func ParseDifficulty(s string) Difficulty {
	switch Difficulty(strings.ToLower(strings.TrimSpace(s))) {
	case DifficultyEasy:
		return DifficultyEasy
	case DifficultyHard:
		return DifficultyHard
	default:
		return DifficultyMedium
	}
}

// ChunkContent is the timed-text span stored with each chunk row
type ChunkContent struct {
	Text           string  `json:"text"`
	Start          float64 `json:"start"`
	End            float64 `json:"end"`
	SegmentIndices []int   `json:"segment_indices"`
}

// Value implements driver.Valuer interface for ChunkContent
func (c ChunkContent) Value() (driver.Value, error) {
	return json.Marshal(c)
}

// Scan implements sql.Scanner interface for ChunkContent
func (c *ChunkContent) Scan(value interface{}) error {
	if value == nil {
		*c = ChunkContent{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, c)
	case string:
		return json.Unmarshal([]byte(v), c)
	default:
		return errors.New("type assertion to []byte failed")
	}
}

// ChunkMetadata holds the topic/keyword extraction result for a chunk
type ChunkMetadata struct {
	Topics   []string `json:"topics"`
	Keywords []string `json:"keywords"`
}

// Value implements driver.Valuer interface for ChunkMetadata
func (m ChunkMetadata) Value() (driver.Value, error) {
	return json.Marshal(m)
}

// Scan implements sql.Scanner interface for ChunkMetadata
func (m *ChunkMetadata) Scan(value interface{}) error {
	if value == nil {
		*m = ChunkMetadata{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return errors.New("type assertion to []byte failed")
	}
}

// LectureChunk is one enriched span of a lecture's transcript. All chunk rows
// for a (course, lecture, user) are replaced wholesale on each pipeline run;
// ChunkIndex starts at 0 and increases without gaps within that set.
type LectureChunk struct {
	gorm.Model
	CourseID   string        `json:"course_id" gorm:"not null;index:idx_chunks_lecture"`
	LectureID  string        `json:"lecture_id" gorm:"not null;index:idx_chunks_lecture"`
	UserID     string        `json:"user_id" gorm:"not null;index:idx_chunks_lecture"`
	ChunkIndex int           `json:"chunk_index" gorm:"not null"`
	Content    ChunkContent  `json:"content" gorm:"type:json"`
	Concept    string        `json:"concept,omitempty"`
	Metadata   ChunkMetadata `json:"metadata" gorm:"type:json"`
	Difficulty Difficulty    `json:"difficulty" gorm:"default:'medium'"`
}

// TableName specifies the table name for GORM
func (LectureChunk) TableName() string {
	return "lecture_chunks"
}

// LectureChunkVector is the embedding for a chunk, written in the same
// pipeline iteration right after its chunk row. 1:1 with LectureChunk.
type LectureChunkVector struct {
	gorm.Model
	ChunkID   uint            `json:"chunk_id" gorm:"not null;uniqueIndex"`
	Embedding pgvector.Vector `json:"embedding" gorm:"type:vector(1536)"`
}

// TableName specifies the table name for GORM
func (LectureChunkVector) TableName() string {
	return "lecture_chunk_vectors"
}

// LectureSummaryEmbedding is the system of record for what a lecture is
// about: the stored transcript JSON, its summary and the summary's embedding.
// At most one live row per (course, lecture, user); stores overwrite in place.
type LectureSummaryEmbedding struct {
	gorm.Model
	CourseID  string           `json:"course_id" gorm:"not null;uniqueIndex:idx_summary_key"`
	LectureID string           `json:"lecture_id" gorm:"not null;uniqueIndex:idx_summary_key"`
	UserID    string           `json:"user_id" gorm:"not null;uniqueIndex:idx_summary_key"`
	Content   datatypes.JSON   `json:"content" gorm:"type:json"`
	Summary   string           `json:"summary,omitempty"`
	Embedding *pgvector.Vector `json:"embedding,omitempty" gorm:"type:vector(1536)"`
	Metadata  datatypes.JSON   `json:"metadata,omitempty" gorm:"type:json"`
}

// HasSummary reports whether the stored summary is non-blank
func (l *LectureSummaryEmbedding) HasSummary() bool {
	return strings.TrimSpace(l.Summary) != ""
}

// TableName specifies the table name for GORM
func (LectureSummaryEmbedding) TableName() string {
	return "lecture_summary_embeddings"
}
