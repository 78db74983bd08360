package lectures

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"

	"github.com/opencourselab/lecture-api/internal/models"
	"github.com/opencourselab/lecture-api/internal/services/llm"
	"github.com/opencourselab/lecture-api/internal/services/summaries"
	"github.com/opencourselab/lecture-api/pkg/transcript"
)

// StoreParams carries one summarize-and-store request
type StoreParams struct {
	CourseID     string
	LectureID    string
	UserID       string
	Content      *transcript.Transcript
	Summary      string
	Metadata     map[string]interface{}
	CourseTitle  string
	SectionTitle string
	LectureTitle string
}

// Service stores the canonical summary/embedding record for a lecture
type Service interface {
	// Store summarizes the transcript when no summary is supplied, embeds the
	// summary and upserts the record. Returns the summary that was stored.
	Store(ctx context.Context, params StoreParams) (string, error)

	// GetLecture returns the stored record for a lecture key
	GetLecture(ctx context.Context, courseID, lectureID, userID string) (*models.LectureSummaryEmbedding, error)
}

type service struct {
	repo      Repository
	llm       llm.Client
	summaries summaries.Service
}

// NewService creates a lecture store service
func NewService(repo Repository, llmClient llm.Client, summaryService summaries.Service) Service {
	return &service{
		repo:      repo,
		llm:       llmClient,
		summaries: summaryService,
	}
}

func (s *service) Store(ctx context.Context, params StoreParams) (string, error) {
	summary := strings.TrimSpace(params.Summary)
	if summary == "" {
		log.Printf("[DEBUG] No summary supplied for %s/%s, generating one", params.CourseID, params.LectureID)
		generated, err := s.summaries.Summarize(ctx, params.Content, summaries.Options{
			CourseTitle:  params.CourseTitle,
			SectionTitle: params.SectionTitle,
			LectureTitle: params.LectureTitle,
		})
		if err != nil {
			return "", fmt.Errorf("generating summary: %w", err)
		}
		summary = generated
	}

	embedding, err := s.llm.Embed(ctx, summary)
	if err != nil {
		return "", fmt.Errorf("embedding summary: %w", err)
	}

	contentJSON, err := json.Marshal(params.Content)
	if err != nil {
		return "", fmt.Errorf("encoding transcript: %w", err)
	}

	metadata := params.Metadata
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return "", fmt.Errorf("encoding metadata: %w", err)
	}

	vector := pgvector.NewVector(embedding)
	row := &models.LectureSummaryEmbedding{
		CourseID:  params.CourseID,
		LectureID: params.LectureID,
		UserID:    params.UserID,
		Content:   datatypes.JSON(contentJSON),
		Summary:   summary,
		Embedding: &vector,
		Metadata:  datatypes.JSON(metadataJSON),
	}
	if err := s.repo.Upsert(ctx, row); err != nil {
		return "", err
	}

	log.Printf("[DEBUG] Stored lecture record %s/%s (summary length %d)", params.CourseID, params.LectureID, len(summary))
	return summary, nil
}

func (s *service) GetLecture(ctx context.Context, courseID, lectureID, userID string) (*models.LectureSummaryEmbedding, error) {
	return s.repo.GetLecture(ctx, courseID, lectureID, userID)
}
