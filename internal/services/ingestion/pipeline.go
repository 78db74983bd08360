package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/opencourselab/lecture-api/internal/models"
	"github.com/opencourselab/lecture-api/internal/services/chunks"
	"github.com/opencourselab/lecture-api/internal/services/enrichment"
	"github.com/opencourselab/lecture-api/internal/services/jobs"
	"github.com/opencourselab/lecture-api/internal/services/llm"
	apperrors "github.com/opencourselab/lecture-api/pkg/errors"
	"github.com/opencourselab/lecture-api/pkg/transcript"
)

// Pipeline runs one claimed ingestion job through the stages
// transcribe (audio only) -> chunk -> enrich+embed -> persist
type Pipeline interface {
	Process(ctx context.Context, job *models.IngestionJob) error
}

type pipeline struct {
	jobs          jobs.Service
	chunks        chunks.Repository
	enrichment    enrichment.Service
	llm           llm.Client
	maxChunkChars int
}

// NewPipeline creates an ingestion pipeline
func NewPipeline(jobService jobs.Service, chunkRepo chunks.Repository, enrichmentService enrichment.Service, llmClient llm.Client, maxChunkChars int) Pipeline {
	if maxChunkChars <= 0 {
		maxChunkChars = 1500
	}
	return &pipeline{
		jobs:          jobService,
		chunks:        chunkRepo,
		enrichment:    enrichmentService,
		llm:           llmClient,
		maxChunkChars: maxChunkChars,
	}
}

// Process runs the stages for a job the worker already claimed. Any failure
// marks the job failed with the error's message and returns the error;
// chunks persisted before the failing one are kept.
func (p *pipeline) Process(ctx context.Context, job *models.IngestionJob) error {
	if err := p.run(ctx, job); err != nil {
		if markErr := p.jobs.FailJob(ctx, job.ID, err); markErr != nil {
			log.Printf("[ERROR] Could not mark job %d failed: %v", job.ID, markErr)
		}
		return err
	}
	return p.jobs.CompleteJob(ctx, job.ID)
}

func (p *pipeline) run(ctx context.Context, job *models.IngestionJob) error {
	content, err := p.resolveContent(ctx, job)
	if err != nil {
		return err
	}

	chunkSpans := transcript.ChunkByMaxChars(content.Segments, p.maxChunkChars)
	log.Printf("[DEBUG] Job %d: %d chunks from %d segments", job.ID, len(chunkSpans), len(content.Segments))

	// Full replace: the previous chunk set for this lecture goes away before
	// the new one is written
	if err := p.chunks.DeleteByLecture(ctx, job.CourseID, job.LectureID, job.UserID); err != nil {
		return err
	}

	conceptHint := job.ConceptHint()
	if conceptHint != "" {
		log.Printf("[DEBUG] Job %d: using instructor hint %q", job.ID, conceptHint)
	}

	for idx, span := range chunkSpans {
		if strings.TrimSpace(span.Text) == "" {
			continue
		}

		enriched, err := p.enrichment.Enrich(ctx, span.Text, conceptHint)
		if err != nil {
			return fmt.Errorf("enriching chunk %d: %w", idx, err)
		}

		embedding, err := p.llm.Embed(ctx, span.Text)
		if err != nil {
			return fmt.Errorf("embedding chunk %d: %w", idx, err)
		}

		row := &models.LectureChunk{
			CourseID:   job.CourseID,
			LectureID:  job.LectureID,
			UserID:     job.UserID,
			ChunkIndex: idx,
			Content: models.ChunkContent{
				Text:           span.Text,
				Start:          span.Start,
				End:            span.End,
				SegmentIndices: span.SegmentIndices,
			},
			Concept:    enriched.Concept,
			Metadata:   enriched.Metadata,
			Difficulty: enriched.Difficulty,
		}
		if err := p.chunks.InsertChunkWithVector(ctx, row, embedding); err != nil {
			return err
		}
	}

	log.Printf("[DEBUG] Job %d ingested", job.ID)
	return nil
}

// resolveContent produces the transcript either by running transcription on
// the referenced audio file or by decoding the payload itself
func (p *pipeline) resolveContent(ctx context.Context, job *models.IngestionJob) (*transcript.Transcript, error) {
	if job.JobType == models.JobTypeAudio {
		audioPath, ok := job.GetPayloadString("audio_path")
		if !ok || audioPath == "" {
			return nil, apperrors.MissingFieldError("audio_path")
		}
		if _, err := os.Stat(audioPath); err != nil {
			return nil, apperrors.NotFound("audio file", audioPath)
		}
		log.Printf("[DEBUG] Job %d: transcribing %s", job.ID, audioPath)
		return p.llm.Transcribe(ctx, audioPath)
	}

	// Transcript jobs: payload.transcript, then payload.content, then the
	// whole payload as the content JSON
	var raw interface{}
	if v, ok := job.GetPayloadValue("transcript"); ok && v != nil {
		raw = v
	} else if v, ok := job.GetPayloadValue("content"); ok && v != nil {
		raw = v
	} else {
		raw = map[string]interface{}(job.Payload)
	}

	asMap, ok := raw.(map[string]interface{})
	if !ok {
		return nil, apperrors.New(apperrors.ErrCodeInvalidInput, "transcript job requires a transcript object with segments")
	}
	if _, hasSegments := asMap["segments"]; !hasSegments {
		return nil, apperrors.New(apperrors.ErrCodeInvalidInput, "transcript job requires a transcript object with segments")
	}

	encoded, err := json.Marshal(asMap)
	if err != nil {
		return nil, fmt.Errorf("encoding payload transcript: %w", err)
	}
	var content transcript.Transcript
	if err := json.Unmarshal(encoded, &content); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInvalidInput, "transcript payload is malformed")
	}
	return &content, nil
}
