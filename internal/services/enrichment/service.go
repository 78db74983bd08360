package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/opencourselab/lecture-api/internal/models"
	"github.com/opencourselab/lecture-api/internal/services/llm"
	"github.com/opencourselab/lecture-api/pkg/transcript"
)

// promptPrefixChars bounds how much chunk text each model call sees. The
// truncation is applied independently per call.
const promptPrefixChars = 3000

// extractionTemperature keeps the three derivations close to deterministic
const extractionTemperature float32 = 0.1

// Result holds the three derivations for one chunk
type Result struct {
	Concept    string
	Metadata   models.ChunkMetadata
	Difficulty models.Difficulty
}

// Service derives concept, metadata and difficulty for a chunk of lecture text
type Service interface {
	Enrich(ctx context.Context, chunkText, conceptHint string) (*Result, error)
}

type service struct {
	llm llm.Client
}

// NewService creates an enrichment service backed by the given model client
func NewService(llmClient llm.Client) Service {
	return &service{
		llm: llmClient,
	}
}

// Enrich runs the three sub-calls concurrently and joins them: all three must
// succeed or the chunk's enrichment fails as a whole.
func (s *service) Enrich(ctx context.Context, chunkText, conceptHint string) (*Result, error) {
	result := &Result{}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(3)

	g.Go(func() error {
		concept, err := s.deriveConcept(gctx, chunkText, conceptHint)
		if err != nil {
			return fmt.Errorf("concept derivation: %w", err)
		}
		result.Concept = concept
		return nil
	})

	g.Go(func() error {
		metadata, err := s.extractMetadata(gctx, chunkText)
		if err != nil {
			return fmt.Errorf("metadata extraction: %w", err)
		}
		result.Metadata = metadata
		return nil
	})

	g.Go(func() error {
		difficulty, err := s.classifyDifficulty(gctx, chunkText)
		if err != nil {
			return fmt.Errorf("difficulty classification: %w", err)
		}
		result.Difficulty = difficulty
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return result, nil
}

func (s *service) deriveConcept(ctx context.Context, chunkText, conceptHint string) (string, error) {
	hint := strings.TrimSpace(conceptHint)
	excerpt := transcript.TruncateChars(chunkText, promptPrefixChars)

	if hint == "" {
		response, err := s.llm.Chat(ctx,
			"Extract the core concept of the given lecture chunk as one sentence. Output only the short concept name.",
			excerpt,
			llm.WithTemperature(extractionTemperature))
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(response), nil
	}

	system := "An instructor attached a title (concept) to the lecture chunk below. Check whether it matches the content.\n" +
		"- If the title fits the content, output the title verbatim as a single line.\n" +
		"- If it does not fit, or is too vague, use the title as a reference and write a one-sentence concept that matches the content.\n" +
		"Output exactly one concept/title sentence, nothing else."
	user := fmt.Sprintf("Instructor title: %s\n\nChunk content:\n%s", hint, excerpt)

	response, err := s.llm.Chat(ctx, system, user, llm.WithTemperature(extractionTemperature))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(response), nil
}

func (s *service) extractMetadata(ctx context.Context, chunkText string) (models.ChunkMetadata, error) {
	response, err := s.llm.Chat(ctx,
		"Extract metadata from the given lecture chunk as JSON. Keys: topics (array of strings), keywords (array of strings).",
		transcript.TruncateChars(chunkText, promptPrefixChars),
		llm.WithJSONMode(),
		llm.WithTemperature(extractionTemperature))
	if err != nil {
		return models.ChunkMetadata{}, err
	}

	var metadata models.ChunkMetadata
	if err := json.Unmarshal([]byte(strings.TrimSpace(response)), &metadata); err != nil {
		// A malformed metadata object degrades to empty lists instead of
		// failing the chunk
		log.Printf("[DEBUG] Metadata response not parseable, defaulting to empty: %v", err)
		return models.ChunkMetadata{Topics: []string{}, Keywords: []string{}}, nil
	}
	if metadata.Topics == nil {
		metadata.Topics = []string{}
	}
	if metadata.Keywords == nil {
		metadata.Keywords = []string{}
	}
	return metadata, nil
}

func (s *service) classifyDifficulty(ctx context.Context, chunkText string) (models.Difficulty, error) {
	response, err := s.llm.Chat(ctx,
		"Pick exactly one difficulty for the given lecture chunk: easy | medium | hard. Output one word only.",
		transcript.TruncateChars(chunkText, promptPrefixChars),
		llm.WithTemperature(extractionTemperature))
	if err != nil {
		return "", err
	}
	return models.ParseDifficulty(response), nil
}
