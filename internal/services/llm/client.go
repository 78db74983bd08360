package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"

	apperrors "github.com/opencourselab/lecture-api/pkg/errors"
	"github.com/opencourselab/lecture-api/pkg/transcript"
)

// Config holds the provider settings for the OpenAI-compatible client
type Config struct {
	APIKey              string
	BaseURL             string
	Model               string
	EmbeddingModel      string
	EmbeddingDimensions int
	TranscribeModel     string
	Temperature         float32
	RequestTimeout      time.Duration
}

// OpenAIClient implements Client against the OpenAI API (or any compatible
// endpoint via BaseURL)
type OpenAIClient struct {
	client *openai.Client
	config Config
}

// NewOpenAIClient creates a provider client from config
func NewOpenAIClient(config Config) *OpenAIClient {
	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	if config.RequestTimeout > 0 {
		clientConfig.HTTPClient = &http.Client{Timeout: config.RequestTimeout}
	}

	if config.Model == "" {
		config.Model = openai.GPT4oMini
	}
	if config.EmbeddingModel == "" {
		config.EmbeddingModel = string(openai.SmallEmbedding3)
	}
	if config.TranscribeModel == "" {
		config.TranscribeModel = openai.Whisper1
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}
}

// Chat issues one chat completion and returns the raw response text
func (c *OpenAIClient) Chat(ctx context.Context, system, user string, opts ...ChatOption) (string, error) {
	options := ApplyChatOptions(opts)

	temperature := c.config.Temperature
	if options.Temperature != nil {
		temperature = *options.Temperature
	}

	req := openai.ChatCompletionRequest{
		Model:       c.config.Model,
		Temperature: temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: system,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: user,
			},
		},
	}
	if options.JSONMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", apperrors.UpstreamError("chat completion failed", err)
	}
	if len(resp.Choices) == 0 {
		return "", apperrors.UpstreamError("chat completion returned no choices", nil)
	}

	return resp.Choices[0].Message.Content, nil
}

// Embed returns the embedding vector for text
func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	req := openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(c.config.EmbeddingModel),
	}
	if c.config.EmbeddingDimensions > 0 {
		req.Dimensions = c.config.EmbeddingDimensions
	}

	resp, err := c.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, apperrors.UpstreamError("embedding request failed", err)
	}
	if len(resp.Data) == 0 {
		return nil, apperrors.UpstreamError("embedding request returned no data", nil)
	}

	return resp.Data[0].Embedding, nil
}

// Transcribe converts the audio file at path into timed segments
func (c *OpenAIClient) Transcribe(ctx context.Context, audioPath string) (*transcript.Transcript, error) {
	req := openai.AudioRequest{
		Model:    c.config.TranscribeModel,
		FilePath: audioPath,
		Format:   openai.AudioResponseFormatVerboseJSON,
	}

	resp, err := c.client.CreateTranscription(ctx, req)
	if err != nil {
		return nil, apperrors.UpstreamError(fmt.Sprintf("transcription failed for %s", audioPath), err)
	}

	result := &transcript.Transcript{}
	if resp.Duration > 0 {
		duration := resp.Duration
		result.Duration = &duration
	}
	for _, seg := range resp.Segments {
		result.Segments = append(result.Segments, transcript.Segment{
			Text:  seg.Text,
			Start: seg.Start,
			End:   seg.End,
		})
	}

	return result, nil
}
