package llm

import (
	"context"

	"github.com/opencourselab/lecture-api/pkg/transcript"
)

// Client is the language-model provider surface consumed by the rest of the
// service: completion, embedding and audio transcription
type Client interface {
	// Chat issues one chat completion with a system and a user message and
	// returns the raw response text
	Chat(ctx context.Context, system, user string, opts ...ChatOption) (string, error)

	// Embed returns the fixed-dimension embedding vector for text
	Embed(ctx context.Context, text string) ([]float32, error)

	// Transcribe converts the audio file at path into timed segments
	Transcribe(ctx context.Context, audioPath string) (*transcript.Transcript, error)
}

// ChatOptions holds per-call overrides for Chat
type ChatOptions struct {
	JSONMode    bool
	Temperature *float32
}

// ChatOption configures a single Chat call
type ChatOption func(*ChatOptions)

// WithJSONMode forces the model to return a single JSON object
func WithJSONMode() ChatOption {
	return func(o *ChatOptions) {
		o.JSONMode = true
	}
}

// WithTemperature overrides the configured sampling temperature
func WithTemperature(temperature float32) ChatOption {
	return func(o *ChatOptions) {
		o.Temperature = &temperature
	}
}

// ApplyChatOptions folds opts into a ChatOptions value
func ApplyChatOptions(opts []ChatOption) ChatOptions {
	var options ChatOptions
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
