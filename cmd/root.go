package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/opencourselab/lecture-api/internal/services/llm"
	"github.com/opencourselab/lecture-api/pkg/config"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "lecture-api",
	Short: "Lecture ingestion and quiz generation API server",
	Long: `Lecture Quiz API - lecture transcript ingestion, summarization and quiz generation.

Uploaded audio or transcript JSON is queued as an ingestion job; a worker
transcribes, chunks, enriches and embeds the content. Stored lectures can be
summarized and turned into validated multiple-choice quizzes grounded on the
lecture's own transcript.

Commands:
  serve          - start the HTTP API server
  worker         - start the ingestion worker loop
  migrate        - run database migrations
  store-lecture  - summarize and store a transcript from a file
  quiz           - generate a quiz directly from a transcript file`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// NewRootCmd creates a new root command (exported for testing)
func NewRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	cobra.OnInitialize(loadConfig)
}

// loadConfig loads the configuration when a command needs it
func loadConfig() {
	// Skip config loading for commands that don't need it
	cmd, _, _ := rootCmd.Find(os.Args[1:])
	if cmd != nil && (cmd.Name() == "version" || cmd.Name() == "help") {
		return
	}

	if err := config.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing config: %v\n", err)
		os.Exit(1)
	}
}

// buildLLMClient constructs the model client from the loaded configuration
func buildLLMClient() llm.Client {
	return llm.NewOpenAIClient(llm.Config{
		APIKey:              config.GetString("openai.api_key"),
		BaseURL:             config.GetString("openai.base_url"),
		Model:               config.GetString("openai.model"),
		EmbeddingModel:      config.GetString("openai.embedding_model"),
		EmbeddingDimensions: config.GetInt("openai.embedding_dimensions"),
		TranscribeModel:     config.GetString("openai.transcribe_model"),
		Temperature:         float32(config.GetFloat64("openai.temperature")),
		RequestTimeout:      config.GetDuration("openai.request_timeout"),
	})
}
