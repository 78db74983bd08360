package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/opencourselab/lecture-api/internal/database"
	"github.com/opencourselab/lecture-api/internal/services/chunks"
	"github.com/opencourselab/lecture-api/internal/services/enrichment"
	"github.com/opencourselab/lecture-api/internal/services/ingestion"
	"github.com/opencourselab/lecture-api/internal/services/jobs"
	"github.com/opencourselab/lecture-api/internal/services/workers"
	"github.com/opencourselab/lecture-api/pkg/config"
)

var workerPollInterval time.Duration

// workerCmd represents the worker command
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the ingestion worker",
	Long: `Start the ingestion worker loop.

The worker polls the job queue, claims one job at a time and runs it through
the pipeline: transcription (audio jobs), chunking, enrichment, embedding and
storage. Run additional worker processes to scale throughput.

Example:
  lecture-api worker
  lecture-api worker --poll-interval 2s`,
	RunE: runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)

	workerCmd.Flags().DurationVar(&workerPollInterval, "poll-interval", 0, "queue poll interval when idle (overrides config)")
}

func runWorker(cmd *cobra.Command, args []string) error {
	db, err := database.InitializeWithMigrations()
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() { _ = db.Close() }()

	llmClient := buildLLMClient()
	jobService := jobs.NewService(jobs.NewRepository(db.DB))
	pipeline := ingestion.NewPipeline(
		jobService,
		chunks.NewRepository(db.DB),
		enrichment.NewService(llmClient),
		llmClient,
		config.GetInt("ingestion.max_chunk_chars"),
	)

	pollInterval := workerPollInterval
	if pollInterval <= 0 {
		pollInterval = config.GetDuration("ingestion.poll_interval")
	}

	worker := workers.NewWorker("worker-1", jobService, pipeline, pollInterval)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fmt.Println("Starting ingestion worker")
	worker.Start(ctx)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	fmt.Println("\nStopping worker...")
	worker.Stop()
	fmt.Println("Worker stopped")
	return nil
}
