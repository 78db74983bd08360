package workers

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/opencourselab/lecture-api/internal/services/ingestion"
	"github.com/opencourselab/lecture-api/internal/services/jobs"
)

// Worker is the single sequential consumer of the ingestion queue: it claims
// one job at a time, runs the pipeline to completion, then polls again.
// Throughput scales by running more worker processes; the atomic claim keeps
// that safe.
type Worker struct {
	id           string
	jobService   jobs.Service
	pipeline     ingestion.Pipeline
	stopChan     chan struct{}
	wg           sync.WaitGroup
	pollInterval time.Duration
}

// NewWorker creates a new worker instance
func NewWorker(id string, jobService jobs.Service, pipeline ingestion.Pipeline, pollInterval time.Duration) *Worker {
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	return &Worker{
		id:           id,
		jobService:   jobService,
		pipeline:     pipeline,
		stopChan:     make(chan struct{}),
		pollInterval: pollInterval,
	}
}

// Start starts the worker loop in a goroutine
func (w *Worker) Start(ctx context.Context) {
	w.wg.Add(1)
	go w.run(ctx)
}

// Stop stops the worker gracefully, waiting for an in-flight job to finish
func (w *Worker) Stop() {
	close(w.stopChan)
	w.wg.Wait()
}

// run drains the queue, then sleeps pollInterval before polling again. A
// failed pipeline run is logged and never crashes the loop.
func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()

	log.Printf("Worker %s starting", w.id)
	defer log.Printf("Worker %s stopped", w.id)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		default:
		}

		processed, err := w.processNextJob(ctx)
		if err != nil {
			log.Printf("[ERROR] Worker %s: %v", w.id, err)
		}
		if processed {
			// More work may be waiting, poll again immediately
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case <-time.After(w.pollInterval):
		}
	}
}

// processNextJob claims and runs one job. Returns false when the queue was
// empty.
func (w *Worker) processNextJob(ctx context.Context) (bool, error) {
	job, err := w.jobService.ClaimNextJob(ctx)
	if err != nil {
		if errors.Is(err, jobs.ErrNoJobsAvailable) {
			return false, nil
		}
		return false, err
	}

	log.Printf("Worker %s claimed job %d (type: %s)", w.id, job.ID, job.JobType)

	// The pipeline already marked the job failed; the loop just logs
	if err := w.pipeline.Process(ctx, job); err != nil {
		return true, err
	}

	log.Printf("Worker %s completed job %d", w.id, job.ID)
	return true, nil
}
