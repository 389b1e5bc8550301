// pkg/pipeline/runner.go
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/picmoney/data-cleaner/pkg/cleaner"
	"github.com/picmoney/data-cleaner/pkg/connector"
)

// Options configures a Runner
type Options struct {
	RunID       string
	WorkerCount int  // Concurrent datasets; 0 runs every dataset at once
	Verify      bool // Re-read outputs after writing
	Audit       connector.AuditSink
	Export      connector.ExportSink
}

// Runner orchestrates the cleaning of a set of datasets
type Runner struct {
	dataCleaner  *cleaner.DataCleaner
	options      Options
	verifier     *Verifier
	errorHandler *ErrorHandler
	metrics      *RunMetrics
	logger       *zap.Logger
	sinkMu       sync.Mutex
}

// NewRunner creates a new runner
func NewRunner(dataCleaner *cleaner.DataCleaner, logger *zap.Logger, opts Options) (*Runner, error) {
	if dataCleaner == nil {
		return nil, errors.New("data cleaner cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if opts.WorkerCount < 0 {
		return nil, fmt.Errorf("worker count cannot be negative: %d", opts.WorkerCount)
	}
	logger = logger.Named("pipeline")

	r := &Runner{
		dataCleaner:  dataCleaner,
		options:      opts,
		errorHandler: NewErrorHandler(logger),
		metrics:      NewRunMetrics(opts.RunID, logger),
		logger:       logger,
	}

	if opts.Verify {
		r.verifier = NewVerifier(logger)
		if rc, ok := opts.Export.(RowCounter); ok {
			r.verifier.WithExport(rc)
		}
		if oc, ok := opts.Audit.(OperationCounter); ok {
			r.verifier.WithAudit(oc, opts.RunID)
		}
	}

	return r, nil
}

// Metrics returns the run metrics
func (r *Runner) Metrics() *RunMetrics {
	return r.metrics
}

// Errors returns the run error handler
func (r *Runner) Errors() *ErrorHandler {
	return r.errorHandler
}

func (r *Runner) newWorker(id int) *Worker {
	return &Worker{
		ID:           id,
		dataCleaner:  r.dataCleaner,
		audit:        r.options.Audit,
		export:       r.options.Export,
		sinkMu:       &r.sinkMu,
		verifier:     r.verifier,
		errorHandler: r.errorHandler,
		logger:       r.logger.With(zap.Int("workerID", id)),
	}
}

// Run cleans every job. The first failing dataset cancels the remaining
// ones and its error is returned; outputs already written are left in place.
func (r *Runner) Run(ctx context.Context, jobs []DatasetJob) (*RunSummary, error) {
	workerCount := r.options.WorkerCount
	if workerCount == 0 || workerCount > len(jobs) {
		workerCount = len(jobs)
	}

	r.logger.Info("Starting cleaning run",
		zap.String("runId", r.options.RunID),
		zap.Int("datasets", len(jobs)),
		zap.Int("workers", workerCount))

	g, gctx := errgroup.WithContext(ctx)
	jobCh := make(chan DatasetJob)

	g.Go(func() error {
		defer close(jobCh)
		for _, job := range jobs {
			select {
			case jobCh <- job:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for i := 0; i < workerCount; i++ {
		worker := r.newWorker(i)
		g.Go(func() error {
			return worker.Start(gctx, jobCh, r.metrics.RecordJobResult)
		})
	}

	err := g.Wait()
	r.metrics.Complete()
	summary := r.metrics.GenerateRunSummary()

	if err != nil {
		r.logger.Error("Cleaning run failed",
			zap.String("runId", r.options.RunID),
			zap.Strings("failedDatasets", r.errorHandler.FailedDatasets()),
			zap.Error(err))
		return summary, err
	}
	return summary, nil
}
