// pkg/pipeline/worker.go
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/picmoney/data-cleaner/pkg/cleaner"
	"github.com/picmoney/data-cleaner/pkg/connector"
	"github.com/picmoney/data-cleaner/pkg/model"
)

// Stage names used in error records and logs
const (
	StageLoad   = "load"
	StageClean  = "clean"
	StageWrite  = "write"
	StageExport = "export"
	StageAudit  = "audit"
	StageVerify = "verify"
)

// Worker handles the execution of dataset jobs
type Worker struct {
	ID           int
	dataCleaner  *cleaner.DataCleaner
	audit        connector.AuditSink
	export       connector.ExportSink
	sinkMu       *sync.Mutex
	verifier     *Verifier
	errorHandler *ErrorHandler
	logger       *zap.Logger
}

// Start processes jobs until the channel closes or a job fails.
// A failed job stops the worker with the job's error.
func (w *Worker) Start(ctx context.Context, jobs <-chan DatasetJob, record func(JobResult)) error {
	w.logger.Debug("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("Worker stopping due to context cancellation")
			return ctx.Err()
		case job, ok := <-jobs:
			if !ok {
				w.logger.Debug("Worker stopping due to closed job channel")
				return nil
			}

			result := w.ProcessJob(ctx, job)
			record(result)

			if !result.Success {
				if len(result.Errors) > 0 {
					return fmt.Errorf("dataset %s: %w", job.Name(), result.Errors[0].Error)
				}
				return fmt.Errorf("dataset %s failed", job.Name())
			}
		}
	}
}

// ProcessJob cleans a single dataset
func (w *Worker) ProcessJob(ctx context.Context, job DatasetJob) JobResult {
	result := NewJobResult(job)
	startTime := time.Now()

	w.logger.Info("Starting dataset cleaning",
		zap.String("dataset", job.Name()),
		zap.String("source", job.SourcePath),
		zap.String("jobID", job.ID))

	success := w.cleanDataset(ctx, job, result)

	result.Complete(success)
	result.Duration = time.Since(startTime)

	if result.Success {
		w.logger.Info("Dataset cleaning completed successfully",
			zap.String("dataset", job.Name()),
			zap.Int("rowsWritten", result.RowsWritten),
			zap.Duration("duration", result.Duration))
	} else {
		w.logger.Warn("Dataset cleaning failed",
			zap.String("dataset", job.Name()),
			zap.Int("errors", len(result.Errors)),
			zap.Duration("duration", result.Duration))
	}

	return *result
}

// fail records a stage failure on the result
func (w *Worker) fail(result *JobResult, stage string, category ErrorCategory, err error) bool {
	category = w.errorHandler.CategorizeError(err, category)
	record := NewErrorRecord(err, category).
		WithDataset(result.Dataset).
		WithStage(stage)
	result.AddError(record)
	w.errorHandler.HandleError(record)
	return false
}

// cleanDataset executes the load, clean, write, export, audit and verify stages
func (w *Worker) cleanDataset(ctx context.Context, job DatasetJob, result *JobResult) bool {
	ds := job.Dataset

	// Step 1: Load the source file
	frame, err := w.dataCleaner.Load(job.SourcePath, &ds)
	if err != nil {
		return w.fail(result, StageLoad, ErrorCategoryInput, err)
	}
	result.RowsRead = frame.Nrow()

	// Step 2: Run the dataset pipeline
	cleaned, err := w.dataCleaner.Clean(ctx, frame, &ds)
	if err != nil {
		return w.fail(result, StageClean, ErrorCategoryCleaning, err)
	}
	result.RowsWritten = cleaned.Frame.Nrow()
	result.RowsDropped = cleaned.RowsDropped()
	result.CleaningOperations = cleaned.Recorder.Total()
	result.OperationCounts = cleaned.Recorder.Counts()

	// Step 3: Write the cleaned CSV
	if err := w.dataCleaner.Write(cleaned.Frame, job.OutputPath); err != nil {
		return w.fail(result, StageWrite, ErrorCategoryOutput, err)
	}

	// Step 4: Export and audit, one dataset at a time
	if w.export != nil {
		if err := w.exportTable(ctx, &ds, cleaned.Frame); err != nil {
			return w.fail(result, StageExport, ErrorCategorySink, err)
		}
	}
	if w.audit != nil {
		if err := w.recordOperations(ctx, cleaned.Recorder); err != nil {
			return w.fail(result, StageAudit, ErrorCategorySink, err)
		}
	}

	// Step 5: Verify what was written
	if w.verifier != nil {
		report, err := w.verifier.VerifyOutput(ctx, &ds, job.OutputPath, cleaned)
		if err != nil {
			return w.fail(result, StageVerify, ErrorCategoryVerification, err)
		}
		result.Verification = report
		if !report.Passed() {
			return w.fail(result, StageVerify, ErrorCategoryVerification,
				fmt.Errorf("output verification found %d issues", len(report.IntegrityIssues)))
		}
	}

	return true
}

func (w *Worker) exportTable(ctx context.Context, ds *model.Dataset, frame *cleaner.Frame) error {
	cells, err := frame.Columns()
	if err != nil {
		return err
	}
	table := &connector.Table{
		Dataset: ds,
		Columns: frame.Names(),
		Cells:   cells,
	}

	w.sinkMu.Lock()
	defer w.sinkMu.Unlock()
	return w.export.ExportTable(ctx, table)
}

func (w *Worker) recordOperations(ctx context.Context, rec *cleaner.Recorder) error {
	operations := rec.Operations()
	if len(operations) != rec.Total() {
		return fmt.Errorf("cleaner kept %d of %d operations, enable KeepOperations for auditing",
			len(operations), rec.Total())
	}
	if len(operations) == 0 {
		return nil
	}

	w.sinkMu.Lock()
	defer w.sinkMu.Unlock()
	return w.audit.RecordCleaningOperations(ctx, operations)
}
