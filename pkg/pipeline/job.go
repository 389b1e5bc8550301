// pkg/pipeline/job.go
package pipeline

import (
	"time"

	"github.com/google/uuid"

	"github.com/picmoney/data-cleaner/pkg/model"
)

// DatasetJob represents the cleaning of one dataset
type DatasetJob struct {
	ID         string        // Unique job identifier
	Dataset    model.Dataset // Dataset descriptor
	SourcePath string        // Input file
	OutputPath string        // Cleaned CSV destination
	CreatedAt  time.Time     // Job creation timestamp
}

// NewDatasetJob creates a new dataset job
func NewDatasetJob(ds model.Dataset, sourcePath, outputPath string) DatasetJob {
	return DatasetJob{
		ID:         uuid.New().String(),
		Dataset:    ds,
		SourcePath: sourcePath,
		OutputPath: outputPath,
		CreatedAt:  time.Now(),
	}
}

// Name returns the dataset name
func (j DatasetJob) Name() string {
	return j.Dataset.Name
}

// JobResult represents the result of a dataset job
type JobResult struct {
	JobID              string
	Dataset            string
	OutputPath         string
	Success            bool
	RowsRead           int
	RowsWritten        int
	RowsDropped        int
	CleaningOperations int
	OperationCounts    map[string]int
	Verification       *VerificationReport
	Errors             []ErrorRecord
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}

// NewJobResult initializes a result for a job
func NewJobResult(job DatasetJob) *JobResult {
	return &JobResult{
		JobID:           job.ID,
		Dataset:         job.Name(),
		OutputPath:      job.OutputPath,
		StartTime:       time.Now(),
		OperationCounts: make(map[string]int),
		Errors:          make([]ErrorRecord, 0),
	}
}

// Complete marks the job as complete and calculates duration
func (r *JobResult) Complete(success bool) {
	r.EndTime = time.Now()
	r.Duration = r.EndTime.Sub(r.StartTime)
	r.Success = success && len(r.Errors) == 0
}

// AddError adds an error to the result
func (r *JobResult) AddError(err ErrorRecord) {
	r.Errors = append(r.Errors, err)
	r.Success = false
}

// HasErrors checks if any errors occurred
func (r *JobResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// RunSummary represents the final run summary
type RunSummary struct {
	RunID              string
	Datasets           []string
	SuccessfulDatasets int
	FailedDatasets     int
	TotalRowsRead      int
	TotalRowsWritten   int
	TotalRowsDropped   int
	TotalCleaningOps   int
	ErrorCategories    map[ErrorCategory]int
	Results            []JobResult
	Duration           time.Duration
	StartTime          time.Time
	EndTime            time.Time
	Throughput         float64 // rows/second
	PeakMemoryUsage    int64
}

// Result returns the result of a dataset, nil when it did not run
func (s *RunSummary) Result(dataset string) *JobResult {
	for i := range s.Results {
		if s.Results[i].Dataset == dataset {
			return &s.Results[i]
		}
	}
	return nil
}

// OverallSuccessRate returns the percentage of datasets cleaned successfully
func (s *RunSummary) OverallSuccessRate() float64 {
	total := s.SuccessfulDatasets + s.FailedDatasets
	if total == 0 {
		return 0
	}
	return float64(s.SuccessfulDatasets) / float64(total) * 100
}
