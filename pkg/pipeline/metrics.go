// pkg/pipeline/metrics.go
package pipeline

import (
	"encoding/json"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DatasetMetrics tracks metrics for a single dataset
type DatasetMetrics struct {
	Dataset            string
	Duration           time.Duration
	Success            bool
	Error              string
	RowsRead           int
	RowsWritten        int
	RowsDropped        int
	CleaningOperations int
	OperationCounts    map[string]int
}

// RunMetrics tracks metrics for a cleaning run
type RunMetrics struct {
	mu                 sync.Mutex
	logger             *zap.Logger
	RunID              string
	StartTime          time.Time
	EndTime            time.Time
	DatasetMetrics     map[string]*DatasetMetrics
	SuccessfulDatasets int
	FailedDatasets     int
	TotalRowsRead      int
	TotalRowsWritten   int
	TotalRowsDropped   int
	TotalCleaningOps   int
	PeakMemoryUsage    int64
	ErrorCounts        map[ErrorCategory]int
	results            []JobResult
}

// NewRunMetrics creates a new RunMetrics instance
func NewRunMetrics(runID string, logger *zap.Logger) *RunMetrics {
	return &RunMetrics{
		RunID:          runID,
		StartTime:      time.Now(),
		DatasetMetrics: make(map[string]*DatasetMetrics),
		ErrorCounts:    make(map[ErrorCategory]int),
		logger:         logger,
	}
}

// RecordJobResult records metrics for a finished dataset job
func (rm *RunMetrics) RecordJobResult(result JobResult) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	rm.TotalRowsRead += result.RowsRead
	rm.TotalRowsWritten += result.RowsWritten
	rm.TotalRowsDropped += result.RowsDropped
	rm.TotalCleaningOps += result.CleaningOperations

	dm := &DatasetMetrics{
		Dataset:            result.Dataset,
		Duration:           result.Duration,
		Success:            result.Success,
		RowsRead:           result.RowsRead,
		RowsWritten:        result.RowsWritten,
		RowsDropped:        result.RowsDropped,
		CleaningOperations: result.CleaningOperations,
		OperationCounts:    make(map[string]int, len(result.OperationCounts)),
	}
	for op, count := range result.OperationCounts {
		dm.OperationCounts[op] = count
	}

	if result.Success {
		rm.SuccessfulDatasets++
	} else {
		rm.FailedDatasets++
		for _, err := range result.Errors {
			rm.recordError(err.Category)
		}
		if len(result.Errors) > 0 {
			dm.Error = result.Errors[0].Message
		} else {
			dm.Error = "unknown error"
		}
	}
	rm.DatasetMetrics[result.Dataset] = dm
	rm.results = append(rm.results, result)

	rm.sampleMemory()

	if rm.logger != nil {
		rm.logger.Info("Dataset job completed",
			zap.String("dataset", result.Dataset),
			zap.Bool("success", result.Success),
			zap.Int("rowsRead", result.RowsRead),
			zap.Int("rowsWritten", result.RowsWritten),
			zap.Int("rowsDropped", result.RowsDropped),
			zap.Int("cleaningOps", result.CleaningOperations),
			zap.Duration("duration", result.Duration))
	}
}

// recordError must be called with mu held
func (rm *RunMetrics) recordError(category ErrorCategory) {
	rm.ErrorCounts[category]++
}

func (rm *RunMetrics) sampleMemory() {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	if alloc := int64(memStats.Alloc); alloc > rm.PeakMemoryUsage {
		rm.PeakMemoryUsage = alloc
	}
}

// Complete marks the run as complete
func (rm *RunMetrics) Complete() {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	rm.EndTime = time.Now()
	rm.sampleMemory()

	if rm.logger != nil {
		rm.logger.Info("Cleaning run completed",
			zap.String("runId", rm.RunID),
			zap.Duration("totalDuration", rm.duration()),
			zap.Int("successfulDatasets", rm.SuccessfulDatasets),
			zap.Int("failedDatasets", rm.FailedDatasets),
			zap.Int("totalRowsWritten", rm.TotalRowsWritten),
			zap.Float64("throughput", rm.throughput()))
	}
}

// Duration returns the total duration of the run
func (rm *RunMetrics) Duration() time.Duration {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return rm.duration()
}

func (rm *RunMetrics) duration() time.Duration {
	if rm.EndTime.IsZero() {
		return time.Since(rm.StartTime)
	}
	return rm.EndTime.Sub(rm.StartTime)
}

// CalculateThroughput calculates the rows/second throughput
func (rm *RunMetrics) CalculateThroughput() float64 {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return rm.throughput()
}

func (rm *RunMetrics) throughput() float64 {
	seconds := rm.duration().Seconds()
	if seconds <= 0 {
		return 0
	}
	return float64(rm.TotalRowsRead) / seconds
}

// sortedDatasets returns dataset names in a stable order; mu must be held
func (rm *RunMetrics) sortedDatasets() []string {
	names := make([]string, 0, len(rm.DatasetMetrics))
	for name := range rm.DatasetMetrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GenerateRunSummary creates a RunSummary from metrics
func (rm *RunMetrics) GenerateRunSummary() *RunSummary {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	endTime := rm.EndTime
	if endTime.IsZero() {
		endTime = time.Now()
	}

	errorCategories := make(map[ErrorCategory]int, len(rm.ErrorCounts))
	for category, count := range rm.ErrorCounts {
		errorCategories[category] = count
	}

	results := append([]JobResult(nil), rm.results...)
	sort.Slice(results, func(i, j int) bool { return results[i].Dataset < results[j].Dataset })

	return &RunSummary{
		RunID:              rm.RunID,
		Datasets:           rm.sortedDatasets(),
		SuccessfulDatasets: rm.SuccessfulDatasets,
		FailedDatasets:     rm.FailedDatasets,
		TotalRowsRead:      rm.TotalRowsRead,
		TotalRowsWritten:   rm.TotalRowsWritten,
		TotalRowsDropped:   rm.TotalRowsDropped,
		TotalCleaningOps:   rm.TotalCleaningOps,
		ErrorCategories:    errorCategories,
		Results:            results,
		Duration:           rm.duration(),
		StartTime:          rm.StartTime,
		EndTime:            endTime,
		Throughput:         rm.throughput(),
		PeakMemoryUsage:    rm.PeakMemoryUsage,
	}
}

// formatBytes converts bytes to a human-readable string
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// formatDuration formats a duration to a human-readable string
func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	} else if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}

// GenerateMetricsReport creates a detailed metrics report
func (rm *RunMetrics) GenerateMetricsReport() string {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	total := rm.SuccessfulDatasets + rm.FailedDatasets

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`
Cleaning Metrics Report
=======================
Run ID:                  %s
Duration:                %s
Start Time:              %s
End Time:                %s

Datasets Summary
----------------
Total Datasets:          %d
Successful Datasets:     %d (%.1f%%)
Failed Datasets:         %d (%.1f%%)

Data Summary
------------
Total Rows Read:         %d
Total Rows Written:      %d
Total Rows Dropped:      %d
Total Cleaning Ops:      %d
Average Throughput:      %.2f rows/sec

Resource Usage
--------------
Peak Memory Usage:       %s
`,
		rm.RunID,
		formatDuration(rm.duration()),
		rm.StartTime.Format(time.RFC3339),
		rm.EndTime.Format(time.RFC3339),

		total,
		rm.SuccessfulDatasets, getPercentage(float64(rm.SuccessfulDatasets), float64(total)),
		rm.FailedDatasets, getPercentage(float64(rm.FailedDatasets), float64(total)),

		rm.TotalRowsRead,
		rm.TotalRowsWritten,
		rm.TotalRowsDropped,
		rm.TotalCleaningOps,
		rm.throughput(),

		formatBytes(rm.PeakMemoryUsage),
	))

	sb.WriteString("\nDataset Details\n---------------\n")
	for _, name := range rm.sortedDatasets() {
		dm := rm.DatasetMetrics[name]
		status := "ok"
		if !dm.Success {
			status = "failed: " + dm.Error
		}
		sb.WriteString(fmt.Sprintf("- %s: %d read, %d written, %d dropped, %d ops, %s, %s\n",
			name, dm.RowsRead, dm.RowsWritten, dm.RowsDropped, dm.CleaningOperations,
			formatDuration(dm.Duration), status))

		ops := make([]string, 0, len(dm.OperationCounts))
		for op := range dm.OperationCounts {
			ops = append(ops, op)
		}
		sort.Strings(ops)
		for _, op := range ops {
			sb.WriteString(fmt.Sprintf("    %s: %d\n", op, dm.OperationCounts[op]))
		}
	}

	if len(rm.ErrorCounts) > 0 {
		sb.WriteString("\nError Distribution\n------------------\n")
		totalErrors := 0
		categories := make([]ErrorCategory, 0, len(rm.ErrorCounts))
		for category, count := range rm.ErrorCounts {
			totalErrors += count
			categories = append(categories, category)
		}
		sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })

		for _, category := range categories {
			count := rm.ErrorCounts[category]
			sb.WriteString(fmt.Sprintf("- %s: %d (%.1f%%)\n",
				category.String(), count, getPercentage(float64(count), float64(totalErrors))))
		}
	}

	return sb.String()
}

// getPercentage safely calculates a percentage, avoiding division by zero
func getPercentage(value, total float64) float64 {
	if total == 0 {
		return 0
	}
	return (value / total) * 100
}

// ToJSON serializes metrics to JSON
func (rm *RunMetrics) ToJSON() ([]byte, error) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	datasets := make(map[string]map[string]int, len(rm.DatasetMetrics))
	for name, dm := range rm.DatasetMetrics {
		datasets[name] = dm.OperationCounts
	}

	return json.Marshal(struct {
		RunID              string                    `json:"runId"`
		Duration           string                    `json:"duration"`
		SuccessfulDatasets int                       `json:"successfulDatasets"`
		FailedDatasets     int                       `json:"failedDatasets"`
		TotalRowsRead      int                       `json:"totalRowsRead"`
		TotalRowsWritten   int                       `json:"totalRowsWritten"`
		TotalRowsDropped   int                       `json:"totalRowsDropped"`
		TotalCleaningOps   int                       `json:"totalCleaningOps"`
		Throughput         float64                   `json:"throughput"`
		Operations         map[string]map[string]int `json:"operations"`
		Errors             map[ErrorCategory]int     `json:"errors"`
	}{
		RunID:              rm.RunID,
		Duration:           formatDuration(rm.duration()),
		SuccessfulDatasets: rm.SuccessfulDatasets,
		FailedDatasets:     rm.FailedDatasets,
		TotalRowsRead:      rm.TotalRowsRead,
		TotalRowsWritten:   rm.TotalRowsWritten,
		TotalRowsDropped:   rm.TotalRowsDropped,
		TotalCleaningOps:   rm.TotalCleaningOps,
		Throughput:         rm.throughput(),
		Operations:         datasets,
		Errors:             rm.ErrorCounts,
	})
}
