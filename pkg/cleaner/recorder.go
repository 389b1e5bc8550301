// pkg/cleaner/recorder.go
package cleaner

import (
	"sort"

	"github.com/picmoney/data-cleaner/pkg/model"
)

// Recorder collects the cleaning operations applied to one dataset.
// Counts are always kept; individual operations only when details are enabled.
// A Recorder is owned by a single dataset run and is not safe for concurrent use.
type Recorder struct {
	runID      string
	dataset    string
	keepDetail bool

	counts     map[string]int
	operations []model.CleaningOperation
}

// NewRecorder creates a Recorder for a dataset
func NewRecorder(runID, dataset string, keepDetail bool) *Recorder {
	return &Recorder{
		runID:      runID,
		dataset:    dataset,
		keepDetail: keepDetail,
		counts:     make(map[string]int),
	}
}

// Record registers one operation on a cell. row is the 0-based frame index.
func (r *Recorder) Record(column string, row int, original interface{}, newValue, operation, reason string) {
	r.counts[operation]++
	if !r.keepDetail {
		return
	}
	ctx := model.CleaningContext{
		RunID:      r.runID,
		Dataset:    r.dataset,
		ColumnName: column,
		RowNumber:  row + 1,
	}
	r.operations = append(r.operations, ctx.Operation(original, newValue, operation, reason))
}

// Count returns how many times an operation was recorded
func (r *Recorder) Count(operation string) int {
	return r.counts[operation]
}

// Counts returns a copy of the per-operation counters
func (r *Recorder) Counts() map[string]int {
	out := make(map[string]int, len(r.counts))
	for k, v := range r.counts {
		out[k] = v
	}
	return out
}

// Total returns the number of recorded operations
func (r *Recorder) Total() int {
	total := 0
	for _, v := range r.counts {
		total += v
	}
	return total
}

// OperationNames returns the recorded operation types, sorted
func (r *Recorder) OperationNames() []string {
	names := make([]string, 0, len(r.counts))
	for k := range r.counts {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Operations returns the detailed operations, nil when details are disabled
func (r *Recorder) Operations() []model.CleaningOperation {
	return r.operations
}

// Dataset returns the dataset name
func (r *Recorder) Dataset() string {
	return r.dataset
}
