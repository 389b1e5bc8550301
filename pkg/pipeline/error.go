// pkg/pipeline/error.go
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/picmoney/data-cleaner/pkg/cleaner"
)

// Action defines the recommended action after an error
type Action int

const (
	// ActionContinue indicates processing should continue despite the error
	ActionContinue Action = iota
	// ActionAbort indicates the entire run should be aborted
	ActionAbort
)

// ErrorCategory defines categories of errors during a run
type ErrorCategory int

const (
	ErrorCategoryNone ErrorCategory = iota
	ErrorCategoryWarning
	ErrorCategoryInput
	ErrorCategorySchema
	ErrorCategoryCleaning
	ErrorCategoryOutput
	ErrorCategoryVerification
	ErrorCategorySink
	ErrorCategoryCancelled
)

// String returns a string representation of the error category
func (ec ErrorCategory) String() string {
	switch ec {
	case ErrorCategoryNone:
		return "None"
	case ErrorCategoryWarning:
		return "Warning"
	case ErrorCategoryInput:
		return "Input"
	case ErrorCategorySchema:
		return "Schema"
	case ErrorCategoryCleaning:
		return "Cleaning"
	case ErrorCategoryOutput:
		return "Output"
	case ErrorCategoryVerification:
		return "Verification"
	case ErrorCategorySink:
		return "Sink"
	case ErrorCategoryCancelled:
		return "Cancelled"
	default:
		return fmt.Sprintf("Unknown(%d)", ec)
	}
}

// MarshalText renders the category by name, so JSON maps keyed by it stay readable
func (ec ErrorCategory) MarshalText() ([]byte, error) {
	return []byte(ec.String()), nil
}

// ErrorRecord represents a single failure during a run
type ErrorRecord struct {
	Category  ErrorCategory
	Dataset   string
	Stage     string
	Error     error
	Message   string // Derived from Error but stored for serialization
	Timestamp time.Time
}

// NewErrorRecord creates a new error record with current timestamp
func NewErrorRecord(err error, category ErrorCategory) ErrorRecord {
	record := ErrorRecord{
		Category:  category,
		Error:     err,
		Timestamp: time.Now(),
	}

	if err != nil {
		record.Message = err.Error()
	}

	return record
}

// WithDataset adds dataset information to the error record
func (r ErrorRecord) WithDataset(dataset string) ErrorRecord {
	r.Dataset = dataset
	return r
}

// WithStage adds the failing stage to the error record
func (r ErrorRecord) WithStage(stage string) ErrorRecord {
	r.Stage = stage
	return r
}

// String returns a formatted error message
func (r ErrorRecord) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s] ", r.Category))

	if r.Dataset != "" {
		sb.WriteString(fmt.Sprintf("Dataset: %s ", r.Dataset))
	}

	if r.Stage != "" {
		sb.WriteString(fmt.Sprintf("Stage: %s ", r.Stage))
	}

	if r.Error != nil {
		sb.WriteString(fmt.Sprintf("Error: %s", r.Error.Error()))
	} else if r.Message != "" {
		sb.WriteString(fmt.Sprintf("Error: %s", r.Message))
	}

	return sb.String()
}

// ErrorHandler classifies and tracks failures during a run
type ErrorHandler struct {
	logger       *zap.Logger
	errorCounts  map[ErrorCategory]int
	sampleErrors map[ErrorCategory][]ErrorRecord
	datasetErrs  map[string]int
	mu           sync.Mutex
	maxSamples   int
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *zap.Logger) *ErrorHandler {
	return &ErrorHandler{
		logger:       logger,
		errorCounts:  make(map[ErrorCategory]int),
		sampleErrors: make(map[ErrorCategory][]ErrorRecord),
		datasetErrs:  make(map[string]int),
		maxSamples:   5, // Store up to 5 sample errors per category
	}
}

// CategorizeError refines the category of a stage failure from the error itself
func (eh *ErrorHandler) CategorizeError(err error, stage ErrorCategory) ErrorCategory {
	if err == nil {
		return ErrorCategoryNone
	}

	var category ErrorCategory
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		category = ErrorCategoryCancelled
	case errors.Is(err, cleaner.ErrMissingColumn):
		category = ErrorCategorySchema
	case stage == ErrorCategoryInput && errors.Is(err, fs.ErrNotExist):
		category = ErrorCategoryInput
	default:
		category = stage
	}

	if eh.logger != nil {
		eh.logger.Debug("Categorized error",
			zap.String("error", err.Error()),
			zap.String("category", category.String()))
	}

	return category
}

// HandleError records an error and determines the action.
// Every failure except a warning aborts the run.
func (eh *ErrorHandler) HandleError(record ErrorRecord) Action {
	eh.RecordError(record)

	switch record.Category {
	case ErrorCategoryNone, ErrorCategoryWarning:
		return ActionContinue
	default:
		if eh.logger != nil {
			eh.logger.Error("Aborting run",
				zap.String("dataset", record.Dataset),
				zap.String("stage", record.Stage),
				zap.String("category", record.Category.String()),
				zap.String("error", record.Message))
		}
		return ActionAbort
	}
}

// RecordError tracks an error for the summary
func (eh *ErrorHandler) RecordError(record ErrorRecord) {
	eh.mu.Lock()
	defer eh.mu.Unlock()

	eh.errorCounts[record.Category]++
	if record.Dataset != "" {
		eh.datasetErrs[record.Dataset]++
	}
	if len(eh.sampleErrors[record.Category]) < eh.maxSamples {
		eh.sampleErrors[record.Category] = append(eh.sampleErrors[record.Category], record)
	}
}

// GetErrorSummary returns error counts by category
func (eh *ErrorHandler) GetErrorSummary() map[ErrorCategory]int {
	eh.mu.Lock()
	defer eh.mu.Unlock()

	summary := make(map[ErrorCategory]int, len(eh.errorCounts))
	for category, count := range eh.errorCounts {
		summary[category] = count
	}
	return summary
}

// GetErrorSamples returns the sampled errors by category
func (eh *ErrorHandler) GetErrorSamples() map[ErrorCategory][]ErrorRecord {
	eh.mu.Lock()
	defer eh.mu.Unlock()

	samples := make(map[ErrorCategory][]ErrorRecord, len(eh.sampleErrors))
	for category, records := range eh.sampleErrors {
		samples[category] = append([]ErrorRecord(nil), records...)
	}
	return samples
}

// FailedDatasets returns the datasets with at least one error, sorted
func (eh *ErrorHandler) FailedDatasets() []string {
	eh.mu.Lock()
	defer eh.mu.Unlock()

	names := make([]string, 0, len(eh.datasetErrs))
	for name := range eh.datasetErrs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasErrors reports whether any non-warning error was recorded
func (eh *ErrorHandler) HasErrors() bool {
	eh.mu.Lock()
	defer eh.mu.Unlock()

	for category, count := range eh.errorCounts {
		if category > ErrorCategoryWarning && count > 0 {
			return true
		}
	}
	return false
}

// WrapError creates a new error with additional context
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
