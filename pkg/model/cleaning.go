// pkg/model/cleaning.go
package model

import (
	"time"
)

// Cleaning operation types recorded for audit
const (
	OpPhoneNormalized       = "phone_normalized"
	OpDateParseFailed       = "date_parse_failed"
	OpTimeParseFailed       = "time_parse_failed"
	OpNumericParseFailed    = "numeric_parse_failed"
	OpCoordinateRepaired    = "coordinate_repaired"
	OpCoordinateParseFailed = "coordinate_parse_failed"
	OpDefaultFilled         = "default_filled"
	OpCategoryDefault       = "category_default"
	OpBooleanCoerced        = "boolean_coerced"
	OpRowDropped            = "row_dropped"
)

// CleaningOperation represents a single data cleaning operation
type CleaningOperation struct {
	RunID             string      // Identifies the batch run that produced the operation
	Dataset           string      // Dataset name (players, transacoes, ...)
	ColumnName        string      // Column that was cleaned
	RowNumber         int         // 1-based data row in the source file
	OriginalValue     interface{} // Original value (nil when the cell was missing)
	NewValue          string      // New value after cleaning, empty when it became missing
	CleaningOperation string      // Type of cleaning performed (e.g., "coordinate_repaired")
	CleaningReason    string      // Reason for cleaning (e.g., "multiple_decimal_points")
	CleanedAt         time.Time   // When the cleaning occurred
}

// CleaningContext contains information needed for cleaning a value
type CleaningContext struct {
	RunID      string
	Dataset    string
	ColumnName string
	RowNumber  int
}

// Operation builds a CleaningOperation for the context
func (c CleaningContext) Operation(original interface{}, newValue, operation, reason string) CleaningOperation {
	return CleaningOperation{
		RunID:             c.RunID,
		Dataset:           c.Dataset,
		ColumnName:        c.ColumnName,
		RowNumber:         c.RowNumber,
		OriginalValue:     original,
		NewValue:          newValue,
		CleaningOperation: operation,
		CleaningReason:    reason,
		CleanedAt:         time.Now(),
	}
}
