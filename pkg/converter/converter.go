// pkg/converter/converter.go
package converter

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/picmoney/data-cleaner/pkg/model"
)

// TypeConverter maps cleaned cells to typed values for SQL sinks
type TypeConverter struct {
	logger *zap.Logger
	// Configuration options
	config TypeConverterConfig
}

// TypeConverterConfig provides configuration options for type conversion
type TypeConverterConfig struct {
	// Whether to treat empty strings as NULL
	EmptyStringAsNull bool
	// Store booleans as 0/1 integers instead of native booleans
	BoolAsInteger bool
}

// DefaultConfig returns the default configuration
func DefaultConfig() TypeConverterConfig {
	return TypeConverterConfig{
		EmptyStringAsNull: true,
		BoolAsInteger:     true,
	}
}

// NewTypeConverter creates a new TypeConverter with default configuration
func NewTypeConverter(logger *zap.Logger) *TypeConverter {
	return NewTypeConverterWithConfig(logger, DefaultConfig())
}

// NewTypeConverterWithConfig creates a TypeConverter with custom configuration
func NewTypeConverterWithConfig(logger *zap.Logger, config TypeConverterConfig) *TypeConverter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TypeConverter{
		logger: logger,
		config: config,
	}
}

// ConvertValueForSQL converts a cleaned cell to the Go value bound for its column kind
func (c *TypeConverter) ConvertValueForSQL(value sql.NullString, kind model.ColumnKind) (interface{}, error) {
	if !value.Valid {
		return nil, nil
	}
	if value.String == "" && c.config.EmptyStringAsNull {
		return nil, nil
	}

	switch {
	case kind.IsNumeric():
		f, err := ParseFloat(value.String)
		if err != nil {
			return nil, fmt.Errorf("cannot convert '%s' to %s: %w", value.String, kind, err)
		}
		return f, nil

	case kind == model.KindBool:
		b, err := ParseBool(value.String)
		if err != nil {
			return nil, fmt.Errorf("cannot convert '%s' to bool: %w", value.String, err)
		}
		if c.config.BoolAsInteger {
			if b {
				return int64(1), nil
			}
			return int64(0), nil
		}
		return b, nil

	default:
		return value.String, nil
	}
}

// ConvertRow converts a row of cells using the kinds of their columns.
// Cells that fail conversion are stored as NULL and logged.
func (c *TypeConverter) ConvertRow(cells []sql.NullString, kinds []model.ColumnKind) []interface{} {
	out := make([]interface{}, len(cells))
	for i, cell := range cells {
		kind := model.KindText
		if i < len(kinds) {
			kind = kinds[i]
		}
		v, err := c.ConvertValueForSQL(cell, kind)
		if err != nil {
			c.logger.Debug("Storing unconvertible value as NULL",
				zap.String("kind", string(kind)),
				zap.Error(err))
			v = nil
		}
		out[i] = v
	}
	return out
}
