// pkg/cleaner/cleaner.go
package cleaner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/picmoney/data-cleaner/pkg/model"
)

// ErrMissingColumn is returned when a source file lacks a designated column
var ErrMissingColumn = errors.New("missing column")

// Supported input encodings
const (
	EncodingUTF8        = "utf-8"
	EncodingLatin1      = "latin1"
	EncodingWindows1252 = "windows-1252"
)

// Options configures a DataCleaner
type Options struct {
	Encoding       string // Input file encoding, utf-8 when empty
	RunID          string // Stamped on recorded operations
	KeepOperations bool   // Keep every operation, not just counters
}

// DataCleaner loads, cleans and writes PicMoney datasets
type DataCleaner struct {
	logger   *zap.Logger
	encoding encoding.Encoding
	options  Options
}

// Result is the outcome of cleaning one dataset
type Result struct {
	Frame    *Frame
	Recorder *Recorder
	RowsRead int
}

// RowsDropped returns how many rows were removed
func (r *Result) RowsDropped() int {
	return r.RowsRead - r.Frame.Nrow()
}

// NewDataCleaner creates a new DataCleaner instance
func NewDataCleaner(logger *zap.Logger, opts Options) (*DataCleaner, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	enc, err := inputEncoding(opts.Encoding)
	if err != nil {
		return nil, err
	}
	return &DataCleaner{
		logger:   logger.Named("cleaner"),
		encoding: enc,
		options:  opts,
	}, nil
}

func inputEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", EncodingUTF8, "utf8":
		return unicode.UTF8, nil
	case EncodingLatin1, "iso-8859-1":
		return charmap.ISO8859_1, nil
	case EncodingWindows1252, "cp1252":
		return charmap.Windows1252, nil
	default:
		return nil, fmt.Errorf("unsupported input encoding: %s", name)
	}
}

// Load reads a semicolon-delimited source file and checks that every
// designated source column is present
func (c *DataCleaner) Load(path string, ds *model.Dataset) (*Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s source: %w", ds.Name, err)
	}
	defer file.Close()

	var decoder transform.Transformer = c.encoding.NewDecoder()
	if c.encoding == unicode.UTF8 {
		decoder = unicode.BOMOverride(decoder)
	}

	frame, err := ReadFrame(transform.NewReader(file, decoder), ds.Name, SourceReadOptions())
	if err != nil {
		return nil, err
	}

	var missing []string
	for _, col := range ds.SourceColumns() {
		if !frame.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%s source %s: %w: %s", ds.Name, filepath.Base(path), ErrMissingColumn, strings.Join(missing, ", "))
	}

	c.logger.Info("Loaded dataset",
		zap.String("dataset", ds.Name),
		zap.String("file", path),
		zap.Int("rows", frame.Nrow()),
		zap.Int("columns", len(frame.Names())))
	return frame, nil
}

// Clean runs the dataset pipeline over a loaded frame
func (c *DataCleaner) Clean(ctx context.Context, frame *Frame, ds *model.Dataset) (*Result, error) {
	pipeline, err := PipelineFor(ds)
	if err != nil {
		return nil, err
	}

	rec := NewRecorder(c.options.RunID, ds.Name, c.options.KeepOperations)
	result := &Result{Frame: frame, Recorder: rec, RowsRead: frame.Nrow()}
	logger := c.logger.With(zap.String("dataset", ds.Name))

	if err := pipeline.Run(ctx, frame, rec, logger); err != nil {
		return nil, fmt.Errorf("failed to clean %s: %w", ds.Name, err)
	}

	fields := []zap.Field{
		zap.Int("rows_read", result.RowsRead),
		zap.Int("rows_written", frame.Nrow()),
		zap.Int("rows_dropped", result.RowsDropped()),
	}
	for _, op := range rec.OperationNames() {
		fields = append(fields, zap.Int(op, rec.Count(op)))
	}
	logger.Info("Cleaned dataset", fields...)
	return result, nil
}

// Write saves a cleaned frame as CSV, creating the directory if needed
func (c *DataCleaner) Write(frame *Frame, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := frame.WriteCSV(file); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}

	c.logger.Info("Wrote cleaned dataset",
		zap.String("dataset", frame.Dataset),
		zap.String("file", path),
		zap.Int("rows", frame.Nrow()))
	return nil
}
