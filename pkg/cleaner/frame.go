// pkg/cleaner/frame.go
package cleaner

import (
	"bytes"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/picmoney/data-cleaner/pkg/converter"
)

// missingMarker is how gota stores a missing string cell
const missingMarker = "NaN"

// ReadOptions controls how delimited text is parsed into a Frame
type ReadOptions struct {
	Delimiter  rune
	NullTokens []string
}

// SourceReadOptions parses the semicolon-delimited source extracts
func SourceReadOptions() ReadOptions {
	return ReadOptions{Delimiter: ';', NullTokens: converter.NullTokens}
}

// OutputReadOptions parses files written by Frame.WriteCSV, where only empty cells are missing
func OutputReadOptions() ReadOptions {
	return ReadOptions{Delimiter: ',', NullTokens: []string{""}}
}

// Frame is an in-memory record set with named text columns
type Frame struct {
	Dataset string
	df      dataframe.DataFrame
}

// ReadFrame parses delimited text with a header row. Every column is loaded as text.
// A header without data rows yields an empty frame with those columns.
func ReadFrame(r io.Reader, dataset string, opts ReadOptions) (*Frame, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dataset, err)
	}

	header, err := headerOnly(data, opts.Delimiter)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", dataset, err)
	}
	if header != nil {
		return NewFrame(dataset, header, make([][]sql.NullString, len(header)))
	}

	df := dataframe.ReadCSV(bytes.NewReader(data),
		dataframe.WithDelimiter(opts.Delimiter),
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(opts.NullTokens),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", dataset, df.Err)
	}
	return &Frame{Dataset: dataset, df: df}, nil
}

// headerOnly returns the header when data holds a header row and nothing else.
// It returns nil when there are data rows, or no header at all.
func headerOnly(data []byte, delimiter rune) ([]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if _, err := reader.Read(); !errors.Is(err, io.EOF) {
		return nil, nil
	}
	return header, nil
}

// NewFrame builds a Frame from columns given in order
func NewFrame(dataset string, names []string, columns [][]sql.NullString) (*Frame, error) {
	if len(names) != len(columns) {
		return nil, fmt.Errorf("got %d names for %d columns", len(names), len(columns))
	}
	cols := make([]series.Series, len(names))
	for i, name := range names {
		cols[i] = toSeries(name, columns[i], missingMarker)
	}
	df := dataframe.New(cols...)
	if df.Err != nil {
		return nil, fmt.Errorf("failed to build %s frame: %w", dataset, df.Err)
	}
	return &Frame{Dataset: dataset, df: df}, nil
}

// Names returns the column names in order
func (f *Frame) Names() []string {
	return f.df.Names()
}

// Nrow returns the number of rows
func (f *Frame) Nrow() int {
	return f.df.Nrow()
}

// HasColumn reports whether the frame has a column
func (f *Frame) HasColumn(name string) bool {
	for _, n := range f.df.Names() {
		if n == name {
			return true
		}
	}
	return false
}

// Column returns the cells of a column; missing cells are not Valid
func (f *Frame) Column(name string) ([]sql.NullString, error) {
	if !f.HasColumn(name) {
		return nil, fmt.Errorf("%s: column %q not found", f.Dataset, name)
	}
	s := f.df.Col(name)
	if s.Err != nil {
		return nil, fmt.Errorf("%s: column %q: %w", f.Dataset, name, s.Err)
	}
	records := s.Records()
	nan := s.IsNaN()
	cells := make([]sql.NullString, len(records))
	for i, v := range records {
		if nan[i] {
			continue
		}
		cells[i] = sql.NullString{String: v, Valid: true}
	}
	return cells, nil
}

// SetColumn replaces a column, or appends it when the frame does not have it yet
func (f *Frame) SetColumn(name string, cells []sql.NullString) error {
	if len(cells) != f.Nrow() {
		return fmt.Errorf("%s: column %q has %d cells for %d rows", f.Dataset, name, len(cells), f.Nrow())
	}
	df := f.df.Mutate(toSeries(name, cells, missingMarker))
	if df.Err != nil {
		return fmt.Errorf("%s: failed to set column %q: %w", f.Dataset, name, df.Err)
	}
	f.df = df
	return nil
}

// Keep retains the rows whose mask entry is true, preserving order
func (f *Frame) Keep(mask []bool) error {
	if len(mask) != f.Nrow() {
		return fmt.Errorf("%s: mask has %d entries for %d rows", f.Dataset, len(mask), f.Nrow())
	}
	indexes := make([]int, 0, len(mask))
	for i, keep := range mask {
		if keep {
			indexes = append(indexes, i)
		}
	}
	if len(indexes) == len(mask) {
		return nil
	}
	df := f.df.Subset(indexes)
	if df.Err != nil {
		return fmt.Errorf("%s: failed to filter rows: %w", f.Dataset, df.Err)
	}
	f.df = df
	return nil
}

// Columns returns every column in order
func (f *Frame) Columns() ([][]sql.NullString, error) {
	names := f.Names()
	cols := make([][]sql.NullString, len(names))
	for i, name := range names {
		cells, err := f.Column(name)
		if err != nil {
			return nil, err
		}
		cols[i] = cells
	}
	return cols, nil
}

// WriteCSV writes the frame as comma-delimited text with a header row.
// Missing cells are written empty.
func (f *Frame) WriteCSV(w io.Writer) error {
	names := f.Names()
	columns, err := f.Columns()
	if err != nil {
		return err
	}
	cols := make([]series.Series, len(names))
	for i, name := range names {
		cols[i] = toSeries(name, columns[i], "")
	}
	out := dataframe.New(cols...)
	if out.Err != nil {
		return fmt.Errorf("%s: failed to prepare output: %w", f.Dataset, out.Err)
	}
	if err := out.WriteCSV(w); err != nil {
		return fmt.Errorf("%s: failed to write csv: %w", f.Dataset, err)
	}
	return nil
}

// toSeries builds a string series, writing missing cells as the given marker
func toSeries(name string, cells []sql.NullString, missing string) series.Series {
	values := make([]string, len(cells))
	for i, cell := range cells {
		if cell.Valid {
			values[i] = cell.String
		} else {
			values[i] = missing
		}
	}
	return series.New(values, series.String, name)
}
