// pkg/cleaner/operations.go
package cleaner

import (
	"context"
	"database/sql"
	"regexp"

	"github.com/picmoney/data-cleaner/pkg/converter"
	"github.com/picmoney/data-cleaner/pkg/model"
)

var nonDigits = regexp.MustCompile(`\D+`)

// Step is one column-wise transformation applied to a Frame
type Step interface {
	Name() string
	Apply(ctx context.Context, f *Frame, rec *Recorder) error
}

// NormalizePhone strips every non-digit character from a phone column.
// Missing phones stay missing.
type NormalizePhone struct {
	Column string
}

func (s NormalizePhone) Name() string { return "normalize_phone" }

func (s NormalizePhone) Apply(_ context.Context, f *Frame, rec *Recorder) error {
	cells, err := f.Column(s.Column)
	if err != nil {
		return err
	}
	for i, cell := range cells {
		if !cell.Valid {
			continue
		}
		digits := nonDigits.ReplaceAllString(cell.String, "")
		if digits != cell.String {
			rec.Record(s.Column, i, cell.String, digits, model.OpPhoneNormalized, "non_digit_characters")
			cells[i].String = digits
		}
	}
	return f.SetColumn(s.Column, cells)
}

// ParseDates rewrites day/month/year dates as yyyy-mm-dd.
// Unparseable dates become missing.
type ParseDates struct {
	Columns []string
}

func (s ParseDates) Name() string { return "parse_dates" }

func (s ParseDates) Apply(_ context.Context, f *Frame, rec *Recorder) error {
	for _, col := range s.Columns {
		err := mapColumn(f, col, func(i int, value string) sql.NullString {
			t, err := converter.ParseDate(value)
			if err != nil {
				rec.Record(col, i, value, "", model.OpDateParseFailed, "invalid_date_format")
				return sql.NullString{}
			}
			return valid(converter.FormatDate(t))
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// ParseTimes rewrites hour:minute:second times as HH:MM:SS.
// Unparseable times become missing.
type ParseTimes struct {
	Columns []string
}

func (s ParseTimes) Name() string { return "parse_times" }

func (s ParseTimes) Apply(_ context.Context, f *Frame, rec *Recorder) error {
	for _, col := range s.Columns {
		err := mapColumn(f, col, func(i int, value string) sql.NullString {
			t, err := converter.ParseTime(value)
			if err != nil {
				rec.Record(col, i, value, "", model.OpTimeParseFailed, "invalid_time_format")
				return sql.NullString{}
			}
			return valid(converter.FormatTime(t))
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// ParseDecimals parses monetary columns. Unparseable values become missing.
type ParseDecimals struct {
	Columns []string
}

func (s ParseDecimals) Name() string { return "parse_decimals" }

func (s ParseDecimals) Apply(_ context.Context, f *Frame, rec *Recorder) error {
	for _, col := range s.Columns {
		err := mapColumn(f, col, func(i int, value string) sql.NullString {
			d, err := converter.ParseDecimal(value)
			if err != nil {
				rec.Record(col, i, value, "", model.OpNumericParseFailed, "invalid_number")
				return sql.NullString{}
			}
			return valid(converter.FormatDecimal(d))
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// RepairCoordinates applies RepairCoordinate to each value and parses the
// result as a float. Values that still do not parse become missing.
type RepairCoordinates struct {
	Columns []string
}

func (s RepairCoordinates) Name() string { return "repair_coordinates" }

func (s RepairCoordinates) Apply(_ context.Context, f *Frame, rec *Recorder) error {
	for _, col := range s.Columns {
		err := mapColumn(f, col, func(i int, value string) sql.NullString {
			repaired := RepairCoordinate(value)
			if repaired != value {
				rec.Record(col, i, value, repaired, model.OpCoordinateRepaired, "multiple_decimal_points")
			}
			v, err := converter.ParseFloat(repaired)
			if err != nil {
				rec.Record(col, i, value, "", model.OpCoordinateParseFailed, "invalid_coordinate")
				return sql.NullString{}
			}
			return valid(converter.FormatFloat(v))
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// FillMissing replaces missing values of a column with a sentinel
type FillMissing struct {
	Column string
	Value  string
}

func (s FillMissing) Name() string { return "fill_missing" }

func (s FillMissing) Apply(_ context.Context, f *Frame, rec *Recorder) error {
	cells, err := f.Column(s.Column)
	if err != nil {
		return err
	}
	for i, cell := range cells {
		if cell.Valid {
			continue
		}
		rec.Record(s.Column, i, nil, s.Value, model.OpDefaultFilled, "missing_value")
		cells[i] = valid(s.Value)
	}
	return f.SetColumn(s.Column, cells)
}

// MapCategory derives Target from Source through a lookup table. Missing or
// unknown sources get Default. Target may equal Source to replace in place.
type MapCategory struct {
	Source  string
	Target  string
	Lookup  func(string) (string, bool)
	Default string
}

func (s MapCategory) Name() string { return "map_category" }

func (s MapCategory) Apply(_ context.Context, f *Frame, rec *Recorder) error {
	cells, err := f.Column(s.Source)
	if err != nil {
		return err
	}
	out := make([]sql.NullString, len(cells))
	for i, cell := range cells {
		if cell.Valid {
			if label, ok := s.Lookup(cell.String); ok {
				out[i] = valid(label)
				continue
			}
			rec.Record(s.Target, i, cell.String, s.Default, model.OpCategoryDefault, "unmapped_value")
		} else {
			rec.Record(s.Target, i, nil, s.Default, model.OpCategoryDefault, "missing_value")
		}
		out[i] = valid(s.Default)
	}
	return f.SetColumn(s.Target, out)
}

// CoerceBool turns a yes/no marker into True/False. Only TrueValue is true;
// anything other than TrueValue or FalseValue, missing included, is recorded.
type CoerceBool struct {
	Column     string
	TrueValue  string
	FalseValue string
}

func (s CoerceBool) Name() string { return "coerce_bool" }

func (s CoerceBool) Apply(_ context.Context, f *Frame, rec *Recorder) error {
	cells, err := f.Column(s.Column)
	if err != nil {
		return err
	}
	for i, cell := range cells {
		flag := cell.Valid && cell.String == s.TrueValue
		rendered := converter.FormatBool(flag)
		switch {
		case !cell.Valid:
			rec.Record(s.Column, i, nil, rendered, model.OpBooleanCoerced, "missing_value")
		case cell.String != s.TrueValue && cell.String != s.FalseValue:
			rec.Record(s.Column, i, cell.String, rendered, model.OpBooleanCoerced, "unrecognized_marker")
		}
		cells[i] = valid(rendered)
	}
	return f.SetColumn(s.Column, cells)
}

// DropMissing removes rows where any of the columns is missing
type DropMissing struct {
	Columns []string
}

func (s DropMissing) Name() string { return "drop_missing" }

func (s DropMissing) Apply(_ context.Context, f *Frame, rec *Recorder) error {
	mask := make([]bool, f.Nrow())
	for i := range mask {
		mask[i] = true
	}
	for _, col := range s.Columns {
		cells, err := f.Column(col)
		if err != nil {
			return err
		}
		for i, cell := range cells {
			if mask[i] && (!cell.Valid || cell.String == "") {
				rec.Record(col, i, nil, "", model.OpRowDropped, "missing_required_value")
				mask[i] = false
			}
		}
	}
	return f.Keep(mask)
}

// mapColumn rewrites the present cells of a column; missing cells are left alone
func mapColumn(f *Frame, col string, fn func(i int, value string) sql.NullString) error {
	cells, err := f.Column(col)
	if err != nil {
		return err
	}
	for i, cell := range cells {
		if !cell.Valid {
			continue
		}
		cells[i] = fn(i, cell.String)
	}
	return f.SetColumn(col, cells)
}

func valid(s string) sql.NullString {
	return sql.NullString{String: s, Valid: true}
}
