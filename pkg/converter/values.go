// pkg/converter/values.go
package converter

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// Source layouts. Day, month, hour, minute and second accept one or two digits.
const (
	SourceDateLayout = "2/1/2006"
	SourceTimeLayout = "15:4:5"
)

// Output layouts
const (
	OutputDateLayout = "2006-01-02"
	OutputTimeLayout = "15:04:05"
)

// NullTokens are the cell values read as missing, matching the defaults of
// the dataframe tooling the extracts were produced with.
var NullTokens = []string{
	"", "#N/A", "#N/A N/A", "#NA", "-1.#IND", "-1.#QNAN", "-NaN", "-nan",
	"1.#IND", "1.#QNAN", "<NA>", "N/A", "NA", "NULL", "NaN", "None",
	"n/a", "nan", "null",
}

var errEmpty = errors.New("empty value")

// IsNull determines if a raw cell should be treated as missing
func IsNull(value string) bool {
	for _, token := range NullTokens {
		if value == token {
			return true
		}
	}
	return false
}

// ParseDate parses a day/month/year date
func ParseDate(value string) (time.Time, error) {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return time.Time{}, errEmpty
	}
	t, err := time.Parse(SourceDateLayout, cleaned)
	if err != nil {
		return time.Time{}, fmt.Errorf("cannot parse date from '%s': %w", cleaned, err)
	}
	return t, nil
}

// ParseTime parses an hour:minute:second time of day
func ParseTime(value string) (time.Time, error) {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return time.Time{}, errEmpty
	}
	t, err := time.Parse(SourceTimeLayout, cleaned)
	if err != nil {
		return time.Time{}, fmt.Errorf("cannot parse time from '%s': %w", cleaned, err)
	}
	return t, nil
}

// ParseDecimal parses a monetary value with a '.' decimal separator
func ParseDecimal(value string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return decimal.Zero, errEmpty
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("cannot parse decimal from '%s': %w", cleaned, err)
	}
	return d, nil
}

// ParseFloat parses a floating-point value, rejecting NaN and infinities
func ParseFloat(value string) (float64, error) {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0, errEmpty
	}
	f, err := cast.ToFloat64E(cleaned)
	if err != nil {
		return 0, fmt.Errorf("cannot parse float from '%s': %w", cleaned, err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("cannot parse float from '%s': not a finite number", cleaned)
	}
	return f, nil
}

// FormatDate renders a date as yyyy-mm-dd
func FormatDate(t time.Time) string {
	return t.Format(OutputDateLayout)
}

// FormatTime renders a time of day as HH:MM:SS
func FormatTime(t time.Time) string {
	return t.Format(OutputTimeLayout)
}

// FormatDecimal renders a decimal the way a float column is written:
// shortest form, with ".0" appended to whole numbers
func FormatDecimal(d decimal.Decimal) string {
	return withFraction(d.String())
}

// FormatFloat renders a float in its shortest round-trip form, with ".0"
// appended to whole numbers
func FormatFloat(f float64) string {
	return withFraction(strconv.FormatFloat(f, 'f', -1, 64))
}

// FormatBool renders a flag as True/False
func FormatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// ParseBool reads a flag written by FormatBool
func ParseBool(value string) (bool, error) {
	return cast.ToBoolE(strings.TrimSpace(value))
}

func withFraction(s string) string {
	if strings.ContainsAny(s, ".eE") {
		return s
	}
	return s + ".0"
}
