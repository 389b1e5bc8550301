// pkg/model/metadata.go
package model

import (
	"path/filepath"
	"strings"
)

// ColumnKind describes how a cleaned column is typed once the dataset is written
type ColumnKind string

const (
	KindText     ColumnKind = "text"
	KindPhone    ColumnKind = "phone"
	KindDate     ColumnKind = "date"
	KindTime     ColumnKind = "time"
	KindDecimal  ColumnKind = "decimal"
	KindFloat    ColumnKind = "float"
	KindBool     ColumnKind = "bool"
	KindCategory ColumnKind = "category"
)

// IsNumeric reports whether values of the kind are stored as numbers
func (k ColumnKind) IsNumeric() bool {
	return k == KindDecimal || k == KindFloat
}

// Dataset names
const (
	DatasetPlayers      = "players"
	DatasetTransactions = "transacoes"
	DatasetPedestrians  = "pedestres"
	DatasetStores       = "lojas"
)

// Dataset describes one source extract and its cleaned output
type Dataset struct {
	Name        string   // Short dataset name used in logs and audit rows
	SourceFile  string   // Input file name, relative to the input directory
	OutputFile  string   // Output file name, relative to the output directory
	PhoneColumn string   // Column holding the phone number
	Columns     []Column // Designated columns; any other source column passes through as text
}

// Column represents a designated column of a dataset
type Column struct {
	Name     string     // Column name as it appears in the header
	Kind     ColumnKind // Cleaned type
	Required bool       // Row is dropped when the value is missing after cleaning
	Derived  bool       // Produced by enrichment rather than read from the source
}

// GetColumnByName returns a designated column by name (case-insensitive)
// Returns nil if column not found
func (d *Dataset) GetColumnByName(name string) *Column {
	normalizedName := normalizeColumnName(name)
	for i, col := range d.Columns {
		if normalizeColumnName(col.Name) == normalizedName {
			return &d.Columns[i]
		}
	}
	return nil
}

// SourceColumns lists the designated columns that must exist in the source file
func (d *Dataset) SourceColumns() []string {
	names := make([]string, 0, len(d.Columns))
	for _, col := range d.Columns {
		if !col.Derived {
			names = append(names, col.Name)
		}
	}
	return names
}

// RequiredColumns lists the columns whose missing values drop the row
func (d *Dataset) RequiredColumns() []string {
	var names []string
	for _, col := range d.Columns {
		if col.Required {
			names = append(names, col.Name)
		}
	}
	return names
}

// ColumnsOfKind lists the designated columns of the given kind in declaration order
func (d *Dataset) ColumnsOfKind(kind ColumnKind) []string {
	var names []string
	for _, col := range d.Columns {
		if col.Kind == kind {
			names = append(names, col.Name)
		}
	}
	return names
}

// KindOf returns the kind of a column; passthrough columns are text
func (d *Dataset) KindOf(name string) ColumnKind {
	if col := d.GetColumnByName(name); col != nil {
		return col.Kind
	}
	return KindText
}

// TableName returns the output file stem, used as table name by export sinks
func (d *Dataset) TableName() string {
	base := filepath.Base(d.OutputFile)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// WithSourceFile returns a copy of the dataset reading from another file
func (d Dataset) WithSourceFile(file string) Dataset {
	if file != "" {
		d.SourceFile = file
	}
	return d
}

func normalizeColumnName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
