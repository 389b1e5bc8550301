// pkg/converter/mapping.go
package converter

import (
	"fmt"

	"github.com/lib/pq"

	"github.com/picmoney/data-cleaner/pkg/model"
)

// MapKindToSQLType returns the SQLite column type for a column kind
func (c *TypeConverter) MapKindToSQLType(kind model.ColumnKind) string {
	switch kind {
	case model.KindDecimal, model.KindFloat:
		return "REAL"
	case model.KindBool:
		if c.config.BoolAsInteger {
			return "INTEGER"
		}
		return "BOOLEAN"
	default:
		return "TEXT"
	}
}

// GenerateColumnDefinitions creates column definitions for the given header
func (c *TypeConverter) GenerateColumnDefinitions(ds *model.Dataset, columns []string) []string {
	definitions := make([]string, 0, len(columns))
	for _, name := range columns {
		definitions = append(definitions, fmt.Sprintf("%s %s",
			pq.QuoteIdentifier(name),
			c.MapKindToSQLType(ds.KindOf(name))))
	}
	return definitions
}

// ColumnKinds resolves the kind of every column in a header
func ColumnKinds(ds *model.Dataset, columns []string) []model.ColumnKind {
	kinds := make([]model.ColumnKind, len(columns))
	for i, name := range columns {
		kinds[i] = ds.KindOf(name)
	}
	return kinds
}
