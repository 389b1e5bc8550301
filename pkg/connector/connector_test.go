package connector

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/picmoney/data-cleaner/pkg/config"
	"github.com/picmoney/data-cleaner/pkg/model"
)

func nullable(values ...string) []sql.NullString {
	out := make([]sql.NullString, len(values))
	for i, v := range values {
		if v != "" {
			out[i] = sql.NullString{String: v, Valid: true}
		}
	}
	return out
}

func storesTable(ds *model.Dataset) *Table {
	return &Table{
		Dataset: ds,
		Columns: []string{model.ColNumeroCelular, model.ColLatitude, model.ColValorCompra, model.ColNomeLoja, model.ColTipoLoja},
		Cells: [][]sql.NullString{
			nullable("1133334444", "11933334444"),
			nullable("-23.561234", ""),
			nullable("100.0", "50.0"),
			nullable("Renner", "Loja Nova"),
			nullable("Moda & Varejo", "Outros"),
		},
	}
}

func newTestSQLite(t *testing.T) *SQLiteConnector {
	t.Helper()
	cfg := &config.SQLiteConfig{
		Path:        filepath.Join(t.TempDir(), "export", "picmoney.sqlite"),
		BusyTimeout: time.Second,
	}
	conn, err := NewSQLiteConnector(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, conn.Validate(context.Background()))
	return conn
}

func TestSQLiteConnector_ExportTable(t *testing.T) {
	ctx := context.Background()
	conn := newTestSQLite(t)
	ds := model.StoresDataset()

	require.NoError(t, conn.ExportTable(ctx, storesTable(&ds)))

	count, err := conn.RowCount(ctx, "lojas_cleaned")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	var rows []struct {
		Phone    string          `db:"numero_celular"`
		Latitude sql.NullFloat64 `db:"latitude"`
		Value    float64         `db:"valor_compra"`
		Category string          `db:"tipo_loja"`
	}
	err = conn.db.SelectContext(ctx, &rows,
		`SELECT numero_celular, latitude, valor_compra, tipo_loja FROM lojas_cleaned ORDER BY rowid`)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "1133334444", rows[0].Phone)
	assert.True(t, rows[0].Latitude.Valid)
	assert.InDelta(t, -23.561234, rows[0].Latitude.Float64, 1e-9)
	assert.Equal(t, 100.0, rows[0].Value)
	assert.Equal(t, "Moda & Varejo", rows[0].Category)
	assert.False(t, rows[1].Latitude.Valid)
	assert.Equal(t, "Outros", rows[1].Category)
}

func TestSQLiteConnector_ExportTableIsIdempotent(t *testing.T) {
	ctx := context.Background()
	conn := newTestSQLite(t)
	ds := model.StoresDataset()

	require.NoError(t, conn.ExportTable(ctx, storesTable(&ds)))
	require.NoError(t, conn.ExportTable(ctx, storesTable(&ds)))

	count, err := conn.RowCount(ctx, ds.TableName())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestSQLiteConnector_PathWithURIDelimiters(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "run?1#a%b.sqlite")
	conn, err := NewSQLiteConnector(ctx, &config.SQLiteConfig{Path: path, BusyTimeout: time.Second}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	ds := model.StoresDataset()
	require.NoError(t, conn.ExportTable(ctx, storesTable(&ds)))
	assert.FileExists(t, path)
}

func TestSQLiteConnector_BooleanColumns(t *testing.T) {
	ctx := context.Background()
	conn := newTestSQLite(t)
	ds := model.PedestriansDataset()

	table := &Table{
		Dataset: &ds,
		Columns: []string{model.ColCelular, model.ColPossuiAppPicmoney},
		Cells: [][]sql.NullString{
			nullable("11912345678", "11988887777"),
			nullable("True", "False"),
		},
	}
	require.NoError(t, conn.ExportTable(ctx, table))

	var installed []int
	require.NoError(t, conn.db.SelectContext(ctx, &installed,
		`SELECT possui_app_picmoney FROM pedestres_cleaned ORDER BY rowid`))
	assert.Equal(t, []int{1, 0}, installed)
}

func TestTable_Validate(t *testing.T) {
	ds := model.StoresDataset()

	table := storesTable(&ds)
	require.NoError(t, table.Validate())
	assert.Equal(t, 2, table.Rows())
	assert.Equal(t, "Renner", table.Row(0)[3].String)

	table.Cells[1] = nullable("1")
	assert.Error(t, table.Validate())

	assert.Error(t, (&Table{}).Validate())
	assert.Error(t, (&Table{Dataset: &ds, Columns: []string{"a"}}).Validate())
}

func TestBuildAuditInsert(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	ops := []model.CleaningOperation{
		{RunID: "r", Dataset: "lojas", ColumnName: "valor_compra", RowNumber: 2, CleaningOperation: model.OpRowDropped, CleaningReason: "missing_required_value", CleanedAt: now},
		{RunID: "r", Dataset: "lojas", ColumnName: "latitude", RowNumber: 1, OriginalValue: "-23.561.234", NewValue: "-23.561234", CleaningOperation: model.OpCoordinateRepaired, CleaningReason: "multiple_decimal_points", CleanedAt: now},
	}

	query, args := buildAuditInsert(`"public"."cleaned_on_ingress"`, ops)

	assert.True(t, strings.HasPrefix(query, `INSERT INTO "public"."cleaned_on_ingress" (run_id, dataset, column_name, source_row,`))
	assert.Contains(t, query, "($1, $2, $3, $4, $5, $6, $7, $8, $9), ($10,")
	assert.True(t, strings.HasSuffix(query, "$18)"))
	require.Len(t, args, 18)
	assert.Nil(t, args[4])
	orig, ok := args[13].(*string)
	require.True(t, ok)
	assert.Equal(t, "-23.561.234", *orig)
	assert.Equal(t, 1, args[12])
}

func TestToNullableString(t *testing.T) {
	assert.Nil(t, toNullableString(nil))
	assert.Equal(t, "abc", *toNullableString("abc"))
	assert.Equal(t, "abc", *toNullableString([]byte("abc")))
	assert.Equal(t, "42", *toNullableString(42))
}
