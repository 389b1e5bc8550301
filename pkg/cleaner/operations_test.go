package cleaner

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/picmoney/data-cleaner/pkg/category"
	"github.com/picmoney/data-cleaner/pkg/model"
)

func cells(values ...string) []sql.NullString {
	out := make([]sql.NullString, len(values))
	for i, v := range values {
		if v == "<missing>" {
			continue
		}
		out[i] = sql.NullString{String: v, Valid: true}
	}
	return out
}

func newTestFrame(t *testing.T, columns map[string][]sql.NullString, order ...string) *Frame {
	t.Helper()
	cols := make([][]sql.NullString, len(order))
	for i, name := range order {
		cols[i] = columns[name]
	}
	f, err := NewFrame("test", order, cols)
	require.NoError(t, err)
	return f
}

func columnValues(t *testing.T, f *Frame, name string) []string {
	t.Helper()
	col, err := f.Column(name)
	require.NoError(t, err)
	out := make([]string, len(col))
	for i, c := range col {
		if !c.Valid {
			out[i] = "<missing>"
			continue
		}
		out[i] = c.String
	}
	return out
}

func TestNormalizePhone(t *testing.T) {
	f := newTestFrame(t, map[string][]sql.NullString{
		"celular": cells("(11) 91234-5678", "11912345678", "<missing>", "+55 11 9.1234"),
	}, "celular")
	rec := NewRecorder("run", "test", true)

	require.NoError(t, NormalizePhone{Column: "celular"}.Apply(context.Background(), f, rec))

	assert.Equal(t, []string{"11912345678", "11912345678", "<missing>", "551191234"}, columnValues(t, f, "celular"))
	assert.Equal(t, 2, rec.Count(model.OpPhoneNormalized))

	ops := rec.Operations()
	require.Len(t, ops, 2)
	assert.Equal(t, 1, ops[0].RowNumber)
	assert.Equal(t, "(11) 91234-5678", ops[0].OriginalValue)
	assert.Equal(t, "run", ops[0].RunID)
	assert.Equal(t, 4, ops[1].RowNumber)
}

func TestParseDatesAndTimes(t *testing.T) {
	f := newTestFrame(t, map[string][]sql.NullString{
		"data": cells("15/03/2024", "2024-03-15", "<missing>"),
		"hora": cells("9:05:00", "14:30:00", "99:00:00"),
	}, "data", "hora")
	rec := NewRecorder("run", "test", false)

	require.NoError(t, ParseDates{Columns: []string{"data"}}.Apply(context.Background(), f, rec))
	require.NoError(t, ParseTimes{Columns: []string{"hora"}}.Apply(context.Background(), f, rec))

	assert.Equal(t, []string{"2024-03-15", "<missing>", "<missing>"}, columnValues(t, f, "data"))
	assert.Equal(t, []string{"09:05:00", "14:30:00", "<missing>"}, columnValues(t, f, "hora"))
	assert.Equal(t, 1, rec.Count(model.OpDateParseFailed))
	assert.Equal(t, 1, rec.Count(model.OpTimeParseFailed))
	assert.Nil(t, rec.Operations())
}

func TestParseDecimals(t *testing.T) {
	f := newTestFrame(t, map[string][]sql.NullString{
		"valor": cells("10.50", "7", "R$ 3,00", "<missing>"),
	}, "valor")
	rec := NewRecorder("run", "test", false)

	require.NoError(t, ParseDecimals{Columns: []string{"valor"}}.Apply(context.Background(), f, rec))

	assert.Equal(t, []string{"10.5", "7.0", "<missing>", "<missing>"}, columnValues(t, f, "valor"))
	assert.Equal(t, 1, rec.Count(model.OpNumericParseFailed))
}

func TestRepairCoordinatesStep(t *testing.T) {
	f := newTestFrame(t, map[string][]sql.NullString{
		"latitude": cells("-23.558.579.334.631.800", "-23.5615", "abc", "<missing>"),
	}, "latitude")
	rec := NewRecorder("run", "test", false)

	require.NoError(t, RepairCoordinates{Columns: []string{"latitude"}}.Apply(context.Background(), f, rec))

	assert.Equal(t, []string{"-23.5585793346318", "-23.5615", "<missing>", "<missing>"}, columnValues(t, f, "latitude"))
	assert.Equal(t, 1, rec.Count(model.OpCoordinateRepaired))
	assert.Equal(t, 1, rec.Count(model.OpCoordinateParseFailed))
}

func TestFillMissing(t *testing.T) {
	f := newTestFrame(t, map[string][]sql.NullString{
		"produto": cells("Café", "<missing>"),
	}, "produto")
	rec := NewRecorder("run", "test", false)

	require.NoError(t, FillMissing{Column: "produto", Value: NotApplicable}.Apply(context.Background(), f, rec))

	assert.Equal(t, []string{"Café", "N/A"}, columnValues(t, f, "produto"))
	assert.Equal(t, 1, rec.Count(model.OpDefaultFilled))
}

func TestMapCategory(t *testing.T) {
	t.Run("derived column", func(t *testing.T) {
		f := newTestFrame(t, map[string][]sql.NullString{
			"nome": cells("Starbucks", "UnknownBrand", "<missing>"),
		}, "nome")
		rec := NewRecorder("run", "test", false)

		step := MapCategory{Source: "nome", Target: "categoria", Lookup: category.LookupEstablishment, Default: category.DefaultEstablishment}
		require.NoError(t, step.Apply(context.Background(), f, rec))

		assert.Equal(t, []string{"nome", "categoria"}, f.Names())
		assert.Equal(t, []string{"Starbucks", "UnknownBrand", "<missing>"}, columnValues(t, f, "nome"))
		assert.Equal(t, []string{"Cafeterias", "Outros", "Outros"}, columnValues(t, f, "categoria"))
		assert.Equal(t, 2, rec.Count(model.OpCategoryDefault))
	})

	t.Run("in place", func(t *testing.T) {
		f := newTestFrame(t, map[string][]sql.NullString{
			"tipo": cells("farmácia", "N/A", "padaria"),
		}, "tipo")
		rec := NewRecorder("run", "test", false)

		step := MapCategory{Source: "tipo", Target: "tipo", Lookup: category.LookupStoreType, Default: category.DefaultStoreType}
		require.NoError(t, step.Apply(context.Background(), f, rec))

		assert.Equal(t, []string{"tipo"}, f.Names())
		assert.Equal(t, []string{"Farmácias", "Não informado", "Não informado"}, columnValues(t, f, "tipo"))
		assert.Equal(t, 1, rec.Count(model.OpCategoryDefault))
	})
}

func TestCoerceBool(t *testing.T) {
	f := newTestFrame(t, map[string][]sql.NullString{
		"app": cells("Sim", "Não", "sim", "<missing>"),
	}, "app")
	rec := NewRecorder("run", "test", false)

	require.NoError(t, CoerceBool{Column: "app", TrueValue: "Sim", FalseValue: "Não"}.Apply(context.Background(), f, rec))

	assert.Equal(t, []string{"True", "False", "False", "False"}, columnValues(t, f, "app"))
	assert.Equal(t, 2, rec.Count(model.OpBooleanCoerced))
}

func TestDropMissing(t *testing.T) {
	f := newTestFrame(t, map[string][]sql.NullString{
		"id":  cells("1", "2", "3", "4"),
		"a":   cells("1.0", "<missing>", "3.0", "<missing>"),
		"b":   cells("1.0", "2.0", "<missing>", "<missing>"),
		"txt": cells("x", "y", "z", "w"),
	}, "id", "a", "b", "txt")
	rec := NewRecorder("run", "test", true)

	require.NoError(t, DropMissing{Columns: []string{"a", "b"}}.Apply(context.Background(), f, rec))

	assert.Equal(t, 1, f.Nrow())
	assert.Equal(t, []string{"1"}, columnValues(t, f, "id"))
	assert.Equal(t, 3, rec.Count(model.OpRowDropped))

	rows := []int{}
	for _, op := range rec.Operations() {
		rows = append(rows, op.RowNumber)
	}
	assert.Equal(t, []int{2, 4, 3}, rows)
}

func TestDropMissing_EmptyFrame(t *testing.T) {
	f := newTestFrame(t, map[string][]sql.NullString{
		"a": cells(),
		"b": cells(),
	}, "a", "b")
	rec := NewRecorder("run", "test", true)

	require.NoError(t, DropMissing{Columns: []string{"a", "b"}}.Apply(context.Background(), f, rec))
	assert.Equal(t, 0, f.Nrow())
	assert.Equal(t, []string{"a", "b"}, f.Names())
	assert.Equal(t, 0, rec.Total())
}

func TestDropMissing_DropsEveryRow(t *testing.T) {
	f := newTestFrame(t, map[string][]sql.NullString{
		"id": cells("1", "2"),
		"a":  cells("<missing>", "<missing>"),
	}, "id", "a")
	rec := NewRecorder("run", "test", false)

	require.NoError(t, DropMissing{Columns: []string{"a"}}.Apply(context.Background(), f, rec))
	assert.Equal(t, 0, f.Nrow())
	assert.Equal(t, 2, rec.Count(model.OpRowDropped))
	assert.Empty(t, columnValues(t, f, "id"))

	require.NoError(t, FillMissing{Column: "a", Value: "x"}.Apply(context.Background(), f, rec))
	assert.Equal(t, []string{"id", "a"}, f.Names())
}

func TestPipeline_StopsOnError(t *testing.T) {
	f := newTestFrame(t, map[string][]sql.NullString{
		"celular": cells("1"),
	}, "celular")
	rec := NewRecorder("run", "test", false)

	p := NewPipeline(NormalizePhone{Column: "celular"}).Add(FillMissing{Column: "absent", Value: "x"})
	assert.Equal(t, []string{"normalize_phone", "fill_missing"}, p.StepNames())

	err := p.Run(context.Background(), f, rec, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fill_missing")
}

func TestPipeline_Cancelled(t *testing.T) {
	f := newTestFrame(t, map[string][]sql.NullString{
		"celular": cells("(11) 1"),
	}, "celular")
	rec := NewRecorder("run", "test", false)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewPipeline(NormalizePhone{Column: "celular"}).Run(ctx, f, rec, zap.NewNop())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, rec.Total())
}

func TestPipelineFor_UnknownDataset(t *testing.T) {
	ds := model.Dataset{Name: "unknown"}
	_, err := PipelineFor(&ds)
	assert.Error(t, err)

	for _, known := range model.AllDatasets() {
		known := known
		p, err := PipelineFor(&known)
		require.NoError(t, err)
		assert.Equal(t, "normalize_phone", p.StepNames()[0])
	}
}
