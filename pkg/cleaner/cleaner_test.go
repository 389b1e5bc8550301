package cleaner

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/picmoney/data-cleaner/pkg/model"
)

const playersCSV = `celular;data_nascimento;cidade_trabalho;bairro_trabalho;cidade_escola;bairro_escola;categoria_frequentada;nome
(11) 91234-5678;15/03/1990;São Paulo;;Campinas;Centro;Cafeterias;Ana
11 98888-7777;31/02/1990;;Pinheiros;;;;Bruno
`

const transactionsCSV = `celular;data;hora;produto;valor_cupom;repasse_picmoney;nome_estabelecimento
(11) 91234-5678;05/03/2024;9:05:00;Café;10.50;1.05;Starbucks
11912345678;06/03/2024;25:00:00;;abc;1.00;UnknownBrand
11912345678;07/03/2024;10:00:00;Lanche;7;0.7;
`

const pedestriansCSV = `celular;latitude;longitude;data;data_ultima_compra;possui_app_picmoney;ultimo_tipo_cupom;ultimo_valor_capturado;ultimo_tipo_loja
11 91234-5678;-23.558.579.334.631.800;-46.660.151;01/02/2024;15/01/2024;Sim;Cashback;12.5;farmácia
11988887777;-23.5615;abc;02/02/2024;;Não;;;
11977776666;-23.56;-46.65;03/02/2024;;talvez;Desconto;3;padaria
`

const storesCSV = `numero_celular;latitude;longitude;data_captura;valor_compra;valor_cupom;nome_loja
(11) 3333-4444;-23.561.234;-46.655.678;10/04/2024;100.00;10.00;Renner
11933334444;-23.5;-46.6;11/04/2024;;5.00;Loja Nova
11933334444;-23.5;-46.6;11/04/2024;50;5;Loja Nova
`

func newTestCleaner(t *testing.T, opts Options) *DataCleaner {
	t.Helper()
	c, err := NewDataCleaner(zap.NewNop(), opts)
	require.NoError(t, err)
	return c
}

// cleanDataset runs load, clean and write for raw source bytes and returns the output text
func cleanDataset(t *testing.T, c *DataCleaner, ds model.Dataset, source []byte) (string, *Result) {
	t.Helper()
	dir := t.TempDir()
	in := filepath.Join(dir, "source.csv")
	require.NoError(t, os.WriteFile(in, source, 0o644))

	frame, err := c.Load(in, &ds)
	require.NoError(t, err)

	result, err := c.Clean(context.Background(), frame, &ds)
	require.NoError(t, err)

	out := filepath.Join(dir, "out", "nested", ds.OutputFile)
	require.NoError(t, c.Write(result.Frame, out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	return string(data), result
}

func lines(s string) []string {
	return strings.Split(strings.TrimRight(s, "\n"), "\n")
}

func TestDataCleaner_Players(t *testing.T) {
	c := newTestCleaner(t, Options{})
	out, result := cleanDataset(t, c, model.PlayersDataset(), []byte(playersCSV))

	assert.Equal(t, []string{
		"celular,data_nascimento,cidade_trabalho,bairro_trabalho,cidade_escola,bairro_escola,categoria_frequentada,nome",
		"11912345678,1990-03-15,São Paulo,Não informado,Campinas,Centro,Cafeterias,Ana",
		"11988887777,,Não informado,Pinheiros,Não informado,Não informado,Não informado,Bruno",
	}, lines(out))
	assert.Equal(t, 0, result.RowsDropped())
	assert.Equal(t, 1, result.Recorder.Count(model.OpDateParseFailed))
	assert.Equal(t, 5, result.Recorder.Count(model.OpDefaultFilled))
}

func TestDataCleaner_Transactions(t *testing.T) {
	c := newTestCleaner(t, Options{})
	out, result := cleanDataset(t, c, model.TransactionsDataset(), []byte(transactionsCSV))

	assert.Equal(t, []string{
		"celular,data,hora,produto,valor_cupom,repasse_picmoney,nome_estabelecimento,categoria_estabelecimento",
		"11912345678,2024-03-05,09:05:00,Café,10.5,1.05,Starbucks,Cafeterias",
		"11912345678,2024-03-07,10:00:00,Lanche,7.0,0.7,,Outros",
	}, lines(out))
	assert.Equal(t, 3, result.RowsRead)
	assert.Equal(t, 1, result.RowsDropped())

	rec := result.Recorder
	assert.Equal(t, 1, rec.Count(model.OpPhoneNormalized))
	assert.Equal(t, 1, rec.Count(model.OpTimeParseFailed))
	assert.Equal(t, 1, rec.Count(model.OpNumericParseFailed))
	assert.Equal(t, 2, rec.Count(model.OpCategoryDefault))
	assert.Equal(t, 1, rec.Count(model.OpRowDropped))
}

func TestDataCleaner_Pedestrians(t *testing.T) {
	c := newTestCleaner(t, Options{})
	out, result := cleanDataset(t, c, model.PedestriansDataset(), []byte(pedestriansCSV))

	assert.Equal(t, []string{
		"celular,latitude,longitude,data,data_ultima_compra,possui_app_picmoney,ultimo_tipo_cupom,ultimo_valor_capturado,ultimo_tipo_loja",
		"11912345678,-23.5585793346318,-46.660151,2024-02-01,2024-01-15,True,Cashback,12.5,Farmácias",
		"11988887777,-23.5615,,2024-02-02,,False,N/A,0.0,Não informado",
		"11977776666,-23.56,-46.65,2024-02-03,,False,Desconto,3.0,Não informado",
	}, lines(out))
	assert.Equal(t, 0, result.RowsDropped())
	assert.Equal(t, 2, result.Recorder.Count(model.OpCoordinateRepaired))
	assert.Equal(t, 1, result.Recorder.Count(model.OpCoordinateParseFailed))
}

func TestDataCleaner_Stores(t *testing.T) {
	c := newTestCleaner(t, Options{})
	out, result := cleanDataset(t, c, model.StoresDataset(), []byte(storesCSV))

	assert.Equal(t, []string{
		"numero_celular,latitude,longitude,data_captura,valor_compra,valor_cupom,nome_loja,tipo_loja",
		"1133334444,-23.561234,-46.655678,2024-04-10,100.0,10.0,Renner,Moda & Varejo",
		"11933334444,-23.5,-46.6,2024-04-11,50.0,5.0,Loja Nova,Outros",
	}, lines(out))
	assert.Equal(t, 1, result.RowsDropped())
}

func TestDataCleaner_Deterministic(t *testing.T) {
	c := newTestCleaner(t, Options{})
	first, _ := cleanDataset(t, c, model.PedestriansDataset(), []byte(pedestriansCSV))
	second, _ := cleanDataset(t, c, model.PedestriansDataset(), []byte(pedestriansCSV))
	assert.Equal(t, first, second)
}

func TestDataCleaner_KeepOperations(t *testing.T) {
	c := newTestCleaner(t, Options{RunID: "run-1", KeepOperations: true})
	_, result := cleanDataset(t, c, model.TransactionsDataset(), []byte(transactionsCSV))

	ops := result.Recorder.Operations()
	require.Len(t, ops, result.Recorder.Total())
	for _, op := range ops {
		assert.Equal(t, "run-1", op.RunID)
		assert.Equal(t, model.DatasetTransactions, op.Dataset)
		assert.GreaterOrEqual(t, op.RowNumber, 1)
		assert.LessOrEqual(t, op.RowNumber, 3)
	}
}

func TestDataCleaner_ByteOrderMark(t *testing.T) {
	c := newTestCleaner(t, Options{})
	source := append([]byte("\xEF\xBB\xBF"), []byte(storesCSV)...)
	out, _ := cleanDataset(t, c, model.StoresDataset(), source)
	assert.True(t, strings.HasPrefix(out, "numero_celular,"))
}

func TestDataCleaner_Latin1Input(t *testing.T) {
	c := newTestCleaner(t, Options{Encoding: EncodingLatin1})
	source := []byte("celular;latitude;longitude;data;data_ultima_compra;possui_app_picmoney;ultimo_tipo_cupom;ultimo_valor_capturado;ultimo_tipo_loja\n" +
		"11912345678;-23.5;-46.6;01/02/2024;;Sim;Cashback;1;farm\xe1cia\n")
	out, _ := cleanDataset(t, c, model.PedestriansDataset(), source)
	assert.Contains(t, out, ",Farmácias")
}

func TestDataCleaner_MissingColumn(t *testing.T) {
	c := newTestCleaner(t, Options{})
	dir := t.TempDir()
	in := filepath.Join(dir, "stores.csv")
	require.NoError(t, os.WriteFile(in, []byte("numero_celular;latitude\n1;2\n"), 0o644))

	ds := model.StoresDataset()
	_, err := c.Load(in, &ds)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingColumn)
	assert.Contains(t, err.Error(), "valor_compra")
}

func TestDataCleaner_MissingFile(t *testing.T) {
	c := newTestCleaner(t, Options{})
	ds := model.PlayersDataset()
	_, err := c.Load(filepath.Join(t.TempDir(), "absent.csv"), &ds)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNewDataCleaner_Validation(t *testing.T) {
	_, err := NewDataCleaner(nil, Options{})
	assert.Error(t, err)

	_, err = NewDataCleaner(zap.NewNop(), Options{Encoding: "ebcdic"})
	assert.Error(t, err)

	for _, enc := range []string{"", "UTF-8", EncodingLatin1, EncodingWindows1252} {
		_, err := NewDataCleaner(zap.NewNop(), Options{Encoding: enc})
		assert.NoError(t, err, enc)
	}
}

func TestFrame_RoundTripOutput(t *testing.T) {
	c := newTestCleaner(t, Options{})
	out, result := cleanDataset(t, c, model.PedestriansDataset(), []byte(pedestriansCSV))

	reread, err := ReadFrame(strings.NewReader(out), "pedestres", OutputReadOptions())
	require.NoError(t, err)
	assert.Equal(t, result.Frame.Names(), reread.Names())
	assert.Equal(t, result.Frame.Nrow(), reread.Nrow())
	assert.Equal(t, []string{"Cashback", "N/A", "Desconto"}, columnValues(t, reread, model.ColUltimoTipoCupom))
	assert.Equal(t, []string{"2024-01-15", "<missing>", "<missing>"}, columnValues(t, reread, model.ColDataUltimaCompra))
}

func TestDataCleaner_HeaderOnlySource(t *testing.T) {
	c := newTestCleaner(t, Options{})
	header := strings.SplitN(storesCSV, "\n", 2)[0] + "\n"
	out, result := cleanDataset(t, c, model.StoresDataset(), []byte(header))

	assert.Equal(t, []string{
		"numero_celular,latitude,longitude,data_captura,valor_compra,valor_cupom,nome_loja,tipo_loja",
	}, lines(out))
	assert.Equal(t, 0, result.RowsRead)
	assert.Equal(t, 0, result.RowsDropped())
	assert.Equal(t, 0, result.Recorder.Total())
}

func TestDataCleaner_AllRowsDropped(t *testing.T) {
	c := newTestCleaner(t, Options{RunID: "run-1", KeepOperations: true})
	source := `celular;data;hora;produto;valor_cupom;repasse_picmoney;nome_estabelecimento
11912345678;05/03/2024;09:00:00;Café;abc;1.05;Starbucks
11912345678;06/03/2024;10:00:00;Lanche;7;;Starbucks
`
	out, result := cleanDataset(t, c, model.TransactionsDataset(), []byte(source))

	assert.Equal(t, []string{
		"celular,data,hora,produto,valor_cupom,repasse_picmoney,nome_estabelecimento,categoria_estabelecimento",
	}, lines(out))
	assert.Equal(t, 2, result.RowsRead)
	assert.Equal(t, 2, result.RowsDropped())
	assert.Equal(t, 2, result.Recorder.Count(model.OpRowDropped))

	reread, err := ReadFrame(strings.NewReader(out), model.DatasetTransactions, OutputReadOptions())
	require.NoError(t, err)
	assert.Equal(t, 0, reread.Nrow())
	assert.Equal(t, result.Frame.Names(), reread.Names())
}

func TestReadFrame_HeaderOnly(t *testing.T) {
	tests := []struct {
		name  string
		input string
		opts  ReadOptions
	}{
		{"source", "a;b;c\n", SourceReadOptions()},
		{"source without newline", "a;b;c", SourceReadOptions()},
		{"output", "a,b,c\n", OutputReadOptions()},
		{"trailing blank lines", "a,b,c\n\n\n", OutputReadOptions()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ReadFrame(strings.NewReader(tt.input), "test", tt.opts)
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "b", "c"}, f.Names())
			assert.Equal(t, 0, f.Nrow())

			col, err := f.Column("b")
			require.NoError(t, err)
			assert.Empty(t, col)
			require.NoError(t, f.SetColumn("d", nil))
			assert.True(t, f.HasColumn("d"))

			var buf strings.Builder
			require.NoError(t, f.WriteCSV(&buf))
			assert.Equal(t, "a,b,c,d\n", buf.String())
		})
	}
}

func TestReadFrame_EmptyInput(t *testing.T) {
	_, err := ReadFrame(strings.NewReader(""), "test", SourceReadOptions())
	assert.Error(t, err)
}
