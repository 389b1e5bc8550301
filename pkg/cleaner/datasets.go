// pkg/cleaner/datasets.go
package cleaner

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/picmoney/data-cleaner/pkg/category"
	"github.com/picmoney/data-cleaner/pkg/converter"
	"github.com/picmoney/data-cleaner/pkg/model"
)

// Fill values for missing cells
const (
	NotInformed    = "Não informado"
	NotApplicable  = "N/A"
	appInstalled   = "Sim"
	appUninstalled = "Não"
)

// PipelineFor returns the cleaning pipeline of a dataset.
// Row drops always run last so recorded row numbers refer to source rows.
func PipelineFor(ds *model.Dataset) (*Pipeline, error) {
	switch ds.Name {
	case model.DatasetPlayers:
		return playersPipeline(ds), nil
	case model.DatasetTransactions:
		return transactionsPipeline(ds), nil
	case model.DatasetPedestrians:
		return pedestriansPipeline(ds), nil
	case model.DatasetStores:
		return storesPipeline(ds), nil
	default:
		return nil, fmt.Errorf("no cleaning pipeline for dataset %q", ds.Name)
	}
}

func playersPipeline(ds *model.Dataset) *Pipeline {
	p := NewPipeline(
		NormalizePhone{Column: ds.PhoneColumn},
		ParseDates{Columns: ds.ColumnsOfKind(model.KindDate)},
	)
	for _, col := range []string{
		model.ColCidadeTrabalho,
		model.ColBairroTrabalho,
		model.ColCidadeEscola,
		model.ColBairroEscola,
		model.ColCategoriaFrequentada,
	} {
		p.Add(FillMissing{Column: col, Value: NotInformed})
	}
	return p
}

func transactionsPipeline(ds *model.Dataset) *Pipeline {
	return NewPipeline(
		NormalizePhone{Column: ds.PhoneColumn},
		ParseDates{Columns: ds.ColumnsOfKind(model.KindDate)},
		ParseTimes{Columns: ds.ColumnsOfKind(model.KindTime)},
		FillMissing{Column: model.ColProduto, Value: NotApplicable},
		ParseDecimals{Columns: ds.ColumnsOfKind(model.KindDecimal)},
		MapCategory{
			Source:  model.ColNomeEstabelecimento,
			Target:  model.ColCategoriaEstabelecimento,
			Lookup:  category.LookupEstablishment,
			Default: category.DefaultEstablishment,
		},
		DropMissing{Columns: ds.RequiredColumns()},
	)
}

func pedestriansPipeline(ds *model.Dataset) *Pipeline {
	return NewPipeline(
		NormalizePhone{Column: ds.PhoneColumn},
		RepairCoordinates{Columns: ds.ColumnsOfKind(model.KindFloat)},
		ParseDates{Columns: ds.ColumnsOfKind(model.KindDate)},
		CoerceBool{Column: model.ColPossuiAppPicmoney, TrueValue: appInstalled, FalseValue: appUninstalled},
		FillMissing{Column: model.ColUltimoTipoCupom, Value: NotApplicable},
		ParseDecimals{Columns: ds.ColumnsOfKind(model.KindDecimal)},
		FillMissing{Column: model.ColUltimoValorCapturado, Value: converter.FormatDecimal(decimal.Zero)},
		FillMissing{Column: model.ColUltimoTipoLoja, Value: NotApplicable},
		MapCategory{
			Source:  model.ColUltimoTipoLoja,
			Target:  model.ColUltimoTipoLoja,
			Lookup:  category.LookupStoreType,
			Default: category.DefaultStoreType,
		},
	)
}

func storesPipeline(ds *model.Dataset) *Pipeline {
	return NewPipeline(
		NormalizePhone{Column: ds.PhoneColumn},
		RepairCoordinates{Columns: ds.ColumnsOfKind(model.KindFloat)},
		ParseDates{Columns: ds.ColumnsOfKind(model.KindDate)},
		ParseDecimals{Columns: ds.ColumnsOfKind(model.KindDecimal)},
		MapCategory{
			Source:  model.ColNomeLoja,
			Target:  model.ColTipoLoja,
			Lookup:  category.LookupEstablishment,
			Default: category.DefaultEstablishment,
		},
		DropMissing{Columns: ds.RequiredColumns()},
	)
}
