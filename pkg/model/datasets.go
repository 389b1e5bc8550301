// pkg/model/datasets.go
package model

// Column names shared by the PicMoney extracts
const (
	ColCelular       = "celular"
	ColNumeroCelular = "numero_celular"
	ColData          = "data"
	ColLatitude      = "latitude"
	ColLongitude     = "longitude"
	ColValorCupom    = "valor_cupom"

	ColDataNascimento       = "data_nascimento"
	ColCidadeTrabalho       = "cidade_trabalho"
	ColBairroTrabalho       = "bairro_trabalho"
	ColCidadeEscola         = "cidade_escola"
	ColBairroEscola         = "bairro_escola"
	ColCategoriaFrequentada = "categoria_frequentada"

	ColHora                     = "hora"
	ColProduto                  = "produto"
	ColRepassePicmoney          = "repasse_picmoney"
	ColNomeEstabelecimento      = "nome_estabelecimento"
	ColCategoriaEstabelecimento = "categoria_estabelecimento"

	ColDataUltimaCompra     = "data_ultima_compra"
	ColPossuiAppPicmoney    = "possui_app_picmoney"
	ColUltimoTipoCupom      = "ultimo_tipo_cupom"
	ColUltimoValorCapturado = "ultimo_valor_capturado"
	ColUltimoTipoLoja       = "ultimo_tipo_loja"

	ColDataCaptura = "data_captura"
	ColValorCompra = "valor_compra"
	ColNomeLoja    = "nome_loja"
	ColTipoLoja    = "tipo_loja"
)

// PlayersDataset is the player registration base
func PlayersDataset() Dataset {
	return Dataset{
		Name:        DatasetPlayers,
		SourceFile:  "PicMoney-Base_Cadastral_de_Players-10_000 linhas (1).csv",
		OutputFile:  "players_cleaned.csv",
		PhoneColumn: ColCelular,
		Columns: []Column{
			{Name: ColCelular, Kind: KindPhone},
			{Name: ColDataNascimento, Kind: KindDate},
			{Name: ColCidadeTrabalho, Kind: KindText},
			{Name: ColBairroTrabalho, Kind: KindText},
			{Name: ColCidadeEscola, Kind: KindText},
			{Name: ColBairroEscola, Kind: KindText},
			{Name: ColCategoriaFrequentada, Kind: KindText},
		},
	}
}

// TransactionsDataset is the captured coupon transaction base
func TransactionsDataset() Dataset {
	return Dataset{
		Name:        DatasetTransactions,
		SourceFile:  "PicMoney-Base_de_Transa__es_-_Cupons_Capturados-100000 linhas (1).csv",
		OutputFile:  "transacoes_cleaned.csv",
		PhoneColumn: ColCelular,
		Columns: []Column{
			{Name: ColCelular, Kind: KindPhone},
			{Name: ColData, Kind: KindDate},
			{Name: ColHora, Kind: KindTime},
			{Name: ColProduto, Kind: KindText},
			{Name: ColValorCupom, Kind: KindDecimal, Required: true},
			{Name: ColRepassePicmoney, Kind: KindDecimal, Required: true},
			{Name: ColNomeEstabelecimento, Kind: KindText},
			{Name: ColCategoriaEstabelecimento, Kind: KindCategory, Derived: true},
		},
	}
}

// PedestriansDataset is the simulated Av. Paulista foot-traffic base
func PedestriansDataset() Dataset {
	return Dataset{
		Name:        DatasetPedestrians,
		SourceFile:  "PicMoney-Base_Simulada_-_Pedestres_Av__Paulista-100000 linhas (1).csv",
		OutputFile:  "pedestres_cleaned.csv",
		PhoneColumn: ColCelular,
		Columns: []Column{
			{Name: ColCelular, Kind: KindPhone},
			{Name: ColLatitude, Kind: KindFloat},
			{Name: ColLongitude, Kind: KindFloat},
			{Name: ColData, Kind: KindDate},
			{Name: ColDataUltimaCompra, Kind: KindDate},
			{Name: ColPossuiAppPicmoney, Kind: KindBool},
			{Name: ColUltimoTipoCupom, Kind: KindText},
			{Name: ColUltimoValorCapturado, Kind: KindDecimal},
			{Name: ColUltimoTipoLoja, Kind: KindCategory},
		},
	}
}

// StoresDataset is the store/value test mass
func StoresDataset() Dataset {
	return Dataset{
		Name:        DatasetStores,
		SourceFile:  "PicMoney-Massa_de_Teste_com_Lojas_e_Valores-10000 linhas (1).csv",
		OutputFile:  "lojas_cleaned.csv",
		PhoneColumn: ColNumeroCelular,
		Columns: []Column{
			{Name: ColNumeroCelular, Kind: KindPhone},
			{Name: ColLatitude, Kind: KindFloat},
			{Name: ColLongitude, Kind: KindFloat},
			{Name: ColDataCaptura, Kind: KindDate},
			{Name: ColValorCompra, Kind: KindDecimal, Required: true},
			{Name: ColValorCupom, Kind: KindDecimal, Required: true},
			{Name: ColNomeLoja, Kind: KindText},
			{Name: ColTipoLoja, Kind: KindCategory, Derived: true},
		},
	}
}

// AllDatasets returns the four datasets in processing order
func AllDatasets() []Dataset {
	return []Dataset{
		PlayersDataset(),
		TransactionsDataset(),
		PedestriansDataset(),
		StoresDataset(),
	}
}
