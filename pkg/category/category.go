// pkg/category/category.go

// Package category maps establishment names and pedestrian store-type codes
// to the PicMoney category vocabulary.
package category

import (
	"golang.org/x/text/unicode/norm"
)

// Default labels for lookup misses. The two defaults differ on purpose and
// must not be unified.
const (
	DefaultEstablishment = "Outros"
	DefaultStoreType     = "Não informado"
)

// Category labels
const (
	FastFood     = "Fast Food & Lanchonetes"
	Restaurants  = "Restaurantes & Gastronomia"
	Gyms         = "Academias"
	Fashion      = "Moda & Varejo"
	Health       = "Saúde & Bem-estar"
	Pharmacies   = "Farmácias"
	Supermarkets = "Supermercados & Mercados"
	Coffee       = "Cafeterias"
	Department   = "Lojas de Departamento & Eletrodomésticos"
	Culture      = "Cultura & Lazer"
	Stationery   = "Papelaria e Escritório"
	Variety      = "Lojas de Variedades"
	Sports       = "Artigos Esportivos"
	Furniture    = "Móveis e Decoração"
	Other        = "Outros"
	NotInformed  = "Não informado"
)

var establishments = normalizeKeys(map[string]string{
	"Habib's":       FastFood,
	"Subway":        FastFood,
	"Burger King":   FastFood,
	"McDonald's":    FastFood,
	"Açaí no Ponto": FastFood,

	"Outback":                Restaurants,
	"Octavio Café":           Restaurants,
	"Madero":                 Restaurants,
	"Café Cultura":           Restaurants,
	"Churrascaria Boi Preto": Restaurants,
	"Ráscal":                 Restaurants,

	"Smart Fit": Gyms,
	"Selfit":    Gyms,
	"Just Run":  Gyms,

	"Forever 21":       Fashion,
	"Renner":           Fashion,
	"Riachuelo":        Fashion,
	"Lojas Americanas": Fashion,
	"Havaianas":        Fashion,

	"Sabin":           Health,
	"Lavoisier":       Health,
	"Fleury":          Health,
	"Clube Pinheiros": Health,

	"Droga Raia":         Pharmacies,
	"Drogasil":           Pharmacies,
	"Drogaria São Paulo": Pharmacies,

	"Extra":             Supermarkets,
	"Carrefour Express": Supermarkets,
	"Pão de Açúcar":     Supermarkets,
	"Extra Mercado":     Supermarkets,

	"Starbucks": Coffee,

	"Ponto":          Department,
	"Casas Bahia":    Department,
	"Magazine Luiza": Department,
	"Fast Shop":      Department,
	"Ponto Frio":     Department,

	"Sesc Paulista":    Culture,
	"Sesc Carmo":       Culture,
	"Livraria Cultura": Culture,

	"Kalunga":     Stationery,
	"Daiso Japan": Variety,
})

var storeTypes = normalizeKeys(map[string]string{
	"mercado express": Supermarkets,
	"outros":          Other,
	"restaurante":     Restaurants,
	"esportivo":       Sports,
	"farmácia":        Pharmacies,
	"eletrodoméstico": Department,
	"vestuário":       Fashion,
	"móveis":          Furniture,
	"N/A":             NotInformed,
})

// LookupEstablishment returns the category of an establishment or store name.
// Matching is exact (case and spelling sensitive) on the NFC form of the name.
func LookupEstablishment(name string) (string, bool) {
	label, ok := establishments[norm.NFC.String(name)]
	return label, ok
}

// ForEstablishment returns the category of an establishment, "Outros" when unknown
func ForEstablishment(name string) string {
	if label, ok := LookupEstablishment(name); ok {
		return label
	}
	return DefaultEstablishment
}

// LookupStoreType returns the category of a pedestrian last-store-type code
func LookupStoreType(code string) (string, bool) {
	label, ok := storeTypes[norm.NFC.String(code)]
	return label, ok
}

// ForStoreType returns the category of a store-type code, "Não informado" when unknown
func ForStoreType(code string) string {
	if label, ok := LookupStoreType(code); ok {
		return label
	}
	return DefaultStoreType
}

// Establishments returns a copy of the establishment table
func Establishments() map[string]string {
	return copyTable(establishments)
}

// StoreTypes returns a copy of the store-type table
func StoreTypes() map[string]string {
	return copyTable(storeTypes)
}

func normalizeKeys(table map[string]string) map[string]string {
	out := make(map[string]string, len(table))
	for k, v := range table {
		out[norm.NFC.String(k)] = v
	}
	return out
}

func copyTable(table map[string]string) map[string]string {
	out := make(map[string]string, len(table))
	for k, v := range table {
		out[k] = v
	}
	return out
}
