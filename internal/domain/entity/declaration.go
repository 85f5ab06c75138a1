package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bases de valoración usadas para los valores de una adición.
const (
	ValuationFOB             = "FOB"               // localEmbarqueValor* (equivalente FOB)
	ValuationConditionOfSale = "CONDITION_OF_SALE" // condicaoVendaValor* (fallback)
	ValuationMixed           = "MIXED"             // un valor del par FOB y el otro por fallback
)

// Declaration representa una Declaración de Importación (DI) extraída del documento oficial.
// Es la fuente de verdad para el cálculo de tributos y la auditoría posterior.
type Declaration struct {
	ID               int64
	Number           string // numeroDI (clave natural)
	RegistrationDate string // ISO YYYY-MM-DD; vacío si el documento no trae fecha válida
	ImporterTaxID    string // CNPJ/CPF del importador; vacío si no viene
	ImporterName     string
	AdditionCount    int
	TotalValueSource decimal.Decimal // Suma de Addition.ValueSource (moneda negociada)
	TotalValueLocal  decimal.Decimal // Suma de Addition.ValueLocal (reales)
	Additions        []*Addition
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Addition representa una adición de la DI (un grupo de mercaderías con la misma NCM).
type Addition struct {
	ID                int64
	DeclarationNumber string
	Number            string // numeroAdicao; con (DeclarationNumber, Number) forma la clave natural
	TariffCode        string // NCM
	Incoterm          string
	IncotermPlace     string
	ValuationBasis    string // ValuationFOB | ValuationConditionOfSale | ValuationMixed | "" si no vino ninguno
	ValueSource       decimal.Decimal
	ValueLocal        decimal.Decimal
	CurrencyCode      string
	CurrencyName      string
	NetWeight         decimal.Decimal
	GrossWeight       decimal.Decimal
	Taxes             map[TaxKind]*Tax
	Goods             []*GoodsLine
}

// Tax devuelve el tributo del tipo indicado o nil si la adición no lo tiene.
func (a *Addition) Tax(kind TaxKind) *Tax {
	if a == nil || a.Taxes == nil {
		return nil
	}
	return a.Taxes[kind]
}

// RecomputeTotals recalcula AdditionCount y los totales CIF a partir de las adiciones.
func (d *Declaration) RecomputeTotals() {
	d.AdditionCount = len(d.Additions)
	d.TotalValueSource = decimal.Zero
	d.TotalValueLocal = decimal.Zero
	for _, a := range d.Additions {
		d.TotalValueSource = d.TotalValueSource.Add(a.ValueSource)
		d.TotalValueLocal = d.TotalValueLocal.Add(a.ValueLocal)
	}
}

// Incoterm devuelve el primer Incoterm no vacío de las adiciones (registro de procesamiento).
func (d *Declaration) Incoterm() string {
	for _, a := range d.Additions {
		if a.Incoterm != "" {
			return a.Incoterm
		}
	}
	return ""
}

// AdditionByNumber busca una adición por su número.
func (d *Declaration) AdditionByNumber(number string) *Addition {
	for _, a := range d.Additions {
		if a.Number == number {
			return a
		}
	}
	return nil
}
