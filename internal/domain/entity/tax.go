package entity

import "github.com/shopspring/decimal"

// TaxKind tipo de tributo federal declarado en la adición.
type TaxKind string

const (
	TaxII     TaxKind = "II"     // Imposto de Importação
	TaxIPI    TaxKind = "IPI"    // Imposto sobre Produtos Industrializados
	TaxPIS    TaxKind = "PIS"    // PIS/PASEP-Importação
	TaxCOFINS TaxKind = "COFINS" // COFINS-Importação
)

// TaxKinds orden canónico de los tributos (extracción, persistencia y reportes).
var TaxKinds = []TaxKind{TaxII, TaxIPI, TaxPIS, TaxCOFINS}

// Valid indica si el tipo es uno de los cuatro conocidos.
func (k TaxKind) Valid() bool {
	for _, known := range TaxKinds {
		if k == known {
			return true
		}
	}
	return false
}

// Tax valores declarados en el documento para un tributo. Nunca se recalculan:
// son la línea base de la conciliación.
type Tax struct {
	Kind   TaxKind
	Amount decimal.Decimal     // Valor devido
	Base   decimal.NullDecimal // Base de cálculo; Valid=false si no fue declarada
	Rate   decimal.Decimal     // Alícuota ad valorem como fracción (0.0965 = 9,65%)
}

// ZeroTax tributo ausente en el documento: monto y alícuota cero, sin base.
func ZeroTax(kind TaxKind) *Tax {
	return &Tax{Kind: kind, Amount: decimal.Zero, Rate: decimal.Zero}
}
