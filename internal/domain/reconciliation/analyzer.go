// Package reconciliation compara los tributos declarados en la DI con los valores teóricos
// recalculados por un motor externo y reporta las divergencias materiales.
package reconciliation

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Aduana-api/internal/domain/entity"
)

// DefaultThresholdPct umbral de materialidad (porcentaje) por defecto.
var DefaultThresholdPct = decimal.NewFromInt(1)

var hundred = decimal.NewFromInt(100)

// Analyzer cálculo puro, sin efectos secundarios. Seguro para uso concurrente.
type Analyzer struct {
	threshold decimal.Decimal
}

// NewAnalyzer crea un analizador con el umbral indicado (ej: 1 = 1%). Un umbral negativo se trata como 0.
func NewAnalyzer(thresholdPct decimal.Decimal) *Analyzer {
	if thresholdPct.IsNegative() {
		thresholdPct = decimal.Zero
	}
	return &Analyzer{threshold: thresholdPct}
}

// Threshold umbral configurado.
func (a *Analyzer) Threshold() decimal.Decimal { return a.threshold }

// Analyze empareja las adiciones por número (no por posición) y devuelve:
//   - AMOUNT_MISMATCH por cada tributo declarado cuya diferencia porcentual supere el umbral;
//   - MISSING_THEORETICAL por cada adición declarada sin contraparte teórica;
//   - MISSING_DECLARED por cada adición teórica que no existe en la DI.
//
// Orden: adiciones en el orden declarado, luego las solo-teóricas; tributos en orden canónico.
func (a *Analyzer) Analyze(declared, theoretical *entity.Declaration) []entity.Mismatch {
	var out []entity.Mismatch
	if declared == nil {
		declared = &entity.Declaration{}
	}
	if theoretical == nil {
		theoretical = &entity.Declaration{}
	}

	seen := make(map[string]bool, len(declared.Additions))
	for _, dAdd := range declared.Additions {
		seen[dAdd.Number] = true
		tAdd := theoretical.AdditionByNumber(dAdd.Number)
		if tAdd == nil {
			out = append(out, missing(entity.MismatchMissingTheoretical, dAdd.Number))
			continue
		}
		out = append(out, a.compareTaxes(dAdd, tAdd)...)
	}

	for _, tAdd := range theoretical.Additions {
		if seen[tAdd.Number] {
			continue
		}
		seen[tAdd.Number] = true
		out = append(out, missing(entity.MismatchMissingDeclared, tAdd.Number))
	}
	return out
}

func (a *Analyzer) compareTaxes(dAdd, tAdd *entity.Addition) []entity.Mismatch {
	var out []entity.Mismatch
	for _, kind := range entity.TaxKinds {
		dTax := dAdd.Tax(kind)
		if dTax == nil {
			continue
		}
		theoretical := decimal.Zero
		if tTax := tAdd.Tax(kind); tTax != nil {
			theoretical = tTax.Amount
		}
		delta, pct := Divergence(dTax.Amount, theoretical)
		if a.exceeds(dTax.Amount, delta) {
			out = append(out, entity.Mismatch{
				Kind:           entity.MismatchAmount,
				AdditionNumber: dAdd.Number,
				TaxKind:        kind,
				Declared:       dTax.Amount,
				Theoretical:    theoretical,
				Delta:          delta,
				DeltaPct:       pct,
			})
		}
	}
	return out
}

// exceeds compara |delta| * 100 > umbral * |declarado| sin redondear; DeltaPct solo se redondea al reportarse.
func (a *Analyzer) exceeds(declared, delta decimal.Decimal) bool {
	if declared.IsZero() {
		return false
	}
	return delta.Abs().Mul(hundred).GreaterThan(a.threshold.Mul(declared.Abs()))
}

// Divergence devuelve delta = declarado - teórico y |delta| / declarado * 100 (4 decimales).
// Con declarado en cero el porcentaje es 0.
func Divergence(declared, theoretical decimal.Decimal) (delta, pct decimal.Decimal) {
	delta = declared.Sub(theoretical)
	if declared.IsZero() {
		return delta, decimal.Zero
	}
	pct = delta.Abs().Div(declared.Abs()).Mul(hundred).Round(4)
	return delta, pct
}

func missing(kind entity.MismatchKind, additionNumber string) entity.Mismatch {
	return entity.Mismatch{
		Kind:           kind,
		AdditionNumber: additionNumber,
		Declared:       decimal.Zero,
		Theoretical:    decimal.Zero,
		Delta:          decimal.Zero,
		DeltaPct:       decimal.Zero,
	}
}
