// Package pdf genera el informe de divergencias de una Declaración de Importação.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: N° DI + Fecha de registro │ Fecha del informe       │
//	│  IMPORTADOR: Nombre + CNPJ/CPF                               │
//	│  ─────────────────────────────────────────────────────────  │
//	│  RESUMEN: Adiciones / Valor aduanero / Umbral                │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Adición | Tipo | Tributo | Declarado | Teórico | Dif│
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: declarado / teórico / diferencia                  │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Aduana-api/internal/application/reconciliation"
	"github.com/jhoicas/Aduana-api/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorAlert   = &props.Color{Red: 180, Green: 30, Blue: 30}
)

var kindLabels = map[entity.MismatchKind]string{
	entity.MismatchAmount:             "Monto",
	entity.MismatchMissingTheoretical: "Sin teórico",
	entity.MismatchMissingDeclared:    "No declarada",
}

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoReportGenerator implementa reconciliation.ReportGenerator usando Maroto v2.
type MarotoReportGenerator struct{}

var _ reconciliation.ReportGenerator = (*MarotoReportGenerator)(nil)

// NewMarotoReportGenerator construye el generador.
func NewMarotoReportGenerator() *MarotoReportGenerator { return &MarotoReportGenerator{} }

// GenerateDivergenceReport genera el PDF y devuelve sus bytes.
func (g *MarotoReportGenerator) GenerateDivergenceReport(_ context.Context, data reconciliation.ReportData) ([]byte, error) {
	if data.Declaration == nil {
		return nil, fmt.Errorf("pdf: informe sin declaración")
	}
	d := data.Declaration

	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Divergencias DI "+d.Number, true).
		WithAuthor(nonEmpty(d.ImporterName, "aduana-api"), true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(data))
	m.AddRows(importerRow(d))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(summaryRow(data))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	if len(data.Mismatches) == 0 {
		m.AddRows(row.New(10).Add(col.New(12).Add(
			text.New("Sin divergencias materiales sobre el umbral.", props.Text{
				Size: 9, Align: align.Center, Top: 3, Color: colorGray,
			}),
		)))
	}
	for _, r := range tableDetailRows(data.Mismatches) {
		m.AddRows(r)
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(data.Mismatches))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(data reconciliation.ReportData) core.Row {
	d := data.Declaration
	return row.New(18).Add(
		col.New(7).Add(
			text.New("DI "+d.Number, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Registro: "+nonEmpty(d.RegistrationDate, "-"), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("INFORME DE DIVERGENCIAS", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New("Generado: "+data.GeneratedAt.Format("02/01/2006 15:04")+" UTC", props.Text{
				Size: 8, Align: align.Right, Top: 8, Color: colorGray,
			}),
		),
	)
}

func importerRow(d *entity.Declaration) core.Row {
	return row.New(12).Add(
		col.New(12).Add(
			text.New("IMPORTADOR", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("%s   |   CNPJ/CPF: %s",
				nonEmpty(d.ImporterName, "-"),
				nonEmpty(d.ImporterTaxID, "-"),
			), props.Text{Size: 8, Top: 7, Color: colorGray}),
		),
	)
}

func summaryRow(data reconciliation.ReportData) core.Row {
	d := data.Declaration
	item := func(label, value string) core.Col {
		return col.New(4).Add(
			text.New(label, props.Text{Style: fontstyle.Bold, Size: 8, Top: 1}),
			text.New(value, props.Text{Size: 9, Top: 6}),
		)
	}
	return row.New(13).Add(
		item("Adiciones", fmt.Sprintf("%d", d.AdditionCount)),
		item("Valor aduanero (R$)", formatMoney(d.TotalValueLocal)),
		item("Umbral de materialidad", data.ThresholdPct.String()+"%"),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Adición", 1, align.Center),
		h("Tipo", 2, align.Left),
		h("Tributo", 1, align.Center),
		h("Declarado", 2, align.Right),
		h("Teórico", 2, align.Right),
		h("Diferencia", 2, align.Right),
		h("Dif. %", 2, align.Right),
	)
}

func tableDetailRows(mismatches []entity.Mismatch) []core.Row {
	result := make([]core.Row, 0, len(mismatches))
	for _, mm := range mismatches {
		cell := func(s string, size int, a align.Type) core.Col {
			return col.New(size).Add(text.New(s, props.Text{Size: 8, Align: a, Top: 1, Left: 1, Right: 1}))
		}
		pct := cell(mm.DeltaPct.StringFixed(2)+"%", 2, align.Right)
		if mm.Kind == entity.MismatchAmount {
			pct = col.New(2).Add(text.New(mm.DeltaPct.StringFixed(2)+"%", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Top: 1, Right: 1, Color: colorAlert,
			}))
		}
		result = append(result, row.New(7).Add(
			cell(mm.AdditionNumber, 1, align.Center),
			cell(kindLabels[mm.Kind], 2, align.Left),
			cell(nonEmpty(string(mm.TaxKind), "-"), 1, align.Center),
			cell(formatMoney(mm.Declared), 2, align.Right),
			cell(formatMoney(mm.Theoretical), 2, align.Right),
			cell(formatMoney(mm.Delta), 2, align.Right),
			pct,
		))
	}
	return result
}

func totalsRow(mismatches []entity.Mismatch) core.Row {
	var declared, theoretical, delta decimal.Decimal
	for _, mm := range mismatches {
		declared = declared.Add(mm.Declared)
		theoretical = theoretical.Add(mm.Theoretical)
		delta = delta.Add(mm.Delta)
	}
	label := func(s string) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2})
	}
	value := func(s string) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1})
	}
	return row.New(20).Add(
		col.New(4),
		col.New(4).Add(
			label("Total declarado:"),
			label("Total teórico:"),
			label("Total diferencia:"),
		),
		col.New(4).Add(
			value(formatMoney(declared)),
			value(formatMoney(theoretical)),
			value(formatMoney(delta)),
		),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatMoney formato brasileño con dos decimales. Ej: 1234567.5 → "1.234.567,50"
func formatMoney(v decimal.Decimal) string {
	s := v.Abs().StringFixed(2)
	intPart, frac := s[:len(s)-3], s[len(s)-2:]
	n := len(intPart)
	var b strings.Builder
	if v.IsNegative() {
		b.WriteByte('-')
	}
	for i, c := range []byte(intPart) {
		if i > 0 && (n-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteByte(c)
	}
	b.WriteByte(',')
	b.WriteString(frac)
	return b.String()
}
