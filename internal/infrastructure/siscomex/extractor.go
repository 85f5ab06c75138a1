package siscomex

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Aduana-api/internal/domain/customs"
	"github.com/jhoicas/Aduana-api/internal/domain/entity"
)

// Options ajustes de la extracción.
type Options struct {
	// ConditionOfSaleFallback usa condicaoVendaValor* cuando falta localEmbarqueValor* (campo a campo).
	ConditionOfSaleFallback bool
}

// DefaultOptions opciones por defecto (fallback activo).
func DefaultOptions() Options {
	return Options{ConditionOfSaleFallback: true}
}

// Extractor transforma un documento DI en el grafo Declaration → Additions → {Taxes, Goods}.
// Es una transformación pura: no hace I/O ni registra logs.
type Extractor struct {
	opts Options
}

// NewExtractor crea el extractor.
func NewExtractor(opts Options) *Extractor {
	return &Extractor{opts: opts}
}

// Extract parsea los bytes (XML o JSON) y extrae la declaración.
// Devuelve el grafo completo o un *domain.ParseFailure, nunca un grafo parcial.
func (e *Extractor) Extract(data []byte) (*entity.Declaration, error) {
	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return e.ExtractDocument(doc)
}

// ExtractDocument extrae la declaración de un documento ya parseado.
func (e *Extractor) ExtractDocument(doc *Document) (*entity.Declaration, error) {
	root, err := doc.Declaration()
	if err != nil {
		return nil, err
	}

	decl := &entity.Declaration{
		Number:           root.Text(TagNumber),
		RegistrationDate: customs.Date(root.Text(TagRegistrationDate)),
		ImporterTaxID: firstNonEmpty(
			root.Text(TagImporterNumber),
			root.Path(TagImporter, TagCNPJ),
			root.Path(TagImporter, TagCPF),
		),
		ImporterName: firstNonEmpty(
			root.Text(TagImporterName),
			root.Path(TagImporter, TagName),
		),
	}

	for _, n := range root.Children(TagAddition) {
		add := e.addition(n)
		add.DeclarationNumber = decl.Number
		decl.Additions = append(decl.Additions, add)
	}
	decl.RecomputeTotals()
	return decl, nil
}

func (e *Extractor) addition(n *Node) *entity.Addition {
	add := &entity.Addition{
		Number:        n.Text(TagAdditionNumber),
		TariffCode:    n.Text(TagTariffCode),
		Incoterm:      n.Text(TagIncoterm),
		IncotermPlace: n.Text(TagIncotermPlace),
		CurrencyCode:  n.Text(TagCurrencyCode),
		CurrencyName:  n.Text(TagCurrencyName),
		NetWeight:     customs.Weight.Decode(n.Text(TagNetWeight)),
		GrossWeight:   customs.Weight.Decode(n.Text(TagGrossWeight)),
		Taxes:         make(map[entity.TaxKind]*entity.Tax, len(entity.TaxKinds)),
	}
	add.ValuationBasis, add.ValueSource, add.ValueLocal = e.valuation(n)

	for _, kind := range entity.TaxKinds {
		add.Taxes[kind] = tax(n, kind)
	}
	for _, g := range n.Children(TagGoods) {
		add.Goods = append(add.Goods, &entity.GoodsLine{
			Sequence:    g.Text(TagGoodsSequence),
			Description: g.Text(TagGoodsDescription),
			Quantity:    customs.Quantity.Decode(g.Text(TagGoodsQuantity)),
			Unit:        g.Text(TagGoodsUnit),
			UnitValue:   customs.UnitPrice.Decode(g.Text(TagGoodsUnitValue)),
		})
	}
	return add
}

// valuation resuelve los dos valores de la adición. El par FOB es el primario; cada campo ausente
// se sustituye por su par de condición de venta si el fallback está activo (nunca se asume cero).
func (e *Extractor) valuation(n *Node) (basis string, source, local decimal.Decimal) {
	srcTok, localTok := n.Text(TagFOBValueSource), n.Text(TagFOBValueLocal)
	primary := srcTok != "" || localTok != ""
	fallback := false

	if e.opts.ConditionOfSaleFallback {
		if srcTok == "" {
			if srcTok = n.Text(TagSaleValueSource); srcTok != "" {
				fallback = true
			}
		}
		if localTok == "" {
			if localTok = n.Text(TagSaleValueLocal); localTok != "" {
				fallback = true
			}
		}
	}

	switch {
	case primary && fallback:
		basis = entity.ValuationMixed
	case primary:
		basis = entity.ValuationFOB
	case fallback:
		basis = entity.ValuationConditionOfSale
	}
	return basis, customs.Monetary.Decode(srcTok), customs.Monetary.Decode(localTok)
}

// tax lee el bloque del tributo. Un bloque existe si trae monto o alícuota; si no, todo en cero y sin base.
func tax(n *Node, kind entity.TaxKind) *entity.Tax {
	f := taxLayout[kind]
	if !n.Has(f.Amount) && !n.Has(f.Rate) {
		return entity.ZeroTax(kind)
	}
	t := &entity.Tax{
		Kind:   kind,
		Amount: customs.Monetary.Decode(n.Text(f.Amount)),
		Rate:   customs.Rate.Decode(n.Text(f.Rate)),
	}
	if f.Base != "" && n.Has(f.Base) {
		t.Base = decimal.NewNullDecimal(customs.Monetary.Decode(n.Text(f.Base)))
	}
	return t
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
