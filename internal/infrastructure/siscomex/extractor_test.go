package siscomex_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Aduana-api/internal/domain"
	"github.com/jhoicas/Aduana-api/internal/domain/entity"
	"github.com/jhoicas/Aduana-api/internal/infrastructure/siscomex"
)

func fixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDec(t *testing.T, want string, got decimal.Decimal, msg string) {
	t.Helper()
	assert.True(t, d(want).Equal(got), "%s: esperado %s, obtenido %s", msg, want, got)
}

func extract(t *testing.T, name string) *entity.Declaration {
	t.Helper()
	decl, err := siscomex.NewExtractor(siscomex.DefaultOptions()).Extract(fixture(t, name))
	require.NoError(t, err)
	require.NotNil(t, decl)
	return decl
}

// ── Documento completo con varias adiciones ───────────────────────────────────

func TestExtract_MultiplasAdicoes(t *testing.T) {
	decl := extract(t, "di_multiplas_adicoes.xml")

	assert.Equal(t, "2412345678", decl.Number)
	assert.Equal(t, "2024-01-15", decl.RegistrationDate)
	assert.Equal(t, "12345678000199", decl.ImporterTaxID)
	assert.Equal(t, "IMPORTADORA EXEMPLO LTDA", decl.ImporterName)
	require.Len(t, decl.Additions, 3)
	assert.Equal(t, 3, decl.AdditionCount)

	a1 := decl.Additions[0]
	assert.Equal(t, "001", a1.Number)
	assert.Equal(t, "2412345678", a1.DeclarationNumber)
	assert.Equal(t, "84713012", a1.TariffCode)
	assert.Equal(t, "FOB", a1.Incoterm)
	assert.Equal(t, "SHANGHAI", a1.IncotermPlace)
	assert.Equal(t, entity.ValuationFOB, a1.ValuationBasis)
	assertDec(t, "10000.00", a1.ValueSource, "valor moneda")
	assertDec(t, "50000.00", a1.ValueLocal, "valor reales")
	assert.Equal(t, "220", a1.CurrencyCode)
	assert.Equal(t, "DOLAR DOS EUA", a1.CurrencyName)
	assertDec(t, "150.000", a1.NetWeight, "peso líquido")
	assertDec(t, "175.500", a1.GrossWeight, "peso bruto")

	ii := a1.Tax(entity.TaxII)
	require.NotNil(t, ii)
	assertDec(t, "8000.00", ii.Amount, "II monto")
	require.True(t, ii.Base.Valid)
	assertDec(t, "50000.00", ii.Base.Decimal, "II base")
	assertDec(t, "0.16", ii.Rate, "II alícuota")

	ipi := a1.Tax(entity.TaxIPI)
	assertDec(t, "2900.00", ipi.Amount, "IPI monto")
	assert.False(t, ipi.Base.Valid, "IPI no declara base")
	assertDec(t, "0.05", ipi.Rate, "IPI alícuota")

	assertDec(t, "1050.00", a1.Tax(entity.TaxPIS).Amount, "PIS monto")
	assertDec(t, "0.021", a1.Tax(entity.TaxPIS).Rate, "PIS alícuota")
	assertDec(t, "4825.00", a1.Tax(entity.TaxCOFINS).Amount, "COFINS monto")
	assertDec(t, "0.0965", a1.Tax(entity.TaxCOFINS).Rate, "COFINS alícuota")
	assertDec(t, "50000.00", a1.Tax(entity.TaxCOFINS).Base.Decimal, "COFINS base")

	require.Len(t, a1.Goods, 2)
	g := a1.Goods[0]
	assert.Equal(t, "01", g.Sequence)
	assert.Equal(t, "NOTEBOOK 14 POLEGADAS", g.Description)
	assertDec(t, "100", g.Quantity, "cantidad")
	assert.Equal(t, "UNIDADE", g.Unit)
	assertDec(t, "100", g.UnitValue, "valor unitario")
	assertDec(t, "5", a1.Goods[1].UnitValue, "valor unitario 2")
}

func TestExtract_TributoAusenteEsCeroSinBase(t *testing.T) {
	decl := extract(t, "di_multiplas_adicoes.xml")

	ipi := decl.Additions[1].Tax(entity.TaxIPI)
	require.NotNil(t, ipi, "el tributo ausente igual se materializa")
	assert.True(t, ipi.Amount.IsZero())
	assert.True(t, ipi.Rate.IsZero())
	assert.False(t, ipi.Base.Valid)

	a3 := decl.Additions[2]
	assert.Len(t, a3.Taxes, 4)
	assert.True(t, a3.Tax(entity.TaxCOFINS).Amount.IsZero())
	assert.Empty(t, a3.Goods)
}

func TestExtract_FallbackCondicaoVenda(t *testing.T) {
	decl := extract(t, "di_multiplas_adicoes.xml")

	a3 := decl.Additions[2]
	assert.Equal(t, entity.ValuationConditionOfSale, a3.ValuationBasis)
	assertDec(t, "1000.00", a3.ValueSource, "moneda por fallback")
	assertDec(t, "5000.00", a3.ValueLocal, "reales por fallback")

	// El par primario presente gana aunque también venga el de condición de venta.
	assertDec(t, "10000.00", decl.Additions[0].ValueSource, "primario")
}

func TestExtract_BaseMixta(t *testing.T) {
	doc := []byte(`<declaracaoImportacao><numeroDI>2412345678</numeroDI>
<adicao><numeroAdicao>001</numeroAdicao>
  <localEmbarqueValorMoeda>000000000100000</localEmbarqueValorMoeda>
  <condicaoVendaValorMoeda>000000000200000</condicaoVendaValorMoeda>
  <condicaoVendaValorReais>000000000500000</condicaoVendaValorReais>
</adicao></declaracaoImportacao>`)

	decl, err := siscomex.NewExtractor(siscomex.DefaultOptions()).Extract(doc)
	require.NoError(t, err)

	a := decl.Additions[0]
	assert.Equal(t, entity.ValuationMixed, a.ValuationBasis)
	assertDec(t, "1000.00", a.ValueSource, "moneda del par FOB")
	assertDec(t, "5000.00", a.ValueLocal, "reales por fallback")
}

func TestExtract_SinFallbackQuedaEnCero(t *testing.T) {
	ex := siscomex.NewExtractor(siscomex.Options{ConditionOfSaleFallback: false})
	decl, err := ex.Extract(fixture(t, "di_multiplas_adicoes.xml"))
	require.NoError(t, err)

	a3 := decl.Additions[2]
	assert.Empty(t, a3.ValuationBasis)
	assert.True(t, a3.ValueSource.IsZero())
	assert.True(t, a3.ValueLocal.IsZero())
}

func TestExtract_InvarianteDeTotales(t *testing.T) {
	for _, name := range []string{"di_multiplas_adicoes.xml", "di_adicao_unica.xml", "di.json", "di_latin1.xml"} {
		t.Run(name, func(t *testing.T) {
			decl := extract(t, name)
			assert.Equal(t, len(decl.Additions), decl.AdditionCount)

			source, local := decimal.Zero, decimal.Zero
			for _, a := range decl.Additions {
				source = source.Add(a.ValueSource)
				local = local.Add(a.ValueLocal)
			}
			assert.True(t, source.Equal(decl.TotalValueSource))
			assert.True(t, local.Equal(decl.TotalValueLocal))
		})
	}

	decl := extract(t, "di_multiplas_adicoes.xml")
	assertDec(t, "13500.00", decl.TotalValueSource, "total moneda")
	assertDec(t, "67500.00", decl.TotalValueLocal, "total reales")
}

// ── Variantes de estructura ───────────────────────────────────────────────────

func TestExtract_AdicaoUnicaSinContenedor(t *testing.T) {
	decl := extract(t, "di_adicao_unica.xml")

	assert.Equal(t, "2498765432", decl.Number)
	assert.Empty(t, decl.RegistrationDate, "fecha de 7 dígitos es desconocida")
	assert.Equal(t, "98765432000155", decl.ImporterTaxID, "importador/cnpj")
	assert.Equal(t, "COMERCIAL ATLANTICO S.A.", decl.ImporterName, "importador/nome")

	require.Len(t, decl.Additions, 1)
	a := decl.Additions[0]
	assertDec(t, "893.64", a.ValueSource, "valor moneda")
	assertDec(t, "100.500", a.NetWeight, "peso")
	assert.True(t, a.GrossWeight.IsZero())
	require.Len(t, a.Goods, 1)
	assertDec(t, "5000", a.Goods[0].Quantity, "cantidad")
	assertDec(t, "0.178728", a.Goods[0].UnitValue, "valor unitario")
}

func TestExtract_JSON(t *testing.T) {
	decl := extract(t, "di.json")

	assert.Equal(t, "2455554444", decl.Number)
	assert.Equal(t, "2024-06-20", decl.RegistrationDate)
	assert.Equal(t, "12345678909", decl.ImporterTaxID, "cadena importadorNumero → cnpj → cpf")
	assert.Equal(t, "JOAO DA SILVA", decl.ImporterName)

	require.Len(t, decl.Additions, 1, "objeto único = una adición")
	a := decl.Additions[0]
	assert.Equal(t, "FCA", a.Incoterm)
	assertDec(t, "1200.00", a.Tax(entity.TaxII).Amount, "II")
	assertDec(t, "0.2", a.Tax(entity.TaxII).Rate, "II alícuota")
	assert.True(t, a.Tax(entity.TaxIPI).Amount.IsZero())
	require.Len(t, a.Goods, 2, "arreglo = N mercaderías")
	assert.Equal(t, "QUEBRA-CABECA", a.Goods[1].Description)
	assertDec(t, "30", a.Goods[1].UnitValue, "valor unitario")
}

func TestExtract_ISO88591(t *testing.T) {
	decl := extract(t, "di_latin1.xml")

	assert.Equal(t, "IMPORTAÇÃO E COMÉRCIO SÃO JOSÉ LTDA", decl.ImporterName)
	require.Len(t, decl.Additions, 1)
	assert.Equal(t, "GÊNOVA", decl.Additions[0].IncotermPlace)
	assert.Equal(t, "MÁQUINA DE EMBALAGEM", decl.Additions[0].Goods[0].Description)
	assertDec(t, "5000", decl.Additions[0].Goods[0].UnitValue, "valor unitario")
}

func TestExtract_DeclaracionVaciaSinAdiciones(t *testing.T) {
	decl, err := siscomex.NewExtractor(siscomex.DefaultOptions()).
		Extract([]byte(`<declaracaoImportacao><numeroDI>1</numeroDI></declaracaoImportacao>`))
	require.NoError(t, err)
	assert.Equal(t, 0, decl.AdditionCount)
	assert.Empty(t, decl.ImporterTaxID)
	assert.True(t, decl.TotalValueSource.IsZero())
}

// ── Fallos fatales ────────────────────────────────────────────────────────────

func TestExtract_SinDeclaracionEsStructureMismatch(t *testing.T) {
	decl, err := siscomex.NewExtractor(siscomex.DefaultOptions()).Extract(fixture(t, "sem_declaracao.xml"))
	require.Error(t, err)
	assert.Nil(t, decl)
	assert.True(t, errors.Is(err, domain.ErrStructureMismatch))
	assert.False(t, errors.Is(err, domain.ErrDocumentSyntax))

	var pf *domain.ParseFailure
	require.True(t, errors.As(err, &pf))
	assert.Equal(t, siscomex.TagDeclaration, pf.Element)
}

func TestExtract_MalformadoAcumulaErrores(t *testing.T) {
	decl, err := siscomex.NewExtractor(siscomex.DefaultOptions()).Extract(fixture(t, "malformado.xml"))
	require.Error(t, err)
	assert.Nil(t, decl)
	assert.True(t, errors.Is(err, domain.ErrDocumentSyntax))

	var pf *domain.ParseFailure
	require.True(t, errors.As(err, &pf))
	require.Len(t, pf.Problems, 2, "se informan todos los errores, no solo el primero: %v", pf.Problems)
	assert.Contains(t, pf.Problems[0], "línea 6")
	assert.Contains(t, pf.Problems[1], "línea 10")
	assert.Contains(t, pf.Problems[1], "condicaoVendaIncoterm")
}

func TestExtract_JSONMalformado(t *testing.T) {
	_, err := siscomex.NewExtractor(siscomex.DefaultOptions()).Extract([]byte(`{"declaracaoImportacao": {"numeroDI": }`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDocumentSyntax))
}

func TestExtract_DocumentoVacio(t *testing.T) {
	_, err := siscomex.NewExtractor(siscomex.DefaultOptions()).Extract([]byte("  \n"))
	assert.True(t, errors.Is(err, domain.ErrDocumentSyntax))
}
