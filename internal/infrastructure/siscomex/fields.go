package siscomex

import "github.com/jhoicas/Aduana-api/internal/domain/entity"

// Nombres de elementos de la DI (Siscomex). Se comparan por nombre local, sin prefijo.
const (
	TagDeclarationList = "ListaDeclaracoes"
	TagDeclaration     = "declaracaoImportacao"

	TagNumber           = "numeroDI"
	TagRegistrationDate = "dataRegistro"
	TagImporterNumber   = "importadorNumero"
	TagImporterName     = "importadorNome"
	TagImporter         = "importador"
	TagCNPJ             = "cnpj"
	TagCPF              = "cpf"
	TagName             = "nome"

	TagAddition        = "adicao"
	TagAdditionNumber  = "numeroAdicao"
	TagTariffCode      = "dadosMercadoriaCodigoNcm"
	TagIncoterm        = "condicaoVendaIncoterm"
	TagIncotermPlace   = "condicaoVendaLocal"
	TagFOBValueSource  = "localEmbarqueValorMoeda"
	TagFOBValueLocal   = "localEmbarqueValorReais"
	TagSaleValueSource = "condicaoVendaValorMoeda"
	TagSaleValueLocal  = "condicaoVendaValorReais"
	TagCurrencyCode    = "condicaoVendaMoedaCodigo"
	TagCurrencyName    = "condicaoVendaMoedaNome"
	TagNetWeight       = "dadosMercadoriaPesoLiquido"
	TagGrossWeight     = "dadosMercadoriaPesoBruto"

	TagGoods            = "mercadoria"
	TagGoodsSequence    = "numeroSequencialItem"
	TagGoodsDescription = "descricaoMercadoria"
	TagGoodsQuantity    = "quantidade"
	TagGoodsUnit        = "unidadeMedida"
	TagGoodsUnitValue   = "valorUnitario"
)

// taxFields campos planos de un tributo dentro de <adicao>. Base vacío = el tributo no declara base.
type taxFields struct {
	Amount string
	Base   string
	Rate   string
}

var taxLayout = map[entity.TaxKind]taxFields{
	entity.TaxII:     {Amount: "iiAliquotaValorDevido", Base: "iiBaseCalculo", Rate: "iiAliquotaAdValorem"},
	entity.TaxIPI:    {Amount: "ipiAliquotaValorDevido", Rate: "ipiAliquotaAdValorem"},
	entity.TaxPIS:    {Amount: "pisPasepAliquotaValorDevido", Base: "pisCofinsBaseCalculoValor", Rate: "pisPasepAliquotaAdValorem"},
	entity.TaxCOFINS: {Amount: "cofinsAliquotaValorDevido", Base: "pisCofinsBaseCalculoValor", Rate: "cofinsAliquotaAdValorem"},
}
