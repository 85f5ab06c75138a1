package dto

import (
	"time"

	"github.com/jhoicas/Aduana-api/internal/domain/customs"
	"github.com/jhoicas/Aduana-api/internal/domain/entity"
)

// Los valores decimales viajan como string con la precisión de su familia ("0.00", "100.500").

// DeclarationResponse DI completa para GET /api/declarations/:number.
type DeclarationResponse struct {
	Number           string             `json:"numero_di"`
	RegistrationDate string             `json:"data_registro,omitempty"`
	ImporterTaxID    string             `json:"importador_documento,omitempty"`
	ImporterName     string             `json:"importador_nome,omitempty"`
	AdditionCount    int                `json:"total_adicoes"`
	TotalValueSource string             `json:"valor_total_moeda"`
	TotalValueLocal  string             `json:"valor_total_reais"`
	Additions        []AdditionResponse `json:"adicoes"`
}

// AdditionResponse adición con tributos y mercaderías.
type AdditionResponse struct {
	Number         string              `json:"numero_adicao"`
	TariffCode     string              `json:"ncm,omitempty"`
	Incoterm       string              `json:"incoterm,omitempty"`
	IncotermPlace  string              `json:"incoterm_local,omitempty"`
	ValuationBasis string              `json:"base_valoracao,omitempty"`
	ValueSource    string              `json:"valor_moeda"`
	ValueLocal     string              `json:"valor_reais"`
	CurrencyCode   string              `json:"moeda_codigo,omitempty"`
	CurrencyName   string              `json:"moeda_nome,omitempty"`
	NetWeight      string              `json:"peso_liquido"`
	GrossWeight    string              `json:"peso_bruto"`
	Taxes          []TaxResponse       `json:"tributos"`
	Goods          []GoodsLineResponse `json:"mercadorias"`
}

// TaxResponse tributo declarado. Base nil si el documento no la declara.
type TaxResponse struct {
	Kind   string  `json:"tipo"`
	Amount string  `json:"valor_devido"`
	Base   *string `json:"base_calculo"`
	Rate   string  `json:"aliquota"`
}

// GoodsLineResponse línea de mercadería.
type GoodsLineResponse struct {
	Sequence    string `json:"sequencial"`
	Description string `json:"descricao"`
	Quantity    string `json:"quantidade"`
	Unit        string `json:"unidade,omitempty"`
	UnitValue   string `json:"valor_unitario"`
}

// ImportResponse respuesta de POST /api/declarations.
type ImportResponse struct {
	RecordID          string `json:"registro_id,omitempty"`
	DeclarationNumber string `json:"numero_di"`
	ContentHash       string `json:"sha256"`
	CanonicalHash     string `json:"sha256_canonico,omitempty"`
	Incoterm          string `json:"incoterm,omitempty"`
	Additions         int    `json:"adicoes"`
	Goods             int    `json:"mercadorias"`
	TotalValueSource  string `json:"valor_total_moeda"`
	TotalValueLocal   string `json:"valor_total_reais"`
	DurationMS        int64  `json:"duracao_ms"`
}

// DuplicateResponse cuerpo del 409 con el registro previo.
type DuplicateResponse struct {
	ErrorResponse
	PreviousRecordID string    `json:"registro_previo"`
	ProcessedAt      time.Time `json:"processado_em"`
}

// ParseFailureResponse cuerpo del 422 con todas las quejas de sintaxis.
type ParseFailureResponse struct {
	ErrorResponse
	Element  string   `json:"elemento,omitempty"`
	Problems []string `json:"problemas,omitempty"`
}

// ProcessedDocumentResponse registro de procesamiento.
type ProcessedDocumentResponse struct {
	ID                string    `json:"id"`
	ContentHash       string    `json:"sha256"`
	CanonicalHash     string    `json:"sha256_canonico,omitempty"`
	OriginalFilename  string    `json:"arquivo,omitempty"`
	DeclarationNumber string    `json:"numero_di,omitempty"`
	Incoterm          string    `json:"incoterm,omitempty"`
	ByteSize          int64     `json:"bytes"`
	Status            string    `json:"status"`
	ErrorMessage      string    `json:"erro,omitempty"`
	ProcessedAt       time.Time `json:"processado_em"`
}

// NewDeclarationResponse mapea el grafo a su representación HTTP.
func NewDeclarationResponse(d *entity.Declaration) DeclarationResponse {
	out := DeclarationResponse{
		Number:           d.Number,
		RegistrationDate: d.RegistrationDate,
		ImporterTaxID:    d.ImporterTaxID,
		ImporterName:     d.ImporterName,
		AdditionCount:    d.AdditionCount,
		TotalValueSource: customs.Monetary.Format(d.TotalValueSource),
		TotalValueLocal:  customs.Monetary.Format(d.TotalValueLocal),
		Additions:        make([]AdditionResponse, 0, len(d.Additions)),
	}
	for _, a := range d.Additions {
		ar := AdditionResponse{
			Number:         a.Number,
			TariffCode:     a.TariffCode,
			Incoterm:       a.Incoterm,
			IncotermPlace:  a.IncotermPlace,
			ValuationBasis: a.ValuationBasis,
			ValueSource:    customs.Monetary.Format(a.ValueSource),
			ValueLocal:     customs.Monetary.Format(a.ValueLocal),
			CurrencyCode:   a.CurrencyCode,
			CurrencyName:   a.CurrencyName,
			NetWeight:      customs.Weight.Format(a.NetWeight),
			GrossWeight:    customs.Weight.Format(a.GrossWeight),
			Taxes:          make([]TaxResponse, 0, len(a.Taxes)),
			Goods:          make([]GoodsLineResponse, 0, len(a.Goods)),
		}
		for _, kind := range entity.TaxKinds {
			t := a.Tax(kind)
			if t == nil {
				continue
			}
			tr := TaxResponse{
				Kind:   string(kind),
				Amount: customs.Monetary.Format(t.Amount),
				Rate:   customs.Rate.Format(t.Rate),
			}
			if t.Base.Valid {
				base := customs.Monetary.Format(t.Base.Decimal)
				tr.Base = &base
			}
			ar.Taxes = append(ar.Taxes, tr)
		}
		for _, g := range a.Goods {
			ar.Goods = append(ar.Goods, GoodsLineResponse{
				Sequence:    g.Sequence,
				Description: g.Description,
				Quantity:    customs.Quantity.Format(g.Quantity),
				Unit:        g.Unit,
				UnitValue:   customs.UnitPrice.Format(g.UnitValue),
			})
		}
		out.Additions = append(out.Additions, ar)
	}
	return out
}

// NewProcessedDocumentResponse mapea un registro de procesamiento.
func NewProcessedDocumentResponse(p *entity.ProcessedDocument) ProcessedDocumentResponse {
	return ProcessedDocumentResponse{
		ID:                p.ID,
		ContentHash:       p.ContentHash,
		CanonicalHash:     p.CanonicalHash,
		OriginalFilename:  p.OriginalFilename,
		DeclarationNumber: p.DeclarationNumber,
		Incoterm:          p.Incoterm,
		ByteSize:          p.ByteSize,
		Status:            p.Status,
		ErrorMessage:      p.ErrorMessage,
		ProcessedAt:       p.ProcessedAt,
	}
}
