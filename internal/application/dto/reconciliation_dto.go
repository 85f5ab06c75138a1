package dto

import (
	"github.com/jhoicas/Aduana-api/internal/domain/customs"
	"github.com/jhoicas/Aduana-api/internal/domain/entity"
)

// MismatchResponse divergencia material.
type MismatchResponse struct {
	Kind           string `json:"tipo"`
	AdditionNumber string `json:"numero_adicao"`
	TaxKind        string `json:"tributo,omitempty"`
	Declared       string `json:"declarado"`
	Theoretical    string `json:"teorico"`
	Delta          string `json:"diferenca"`
	DeltaPct       string `json:"diferenca_pct"`
}

// DivergenceResponse resultado de la conciliación de una DI.
type DivergenceResponse struct {
	DeclarationNumber string             `json:"numero_di"`
	ThresholdPct      string             `json:"limiar_pct"`
	Count             int                `json:"total"`
	Mismatches        []MismatchResponse `json:"divergencias"`
}

// NewDivergenceResponse mapea las divergencias del analizador.
func NewDivergenceResponse(number, thresholdPct string, mismatches []entity.Mismatch) DivergenceResponse {
	out := DivergenceResponse{
		DeclarationNumber: number,
		ThresholdPct:      thresholdPct,
		Count:             len(mismatches),
		Mismatches:        make([]MismatchResponse, 0, len(mismatches)),
	}
	for _, m := range mismatches {
		out.Mismatches = append(out.Mismatches, MismatchResponse{
			Kind:           string(m.Kind),
			AdditionNumber: m.AdditionNumber,
			TaxKind:        string(m.TaxKind),
			Declared:       customs.Monetary.Format(m.Declared),
			Theoretical:    customs.Monetary.Format(m.Theoretical),
			Delta:          customs.Monetary.Format(m.Delta),
			DeltaPct:       m.DeltaPct.StringFixed(4),
		})
	}
	return out
}
