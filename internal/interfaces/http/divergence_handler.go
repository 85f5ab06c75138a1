package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Aduana-api/internal/application/dto"
	"github.com/jhoicas/Aduana-api/internal/application/ingest"
	"github.com/jhoicas/Aduana-api/internal/application/reconciliation"
	"github.com/jhoicas/Aduana-api/internal/domain"
)

// DivergenceHandler conciliación de tributos declarados vs teóricos.
type DivergenceHandler struct {
	uc        *reconciliation.UseCase
	extractor ingest.Extractor
}

// NewDivergenceHandler construye el handler.
func NewDivergenceHandler(uc *reconciliation.UseCase, extractor ingest.Extractor) *DivergenceHandler {
	return &DivergenceHandler{uc: uc, extractor: extractor}
}

// CompareDocument compara la DI persistida contra el documento teórico del cuerpo.
// POST /api/declarations/:number/divergences?format=pdf
func (h *DivergenceHandler) CompareDocument(c *fiber.Ctx) error {
	_, data, err := readDocument(c)
	if err != nil {
		return writeError(c, err)
	}
	if len(data) == 0 {
		return writeError(c, fmt.Errorf("%w: documento teórico vacío", domain.ErrInvalidInput))
	}
	theoretical, err := h.extractor.Extract(data)
	if err != nil {
		return writeError(c, err)
	}

	number := c.Params("number")
	if c.Query("format") == "pdf" {
		pdf, err := h.uc.Report(c.UserContext(), number, theoretical)
		if err != nil {
			return writeError(c, err)
		}
		return sendPDF(c, number, pdf)
	}

	mismatches, err := h.uc.CompareStored(c.UserContext(), number, theoretical)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewDivergenceResponse(number, h.uc.ThresholdPct(), mismatches))
}

// CompareWithEngine compara contra el motor de cálculo configurado (501 si no hay).
// GET /api/declarations/:number/divergences?format=pdf
func (h *DivergenceHandler) CompareWithEngine(c *fiber.Ctx) error {
	number := c.Params("number")
	if c.Query("format") == "pdf" && h.uc.EngineEnabled() {
		pdf, err := h.uc.Report(c.UserContext(), number, nil)
		if err != nil {
			return writeError(c, err)
		}
		return sendPDF(c, number, pdf)
	}
	mismatches, err := h.uc.CompareWithEngine(c.UserContext(), number)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewDivergenceResponse(number, h.uc.ThresholdPct(), mismatches))
}

func sendPDF(c *fiber.Ctx, number string, pdf []byte) error {
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="divergencias_%s.pdf"`, number))
	return c.Send(pdf)
}
