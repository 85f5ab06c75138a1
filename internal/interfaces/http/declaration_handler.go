package http

import (
	"fmt"
	"io"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Aduana-api/internal/application/dto"
	"github.com/jhoicas/Aduana-api/internal/application/ingest"
	"github.com/jhoicas/Aduana-api/internal/domain"
)

// DeclarationHandler carga y consulta de Declaraciones de Importación.
type DeclarationHandler struct {
	importUC *ingest.ImportUseCase
	queryUC  *ingest.QueryUseCase
}

// NewDeclarationHandler construye el handler.
func NewDeclarationHandler(importUC *ingest.ImportUseCase, queryUC *ingest.QueryUseCase) *DeclarationHandler {
	return &DeclarationHandler{importUC: importUC, queryUC: queryUC}
}

// Import recibe el documento (multipart "file" o cuerpo crudo) y lo persiste.
// POST /api/declarations?force=true
func (h *DeclarationHandler) Import(c *fiber.Ctx) error {
	filename, data, err := readDocument(c)
	if err != nil {
		return writeError(c, err)
	}
	res, err := h.importUC.Import(c.UserContext(), ingest.ImportRequest{
		Filename: filename,
		Data:     data,
		Force:    c.QueryBool("force", false),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ImportResponse{
		RecordID:          res.RecordID,
		DeclarationNumber: res.DeclarationNumber,
		ContentHash:       res.ContentHash,
		CanonicalHash:     res.CanonicalHash,
		Incoterm:          res.Incoterm,
		Additions:         res.Additions,
		Goods:             res.Goods,
		TotalValueSource:  res.TotalValueSource.StringFixed(2),
		TotalValueLocal:   res.TotalValueLocal.StringFixed(2),
		DurationMS:        res.Duration.Milliseconds(),
	})
}

// GetByNumber devuelve el grafo persistido.
// GET /api/declarations/:number
func (h *DeclarationHandler) GetByNumber(c *fiber.Ctx) error {
	d, err := h.queryUC.Get(c.UserContext(), c.Params("number"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewDeclarationResponse(d))
}

// History registros de procesamiento de la DI, más reciente primero.
// GET /api/declarations/:number/history
func (h *DeclarationHandler) History(c *fiber.Ctx) error {
	records, err := h.importUC.History(c.UserContext(), c.Params("number"))
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.ProcessedDocumentResponse, 0, len(records))
	for _, r := range records {
		out = append(out, dto.NewProcessedDocumentResponse(r))
	}
	return c.JSON(out)
}

// readDocument toma el archivo multipart "file" si existe; si no, el cuerpo crudo.
func readDocument(c *fiber.Ctx) (filename string, data []byte, err error) {
	if fh, ferr := c.FormFile("file"); ferr == nil {
		f, err := fh.Open()
		if err != nil {
			return "", nil, fmt.Errorf("%w: abrir archivo: %v", domain.ErrInvalidInput, err)
		}
		defer f.Close()
		data, err = io.ReadAll(f)
		if err != nil {
			return "", nil, fmt.Errorf("%w: leer archivo: %v", domain.ErrInvalidInput, err)
		}
		return fh.Filename, data, nil
	}
	// fasthttp reutiliza el buffer del cuerpo.
	return c.Get("X-Filename"), append([]byte(nil), c.Body()...), nil
}
