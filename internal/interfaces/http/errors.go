package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Aduana-api/internal/application/dto"
	"github.com/jhoicas/Aduana-api/internal/application/ingest"
	"github.com/jhoicas/Aduana-api/internal/domain"
)

// writeError traduce los errores de dominio a códigos HTTP.
func writeError(c *fiber.Ctx, err error) error {
	var dup *ingest.DuplicateError
	if errors.As(err, &dup) {
		return c.Status(fiber.StatusConflict).JSON(dto.DuplicateResponse{
			ErrorResponse:    dto.ErrorResponse{Code: "DUPLICATE", Message: err.Error()},
			PreviousRecordID: dup.Previous.ID,
			ProcessedAt:      dup.Previous.ProcessedAt,
		})
	}
	var pf *domain.ParseFailure
	if errors.As(err, &pf) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ParseFailureResponse{
			ErrorResponse: dto.ErrorResponse{Code: pf.Kind, Message: err.Error()},
			Element:       pf.Element,
			Problems:      pf.Problems,
		})
	}

	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "declaración no encontrada"})
	case errors.Is(err, domain.ErrTooLarge):
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(dto.ErrorResponse{Code: "TOO_LARGE", Message: err.Error()})
	case errors.Is(err, domain.ErrNotSupported):
		return c.Status(fiber.StatusNotImplemented).JSON(dto.ErrorResponse{Code: "NOT_IMPLEMENTED", Message: err.Error()})
	case errors.Is(err, domain.ErrPersistence):
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "PERSISTENCE", Message: err.Error()})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}
