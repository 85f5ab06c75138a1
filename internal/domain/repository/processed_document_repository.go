package repository

import (
	"context"

	"github.com/jhoicas/Aduana-api/internal/domain/entity"
)

// ProcessedDocumentRepository puerto del registro de documentos procesados.
type ProcessedDocumentRepository interface {
	Create(ctx context.Context, doc *entity.ProcessedDocument) error
	// FindCompletedByHash devuelve el último registro COMPLETED cuyo hash de contenido o canónico coincide; (nil, nil) si no hay.
	FindCompletedByHash(ctx context.Context, contentHash string) (*entity.ProcessedDocument, error)
	ListByDeclaration(ctx context.Context, declarationNumber string) ([]*entity.ProcessedDocument, error)
}
