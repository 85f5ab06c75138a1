package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/jhoicas/Aduana-api/internal/domain"
	"github.com/jhoicas/Aduana-api/internal/domain/entity"
	"github.com/jhoicas/Aduana-api/internal/domain/repository"
	"github.com/jhoicas/Aduana-api/internal/infrastructure/siscomex"
)

// ContentHash SHA-256 (hex) de los bytes originales del documento.
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// CanonicalHash SHA-256 (hex) de la forma C14N. "" si el documento no es XML bien formado.
func CanonicalHash(data []byte) string {
	canonical, err := siscomex.Canonicalize(data)
	if err != nil || len(canonical) == 0 {
		return ""
	}
	return ContentHash(canonical)
}

// Registrar traza de auditoría de los documentos procesados. La política de duplicados
// (qué hacer con un hash ya visto) es de quien lo consulta.
type Registrar struct {
	repo repository.ProcessedDocumentRepository
}

// NewRegistrar construye el registrador.
func NewRegistrar(repo repository.ProcessedDocumentRepository) *Registrar {
	return &Registrar{repo: repo}
}

// Record guarda el registro y lo devuelve con ID y fecha asignados.
func (r *Registrar) Record(ctx context.Context, doc entity.ProcessedDocument) (*entity.ProcessedDocument, error) {
	if doc.ContentHash == "" {
		return nil, fmt.Errorf("%w: registro sin hash de contenido", domain.ErrInvalidInput)
	}
	switch doc.Status {
	case entity.ProcessingCompleted, entity.ProcessingFailed:
	default:
		return nil, fmt.Errorf("%w: estado %q", domain.ErrInvalidInput, doc.Status)
	}
	if err := r.repo.Create(ctx, &doc); err != nil {
		return nil, fmt.Errorf("registrar documento: %w", err)
	}
	return &doc, nil
}

// Lookup último registro COMPLETED con ese hash (contenido o canónico); nil si no hay.
func (r *Registrar) Lookup(ctx context.Context, hash string) (*entity.ProcessedDocument, error) {
	if hash == "" {
		return nil, nil
	}
	return r.repo.FindCompletedByHash(ctx, hash)
}

// History registros de una declaración, más reciente primero.
func (r *Registrar) History(ctx context.Context, declarationNumber string) ([]*entity.ProcessedDocument, error) {
	return r.repo.ListByDeclaration(ctx, declarationNumber)
}
