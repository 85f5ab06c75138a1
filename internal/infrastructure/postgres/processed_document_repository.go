package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Aduana-api/internal/domain"
	"github.com/jhoicas/Aduana-api/internal/domain/entity"
	"github.com/jhoicas/Aduana-api/internal/domain/repository"
)

var _ repository.ProcessedDocumentRepository = (*ProcessedDocumentRepo)(nil)

const processedDocumentColumns = `id, content_hash, COALESCE(canonical_hash, ''), COALESCE(original_filename, ''),
	COALESCE(declaration_number, ''), COALESCE(incoterm, ''), byte_size, status, COALESCE(error_message, ''), processed_at`

// ProcessedDocumentRepo registro de documentos procesados.
type ProcessedDocumentRepo struct {
	q Querier
}

// NewProcessedDocumentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewProcessedDocumentRepository(q Querier) *ProcessedDocumentRepo {
	return &ProcessedDocumentRepo{q: q}
}

// Create inserta el registro (asigna ID y fecha si vienen vacíos).
func (r *ProcessedDocumentRepo) Create(ctx context.Context, doc *entity.ProcessedDocument) error {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	if doc.ProcessedAt.IsZero() {
		doc.ProcessedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO processed_documents (id, content_hash, canonical_hash, original_filename, declaration_number,
		                                 incoterm, byte_size, status, error_message, processed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		doc.ID, doc.ContentHash, nullIfEmpty(doc.CanonicalHash), nullIfEmpty(doc.OriginalFilename),
		nullIfEmpty(doc.DeclarationNumber), nullIfEmpty(doc.Incoterm), doc.ByteSize, doc.Status,
		nullIfEmpty(doc.ErrorMessage), doc.ProcessedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("processed document %s: %w", doc.ID, domain.ErrDuplicate)
		}
		return fmt.Errorf("insert processed document: %w", err)
	}
	return nil
}

// FindCompletedByHash último registro COMPLETED con ese hash (contenido o canónico); (nil, nil) si no hay.
func (r *ProcessedDocumentRepo) FindCompletedByHash(ctx context.Context, hash string) (*entity.ProcessedDocument, error) {
	query := `SELECT ` + processedDocumentColumns + `
		FROM processed_documents
		WHERE status = 'COMPLETED' AND (content_hash = $1 OR canonical_hash = $1)
		ORDER BY processed_at DESC
		LIMIT 1`
	doc, err := scanProcessedDocument(r.q.QueryRow(ctx, query, hash))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find processed document: %w", err)
	}
	return doc, nil
}

// ListByDeclaration historial de procesamiento de una DI, más reciente primero.
func (r *ProcessedDocumentRepo) ListByDeclaration(ctx context.Context, declarationNumber string) ([]*entity.ProcessedDocument, error) {
	query := `SELECT ` + processedDocumentColumns + `
		FROM processed_documents
		WHERE declaration_number = $1
		ORDER BY processed_at DESC`
	rows, err := r.q.Query(ctx, query, declarationNumber)
	if err != nil {
		return nil, fmt.Errorf("list processed documents: %w", err)
	}
	defer rows.Close()

	var out []*entity.ProcessedDocument
	for rows.Next() {
		doc, err := scanProcessedDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan processed document: %w", err)
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

func scanProcessedDocument(row pgx.Row) (*entity.ProcessedDocument, error) {
	doc := &entity.ProcessedDocument{}
	var id uuid.UUID
	err := row.Scan(&id, &doc.ContentHash, &doc.CanonicalHash, &doc.OriginalFilename, &doc.DeclarationNumber,
		&doc.Incoterm, &doc.ByteSize, &doc.Status, &doc.ErrorMessage, &doc.ProcessedAt)
	if err != nil {
		return nil, err
	}
	doc.ID = id.String()
	return doc, nil
}
