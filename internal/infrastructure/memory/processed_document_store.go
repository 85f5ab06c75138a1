package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Aduana-api/internal/domain/entity"
	"github.com/jhoicas/Aduana-api/internal/domain/repository"
)

var _ repository.ProcessedDocumentRepository = (*ProcessedDocumentStore)(nil)

// ProcessedDocumentStore registro de documentos procesados en memoria.
type ProcessedDocumentStore struct {
	mu   sync.RWMutex
	docs []entity.ProcessedDocument
}

// NewProcessedDocumentStore crea el registro vacío.
func NewProcessedDocumentStore() *ProcessedDocumentStore {
	return &ProcessedDocumentStore{}
}

func (s *ProcessedDocumentStore) Create(_ context.Context, doc *entity.ProcessedDocument) error {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	if doc.ProcessedAt.IsZero() {
		doc.ProcessedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = append(s.docs, *doc)
	return nil
}

func (s *ProcessedDocumentStore) FindCompletedByHash(_ context.Context, hash string) (*entity.ProcessedDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var found *entity.ProcessedDocument
	for i := range s.docs {
		d := s.docs[i]
		if d.Status != entity.ProcessingCompleted {
			continue
		}
		if d.ContentHash != hash && (d.CanonicalHash == "" || d.CanonicalHash != hash) {
			continue
		}
		if found == nil || !d.ProcessedAt.Before(found.ProcessedAt) {
			found = &d
		}
	}
	return found, nil
}

func (s *ProcessedDocumentStore) ListByDeclaration(_ context.Context, declarationNumber string) ([]*entity.ProcessedDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*entity.ProcessedDocument
	for i := range s.docs {
		if s.docs[i].DeclarationNumber == declarationNumber {
			d := s.docs[i]
			out = append(out, &d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ProcessedAt.After(out[j].ProcessedAt) })
	return out, nil
}

// All copia de todos los registros en orden de inserción.
func (s *ProcessedDocumentStore) All() []entity.ProcessedDocument {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entity.ProcessedDocument(nil), s.docs...)
}
