package ingest

import (
	"context"
	"time"

	"github.com/jhoicas/Aduana-api/internal/domain/entity"
	"github.com/jhoicas/Aduana-api/internal/domain/repository"
)

// TxRunner ejecuta fn dentro de una transacción, pasando el repositorio de declaraciones atado a ella.
// Commit único si fn no falla; Rollback completo en cualquier otro caso.
type TxRunner interface {
	RunImport(ctx context.Context, fn func(repo repository.DeclarationRepository) error) error
}

// Extractor convierte los bytes del documento en el grafo de la declaración (siscomex.Extractor).
type Extractor interface {
	Extract(data []byte) (*entity.Declaration, error)
}

// Estados finales de un documento, usados como etiqueta de Recorder.IncDocument y en los logs.
const (
	StatusCompleted = "completed"
	StatusDuplicate = "duplicate"
	StatusInvalid   = "invalid"
	StatusFailed    = "failed"
)

// Recorder métricas de la importación (metrics.Metrics).
type Recorder interface {
	IncDocument(status string)
	ObserveImport(d time.Duration)
	AddAdditions(n int)
}

type nopRecorder struct{}

func (nopRecorder) IncDocument(string)          {}
func (nopRecorder) ObserveImport(time.Duration) {}
func (nopRecorder) AddAdditions(int)            {}
