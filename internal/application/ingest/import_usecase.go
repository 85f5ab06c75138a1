package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Aduana-api/internal/domain"
	"github.com/jhoicas/Aduana-api/internal/domain/entity"
	"github.com/jhoicas/Aduana-api/pkg/logger"
)

// ImportRequest documento a importar.
type ImportRequest struct {
	Filename string
	Data     []byte
	Force    bool // Reimporta aunque exista un registro COMPLETED con el mismo hash
}

// ImportResult resumen de una importación confirmada.
type ImportResult struct {
	RecordID          string
	DeclarationNumber string
	ContentHash       string
	CanonicalHash     string
	Incoterm          string
	Additions         int
	Goods             int
	TotalValueSource  decimal.Decimal
	TotalValueLocal   decimal.Decimal
	Duration          time.Duration
	Declaration       *entity.Declaration
}

// DuplicateError documento ya importado; errors.Is(err, domain.ErrDuplicate).
type DuplicateError struct {
	Previous *entity.ProcessedDocument
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s: DI %s (registro %s del %s)", domain.ErrDuplicate,
		e.Previous.DeclarationNumber, e.Previous.ID, e.Previous.ProcessedAt.Format(time.RFC3339))
}

func (e *DuplicateError) Is(target error) bool { return target == domain.ErrDuplicate }

// ImportOptions parámetros del caso de uso.
type ImportOptions struct {
	MaxDocumentBytes int64 // 0 = sin límite
}

// ImportUseCase orquesta hash → política de duplicados → extracción → persistencia → registro.
// Las importaciones de una misma DI se serializan dentro del proceso.
type ImportUseCase struct {
	extractor Extractor
	upserter  *Upserter
	registrar *Registrar
	metrics   Recorder
	log       *logger.Logger
	opts      ImportOptions
	locks     *keyedLock
}

// NewImportUseCase construye el caso de uso. metrics y log pueden ser nil.
func NewImportUseCase(
	extractor Extractor,
	upserter *Upserter,
	registrar *Registrar,
	metrics Recorder,
	log *logger.Logger,
	opts ImportOptions,
) *ImportUseCase {
	if metrics == nil {
		metrics = nopRecorder{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &ImportUseCase{
		extractor: extractor,
		upserter:  upserter,
		registrar: registrar,
		metrics:   metrics,
		log:       log.Named("ingest"),
		opts:      opts,
		locks:     newKeyedLock(),
	}
}

// Import procesa un documento completo. Devuelve *DuplicateError, *domain.ParseFailure o
// *domain.PersistenceError según la etapa que falle; en esos casos la base queda intacta.
func (uc *ImportUseCase) Import(ctx context.Context, req ImportRequest) (*ImportResult, error) {
	start := time.Now()
	if len(req.Data) == 0 {
		uc.metrics.IncDocument(StatusInvalid)
		return nil, fmt.Errorf("%w: documento vacío", domain.ErrInvalidInput)
	}
	if uc.opts.MaxDocumentBytes > 0 && int64(len(req.Data)) > uc.opts.MaxDocumentBytes {
		uc.metrics.IncDocument(StatusInvalid)
		return nil, fmt.Errorf("%w: %d bytes (máximo %d)", domain.ErrTooLarge, len(req.Data), uc.opts.MaxDocumentBytes)
	}

	rec := entity.ProcessedDocument{
		ContentHash:      ContentHash(req.Data),
		CanonicalHash:    CanonicalHash(req.Data),
		OriginalFilename: req.Filename,
		ByteSize:         int64(len(req.Data)),
	}
	logCtx := uc.log.With().Str("file", req.Filename).Str("sha256", rec.ContentHash).Logger()

	if !req.Force {
		if err := uc.rejectProcessed(ctx, rec); err != nil {
			return nil, err
		}
	}

	d, err := uc.extractor.Extract(req.Data)
	if err != nil {
		uc.metrics.IncDocument(StatusInvalid)
		uc.recordFailure(ctx, rec, err)
		logCtx.Warn().Err(err).Str("status", StatusInvalid).Msg("documento rechazado")
		return nil, err
	}
	rec.DeclarationNumber = d.Number
	rec.Incoterm = d.Incoterm()

	unlock := uc.locks.Lock(d.Number)
	defer unlock()

	// Otra importación del mismo contenido pudo confirmarse mientras esperábamos el lock.
	if !req.Force {
		if err := uc.rejectProcessed(ctx, rec); err != nil {
			return nil, err
		}
	}

	if err := uc.upserter.Persist(ctx, d); err != nil {
		uc.metrics.IncDocument(StatusFailed)
		uc.recordFailure(ctx, rec, err)
		logCtx.Error().Err(err).Str("declaration", d.Number).Str("status", StatusFailed).Msg("importación revertida")
		return nil, err
	}

	elapsed := time.Since(start)
	uc.metrics.IncDocument(StatusCompleted)
	uc.metrics.ObserveImport(elapsed)
	uc.metrics.AddAdditions(len(d.Additions))

	rec.Status = entity.ProcessingCompleted
	result := &ImportResult{
		DeclarationNumber: d.Number,
		ContentHash:       rec.ContentHash,
		CanonicalHash:     rec.CanonicalHash,
		Incoterm:          rec.Incoterm,
		Additions:         len(d.Additions),
		Goods:             countGoods(d),
		TotalValueSource:  d.TotalValueSource,
		TotalValueLocal:   d.TotalValueLocal,
		Duration:          elapsed,
		Declaration:       d,
	}
	if saved, err := uc.registrar.Record(ctx, rec); err != nil {
		// El grafo ya está confirmado; solo se pierde la traza.
		logCtx.Error().Err(err).Str("declaration", d.Number).Msg("no se pudo registrar el documento procesado")
	} else {
		result.RecordID = saved.ID
	}

	logCtx.Info().
		Str("declaration", d.Number).
		Int("additions", result.Additions).
		Dur("duration", elapsed).
		Str("status", StatusCompleted).
		Msg("declaración importada")
	return result, nil
}

// History registros de procesamiento de una DI.
func (uc *ImportUseCase) History(ctx context.Context, declarationNumber string) ([]*entity.ProcessedDocument, error) {
	return uc.registrar.History(ctx, declarationNumber)
}

// rejectProcessed aplica la política de duplicados y cuenta el resultado. Un fallo del registro
// cuenta como failed.
func (uc *ImportUseCase) rejectProcessed(ctx context.Context, rec entity.ProcessedDocument) error {
	err := uc.checkDuplicate(ctx, rec)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrDuplicate):
		uc.metrics.IncDocument(StatusDuplicate)
		uc.log.Info().
			Str("file", rec.OriginalFilename).
			Str("sha256", rec.ContentHash).
			Str("status", StatusDuplicate).
			Msg("documento ya procesado")
	default:
		uc.metrics.IncDocument(StatusFailed)
		uc.log.Error().Err(err).
			Str("file", rec.OriginalFilename).
			Str("sha256", rec.ContentHash).
			Str("status", StatusFailed).
			Msg("no se pudo consultar el registro de documentos")
	}
	return err
}

func (uc *ImportUseCase) checkDuplicate(ctx context.Context, rec entity.ProcessedDocument) error {
	for _, hash := range []string{rec.ContentHash, rec.CanonicalHash} {
		prev, err := uc.registrar.Lookup(ctx, hash)
		if err != nil {
			return fmt.Errorf("buscar documento procesado: %w", err)
		}
		if prev != nil {
			return &DuplicateError{Previous: prev}
		}
	}
	return nil
}

func (uc *ImportUseCase) recordFailure(ctx context.Context, rec entity.ProcessedDocument, cause error) {
	rec.Status = entity.ProcessingFailed
	rec.ErrorMessage = cause.Error()
	if _, err := uc.registrar.Record(ctx, rec); err != nil {
		uc.log.Error().Err(err).Str("sha256", rec.ContentHash).Msg("no se pudo registrar el fallo")
	}
}

func countGoods(d *entity.Declaration) int {
	n := 0
	for _, a := range d.Additions {
		n += len(a.Goods)
	}
	return n
}
