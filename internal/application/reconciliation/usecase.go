package reconciliation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/Aduana-api/internal/domain"
	"github.com/jhoicas/Aduana-api/internal/domain/entity"
	domainrecon "github.com/jhoicas/Aduana-api/internal/domain/reconciliation"
	"github.com/jhoicas/Aduana-api/internal/domain/repository"
)

// UseCase compara lo declarado en la DI contra los tributos teóricos.
type UseCase struct {
	analyzer  *domainrecon.Analyzer
	repo      repository.DeclarationRepository
	engine    TaxEngine // nil = sin motor configurado
	generator ReportGenerator
	metrics   Recorder
	now       func() time.Time
}

// NewUseCase construye el caso de uso. engine y metrics pueden ser nil.
func NewUseCase(
	analyzer *domainrecon.Analyzer,
	repo repository.DeclarationRepository,
	engine TaxEngine,
	generator ReportGenerator,
	metrics Recorder,
) *UseCase {
	if metrics == nil {
		metrics = nopRecorder{}
	}
	return &UseCase{
		analyzer:  analyzer,
		repo:      repo,
		engine:    engine,
		generator: generator,
		metrics:   metrics,
		now:       time.Now,
	}
}

// ThresholdPct umbral de materialidad configurado, como texto.
func (uc *UseCase) ThresholdPct() string { return uc.analyzer.Threshold().String() }

// EngineEnabled indica si CompareWithEngine está disponible.
func (uc *UseCase) EngineEnabled() bool { return uc.engine != nil }

// Compare grafo declarado vs teórico, ambos ya en memoria.
func (uc *UseCase) Compare(declared, theoretical *entity.Declaration) []entity.Mismatch {
	mismatches := uc.analyzer.Analyze(declared, theoretical)
	for _, m := range mismatches {
		uc.metrics.IncDivergence(string(m.Kind), string(m.TaxKind))
	}
	return mismatches
}

// CompareStored compara la DI persistida contra el grafo teórico recibido.
func (uc *UseCase) CompareStored(ctx context.Context, number string, theoretical *entity.Declaration) ([]entity.Mismatch, error) {
	if theoretical == nil {
		return nil, fmt.Errorf("%w: grafo teórico vacío", domain.ErrInvalidInput)
	}
	declared, err := uc.load(ctx, number)
	if err != nil {
		return nil, err
	}
	return uc.Compare(declared, theoretical), nil
}

// CompareWithEngine pide los valores teóricos al motor configurado.
// domain.ErrNotSupported si no hay motor.
func (uc *UseCase) CompareWithEngine(ctx context.Context, number string) ([]entity.Mismatch, error) {
	if uc.engine == nil {
		return nil, fmt.Errorf("%w: motor de cálculo no configurado", domain.ErrNotSupported)
	}
	declared, err := uc.load(ctx, number)
	if err != nil {
		return nil, err
	}
	theoretical, err := uc.engine.Theoretical(ctx, declared)
	if err != nil {
		return nil, fmt.Errorf("motor de cálculo DI %s: %w", number, err)
	}
	return uc.Compare(declared, theoretical), nil
}

// Report compara la DI persistida y genera el informe PDF.
func (uc *UseCase) Report(ctx context.Context, number string, theoretical *entity.Declaration) ([]byte, error) {
	if uc.generator == nil {
		return nil, fmt.Errorf("%w: generador de informes no configurado", domain.ErrNotSupported)
	}
	declared, err := uc.load(ctx, number)
	if err != nil {
		return nil, err
	}
	if theoretical == nil {
		if uc.engine == nil {
			return nil, fmt.Errorf("%w: grafo teórico vacío", domain.ErrInvalidInput)
		}
		if theoretical, err = uc.engine.Theoretical(ctx, declared); err != nil {
			return nil, fmt.Errorf("motor de cálculo DI %s: %w", number, err)
		}
	}

	data := ReportData{
		Declaration:  declared,
		Mismatches:   uc.Compare(declared, theoretical),
		ThresholdPct: uc.analyzer.Threshold(),
		GeneratedAt:  uc.now().UTC(),
	}
	pdf, err := uc.generator.GenerateDivergenceReport(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("informe de divergencias DI %s: %w", number, err)
	}
	return pdf, nil
}

func (uc *UseCase) load(ctx context.Context, number string) (*entity.Declaration, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, domain.ErrInvalidInput
	}
	d, err := uc.repo.GetByNumber(ctx, number)
	if err != nil {
		return nil, fmt.Errorf("obtener DI %s: %w", number, err)
	}
	if d == nil {
		return nil, domain.ErrNotFound
	}
	return d, nil
}
