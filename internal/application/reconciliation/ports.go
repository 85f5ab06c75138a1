package reconciliation

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Aduana-api/internal/domain/entity"
)

// TaxEngine motor externo que recalcula los tributos teóricos de una DI declarada.
// Devuelve un grafo con las mismas adiciones (por número) y los montos que debieron declararse.
type TaxEngine interface {
	Theoretical(ctx context.Context, declared *entity.Declaration) (*entity.Declaration, error)
}

// ReportData contenido del informe de divergencias.
type ReportData struct {
	Declaration  *entity.Declaration
	Mismatches   []entity.Mismatch
	ThresholdPct decimal.Decimal
	GeneratedAt  time.Time
}

// ReportGenerator genera la representación gráfica (PDF) del informe.
type ReportGenerator interface {
	GenerateDivergenceReport(ctx context.Context, data ReportData) ([]byte, error)
}

// Recorder métricas de divergencias (metrics.Metrics).
type Recorder interface {
	IncDivergence(kind, tax string)
}

type nopRecorder struct{}

func (nopRecorder) IncDivergence(string, string) {}
