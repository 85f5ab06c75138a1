// Package metrics expone los colectores Prometheus de la importación y la conciliación.
// Todos los métodos aceptan receptor nil (métricas deshabilitadas).
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jhoicas/Aduana-api/internal/application/ingest"
	"github.com/jhoicas/Aduana-api/internal/application/reconciliation"
)

var (
	_ ingest.Recorder         = (*Metrics)(nil)
	_ reconciliation.Recorder = (*Metrics)(nil)
)

// Metrics colectores del servicio.
type Metrics struct {
	DocumentsProcessed *prometheus.CounterVec
	ImportDuration     prometheus.Histogram
	Divergences        *prometheus.CounterVec
	AdditionsPersisted prometheus.Counter
}

// New registra los colectores en reg. Con nil usa el registro global por defecto.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		DocumentsProcessed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "aduana_documents_processed_total",
			Help: "Documentos DI procesados por estado final",
		}, []string{"status"}), // ingest.Status*

		ImportDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "aduana_import_duration_seconds",
			Help:    "Duración de la importación completa (extracción + transacción)",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),

		Divergences: f.NewCounterVec(prometheus.CounterOpts{
			Name: "aduana_divergences_total",
			Help: "Divergencias materiales detectadas por tipo y tributo",
		}, []string{"kind", "tax"}),

		AdditionsPersisted: f.NewCounter(prometheus.CounterOpts{
			Name: "aduana_additions_persisted_total",
			Help: "Adiciones escritas en transacciones confirmadas",
		}),
	}
}

// IncDocument registra el estado final de un documento.
func (m *Metrics) IncDocument(status string) {
	if m != nil {
		m.DocumentsProcessed.WithLabelValues(status).Inc()
	}
}

// ObserveImport registra la duración de una importación.
func (m *Metrics) ObserveImport(d time.Duration) {
	if m != nil {
		m.ImportDuration.Observe(d.Seconds())
	}
}

// AddAdditions suma adiciones confirmadas.
func (m *Metrics) AddAdditions(n int) {
	if m != nil && n > 0 {
		m.AdditionsPersisted.Add(float64(n))
	}
}

// IncDivergence registra una divergencia (tax vacío para adiciones faltantes).
func (m *Metrics) IncDivergence(kind, tax string) {
	if m != nil {
		m.Divergences.WithLabelValues(kind, tax).Inc()
	}
}
