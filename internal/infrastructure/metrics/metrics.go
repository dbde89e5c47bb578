// Package metrics expone los contadores de emisión de NF-e para Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics métricas del flujo de emisión. Un *Metrics nil es válido y no registra nada.
type Metrics struct {
	DocumentsIssued      *prometheus.CounterVec
	TransmissionDuration *prometheus.HistogramVec
	BuildFailures        prometheus.Counter
}

// New registra las métricas en reg. Pasar prometheus.NewRegistry() en tests para evitar
// registros duplicados en el registry global.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		DocumentsIssued: f.NewCounterVec(prometheus.CounterOpts{
			Name: "nfe_documents_issued_total",
			Help: "Documentos registrados por estado final (autorizada, rejeitada, pendente, erro, simulada)",
		}, []string{"status"}),
		TransmissionDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "nfe_transmission_duration_seconds",
			Help:    "Duración de la llamada al web service de autorização",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		}, []string{"status"}),
		BuildFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "nfe_build_failures_total",
			Help: "Emisiones abortadas antes de transmitir (datos inválidos o error de firma)",
		}),
	}
}

// IncDocument cuenta un documento persistido.
func (m *Metrics) IncDocument(status string) {
	if m == nil {
		return
	}
	m.DocumentsIssued.WithLabelValues(status).Inc()
}

// ObserveTransmission registra la duración de una transmisión. Llamar con el time.Now() del inicio.
func (m *Metrics) ObserveTransmission(status string, start time.Time) {
	if m == nil {
		return
	}
	m.TransmissionDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
}

// IncBuildFailure cuenta una emisión que no llegó a transmitirse.
func (m *Metrics) IncBuildFailure() {
	if m == nil {
		return
	}
	m.BuildFailures.Inc()
}
