// Package metrics provides Prometheus metrics for extraction runs and
// session edits.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/joseph-ayodele/invoice-ledger/constants"
	"github.com/joseph-ayodele/invoice-ledger/internal/assemble"
	"github.com/joseph-ayodele/invoice-ledger/internal/common"
)

var (
	// Extraction metrics
	ExtractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_extractions_total",
			Help: "Total number of extraction attempts",
		},
		[]string{"source", "status"},
	)

	ExtractionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ledger_extraction_duration_seconds",
			Help:    "Time taken by one extraction attempt, document to validated bundle",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"source"},
	)

	ExtractionFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_extraction_failures_total",
			Help: "Extraction attempts aborted by an operational failure",
		},
		[]string{"reason"},
	)

	// Record metrics
	RecordsAccepted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_records_accepted_total",
			Help: "Records that passed validation",
		},
		[]string{"entity"},
	)

	RecordsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_records_rejected_total",
			Help: "Records dropped for fatal validation errors",
		},
		[]string{"entity"},
	)

	AmbiguousTax = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_ambiguous_tax_total",
			Help: "Product taxes normalized with low confidence",
		},
	)

	// Edit metrics
	EditsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_edits_total",
			Help: "Session edits by entity and outcome",
		},
		[]string{"entity", "status"},
	)

	EditDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ledger_edit_duration_seconds",
			Help:    "Time taken to propagate one edit",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
		[]string{"entity"},
	)

	InvoicesRecomputed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_invoices_recomputed_total",
			Help: "Invoices whose derived totals were recomputed by an edit",
		},
		[]string{"entity"},
	)
)

// Recorder records extraction and edit metrics. The zero value is usable.
type Recorder struct{}

// NewRecorder creates a new metrics recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

// RecordExtraction records one extraction attempt.
func (r *Recorder) RecordExtraction(source string, duration time.Duration, err error) {
	if source == "" {
		source = "text"
	}
	ExtractionDuration.WithLabelValues(source).Observe(duration.Seconds())
	if err != nil {
		ExtractionsTotal.WithLabelValues(source, "failed").Inc()
		ExtractionFailures.WithLabelValues(Reason(err)).Inc()
		return
	}
	ExtractionsTotal.WithLabelValues(source, "ok").Inc()
}

// RecordReport records the per-entity outcome of an assembly.
func (r *Recorder) RecordReport(rep assemble.Report) {
	for _, et := range constants.EntityTypes {
		RecordsAccepted.WithLabelValues(string(et)).Add(float64(rep.Accepted[et]))
		RecordsRejected.WithLabelValues(string(et)).Add(float64(rep.Rejected[et]))
	}
	AmbiguousTax.Add(float64(rep.AmbiguousTax))
}

// ObserveEdit records a committed or rejected session edit.
func (r *Recorder) ObserveEdit(et constants.EntityType, updatedInvoices int, elapsed time.Duration, err error) {
	EditDuration.WithLabelValues(string(et)).Observe(elapsed.Seconds())
	if err != nil {
		EditsTotal.WithLabelValues(string(et), Reason(err)).Inc()
		return
	}
	EditsTotal.WithLabelValues(string(et), "ok").Inc()
	InvoicesRecomputed.WithLabelValues(string(et)).Add(float64(updatedInvoices))
}

// Reason turns an error into a bounded label value.
func Reason(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, common.ErrMalformedPayload):
		return "malformed_payload"
	case errors.Is(err, common.ErrServiceUnavailable):
		return "service_unavailable"
	case errors.Is(err, common.ErrUnsupportedFileType):
		return "unsupported_file_type"
	case errors.Is(err, common.ErrStaleReference):
		return "stale_reference"
	case errors.Is(err, common.ErrValidation), errors.Is(err, common.ErrInvalidInput):
		return "invalid"
	default:
		return "other"
	}
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
