package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds every collector the pipeline and the API server record into
type Registry struct {
	registry *prometheus.Registry

	// Parse
	DumpLinesTotal *prometheus.CounterVec

	// Enrichment
	EnrichmentRequestsTotal *prometheus.CounterVec
	EnrichmentRetriesTotal  *prometheus.CounterVec
	EnrichmentPollsTotal    prometheus.Counter
	EnrichmentBatchDuration prometheus.Histogram
	GeneNamesResolvedTotal  *prometheus.CounterVec

	// Output
	MappingLinesWrittenTotal *prometheus.CounterVec

	// HTTP
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewRegistry creates a registry with all collectors registered
func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}
	r.initPipelineMetrics()
	r.initHTTPMetrics()
	return r
}

func (r *Registry) initPipelineMetrics() {
	r.DumpLinesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "orthopairs_dump_lines_total",
			Help: "Ortholog dump lines read, by parse result",
		},
		[]string{"result"},
	)

	r.EnrichmentRequestsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "orthopairs_idmapping_requests_total",
			Help: "Requests sent to the ID mapping service, by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	r.EnrichmentRetriesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "orthopairs_idmapping_retries_total",
			Help: "Transient failures that sent a job to RETRY_WAIT, by state retried from",
		},
		[]string{"state"},
	)

	r.EnrichmentPollsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "orthopairs_idmapping_polls_total",
			Help: "Status polls that found a job still running",
		},
	)

	r.EnrichmentBatchDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "orthopairs_idmapping_batch_duration_seconds",
			Help:    "Time from submission to fetched results for one batch",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
	)

	r.GeneNamesResolvedTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "orthopairs_gene_names_resolved_total",
			Help: "Accessions resolved to a gene name, by species",
		},
		[]string{"species"},
	)

	r.MappingLinesWrittenTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "orthopairs_mapping_lines_written_total",
			Help: "Lines written to mapping files, by file kind",
		},
		[]string{"kind"},
	)
}

func (r *Registry) initHTTPMetrics() {
	r.HTTPRequestsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "orthopairs_http_requests_total",
			Help: "Requests served by the read API",
		},
		[]string{"method", "path", "status"},
	)

	r.HTTPRequestDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "orthopairs_http_request_duration_seconds",
			Help:    "Read API request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
}

// Gatherer exposes the underlying registry for exposition
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// RecordDumpLine records the parse result of one dump line
func (r *Registry) RecordDumpLine(result string) {
	r.DumpLinesTotal.WithLabelValues(result).Inc()
}

// RecordRequest records one call to the ID mapping service
func (r *Registry) RecordRequest(operation, outcome string) {
	r.EnrichmentRequestsTotal.WithLabelValues(operation, outcome).Inc()
}

// RecordRetry records a transition into RETRY_WAIT
func (r *Registry) RecordRetry(state string) {
	r.EnrichmentRetriesTotal.WithLabelValues(state).Inc()
}

// RecordPoll records a status poll that found the job unfinished
func (r *Registry) RecordPoll() {
	r.EnrichmentPollsTotal.Inc()
}

// RecordBatch records a completed batch
func (r *Registry) RecordBatch(duration time.Duration) {
	r.EnrichmentBatchDuration.Observe(duration.Seconds())
}

// RecordGeneNames adds resolved accessions for species
func (r *Registry) RecordGeneNames(species string, n int) {
	r.GeneNamesResolvedTotal.WithLabelValues(species).Add(float64(n))
}

// RecordLinesWritten adds written lines for a file kind
func (r *Registry) RecordLinesWritten(kind string, n int) {
	r.MappingLinesWrittenTotal.WithLabelValues(kind).Add(float64(n))
}

// RecordHTTPRequest records an HTTP request with its duration
func (r *Registry) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// WriteTextfile writes the current values in the Prometheus text format, for
// pickup by a node exporter textfile collector.
func (r *Registry) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
