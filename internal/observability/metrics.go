package observability

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// MetricsRegistry holds all registered metrics and serves them in
// Prometheus text format.
type MetricsRegistry struct {
	mu       sync.RWMutex
	counters []*Counter
	gauges   []*Gauge
	histos   []*Histogram
}

// NewMetricsRegistry creates an empty registry.
func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{}
}

// Counter is a monotonically increasing metric.
type Counter struct {
	name  string
	help  string
	mu    sync.Mutex
	value float64
}

// Gauge is a metric that can go up or down.
type Gauge struct {
	name  string
	help  string
	mu    sync.Mutex
	value float64
}

// Histogram tracks a distribution of values over fixed buckets.
type Histogram struct {
	name    string
	help    string
	buckets []float64
	mu      sync.Mutex
	counts  []uint64
	sum     float64
	count   uint64
}

// NewCounter creates and registers a counter.
func (r *MetricsRegistry) NewCounter(name, help string) *Counter {
	c := &Counter{name: name, help: help}
	r.mu.Lock()
	r.counters = append(r.counters, c)
	r.mu.Unlock()
	return c
}

// NewGauge creates and registers a gauge.
func (r *MetricsRegistry) NewGauge(name, help string) *Gauge {
	g := &Gauge{name: name, help: help}
	r.mu.Lock()
	r.gauges = append(r.gauges, g)
	r.mu.Unlock()
	return g
}

// NewHistogram creates and registers a histogram. Nil buckets get the
// default latency buckets.
func (r *MetricsRegistry) NewHistogram(name, help string, buckets []float64) *Histogram {
	if buckets == nil {
		buckets = DefaultBuckets()
	}
	h := &Histogram{name: name, help: help, buckets: buckets, counts: make([]uint64, len(buckets))}
	r.mu.Lock()
	r.histos = append(r.histos, h)
	r.mu.Unlock()
	return h
}

// DefaultBuckets returns default histogram buckets for latency in seconds.
func DefaultBuckets() []float64 {
	return []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
}

// Inc increments the counter by 1.
func (c *Counter) Inc() { c.Add(1) }

// Add adds v to the counter.
func (c *Counter) Add(v float64) {
	c.mu.Lock()
	c.value += v
	c.mu.Unlock()
}

// Value returns the counter value.
func (c *Counter) Value() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Set sets the gauge value.
func (g *Gauge) Set(v float64) {
	g.mu.Lock()
	g.value = v
	g.mu.Unlock()
}

// Inc increments the gauge by 1.
func (g *Gauge) Inc() { g.Add(1) }

// Dec decrements the gauge by 1.
func (g *Gauge) Dec() { g.Add(-1) }

// Add adds v to the gauge.
func (g *Gauge) Add(v float64) {
	g.mu.Lock()
	g.value += v
	g.mu.Unlock()
}

// Value returns the gauge value.
func (g *Gauge) Value() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.value
}

// Observe records a value in the histogram.
func (h *Histogram) Observe(v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sum += v
	h.count++
	for i, bound := range h.buckets {
		if v <= bound {
			h.counts[i]++
		}
	}
}

// ObserveDuration records the elapsed time since start, in seconds.
func (h *Histogram) ObserveDuration(start time.Time) {
	h.Observe(time.Since(start).Seconds())
}

// Count returns how many values were observed.
func (h *Histogram) Count() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count
}

// Handler returns an HTTP handler serving Prometheus text format.
func (r *MetricsRegistry) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		r.WritePrometheus(w)
	})
}

// WritePrometheus writes all metrics in registration order.
func (r *MetricsRegistry) WritePrometheus(w io.Writer) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.counters {
		writeHeader(w, c.name, "counter", c.help)
		fmt.Fprintf(w, "%s %s\n", c.name, formatFloat(c.Value()))
	}
	for _, g := range r.gauges {
		writeHeader(w, g.name, "gauge", g.help)
		fmt.Fprintf(w, "%s %s\n", g.name, formatFloat(g.Value()))
	}
	for _, h := range r.histos {
		h.mu.Lock()
		writeHeader(w, h.name, "histogram", h.help)
		var cumulative uint64
		for i, bound := range h.buckets {
			cumulative += h.counts[i]
			fmt.Fprintf(w, "%s_bucket{le=%q} %d\n", h.name, formatFloat(bound), cumulative)
		}
		fmt.Fprintf(w, "%s_bucket{le=\"+Inf\"} %d\n", h.name, h.count)
		fmt.Fprintf(w, "%s_sum %s\n", h.name, formatFloat(h.sum))
		fmt.Fprintf(w, "%s_count %d\n", h.name, h.count)
		h.mu.Unlock()
	}
}

func writeHeader(w io.Writer, name, metricType, help string) {
	fmt.Fprintf(w, "# HELP %s %s\n", name, help)
	fmt.Fprintf(w, "# TYPE %s %s\n", name, metricType)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// LexragMetrics contains all lexrag-specific metrics.
type LexragMetrics struct {
	Registry *MetricsRegistry

	// Ingestion metrics
	IngestionRunsTotal      *Counter
	DocumentsSkippedTotal   *Counter
	ChunksStoredTotal       *Counter
	ChunksDeduplicatedTotal *Counter
	IngestionDuration       *Histogram

	// Query metrics
	QueriesTotal         *Counter
	QueriesStreamedTotal *Counter
	EmptyRetrievalsTotal *Counter
	QueryErrorsTotal     *Counter
	QueryDuration        *Histogram
	TokensStreamedTotal  *Counter

	// Active streaming responses
	ActiveStreams *Gauge
}

// NewLexragMetrics creates the lexrag metric set on a fresh registry.
func NewLexragMetrics() *LexragMetrics {
	r := NewMetricsRegistry()
	return &LexragMetrics{
		Registry: r,

		IngestionRunsTotal:      r.NewCounter("lexrag_ingestion_runs_total", "Ingestion runs started"),
		DocumentsSkippedTotal:   r.NewCounter("lexrag_documents_skipped_total", "Documents skipped after load retries"),
		ChunksStoredTotal:       r.NewCounter("lexrag_chunks_stored_total", "Net-new chunks written to the vector store"),
		ChunksDeduplicatedTotal: r.NewCounter("lexrag_chunks_deduplicated_total", "Chunks skipped because their id already existed"),
		IngestionDuration:       r.NewHistogram("lexrag_ingestion_duration_seconds", "Ingestion run duration", []float64{1, 5, 15, 60, 300, 900}),

		QueriesTotal:         r.NewCounter("lexrag_queries_total", "Questions answered"),
		QueriesStreamedTotal: r.NewCounter("lexrag_queries_streamed_total", "Questions answered over a token stream"),
		EmptyRetrievalsTotal: r.NewCounter("lexrag_empty_retrievals_total", "Queries for which retrieval found nothing"),
		QueryErrorsTotal:     r.NewCounter("lexrag_query_errors_total", "Queries that failed"),
		QueryDuration:        r.NewHistogram("lexrag_query_duration_seconds", "End-to-end query duration", nil),
		TokensStreamedTotal:  r.NewCounter("lexrag_tokens_streamed_total", "Token events emitted to callers"),

		ActiveStreams: r.NewGauge("lexrag_active_streams", "Streaming responses currently open"),
	}
}

// RecordIngestion records one completed ingestion run.
func (m *LexragMetrics) RecordIngestion(stored, deduplicated, skipped int, duration time.Duration) {
	m.IngestionRunsTotal.Inc()
	m.ChunksStoredTotal.Add(float64(stored))
	m.ChunksDeduplicatedTotal.Add(float64(deduplicated))
	m.DocumentsSkippedTotal.Add(float64(skipped))
	m.IngestionDuration.Observe(duration.Seconds())
}

// RecordQuery records one completed query.
func (m *LexragMetrics) RecordQuery(streamed, empty bool, err error, duration time.Duration) {
	m.QueriesTotal.Inc()
	if streamed {
		m.QueriesStreamedTotal.Inc()
	}
	if empty {
		m.EmptyRetrievalsTotal.Inc()
	}
	if err != nil {
		m.QueryErrorsTotal.Inc()
	}
	m.QueryDuration.Observe(duration.Seconds())
}

// Global metrics instance
var (
	globalMetrics *LexragMetrics
	metricsOnce   sync.Once
)

// Metrics returns the global metrics instance.
func Metrics() *LexragMetrics {
	metricsOnce.Do(func() {
		globalMetrics = NewLexragMetrics()
	})
	return globalMetrics
}
