package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Metrics holds the counters recorded by ingestion, backfill and summarization.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Ingestions       *prometheus.CounterVec
	SectionsCreated  prometheus.Counter
	BackfillSections *prometheus.CounterVec
	Summaries        *prometheus.CounterVec
}

// NewMetrics creates the counters and registers them on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Ingestions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "justabill_ingestions_total",
			Help: "Bill ingestions by outcome.",
		}, []string{"outcome"}),
		SectionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "justabill_sections_created_total",
			Help: "Sections written by structural re-ingestion.",
		}),
		BackfillSections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "justabill_backfill_sections_total",
			Help: "Persisted sections visited by group backfill, by result.",
		}, []string{"result"}),
		Summaries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "justabill_summaries_total",
			Help: "Section summarization attempts by result.",
		}, []string{"result"}),
	}

	for _, c := range []prometheus.Collector{m.Ingestions, m.SectionsCreated, m.BackfillSections, m.Summaries} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metric: %w", err)
		}
	}
	return m, nil
}

// IngestionDone records one finished ingestion.
func (m *Metrics) IngestionDone(outcome string, sectionsCreated int) {
	if m == nil {
		return
	}
	m.Ingestions.WithLabelValues(outcome).Inc()
	if sectionsCreated > 0 {
		m.SectionsCreated.Add(float64(sectionsCreated))
	}
}

// BackfillDone records the counts of one backfill pass.
func (m *Metrics) BackfillDone(updated, missing int) {
	if m == nil {
		return
	}
	m.BackfillSections.WithLabelValues("updated").Add(float64(updated))
	m.BackfillSections.WithLabelValues("missing").Add(float64(missing))
}

// SummaryDone records one summarization attempt ("ok", "retry" or "failed").
func (m *Metrics) SummaryDone(result string) {
	if m == nil {
		return
	}
	m.Summaries.WithLabelValues(result).Inc()
}

// NewMetricsServer returns an HTTP server exposing gatherer on /metrics.
func NewMetricsServer(addr string, gatherer prometheus.Gatherer) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// PushMetrics replaces the metrics of job on the Pushgateway at url with those of gatherer.
// One-shot commands use it since they exit before any scrape.
func PushMetrics(ctx context.Context, url, job string, gatherer prometheus.Gatherer) error {
	if err := push.New(url, job).Gatherer(gatherer).PushContext(ctx); err != nil {
		return fmt.Errorf("failed to push metrics for %s: %w", job, err)
	}
	return nil
}
