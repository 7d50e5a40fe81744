package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mkarpov/docchat/internal/core/domain"
	"github.com/mkarpov/docchat/internal/core/ports"
)

// Pipeline tracks pipeline build outcomes and cache efficiency. It doubles
// as the cache observer.
type Pipeline struct {
	buildsTotal    *prometheus.CounterVec
	buildDuration  *prometheus.HistogramVec
	buildsInFlight prometheus.Gauge
	cacheHits      prometheus.Counter
	cacheMisses    prometheus.Counter
}

func NewPipeline(registry *prometheus.Registry) *Pipeline {
	m := &Pipeline{
		buildsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "docchat_pipeline_builds_total",
			Help: "Pipeline builds by file kind and outcome.",
		}, []string{"kind", "status"}),
		buildDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "docchat_pipeline_build_duration_seconds",
			Help:    "Pipeline build latency by file kind.",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		}, []string{"kind"}),
		buildsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "docchat_pipeline_builds_in_flight",
			Help: "Pipeline builds currently running.",
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "docchat_pipeline_cache_hits_total",
			Help: "Pipeline lookups served by an already-built pipeline.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "docchat_pipeline_cache_misses_total",
			Help: "Pipeline lookups that found no cached pipeline.",
		}),
	}
	registry.MustRegister(m.buildsTotal, m.buildDuration, m.buildsInFlight, m.cacheHits, m.cacheMisses)
	return m
}

func (m *Pipeline) CacheHit()  { m.cacheHits.Inc() }
func (m *Pipeline) CacheMiss() { m.cacheMisses.Inc() }

func (m *Pipeline) observeBuild(kind domain.FileKind, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.buildsTotal.WithLabelValues(string(kind), status).Inc()
	if err == nil {
		m.buildDuration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())
	}
}

// InstrumentDocumentBuilder wraps a builder so every build is measured.
func InstrumentDocumentBuilder(next ports.DocumentPipelineBuilder, m *Pipeline) ports.DocumentPipelineBuilder {
	return &documentBuilder{next: next, metrics: m}
}

type documentBuilder struct {
	next    ports.DocumentPipelineBuilder
	metrics *Pipeline
}

func (b *documentBuilder) Build(ctx context.Context, key domain.CacheKey, path string) (ports.DocumentPipeline, error) {
	b.metrics.buildsInFlight.Inc()
	defer b.metrics.buildsInFlight.Dec()

	start := time.Now()
	pipeline, err := b.next.Build(ctx, key, path)
	b.metrics.observeBuild(domain.FileKindPDF, start, err)
	return pipeline, err
}

// InstrumentTableBuilder wraps a tabular builder the same way.
func InstrumentTableBuilder(next ports.TablePipelineBuilder, m *Pipeline) ports.TablePipelineBuilder {
	return &tableBuilder{next: next, metrics: m}
}

type tableBuilder struct {
	next    ports.TablePipelineBuilder
	metrics *Pipeline
}

func (b *tableBuilder) Build(ctx context.Context, path string) (ports.TablePipeline, error) {
	b.metrics.buildsInFlight.Inc()
	defer b.metrics.buildsInFlight.Dec()

	start := time.Now()
	pipeline, err := b.next.Build(ctx, path)
	b.metrics.observeBuild(domain.FileKindCSV, start, err)
	return pipeline, err
}
