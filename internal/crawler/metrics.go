package crawler

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records crawl activity. A nil *Metrics is valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	crawls       *prometheus.CounterVec
	pages        prometheus.Counter
	reviews      prometheus.Counter
	faults       prometheus.Counter
	pageDuration prometheus.Histogram
}

// NewMetrics creates metrics registered on a private registry
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		crawls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "revscrape",
			Name:      "crawls_total",
			Help:      "Crawl commands handled, by response status.",
		}, []string{"status"}),
		pages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "revscrape",
			Name:      "pages_total",
			Help:      "Review list pages extracted.",
		}),
		reviews: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "revscrape",
			Name:      "reviews_total",
			Help:      "Reviews extracted.",
		}),
		faults: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "revscrape",
			Name:      "extraction_faults_total",
			Help:      "Review nodes skipped because extraction failed.",
		}),
		pageDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "revscrape",
			Name:      "page_duration_seconds",
			Help:      "Time spent extracting and advancing one page, settling excluded.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	m.Registry.MustRegister(m.crawls, m.pages, m.reviews, m.faults, m.pageDuration)
	return m
}

// WriteFile writes the metrics in the Prometheus text format
func (m *Metrics) WriteFile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.Registry)
}

// ExtractionFault counts one skipped review node
func (m *Metrics) ExtractionFault(error) {
	if m == nil {
		return
	}
	m.faults.Inc()
}

func (m *Metrics) crawl(status string) {
	if m == nil {
		return
	}
	m.crawls.WithLabelValues(status).Inc()
}

func (m *Metrics) page(reviews int, took time.Duration) {
	if m == nil {
		return
	}
	m.pages.Inc()
	m.reviews.Add(float64(reviews))
	m.pageDuration.Observe(took.Seconds())
}
