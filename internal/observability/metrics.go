package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service, plus a
// rolling latency window surfaced on the status endpoint.
type Metrics struct {
	HTTPRequests     *prometheus.CounterVec
	QuotaRejections  *prometheus.CounterVec
	UpstreamErrors   *prometheus.CounterVec
	SummaryFallbacks prometheus.Counter
	SearchFallbacks  *prometheus.CounterVec
	SearchLatency    prometheus.Histogram
	StoredMemories   prometheus.Gauge
	WSMessages       *prometheus.CounterVec

	Latency *LatencyWindow
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by path, method and status.",
		}, []string{"path", "method", "status"}),
		QuotaRejections: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quota_rejections_total",
			Help:      "Requests rejected by the daily rate limit, by path.",
		}, []string{"path"}),
		UpstreamErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_errors_total",
			Help:      "Model provider errors by operation.",
		}, []string{"operation"}),
		SummaryFallbacks: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "summary_fallbacks_total",
			Help:      "Saves that used the deterministic summary fallback.",
		}),
		SearchFallbacks: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_fallbacks_total",
			Help:      "Searches that fell back to the lexical path, by reason.",
		}, []string{"reason"}),
		SearchLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_latency_ms",
			Help:      "Memory search latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		}),
		StoredMemories: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stored_memories",
			Help:      "Number of memory records in the backing store.",
		}),
		WSMessages: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_messages_total",
			Help:      "WebSocket messages by direction and type.",
		}, []string{"direction", "type"}),
		Latency: NewLatencyWindow(256),
	}
}

// ObserveSearchLatency records one search duration in both the histogram
// and the rolling window.
func (m *Metrics) ObserveSearchLatency(d time.Duration) {
	ms := float64(d.Microseconds()) / 1000
	m.SearchLatency.Observe(ms)
	m.Latency.Observe("search", ms)
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
