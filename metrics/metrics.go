// Package metrics exposes Prometheus metrics for the upload service and a
// dedicated scrape listener.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	UploadsTotal   *prometheus.CounterVec // quote_backend_uploads_total{status}
	BytesStored    prometheus.Counter     // quote_backend_bytes_stored_total
	DownloadsTotal *prometheus.CounterVec // quote_backend_downloads_total{status}
	ObjectsSwept   prometheus.Counter     // quote_backend_objects_swept_total
	SweepsTotal    *prometheus.CounterVec // quote_backend_sweeps_total{status}
}

// New registers the service metrics with registry. Passing nil registers
// them with the default registerer.
func New(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	return &Metrics{
		UploadsTotal: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "quote_backend_uploads_total",
			Help: "Uploads by outcome",
		}, []string{"status"}),

		BytesStored: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "quote_backend_bytes_stored_total",
			Help: "Total bytes written to the object store",
		}),

		DownloadsTotal: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "quote_backend_downloads_total",
			Help: "Downloads by outcome",
		}, []string{"status"}),

		ObjectsSwept: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "quote_backend_objects_swept_total",
			Help: "Stored objects removed by TTL sweeps",
		}),

		SweepsTotal: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "quote_backend_sweeps_total",
			Help: "Sweep passes by outcome",
		}, []string{"status"}),
	}
}

// MetricsServer serves the Prometheus scrape endpoint on its own listener,
// separate from the API listener.
type MetricsServer struct {
	srv *http.Server
}

// NewServer creates a metrics server listening on addr.
func NewServer(addr string) *MetricsServer {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &MetricsServer{
		srv: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

// ListenAndServe blocks serving scrape requests.
func (m *MetricsServer) ListenAndServe() error {
	return m.srv.ListenAndServe()
}

// Shutdown gracefully stops the metrics listener.
func (m *MetricsServer) Shutdown(ctx context.Context) error {
	return m.srv.Shutdown(ctx)
}
