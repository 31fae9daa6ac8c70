package prometheus

import (
	"fmt"
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/symph-co/shorturl/config"
)

const (
	readHeaderTimeout = 5 * time.Second
	writeTimeout      = 10 * time.Second
	defaultPort       = 9090
)

// NewServer builds the side HTTP server that exposes /metrics for scraping.
// It serves the default registry, where every metric in this package lives.
func NewServer(cfg config.PrometheusConfig) *http.Server {
	port := cfg.Port
	if port == 0 {
		port = defaultPort
	}

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           Handler(prom.DefaultRegisterer, prom.DefaultGatherer),
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
	}
}

// Handler routes /metrics to g and counts scrapes on r.
func Handler(r prom.Registerer, g prom.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.InstrumentMetricHandler(r,
		promhttp.HandlerFor(g, promhttp.HandlerOpts{EnableOpenMetrics: true}),
	))
	return mux
}
