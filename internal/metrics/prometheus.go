package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Exporter mirrors send observations into Prometheus metrics. Counters are
// atomic, so a single Exporter is shared by every worker.
type Exporter struct {
	registry  *prometheus.Registry
	packets   prometheus.Counter
	bytes     prometheus.Counter
	errors    *prometheus.CounterVec
	workers   prometheus.Gauge
	running   prometheus.Gauge
	buildInfo *prometheus.GaugeVec

	errorKinds sync.Map // kind -> prometheus.Counter
}

// NewExporter registers the packetfire metrics on a fresh registry.
func NewExporter() *Exporter {
	reg := prometheus.NewRegistry()
	e := &Exporter{
		registry: reg,
		packets: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "packetfire_packets_sent_total", Help: "Total UDP datagrams accepted by the kernel.",
		}),
		bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "packetfire_bytes_sent_total", Help: "Total UDP payload bytes accepted by the kernel.",
		}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "packetfire_send_errors_total", Help: "Total failed sends and socket opens.",
		}, []string{"kind"}),
		workers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "packetfire_workers", Help: "Number of send workers configured for the current run.",
		}),
		running: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "packetfire_run_active", Help: "1 while a run is in progress.",
		}),
		buildInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "packetfire_build_info", Help: "Build information of packetfire.",
		}, []string{"version", "commit"}),
	}
	reg.MustRegister(e.packets, e.bytes, e.errors, e.workers, e.running, e.buildInfo)
	return e
}

// Registry exposes the underlying registry, mainly for tests.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

// SetBuildInfo publishes the build labels.
func (e *Exporter) SetBuildInfo(version, commit string) {
	e.buildInfo.WithLabelValues(version, commit).Set(1)
}

// RunStarted marks a run as active with the given worker count.
func (e *Exporter) RunStarted(workers int) {
	e.workers.Set(float64(workers))
	e.running.Set(1)
}

// RunFinished clears the active-run gauge.
func (e *Exporter) RunFinished() {
	e.running.Set(0)
}

// ObserveSend implements runner.Observer.
func (e *Exporter) ObserveSend(_ time.Duration, n int, err error) {
	if err == nil {
		e.packets.Inc()
		e.bytes.Add(float64(n))
		return
	}
	e.errorCounter(FriendlyErrorName(err)).Inc()
}

func (e *Exporter) errorCounter(kind string) prometheus.Counter {
	if c, ok := e.errorKinds.Load(kind); ok {
		return c.(prometheus.Counter)
	}
	c, _ := e.errorKinds.LoadOrStore(kind, e.errors.WithLabelValues(kind))
	return c.(prometheus.Counter)
}

// Handler returns the HTTP handler serving the registry.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done. It returns once the
// listener is bound; serving continues in the background.
func (e *Exporter) Serve(ctx context.Context, addr string, log *slog.Logger) (net.Addr, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", e.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("prometheus metrics server failed", "error", err)
		}
	}()

	log.Info("prometheus metrics server listening", "address", listener.Addr().String())
	return listener.Addr(), nil
}
