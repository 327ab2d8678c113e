package metrics_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/torosent/packetfire/internal/metrics"
)

func TestExporterCountsSends(t *testing.T) {
	e := metrics.NewExporter()
	e.ObserveSend(time.Microsecond, 25, nil)
	e.ObserveSend(time.Microsecond, 25, nil)
	e.ObserveSend(time.Microsecond, 0, syscall.ENOBUFS)
	e.ObserveSend(0, 0, errors.New("dial"))
	e.RunStarted(4)

	expected := `
# HELP packetfire_bytes_sent_total Total UDP payload bytes accepted by the kernel.
# TYPE packetfire_bytes_sent_total counter
packetfire_bytes_sent_total 50
# HELP packetfire_packets_sent_total Total UDP datagrams accepted by the kernel.
# TYPE packetfire_packets_sent_total counter
packetfire_packets_sent_total 2
# HELP packetfire_run_active 1 while a run is in progress.
# TYPE packetfire_run_active gauge
packetfire_run_active 1
# HELP packetfire_send_errors_total Total failed sends and socket opens.
# TYPE packetfire_send_errors_total counter
packetfire_send_errors_total{kind="Error String"} 1
packetfire_send_errors_total{kind="No buffer space"} 1
# HELP packetfire_workers Number of send workers configured for the current run.
# TYPE packetfire_workers gauge
packetfire_workers 4
`
	err := testutil.GatherAndCompare(e.Registry(), strings.NewReader(expected),
		"packetfire_bytes_sent_total",
		"packetfire_packets_sent_total",
		"packetfire_run_active",
		"packetfire_send_errors_total",
		"packetfire_workers",
	)
	if err != nil {
		t.Fatalf("GatherAndCompare() error = %v", err)
	}

	e.RunFinished()
	if err := testutil.GatherAndCompare(e.Registry(), strings.NewReader(`
# HELP packetfire_run_active 1 while a run is in progress.
# TYPE packetfire_run_active gauge
packetfire_run_active 0
`), "packetfire_run_active"); err != nil {
		t.Fatalf("run_active after RunFinished: %v", err)
	}
}

func TestExporterServe(t *testing.T) {
	e := metrics.NewExporter()
	e.SetBuildInfo("test", "abc123")
	e.ObserveSend(time.Microsecond, 10, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	addr, err := e.Serve(ctx, "127.0.0.1:0", slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("Serve() error = %v", err)
	}

	resp, err := http.Get("http://" + addr.String() + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics error = %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	for _, want := range []string{
		"packetfire_packets_sent_total 1",
		`packetfire_build_info{commit="abc123",version="test"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics body missing %q", want)
		}
	}
}
