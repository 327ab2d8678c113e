package runner

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"net/netip"
	"time"

	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/torosent/packetfire/internal/payload"
	"github.com/torosent/packetfire/internal/shutdown"
	"github.com/torosent/packetfire/internal/tracing"
	"github.com/torosent/packetfire/internal/transport"
)

// StopReason names the terminal state a worker reached.
type StopReason string

const (
	StopDeadline   StopReason = "deadline"
	StopCancelled  StopReason = "cancelled"
	StopDialFailed StopReason = "dial_failed"
)

// worker owns one socket and one payload. Nothing here is shared except the
// signal and the recorder.
type worker struct {
	id          int
	target      netip.AddrPort
	payloadSize int
	deadline    time.Time
	rng         *rand.Rand

	dialer   transport.Dialer
	clock    clockwork.Clock
	signal   *shutdown.Signal
	recorder Recorder
	observer Observer
	logger   *slog.Logger
	tracer   trace.Tracer
}

// workerStats are the worker's private tallies, reported on its span.
type workerStats struct {
	sent   uint64
	failed uint64
}

func (w *worker) run(ctx context.Context) StopReason {
	_, span := tracing.StartWorkerSpan(ctx, w.tracer, w.id)

	conn, err := w.dialer.Dial(ctx, w.target)
	if err != nil {
		w.recorder.RecordFailure()
		if w.observer != nil {
			w.observer.ObserveSend(0, 0, err)
		}
		w.logger.Debug("worker could not open socket", "worker", w.id, "error", err)
		tracing.EndSpan(span, err, attribute.String("packetfire.stop_reason", string(StopDialFailed)))
		return StopDialFailed
	}

	buf := payload.Generate(w.payloadSize, w.rng)
	stats, reason := w.loop(conn, buf)

	if err := conn.Close(); err != nil {
		w.logger.Debug("worker socket close failed", "worker", w.id, "error", err)
	}
	tracing.EndSpan(span, nil,
		attribute.String("packetfire.stop_reason", string(reason)),
		attribute.Int64("packetfire.sent", int64(stats.sent)),
		attribute.Int64("packetfire.failed", int64(stats.failed)),
	)
	return reason
}

func (w *worker) loop(conn transport.Conn, buf []byte) (workerStats, StopReason) {
	var stats workerStats
	for {
		if w.signal.IsSet() {
			return stats, StopCancelled
		}
		now := w.clock.Now()
		if !now.Before(w.deadline) {
			return stats, StopDeadline
		}

		n, err := conn.Write(buf)
		err = transport.Check(n, len(buf), err)
		if err != nil {
			w.recorder.RecordFailure()
			stats.failed++
		} else {
			w.recorder.RecordSuccess()
			stats.sent++
		}
		if w.observer != nil {
			w.observer.ObserveSend(w.clock.Since(now), n, err)
		}
	}
}
