package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/lmittmann/tint"
	"golang.org/x/time/rate"

	"github.com/torosent/packetfire/internal/metrics"
)

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				t := a.Value.Time().UTC()
				a.Value = slog.StringValue(formatRFC3339Millis(t))
			}
			if s, ok := a.Value.Any().(string); ok && s == "" {
				return slog.Attr{}
			}
			return a
		},
	}))
}

func formatRFC3339Millis(t time.Time) string {
	t = t.UTC()
	base := t.Format("2006-01-02T15:04:05")
	ms := t.Nanosecond() / 1_000_000
	return fmt.Sprintf("%s.%03dZ", base, ms)
}

// failureLogger logs failed sends at most once per interval, reporting how
// many failures were folded into each line. Failures inside the current
// window only touch atomics; Sometimes is entered once the window elapses.
type failureLogger struct {
	log       *slog.Logger
	interval  time.Duration
	sometimes rate.Sometimes
	pending   atomic.Uint64
	last      atomic.Int64 // unix nanos of the last logged line
}

func newFailureLogger(log *slog.Logger, interval time.Duration) *failureLogger {
	return &failureLogger{
		log:       log,
		interval:  interval,
		sometimes: rate.Sometimes{Interval: interval},
	}
}

// ObserveSend implements runner.Observer.
func (f *failureLogger) ObserveSend(_ time.Duration, _ int, err error) {
	if err == nil {
		return
	}
	f.pending.Add(1)
	now := time.Now().UnixNano()
	if last := f.last.Load(); last != 0 && now-last < int64(f.interval) {
		return
	}
	f.sometimes.Do(func() {
		f.last.Store(time.Now().UnixNano())
		f.log.Warn("send failed",
			"kind", metrics.FriendlyErrorName(err),
			"error", err,
			"failures", f.pending.Swap(0),
		)
	})
}
