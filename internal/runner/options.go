package runner

import (
	"errors"
	"fmt"
	"log/slog"
	"net/netip"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/torosent/packetfire/internal/shutdown"
	"github.com/torosent/packetfire/internal/transport"
)

// ErrInvalidOptions is wrapped by every error New returns.
var ErrInvalidOptions = errors.New("invalid runner options")

// Options configure the Runner.
type Options struct {
	Target      netip.AddrPort // destination of every datagram (required)
	Duration    time.Duration  // how long workers keep sending; 0 stops them immediately
	PayloadSize int            // bytes per datagram (required, > 0)
	Workers     int            // number of send goroutines (required, > 0)

	Dialer   transport.Dialer          // socket factory; defaults to transport.UDPDialer{}
	Clock    clockwork.Clock           // deadline clock; defaults to the real clock
	Signal   *shutdown.Signal          // stop flag; a fresh one is created when nil
	Recorder Recorder                  // success/failure aggregate; defaults to NewCounters()
	Observer func(worker int) Observer // optional per-worker send observer
	Logger   *slog.Logger              // defaults to a discarding logger
	Tracer   trace.Tracer              // defaults to a no-op tracer
}

func (o Options) validate() error {
	var issues []string
	if !o.Target.IsValid() {
		issues = append(issues, "target is required")
	} else if o.Target.Port() == 0 {
		issues = append(issues, "target port must be non-zero")
	}
	if o.Duration < 0 {
		issues = append(issues, "duration must not be negative")
	}
	if o.PayloadSize <= 0 {
		issues = append(issues, "payload size must be positive")
	}
	if o.Workers <= 0 {
		issues = append(issues, "workers must be positive")
	}
	if len(issues) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidOptions, strings.Join(issues, "; "))
}

func (o *Options) normalize() {
	if o.Dialer == nil {
		o.Dialer = transport.UDPDialer{}
	}
	if o.Clock == nil {
		o.Clock = clockwork.NewRealClock()
	}
	if o.Signal == nil {
		o.Signal = shutdown.New()
	}
	if o.Recorder == nil {
		o.Recorder = NewCounters()
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	if o.Tracer == nil {
		o.Tracer = noop.NewTracerProvider().Tracer("packetfire")
	}
}
