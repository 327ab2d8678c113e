package runner

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/torosent/packetfire/internal/payload"
	"github.com/torosent/packetfire/internal/shutdown"
	"github.com/torosent/packetfire/internal/tracing"
)

// Result captures execution summary. Counts are exact: they are read only
// after every worker has stopped.
type Result struct {
	Successes uint64
	Failures  uint64
	Duration  time.Duration
	Stops     map[StopReason]int // workers per terminal state
}

// Total is the number of send attempts, including failed socket opens.
func (r Result) Total() uint64 {
	return r.Successes + r.Failures
}

// Runner coordinates the send workers.
type Runner struct {
	opt Options
}

// New validates opt and returns a Runner ready to Run.
func New(opt Options) (*Runner, error) {
	if err := opt.validate(); err != nil {
		return nil, err
	}
	opt.normalize()
	return &Runner{opt: opt}, nil
}

// Signal returns the stop flag observed by the workers.
func (r *Runner) Signal() *shutdown.Signal {
	return r.opt.Signal
}

// Stop asks every worker to finish after its current send.
func (r *Runner) Stop() {
	r.opt.Signal.Set()
}

// Run spawns the workers, blocks until all of them have stopped and returns
// the final counters. Cancelling ctx has the same effect as Stop.
func (r *Runner) Run(ctx context.Context) Result {
	opt := r.opt
	ctx, span := tracing.StartRunSpan(ctx, opt.Tracer, opt.Target.String(), opt.Workers, opt.PayloadSize, opt.Duration)

	if ctx.Err() != nil {
		opt.Signal.Set()
	}
	stopBridge := context.AfterFunc(ctx, func() { opt.Signal.Set() })
	defer stopBridge()
	// Dials ignore cancellation; workers observe it through the signal.
	dialCtx := context.WithoutCancel(ctx)

	opt.Logger.Info("run started",
		"target", opt.Target.String(),
		"workers", opt.Workers,
		"payload_size", opt.PayloadSize,
		"duration", opt.Duration,
	)

	start := opt.Clock.Now()
	deadline := start.Add(opt.Duration)
	reasons := make([]StopReason, opt.Workers)

	var wg sync.WaitGroup
	wg.Add(opt.Workers)
	for i := 0; i < opt.Workers; i++ {
		w := &worker{
			id:          i,
			target:      opt.Target,
			payloadSize: opt.PayloadSize,
			deadline:    deadline,
			rng:         payload.NewRand(i),
			dialer:      opt.Dialer,
			clock:       opt.Clock,
			signal:      opt.Signal,
			recorder:    opt.Recorder,
			logger:      opt.Logger,
			tracer:      opt.Tracer,
		}
		if opt.Observer != nil {
			w.observer = opt.Observer(i)
		}
		go func() {
			defer wg.Done()
			reasons[i] = w.run(dialCtx)
		}()
	}
	wg.Wait()

	successes, failures := opt.Recorder.Snapshot()
	result := Result{
		Successes: successes,
		Failures:  failures,
		Duration:  opt.Clock.Since(start),
		Stops:     make(map[StopReason]int, 3),
	}
	for _, reason := range reasons {
		result.Stops[reason]++
	}

	opt.Logger.Info("run finished",
		"successes", result.Successes,
		"failures", result.Failures,
		"elapsed", result.Duration,
		"deadline_stops", result.Stops[StopDeadline],
		"cancelled_stops", result.Stops[StopCancelled],
		"dial_failures", result.Stops[StopDialFailed],
	)
	tracing.EndSpan(span, nil,
		attribute.Int64("packetfire.successes", int64(result.Successes)),
		attribute.Int64("packetfire.failures", int64(result.Failures)),
	)
	return result
}
