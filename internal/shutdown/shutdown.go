// Package shutdown provides the cooperative stop flag shared by all send
// workers and the operator-interrupt hook that raises it.
package shutdown

import (
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
)

// Signal is a write-once-to-true flag. The zero value is ready to use.
type Signal struct {
	flag atomic.Bool
}

// New returns an unset Signal.
func New() *Signal {
	return &Signal{}
}

// Set raises the flag. It is safe to call any number of times from any
// goroutine; first reports whether this call performed the transition.
func (s *Signal) Set() (first bool) {
	return s.flag.CompareAndSwap(false, true)
}

// IsSet reports whether the flag has been raised. It never blocks.
func (s *Signal) IsSet() bool {
	return s.flag.Load()
}

// NotifyOnInterrupt raises sig when the process receives the first of the
// given OS signals (os.Interrupt and SIGTERM when none are given). Only the
// first delivery is translated; the returned stop func unsubscribes and is
// safe to call more than once.
func NotifyOnInterrupt(sig *Signal, logger *slog.Logger, signals ...os.Signal) (stop func()) {
	if len(signals) == 0 {
		signals = []os.Signal{os.Interrupt, syscall.SIGTERM}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, signals...)
	done := make(chan struct{})

	go func() {
		select {
		case received := <-ch:
			signal.Stop(ch)
			if sig.Set() {
				logger.Warn("signal received, graceful shutdown initiated", "signal", received.String())
			}
		case <-done:
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			signal.Stop(ch)
			close(done)
		})
	}
}
