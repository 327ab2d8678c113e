//go:build unix

package shutdown_test

import (
	"syscall"
	"testing"
	"time"

	"github.com/torosent/packetfire/internal/shutdown"
)

func TestNotifyOnInterruptSetsSignal(t *testing.T) {
	sig := shutdown.New()
	stop := shutdown.NotifyOnInterrupt(sig, nil, syscall.SIGUSR1)
	defer stop()

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGUSR1); err != nil {
		t.Fatalf("Kill() error = %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for !sig.IsSet() {
		if time.Now().After(deadline) {
			t.Fatal("signal not observed within 2s")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestNotifyOnInterruptStopIsReentrant(t *testing.T) {
	sig := shutdown.New()
	stop := shutdown.NotifyOnInterrupt(sig, nil, syscall.SIGUSR2)
	stop()
	stop()
	if sig.IsSet() {
		t.Fatal("stop() raised the signal")
	}
}
