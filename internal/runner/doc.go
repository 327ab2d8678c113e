// Package runner is the packetfire send engine.
//
// A [Runner] fans out a fixed number of workers against one UDP destination.
// Every worker opens its own socket, builds its own payload from a privately
// seeded generator, and sends that payload in a tight loop until the shared
// deadline passes or the shared [shutdown.Signal] is raised. Workers never
// coordinate with each other; the only shared state is the [Recorder]
// (atomic success/failure counters) and the stop flag.
//
// # Basic Usage
//
//	r, err := runner.New(runner.Options{
//		Target:      netip.MustParseAddrPort("203.0.113.5:9999"),
//		Duration:    30 * time.Second,
//		PayloadSize: 25,
//		Workers:     64,
//	})
//	if err != nil {
//		return err
//	}
//	result := r.Run(ctx)
//
// # Stopping
//
// A run ends for every worker when the deadline passes, when the signal is
// raised (see [Runner.Stop]) or when ctx is cancelled. Stopping is
// cooperative: a worker notices between two sends, so time-to-stop is
// bounded by one send call.
//
// # Errors
//
// Nothing a worker hits is fatal. A socket that cannot be opened counts as
// one failure and ends that worker; a send that fails counts as one failure
// and the loop continues. [Run] therefore has no error return; a high
// failure count in the [Result] is the only signal of trouble.
//
// # Observers
//
// [Options.Observer] attaches a per-worker [Observer] that sees the latency,
// byte count, and error of each send. Metrics collectors and exporters plug
// in here; the counters in the Result never depend on them.
package runner
