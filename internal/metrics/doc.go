// Package metrics collects per-send measurements during a packetfire run.
//
// # Collector
//
// The [Collector] is sharded: each worker writes to its own [Shard], picked
// by worker index, so recording a send never contends with another worker.
//
//	collector := metrics.NewCollector(metrics.DefaultShards(workers))
//	collector.Start()
//
//	// runner.Options.Observer
//	observe := func(worker int) runner.Observer { return collector.Shard(worker) }
//
//	stats := collector.Stats(elapsed)
//
// Each shard keeps an HDR histogram of send-call latency, byte and packet
// counters, and a tally of failures keyed by [FriendlyErrorName].
//
// # Statistics
//
// [Stats] merges every shard into totals, packets and megabits per second,
// latency percentiles (P50, P90, P99) and the error breakdown. Every
// collector carries a ULID run identifier that is included in the JSON
// report.
//
// # Prometheus
//
// [Exporter] mirrors the same observations into Prometheus counters on a
// private registry, served by [Exporter.Serve].
package metrics
