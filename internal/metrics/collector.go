package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/oklog/ulid/v2"
)

const (
	// Track send latencies from 1µs up to 60s within 1%. Two significant
	// figures keep a histogram near 20KiB, which matters with one per worker.
	histLowest  = 1
	histHighest = 60_000_000
	histSigFigs = 2
)

// DefaultShards returns one shard per worker so no two workers ever share
// a shard.
func DefaultShards(workers int) int {
	if workers < 1 {
		return 1
	}
	return workers
}

// Collector records per-send metrics in a thread-safe manner.
type Collector struct {
	shards []*Shard
	runID  ulid.ULID

	mu    sync.Mutex
	start time.Time
}

// Shard holds one worker's measurements and implements runner.Observer.
// A shard has a single writer; counters are atomic so readers never block
// it, and mu is only contended by Stats while it copies the histogram.
type Shard struct {
	successes  atomic.Int64
	failures   atomic.Int64
	bytes      atomic.Int64
	minLatency atomic.Int64
	maxLatency atomic.Int64
	sumLatency atomic.Int64

	mu           sync.Mutex // guards hist and errorsByKind
	hist         *hdrhistogram.Histogram
	errorsByKind map[string]int64
}

// Stats represents aggregated metrics.
type Stats struct {
	RunID         string        `json:"run_id"`
	Total         int64         `json:"total"`
	Successes     int64         `json:"successes"`
	Failures      int64         `json:"failures"`
	Bytes         int64         `json:"bytes"`
	MinLatency    time.Duration `json:"-"`
	MaxLatency    time.Duration `json:"-"`
	MeanLatency   time.Duration `json:"-"`
	P50Latency    time.Duration `json:"-"`
	P90Latency    time.Duration `json:"-"`
	P99Latency    time.Duration `json:"-"`
	Duration      time.Duration `json:"-"`
	PacketsPerSec float64       `json:"packets_per_sec"`
	MbitsPerSec   float64       `json:"mbits_per_sec"`

	// JSON-friendly millisecond fields.
	MinLatencyMs  float64          `json:"min_latency_ms"`
	MaxLatencyMs  float64          `json:"max_latency_ms"`
	MeanLatencyMs float64          `json:"mean_latency_ms"`
	P50LatencyMs  float64          `json:"p50_latency_ms"`
	P90LatencyMs  float64          `json:"p90_latency_ms"`
	P99LatencyMs  float64          `json:"p99_latency_ms"`
	DurationMs    float64          `json:"duration_ms"`
	Errors        map[string]int64 `json:"errors,omitempty"`
}

// NewCollector returns a Collector with the given number of shards.
func NewCollector(shards int) *Collector {
	if shards < 1 {
		shards = 1
	}
	c := &Collector{
		shards: make([]*Shard, shards),
		runID:  ulid.Make(),
		start:  time.Now(),
	}
	for i := range c.shards {
		c.shards[i] = newShard()
	}
	return c
}

func newShard() *Shard {
	return &Shard{
		hist:         hdrhistogram.New(histLowest, histHighest, histSigFigs),
		errorsByKind: make(map[string]int64),
	}
}

// Start marks the beginning of the run for elapsed-time calculations.
func (c *Collector) Start() {
	c.mu.Lock()
	c.start = time.Now()
	c.mu.Unlock()
}

// Elapsed returns the time since Start.
func (c *Collector) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return time.Since(c.start)
}

// RunID returns the identifier stamped on this collector's stats.
func (c *Collector) RunID() string {
	return c.runID.String()
}

// Shard returns the shard owning the given worker index. Indexes beyond the
// shard count wrap around.
func (c *Collector) Shard(worker int) *Shard {
	if worker < 0 {
		worker = -worker
	}
	return c.shards[worker%len(c.shards)]
}

// ObserveSend records a single send attempt.
func (s *Shard) ObserveSend(latency time.Duration, n int, err error) {
	if latency > 0 {
		s.sumLatency.Add(int64(latency))
		if cur := s.minLatency.Load(); cur == 0 || int64(latency) < cur {
			s.minLatency.Store(int64(latency))
		}
		if int64(latency) > s.maxLatency.Load() {
			s.maxLatency.Store(int64(latency))
		}
	}
	if err == nil {
		s.successes.Add(1)
		s.bytes.Add(int64(n))
	} else {
		s.failures.Add(1)
	}

	if latency <= 0 && err == nil {
		return
	}
	var kind string
	if err != nil {
		kind = FriendlyErrorName(err)
	}

	s.mu.Lock()
	if latency > 0 {
		us := latency.Microseconds()
		if us < s.hist.LowestTrackableValue() {
			us = s.hist.LowestTrackableValue()
		}
		if us > s.hist.HighestTrackableValue() {
			us = s.hist.HighestTrackableValue()
		}
		_ = s.hist.RecordValue(us)
	}
	if err != nil {
		s.errorsByKind[kind]++
	}
	s.mu.Unlock()
}

// Stats merges all shards into aggregated statistics.
func (c *Collector) Stats(elapsed time.Duration) Stats {
	merged := hdrhistogram.New(histLowest, histHighest, histSigFigs)
	stats := Stats{RunID: c.runID.String()}
	var sumLatency time.Duration
	errs := make(map[string]int64)

	for _, s := range c.shards {
		stats.Successes += s.successes.Load()
		stats.Failures += s.failures.Load()
		stats.Bytes += s.bytes.Load()
		sumLatency += time.Duration(s.sumLatency.Load())
		if lo := time.Duration(s.minLatency.Load()); lo > 0 && (stats.MinLatency == 0 || lo < stats.MinLatency) {
			stats.MinLatency = lo
		}
		if hi := time.Duration(s.maxLatency.Load()); hi > stats.MaxLatency {
			stats.MaxLatency = hi
		}

		s.mu.Lock()
		merged.Merge(s.hist)
		for k, v := range s.errorsByKind {
			errs[k] += v
		}
		s.mu.Unlock()
	}

	stats.Total = stats.Successes + stats.Failures
	if samples := merged.TotalCount(); samples > 0 {
		stats.MeanLatency = time.Duration(int64(sumLatency) / samples)
		stats.P50Latency = time.Duration(merged.ValueAtQuantile(50)) * time.Microsecond
		stats.P90Latency = time.Duration(merged.ValueAtQuantile(90)) * time.Microsecond
		stats.P99Latency = time.Duration(merged.ValueAtQuantile(99)) * time.Microsecond
	}

	stats.MinLatencyMs = toMillis(stats.MinLatency)
	stats.MaxLatencyMs = toMillis(stats.MaxLatency)
	stats.MeanLatencyMs = toMillis(stats.MeanLatency)
	stats.P50LatencyMs = toMillis(stats.P50Latency)
	stats.P90LatencyMs = toMillis(stats.P90Latency)
	stats.P99LatencyMs = toMillis(stats.P99Latency)

	stats.Duration = elapsed
	stats.DurationMs = toMillis(elapsed)
	if elapsed > 0 {
		stats.PacketsPerSec = float64(stats.Successes) / elapsed.Seconds()
		stats.MbitsPerSec = float64(stats.Bytes) * 8 / 1e6 / elapsed.Seconds()
	}

	if len(errs) > 0 {
		stats.Errors = errs
	}
	return stats
}

// WithCounts replaces the success and failure tallies, recomputing the
// totals and packet rate derived from them.
func (s Stats) WithCounts(successes, failures uint64) Stats {
	s.Successes = int64(successes)
	s.Failures = int64(failures)
	s.Total = s.Successes + s.Failures
	s.PacketsPerSec = 0
	if s.Duration > 0 {
		s.PacketsPerSec = float64(s.Successes) / s.Duration.Seconds()
	}
	return s
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
