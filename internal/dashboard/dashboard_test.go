package dashboard

import (
	"errors"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/gizak/termui/v3/widgets"

	"github.com/torosent/packetfire/internal/metrics"
)

func TestInstantRate(t *testing.T) {
	tests := []struct {
		name      string
		prev, cur int64
		dt        time.Duration
		want      float64
	}{
		{"steady", 100, 600, 500 * time.Millisecond, 1000},
		{"no time passed", 100, 600, 0, 0},
		{"counter went backwards", 600, 100, time.Second, 0},
		{"idle", 50, 50, time.Second, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := instantRate(tt.prev, tt.cur, tt.dt); got != tt.want {
				t.Errorf("instantRate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAppendHistory(t *testing.T) {
	var h []float64
	for i := 0; i < 5; i++ {
		h = appendHistory(h, float64(i), 3)
	}
	if len(h) != 3 || h[0] != 2 || h[2] != 4 {
		t.Errorf("history = %v, want [2 3 4]", h)
	}
}

func TestProgressPercent(t *testing.T) {
	tests := []struct {
		elapsed, total time.Duration
		want           int
	}{
		{0, 10 * time.Second, 0},
		{2500 * time.Millisecond, 10 * time.Second, 25},
		{11 * time.Second, 10 * time.Second, 100},
		{time.Second, 0, 0},
	}
	for _, tt := range tests {
		if got := progressPercent(tt.elapsed, tt.total); got != tt.want {
			t.Errorf("progressPercent(%v, %v) = %d, want %d", tt.elapsed, tt.total, got, tt.want)
		}
	}
}

func TestFormatErrorRows(t *testing.T) {
	if rows := formatErrorRows(nil, 10); len(rows) != 1 || !strings.Contains(rows[0], "No failures") {
		t.Fatalf("rows = %v, want no-failures placeholder", rows)
	}

	rows := formatErrorRows(map[string]int64{
		"Connection refused": 7,
		"No buffer space":    12,
		"Short write":        7,
	}, 2)
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	if !strings.Contains(rows[0], "No buffer space") || !strings.HasSuffix(rows[0], " 12") {
		t.Errorf("rows[0] = %q, want most frequent first", rows[0])
	}
	if !strings.Contains(rows[1], "Connection refused") {
		t.Errorf("rows[1] = %q, want ties broken by name", rows[1])
	}
}

func TestFormatRunParams(t *testing.T) {
	tests := []struct {
		name     string
		config   RunConfig
		contains []string
		excludes []string
	}{
		{
			name:     "basic config",
			config:   RunConfig{Workers: 4, PayloadSize: 10, Duration: 2 * time.Second},
			contains: []string{"Workers: 4", "Payload: 10B", "Duration: 2s"},
			excludes: []string{"Config:"},
		},
		{
			name:     "config file shown",
			config:   RunConfig{Workers: 1, ConfigFile: "/tmp/run.yaml"},
			contains: []string{"Config: /tmp/run.yaml"},
		},
		{
			name:   "empty",
			config: RunConfig{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatRunParams(tt.config)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("formatRunParams() = %q, want it to contain %q", got, want)
				}
			}
			for _, exclude := range tt.excludes {
				if strings.Contains(got, exclude) {
					t.Errorf("formatRunParams() = %q, should not contain %q", got, exclude)
				}
			}
		})
	}
}

func TestApplyUpdatesWidgets(t *testing.T) {
	collector := metrics.NewCollector(2)
	for i := 0; i < 10; i++ {
		collector.Shard(i).ObserveSend(200*time.Microsecond, 25, nil)
	}
	collector.Shard(0).ObserveSend(0, 0, syscall.ECONNREFUSED)
	collector.Shard(1).ObserveSend(0, 0, errors.New("boom"))

	sparkline := widgets.NewSparkline()
	d := &Dashboard{
		collector:   collector,
		ppsSparkle:  widgets.NewSparklineGroup(sparkline),
		progress:    widgets.NewGauge(),
		throughput:  widgets.NewParagraph(),
		latencyPara: widgets.NewParagraph(),
		errorList:   widgets.NewList(),
		summaryPara: widgets.NewParagraph(),
		runConfig:   RunConfig{Target: "203.0.113.5:9999", Workers: 2, PayloadSize: 25, Duration: 4 * time.Second},
	}

	d.apply(collector.Stats(time.Second), time.Second)

	if d.progress.Percent != 25 {
		t.Errorf("progress = %d, want 25", d.progress.Percent)
	}
	if len(d.ppsHistory) != 1 || d.ppsHistory[0] != 10 {
		t.Errorf("ppsHistory = %v, want [10]", d.ppsHistory)
	}
	if !strings.Contains(d.summaryPara.Text, "203.0.113.5:9999") {
		t.Errorf("summary = %q, missing target", d.summaryPara.Text)
	}
	if !strings.Contains(d.summaryPara.Text, collector.RunID()) {
		t.Errorf("summary = %q, missing run id", d.summaryPara.Text)
	}
	if !strings.Contains(d.throughput.Text, "Packets Sent: 10") {
		t.Errorf("throughput = %q", d.throughput.Text)
	}
	if !strings.Contains(d.latencyPara.Text, "P99:  0.200ms") {
		t.Errorf("latency = %q", d.latencyPara.Text)
	}
	if len(d.errorList.Rows) != 2 {
		t.Errorf("errorList = %v, want 2 rows", d.errorList.Rows)
	}

	d.apply(collector.Stats(2*time.Second), 2*time.Second)
	if len(d.ppsHistory) != 2 || d.ppsHistory[1] != 0 {
		t.Errorf("ppsHistory = %v, want idle second sample", d.ppsHistory)
	}
}
