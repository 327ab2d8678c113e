package threshold

import (
	"strings"
	"testing"
	"time"

	"github.com/torosent/packetfire/internal/metrics"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      Threshold
		wantError bool
	}{
		{
			name:  "valid p99 latency threshold",
			input: "udp_send_duration:p99 < 1",
			want: Threshold{
				Metric:    "udp_send_duration",
				Aggregate: "p99",
				Operator:  "<",
				Value:     1,
				Raw:       "udp_send_duration:p99 < 1",
			},
		},
		{
			name:  "valid failure rate threshold",
			input: "udp_send_failed:rate < 0.01",
			want: Threshold{
				Metric:    "udp_send_failed",
				Aggregate: "rate",
				Operator:  "<",
				Value:     0.01,
				Raw:       "udp_send_failed:rate < 0.01",
			},
		},
		{
			name:  "valid packet rate with >= and surrounding space",
			input: "  udp_packets:rate>=100000 ",
			want: Threshold{
				Metric:    "udp_packets",
				Aggregate: "rate",
				Operator:  ">=",
				Value:     100000,
				Raw:       "udp_packets:rate>=100000",
			},
		},
		{name: "empty string", input: "", wantError: true},
		{name: "missing aggregate", input: "udp_packets < 5", wantError: true},
		{name: "unknown metric", input: "http_req_duration:p95 < 500", wantError: true},
		{name: "unknown aggregate", input: "udp_packets:p95 < 500", wantError: true},
		{name: "unknown operator", input: "udp_packets:rate != 5", wantError: true},
		{name: "bad value", input: "udp_packets:rate > 1.2.3", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantError {
				if err == nil {
					t.Fatalf("Parse(%q) expected error, got %+v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Fatalf("Parse(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseMultiple(t *testing.T) {
	got, err := ParseMultiple([]string{"udp_packets:count > 10", "udp_send_failed:count == 0"})
	if err != nil {
		t.Fatalf("ParseMultiple() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}

	_, err = ParseMultiple([]string{"udp_packets:count > 10", "bogus", "udp_packets:nope < 1"})
	if err == nil {
		t.Fatal("ParseMultiple() expected error")
	}
	if !strings.Contains(err.Error(), "threshold[1]") || !strings.Contains(err.Error(), "threshold[2]") {
		t.Fatalf("error should name both bad entries: %v", err)
	}

	if got, err := ParseMultiple(nil); got != nil || err != nil {
		t.Fatalf("ParseMultiple(nil) = %v, %v", got, err)
	}
}

func TestEvaluator(t *testing.T) {
	stats := metrics.Stats{
		Total:         1000,
		Successes:     990,
		Failures:      10,
		PacketsPerSec: 495,
		P50LatencyMs:  0.01,
		P99LatencyMs:  0.5,
		MeanLatencyMs: 0.02,
		MaxLatencyMs:  3,
		Duration:      2 * time.Second,
	}

	tests := []struct {
		threshold string
		pass      bool
		actual    float64
	}{
		{"udp_send_failed:rate <= 0.01", true, 0.01},
		{"udp_send_failed:rate < 0.01", false, 0.01},
		{"udp_send_failed:count == 10", true, 10},
		{"udp_packets:count > 900", true, 990},
		{"udp_packets:rate > 1000", false, 495},
		{"udp_send_duration:p99 < 1", true, 0.5},
		{"udp_send_duration:max < 1", false, 3},
		{"udp_send_duration:avg < 0.1", true, 0.02},
	}

	for _, tt := range tests {
		t.Run(tt.threshold, func(t *testing.T) {
			th, err := Parse(tt.threshold)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			results := NewEvaluator([]Threshold{th}).Evaluate(stats)
			if len(results) != 1 {
				t.Fatalf("len(results) = %d", len(results))
			}
			r := results[0]
			if r.Pass != tt.pass {
				t.Errorf("Pass = %v, want %v (%s)", r.Pass, tt.pass, r.Message)
			}
			if r.Actual != tt.actual {
				t.Errorf("Actual = %v, want %v", r.Actual, tt.actual)
			}
		})
	}
}

func TestEvaluatorUnsupportedCombination(t *testing.T) {
	th, err := Parse("udp_packets:p99 < 1")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	r := NewEvaluator([]Threshold{th}).Evaluate(metrics.Stats{})[0]
	if r.Pass || r.Err == nil {
		t.Fatalf("expected failing result with error, got %+v", r)
	}
}

func TestEvaluatorNoThresholds(t *testing.T) {
	if got := NewEvaluator(nil).Evaluate(metrics.Stats{}); got != nil {
		t.Fatalf("Evaluate() = %v, want nil", got)
	}
}

func TestFailureRateWithNoAttempts(t *testing.T) {
	got, err := extractFailureMetric("rate", metrics.Stats{})
	if err != nil || got != 0 {
		t.Fatalf("extractFailureMetric() = %v, %v; want 0, nil", got, err)
	}
}

func TestCompareValues(t *testing.T) {
	tests := []struct {
		actual   float64
		op       string
		expected float64
		want     bool
	}{
		{1, "<", 2, true},
		{2, "<", 2, false},
		{2, "<=", 2, true},
		{3, ">", 2, true},
		{2, ">=", 2.0000000001, true},
		{0.1 + 0.2, "==", 0.3, true},
		{1, "!=", 2, false},
	}
	for _, tt := range tests {
		if got := compareValues(tt.actual, tt.op, tt.expected); got != tt.want {
			t.Errorf("compareValues(%v %s %v) = %v, want %v", tt.actual, tt.op, tt.expected, got, tt.want)
		}
	}
}
