package config

import (
	"fmt"
	"net/netip"
	"os"
	"strings"
	"time"

	"github.com/torosent/packetfire/internal/threshold"
)

const (
	DefaultPayloadSize = 25
	DefaultWorkers     = 900
	DefaultLogLevel    = "info"

	// MaxPayloadSize is the largest UDP payload an IPv4 datagram can carry.
	MaxPayloadSize = 65507
)

type Config struct {
	Target      string        `mapstructure:"target"`
	Port        int           `mapstructure:"port"`
	Duration    time.Duration `mapstructure:"duration"`
	PayloadSize int           `mapstructure:"payload_size"`
	Workers     int           `mapstructure:"workers"`
	WriteBuffer int           `mapstructure:"write_buffer"`
	TTL         int           `mapstructure:"ttl"`
	TOS         int           `mapstructure:"tos"`
	JSONOutput  bool          `mapstructure:"json_output"`
	Dashboard   bool          `mapstructure:"dashboard"`
	LogErrors   bool          `mapstructure:"log_errors"`
	LogLevel    string        `mapstructure:"log_level"`
	MetricsAddr string        `mapstructure:"metrics_addr"`
	Thresholds  []string      `mapstructure:"thresholds"`
	Tracing     TracingConfig `mapstructure:"tracing"`
	ConfigFile  string        `mapstructure:"-"`
}

// TracingConfig selects an OTLP trace exporter. An empty endpoint falls back
// to OTEL_EXPORTER_OTLP_ENDPOINT; with neither set tracing is off.
type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`
	Protocol    string  `mapstructure:"protocol"`
	Insecure    bool    `mapstructure:"insecure"`
	ServiceName string  `mapstructure:"service_name"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

// Enabled reports whether spans should be exported.
func (t TracingConfig) Enabled() bool {
	if strings.TrimSpace(t.Endpoint) != "" {
		return true
	}
	return os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != ""
}

// Default returns a Config carrying the built-in defaults.
func Default() *Config {
	return &Config{
		PayloadSize: DefaultPayloadSize,
		Workers:     DefaultWorkers,
		LogLevel:    DefaultLogLevel,
		Tracing:     TracingConfig{Protocol: "grpc", SampleRate: 1},
	}
}

// AddrPort returns the destination as a netip.AddrPort. It is the zero value
// if the target does not parse; call Validate first.
func (c Config) AddrPort() netip.AddrPort {
	addr, err := netip.ParseAddr(strings.TrimSpace(c.Target))
	if err != nil || c.Port < 1 || c.Port > 65535 {
		return netip.AddrPort{}
	}
	return netip.AddrPortFrom(addr, uint16(c.Port))
}

type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

func (c Config) Validate() error {
	var issues []string

	target := strings.TrimSpace(c.Target)
	if target == "" {
		issues = append(issues, "target address is required (use --help for usage information)")
	} else if _, err := netip.ParseAddr(target); err != nil {
		issues = append(issues, fmt.Sprintf("target %q is not an IP address", target))
	}
	if c.Port < 1 || c.Port > 65535 {
		issues = append(issues, "port must be between 1 and 65535")
	}
	if c.Duration <= 0 {
		issues = append(issues, "duration must be > 0")
	}
	if c.PayloadSize < 1 || c.PayloadSize > MaxPayloadSize {
		issues = append(issues, fmt.Sprintf("payload size must be between 1 and %d", MaxPayloadSize))
	}
	if c.Workers < 1 {
		issues = append(issues, "workers must be >= 1")
	}
	if c.WriteBuffer < 0 {
		issues = append(issues, "write buffer must be >= 0")
	}
	if c.TTL < 0 || c.TTL > 255 {
		issues = append(issues, "ttl must be between 0 and 255")
	}
	if c.TOS < 0 || c.TOS > 255 {
		issues = append(issues, "tos must be between 0 and 255")
	}
	if c.Dashboard && c.JSONOutput {
		issues = append(issues, "dashboard and json-output are mutually exclusive")
	}

	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "", "debug", "info", "warn", "error":
	default:
		issues = append(issues, fmt.Sprintf("log level %q must be one of debug, info, warn, error", c.LogLevel))
	}

	for i, raw := range c.Thresholds {
		if _, err := threshold.Parse(raw); err != nil {
			issues = append(issues, fmt.Sprintf("threshold[%d]: %v", i, err))
		}
	}

	issues = append(issues, validateTracingConfig(c.Tracing)...)

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}

// Warnings lists settings that are legal but probably not what the operator
// meant. They never fail validation.
func (c Config) Warnings() []string {
	var warnings []string
	if c.Workers > 5000 {
		warnings = append(warnings, fmt.Sprintf("high worker count configured (%d workers); ensure you have authorization to test the target system", c.Workers))
	}
	if c.PayloadSize > 1472 {
		warnings = append(warnings, fmt.Sprintf("payload size %d exceeds a 1500 byte MTU; datagrams will be fragmented", c.PayloadSize))
	}
	if addr, err := netip.ParseAddr(strings.TrimSpace(c.Target)); err == nil {
		if addr.IsMulticast() || addr == netip.IPv4Unspecified() || addr == netip.IPv6Unspecified() {
			warnings = append(warnings, fmt.Sprintf("target %s is not a unicast address", addr))
		}
	}
	return warnings
}

func validateTracingConfig(t TracingConfig) []string {
	var issues []string
	switch strings.ToLower(strings.TrimSpace(t.Protocol)) {
	case "", "grpc", "http":
	default:
		issues = append(issues, fmt.Sprintf("tracing protocol %q must be grpc or http", t.Protocol))
	}
	if t.SampleRate < 0 || t.SampleRate > 1 {
		issues = append(issues, "tracing sample rate must be between 0.0 and 1.0")
	}
	return issues
}
