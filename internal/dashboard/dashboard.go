package dashboard

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"

	"github.com/torosent/packetfire/internal/metrics"
)

const historySize = 100

// RunConfig holds run parameters for display.
type RunConfig struct {
	Target      string        // address:port
	Workers     int           // Number of sending workers
	PayloadSize int           // Bytes per datagram
	Duration    time.Duration // Configured run length
	ConfigFile  string        // Path to config file if used
}

// Dashboard renders a live terminal UI for send metrics.
type Dashboard struct {
	collector    *metrics.Collector
	ctx          context.Context
	cancel       context.CancelFunc
	shutdownFunc func()
	wg           sync.WaitGroup
	mu           sync.Mutex

	// Widgets
	grid         *ui.Grid
	ppsSparkle   *widgets.SparklineGroup
	progress     *widgets.Gauge
	throughput   *widgets.Paragraph
	latencyPara  *widgets.Paragraph
	errorList    *widgets.List
	summaryPara  *widgets.Paragraph
	ppsHistory   []float64
	lastSent     int64
	lastSample   time.Duration
	testDuration time.Duration
	runConfig    RunConfig
}

// New creates a new Dashboard. shutdownFunc is called when the operator
// presses q or Ctrl-C.
func New(collector *metrics.Collector, cfg RunConfig, shutdownFunc func()) (*Dashboard, error) {
	if err := ui.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize termui: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	d := &Dashboard{
		collector:    collector,
		ctx:          ctx,
		cancel:       cancel,
		shutdownFunc: shutdownFunc,
		ppsHistory:   make([]float64, 0, historySize),
		runConfig:    cfg,
	}

	d.initWidgets()
	d.setupGrid()

	return d, nil
}

// initWidgets initializes all dashboard widgets.
func (d *Dashboard) initWidgets() {
	sparkline := widgets.NewSparkline()
	sparkline.Title = "Packets/s"
	sparkline.LineColor = ui.ColorGreen
	sparkline.Data = []float64{0}

	d.ppsSparkle = widgets.NewSparklineGroup(sparkline)
	d.ppsSparkle.Title = "Send Rate"
	d.ppsSparkle.BorderStyle.Fg = ui.ColorCyan

	d.progress = widgets.NewGauge()
	d.progress.Title = "Run Progress"
	d.progress.Percent = 0
	d.progress.BarColor = ui.ColorBlue
	d.progress.BorderStyle.Fg = ui.ColorCyan
	d.progress.LabelStyle = ui.NewStyle(ui.ColorWhite)

	d.throughput = widgets.NewParagraph()
	d.throughput.Title = "Throughput"
	d.throughput.Text = "Waiting for data..."
	d.throughput.BorderStyle.Fg = ui.ColorCyan

	d.latencyPara = widgets.NewParagraph()
	d.latencyPara.Title = "Send Latency"
	d.latencyPara.Text = "Min: 0ms\nMean: 0ms\nP50: 0ms\nP90: 0ms\nP99: 0ms"
	d.latencyPara.BorderStyle.Fg = ui.ColorCyan

	d.errorList = widgets.NewList()
	d.errorList.Title = "Send Errors"
	d.errorList.Rows = []string{"No failures"}
	d.errorList.TextStyle = ui.NewStyle(ui.ColorYellow)
	d.errorList.BorderStyle.Fg = ui.ColorCyan

	d.summaryPara = widgets.NewParagraph()
	d.summaryPara.Title = "Run Summary"
	d.summaryPara.Text = "Initializing..."
	d.summaryPara.BorderStyle.Fg = ui.ColorCyan
}

// setupGrid configures the layout grid.
func (d *Dashboard) setupGrid() {
	termWidth, termHeight := ui.TerminalDimensions()

	d.grid = ui.NewGrid()
	d.grid.SetRect(0, 0, termWidth, termHeight)

	d.grid.Set(
		ui.NewRow(0.16,
			ui.NewCol(1.0, d.summaryPara),
		),
		ui.NewRow(0.14,
			ui.NewCol(1.0, d.progress),
		),
		ui.NewRow(0.35,
			ui.NewCol(0.65, d.ppsSparkle),
			ui.NewCol(0.35, d.throughput),
		),
		ui.NewRow(0.35,
			ui.NewCol(0.5, d.latencyPara),
			ui.NewCol(0.5, d.errorList),
		),
	)
}

// Start begins the dashboard update loop.
func (d *Dashboard) Start() {
	d.wg.Add(1)
	go d.run()
}

// Stop stops the dashboard and cleans up.
func (d *Dashboard) Stop() {
	d.cancel()
	d.wg.Wait()
	d.testDuration = d.collector.Elapsed()
	ui.Close()
	// Give terminal time to restore
	time.Sleep(100 * time.Millisecond)
}

// GetFinalStats returns the final statistics after the dashboard has stopped.
func (d *Dashboard) GetFinalStats() metrics.Stats {
	return d.collector.Stats(d.testDuration)
}

// run is the main dashboard update loop.
func (d *Dashboard) run() {
	defer d.wg.Done()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	uiEvents := ui.PollEvents()

	d.render()

	for {
		select {
		case <-d.ctx.Done():
			// Drain any remaining events
			for len(uiEvents) > 0 {
				<-uiEvents
			}
			return
		case e := <-uiEvents:
			select {
			case <-d.ctx.Done():
				return
			default:
			}

			switch e.ID {
			case "q", "<C-c>":
				if d.shutdownFunc != nil {
					d.shutdownFunc()
				}
				// Workers drain on their own; Stop() ends the loop.
			case "<Resize>":
				payload := e.Payload.(ui.Resize)
				d.grid.SetRect(0, 0, payload.Width, payload.Height)
				ui.Clear()
				d.render()
			}
		case <-ticker.C:
			d.update()
			d.render()
		}
	}
}

// update refreshes all widget data from the collector.
func (d *Dashboard) update() {
	elapsed := d.collector.Elapsed()
	stats := d.collector.Stats(elapsed)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.apply(stats, elapsed)
}

// apply writes stats into the widgets. Callers hold d.mu.
func (d *Dashboard) apply(stats metrics.Stats, elapsed time.Duration) {
	current := instantRate(d.lastSent, stats.Successes, elapsed-d.lastSample)
	d.lastSent, d.lastSample = stats.Successes, elapsed
	d.ppsHistory = appendHistory(d.ppsHistory, current, historySize)
	d.ppsSparkle.Sparklines[0].Data = d.ppsHistory
	d.ppsSparkle.Title = fmt.Sprintf("Send Rate | Current: %.0f pkt/s | Average: %.0f pkt/s", current, stats.PacketsPerSec)

	d.progress.Percent = progressPercent(elapsed, d.runConfig.Duration)
	d.progress.Label = fmt.Sprintf("%s / %s", elapsed.Round(time.Second), d.runConfig.Duration)

	errorRate := 0.0
	if stats.Total > 0 {
		errorRate = float64(stats.Failures) / float64(stats.Total) * 100
	}

	d.summaryPara.Text = fmt.Sprintf(
		"Target: %s\n%s\nRun: %s | Attempts: %d | Error Rate: %.2f%%",
		d.runConfig.Target,
		formatRunParams(d.runConfig),
		stats.RunID,
		stats.Total,
		errorRate,
	)

	d.throughput.Text = fmt.Sprintf(
		"Packets Sent: %d\nErrors:       %d\nBytes:        %d\nPackets/s:    %.1f\nMbit/s:       %.2f",
		stats.Successes,
		stats.Failures,
		stats.Bytes,
		stats.PacketsPerSec,
		stats.MbitsPerSec,
	)

	d.latencyPara.Text = fmt.Sprintf(
		"Min:  %.3fms\nMean: %.3fms\nP50:  %.3fms\nP90:  %.3fms\nP99:  %.3fms\nMax:  %.3fms",
		stats.MinLatencyMs,
		stats.MeanLatencyMs,
		stats.P50LatencyMs,
		stats.P90LatencyMs,
		stats.P99LatencyMs,
		stats.MaxLatencyMs,
	)

	d.errorList.Rows = formatErrorRows(stats.Errors, 10)
}

// render draws all widgets to the screen.
func (d *Dashboard) render() {
	d.mu.Lock()
	defer d.mu.Unlock()

	ui.Render(d.grid)
}

// instantRate is the send rate between two samples.
func instantRate(prev, cur int64, dt time.Duration) float64 {
	if dt <= 0 || cur < prev {
		return 0
	}
	return float64(cur-prev) / dt.Seconds()
}

func appendHistory(history []float64, v float64, limit int) []float64 {
	history = append(history, v)
	if len(history) > limit {
		history = history[len(history)-limit:]
	}
	return history
}

func progressPercent(elapsed, total time.Duration) int {
	if total <= 0 || elapsed <= 0 {
		return 0
	}
	if elapsed >= total {
		return 100
	}
	return int(elapsed * 100 / total)
}

func formatErrorRows(errs map[string]int64, limit int) []string {
	if len(errs) == 0 {
		return []string{"[No failures](fg:green)"}
	}
	type row struct {
		name  string
		count int64
	}
	rows := make([]row, 0, len(errs))
	for name, count := range errs {
		rows = append(rows, row{name: name, count: count})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].count == rows[j].count {
			return rows[i].name < rows[j].name
		}
		return rows[i].count > rows[j].count
	})
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	formatted := make([]string, 0, len(rows))
	for _, r := range rows {
		formatted = append(formatted, fmt.Sprintf("[%s](fg:red) %d", r.name, r.count))
	}
	return formatted
}

// formatRunParams formats the run configuration for display.
func formatRunParams(cfg RunConfig) string {
	var parts []string

	if cfg.Workers > 0 {
		parts = append(parts, fmt.Sprintf("Workers: %d", cfg.Workers))
	}
	if cfg.PayloadSize > 0 {
		parts = append(parts, fmt.Sprintf("Payload: %dB", cfg.PayloadSize))
	}
	if cfg.Duration > 0 {
		parts = append(parts, fmt.Sprintf("Duration: %s", cfg.Duration))
	}
	// Config file (only show if used)
	if cfg.ConfigFile != "" {
		parts = append(parts, fmt.Sprintf("Config: %s", cfg.ConfigFile))
	}

	return strings.Join(parts, " | ")
}
