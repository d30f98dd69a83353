package ecs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"
)

// SystemSummary captures one system's execution within a tick.
type SystemSummary struct {
	Name     string
	Duration time.Duration
	Err      error
}

// TickSummary captures execution metadata for one SystemsManager.Update call.
type TickSummary struct {
	Tick     uint64
	Duration time.Duration
	Systems  []SystemSummary
}

// TickObserver receives a summary after every tick completes.
type TickObserver interface {
	TickCompleted(summary TickSummary)
}

type noopObserver struct{}

func (noopObserver) TickCompleted(TickSummary) {}

type compositeObserver struct {
	observers []TickObserver
}

func (c compositeObserver) TickCompleted(summary TickSummary) {
	for _, observer := range c.observers {
		observer.TickCompleted(summary)
	}
}

// ObservationLogFormat controls structured logging encoding.
type ObservationLogFormat uint8

const (
	ObservationLogFormatJSON ObservationLogFormat = iota
	ObservationLogFormatKeyValue
)

type loggingObserver struct {
	logger Logger
	format ObservationLogFormat
}

func newLoggingObserver(logger Logger, format ObservationLogFormat) TickObserver {
	if logger == nil {
		return noopObserver{}
	}
	return loggingObserver{logger: logger, format: format}
}

func (o loggingObserver) TickCompleted(summary TickSummary) {
	if o.format == ObservationLogFormatKeyValue {
		o.logKeyValue(summary)
		return
	}
	o.logJSON(summary)
}

func (o loggingObserver) logJSON(summary TickSummary) {
	systems := make([]map[string]any, 0, len(summary.Systems))
	for _, s := range summary.Systems {
		entry := map[string]any{"name": s.Name, "duration_ms": float64(s.Duration) / float64(time.Millisecond)}
		if s.Err != nil {
			entry["error"] = s.Err.Error()
		}
		systems = append(systems, entry)
	}
	payload := map[string]any{
		"tick":        summary.Tick,
		"duration_ms": float64(summary.Duration) / float64(time.Millisecond),
		"systems":     systems,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		o.logger.With("tick", summary.Tick).Error("tick summary marshal error", "err", err)
		return
	}
	o.logger.Info(string(data))
}

func (o loggingObserver) logKeyValue(summary TickSummary) {
	builder := o.logger.With("tick", summary.Tick)
	builder.Info("tick summary", "duration", summary.Duration, "systems", len(summary.Systems))
	for _, s := range summary.Systems {
		sysLogger := builder.With("system", s.Name)
		if s.Err != nil {
			sysLogger.Error("system failed", "duration", s.Duration, "err", s.Err.Error())
			continue
		}
		sysLogger.Info("system executed", "duration", s.Duration)
	}
}

// PrometheusCollector handles tick summaries for Prometheus-style metrics.
type PrometheusCollector interface {
	ObserveTick(summary TickSummary)
}

type prometheusObserver struct {
	collector PrometheusCollector
}

func newPrometheusObserver(collector PrometheusCollector) TickObserver {
	if collector == nil {
		return noopObserver{}
	}
	return prometheusObserver{collector: collector}
}

func (o prometheusObserver) TickCompleted(summary TickSummary) {
	o.collector.ObserveTick(summary)
}

// PrometheusCollectorOptions configures PrometheusTickCollector.
type PrometheusCollectorOptions struct {
	Writer io.Writer
}

// PrometheusTickCollector accumulates per-system duration/error counters
// and renders them in the Prometheus text exposition format.
type PrometheusTickCollector struct {
	options *PrometheusCollectorOptions
	mu      sync.Mutex
	samples map[string]*prometheusSample
}

type prometheusSample struct {
	durationSum   float64
	durationCount float64
	errors        float64
}

// NewPrometheusTickCollector constructs a collector; opts may be nil.
func NewPrometheusTickCollector(opts *PrometheusCollectorOptions) *PrometheusTickCollector {
	if opts == nil {
		opts = &PrometheusCollectorOptions{}
	}
	return &PrometheusTickCollector{options: opts, samples: make(map[string]*prometheusSample)}
}

func (c *PrometheusTickCollector) ObserveTick(summary TickSummary) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, s := range summary.Systems {
		sample, ok := c.samples[s.Name]
		if !ok {
			sample = &prometheusSample{}
			c.samples[s.Name] = sample
		}
		sample.durationSum += s.Duration.Seconds()
		sample.durationCount++
		if s.Err != nil {
			sample.errors++
		}
	}

	if writer := c.options.Writer; writer != nil {
		_ = c.writeMetricsLocked(writer)
	}
}

// WriteMetrics renders the current counters in Prometheus text format.
func (c *PrometheusTickCollector) WriteMetrics(w io.Writer) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writeMetricsLocked(w)
}

func (c *PrometheusTickCollector) writeMetricsLocked(w io.Writer) error {
	if w == nil {
		return nil
	}
	names := make([]string, 0, len(c.samples))
	for name := range c.samples {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	buf.WriteString("# HELP ecs_system_duration_seconds System execution duration.\n")
	buf.WriteString("# TYPE ecs_system_duration_seconds summary\n")
	for _, name := range names {
		sample := c.samples[name]
		buf.WriteString(fmt.Sprintf("ecs_system_duration_seconds_sum{system=\"%s\"} %f\n", name, sample.durationSum))
		buf.WriteString(fmt.Sprintf("ecs_system_duration_seconds_count{system=\"%s\"} %f\n", name, sample.durationCount))
	}
	buf.WriteString("# HELP ecs_system_errors_total System execution error count.\n")
	buf.WriteString("# TYPE ecs_system_errors_total counter\n")
	for _, name := range names {
		buf.WriteString(fmt.Sprintf("ecs_system_errors_total{system=\"%s\"} %f\n", name, c.samples[name].errors))
	}

	_, err := w.Write(buf.Bytes())
	return err
}

// SigNozExporter handles tick summaries for SigNoz-shaped span platforms.
type SigNozExporter interface {
	ExportTick(summary TickSummary)
}

type sigNozObserver struct {
	exporter SigNozExporter
}

func newSigNozObserver(exporter SigNozExporter) TickObserver {
	if exporter == nil {
		return noopObserver{}
	}
	return sigNozObserver{exporter: exporter}
}

func (o sigNozObserver) TickCompleted(summary TickSummary) {
	o.exporter.ExportTick(summary)
}

// SigNozOptions configures SigNozSpanExporter.
type SigNozOptions struct {
	Writer      io.Writer
	ServiceName string
}

// SigNozSpanExporter renders each tick as a JSON span line.
type SigNozSpanExporter struct {
	opts *SigNozOptions
	mu   sync.Mutex
}

// NewSigNozSpanExporter constructs an exporter; opts may be nil.
func NewSigNozSpanExporter(opts *SigNozOptions) *SigNozSpanExporter {
	if opts == nil {
		opts = &SigNozOptions{}
	}
	if opts.ServiceName == "" {
		opts.ServiceName = "ecs-systems-manager"
	}
	return &SigNozSpanExporter{opts: opts}
}

func (e *SigNozSpanExporter) ExportTick(summary TickSummary) {
	if e.opts.Writer == nil {
		return
	}
	span := map[string]any{
		"service_name": e.opts.ServiceName,
		"name":         fmt.Sprintf("tick:%d", summary.Tick),
		"timestamp":    time.Now().UnixNano(),
		"duration_ms":  float64(summary.Duration) / float64(time.Millisecond),
		"system_count": len(summary.Systems),
	}
	payload, err := json.Marshal(span)
	if err != nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	_, _ = e.opts.Writer.Write(append(payload, '\n'))
}

// InstrumentationConfig configures logging, metrics, and tracing sinks for
// a SystemsManager.
type InstrumentationConfig struct {
	Observer                TickObserver
	EnableStructuredLogging bool
	LoggingFormat           ObservationLogFormat
	StructuredLogger        Logger
	EnablePrometheus        bool
	PrometheusCollector     PrometheusCollector
	PrometheusOptions       *PrometheusCollectorOptions
	EnableSigNoz            bool
	SigNozExporter          SigNozExporter
	SigNozOptions           *SigNozOptions
}

func buildObserverChain(logger Logger, cfg InstrumentationConfig) TickObserver {
	var observers []TickObserver

	if cfg.Observer != nil {
		observers = append(observers, cfg.Observer)
	}

	if cfg.EnableStructuredLogging {
		structuredLogger := cfg.StructuredLogger
		if structuredLogger == nil {
			structuredLogger = logger
		}
		observers = append(observers, newLoggingObserver(structuredLogger, cfg.LoggingFormat))
	}

	if cfg.EnablePrometheus {
		collector := cfg.PrometheusCollector
		if collector == nil {
			collector = NewPrometheusTickCollector(cfg.PrometheusOptions)
		}
		observers = append(observers, newPrometheusObserver(collector))
	}

	if cfg.EnableSigNoz {
		exporter := cfg.SigNozExporter
		if exporter == nil {
			exporter = NewSigNozSpanExporter(cfg.SigNozOptions)
		}
		observers = append(observers, newSigNozObserver(exporter))
	}

	if len(observers) == 0 {
		return noopObserver{}
	}
	if len(observers) == 1 {
		return observers[0]
	}
	return compositeObserver{observers: observers}
}
