package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector provides pipeline metrics collection
type Collector struct {
	registry *prometheus.Registry

	RowsLoaded  prometheus.Counter
	RowsWritten prometheus.Counter

	// Row-level data quality
	MonthUnrecognized prometheus.Counter
	DateMissing       prometheus.Counter
	SensorCodeShort   prometheus.Counter

	// Fill engine
	ValuesFilled   *prometheus.CounterVec
	ValuesUnfilled *prometheus.CounterVec
	Partitions     prometheus.Gauge

	StageDuration *prometheus.HistogramVec
}

// NewCollector creates a new metrics collector on its own registry
func NewCollector(namespace string) *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,

		RowsLoaded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_loaded_total",
			Help:      "Number of readings read from the input file",
		}),
		RowsWritten: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_written_total",
			Help:      "Number of readings written to the output file",
		}),

		MonthUnrecognized: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "month_unrecognized_total",
			Help:      "Month tokens that could not be normalized",
		}),
		DateMissing: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "date_missing_total",
			Help:      "Rows whose timestamp could not be built",
		}),
		SensorCodeShort: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sensor_code_short_total",
			Help:      "Sensor codes too short to derive airport and sensor number",
		}),

		ValuesFilled: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "values_filled_total",
			Help:      "Missing measurements filled, by column and fill direction",
		}, []string{"column", "direction"}),
		ValuesUnfilled: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "values_unfilled_total",
			Help:      "Measurements still missing after filling, by column",
		}, []string{"column"}),
		Partitions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sensor_partitions",
			Help:      "Number of sensor partitions in the last run",
		}),

		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Pipeline stage duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		}, []string{"stage"}),
	}
}

// Registry exposes the underlying registry (used by tests and the textfile dump)
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Timer provides timing functionality for stages
type Timer struct {
	start    time.Time
	observer prometheus.Observer
}

// NewStageTimer creates a timer bound to one stage label
func (c *Collector) NewStageTimer(stage string) *Timer {
	return &Timer{
		start:    time.Now(),
		observer: c.StageDuration.WithLabelValues(stage),
	}
}

// ObserveDuration records the elapsed time since timer creation
func (t *Timer) ObserveDuration() time.Duration {
	duration := time.Since(t.start)
	if t.observer != nil {
		t.observer.Observe(duration.Seconds())
	}
	return duration
}

// RecordFill adds filled counts for a column
func (c *Collector) RecordFill(column string, backward, forward, unfilled int) {
	c.ValuesFilled.WithLabelValues(column, "backward").Add(float64(backward))
	c.ValuesFilled.WithLabelValues(column, "forward").Add(float64(forward))
	c.ValuesUnfilled.WithLabelValues(column).Add(float64(unfilled))
}

// WriteTextfile dumps all metrics in the node-exporter textfile format
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	return nil
}
