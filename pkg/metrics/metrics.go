// Package metrics records pipeline run statistics as Prometheus metrics.
//
// ratepipe runs as a one-shot process, so metrics are not served over HTTP.
// Each Collector owns a private registry; at the end of a run the command
// writes it in the text exposition format, ready for the node_exporter
// textfile collector:
//
//	collector := metrics.NewCollector()
//	collector.ObserveStage("rates", metrics.StageExtract, 42, time.Since(start))
//	collector.ObserveRun("rates", err)
//	_ = collector.WriteTextfile("/var/lib/node_exporter/ratepipe.prom")
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ratepipe/ratepipe/pkg/errors"
)

// Stage names used as label values.
const (
	StageExtract   = "extract"
	StageTransform = "transform"
	StageLoad      = "load"
)

// Collector groups the metrics of one process.
type Collector struct {
	registry *prometheus.Registry

	stageRecords  *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	filtered      *prometheus.CounterVec
	runs          *prometheus.CounterVec
	lastRun       *prometheus.GaugeVec
	runDuration   *prometheus.GaugeVec
}

// NewCollector creates a collector with its own registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		stageRecords: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ratepipe_stage_records_total",
				Help: "Records produced by each pipeline stage",
			},
			[]string{"pipeline", "stage"},
		),
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "ratepipe_stage_duration_seconds",
				Help: "Pipeline stage duration in seconds",
				Buckets: []float64{
					0.001, // 1ms - in-memory transforms
					0.01,  // 10ms
					0.1,   // 100ms - local database writes
					1,     // 1s - network requests
					10,    // 10s - bulk loads
					60,
				},
			},
			[]string{"pipeline", "stage"},
		),
		filtered: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ratepipe_records_filtered_total",
				Help: "Records removed by the transform stage",
			},
			[]string{"pipeline"},
		),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ratepipe_runs_total",
				Help: "Pipeline runs by outcome",
			},
			[]string{"pipeline", "status", "error_type"},
		),
		lastRun: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ratepipe_last_run_timestamp_seconds",
				Help: "Unix time the pipeline last finished",
			},
			[]string{"pipeline", "status"},
		),
		runDuration: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ratepipe_last_run_duration_seconds",
				Help: "Duration of the last pipeline run",
			},
			[]string{"pipeline"},
		),
	}

	c.registry.MustRegister(c.stageRecords, c.stageDuration, c.filtered, c.runs, c.lastRun, c.runDuration)
	return c
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveStage records the output size and duration of one stage.
func (c *Collector) ObserveStage(pipeline, stage string, records int, d time.Duration) {
	c.stageRecords.WithLabelValues(pipeline, stage).Add(float64(records))
	c.stageDuration.WithLabelValues(pipeline, stage).Observe(d.Seconds())
}

// ObserveFiltered records how many records a transform removed.
func (c *Collector) ObserveFiltered(pipeline string, n int) {
	if n > 0 {
		c.filtered.WithLabelValues(pipeline).Add(float64(n))
	}
}

// ObserveRun records the outcome of a run. A nil err counts as success.
func (c *Collector) ObserveRun(pipeline string, d time.Duration, err error) {
	status, errType := "success", ""
	if err != nil {
		status, errType = "failure", string(errors.TypeOf(err))
	}
	c.runs.WithLabelValues(pipeline, status, errType).Inc()
	c.lastRun.WithLabelValues(pipeline, status).SetToCurrentTime()
	c.runDuration.WithLabelValues(pipeline).Set(d.Seconds())
}

// WriteTextfile writes all metrics to path in the text exposition format.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write metrics file").
			WithDetail("path", path)
	}
	return nil
}
