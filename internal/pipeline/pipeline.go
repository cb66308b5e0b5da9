// Package pipeline provides the execution engine for ratepipe jobs. A
// Pipeline composes one extractor, one transformer and one loader and runs
// them once, in order, with logging, tracing and metrics around each stage.
//
// # Basic Usage
//
//	p := pipeline.New("rates",
//	    nbrbSource,
//	    transform.NewRateNormalizer(logger),
//	    sqliteDestination,
//	    pipeline.WithLogger(logger),
//	    pipeline.WithMetrics(collector),
//	)
//
//	if err := p.Run(ctx); err != nil {
//	    // p.State() reports the last stage that completed
//	}
//
// A failed stage aborts the run. Its error is returned wrapped with the stage
// name; the structured error type is preserved.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/ratepipe/ratepipe/pkg/connector/core"
	"github.com/ratepipe/ratepipe/pkg/errors"
	"github.com/ratepipe/ratepipe/pkg/logger"
	"github.com/ratepipe/ratepipe/pkg/metrics"
	"github.com/ratepipe/ratepipe/pkg/observability"
)

// State is the last stage a run completed.
type State int32

const (
	// Idle means no stage has completed in the current run
	Idle State = iota
	// Extracted means records were read from the source
	Extracted
	// Transformed means the transformer produced its output
	Transformed
	// Loaded means the destination accepted the output
	Loaded
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Extracted:
		return "extracted"
	case Transformed:
		return "transformed"
	case Loaded:
		return "loaded"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// RunStats describes the most recent run.
type RunStats struct {
	RunID       string
	Extracted   int
	Transformed int
	Duration    time.Duration
	Err         error
}

// Option configures a Pipeline.
type Option func(*options)

type options struct {
	logger  *zap.Logger
	metrics *metrics.Collector
}

// WithLogger sets the logger. By default the global logger is used.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics records stage and run metrics into c.
func WithMetrics(c *metrics.Collector) Option {
	return func(o *options) { o.metrics = c }
}

// Pipeline runs extract, transform and load once per Run call.
type Pipeline[In, Out any] struct {
	name        string
	extractor   core.Extractor[In]
	transformer core.Transformer[In, Out]
	loader      core.Loader[Out]
	logger      *zap.Logger
	metrics     *metrics.Collector

	state atomic.Int32

	mu   sync.Mutex
	last RunStats
}

// New creates a pipeline named name.
func New[In, Out any](name string, e core.Extractor[In], t core.Transformer[In, Out], l core.Loader[Out], opts ...Option) *Pipeline[In, Out] {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.Get()
	}
	return &Pipeline[In, Out]{
		name:        name,
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      o.logger,
		metrics:     o.metrics,
	}
}

// Name returns the pipeline name.
func (p *Pipeline[In, Out]) Name() string {
	return p.name
}

// State returns the last stage completed by the current or latest run.
func (p *Pipeline[In, Out]) State() State {
	return State(p.state.Load())
}

// LastRun returns statistics of the latest run.
func (p *Pipeline[In, Out]) LastRun() RunStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// Run executes the pipeline. Every run starts from Idle.
func (p *Pipeline[In, Out]) Run(ctx context.Context) (err error) {
	p.state.Store(int32(Idle))
	start := time.Now()
	stats := RunStats{RunID: uuid.NewString()}

	ctx = context.WithValue(ctx, logger.RunIDKey, stats.RunID)
	ctx = context.WithValue(ctx, logger.PipelineKey, p.name)
	log := p.logger.With(zap.String("pipeline", p.name), zap.String("run_id", stats.RunID))

	ctx, span := observability.StartSpan(ctx, "pipeline.run",
		attribute.String("pipeline", p.name),
		attribute.String("run_id", stats.RunID))

	defer func() {
		stats.Duration = time.Since(start)
		stats.Err = err
		p.mu.Lock()
		p.last = stats
		p.mu.Unlock()

		if p.metrics != nil {
			p.metrics.ObserveRun(p.name, stats.Duration, err)
		}
		observability.EndSpan(span, err)

		if err != nil {
			log.Error("pipeline failed",
				zap.Stringer("state", p.State()),
				zap.String("error_type", string(errors.TypeOf(err))),
				zap.Duration("duration", stats.Duration),
				zap.Error(err))
			return
		}
		log.Info("pipeline completed",
			zap.Int("extracted", stats.Extracted),
			zap.Int("loaded", stats.Transformed),
			zap.Duration("duration", stats.Duration))
	}()

	log.Info("pipeline started")
	env := stageEnv{pipeline: p.name, log: log, metrics: p.metrics}

	records, err := runStage(ctx, env, metrics.StageExtract, func(ctx context.Context) ([]In, error) {
		return p.extractor.Extract(ctx)
	})
	if err != nil {
		return err
	}
	stats.Extracted = len(records)
	p.state.Store(int32(Extracted))

	out, err := runStage(ctx, env, metrics.StageTransform, func(ctx context.Context) ([]Out, error) {
		return p.transformer.Transform(ctx, records)
	})
	if err != nil {
		return err
	}
	stats.Transformed = len(out)
	p.state.Store(int32(Transformed))
	if p.metrics != nil {
		p.metrics.ObserveFiltered(p.name, len(records)-len(out))
	}

	_, err = runStage(ctx, env, metrics.StageLoad, func(ctx context.Context) ([]Out, error) {
		return out, p.loader.Load(ctx, out)
	})
	if err != nil {
		return err
	}
	p.state.Store(int32(Loaded))
	return nil
}

// stageEnv carries what runStage needs from the pipeline.
type stageEnv struct {
	pipeline string
	log      *zap.Logger
	metrics  *metrics.Collector
}

// runStage wraps one stage with a span, a debug log line and metrics.
func runStage[T any](ctx context.Context, env stageEnv, stage string, fn func(context.Context) ([]T, error)) ([]T, error) {
	ctx, span := observability.StartSpan(ctx, "pipeline."+stage, attribute.String("pipeline", env.pipeline))
	start := time.Now()

	records, err := fn(ctx)
	elapsed := time.Since(start)
	if err != nil {
		observability.EndSpan(span, err)
		return nil, fmt.Errorf("%s stage failed: %w", stage, err)
	}
	span.SetAttributes(attribute.Int("records", len(records)))
	observability.EndSpan(span, nil)

	if env.metrics != nil {
		env.metrics.ObserveStage(env.pipeline, stage, len(records), elapsed)
	}
	env.log.Debug("stage completed",
		zap.String("stage", stage),
		zap.Int("records", len(records)),
		zap.Duration("duration", elapsed))
	return records, nil
}
