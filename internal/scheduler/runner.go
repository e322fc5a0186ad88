package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/groupwork-api/internal/platform/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const tracerName = "github.com/phrazzld/groupwork-api/internal/scheduler"

// ErrUnknownCheck is returned by RunCheck for a name no check carries.
var ErrUnknownCheck = errors.New("unknown check")

// RunnerConfig holds configuration for the sweep runner.
type RunnerConfig struct {
	// WorkerCount bounds how many checks run at once.
	WorkerCount int
}

// DefaultRunnerConfig returns a RunnerConfig with reasonable defaults.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{WorkerCount: 2}
}

// Result is the outcome of one check.
type Result struct {
	Name     string
	Count    int
	Err      error
	Duration time.Duration
}

// Report aggregates a sweep. Partial is set when at least one check failed;
// the other checks' results are still complete.
type Report struct {
	Results []Result
	Total   int
	Partial bool
}

// Runner executes checks and isolates their failures from each other.
type Runner struct {
	checks []Check
	config RunnerConfig
	tracer trace.Tracer
	logger *slog.Logger
}

// NewRunner creates a Runner over checks.
func NewRunner(checks []Check, config RunnerConfig, logger *slog.Logger) *Runner {
	if config.WorkerCount <= 0 {
		config.WorkerCount = DefaultRunnerConfig().WorkerCount
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		checks: checks,
		config: config,
		tracer: otel.Tracer(tracerName),
		logger: logger.With(slog.String("component", "sweep_runner")),
	}
}

// Checks returns the names of the runner's checks in order.
func (r *Runner) Checks() []string {
	names := make([]string, 0, len(r.checks))
	for _, c := range r.checks {
		names = append(names, c.Name())
	}
	return names
}

// RunAll runs every check, at most WorkerCount at a time, and waits for all
// of them. A failing check never stops the others.
func (r *Runner) RunAll(ctx context.Context) Report {
	ctx, span := r.tracer.Start(ctx, "scheduler.RunAll")
	defer span.End()

	log := logger.FromContextOrDefault(ctx, r.logger)
	results := make([]Result, len(r.checks))

	var g errgroup.Group
	g.SetLimit(r.config.WorkerCount)
	for i, check := range r.checks {
		g.Go(func() error {
			results[i] = r.run(ctx, check)
			return nil
		})
	}
	_ = g.Wait()

	report := Report{Results: results}
	for _, res := range results {
		report.Total += res.Count
		if res.Err != nil {
			report.Partial = true
		}
	}

	span.SetAttributes(
		attribute.Int("sweep.notifications", report.Total),
		attribute.Bool("sweep.partial", report.Partial),
	)
	if report.Partial {
		span.SetStatus(codes.Error, "one or more checks failed")
	}

	log.Info("sweep finished",
		slog.Int("checks", len(results)),
		slog.Int("notifications", report.Total),
		slog.Bool("partial", report.Partial))
	return report
}

// RunCheck runs the single check called name.
func (r *Runner) RunCheck(ctx context.Context, name string) (Result, error) {
	for _, check := range r.checks {
		if check.Name() == name {
			return r.run(ctx, check), nil
		}
	}
	return Result{}, fmt.Errorf("%w: %q", ErrUnknownCheck, name)
}

// run executes one check inside its own span. Panics are converted into a
// failed Result.
func (r *Runner) run(ctx context.Context, check Check) (res Result) {
	ctx, span := r.tracer.Start(ctx, "scheduler."+check.Name(),
		trace.WithAttributes(attribute.String("sweep.check", check.Name())))
	defer span.End()

	log := logger.FromContextOrDefault(ctx, r.logger).With(slog.String("check", check.Name()))
	start := time.Now()
	res.Name = check.Name()

	defer func() {
		if p := recover(); p != nil {
			res.Err = fmt.Errorf("check %s panicked: %v", check.Name(), p)
		}
		res.Duration = time.Since(start)

		span.SetAttributes(attribute.Int("sweep.notifications", res.Count))
		if res.Err != nil {
			span.RecordError(res.Err)
			span.SetStatus(codes.Error, res.Err.Error())
			log.Error("check failed",
				slog.Int("notifications", res.Count),
				slog.String("error", res.Err.Error()))
			return
		}
		log.Debug("check completed",
			slog.Int("notifications", res.Count),
			slog.Duration("duration", res.Duration))
	}()

	res.Count, res.Err = check.Run(ctx)
	return res
}
