package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Sweeper is anything that can run a full sweep.
type Sweeper interface {
	RunAll(ctx context.Context) Report
}

// Ticker triggers a sweep on a fixed interval. It is the in-process
// alternative to an external cron calling the sweep endpoint.
type Ticker struct {
	sweeper    Sweeper
	interval   time.Duration
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	startOnce  sync.Once
	logger     *slog.Logger
}

// NewTicker creates a Ticker. A non-positive interval makes Start a no-op.
func NewTicker(sweeper Sweeper, interval time.Duration, logger *slog.Logger) *Ticker {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Ticker{
		sweeper:    sweeper,
		interval:   interval,
		ctx:        ctx,
		cancelFunc: cancel,
		logger:     logger.With(slog.String("component", "sweep_ticker")),
	}
}

// Start begins ticking in the background. Calling it again has no effect.
func (t *Ticker) Start() {
	if t.interval <= 0 {
		t.logger.Info("sweep ticker disabled")
		return
	}
	t.startOnce.Do(func() {
		t.wg.Add(1)
		go t.loop()
		t.logger.Info("sweep ticker started", slog.Duration("interval", t.interval))
	})
}

// Stop cancels the ticker and waits for an in-flight sweep to finish.
func (t *Ticker) Stop() {
	t.cancelFunc()
	t.wg.Wait()
}

func (t *Ticker) loop() {
	defer t.wg.Done()

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.ctx.Done():
			t.logger.Debug("stopping sweep ticker")
			return

		case <-ticker.C:
			report := t.sweeper.RunAll(t.ctx)
			if report.Partial {
				t.logger.Warn("scheduled sweep finished with failures",
					slog.Int("notifications", report.Total))
			}
		}
	}
}
