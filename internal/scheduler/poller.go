package scheduler

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/hamed0406/portwatch/internal/domain"
	"github.com/hamed0406/portwatch/internal/probe"
	"github.com/hamed0406/portwatch/internal/repo"
)

// DefaultInterval is the time between round starts.
const DefaultInterval = 10 * time.Second

// Poller probes every registered target once per round and merges the
// outcomes into the status table. Rounds never overlap; probes within a
// round all run at once unless Concurrency caps them.
type Poller struct {
	Logger      *zap.Logger
	Registry    repo.TargetRegistry
	Status      repo.StatusTable
	Checker     probe.Checker
	Interval    time.Duration
	Concurrency int // 0 = one goroutine per target

	roundMu sync.Mutex
}

// RoundSummary describes one finished round.
type RoundSummary struct {
	ID       string
	Targets  int
	Up       int
	Down     int
	Skipped  int // probes cut short by cancellation, not recorded
	Duration time.Duration
}

func NewPoller(
	logger *zap.Logger,
	reg repo.TargetRegistry,
	status repo.StatusTable,
	checker probe.Checker,
	interval time.Duration,
	concurrency int,
) *Poller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	if concurrency < 0 {
		concurrency = 0
	}
	return &Poller{
		Logger:      logger,
		Registry:    reg,
		Status:      status,
		Checker:     checker,
		Interval:    interval,
		Concurrency: concurrency,
	}
}

// Reload swaps in a new target list and returns how many entries were
// accepted. A round already in flight keeps probing the list it started
// with. Status entries of dropped targets stay in the table.
func (p *Poller) Reload(raws []domain.RawTarget) int {
	accepted, rejected := p.Registry.Replace(raws)
	for _, r := range rejected {
		p.Logger.Warn("target_rejected", zap.String("uri", r.URI), zap.Error(r.Err))
	}
	p.Logger.Info("targets_reloaded",
		zap.Int("accepted", len(accepted)),
		zap.Int("rejected", len(rejected)),
	)
	return len(accepted)
}

// Targets returns the list the next round will probe.
func (p *Poller) Targets() []domain.Target {
	return p.Registry.Current()
}

// CurrentStatus is the read side for the HTTP layer. Targets that have not
// finished their first probe are absent.
func (p *Poller) CurrentStatus() []domain.StatusEntry {
	return p.Status.Snapshot()
}

// Run starts the loop. It does an immediate round, then one per tick.
// A round that outlasts the interval delays the next one; ticks that
// elapse meanwhile are dropped. Stops when ctx is cancelled, after the
// in-flight round returns.
func (p *Poller) Run(ctx context.Context) {
	t := time.NewTicker(p.Interval)
	defer t.Stop()

	p.Logger.Info("poller_started",
		zap.Duration("interval", p.Interval),
		zap.Int("targets", len(p.Registry.Current())),
	)

	// immediate pass
	p.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			p.Logger.Info("poller_stopped")
			return
		case <-t.C:
			p.RunOnce(ctx)
		}
	}
}

// RunOnce performs one full round synchronously. Concurrent callers are
// serialized.
func (p *Poller) RunOnce(ctx context.Context) RoundSummary {
	p.roundMu.Lock()
	defer p.roundMu.Unlock()

	targets := p.Registry.Current()
	sum := RoundSummary{ID: uuid.NewString(), Targets: len(targets)}
	if len(targets) == 0 {
		return sum
	}

	start := time.Now()
	var mu sync.Mutex

	wp := pool.New()
	if p.Concurrency > 0 {
		wp = wp.WithMaxGoroutines(p.Concurrency)
	}
	for _, tgt := range targets {
		wp.Go(func() {
			out := p.safeCheck(ctx, tgt)
			if out.Canceled {
				mu.Lock()
				sum.Skipped++
				mu.Unlock()
				p.Logger.Debug("probe_canceled", zap.String("uri", tgt.URI))
				return
			}

			p.record(tgt, out)

			mu.Lock()
			if out.Success {
				sum.Up++
			} else {
				sum.Down++
			}
			mu.Unlock()
		})
	}
	wp.Wait()

	sum.Duration = time.Since(start)
	p.Logger.Debug("round_complete",
		zap.String("round_id", sum.ID),
		zap.Int("targets", sum.Targets),
		zap.Int("up", sum.Up),
		zap.Int("down", sum.Down),
		zap.Int("skipped", sum.Skipped),
		zap.Duration("duration", sum.Duration),
	)
	return sum
}

func (p *Poller) record(tgt domain.Target, out probe.CheckResult) {
	prev, existed := p.Status.Upsert(tgt.URI, out.Success)
	switch {
	case !existed:
		p.Logger.Info("status_initial",
			zap.String("uri", tgt.URI),
			zap.Bool("up", out.Success),
			zap.Float64("latency_ms", out.LatencyMS),
		)
	case prev != out.Success:
		p.Logger.Info("status_changed",
			zap.String("uri", tgt.URI),
			zap.Bool("up", out.Success),
			zap.String("reason", out.Message),
			zap.Float64("latency_ms", out.LatencyMS),
		)
	default:
		p.Logger.Debug("probe_checked",
			zap.String("uri", tgt.URI),
			zap.Bool("up", out.Success),
			zap.Float64("latency_ms", out.LatencyMS),
		)
	}
}

// safeCheck runs the checker with panic recovery. A panicking checker
// counts as down; the stack goes to the log under a correlation ID.
func (p *Poller) safeCheck(ctx context.Context, tgt domain.Target) (out probe.CheckResult) {
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			p.Logger.Error("checker_panic",
				zap.String("correlation_id", correlationID),
				zap.String("uri", tgt.URI),
				zap.String("panic", fmt.Sprintf("%v", r)),
				zap.ByteString("stack", debug.Stack()),
			)
			out = probe.CheckResult{
				Success: false,
				Message: fmt.Sprintf("checker panic (correlation_id: %s)", correlationID),
			}
		}
	}()
	return p.Checker.Check(ctx, tgt)
}
