package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// DefaultResetInterval is the quota window length.
const DefaultResetInterval = 24 * time.Hour

// Ticker is the subset of *time.Ticker the Resetter needs.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type stdTicker struct{ t *time.Ticker }

func (s stdTicker) C() <-chan time.Time { return s.t.C }
func (s stdTicker) Stop()               { s.t.Stop() }

// NewStdTicker adapts time.NewTicker.
func NewStdTicker(d time.Duration) Ticker { return stdTicker{t: time.NewTicker(d)} }

type resetter interface {
	ResetAll(ctx context.Context) (int64, error)
}

// Resetter zeroes all quotas once per interval until its context is cancelled.
type Resetter struct {
	target    resetter
	interval  time.Duration
	newTicker func(time.Duration) Ticker
	resets    *prometheus.CounterVec
	logger    *zap.Logger
	trigger   chan struct{}
}

// ResetterOption configures a Resetter.
type ResetterOption func(*Resetter)

// WithTicker overrides the ticker factory.
func WithTicker(f func(time.Duration) Ticker) ResetterOption {
	return func(r *Resetter) { r.newTicker = f }
}

// WithResetCounter records every reset attempt by status.
func WithResetCounter(c *prometheus.CounterVec) ResetterOption {
	return func(r *Resetter) { r.resets = c }
}

// NewResetter creates a Resetter. interval <= 0 falls back to DefaultResetInterval.
func NewResetter(target resetter, interval time.Duration, logger *zap.Logger, opts ...ResetterOption) *Resetter {
	if interval <= 0 {
		interval = DefaultResetInterval
	}
	r := &Resetter{
		target:    target,
		interval:  interval,
		newTicker: NewStdTicker,
		logger:    logger,
		trigger:   make(chan struct{}, 1),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Trigger requests an immediate reset. Never blocks; coalesces with a pending request.
func (r *Resetter) Trigger() {
	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

// Run blocks until ctx is cancelled. The first scheduled reset happens one interval after start.
func (r *Resetter) Run(ctx context.Context) {
	t := r.newTicker(r.interval)
	defer t.Stop()

	r.logger.Info("Quota resetter started", zap.Duration("interval", r.interval))

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Quota resetter stopped")
			return
		case <-t.C():
			r.resetOnce(ctx)
		case <-r.trigger:
			r.resetOnce(ctx)
		}
	}
}

func (r *Resetter) resetOnce(ctx context.Context) {
	status := "ok"
	defer func() {
		if rec := recover(); rec != nil {
			status = "error"
			r.logger.Error("Quota reset panicked", zap.Any("panic", rec))
		}
		if r.resets != nil {
			r.resets.WithLabelValues(status).Inc()
		}
	}()

	n, err := r.target.ResetAll(ctx)
	if err != nil {
		status = "error"
		r.logger.Error("Quota reset failed", zap.Error(fmt.Errorf("reset all: %w", err)))
		return
	}
	r.logger.Info("Quotas reset", zap.Int64("users", n))
}
