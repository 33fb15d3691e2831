package quota

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
)

type fakeTicker struct {
	ch      chan time.Time
	stopped chan struct{}
}

func newFakeTicker() *fakeTicker {
	return &fakeTicker{ch: make(chan time.Time), stopped: make(chan struct{})}
}

func (f *fakeTicker) C() <-chan time.Time { return f.ch }
func (f *fakeTicker) Stop()               { close(f.stopped) }

type panicResetter struct{ calls chan struct{} }

func (p *panicResetter) ResetAll(_ context.Context) (int64, error) {
	p.calls <- struct{}{}
	panic("boom")
}

func newResets() *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_quota_resets_total"}, []string{"status"})
}

func startResetter(t *testing.T, target resetter, opts ...ResetterOption) (*Resetter, *fakeTicker, func()) {
	t.Helper()
	ft := newFakeTicker()
	opts = append(opts, WithTicker(func(time.Duration) Ticker { return ft }))
	r := NewResetter(target, time.Hour, zap.NewNop(), opts...)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()
	stop := func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("resetter did not stop")
		}
	}
	return r, ft, stop
}

func waitSignal(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for reset")
	}
}

func TestResetter_TickResets(t *testing.T) {
	repo := newMockRepo()
	repo.counts["u1"] = 5
	called := make(chan struct{}, 4)
	repo.resetHook = func() { called <- struct{}{} }
	resets := newResets()

	_, ft, stop := startResetter(t, repo, WithResetCounter(resets))
	ft.ch <- time.Now()
	waitSignal(t, called)
	stop()

	if repo.counts["u1"] != 0 {
		t.Errorf("count = %d, want 0", repo.counts["u1"])
	}
	if got := testutil.ToFloat64(resets.WithLabelValues("ok")); got != 1 {
		t.Errorf("ok resets = %v, want 1", got)
	}
	select {
	case <-ft.stopped:
	default:
		t.Error("ticker should be stopped on exit")
	}
}

func TestResetter_Trigger(t *testing.T) {
	repo := newMockRepo()
	called := make(chan struct{}, 4)
	repo.resetHook = func() { called <- struct{}{} }

	r, _, stop := startResetter(t, repo)
	defer stop()

	r.Trigger()
	waitSignal(t, called)
}

func TestResetter_ErrorKeepsRunning(t *testing.T) {
	repo := newMockRepo()
	repo.resetErr = errors.New("disk I/O error")
	called := make(chan struct{}, 4)
	repo.resetHook = func() { called <- struct{}{} }
	resets := newResets()

	_, ft, stop := startResetter(t, repo, WithResetCounter(resets))
	ft.ch <- time.Now()
	waitSignal(t, called)
	ft.ch <- time.Now()
	waitSignal(t, called)
	stop()

	if got := testutil.ToFloat64(resets.WithLabelValues("error")); got != 2 {
		t.Errorf("error resets = %v, want 2", got)
	}
}

func TestResetter_PanicRecovered(t *testing.T) {
	target := &panicResetter{calls: make(chan struct{}, 4)}
	resets := newResets()

	_, ft, stop := startResetter(t, target, WithResetCounter(resets))
	ft.ch <- time.Now()
	waitSignal(t, target.calls)
	ft.ch <- time.Now()
	waitSignal(t, target.calls)
	stop()

	if got := testutil.ToFloat64(resets.WithLabelValues("error")); got != 2 {
		t.Errorf("error resets = %v, want 2", got)
	}
}

func TestNewResetter_DefaultInterval(t *testing.T) {
	r := NewResetter(newMockRepo(), 0, zap.NewNop())
	if r.interval != DefaultResetInterval {
		t.Errorf("interval = %v, want %v", r.interval, DefaultResetInterval)
	}
}

func TestTrigger_NeverBlocks(t *testing.T) {
	r := NewResetter(newMockRepo(), time.Hour, zap.NewNop())
	for range 10 {
		r.Trigger()
	}
}
