package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"worklog/core/metrics"
	"worklog/core/reconcile"
	"worklog/core/store"

	"go.uber.org/zap"
)

// ReloadThreshold is the number of reloads after which a session triggers again.
const ReloadThreshold = 3

var (
	// ErrBusy is returned to manual triggers while a pass is running.
	ErrBusy = errors.New("a sync pass is already running")
	// ErrNoSession is returned by SessionLoad without a session id.
	ErrNoSession = errors.New("session id required")
)

// Kind identifies what fired a trigger.
type Kind string

const (
	KindManual   Kind = "manual"
	KindPeriodic Kind = "periodic"
	KindSession  Kind = "session"
)

// Request describes one trigger.
type Request struct {
	Kind Kind
	// SessionID is the browsing session that asked for the pass, if any.
	SessionID string
}

// SkipReason explains why a trigger did not run a pass.
type SkipReason string

const (
	SkipNone   SkipReason = ""
	SkipConfig SkipReason = "config"
	SkipBusy   SkipReason = "busy"
	// SkipNotDue is a session reload below the threshold.
	SkipNotDue SkipReason = "not_due"
)

// Outcome is the result of a trigger.
type Outcome struct {
	Ran     bool
	Skipped SkipReason
	Result  *reconcile.Result
}

// Runner executes passes.
type Runner interface {
	// Preflight fails with an error wrapping reconcile.ErrConfigurationIncomplete
	// when the pass cannot start. It must not touch the network.
	Preflight() error
	// Run executes one pass.
	Run(ctx context.Context, req Request) (*reconcile.Result, error)
}

// SessionStore persists per-session heuristic state.
type SessionStore interface {
	Session(ctx context.Context, id string) (store.Session, error)
	SaveSession(ctx context.Context, sess store.Session) error
}

// Scheduler serializes passes and owns the periodic timer.
type Scheduler struct {
	runner   Runner
	sessions SessionStore
	log      *zap.Logger
	metrics  *metrics.Metrics

	busy atomic.Bool

	mu       sync.Mutex
	interval time.Duration
	reset    chan time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
}

// New creates a scheduler. interval is the periodic trigger period.
func New(runner Runner, sessions SessionStore, interval time.Duration, log *zap.Logger, m *metrics.Metrics) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		runner:   runner,
		sessions: sessions,
		log:      log,
		metrics:  m,
		interval: interval,
	}
}

// Running reports whether a pass is in flight.
func (s *Scheduler) Running() bool {
	return s.busy.Load()
}

// Interval returns the current periodic interval.
func (s *Scheduler) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

// Trigger runs a pass unless configuration is incomplete or one is in flight.
func (s *Scheduler) Trigger(ctx context.Context, req Request) (Outcome, error) {
	manual := req.Kind == KindManual

	if err := s.runner.Preflight(); err != nil {
		s.metrics.Pass(string(req.Kind), "skipped_config", 0)
		if manual {
			return Outcome{Skipped: SkipConfig}, err
		}
		s.log.Debug("Automatic sync skipped: configuration incomplete", zap.String("trigger", string(req.Kind)))
		return Outcome{Skipped: SkipConfig}, nil
	}

	if !s.busy.CompareAndSwap(false, true) {
		s.metrics.Pass(string(req.Kind), "skipped_busy", 0)
		s.log.Debug("Sync trigger ignored: pass in flight", zap.String("trigger", string(req.Kind)))
		if manual {
			return Outcome{Skipped: SkipBusy}, ErrBusy
		}
		return Outcome{Skipped: SkipBusy}, nil
	}
	defer s.busy.Store(false)

	start := time.Now()
	result, err := s.runner.Run(ctx, req)
	s.metrics.Pass(string(req.Kind), outcomeLabel(err), time.Since(start))

	if manual && req.SessionID != "" {
		s.resetSession(ctx, req.SessionID)
	}

	return Outcome{Ran: true, Result: result}, err
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case reconcile.IsConfiguration(err):
		return "config"
	default:
		return "failed"
	}
}

// SessionLoad applies the session heuristic to a page load of sessionID.
// The first load triggers a pass; each later load increments a counter and
// triggers once it reaches ReloadThreshold, resetting it to zero.
func (s *Scheduler) SessionLoad(ctx context.Context, sessionID string) (Outcome, error) {
	if sessionID == "" {
		return Outcome{}, ErrNoSession
	}

	sess, err := s.sessions.Session(ctx, sessionID)
	if err != nil {
		return Outcome{}, err
	}

	due := false
	if !sess.Loaded {
		sess.Loaded = true
		sess.ReloadCount = 0
		due = true
	} else {
		sess.ReloadCount++
		if sess.ReloadCount >= ReloadThreshold {
			sess.ReloadCount = 0
			due = true
		}
	}

	if err := s.sessions.SaveSession(ctx, sess); err != nil {
		return Outcome{}, err
	}
	if !due {
		return Outcome{Skipped: SkipNotDue}, nil
	}
	return s.Trigger(ctx, Request{Kind: KindSession, SessionID: sessionID})
}

func (s *Scheduler) resetSession(ctx context.Context, sessionID string) {
	sess, err := s.sessions.Session(ctx, sessionID)
	if err != nil {
		s.log.Warn("Failed to load session", zap.String("session", sessionID), zap.Error(err))
		return
	}
	sess.Loaded = true
	sess.ReloadCount = 0
	if err := s.sessions.SaveSession(ctx, sess); err != nil {
		s.log.Warn("Failed to reset session counter", zap.String("session", sessionID), zap.Error(err))
	}
}

// Start arms the periodic trigger. It is a no-op when already started.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.reset = make(chan time.Duration, 1)
	s.done = make(chan struct{})

	go s.loop(loopCtx, s.interval, s.reset, s.done)
	s.log.Info("Sync scheduler started", zap.Duration("interval", s.interval))
}

// Stop disarms the periodic trigger and waits for the loop to exit.
// A pass already running is not interrupted.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// SetInterval re-arms the periodic timer with d.
func (s *Scheduler) SetInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interval = d
	if s.reset == nil {
		return
	}
	// Keep only the latest value.
	select {
	case <-s.reset:
	default:
	}
	s.reset <- d
	s.log.Info("Sync interval re-armed", zap.Duration("interval", d))
}

func (s *Scheduler) loop(ctx context.Context, interval time.Duration, reset <-chan time.Duration, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case d := <-reset:
			ticker.Reset(d)
		case <-ticker.C:
			// The pass outlives Stop; only the timer belongs to the loop.
			if _, err := s.Trigger(context.WithoutCancel(ctx), Request{Kind: KindPeriodic}); err != nil {
				s.log.Warn("Periodic sync failed", zap.Error(err))
			}
		}
	}
}
