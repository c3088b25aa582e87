package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"worklog/core/metrics"
	"worklog/core/reconcile"
	"worklog/core/store"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubRunner struct {
	preflight error
	runErr    error
	calls     atomic.Int32
	kinds     chan Kind
	block     chan struct{}
	started   chan struct{}
}

func newStubRunner() *stubRunner {
	return &stubRunner{kinds: make(chan Kind, 16)}
}

func (r *stubRunner) Preflight() error { return r.preflight }

func (r *stubRunner) Run(_ context.Context, req Request) (*reconcile.Result, error) {
	r.calls.Add(1)
	select {
	case r.kinds <- req.Kind:
	default:
	}
	if r.started != nil {
		r.started <- struct{}{}
	}
	if r.block != nil {
		<-r.block
	}
	if r.runErr != nil {
		return nil, r.runErr
	}
	return &reconcile.Result{Message: "sync complete: already up to date"}, nil
}

type memSessions struct {
	mu   sync.Mutex
	data map[string]store.Session
}

func newMemSessions() *memSessions {
	return &memSessions{data: map[string]store.Session{}}
}

func (m *memSessions) Session(_ context.Context, id string) (store.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.data[id]; ok {
		return s, nil
	}
	return store.Session{ID: id}, nil
}

func (m *memSessions) SaveSession(_ context.Context, s store.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[s.ID] = s
	return nil
}

func newTestScheduler(r Runner, sessions SessionStore, interval time.Duration) (*Scheduler, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return New(r, sessions, interval, zap.NewNop(), metrics.New(reg)), reg
}

func TestTrigger_Manual(t *testing.T) {
	r := newStubRunner()
	s, _ := newTestScheduler(r, newMemSessions(), time.Hour)

	out, err := s.Trigger(context.Background(), Request{Kind: KindManual})
	require.NoError(t, err)
	assert.True(t, out.Ran)
	assert.Equal(t, SkipNone, out.Skipped)
	require.NotNil(t, out.Result)
	assert.Equal(t, int32(1), r.calls.Load())
	assert.False(t, s.Running())
}

func TestTrigger_ConfigurationIncomplete(t *testing.T) {
	r := newStubRunner()
	r.preflight = reconcile.ConfigurationError([]string{"app_id"})
	s, _ := newTestScheduler(r, newMemSessions(), time.Hour)

	out, err := s.Trigger(context.Background(), Request{Kind: KindManual})
	require.Error(t, err)
	assert.True(t, reconcile.IsConfiguration(err))
	assert.False(t, out.Ran)
	assert.Equal(t, SkipConfig, out.Skipped)

	out, err = s.Trigger(context.Background(), Request{Kind: KindPeriodic})
	assert.NoError(t, err)
	assert.Equal(t, SkipConfig, out.Skipped)

	assert.Equal(t, int32(0), r.calls.Load())
}

func TestTrigger_SingleFlight(t *testing.T) {
	r := newStubRunner()
	r.block = make(chan struct{})
	r.started = make(chan struct{}, 1)
	s, _ := newTestScheduler(r, newMemSessions(), time.Hour)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.Trigger(context.Background(), Request{Kind: KindPeriodic})
	}()
	<-r.started
	assert.True(t, s.Running())

	out, err := s.Trigger(context.Background(), Request{Kind: KindManual})
	assert.ErrorIs(t, err, ErrBusy)
	assert.Equal(t, SkipBusy, out.Skipped)

	out, err = s.Trigger(context.Background(), Request{Kind: KindSession})
	assert.NoError(t, err)
	assert.Equal(t, SkipBusy, out.Skipped)

	close(r.block)
	<-done
	assert.Equal(t, int32(1), r.calls.Load())
	assert.False(t, s.Running())
}

func TestTrigger_RunErrorReleasesFlag(t *testing.T) {
	r := newStubRunner()
	r.runErr = errors.New("connection refused")
	s, reg := newTestScheduler(r, newMemSessions(), time.Hour)

	out, err := s.Trigger(context.Background(), Request{Kind: KindManual})
	assert.Error(t, err)
	assert.True(t, out.Ran)
	assert.False(t, s.Running())

	count, err := testutil.GatherAndCount(reg, "worklog_sync_passes_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSessionLoad_Heuristic(t *testing.T) {
	r := newStubRunner()
	sessions := newMemSessions()
	s, _ := newTestScheduler(r, sessions, time.Hour)
	ctx := context.Background()

	expect := []bool{true, false, false, true, false, false, true}
	for i, want := range expect {
		out, err := s.SessionLoad(ctx, "tab-1")
		require.NoError(t, err)
		assert.Equal(t, want, out.Ran, fmt.Sprintf("load %d", i+1))
		if !want {
			assert.Equal(t, SkipNotDue, out.Skipped)
		}
	}
	assert.Equal(t, int32(3), r.calls.Load())
}

func TestSessionLoad_IndependentSessions(t *testing.T) {
	r := newStubRunner()
	s, _ := newTestScheduler(r, newMemSessions(), time.Hour)
	ctx := context.Background()

	out, err := s.SessionLoad(ctx, "a")
	require.NoError(t, err)
	assert.True(t, out.Ran)

	out, err = s.SessionLoad(ctx, "b")
	require.NoError(t, err)
	assert.True(t, out.Ran)
}

func TestSessionLoad_RequiresID(t *testing.T) {
	s, _ := newTestScheduler(newStubRunner(), newMemSessions(), time.Hour)
	_, err := s.SessionLoad(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestManualTriggerResetsSession(t *testing.T) {
	r := newStubRunner()
	sessions := newMemSessions()
	s, _ := newTestScheduler(r, sessions, time.Hour)
	ctx := context.Background()

	_, _ = s.SessionLoad(ctx, "tab")
	_, _ = s.SessionLoad(ctx, "tab")
	_, _ = s.SessionLoad(ctx, "tab")

	sess, _ := sessions.Session(ctx, "tab")
	assert.Equal(t, 2, sess.ReloadCount)

	_, err := s.Trigger(ctx, Request{Kind: KindManual, SessionID: "tab"})
	require.NoError(t, err)

	sess, _ = sessions.Session(ctx, "tab")
	assert.Equal(t, 0, sess.ReloadCount)
	assert.True(t, sess.Loaded)
}

func TestStart_PeriodicTrigger(t *testing.T) {
	r := newStubRunner()
	s, _ := newTestScheduler(r, newMemSessions(), 20*time.Millisecond)

	s.Start(context.Background())
	defer s.Stop()

	select {
	case k := <-r.kinds:
		assert.Equal(t, KindPeriodic, k)
	case <-time.After(2 * time.Second):
		t.Fatal("periodic trigger did not fire")
	}
}

func TestSetInterval_Rearms(t *testing.T) {
	r := newStubRunner()
	s, _ := newTestScheduler(r, newMemSessions(), time.Hour)

	s.Start(context.Background())
	defer s.Stop()

	s.SetInterval(20 * time.Millisecond)
	assert.Equal(t, 20*time.Millisecond, s.Interval())

	select {
	case <-r.kinds:
	case <-time.After(2 * time.Second):
		t.Fatal("re-armed trigger did not fire")
	}
}

func TestStop_Idempotent(t *testing.T) {
	s, _ := newTestScheduler(newStubRunner(), newMemSessions(), time.Hour)
	s.Stop()
	s.Start(context.Background())
	s.Stop()
	s.Stop()
	s.SetInterval(time.Minute)
	assert.Equal(t, time.Minute, s.Interval())
}
