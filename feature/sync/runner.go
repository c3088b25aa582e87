package sync

import (
	"context"
	"errors"
	"fmt"

	"worklog/core/metrics"
	"worklog/core/models"
	"worklog/core/reconcile"
	"worklog/core/remote"
	"worklog/core/scheduler"
	"worklog/core/settings"

	"go.uber.org/zap"
)

const (
	OutcomeOK      = "ok"
	OutcomeAborted = "aborted"
	OutcomeFailed  = "failed"
)

// Store is the local snapshot store as seen by a pass.
type Store interface {
	Snapshot(ctx context.Context) ([]models.LogRecord, error)
	Replace(ctx context.Context, records []models.LogRecord) error
	RecordPass(ctx context.Context, outcome, message string, success bool) error
	Exclusive(fn func() error) error
}

// SettingsSource returns the current connection settings.
type SettingsSource interface {
	Current() settings.Settings
}

// RemoteFactory connects to the remote table with the current settings.
type RemoteFactory func() (reconcile.Remote, error)

// ConnectorFactory adapts a remote.Connector.
func ConnectorFactory(c *remote.Connector) RemoteFactory {
	return func() (reconcile.Remote, error) {
		client, err := c.Connect()
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}

// Archiver stores copies of reconciled snapshots.
type Archiver interface {
	Archive(ctx context.Context, records []models.LogRecord) (string, error)
	Prune(ctx context.Context) (int, error)
}

// Runner executes sync passes for the scheduler.
type Runner struct {
	store    Store
	settings SettingsSource
	connect  RemoteFactory
	archiver Archiver
	metrics  *metrics.Metrics
	logger   *zap.Logger
	opts     []reconcile.Option
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithArchiver archives every successfully reconciled snapshot.
func WithArchiver(a Archiver) RunnerOption {
	return func(r *Runner) { r.archiver = a }
}

// WithMetrics records mutation counters.
func WithMetrics(m *metrics.Metrics) RunnerOption {
	return func(r *Runner) { r.metrics = m }
}

// WithEngineOptions passes options to every engine.
func WithEngineOptions(opts ...reconcile.Option) RunnerOption {
	return func(r *Runner) { r.opts = append(r.opts, opts...) }
}

// NewRunner creates a runner.
func NewRunner(s Store, src SettingsSource, connect RemoteFactory, logger *zap.Logger, opts ...RunnerOption) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Runner{store: s, settings: src, connect: connect, logger: logger}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Preflight fails when a connection identifier is missing. It performs no I/O.
func (r *Runner) Preflight() error {
	creds := r.settings.Current().Credentials()
	if !creds.Complete() {
		return reconcile.ConfigurationError(creds.Missing())
	}
	return nil
}

// Run executes one pass and persists its outcome.
func (r *Runner) Run(ctx context.Context, req scheduler.Request) (*reconcile.Result, error) {
	if err := r.Preflight(); err != nil {
		return nil, err
	}
	client, err := r.connect()
	if err != nil {
		if errors.Is(err, remote.ErrIncompleteCredentials) {
			return nil, reconcile.ConfigurationError(r.settings.Current().Credentials().Missing())
		}
		return nil, &reconcile.PassError{Kind: reconcile.KindConfiguration, Phase: reconcile.PhasePreflight, Err: err}
	}

	l := r.logger.With(zap.String("trigger", string(req.Kind)))
	l.Info("Sync pass started")

	var (
		result  *reconcile.Result
		passErr error
	)
	err = r.store.Exclusive(func() error {
		local, err := r.store.Snapshot(ctx)
		if err != nil {
			return err
		}
		result, passErr = reconcile.NewEngine(client, l, r.opts...).Reconcile(ctx, local)
		if !persistable(passErr) {
			return nil
		}
		return r.store.Replace(ctx, result.Snapshot)
	})
	if err != nil {
		return result, fmt.Errorf("local store: %w", err)
	}

	for _, m := range result.Mutations {
		r.metrics.Mutation(string(m.Kind), m.Failed())
	}

	outcome := OutcomeOK
	switch {
	case passErr == nil:
	case result.Aborted && persistable(passErr):
		outcome = OutcomeAborted
	default:
		outcome = OutcomeFailed
	}
	if err := r.store.RecordPass(ctx, outcome, result.Message, passErr == nil); err != nil {
		l.Warn("Failed to record sync state", zap.Error(err))
	}

	if passErr != nil {
		l.Warn("Sync pass failed", zap.String("outcome", outcome), zap.Error(passErr))
		return result, passErr
	}

	l.Info("Sync pass finished",
		zap.String("message", result.Message),
		zap.Bool("first_sync", result.FirstSync),
		zap.Int("records", len(result.Snapshot)),
		zap.Int("remote_calls", result.Summary.RemoteCalls),
	)
	r.archive(ctx, l, result.Snapshot)
	return result, nil
}

// persistable reports whether the pass produced a snapshot worth saving. A
// failed initial fetch mutated nothing, so the stored snapshot stays as is.
func persistable(err error) bool {
	if err == nil {
		return true
	}
	var perr *reconcile.PassError
	return errors.As(err, &perr) && perr.Phase != reconcile.PhaseFetch && perr.Phase != reconcile.PhasePreflight
}

func (r *Runner) archive(ctx context.Context, l *zap.Logger, records []models.LogRecord) {
	if r.archiver == nil {
		return
	}
	name, err := r.archiver.Archive(ctx, records)
	if err != nil {
		l.Warn("Snapshot archive failed", zap.Error(err))
		return
	}
	l.Debug("Snapshot archived", zap.String("object", name))
	if n, err := r.archiver.Prune(ctx); err != nil {
		l.Warn("Snapshot archive prune failed", zap.Error(err))
	} else if n > 0 {
		l.Debug("Old snapshots pruned", zap.Int("removed", n))
	}
}
