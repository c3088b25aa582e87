package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"worklog/core/reconcile"
	"worklog/core/scheduler"
	"worklog/core/store"

	"go.uber.org/zap"
)

// ErrDeleteUnsupported is returned when the remote cannot delete records.
var ErrDeleteUnsupported = errors.New("remote does not support record deletion")

// Trigger runs passes; *scheduler.Scheduler implements it.
type Trigger interface {
	Trigger(ctx context.Context, req scheduler.Request) (scheduler.Outcome, error)
	SessionLoad(ctx context.Context, sessionID string) (scheduler.Outcome, error)
	Running() bool
}

// StateReader reads the persisted sync state.
type StateReader interface {
	SyncState(ctx context.Context) (store.SyncState, error)
}

// recordDeleter is implemented by remotes that support administrative deletes.
type recordDeleter interface {
	DeleteRecord(ctx context.Context, id string) error
}

// Status is the sync status shown next to the calendar.
type Status struct {
	Configured  bool       `json:"configured" yaml:"configured"`
	Running     bool       `json:"running" yaml:"running"`
	LastSyncAt  *time.Time `json:"lastSyncAt,omitempty" yaml:"lastSyncAt,omitempty"`
	LastOutcome string     `json:"lastOutcome,omitempty" yaml:"lastOutcome,omitempty"`
	LastMessage string     `json:"lastMessage,omitempty" yaml:"lastMessage,omitempty"`
}

// Report is the outcome of a trigger as returned to callers.
type Report struct {
	Ran       bool                 `json:"ran" yaml:"ran"`
	Skipped   string               `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Message   string               `json:"message,omitempty" yaml:"message,omitempty"`
	FirstSync bool                 `json:"firstSync,omitempty" yaml:"firstSync,omitempty"`
	Summary   *reconcile.Summary   `json:"summary,omitempty" yaml:"summary,omitempty"`
	Mutations []reconcile.Mutation `json:"mutations,omitempty" yaml:"mutations,omitempty"`
}

func newReport(out scheduler.Outcome) Report {
	rep := Report{Ran: out.Ran, Skipped: string(out.Skipped)}
	if out.Result != nil {
		rep.Message = out.Result.Message
		rep.FirstSync = out.Result.FirstSync
		summary := out.Result.Summary
		rep.Summary = &summary
		rep.Mutations = out.Result.Mutations
	}
	return rep
}

// Service exposes sync operations to handlers and commands.
type Service struct {
	trigger Trigger
	runner  *Runner
	state   StateReader
	connect RemoteFactory
	logger  *zap.Logger
}

// NewService creates a service.
func NewService(trigger Trigger, runner *Runner, state StateReader, connect RemoteFactory, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{trigger: trigger, runner: runner, state: state, connect: connect, logger: logger}
}

// Sync runs a manual pass. sessionID may be empty.
func (s *Service) Sync(ctx context.Context, sessionID string) (Report, error) {
	out, err := s.trigger.Trigger(ctx, scheduler.Request{Kind: scheduler.KindManual, SessionID: sessionID})
	rep := newReport(out)
	if err != nil {
		var perr *reconcile.PassError
		if errors.As(err, &perr) {
			rep.Message = perr.Message()
		}
		return rep, err
	}
	return rep, nil
}

// SessionLoad applies the session heuristic.
func (s *Service) SessionLoad(ctx context.Context, sessionID string) (Report, error) {
	out, err := s.trigger.SessionLoad(ctx, sessionID)
	return newReport(out), err
}

// Status returns the current sync status.
func (s *Service) Status(ctx context.Context) (Status, error) {
	st, err := s.state.SyncState(ctx)
	if err != nil {
		return Status{}, err
	}
	status := Status{
		Configured:  s.runner.Preflight() == nil,
		Running:     s.trigger.Running(),
		LastOutcome: st.LastOutcome,
		LastMessage: st.LastMessage,
	}
	if !st.LastSyncAt.IsZero() {
		t := st.LastSyncAt
		status.LastSyncAt = &t
	}
	return status, nil
}

// DeleteRemote deletes id from the remote table. The local copy disappears on
// the next pass as an orphan.
func (s *Service) DeleteRemote(ctx context.Context, id string) error {
	if err := s.runner.Preflight(); err != nil {
		return err
	}
	client, err := s.connect()
	if err != nil {
		return err
	}
	deleter, ok := client.(recordDeleter)
	if !ok {
		return ErrDeleteUnsupported
	}
	if err := deleter.DeleteRecord(ctx, id); err != nil {
		return fmt.Errorf("delete remote record %s: %w", id, err)
	}
	s.logger.Info("Remote record deleted", zap.String("id", id))
	return nil
}
