package reconcile

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfigurationIncomplete means a required connection identifier is missing.
	ErrConfigurationIncomplete = errors.New("configuration incomplete")

	// ErrDuplicateID means the remote assigned an id that is already indexed.
	ErrDuplicateID = errors.New("duplicate record id")
)

// ErrorKind classifies a pass failure.
type ErrorKind string

const (
	// KindConfiguration is raised before any network call.
	KindConfiguration ErrorKind = "configuration"
	// KindTransport covers HTTP failures, application error codes and protocol violations.
	KindTransport ErrorKind = "transport"
)

// PassError is the single pass-level failure signal.
type PassError struct {
	Kind  ErrorKind
	Phase Phase
	Err   error
}

func (e *PassError) Error() string {
	return fmt.Sprintf("%s error during %s: %v", e.Kind, e.Phase, e.Err)
}

func (e *PassError) Unwrap() error {
	return e.Err
}

// Message returns the user-facing text for the failure.
func (e *PassError) Message() string {
	if e.Kind == KindConfiguration {
		return "sync is not configured: " + e.Err.Error()
	}
	return "sync failed, check the connection and try again"
}

// ConfigurationError builds the preflight failure for the given missing identifiers.
func ConfigurationError(missing []string) *PassError {
	err := ErrConfigurationIncomplete
	if len(missing) > 0 {
		err = fmt.Errorf("%w: missing %s", ErrConfigurationIncomplete, strings.Join(missing, ", "))
	}
	return &PassError{Kind: KindConfiguration, Phase: PhasePreflight, Err: err}
}

func transportError(phase Phase, err error) *PassError {
	return &PassError{Kind: KindTransport, Phase: phase, Err: err}
}

// IsConfiguration reports whether err is a configuration failure.
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfigurationIncomplete)
}
