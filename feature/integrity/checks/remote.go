package checks

import (
	"context"
	"errors"

	"worklog/core/remote"
)

// TokenSource acquires an access token for the remote table.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// RemoteReport describes whether the remote accepted the credentials.
type RemoteReport struct {
	Configured    bool   `json:"configured"`
	Authenticated bool   `json:"authenticated"`
	Error         string `json:"error,omitempty"`
}

// CheckRemote connects and requests a token. Incomplete credentials are
// reported as not configured rather than as a failure.
func CheckRemote(ctx context.Context, connect func() (TokenSource, error)) RemoteReport {
	src, err := connect()
	if err != nil {
		if errors.Is(err, remote.ErrIncompleteCredentials) {
			return RemoteReport{Error: err.Error()}
		}
		return RemoteReport{Configured: true, Error: err.Error()}
	}

	if _, err := src.Token(ctx); err != nil {
		return RemoteReport{Configured: true, Error: err.Error()}
	}
	return RemoteReport{Configured: true, Authenticated: true}
}
