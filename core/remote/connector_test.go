package remote_test

import (
	"testing"
	"time"

	"worklog/core/remote"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnector(t *testing.T) {
	creds := remote.Credentials{AppID: "cli_a"}
	conn := remote.NewConnector(remote.Config{Timezone: "UTC"}, remote.NewTokenCache(nil, nil), func() remote.Credentials { return creds })

	_, err := conn.Connect()
	assert.ErrorIs(t, err, remote.ErrIncompleteCredentials)

	creds = remote.Credentials{AppID: "cli_a", AppSecret: "s", AppToken: "base", TableID: "tbl"}
	client, err := conn.Connect()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, client.Location())
	assert.Equal(t, "base", conn.Credentials().AppToken)

	loc, err := conn.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestConnector_BadTimezone(t *testing.T) {
	conn := remote.NewConnector(remote.Config{Timezone: "Mars/Base"}, nil, func() remote.Credentials { return remote.Credentials{} })
	_, err := conn.Location()
	assert.Error(t, err)
}
