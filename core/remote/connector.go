package remote

import (
	"net/http"
	"time"
)

// CredentialsFunc returns the credentials to connect with. It is consulted on
// every Connect so settings edits take effect on the next pass.
type CredentialsFunc func() Credentials

// Connector builds clients for the current credentials. All clients share
// one token cache and one HTTP client.
type Connector struct {
	cfg    Config
	tokens *TokenCache
	creds  CredentialsFunc
	http   *http.Client
	opts   []Option
}

// NewConnector creates a connector. opts apply to every client it builds.
func NewConnector(cfg Config, tokens *TokenCache, creds CredentialsFunc, opts ...Option) *Connector {
	return &Connector{
		cfg:    cfg,
		tokens: tokens,
		creds:  creds,
		http:   NewHTTPClient(cfg),
		opts:   opts,
	}
}

// Credentials returns the credentials Connect would use.
func (c *Connector) Credentials() Credentials {
	return c.creds()
}

// Connect returns a client, or an error wrapping ErrIncompleteCredentials.
func (c *Connector) Connect() (*Client, error) {
	opts := append([]Option{WithHTTPClient(c.http)}, c.opts...)
	return NewClient(c.cfg, c.creds(), c.tokens, opts...)
}

// Location returns the configured zone used for calendar dates.
func (c *Connector) Location() (*time.Location, error) {
	return loadLocation(c.cfg.Timezone)
}
