package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/valyala/fastjson"
	"go.uber.org/zap"
)

const maxErrorBody = 512

// Client talks to one remote table on behalf of one set of credentials.
type Client struct {
	baseURL  string
	pageSize int
	creds    Credentials
	tokens   *TokenCache
	http     *http.Client
	logger   *zap.Logger
	loc      *time.Location
	parsers  fastjson.ParserPool
	arenas   fastjson.ArenaPool
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient makes the client send requests through h instead of a
// transport of its own.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithLogger sets the logger used to report remote rows that fail to decode.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a client for creds. Incomplete credentials are rejected
// before any network call with ErrIncompleteCredentials.
func NewClient(cfg Config, creds Credentials, tokens *TokenCache, opts ...Option) (*Client, error) {
	if !creds.Complete() {
		return nil, fmt.Errorf("%w: missing %s", ErrIncompleteCredentials, strings.Join(creds.Missing(), ", "))
	}

	loc, err := loadLocation(cfg.Timezone)
	if err != nil {
		return nil, err
	}

	pageSize := cfg.PageSize
	if pageSize <= 0 || pageSize > 500 {
		pageSize = 500
	}

	if tokens == nil {
		tokens = NewTokenCache(nil, nil)
	}

	c := &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		pageSize: pageSize,
		creds:    creds,
		tokens:   tokens,
		logger:   zap.NewNop(),
		loc:      loc,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = NewHTTPClient(cfg)
	}
	return c, nil
}

// NewHTTPClient builds the tuned HTTP client remote calls go through.
func NewHTTPClient(cfg Config) *http.Client {
	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 30
	}
	timeoutDuration := time.Duration(timeout) * time.Second

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeoutDuration,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   timeoutDuration,
		ResponseHeaderTimeout: timeoutDuration,
	}
	return &http.Client{Transport: transport, Timeout: timeoutDuration}
}

// loadLocation resolves a configured zone name; empty means the local zone.
func loadLocation(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", name, err)
	}
	return loc, nil
}

// Location returns the zone used for date conversion.
func (c *Client) Location() *time.Location {
	return c.loc
}

// Token returns a tenant access token, reusing the cached one while unexpired.
func (c *Client) Token(ctx context.Context) (string, error) {
	return c.tokens.Get(ctx, c.creds.AppID, c.fetchToken)
}

func (c *Client) fetchToken(ctx context.Context) (string, time.Duration, error) {
	a := c.arenas.Get()
	body := a.NewObject()
	body.Set("app_id", a.NewString(c.creds.AppID))
	body.Set("app_secret", a.NewString(c.creds.AppSecret))
	payload := body.MarshalTo(nil)
	c.arenas.Put(a)

	var (
		token  string
		expire int
	)
	err := c.call(ctx, "token", http.MethodPost, "/auth/v3/tenant_access_token/internal", payload, false, func(v *fastjson.Value) error {
		token = string(v.GetStringBytes("tenant_access_token"))
		expire = v.GetInt("expire")
		if token == "" {
			return fmt.Errorf("response carries no tenant_access_token")
		}
		return nil
	})
	if err != nil {
		return "", 0, err
	}
	return token, time.Duration(expire) * time.Second, nil
}

// call performs one request and checks the {code,msg,data} envelope.
// decode receives the root response object.
func (c *Client) call(ctx context.Context, op, method, path string, body []byte, auth bool, decode func(*fastjson.Value) error) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	if auth {
		token, err := c.Token(ctx)
		if err != nil {
			return fmt.Errorf("%s: acquire token: %w", op, err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	err = c.do(req, op, decode)
	if err != nil && auth && isTokenRejected(err) {
		c.tokens.Invalidate(ctx, c.creds.AppID)
	}
	return err
}

func (c *Client) do(req *http.Request, op string, decode func(*fastjson.Value) error) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text := string(raw)
		if len(text) > maxErrorBody {
			text = text[:maxErrorBody]
		}
		return &HTTPError{Op: op, StatusCode: resp.StatusCode, Body: text}
	}

	p := c.parsers.Get()
	defer c.parsers.Put(p)

	v, err := p.ParseBytes(raw)
	if err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}

	if code := v.GetInt("code"); code != 0 {
		return &APIError{Op: op, Code: code, Msg: string(v.GetStringBytes("msg"))}
	}

	if decode == nil {
		return nil
	}
	if err := decode(v); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
