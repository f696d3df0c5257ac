package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/fragmede/corebalance/internal/identity"
)

const (
	authPath         = "/auth/v1"
	userAgent        = "corebalance/1.0"
	maxErrorBodySize = 64 << 10
)

// TokenStore persists the provider session between runs.
type TokenStore interface {
	LoadSession(ctx context.Context) (*identity.Session, error)
	SaveSession(ctx context.Context, s *identity.Session) error
	ClearSession(ctx context.Context) error
}

// RequestObserver receives one observation per HTTP request.
type RequestObserver interface {
	ObserveProviderRequest(endpoint string, status int, d time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveProviderRequest(string, int, time.Duration) {}

// Options configures a Client.
type Options struct {
	BaseURL       string
	AnonKey       string
	Timeout       time.Duration
	RefreshMargin time.Duration
	RateLimit     float64
	RateBurst     int

	Store      TokenStore
	Clock      clockwork.Clock
	Observer   RequestObserver
	Logger     *slog.Logger
	HTTPClient *http.Client
}

// Client talks to a GoTrue auth API and implements identity.Provider.
type Client struct {
	http    *http.Client
	baseURL string
	anonKey string
	margin  time.Duration
	limiter *rate.Limiter
	store   TokenStore
	clock   clockwork.Clock
	obs     RequestObserver
	log     *slog.Logger
	refresh singleflight.Group
}

var _ identity.Provider = (*Client)(nil)

// NewClient creates a GoTrue client.
func NewClient(opts Options) (*Client, error) {
	if opts.BaseURL == "" || opts.AnonKey == "" {
		return nil, fmt.Errorf("base URL and anon key are required")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("token store is required")
	}

	c := &Client{
		http:    opts.HTTPClient,
		baseURL: strings.TrimRight(opts.BaseURL, "/") + authPath,
		anonKey: opts.AnonKey,
		margin:  opts.RefreshMargin,
		store:   opts.Store,
		clock:   opts.Clock,
		obs:     opts.Observer,
		log:     opts.Logger,
	}
	if c.http == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		c.http = &http.Client{Timeout: timeout}
	}
	if c.clock == nil {
		c.clock = clockwork.NewRealClock()
	}
	if c.obs == nil {
		c.obs = nopObserver{}
	}
	if c.log == nil {
		c.log = slog.Default()
	}

	limit, burst := rate.Limit(opts.RateLimit), opts.RateBurst
	if limit <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	c.limiter = rate.NewLimiter(limit, burst)
	return c, nil
}

// do sends a JSON request and decodes a JSON response into dst. Failures are
// returned as *identity.ProviderError. An empty bearer sends the anon key.
func (c *Client) do(ctx context.Context, endpoint, method, path string, query url.Values, bearer string, body, dst any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &identity.ProviderError{Message: "rate limiter", Cause: err}
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &identity.ProviderError{Message: "encoding request", Cause: err}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return &identity.ProviderError{Message: "creating request", Cause: err}
	}
	if bearer == "" {
		bearer = c.anonKey
	}
	requestID := uuid.NewString()
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-Id", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := c.clock.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.obs.ObserveProviderRequest(endpoint, 0, c.clock.Since(start))
		c.log.Debug("provider request failed", "endpoint", endpoint, "request_id", requestID, "error", err)
		return &identity.ProviderError{Message: endpoint, Cause: err}
	}
	defer resp.Body.Close()
	c.obs.ObserveProviderRequest(endpoint, resp.StatusCode, c.clock.Since(start))
	c.log.Debug("provider request", "endpoint", endpoint, "request_id", requestID, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if dst == nil || resp.StatusCode == http.StatusNoContent {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return &identity.ProviderError{Message: "decoding " + endpoint + " response", Cause: err}
	}
	return nil
}

func decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))

	var e errorResponse
	msg := ""
	if json.Unmarshal(body, &e) == nil {
		msg = e.text()
	}
	if msg == "" {
		msg = strings.TrimSpace(string(body))
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &identity.ProviderError{Status: resp.StatusCode, Message: msg}
}
