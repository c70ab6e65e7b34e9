package helpscout

import (
	"log/slog"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/jonboulle/clockwork"

	"github.com/lorrc/helpdesk-metrics/internal/core/ports"
)

const (
	DefaultBaseURL            = "https://api.helpscout.net/v2"
	DefaultTimeout            = 30 * time.Second
	DefaultMaxThrottleRetries = 5
	DefaultRetryAfter         = 60 * time.Second

	tokenPath         = "/oauth2/token"
	conversationsPath = "/conversations"
	userAgent         = "helpdesk-metrics/1.0"
)

// Config represents client configuration
type Config struct {
	BaseURL string
	Timeout time.Duration
	// MaxThrottleRetries bounds the consecutive throttled attempts on one page.
	MaxThrottleRetries int
	// DefaultRetryAfter is used when a throttled response has no usable Retry-After.
	DefaultRetryAfter time.Duration
	Debug             bool
}

// Credentials are the client-credentials grant inputs.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// Client talks to the HelpScout Mailbox API. It is safe for concurrent use
// once Authenticate has succeeded.
type Client struct {
	http     *resty.Client
	cfg      Config
	clock    clockwork.Clock
	jitter   func() time.Duration
	recorder ports.Recorder
	logger   *slog.Logger

	token atomic.Pointer[string]
}

var _ ports.TicketSource = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithClock replaces the clock used for throttle waits.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Client) { c.clock = clock }
}

// WithJitter replaces the random jitter added to throttle waits.
func WithJitter(jitter func() time.Duration) Option {
	return func(c *Client) { c.jitter = jitter }
}

// WithRecorder reports throttles to r.
func WithRecorder(r ports.Recorder) Option {
	return func(c *Client) { c.recorder = r }
}

// NewClient creates a new HelpScout API client
func NewClient(cfg Config, logger *slog.Logger, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxThrottleRetries <= 0 {
		cfg.MaxThrottleRetries = DefaultMaxThrottleRetries
	}
	if cfg.DefaultRetryAfter <= 0 {
		cfg.DefaultRetryAfter = DefaultRetryAfter
	}

	c := &Client{
		cfg:    cfg,
		clock:  clockwork.NewRealClock(),
		jitter: randomJitter,
		logger: logger.With("component", "helpscout"),
	}
	for _, opt := range opts {
		opt(c)
	}

	// Throttling is handled per page by fetchPage, so resty's own retry stays off.
	c.http = resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(0).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/json").
		SetLogger(newRestyLogger(c.logger))

	if cfg.Debug {
		c.http.SetDebug(true)
	}

	c.http.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		if tok := c.token.Load(); tok != nil {
			req.SetAuthToken(*tok)
		}
		return nil
	})

	return c
}

// Authenticated reports whether a bearer token is held.
func (c *Client) Authenticated() bool {
	return c.token.Load() != nil
}

func randomJitter() time.Duration {
	return time.Duration(rand.Float64() * float64(time.Second))
}
