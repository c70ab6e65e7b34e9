package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	apperrors "github.com/lorrc/helpdesk-metrics/internal/core/errors"
)

const (
	DefaultWindow  = 300 * time.Second
	DefaultMaxSkew = 30 * time.Second
)

// AccessGuard validates path-bound, time-windowed access tokens of the form
// "<unix seconds>.<hex hmac-sha256>". It holds no per-request state.
type AccessGuard struct {
	secret  []byte
	window  time.Duration
	maxSkew time.Duration
	clock   clockwork.Clock
}

// GuardOption configures an AccessGuard.
type GuardOption func(*AccessGuard)

// WithWindow sets how old a token may be.
func WithWindow(d time.Duration) GuardOption {
	return func(g *AccessGuard) { g.window = d }
}

// WithMaxSkew sets how far in the future a token timestamp may be.
func WithMaxSkew(d time.Duration) GuardOption {
	return func(g *AccessGuard) { g.maxSkew = d }
}

// WithClock replaces the wall clock.
func WithClock(clock clockwork.Clock) GuardOption {
	return func(g *AccessGuard) { g.clock = clock }
}

func NewAccessGuard(secret string, opts ...GuardOption) *AccessGuard {
	g := &AccessGuard{
		secret:  []byte(secret),
		window:  DefaultWindow,
		maxSkew: DefaultMaxSkew,
		clock:   clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Validate checks token against the request path. Every failure wraps
// errors.ErrUnauthorized; the wrapped text is for logs only.
func (g *AccessGuard) Validate(token, path string) error {
	rawTS, sig, ok := strings.Cut(token, ".")
	if !ok || rawTS == "" || sig == "" || strings.Contains(sig, ".") {
		return fmt.Errorf("%w: malformed token", apperrors.ErrUnauthorized)
	}

	ts, err := strconv.ParseInt(rawTS, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: malformed timestamp", apperrors.ErrUnauthorized)
	}

	// Whole seconds, matching the token's resolution.
	age := g.clock.Now().Unix() - ts
	if age > int64(g.window/time.Second) {
		return fmt.Errorf("%w: token expired", apperrors.ErrUnauthorized)
	}
	if -age > int64(g.maxSkew/time.Second) {
		return fmt.Errorf("%w: token issued in the future", apperrors.ErrUnauthorized)
	}

	given, err := hex.DecodeString(sig)
	if err != nil {
		return fmt.Errorf("%w: malformed signature", apperrors.ErrUnauthorized)
	}
	if !hmac.Equal(given, mac(g.secret, rawTS, path)) {
		return fmt.Errorf("%w: signature mismatch", apperrors.ErrUnauthorized)
	}
	return nil
}

// Sign returns the hex signature for timestamp and path.
func Sign(secret []byte, timestamp, path string) string {
	return hex.EncodeToString(mac(secret, timestamp, path))
}

// Token mints an access token for path issued at at.
func Token(secret []byte, at time.Time, path string) string {
	ts := strconv.FormatInt(at.Unix(), 10)
	return ts + "." + Sign(secret, ts, path)
}

func mac(secret []byte, timestamp, path string) []byte {
	h := hmac.New(sha256.New, secret)
	h.Write([]byte(timestamp + ":" + path))
	return h.Sum(nil)
}
