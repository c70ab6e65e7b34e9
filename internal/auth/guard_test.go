package auth

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/lorrc/helpdesk-metrics/internal/core/errors"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestGuard(clock clockwork.Clock) *AccessGuard {
	return NewAccessGuard(testSecret, WithClock(clock))
}

func TestAccessGuard_AcceptsFreshToken(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Unix(1_700_000_000, 0))
	guard := newTestGuard(clock)

	token := Token([]byte(testSecret), clock.Now(), "/api/v1/metrics/all-tickets")

	assert.NoError(t, guard.Validate(token, "/api/v1/metrics/all-tickets"))
}

func TestAccessGuard_FreshnessWindow(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Unix(1_700_000_000, 0))
	guard := newTestGuard(clock)
	path := "/api/v1/metrics/closed-tickets"
	token := Token([]byte(testSecret), clock.Now(), path)

	clock.Advance(300 * time.Second)
	assert.NoError(t, guard.Validate(token, path), "exactly at the window edge is still valid")

	clock.Advance(1 * time.Second)
	err := guard.Validate(token, path)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestAccessGuard_WindowComparesWholeSeconds(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Unix(1_700_000_000, 0))
	guard := newTestGuard(clock)
	path := "/api/v1/metrics/snapshot"
	token := Token([]byte(testSecret), clock.Now(), path)

	clock.Advance(300*time.Second + 500*time.Millisecond)
	assert.NoError(t, guard.Validate(token, path))

	clock.Advance(500 * time.Millisecond)
	assert.ErrorIs(t, guard.Validate(token, path), apperrors.ErrUnauthorized)
}

func TestAccessGuard_ConfigurableWindow(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Unix(1_700_000_000, 0))
	guard := NewAccessGuard(testSecret, WithClock(clock), WithWindow(10*time.Second))
	token := Token([]byte(testSecret), clock.Now(), "/x")

	clock.Advance(11 * time.Second)
	assert.ErrorIs(t, guard.Validate(token, "/x"), apperrors.ErrUnauthorized)
}

func TestAccessGuard_RejectsFutureTokensBeyondSkew(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	guard := newTestGuard(clockwork.NewFakeClockAt(now))

	assert.NoError(t, guard.Validate(Token([]byte(testSecret), now.Add(30*time.Second), "/p"), "/p"))
	assert.ErrorIs(t, guard.Validate(Token([]byte(testSecret), now.Add(31*time.Second), "/p"), "/p"), apperrors.ErrUnauthorized)
	assert.ErrorIs(t, guard.Validate(Token([]byte(testSecret), now.Add(24*time.Hour), "/p"), "/p"), apperrors.ErrUnauthorized)
}

func TestAccessGuard_Rejections(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	guard := newTestGuard(clockwork.NewFakeClockAt(now))
	path := "/api/v1/metrics/tickets-by-department"
	valid := Token([]byte(testSecret), now, path)
	ts := strconv.FormatInt(now.Unix(), 10)

	tamper := func(s string) string {
		last := s[len(s)-1]
		repl := byte('0')
		if last == '0' {
			repl = '1'
		}
		return s[:len(s)-1] + string(repl)
	}

	tests := []struct {
		name  string
		token string
		path  string
	}{
		{"different path", valid, "/api/v1/metrics/all-tickets"},
		{"empty token", "", path},
		{"no separator", strings.ReplaceAll(valid, ".", ""), path},
		{"three parts", valid + ".extra", path},
		{"empty timestamp", "." + Sign([]byte(testSecret), ts, path), path},
		{"empty signature", ts + ".", path},
		{"non-numeric timestamp", "abc." + Sign([]byte(testSecret), "abc", path), path},
		{"non-hex signature", ts + ".zzzz", path},
		{"tampered signature", tamper(valid), path},
		{"wrong secret", Token([]byte("another-secret-another-secret-xx"), now, path), path},
		{"truncated signature", valid[:len(valid)-2], path},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := guard.Validate(tt.token, tt.path)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
		})
	}
}

func TestSign_IsDeterministicAndPathBound(t *testing.T) {
	secret := []byte(testSecret)

	a := Sign(secret, "1700000000", "/a")
	assert.Equal(t, a, Sign(secret, "1700000000", "/a"))
	assert.NotEqual(t, a, Sign(secret, "1700000000", "/b"))
	assert.NotEqual(t, a, Sign(secret, "1700000001", "/a"))
	assert.Len(t, a, 64)
}
