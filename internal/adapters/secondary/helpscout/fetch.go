package helpscout

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/lorrc/helpdesk-metrics/internal/core/domain"
	apperrors "github.com/lorrc/helpdesk-metrics/internal/core/errors"
)

const maxErrorBody = 512

// FetchAll walks the conversations listing for status, starting at page 1
// and following the next relation. The sequence is single-use. An empty or
// unparsable page ends it without error. A malformed record inside a page is
// logged as a *errors.ParseError and skipped. A throttle budget overrun, a
// transport failure or any other non-2xx status ends it with a
// *errors.FetchError as the final element.
func (c *Client) FetchAll(ctx context.Context, status string) iter.Seq2[domain.Ticket, error] {
	resource := "conversations?status=" + status

	return func(yield func(domain.Ticket, error) bool) {
		logger := c.logger.With("resource", resource)

		for page := 1; ; page++ {
			body, err := c.fetchPage(ctx, resource, status, page)
			if err != nil {
				yield(domain.Ticket{}, &apperrors.FetchError{
					Resource:     resource,
					PagesFetched: page - 1,
					Cause:        err,
				})
				return
			}

			var p conversationsPage
			if len(body) == 0 || json.Unmarshal(body, &p) != nil || p.Embedded == nil {
				logger.DebugContext(ctx, "listing ended on empty or unparsable page", "page", page)
				return
			}

			for _, raw := range p.Embedded.Conversations {
				t, err := decodeConversation(raw)
				if err != nil {
					logger.WarnContext(ctx, "skipping malformed ticket", "page", page, "error", err)
					continue
				}
				if !yield(t, nil) {
					return
				}
			}

			if p.Links.Next == nil {
				logger.DebugContext(ctx, "listing complete", "pages", page)
				return
			}
		}
	}
}

// fetchPage requests one page, waiting and retrying the same page while
// upstream throttles, up to MaxThrottleRetries waits.
func (c *Client) fetchPage(ctx context.Context, resource, status string, page int) ([]byte, error) {
	for attempt := 1; ; attempt++ {
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParam("status", status).
			SetQueryParam("page", strconv.Itoa(page)).
			Get(conversationsPath)
		if err != nil {
			return nil, err
		}

		switch {
		case resp.IsSuccess():
			return resp.Body(), nil

		case resp.StatusCode() == http.StatusTooManyRequests:
			if attempt > c.cfg.MaxThrottleRetries {
				return nil, fmt.Errorf("page %d: %w after %d attempts",
					page, apperrors.ErrThrottleBudgetExhausted, attempt)
			}
			wait := c.throttleWait(resp.Header().Get("Retry-After"), attempt)
			if c.recorder != nil {
				c.recorder.UpstreamThrottled(resource, attempt, wait)
			}
			c.logger.WarnContext(ctx, "upstream throttled, retrying same page",
				"resource", resource,
				"page", page,
				"attempt", attempt,
				"wait", wait.String(),
			)
			if err := c.sleep(ctx, wait); err != nil {
				return nil, err
			}

		default:
			return nil, statusError(resp.StatusCode(), resp.Body())
		}
	}
}

// throttleWait returns the wait before retry number attempt (1-based):
// the advertised delay, plus (2^(attempt-1) - 1) seconds, plus jitter.
func (c *Client) throttleWait(retryAfter string, attempt int) time.Duration {
	advertised := c.parseRetryAfter(retryAfter)
	backoff := time.Duration(1<<(attempt-1)-1) * time.Second
	return advertised + backoff + c.jitter()
}

// parseRetryAfter accepts delay-seconds or an HTTP date.
func (c *Client) parseRetryAfter(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return c.cfg.DefaultRetryAfter
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return c.cfg.DefaultRetryAfter
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := at.Sub(c.clock.Now()); d > 0 {
			return d
		}
		return 0
	}
	return c.cfg.DefaultRetryAfter
}

func (c *Client) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.clock.After(d):
		return nil
	}
}

func statusError(code int, body []byte) error {
	b := strings.TrimSpace(string(body))
	if len(b) > maxErrorBody {
		b = b[:maxErrorBody]
	}
	return &apperrors.StatusError{StatusCode: code, Body: b}
}
