package clients

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/jsamuelsen/stock-quote/internal/platform/config"
)

var errThrottled = errors.New("throttled by provider")

// newBackOff maps the retry settings onto an exponential schedule with jitter.
func newBackOff(cfg config.RetryConfig) *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.InitialInterval
	b.MaxInterval = cfg.MaxInterval
	b.Multiplier = cfg.Multiplier
	b.RandomizationFactor = cfg.JitterFactor

	return b
}

// send runs up to MaxAttempts attempts. Transport failures worth repeating and
// 429 answers are retried; a 429 on the final attempt is returned as is.
func (c *Client) send(ctx context.Context, req *http.Request, logger *slog.Logger) (*http.Response, error) {
	attempt := 0

	op := func() (*http.Response, error) {
		attempt++

		resp, err := c.http.Do(req.WithContext(ctx))
		if err != nil {
			err = redactURLError(err)
			if ctx.Err() != nil || !isRetryableError(err) {
				return nil, backoff.Permanent(err)
			}

			return nil, err
		}

		if resp.StatusCode == http.StatusTooManyRequests && attempt < c.retry.MaxAttempts {
			if err := resp.Body.Close(); err != nil {
				logger.Debug("failed to close throttled response", slog.Any("error", err))
			}

			return nil, errThrottled
		}

		return resp, nil
	}

	return backoff.Retry(ctx, op,
		backoff.WithBackOff(newBackOff(c.retry)),
		backoff.WithMaxTries(uint(c.retry.MaxAttempts)), //nolint:gosec // validated >= 1
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, wait time.Duration) {
			logger.Debug("retrying request",
				slog.Int("attempt", attempt+1),
				slog.Duration("backoff", wait),
				slog.Any("error", err),
			)
		}),
	)
}

// withoutQuery renders u without query, fragment or user info.
func withoutQuery(u *url.URL) string {
	clean := *u
	clean.RawQuery = ""
	clean.Fragment = ""
	clean.User = nil

	return clean.String()
}

// redactURLError strips the query from the URL net/http embeds in its errors.
func redactURLError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if u, parseErr := url.Parse(urlErr.URL); parseErr == nil {
			urlErr.URL = withoutQuery(u)
		}
	}

	return err
}

// isRetryableError accepts timeouts, dropped connections, refused dials and
// DNS failures.
func isRetryableError(err error) bool {
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		return false
	case IsTimeout(err), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	var opErr *net.OpError

	return errors.As(err, &opErr)
}

// IsTimeout reports whether err is a deadline or network timeout.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error

	return errors.As(err, &netErr) && netErr.Timeout()
}
