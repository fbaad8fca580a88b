package clients

import (
	"context"
	"errors"
	"io"
	"net"
	"net/url"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/stock-quote/internal/platform/config"
)

func TestNewBackOff(t *testing.T) {
	b := newBackOff(config.RetryConfig{
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     time.Second,
		Multiplier:      2.0,
		JitterFactor:    0.25,
	})

	assert.InDelta(t, 100*time.Millisecond, b.NextBackOff(), float64(25*time.Millisecond))
	assert.InDelta(t, 200*time.Millisecond, b.NextBackOff(), float64(50*time.Millisecond))
	assert.InDelta(t, 400*time.Millisecond, b.NextBackOff(), float64(100*time.Millisecond))

	for i := 0; i < 10; i++ {
		b.NextBackOff()
	}
	assert.LessOrEqual(t, b.NextBackOff(), time.Second+time.Second/4)
}

func TestWithoutQuery(t *testing.T) {
	u, err := url.Parse("https://user:pw@finnhub.io/api/v1/quote?symbol=AAPL&token=abc#frag")
	require.NoError(t, err)

	assert.Equal(t, "https://finnhub.io/api/v1/quote", withoutQuery(u))
	assert.Contains(t, u.String(), "token=abc", "original URL is untouched")
}

// testNetError is a fake net.Error for testing.
type testNetError struct {
	timeout bool
}

func (e testNetError) Error() string   { return "test net error" }
func (e testNetError) Timeout() bool   { return e.timeout }
func (e testNetError) Temporary() bool { return true }

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"nil error", nil, false},
		{"context canceled", context.Canceled, false},
		{"deadline exceeded", context.DeadlineExceeded, true},
		{"net error with timeout", testNetError{timeout: true}, true},
		{"net error without timeout", testNetError{timeout: false}, false},
		{"connection refused", &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}, true},
		{"dns failure", &net.DNSError{Err: "no such host", Name: "finnhub.io", IsNotFound: true}, true},
		{"unexpected eof", io.ErrUnexpectedEOF, true},
		{"other", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, isRetryableError(tt.err))
		})
	}
}

func TestIsTimeout(t *testing.T) {
	assert.True(t, IsTimeout(context.DeadlineExceeded))
	assert.True(t, IsTimeout(&url.Error{Op: "Get", URL: "x", Err: testNetError{timeout: true}}))
	assert.False(t, IsTimeout(&url.Error{Op: "Get", URL: "x", Err: testNetError{timeout: false}}))
	assert.False(t, IsTimeout(errors.New("boom")))
}

func TestRedactURLError(t *testing.T) {
	err := redactURLError(&url.Error{
		Op:  "Get",
		URL: "https://finnhub.io/api/v1/quote?symbol=AAPL&token=very-secret",
		Err: syscall.ECONNREFUSED,
	})

	assert.NotContains(t, err.Error(), "very-secret")
	assert.Contains(t, err.Error(), "https://finnhub.io/api/v1/quote")
	assert.NoError(t, redactURLError(nil))
}
