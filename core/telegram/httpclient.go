package telegram

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/m3rciful/lessonbot/core/logger"
	"github.com/m3rciful/lessonbot/core/telegram/netutil"
)

const (
	dialTimeout      = 5 * time.Second
	tlsTimeout       = 5 * time.Second
	idleConnTimeout  = 90 * time.Second
	keepAlive        = 30 * time.Second
	requestHeadroom  = 10 * time.Second
	transportRetries = 2
	transportBackoff = time.Second
)

// BuildHTTPClient returns the client used for Bot API calls. getUpdates holds the connection
// open for the whole long-poll window, so header and request timeouts are sized past it.
func BuildHTTPClient(longPoll time.Duration) *http.Client {
	if longPoll <= 0 {
		longPoll = defaultLongPoll
	}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: dialTimeout, KeepAlive: keepAlive}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          16,
		MaxIdleConnsPerHost:   8,
		IdleConnTimeout:       idleConnTimeout,
		TLSHandshakeTimeout:   tlsTimeout,
		ResponseHeaderTimeout: longPoll + requestHeadroom/2,
		ExpectContinueTimeout: time.Second,
	}
	return &http.Client{
		Timeout:   longPoll + requestHeadroom,
		Transport: &retryTransport{base: transport, retries: transportRetries, backoff: transportBackoff},
	}
}

var errNoRewind = errors.New("request body cannot be replayed")

// retryTransport repeats requests that failed before any response arrived.
type retryTransport struct {
	base    http.RoundTripper
	retries int
	backoff time.Duration
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	for n := 1; err != nil && n <= t.retries && netutil.ShouldRetry(err); n++ {
		retry, rewindErr := rewind(req)
		if rewindErr != nil {
			return nil, err
		}
		logger.TG.LogAttrs(req.Context(), slog.LevelDebug, "",
			slog.String("event", "http.retry"),
			slog.String("status", "retry"),
			slog.Int("attempt", n),
			slog.String("err_kind", netutil.Kind(err)),
		)
		if waitErr := sleepCtx(req.Context(), t.backoff*time.Duration(n)); waitErr != nil {
			return nil, waitErr
		}
		resp, err = t.base.RoundTrip(retry)
	}
	return resp, err
}

// rewind clones req with a fresh body; requests whose body cannot be replayed are not retried.
func rewind(req *http.Request) (*http.Request, error) {
	clone := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return clone, nil
	}
	if req.GetBody == nil {
		return nil, errNoRewind
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	clone.Body = body
	return clone, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
