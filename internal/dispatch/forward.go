package dispatch

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	retry "github.com/avast/retry-go/v5"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/mimicgate/mimicgate/internal/telemetry"
)

// connectTimeout and totalTimeout are the fixed forwarding timeouts: a
// per-attempt connect budget and an overall request budget.
const (
	connectTimeout = 10 * time.Second
	totalTimeout   = 30 * time.Second
)

// ThrottleError lets an upstream signal a specific retry delay (e.g. from
// a Retry-After header) instead of falling back to exponential backoff.
type ThrottleError struct {
	RetryAfter time.Duration
	Cause      error
}

func (e *ThrottleError) Error() string {
	return "upstream throttled: retry after " + e.RetryAfter.String()
}

func (e *ThrottleError) Unwrap() error { return e.Cause }

// ForwardResult carries everything the dispatch core needs from a
// successful forward to build a response and a learning Transaction.
type ForwardResult struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Forwarder is the shared outbound HTTP client wrapped with a circuit
// breaker, a token-bucket rate limiter and bounded retries, all three
// composed around each outbound call.
type Forwarder struct {
	client  *http.Client
	cb      *gobreaker.CircuitBreaker
	limiter *rate.Limiter
	target  string
	metrics *telemetry.Metrics
}

// NewForwarder builds a Forwarder targeting baseURL. metrics may be nil.
func NewForwarder(baseURL string, metrics *telemetry.Metrics) *Forwarder {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "upstream-forward",
		MaxRequests: 3,
		Interval:    5 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if metrics == nil {
				return
			}
			metrics.CircuitBreakerState.Set(float64(to))
		},
	})

	return &Forwarder{
		client: &http.Client{
			Timeout: totalTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{Timeout: connectTimeout}).DialContext,
			},
		},
		cb:      cb,
		limiter: rate.NewLimiter(rate.Limit(200), 50),
		target:  baseURL,
		metrics: metrics,
	}
}

// Forward proxies method+path+body to the configured upstream, retrying
// transient failures and tripping the breaker on sustained ones. The
// caller's context cancellation (e.g. client disconnect) is propagated to
// the upstream call.
func (f *Forwarder) Forward(ctx context.Context, method, path string, headers http.Header, body []byte) (*ForwardResult, error) {
	ctx, cancel := context.WithTimeout(ctx, totalTimeout)
	defer cancel()

	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	cbResult, err := f.cb.Execute(func() (interface{}, error) {
		var result *ForwardResult

		r := retry.New(
			retry.Context(ctx),
			retry.Attempts(3),
			retry.DelayType(func(n uint, err error, config retry.DelayContext) time.Duration {
				var tErr *ThrottleError
				if errors.As(err, &tErr) {
					return tErr.RetryAfter
				}
				return retry.BackOffDelay(n, err, config)
			}),
		)

		retryErr := r.Do(func() error {
			res, doErr := f.doOnce(ctx, method, path, headers, body)
			if doErr != nil {
				return doErr
			}
			result = res
			return nil
		})

		return result, retryErr
	})

	if err != nil {
		if f.metrics != nil {
			cause := "timeout"
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				cause = "breaker_open"
			}
			var tErr *ThrottleError
			if errors.As(err, &tErr) {
				cause = "throttled"
			}
			f.metrics.ForwardErrors.WithLabelValues(cause).Inc()
		}
		return nil, err
	}
	return cbResult.(*ForwardResult), nil
}

func (f *Forwarder) doOnce(ctx context.Context, method, path string, headers http.Header, body []byte) (*ForwardResult, error) {
	req, err := http.NewRequestWithContext(ctx, method, f.target+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 16*1024*1024))
	if err != nil {
		return nil, err
	}

	if retryAfter := resp.Header.Get("Retry-After"); resp.StatusCode == http.StatusTooManyRequests && retryAfter != "" {
		if d, perr := time.ParseDuration(retryAfter + "s"); perr == nil {
			return nil, &ThrottleError{RetryAfter: d, Cause: errUpstreamThrottled}
		}
	}

	return &ForwardResult{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       respBody,
	}, nil
}

var errUpstreamThrottled = errors.New("upstream returned 429")
