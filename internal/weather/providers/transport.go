package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var (
	errNoHTTPClient      = errors.New("http client not configured")
	errCircuitOpen       = errors.New("circuit breaker open")
	errUpstreamServerErr = errors.New("upstream server error")
)

// Response is the raw outcome of a GET: status plus the full body.
type Response struct {
	StatusCode int
	Body       []byte
}

// Transport performs a single HTTP GET. It must honour ctx cancellation and
// must not interpret the status code.
type Transport interface {
	Get(ctx context.Context, rawURL string) (*Response, error)
}

// HTTPTransport is a Transport backed by resty. Resty's retry support stays
// disabled; retrying is left to callers.
type HTTPTransport struct {
	client *resty.Client
}

// NewHTTPTransport wraps client, which carries the timeout and connection pool.
func NewHTTPTransport(client *http.Client) *HTTPTransport {
	if client == nil {
		return &HTTPTransport{}
	}
	return &HTTPTransport{
		client: resty.NewWithClient(client).
			SetHeader("Accept", "application/json").
			SetRetryCount(0),
	}
}

func (t *HTTPTransport) Get(ctx context.Context, rawURL string) (*Response, error) {
	if t.client == nil {
		return nil, errNoHTTPClient
	}

	resp, err := t.client.R().
		SetContext(ctx).
		Get(rawURL)
	if err != nil {
		return nil, err
	}

	return &Response{StatusCode: resp.StatusCode(), Body: resp.Body()}, nil
}

// BreakerTransport trips after consecutive network failures or 5xx responses.
// While open, calls fail fast without reaching the network. 5xx responses are
// still returned to the caller for classification.
type BreakerTransport struct {
	next    Transport
	circuit *gobreaker.CircuitBreaker
}

func NewBreakerTransport(next Transport, name string, logger *zap.Logger) *BreakerTransport {
	if logger == nil {
		logger = zap.NewNop()
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return &BreakerTransport{next: next, circuit: cb}
}

func (t *BreakerTransport) Get(ctx context.Context, rawURL string) (*Response, error) {
	var (
		resp    *Response
		callErr error
	)
	_, err := t.circuit.Execute(func() (interface{}, error) {
		resp, callErr = t.next.Get(ctx, rawURL)
		if callErr != nil {
			// Caller cancellation says nothing about upstream health.
			if ctx.Err() != nil {
				return nil, nil
			}
			return nil, callErr
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, errUpstreamServerErr
		}
		return nil, nil
	})

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", errCircuitOpen, err)
	}
	if callErr != nil {
		return nil, callErr
	}
	return resp, nil
}

// RateLimitedTransport spaces outbound calls with a token bucket.
type RateLimitedTransport struct {
	next    Transport
	limiter *rate.Limiter
}

// NewRateLimitedTransport allows rps requests per second (fractional allowed)
// with the given burst.
func NewRateLimitedTransport(next Transport, rps float64, burst int) *RateLimitedTransport {
	return &RateLimitedTransport{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (t *RateLimitedTransport) Get(ctx context.Context, rawURL string) (*Response, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait canceled: %w", err)
	}
	return t.next.Get(ctx, rawURL)
}

var (
	_ Transport = (*HTTPTransport)(nil)
	_ Transport = (*BreakerTransport)(nil)
	_ Transport = (*RateLimitedTransport)(nil)
)
