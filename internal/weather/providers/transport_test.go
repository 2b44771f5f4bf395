package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type countingTransport struct {
	calls int
	resp  *Response
	err   error
}

func (c *countingTransport) Get(context.Context, string) (*Response, error) {
	c.calls++
	return c.resp, c.err
}

func TestHTTPTransport_Get(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "application/json" {
			t.Errorf("Accept header = %q", r.Header.Get("Accept"))
		}
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte(`{"cod":418,"message":"short and stout"}`))
	}))
	defer srv.Close()

	resp, err := NewHTTPTransport(srv.Client()).Get(context.Background(), srv.URL+"/data/2.5/weather")
	if err != nil {
		t.Fatalf("Get() unexpected error = %v", err)
	}
	if resp.StatusCode != http.StatusTeapot {
		t.Errorf("StatusCode = %d, want %d", resp.StatusCode, http.StatusTeapot)
	}
	if string(resp.Body) != `{"cod":418,"message":"short and stout"}` {
		t.Errorf("Body = %q", resp.Body)
	}

	if _, err := NewHTTPTransport(nil).Get(context.Background(), srv.URL); !errors.Is(err, errNoHTTPClient) {
		t.Errorf("Get() without client error = %v, want errNoHTTPClient", err)
	}
}

func TestBreakerTransport_OpensAfterConsecutiveFailures(t *testing.T) {
	next := &countingTransport{err: errors.New("connection refused")}
	br := NewBreakerTransport(next, "test", nil)

	for i := 0; i < 5; i++ {
		if _, err := br.Get(context.Background(), "http://example.invalid"); errors.Is(err, errCircuitOpen) {
			t.Fatalf("call %d: breaker open too early", i)
		}
	}

	_, err := br.Get(context.Background(), "http://example.invalid")
	if !errors.Is(err, errCircuitOpen) {
		t.Fatalf("Get() error = %v, want errCircuitOpen", err)
	}
	if next.calls != 5 {
		t.Errorf("next called %d times, want 5", next.calls)
	}
}

func TestBreakerTransport_ServerErrorsCountButPassThrough(t *testing.T) {
	next := &countingTransport{resp: &Response{StatusCode: http.StatusServiceUnavailable}}
	br := NewBreakerTransport(next, "test", nil)

	for i := 0; i < 5; i++ {
		resp, err := br.Get(context.Background(), "http://example.invalid")
		if err != nil {
			t.Fatalf("call %d: Get() unexpected error = %v", i, err)
		}
		if resp.StatusCode != http.StatusServiceUnavailable {
			t.Fatalf("call %d: StatusCode = %d", i, resp.StatusCode)
		}
	}

	if _, err := br.Get(context.Background(), "http://example.invalid"); !errors.Is(err, errCircuitOpen) {
		t.Fatalf("Get() error = %v, want errCircuitOpen", err)
	}
}

func TestBreakerTransport_IgnoresCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	next := &countingTransport{err: context.Canceled}
	br := NewBreakerTransport(next, "test", nil)

	for i := 0; i < 10; i++ {
		_, err := br.Get(ctx, "http://example.invalid")
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("call %d: Get() error = %v, want context.Canceled", i, err)
		}
	}
	if next.calls != 10 {
		t.Errorf("next called %d times, want 10 (breaker must stay closed)", next.calls)
	}
}

func TestRateLimitedTransport_WaitHonoursContext(t *testing.T) {
	next := &countingTransport{resp: &Response{StatusCode: http.StatusOK}}
	rl := NewRateLimitedTransport(next, 0.001, 1)

	if _, err := rl.Get(context.Background(), "http://example.invalid"); err != nil {
		t.Fatalf("first Get() unexpected error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := rl.Get(ctx, "http://example.invalid"); !errors.Is(err, context.Canceled) {
		t.Fatalf("Get() error = %v, want context.Canceled", err)
	}
	if next.calls != 1 {
		t.Errorf("next called %d times, want 1", next.calls)
	}
}
