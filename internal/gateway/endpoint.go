package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"
)

// Endpoint is one broadcast candidate.
type Endpoint interface {
	Name() string
	Send(ctx context.Context, env Envelope) error
}

// StatusError reports a non-2xx answer from an HTTP gateway.
type StatusError struct {
	Endpoint string
	Status   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gateway %s responded with status %d", e.Endpoint, e.Status)
}

// HTTPEndpoint posts envelopes as JSON to a gateway URL.
type HTTPEndpoint struct {
	url    string
	client *fasthttp.Client
}

// NewHTTPEndpoint builds an endpoint sharing the given client. A nil client
// gets a default one.
func NewHTTPEndpoint(url string, client *fasthttp.Client) *HTTPEndpoint {
	if client == nil {
		client = NewHTTPClient(nil)
	}
	return &HTTPEndpoint{url: url, client: client}
}

// NewHTTPClient returns the client used for gateway posts. dial may be nil.
func NewHTTPClient(dial fasthttp.DialFunc) *fasthttp.Client {
	return &fasthttp.Client{
		Name:                     "liveassist",
		Dial:                     dial,
		MaxConnsPerHost:          64,
		MaxIdleConnDuration:      30 * time.Second,
		NoDefaultUserAgentHeader: true,
	}
}

func (e *HTTPEndpoint) Name() string { return e.url }

func (e *HTTPEndpoint) Send(ctx context.Context, env Envelope) error {
	body, err := env.Encode()
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(5 * time.Second)
	}

	// fasthttp does not watch the context; the goroutine owns req/resp and
	// releases them once DoDeadline returns.
	done := make(chan error, 1)
	go func() {
		req := fasthttp.AcquireRequest()
		resp := fasthttp.AcquireResponse()
		defer fasthttp.ReleaseRequest(req)
		defer fasthttp.ReleaseResponse(resp)

		req.SetRequestURI(e.url)
		req.Header.SetMethod(fasthttp.MethodPost)
		req.Header.SetContentType("application/json")
		req.SetBodyRaw(body)

		if err := e.client.DoDeadline(req, resp, deadline); err != nil {
			done <- err
			return
		}
		if status := resp.StatusCode(); status < 200 || status > 299 {
			done <- &StatusError{Endpoint: e.url, Status: status}
			return
		}
		done <- nil
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
