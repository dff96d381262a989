package gateway

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/valyala/fasthttp"
)

// Resolver yields the ordered gateway candidates for one delivery.
type Resolver interface {
	Endpoints(ctx context.Context) []Endpoint
}

// StaticResolver returns a fixed candidate list.
type StaticResolver []Endpoint

func (r StaticResolver) Endpoints(context.Context) []Endpoint {
	return r
}

// Close closes every endpoint that holds a connection.
func (r StaticResolver) Close() error {
	var firstErr error
	for _, ep := range r {
		c, ok := ep.(io.Closer)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ParseEndpoints builds candidates from URLs, keeping their order. http(s)
// URLs share httpClient, redis(s) URLs get their own client and amqp(s) URLs
// dial lazily.
func ParseEndpoints(raw []string, httpClient *fasthttp.Client) (StaticResolver, error) {
	if httpClient == nil {
		httpClient = NewHTTPClient(nil)
	}
	endpoints := make(StaticResolver, 0, len(raw))
	for _, candidate := range raw {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		u, err := url.Parse(candidate)
		if err != nil {
			return nil, fmt.Errorf("parse gateway endpoint %q: %w", candidate, err)
		}

		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			endpoints = append(endpoints, NewHTTPEndpoint(candidate, httpClient))
		case "redis", "rediss":
			opts, err := redis.ParseURL(candidate)
			if err != nil {
				return nil, fmt.Errorf("parse redis gateway endpoint: %w", err)
			}
			name := *u
			name.User = nil
			endpoints = append(endpoints, NewRedisEndpoint(name.String(), redis.NewClient(opts)))
		case "amqp", "amqps":
			ep, err := NewAMQPEndpoint(candidate)
			if err != nil {
				return nil, err
			}
			endpoints = append(endpoints, ep)
		default:
			return nil, fmt.Errorf("unsupported gateway endpoint scheme %q", u.Scheme)
		}
	}
	return endpoints, nil
}
