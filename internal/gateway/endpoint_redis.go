package gateway

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisEndpoint publishes the message on the envelope channel. The gateway
// subscribes to the same channels and fans messages out to its sockets.
type RedisEndpoint struct {
	name   string
	client redis.UniversalClient
}

func NewRedisEndpoint(name string, client redis.UniversalClient) *RedisEndpoint {
	return &RedisEndpoint{name: name, client: client}
}

func (e *RedisEndpoint) Name() string { return e.name }

func (e *RedisEndpoint) Send(ctx context.Context, env Envelope) error {
	if e.client == nil {
		return fmt.Errorf("redis endpoint %s: client not configured", e.name)
	}
	body, err := env.encodeMessage()
	if err != nil {
		return err
	}
	return e.client.Publish(ctx, env.Channel, body).Err()
}

// Close releases the endpoint's own client.
func (e *RedisEndpoint) Close() error {
	if e.client == nil {
		return nil
	}
	return e.client.Close()
}
