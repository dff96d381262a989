package gateway

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const defaultExchange = "liveassist.broadcast"

// AMQPEndpoint publishes the message to an exchange using the channel as
// routing key. The connection is opened on first use and reopened after it
// closes.
type AMQPEndpoint struct {
	name     string
	dialURL  string
	exchange string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewAMQPEndpoint parses an amqp:// or amqps:// candidate. The optional
// "exchange" query parameter names the topic exchange and is stripped before
// dialing.
func NewAMQPEndpoint(raw string) (*AMQPEndpoint, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse amqp endpoint: %w", err)
	}
	q := u.Query()
	exchange := q.Get("exchange")
	if exchange == "" {
		exchange = defaultExchange
	}
	q.Del("exchange")
	u.RawQuery = q.Encode()

	name := *u
	name.User = nil
	return &AMQPEndpoint{
		name:     name.String() + "#" + exchange,
		dialURL:  u.String(),
		exchange: exchange,
	}, nil
}

func (e *AMQPEndpoint) Name() string { return e.name }

func (e *AMQPEndpoint) Send(ctx context.Context, env Envelope) error {
	body, err := env.encodeMessage()
	if err != nil {
		return err
	}
	ch, err := e.channel()
	if err != nil {
		return err
	}
	err = ch.PublishWithContext(
		ctx,
		e.exchange,
		env.Channel,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Transient,
			Timestamp:    time.Now(),
			Type:         env.EventType(),
			Body:         body,
		},
	)
	if err != nil {
		e.reset()
		return fmt.Errorf("amqp publish: %w", err)
	}
	return nil
}

func (e *AMQPEndpoint) channel() (*amqp.Channel, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ch != nil && !e.ch.IsClosed() && e.conn != nil && !e.conn.IsClosed() {
		return e.ch, nil
	}
	e.closeLocked()

	conn, err := amqp.DialConfig(e.dialURL, amqp.Config{
		Heartbeat: 10 * time.Second,
		Dial:      amqp.DefaultDial(5 * time.Second),
	})
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if err := ch.ExchangeDeclare(e.exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("amqp exchange declare: %w", err)
	}
	e.conn, e.ch = conn, ch
	return ch, nil
}

func (e *AMQPEndpoint) reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closeLocked()
}

func (e *AMQPEndpoint) closeLocked() {
	if e.ch != nil {
		_ = e.ch.Close()
		e.ch = nil
	}
	if e.conn != nil {
		_ = e.conn.Close()
		e.conn = nil
	}
}

// Close shuts the connection down.
func (e *AMQPEndpoint) Close() error {
	e.reset()
	return nil
}
