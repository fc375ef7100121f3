package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Publisher writes persistent messages to the durable topic exchange.
// A lost connection is re-dialed with capped backoff on the next publish;
// callers that fail in the meantime keep their messages (the dispatcher
// reschedules outbox rows instead of dropping them).
type Publisher struct {
	url      string
	exchange string
	log      *zap.SugaredLogger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewPublisher(url, exchange string, log *zap.SugaredLogger) (*Publisher, error) {
	p := &Publisher{url: url, exchange: exchange, log: log}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

// connect must be called with p.mu held.
func (p *Publisher) connect() error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(p.exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("declare exchange: %w", err)
	}
	p.conn = conn
	p.ch = ch
	p.log.Infow("rabbitmq connected", "exchange", p.exchange)
	return nil
}

// reconnect must be called with p.mu held.
func (p *Publisher) reconnect() error {
	p.teardown()

	backoff := time.Second
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		if lastErr = p.connect(); lastErr == nil {
			return nil
		}
		p.log.Warnw("rabbitmq reconnect failed", "attempt", attempt+1, "error", lastErr)
		time.Sleep(backoff)
		if backoff < 8*time.Second {
			backoff *= 2
		}
	}
	return lastErr
}

// teardown must be called with p.mu held.
func (p *Publisher) teardown() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

// Publish sends one persistent JSON message. On a broken channel it
// reconnects and retries once before giving up.
func (p *Publisher) Publish(ctx context.Context, routingKey string, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch == nil || p.conn == nil || p.conn.IsClosed() {
		if err := p.reconnect(); err != nil {
			return err
		}
	}

	err := p.publish(ctx, routingKey, body)
	if err == nil {
		return nil
	}

	if rerr := p.reconnect(); rerr != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	if err := p.publish(ctx, routingKey, body); err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	return nil
}

// publish must be called with p.mu held.
func (p *Publisher) publish(ctx context.Context, routingKey string, body []byte) error {
	return p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
