package worker

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// HandlerFunc processes one delivery. A non-nil error sends the delivery
// through the retry queue; after the attempt budget it is parked in the DLQ.
type HandlerFunc func(ctx context.Context, routingKey string, body []byte) error

// Config describes one consumer's queue topology and retry policy.
type Config struct {
	URL         string
	Exchange    string
	DLXExchange string
	Queue       string
	Bindings    []string
	Prefetch    int
	MaxAttempts int
	RetryTTL    time.Duration
}

// Consumer owns a durable queue bound to the topic exchange, plus the
// retry/dead-letter plumbing around it:
//
//	<queue>        rejected deliveries dead-letter to <queue>.retry
//	<queue>.retry  holds them for RetryTTL, then dead-letters back to <queue>
//	<queue>.dlq    parks deliveries that exhausted MaxAttempts
type Consumer struct {
	cfg     Config
	handler HandlerFunc
	log     *zap.SugaredLogger

	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewConsumer(cfg Config, handler HandlerFunc, log *zap.SugaredLogger) *Consumer {
	return &Consumer{cfg: cfg, handler: handler, log: log}
}

func (c *Consumer) retryQueue() string { return c.cfg.Queue + ".retry" }
func (c *Consumer) deadQueue() string  { return c.cfg.Queue + ".dlq" }

func (c *Consumer) connect() (<-chan amqp.Delivery, error) {
	conn, err := amqp.Dial(c.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := c.declareTopology(ch); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	if err := ch.Qos(c.cfg.Prefetch, 0, false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("set prefetch: %w", err)
	}

	deliveries, err := ch.Consume(c.cfg.Queue, "", false, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("consume %s: %w", c.cfg.Queue, err)
	}

	c.conn = conn
	c.ch = ch
	return deliveries, nil
}

func (c *Consumer) declareTopology(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(c.cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	if err := ch.ExchangeDeclare(c.cfg.DLXExchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare dlx exchange: %w", err)
	}

	// Rejected deliveries route through the default exchange straight into
	// the retry queue, wait out the TTL, then route back by queue name.
	if _, err := ch.QueueDeclare(c.cfg.Queue, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": c.retryQueue(),
	}); err != nil {
		return fmt.Errorf("declare queue %s: %w", c.cfg.Queue, err)
	}
	if _, err := ch.QueueDeclare(c.retryQueue(), true, false, false, false, amqp.Table{
		"x-message-ttl":             c.cfg.RetryTTL.Milliseconds(),
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": c.cfg.Queue,
	}); err != nil {
		return fmt.Errorf("declare queue %s: %w", c.retryQueue(), err)
	}
	if _, err := ch.QueueDeclare(c.deadQueue(), true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", c.deadQueue(), err)
	}
	if err := ch.QueueBind(c.deadQueue(), "#", c.cfg.DLXExchange, false, nil); err != nil {
		return fmt.Errorf("bind dlq: %w", err)
	}

	for _, key := range c.cfg.Bindings {
		if err := ch.QueueBind(c.cfg.Queue, key, c.cfg.Exchange, false, nil); err != nil {
			return fmt.Errorf("bind %s to %s: %w", c.cfg.Queue, key, err)
		}
	}
	return nil
}

// Run consumes until ctx is cancelled, reconnecting with backoff when the
// broker connection drops.
func (c *Consumer) Run(ctx context.Context) {
	backoff := time.Second
	for {
		deliveries, err := c.connect()
		if err != nil {
			c.log.Errorw("consumer connect failed", "queue", c.cfg.Queue, "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second
		c.log.Infow("consumer started", "queue", c.cfg.Queue, "bindings", c.cfg.Bindings)

		if done := c.consume(ctx, deliveries); done {
			c.close()
			return
		}
		// Channel closed underneath us; loop around and reconnect.
		c.close()
		c.log.Warnw("consumer channel closed, reconnecting", "queue", c.cfg.Queue)
	}
}

// consume returns true when ctx ended, false when the delivery channel closed.
func (c *Consumer) consume(ctx context.Context, deliveries <-chan amqp.Delivery) bool {
	for {
		select {
		case <-ctx.Done():
			return true
		case d, ok := <-deliveries:
			if !ok {
				return false
			}
			c.handle(ctx, d)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) {
	attempts := DeathCount(d.Headers, c.cfg.Queue)
	if attempts >= int64(c.cfg.MaxAttempts) {
		c.park(ctx, d)
		return
	}

	if err := c.handler(ctx, d.RoutingKey, d.Body); err != nil {
		c.log.Warnw("delivery failed, scheduling retry",
			"queue", c.cfg.Queue,
			"routing_key", d.RoutingKey,
			"attempt", attempts+1,
			"error", err,
		)
		if err := d.Nack(false, false); err != nil {
			c.log.Errorw("nack failed", "queue", c.cfg.Queue, "error", err)
		}
		return
	}

	if err := d.Ack(false); err != nil {
		c.log.Errorw("ack failed", "queue", c.cfg.Queue, "error", err)
	}
}

// park moves an exhausted delivery to the DLQ and acknowledges the original.
func (c *Consumer) park(ctx context.Context, d amqp.Delivery) {
	c.log.Errorw("delivery exhausted retry budget, parking in dlq",
		"queue", c.cfg.Queue,
		"routing_key", d.RoutingKey,
		"max_attempts", c.cfg.MaxAttempts,
	)
	err := c.ch.PublishWithContext(ctx, c.cfg.DLXExchange, d.RoutingKey, false, false, amqp.Publishing{
		ContentType:  d.ContentType,
		DeliveryMode: amqp.Persistent,
		Headers:      d.Headers,
		Body:         d.Body,
	})
	if err != nil {
		// Leave the delivery to be redelivered rather than lose it.
		c.log.Errorw("failed to publish to dlq", "queue", c.cfg.Queue, "error", err)
		if err := d.Nack(false, true); err != nil {
			c.log.Errorw("nack failed", "queue", c.cfg.Queue, "error", err)
		}
		return
	}
	if err := d.Ack(false); err != nil {
		c.log.Errorw("ack failed", "queue", c.cfg.Queue, "error", err)
	}
}

func (c *Consumer) close() {
	if c.ch != nil {
		_ = c.ch.Close()
		c.ch = nil
	}
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}

// DeathCount reads how many times the broker has dead-lettered this delivery
// out of the given queue, which is the number of failed processing attempts.
func DeathCount(headers amqp.Table, queue string) int64 {
	deaths, ok := headers["x-death"].([]interface{})
	if !ok {
		return 0
	}
	var count int64
	for _, entry := range deaths {
		death, ok := entry.(amqp.Table)
		if !ok {
			continue
		}
		if q, _ := death["queue"].(string); q != queue {
			continue
		}
		switch n := death["count"].(type) {
		case int64:
			count += n
		case int32:
			count += int64(n)
		case int:
			count += int64(n)
		}
	}
	return count
}
