package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Handler processes one selection request
type Handler func(ctx context.Context, req Request) error

// ConsumerConfig configures a Consumer
type ConsumerConfig struct {
	URL         string
	Queue       string
	Concurrency int
	// Attempts is how many times a transient failure is tried before the message is dropped
	Attempts int
	Backoff  time.Duration
	Logger   *zap.Logger
}

// Consumer reads selection requests and runs them concurrently
type Consumer struct {
	cfg       ConsumerConfig
	handler   Handler
	publisher Publisher
	logger    *zap.Logger
}

// NewConsumer creates a consumer, filling config defaults
func NewConsumer(cfg ConsumerConfig, handler Handler) *Consumer {
	if cfg.Queue == "" {
		cfg.Queue = DefaultQueue
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = 3
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 500 * time.Millisecond
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Consumer{cfg: cfg, handler: handler, logger: logger}
}

// Run consumes until ctx is cancelled or the broker closes the channel.
// In-flight requests finish before Run returns.
func (c *Consumer) Run(ctx context.Context) error {
	conn, err := amqp.Dial(c.cfg.URL)
	if err != nil {
		return fmt.Errorf("failed to dial rabbitmq: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if _, err := declareQueue(ch, c.cfg.Queue); err != nil {
		return err
	}
	if err := ch.Qos(c.cfg.Concurrency, 0, false); err != nil {
		return fmt.Errorf("failed to set prefetch: %w", err)
	}

	pubCh, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open publish channel: %w", err)
	}
	defer pubCh.Close()
	if c.publisher, err = NewChannelPublisher(pubCh); err != nil {
		return err
	}

	const consumerTag = "resume-tailor-worker"
	msgs, err := ch.Consume(
		c.cfg.Queue, // queue name
		consumerTag, // consumer tag
		false,       // auto-ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to consume %s: %w", c.cfg.Queue, err)
	}

	c.logger.Info("worker consuming",
		zap.String("queue", c.cfg.Queue),
		zap.Int("concurrency", c.cfg.Concurrency))

	done := make(chan struct{})
	defer close(done)
	go cancelOnDone(ctx, done, func() { _ = ch.Cancel(consumerTag, false) })

	return c.consume(ctx, msgs)
}

// cancelOnDone calls cancel when ctx ends, and returns without calling it
// once done is closed
func cancelOnDone(ctx context.Context, done <-chan struct{}, cancel func()) {
	select {
	case <-ctx.Done():
		cancel()
	case <-done:
	}
}

// consume dispatches deliveries until msgs closes
func (c *Consumer) consume(ctx context.Context, msgs <-chan amqp.Delivery) error {
	var g errgroup.Group
	g.SetLimit(c.cfg.Concurrency)

	for d := range msgs {
		g.Go(func() error {
			c.handleDelivery(ctx, d)
			return nil
		})
	}
	return g.Wait()
}

// handleDelivery runs one delivery and settles it. Successes are acked; malformed
// bodies, permanent failures and exhausted retries are nacked without requeue.
// Runs interrupted by cancellation are requeued.
func (c *Consumer) handleDelivery(ctx context.Context, d amqp.Delivery) {
	req, err := DecodeRequest(d.Body)
	if err != nil {
		c.logger.Warn("dropping malformed request", zap.Error(err))
		c.settle(d.Nack(false, false))
		return
	}

	logger := c.logger.With(zap.String("run_id", req.RunID))
	logger.Info("processing selection request")
	c.publish(ctx, req.RunID, StatusProcessing, "selection started")

	err = retry(ctx, c.cfg.Attempts, c.cfg.Backoff, func() error {
		return c.handler(ctx, req)
	})
	if err != nil && !IsPermanent(err) && ctx.Err() != nil {
		// Shutdown interrupted the run; another worker picks it up
		logger.Warn("selection request interrupted, requeueing", zap.Error(err))
		c.settle(d.Nack(false, true))
		return
	}
	if err != nil {
		logger.Error("selection request failed", zap.Error(err), zap.Bool("permanent", IsPermanent(err)))
		c.publish(ctx, req.RunID, StatusFailed, err.Error())
		c.settle(d.Nack(false, false))
		return
	}

	c.publish(ctx, req.RunID, StatusCompleted, "selection plan stored")
	c.settle(d.Ack(false))
}

func (c *Consumer) publish(ctx context.Context, runID, status, message string) {
	if c.publisher == nil {
		return
	}
	update := Update{RunID: runID, Status: status, Message: message, Timestamp: time.Now().UTC()}
	if err := c.publisher.Publish(ctx, update); err != nil {
		c.logger.Warn("failed to publish update", zap.String("run_id", runID), zap.Error(err))
	}
}

func (c *Consumer) settle(err error) {
	if err != nil {
		c.logger.Warn("failed to settle delivery", zap.Error(err))
	}
}
