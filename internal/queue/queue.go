// Package queue consumes selection requests from RabbitMQ and publishes run status updates.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/streadway/amqp"
)

// DefaultQueue is the durable queue carrying selection requests
const DefaultQueue = "selection_requests"

// UpdatesExchange is the topic exchange status updates are published to.
// Routing keys are "selection.<run_id>".
const UpdatesExchange = "selection_updates"

// Run statuses published on UpdatesExchange
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

var validate = validator.New()

// Request is the message body of a selection request
type Request struct {
	RunID string `json:"run_id" validate:"required,max=128"`
}

// Update is a status change for one run
type Update struct {
	RunID     string    `json:"run_id"`
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// DecodeRequest parses and validates a request body
func DecodeRequest(body []byte) (Request, error) {
	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		return req, fmt.Errorf("failed to decode request: %w", err)
	}
	if err := validate.Struct(req); err != nil {
		return req, fmt.Errorf("invalid request: %w", err)
	}
	return req, nil
}

// PermanentError marks a failure that retrying cannot fix
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return e.Err.Error()
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// Permanent wraps err so the consumer drops the message instead of retrying it
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err was marked with Permanent
func IsPermanent(err error) bool {
	var p *PermanentError
	return errors.As(err, &p)
}

// retry runs fn up to attempts times with linear backoff, stopping early on
// success, a permanent error or a cancelled context
func retry(ctx context.Context, attempts int, backoff time.Duration, fn func() error) error {
	var lastErr error
	for i := 0; i < attempts; i++ {
		lastErr = fn()
		if lastErr == nil || IsPermanent(lastErr) {
			return lastErr
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff * time.Duration(i+1)):
		}
	}
	return fmt.Errorf("after %d attempts: %w", attempts, lastErr)
}

// Publisher publishes run status updates
type Publisher interface {
	Publish(ctx context.Context, update Update) error
}

// ChannelPublisher publishes updates on an AMQP channel
type ChannelPublisher struct {
	ch *amqp.Channel
}

// NewChannelPublisher declares UpdatesExchange on ch and returns a publisher for it
func NewChannelPublisher(ch *amqp.Channel) (*ChannelPublisher, error) {
	err := ch.ExchangeDeclare(
		UpdatesExchange, // name
		"topic",         // kind
		true,            // durable
		false,           // auto-delete
		false,           // internal
		false,           // no-wait
		nil,             // arguments
	)
	if err != nil {
		return nil, fmt.Errorf("failed to declare exchange %s: %w", UpdatesExchange, err)
	}
	return &ChannelPublisher{ch: ch}, nil
}

// Publish sends update with routing key selection.<run_id>
func (p *ChannelPublisher) Publish(_ context.Context, update Update) error {
	body, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("failed to marshal update: %w", err)
	}
	return p.ch.Publish(
		UpdatesExchange,
		"selection."+update.RunID,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Timestamp:   update.Timestamp,
			Body:        body,
		},
	)
}

// Enqueue publishes a selection request for runID on queueName
func Enqueue(amqpURL, queueName, runID string) error {
	body, err := json.Marshal(Request{RunID: runID})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return fmt.Errorf("failed to dial rabbitmq: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if _, err := declareQueue(ch, queueName); err != nil {
		return err
	}

	return ch.Publish(
		"",        // default exchange
		queueName, // routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

func declareQueue(ch *amqp.Channel, name string) (amqp.Queue, error) {
	q, err := ch.QueueDeclare(
		name,  // queue name
		true,  // durable (survives broker restarts)
		false, // auto-delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return q, fmt.Errorf("failed to declare queue %s: %w", name, err)
	}
	return q, nil
}
