package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAck struct {
	mu      sync.Mutex
	acked   []uint64
	nacked  []uint64
	requeue []bool
}

func (f *fakeAck) Ack(tag uint64, _ bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acked = append(f.acked, tag)
	return nil
}

func (f *fakeAck) Nack(tag uint64, _ bool, requeue bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nacked = append(f.nacked, tag)
	f.requeue = append(f.requeue, requeue)
	return nil
}

func (f *fakeAck) Reject(tag uint64, requeue bool) error {
	return f.Nack(tag, false, requeue)
}

type fakePublisher struct {
	mu      sync.Mutex
	updates []Update
}

func (p *fakePublisher) Publish(_ context.Context, u Update) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updates = append(p.updates, u)
	return nil
}

func (p *fakePublisher) statuses() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.updates))
	for _, u := range p.updates {
		out = append(out, u.Status)
	}
	return out
}

func delivery(ack amqp.Acknowledger, tag uint64, body string) amqp.Delivery {
	return amqp.Delivery{Acknowledger: ack, DeliveryTag: tag, Body: []byte(body)}
}

func newTestConsumer(handler Handler) (*Consumer, *fakePublisher) {
	c := NewConsumer(ConsumerConfig{Attempts: 3, Backoff: time.Millisecond}, handler)
	pub := &fakePublisher{}
	c.publisher = pub
	return c, pub
}

func TestDecodeRequest(t *testing.T) {
	req, err := DecodeRequest([]byte(`{"run_id": "run_1"}`))
	require.NoError(t, err)
	assert.Equal(t, "run_1", req.RunID)

	_, err = DecodeRequest([]byte(`{"run_id": ""}`))
	assert.Error(t, err)

	_, err = DecodeRequest([]byte(`not json`))
	assert.Error(t, err)
}

func TestHandleDelivery_Success(t *testing.T) {
	var got string
	c, pub := newTestConsumer(func(_ context.Context, req Request) error {
		got = req.RunID
		return nil
	})
	ack := &fakeAck{}

	c.handleDelivery(context.Background(), delivery(ack, 7, `{"run_id":"run_1"}`))

	assert.Equal(t, "run_1", got)
	assert.Equal(t, []uint64{7}, ack.acked)
	assert.Empty(t, ack.nacked)
	assert.Equal(t, []string{StatusProcessing, StatusCompleted}, pub.statuses())
}

func TestHandleDelivery_Malformed(t *testing.T) {
	called := false
	c, pub := newTestConsumer(func(context.Context, Request) error {
		called = true
		return nil
	})
	ack := &fakeAck{}

	c.handleDelivery(context.Background(), delivery(ack, 1, `{}`))

	assert.False(t, called)
	assert.Equal(t, []uint64{1}, ack.nacked)
	assert.Equal(t, []bool{false}, ack.requeue)
	assert.Empty(t, pub.statuses())
}

func TestHandleDelivery_TransientThenSuccess(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestConsumer(func(context.Context, Request) error {
		if calls.Add(1) < 3 {
			return errors.New("connection reset")
		}
		return nil
	})
	ack := &fakeAck{}

	c.handleDelivery(context.Background(), delivery(ack, 1, `{"run_id":"run_1"}`))

	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, []uint64{1}, ack.acked)
}

func TestHandleDelivery_PermanentNotRetried(t *testing.T) {
	var calls atomic.Int32
	c, pub := newTestConsumer(func(context.Context, Request) error {
		calls.Add(1)
		return Permanent(errors.New("rubric missing"))
	})
	ack := &fakeAck{}

	c.handleDelivery(context.Background(), delivery(ack, 1, `{"run_id":"run_1"}`))

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, []uint64{1}, ack.nacked)
	assert.Equal(t, []bool{false}, ack.requeue)
	assert.Equal(t, []string{StatusProcessing, StatusFailed}, pub.statuses())
}

func TestHandleDelivery_RetriesExhausted(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestConsumer(func(context.Context, Request) error {
		calls.Add(1)
		return errors.New("database unavailable")
	})
	ack := &fakeAck{}

	c.handleDelivery(context.Background(), delivery(ack, 1, `{"run_id":"run_1"}`))

	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, []uint64{1}, ack.nacked)
}

func TestHandleDelivery_CancelledRunIsRequeued(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c, pub := newTestConsumer(func(context.Context, Request) error {
		cancel()
		return errors.New("connection reset")
	})
	ack := &fakeAck{}

	c.handleDelivery(ctx, delivery(ack, 1, `{"run_id":"run_1"}`))

	assert.Equal(t, []uint64{1}, ack.nacked)
	assert.Equal(t, []bool{true}, ack.requeue)
	assert.Empty(t, ack.acked)
	assert.Equal(t, []string{StatusProcessing}, pub.statuses())
}

func TestHandleDelivery_PermanentFailureDuringShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c, pub := newTestConsumer(func(context.Context, Request) error {
		cancel()
		return Permanent(errors.New("rubric missing"))
	})
	ack := &fakeAck{}

	c.handleDelivery(ctx, delivery(ack, 1, `{"run_id":"run_1"}`))

	assert.Equal(t, []bool{false}, ack.requeue)
	assert.Equal(t, []string{StatusProcessing, StatusFailed}, pub.statuses())
}

func TestCancelOnDone(t *testing.T) {
	t.Run("context cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		called := make(chan struct{})
		go cancelOnDone(ctx, make(chan struct{}), func() { close(called) })

		cancel()
		select {
		case <-called:
		case <-time.After(time.Second):
			t.Fatal("cancel was not called after the context ended")
		}
	})

	t.Run("consumer finished first", func(t *testing.T) {
		done := make(chan struct{})
		exited := make(chan struct{})
		var called atomic.Bool
		go func() {
			cancelOnDone(context.Background(), done, func() { called.Store(true) })
			close(exited)
		}()

		close(done)
		select {
		case <-exited:
		case <-time.After(time.Second):
			t.Fatal("goroutine outlived the consumer")
		}
		assert.False(t, called.Load())
	})
}

func TestConsume_BoundedConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32
	c := NewConsumer(ConsumerConfig{Concurrency: 2}, func(context.Context, Request) error {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		inFlight.Add(-1)
		return nil
	})

	ack := &fakeAck{}
	msgs := make(chan amqp.Delivery, 8)
	for i := 0; i < 8; i++ {
		msgs <- delivery(ack, uint64(i+1), fmt.Sprintf(`{"run_id":"run_%d"}`, i))
	}
	close(msgs)

	require.NoError(t, c.consume(context.Background(), msgs))
	assert.Len(t, ack.acked, 8)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := retry(ctx, 5, time.Hour, func() error {
		calls++
		cancel()
		return errors.New("transient")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestPermanent(t *testing.T) {
	assert.Nil(t, Permanent(nil))

	base := errors.New("bad input")
	err := fmt.Errorf("run_1: %w", Permanent(base))
	assert.True(t, IsPermanent(err))
	assert.ErrorIs(t, err, base)
	assert.False(t, IsPermanent(base))
}

func TestNewConsumer_Defaults(t *testing.T) {
	c := NewConsumer(ConsumerConfig{}, nil)
	assert.Equal(t, DefaultQueue, c.cfg.Queue)
	assert.Equal(t, 1, c.cfg.Concurrency)
	assert.Equal(t, 3, c.cfg.Attempts)
}
