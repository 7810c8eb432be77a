package kafka

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eventMessage(t *testing.T, eventType string) kafka.Message {
	t.Helper()
	event, err := NewEvent(eventType, "r-1", "review", "gogo-api", map[string]string{"review_id": "r-1"})
	require.NoError(t, err)
	raw, err := event.Marshal()
	require.NoError(t, err)
	return kafka.Message{Topic: "gogo.review.reconcile", Value: raw}
}

func testConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		GroupID:      "gogo-reconciler",
		Topic:        "gogo.review.reconcile",
		MaxRetries:   3,
		RetryBackoff: time.Millisecond,
	}
}

func TestPermanent(t *testing.T) {
	base := errors.New("tour deleted")
	err := Permanent(base)

	assert.True(t, IsPermanent(err))
	assert.True(t, IsPermanent(errors.Join(errors.New("ctx"), err)))
	assert.ErrorIs(t, err, base)
	assert.False(t, IsPermanent(base))
	assert.Nil(t, Permanent(nil))
}

func TestConsumer_ProcessSuccessCommits(t *testing.T) {
	r := &fakeReader{}
	var calls int32
	c := NewConsumerWithReader(r, testConsumerConfig(), func(context.Context, *Event) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}, testLogger())

	assert.True(t, c.process(context.Background(), eventMessage(t, "review.reconcile")))
	assert.EqualValues(t, 1, calls)
	assert.Equal(t, 1, r.commits())
}

func TestConsumer_RetriesThenDeadLetters(t *testing.T) {
	r := &fakeReader{}
	dlq := &recordingDLQ{}
	var calls int32
	c := NewConsumerWithReader(r, testConsumerConfig(), func(context.Context, *Event) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("db timeout")
	}, testLogger(), WithDeadLetter(dlq))

	assert.True(t, c.process(context.Background(), eventMessage(t, "review.reconcile")))
	assert.EqualValues(t, 3, calls)
	require.Len(t, dlq.msgs, 1)
	assert.EqualError(t, dlq.lastErr, "db timeout")
	assert.Equal(t, 1, r.commits())
}

func TestConsumer_PermanentErrorSkipsRetries(t *testing.T) {
	r := &fakeReader{}
	dlq := &recordingDLQ{}
	var calls int32
	c := NewConsumerWithReader(r, testConsumerConfig(), func(context.Context, *Event) error {
		atomic.AddInt32(&calls, 1)
		return Permanent(errors.New("tour missing"))
	}, testLogger(), WithDeadLetter(dlq))

	c.process(context.Background(), eventMessage(t, "review.reconcile"))
	assert.EqualValues(t, 1, calls)
	require.Len(t, dlq.msgs, 1)
	assert.True(t, IsPermanent(dlq.lastErr))
}

func TestConsumer_UndecodableMessageDeadLettered(t *testing.T) {
	r := &fakeReader{}
	dlq := &recordingDLQ{}
	c := NewConsumerWithReader(r, testConsumerConfig(), func(context.Context, *Event) error {
		t.Fatal("handler must not run for garbage payloads")
		return nil
	}, testLogger(), WithDeadLetter(dlq))

	c.process(context.Background(), kafka.Message{Topic: "gogo.review.reconcile", Value: []byte("{")})
	assert.Len(t, dlq.msgs, 1)
	assert.Equal(t, 1, r.commits())
}

func TestConsumer_DLQFailureStillCommits(t *testing.T) {
	r := &fakeReader{}
	c := NewConsumerWithReader(r, testConsumerConfig(), func(context.Context, *Event) error {
		return Permanent(errors.New("bad"))
	}, testLogger(), WithDeadLetter(&recordingDLQ{fail: true}))

	c.process(context.Background(), eventMessage(t, "review.reconcile"))
	assert.Equal(t, 1, r.commits())
}

func TestConsumer_CancelDuringRetryLeavesUncommitted(t *testing.T) {
	r := &fakeReader{}
	cfg := testConsumerConfig()
	cfg.RetryBackoff = time.Hour
	ctx, cancel := context.WithCancel(context.Background())

	c := NewConsumerWithReader(r, cfg, func(context.Context, *Event) error {
		cancel()
		return errors.New("transient")
	}, testLogger())

	assert.False(t, c.process(ctx, eventMessage(t, "review.reconcile")))
	assert.Equal(t, 0, r.commits())
}

func TestConsumer_StartDrainsAndStops(t *testing.T) {
	r := &fakeReader{queue: []kafka.Message{
		eventMessage(t, "review.reconcile"),
		eventMessage(t, "review.reconcile"),
	}}
	var calls int32
	c := NewConsumerWithReader(r, testConsumerConfig(), func(context.Context, *Event) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx) }()

	require.Eventually(t, func() bool { return r.commits() == 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}
	assert.EqualValues(t, 2, calls)
	assert.True(t, r.closed)
}
