package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	defaultMaxRetries   = 3
	defaultRetryBackoff = 100 * time.Millisecond
)

// Handler is a function that processes a Kafka event.
type Handler func(ctx context.Context, event *Event) error

// MessageReader is the subset of *kafka.Reader the consumer uses.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// DeadLetterPublisher receives messages whose handler gave up.
type DeadLetterPublisher interface {
	Publish(ctx context.Context, msg kafka.Message, lastErr error, consumerGroup string) error
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying. The consumer dead-letters the
// message on the first failure.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// ConsumerConfig holds Kafka consumer configuration.
type ConsumerConfig struct {
	Brokers      []string
	GroupID      string
	Topic        string
	MinBytes     int
	MaxBytes     int
	MaxRetries   int
	RetryBackoff time.Duration
}

func (c *ConsumerConfig) applyDefaults() {
	if c.MaxRetries <= 0 {
		c.MaxRetries = defaultMaxRetries
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = defaultRetryBackoff
	}
}

// ConsumerOption customises a Consumer.
type ConsumerOption func(*Consumer)

// WithDeadLetter routes exhausted and permanently failed messages to dlq
// before they are committed.
func WithDeadLetter(dlq DeadLetterPublisher) ConsumerOption {
	return func(c *Consumer) { c.dlq = dlq }
}

// Consumer reads one topic in a consumer group and hands each event to a Handler.
type Consumer struct {
	reader    MessageReader
	cfg       ConsumerConfig
	logger    *slog.Logger
	handler   Handler
	dlq       DeadLetterPublisher
	closeOnce sync.Once
}

// NewConsumer creates a consumer backed by a kafka-go reader.
func NewConsumer(cfg ConsumerConfig, handler Handler, logger *slog.Logger, opts ...ConsumerOption) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.GroupID,
		Topic:    cfg.Topic,
		MinBytes: cfg.MinBytes,
		MaxBytes: cfg.MaxBytes,
	})
	return NewConsumerWithReader(r, cfg, handler, logger, opts...)
}

// NewConsumerWithReader creates a consumer around an existing reader.
func NewConsumerWithReader(r MessageReader, cfg ConsumerConfig, handler Handler, logger *slog.Logger, opts ...ConsumerOption) *Consumer {
	cfg.applyDefaults()
	c := &Consumer{
		reader:  r,
		cfg:     cfg,
		logger:  logger,
		handler: handler,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start consumes messages until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("consumer started",
		slog.String("topic", c.cfg.Topic),
		slog.String("group", c.cfg.GroupID),
		slog.Bool("dlq", c.dlq != nil),
	)

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("consumer stopping", slog.String("topic", c.cfg.Topic))
				return c.Close()
			}
			c.logger.Error("failed to fetch message", slog.String("error", err.Error()))
			if !sleep(ctx, c.cfg.RetryBackoff) {
				return c.Close()
			}
			continue
		}

		countConsumed(msg.Topic, c.cfg.GroupID, OutcomeReceived)
		if !c.process(ctx, msg) {
			return c.Close()
		}
	}
}

// process handles one message and commits it. It returns false when ctx was
// cancelled mid-retry and the message was left uncommitted.
func (c *Consumer) process(ctx context.Context, msg kafka.Message) bool {
	event, err := UnmarshalEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to unmarshal event",
			slog.String("error", err.Error()),
			slog.String("topic", msg.Topic),
			slog.Int64("offset", msg.Offset),
		)
		c.giveUp(ctx, msg, nil, err)
		return true
	}

	handlerCtx := extractTrace(ctx, msg.Headers)
	start := time.Now()

	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxRetries; attempt++ {
		lastErr = c.handler(handlerCtx, event)
		if lastErr == nil || IsPermanent(lastErr) {
			break
		}
		c.logger.Warn("handler failed",
			slog.String("event_type", event.EventType),
			slog.String("aggregate_id", event.AggregateID),
			slog.String("error", lastErr.Error()),
			slog.String("topic", msg.Topic),
			slog.Int64("offset", msg.Offset),
			slog.Int("attempt", attempt),
			slog.Int("max_retries", c.cfg.MaxRetries),
		)
		if attempt == c.cfg.MaxRetries {
			break
		}
		countConsumed(msg.Topic, c.cfg.GroupID, OutcomeRetried)
		if !sleep(ctx, time.Duration(attempt)*c.cfg.RetryBackoff) {
			return false
		}
	}
	consumerHandleSeconds.WithLabelValues(msg.Topic, c.cfg.GroupID).Observe(time.Since(start).Seconds())

	if lastErr != nil {
		c.giveUp(ctx, msg, event, lastErr)
		return true
	}

	countConsumed(msg.Topic, c.cfg.GroupID, OutcomeProcessed)
	c.commit(ctx, msg)
	return true
}

// giveUp dead-letters msg when a DLQ is configured and commits it either way
// so the partition keeps moving.
func (c *Consumer) giveUp(ctx context.Context, msg kafka.Message, event *Event, lastErr error) {
	countConsumed(msg.Topic, c.cfg.GroupID, OutcomeGaveUp)

	attrs := []any{
		slog.String("error", lastErr.Error()),
		slog.String("topic", msg.Topic),
		slog.Int("partition", msg.Partition),
		slog.Int64("offset", msg.Offset),
		slog.Bool("permanent", IsPermanent(lastErr)),
	}
	if event != nil {
		attrs = append(attrs,
			slog.String("event_type", event.EventType),
			slog.String("aggregate_id", event.AggregateID),
		)
	}

	if c.dlq != nil {
		if err := c.dlq.Publish(ctx, msg, lastErr, c.cfg.GroupID); err != nil {
			c.logger.Error("dead-letter publish failed, dropping message",
				append(attrs, slog.String("dlq_error", err.Error()))...)
		} else {
			countConsumed(msg.Topic, c.cfg.GroupID, OutcomeDeadLettered)
			c.logger.Error("handler gave up, message dead-lettered", attrs...)
		}
	} else {
		c.logger.Error("handler gave up, skipping poison message", attrs...)
	}

	c.commit(ctx, msg)
}

func (c *Consumer) commit(ctx context.Context, msg kafka.Message) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.logger.Error("failed to commit message",
			slog.String("topic", msg.Topic),
			slog.Int64("offset", msg.Offset),
			slog.String("error", err.Error()),
		)
	}
}

// Close closes the consumer. It is safe to call multiple times.
func (c *Consumer) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.reader.Close()
	})
	return err
}

// sleep waits for d and reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// TopicPrefix prefixes every topic this service produces.
const TopicPrefix = "gogo"

// Topic constructs a fully-qualified topic name.
func Topic(domain, action string) string {
	return fmt.Sprintf("%s.%s.%s", TopicPrefix, domain, action)
}
