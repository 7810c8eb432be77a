// Package worker runs background consumers that repair review links.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tiendatttt234/GoGo-Be/internal/event"
	"github.com/tiendatttt234/GoGo-Be/internal/service"
	apperrors "github.com/tiendatttt234/GoGo-Be/pkg/errors"
	pkgkafka "github.com/tiendatttt234/GoGo-Be/pkg/kafka"
)

// ErrOperatorRequired marks a reconcile event that is not repaired
// automatically.
var ErrOperatorRequired = errors.New("partially committed delete needs operator attention")

// ReviewReconciler defines the repair operation the consumer drives.
type ReviewReconciler interface {
	Reconcile(ctx context.Context, reviewID string) (*service.ReconcileResult, error)
}

// Reconciler repairs reviews left partially committed by the API.
type Reconciler struct {
	reviews ReviewReconciler
	logger  *slog.Logger
}

// NewReconciler creates a new reconcile event handler.
func NewReconciler(reviews ReviewReconciler, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		reviews: reviews,
		logger:  logger,
	}
}

// HandleReconcile processes review.reconcile events. A failed link is
// relinked, retrying transient errors. A failed delete is dead-lettered
// untouched; an admin finishes it through the admin API.
func (c *Reconciler) HandleReconcile(ctx context.Context, evt *pkgkafka.Event) error {
	var data event.ReconcileData
	if err := evt.UnmarshalData(&data); err != nil {
		return pkgkafka.Permanent(fmt.Errorf("unmarshal review.reconcile data: %w", err))
	}
	if data.ReviewID == "" {
		return pkgkafka.Permanent(errors.New("review.reconcile event without review id"))
	}

	c.logger.InfoContext(ctx, "processing review.reconcile event",
		slog.String("review_id", data.ReviewID),
		slog.String("tour_id", data.TourID),
		slog.String("stage", data.Stage),
	)

	switch data.Stage {
	case event.StageLink:
		res, err := c.reviews.Reconcile(ctx, data.ReviewID)
		if err != nil {
			return classify(fmt.Errorf("reconcile review %s: %w", data.ReviewID, err))
		}
		c.logger.InfoContext(ctx, "review reconciled",
			slog.String("review_id", data.ReviewID),
			slog.String("action", res.Action),
			slog.Int64("tours_updated", res.ToursUpdated),
		)

	case event.StageDelete:
		c.logger.WarnContext(ctx, "partially committed delete sent to dead letter queue",
			slog.String("review_id", data.ReviewID),
			slog.String("reason", data.Reason),
		)
		return pkgkafka.Permanent(fmt.Errorf("review %s: %w", data.ReviewID, ErrOperatorRequired))

	default:
		return pkgkafka.Permanent(fmt.Errorf("unknown reconcile stage %q", data.Stage))
	}

	return nil
}

// classify marks errors that a retry cannot fix.
func classify(err error) error {
	if errors.Is(err, apperrors.ErrNotFound) || errors.Is(err, apperrors.ErrInvalidInput) {
		return pkgkafka.Permanent(err)
	}
	return err
}

// ConsumerConfig configures the reconcile consumer.
type ConsumerConfig struct {
	Brokers    []string
	GroupID    string
	MaxRetries int
}

// NewReconcileConsumer builds a Kafka consumer for review.reconcile events.
// Redelivered events are skipped through store, and events the handler gives
// up on go to dlq when it is non-nil.
func NewReconcileConsumer(
	cfg ConsumerConfig,
	r *Reconciler,
	store pkgkafka.IdempotencyStore,
	dlq pkgkafka.DeadLetterPublisher,
	logger *slog.Logger,
) *pkgkafka.Consumer {
	var opts []pkgkafka.ConsumerOption
	if dlq != nil {
		opts = append(opts, pkgkafka.WithDeadLetter(dlq))
	}

	return pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
		Brokers:    cfg.Brokers,
		GroupID:    cfg.GroupID,
		Topic:      event.TopicReviewReconcile,
		MaxRetries: cfg.MaxRetries,
	}, pkgkafka.IdempotentHandler(store, r.HandleReconcile, logger), logger, opts...)
}
