package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tiendatttt234/GoGo-Be/internal/domain"
	pkgkafka "github.com/tiendatttt234/GoGo-Be/pkg/kafka"
	"github.com/tiendatttt234/GoGo-Be/pkg/logger"
)

// Kafka topic constants for review, tour and user domain events.
var (
	TopicReviewCreated   = pkgkafka.Topic("review", "created")
	TopicReviewUpdated   = pkgkafka.Topic("review", "updated")
	TopicReviewDeleted   = pkgkafka.Topic("review", "deleted")
	TopicReviewReconcile = pkgkafka.Topic("review", "reconcile")
	TopicTourCreated     = pkgkafka.Topic("tour", "created")
	TopicTourDeleted     = pkgkafka.Topic("tour", "deleted")
	TopicUserRegistered  = pkgkafka.Topic("user", "registered")
)

// Aggregate type constants.
const (
	AggregateTypeReview = "review"
	AggregateTypeTour   = "tour"
	AggregateTypeUser   = "user"
)

// SourceAPI identifies events originating from the API process.
const SourceAPI = "gogo-api"

// Reconcile stages. A link event asks for the review id to be (re)linked to
// its tour; a delete event records an unlinked review whose row survived.
const (
	StageLink   = "link"
	StageDelete = "delete"
)

// ReviewData is the payload for review.created and review.updated events.
type ReviewData struct {
	ID       string  `json:"id"`
	TourID   string  `json:"tour_id"`
	UserID   string  `json:"user_id"`
	Username string  `json:"username"`
	Rating   float64 `json:"rating"`
}

// ReviewDeletedData is the payload for a review.deleted event.
type ReviewDeletedData struct {
	ID     string `json:"id"`
	TourID string `json:"tour_id"`
}

// ReconcileData is the payload for a review.reconcile event.
type ReconcileData struct {
	ReviewID string `json:"review_id"`
	TourID   string `json:"tour_id"`
	Stage    string `json:"stage"`
	Reason   string `json:"reason,omitempty"`
}

// TourData is the payload for tour events.
type TourData struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
	Slug  string `json:"slug,omitempty"`
}

// UserRegisteredData is the payload for a user.registered event.
type UserRegisteredData struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Producer publishes domain events to Kafka. A Producer built with a nil
// publisher drops every event, which is how Kafka is switched off.
type Producer struct {
	kafka  pkgkafka.Publisher
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka pkgkafka.Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// Enabled reports whether events are actually sent.
func (p *Producer) Enabled() bool {
	return p != nil && p.kafka != nil
}

// PublishReviewCreated publishes a review.created event.
func (p *Producer) PublishReviewCreated(ctx context.Context, r *domain.Review) error {
	return p.publish(ctx, TopicReviewCreated, r.ID, AggregateTypeReview, reviewData(r))
}

// PublishReviewUpdated publishes a review.updated event.
func (p *Producer) PublishReviewUpdated(ctx context.Context, r *domain.Review) error {
	return p.publish(ctx, TopicReviewUpdated, r.ID, AggregateTypeReview, reviewData(r))
}

// PublishReviewDeleted publishes a review.deleted event.
func (p *Producer) PublishReviewDeleted(ctx context.Context, reviewID, tourID string) error {
	return p.publish(ctx, TopicReviewDeleted, reviewID, AggregateTypeReview,
		ReviewDeletedData{ID: reviewID, TourID: tourID})
}

// PublishReconcile publishes a review.reconcile event for a write that was
// partially committed.
func (p *Producer) PublishReconcile(ctx context.Context, data ReconcileData) error {
	return p.publish(ctx, TopicReviewReconcile, data.ReviewID, AggregateTypeReview, data)
}

// PublishTourCreated publishes a tour.created event.
func (p *Producer) PublishTourCreated(ctx context.Context, t *domain.Tour) error {
	return p.publish(ctx, TopicTourCreated, t.ID, AggregateTypeTour,
		TourData{ID: t.ID, Title: t.Title, Slug: t.Slug})
}

// PublishTourDeleted publishes a tour.deleted event.
func (p *Producer) PublishTourDeleted(ctx context.Context, id string) error {
	return p.publish(ctx, TopicTourDeleted, id, AggregateTypeTour, TourData{ID: id})
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, u *domain.User) error {
	return p.publish(ctx, TopicUserRegistered, u.ID, AggregateTypeUser,
		UserRegisteredData{ID: u.ID, Username: u.Username, Email: u.Email})
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	if !p.Enabled() {
		return nil
	}

	event, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, SourceAPI, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event.WithCorrelationID(id)
	}
	if uid := logger.UserIDFromContext(ctx); uid != "" {
		event.WithMetadata("user_id", uid)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
		slog.String("event_id", event.EventID),
	)

	return nil
}

func reviewData(r *domain.Review) ReviewData {
	return ReviewData{
		ID:       r.ID,
		TourID:   r.TourID,
		UserID:   r.UserID,
		Username: r.Username,
		Rating:   r.Rating,
	}
}
