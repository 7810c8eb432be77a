package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tiendatttt234/GoGo-Be/internal/auth"
	"github.com/tiendatttt234/GoGo-Be/internal/domain"
	"github.com/tiendatttt234/GoGo-Be/internal/event"
	"github.com/tiendatttt234/GoGo-Be/internal/repository"
	apperrors "github.com/tiendatttt234/GoGo-Be/pkg/errors"
)

// ReviewState is a step of a review create or delete run. A run that fails
// reports the last state it reached.
type ReviewState string

// Create runs go Validated, ReviewPersisted, LinkedToTour, Done.
// Delete runs go Found, OwnershipChecked, UnlinkedFromTour, ReviewDeleted, Done.
const (
	StateStarted          ReviewState = "Started"
	StateValidated        ReviewState = "Validated"
	StateReviewPersisted  ReviewState = "ReviewPersisted"
	StateLinkedToTour     ReviewState = "LinkedToTour"
	StateFound            ReviewState = "Found"
	StateOwnershipChecked ReviewState = "OwnershipChecked"
	StateUnlinkedFromTour ReviewState = "UnlinkedFromTour"
	StateReviewDeleted    ReviewState = "ReviewDeleted"
	StateDone             ReviewState = "Done"
)

// Reconcile actions.
const (
	ReconcileLinked = "linked"
	ReconcilePurged = "purged"
)

// CreateReviewInput holds the parameters for creating a review.
type CreateReviewInput struct {
	TourID     string
	ReviewText string
	Rating     *float64
	Images     []string
}

// UpdateReviewInput holds the parameters for updating a review. Nil fields
// are left unchanged.
type UpdateReviewInput struct {
	ReviewText *string
	Rating     *float64
	Images     *[]string
}

// ReconcileResult describes what a reconcile run did.
type ReconcileResult struct {
	ReviewID     string `json:"reviewId"`
	Action       string `json:"action"`
	ToursUpdated int64  `json:"toursUpdated"`
}

// ReviewService coordinates reviews with the tours that list them. A review
// row and its tour's review list are written in separate statements; when the
// second write fails the caller gets a PartiallyCommitted error and a
// reconcile event is published.
type ReviewService struct {
	reviews  repository.ReviewRepository
	tours    repository.TourRepository
	producer *event.Producer
	bound    domain.RatingBound
	logger   *slog.Logger
	now      func() time.Time
}

// NewReviewService creates a new review service.
func NewReviewService(
	reviews repository.ReviewRepository,
	tours repository.TourRepository,
	producer *event.Producer,
	bound domain.RatingBound,
	logger *slog.Logger,
) *ReviewService {
	return &ReviewService{
		reviews:  reviews,
		tours:    tours,
		producer: producer,
		bound:    bound,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// run tracks the state a single coordinator operation reached.
type run struct {
	op       string
	reviewID string
	tourID   string
	state    ReviewState
}

func (r *run) advance(s ReviewState) { r.state = s }

// finish logs the final state of a run and records it.
func (s *ReviewService) finish(ctx context.Context, r *run, err error) {
	outcome := "ok"
	level := slog.LevelInfo
	switch {
	case errors.Is(err, apperrors.ErrPartiallyCommitted):
		outcome = "partial"
		level = slog.LevelError
	case err != nil:
		outcome = "rejected"
		level = slog.LevelDebug
	}
	coordinatorRuns.WithLabelValues(r.op, string(r.state), outcome).Inc()

	attrs := []slog.Attr{
		slog.String("operation", r.op),
		slog.String("state", string(r.state)),
		slog.String("review_id", r.reviewID),
		slog.String("tour_id", r.tourID),
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	s.logger.LogAttrs(ctx, level, "review "+r.op+" finished", attrs...)
}

// partial builds the PartiallyCommitted error for a run and publishes the
// reconcile event. The event is sent even if the request was cancelled.
func (s *ReviewService) partial(ctx context.Context, r *run, stage, message string, cause error) error {
	if err := s.producer.PublishReconcile(context.WithoutCancel(ctx), event.ReconcileData{
		ReviewID: r.reviewID,
		TourID:   r.tourID,
		Stage:    stage,
		Reason:   cause.Error(),
	}); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.reconcile event",
			slog.String("review_id", r.reviewID),
			slog.String("error", err.Error()),
		)
	}

	return apperrors.PartiallyCommitted(message, cause).
		WithDetail("review_id", r.reviewID).
		WithDetail("stage", string(r.state))
}

func (s *ReviewService) validateRating(rating float64) error {
	if !s.bound.Contains(rating) {
		return apperrors.InvalidInput(fmt.Sprintf("rating must be between %g and %g", s.bound.Min, s.bound.Max))
	}
	return nil
}

// CreateReview validates the input, stores the review and links it to its
// tour.
func (s *ReviewService) CreateReview(ctx context.Context, p domain.Principal, input *CreateReviewInput) (_ *domain.Review, err error) {
	r := &run{op: "create", tourID: input.TourID, state: StateStarted}
	defer func() { s.finish(ctx, r, err) }()

	text := strings.TrimSpace(input.ReviewText)
	if text == "" {
		return nil, apperrors.InvalidInput("review text is required")
	}
	if input.Rating == nil {
		return nil, apperrors.InvalidInput("rating is required")
	}
	if err := s.validateRating(*input.Rating); err != nil {
		return nil, err
	}
	if p.ID == "" {
		return nil, apperrors.Unauthenticated(auth.MsgNotAuthenticated)
	}

	exists, err := s.tours.Exists(ctx, input.TourID)
	if err != nil {
		return nil, fmt.Errorf("check tour: %w", err)
	}
	if !exists {
		return nil, apperrors.NotFound("tour", input.TourID)
	}
	r.advance(StateValidated)

	now := s.now()
	review := &domain.Review{
		ID:         uuid.New().String(),
		TourID:     input.TourID,
		UserID:     p.ID,
		Username:   p.Username,
		ReviewText: text,
		Rating:     *input.Rating,
		Images:     input.Images,
		Likes:      []string{},
		Replies:    []domain.Reply{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if review.Images == nil {
		review.Images = []string{}
	}
	r.reviewID = review.ID

	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}
	r.advance(StateReviewPersisted)

	if err := s.tours.AddReviewID(ctx, review.TourID, review.ID); err != nil {
		return nil, s.partial(ctx, r, event.StageLink, "review was saved but could not be linked to its tour", err)
	}
	r.advance(StateLinkedToTour)

	if err := s.producer.PublishReviewCreated(ctx, review); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.created event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}
	r.advance(StateDone)

	return review, nil
}

// DeleteReview unlinks a review from its tour and then deletes it. Only the
// author or an admin may delete.
func (s *ReviewService) DeleteReview(ctx context.Context, p domain.Principal, reviewID string) (err error) {
	r := &run{op: "delete", reviewID: reviewID, state: StateStarted}
	defer func() { s.finish(ctx, r, err) }()

	review, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		return fmt.Errorf("get review: %w", err)
	}
	r.tourID = review.TourID
	r.advance(StateFound)

	if err := auth.RequireOwnerOrRole(p, review, domain.RoleAdmin); err != nil {
		return err
	}
	r.advance(StateOwnershipChecked)

	if err := s.unlink(ctx, review.TourID, review.ID); err != nil {
		return err
	}
	r.advance(StateUnlinkedFromTour)

	if err := s.reviews.Delete(ctx, review.ID); err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return s.partial(ctx, r, event.StageDelete, "review was removed from its tour but could not be deleted", err)
	}
	r.advance(StateReviewDeleted)

	if err := s.producer.PublishReviewDeleted(ctx, review.ID, review.TourID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.deleted event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}
	r.advance(StateDone)

	return nil
}

// unlink removes reviewID from its tour's list. A tour that no longer exists
// has nothing to unlink.
func (s *ReviewService) unlink(ctx context.Context, tourID, reviewID string) error {
	err := s.tours.RemoveReviewID(ctx, tourID, reviewID)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return fmt.Errorf("unlink review: %w", err)
	}
	return nil
}

// UpdateReview changes the text, rating or images of a review. Only the
// author may edit.
func (s *ReviewService) UpdateReview(ctx context.Context, p domain.Principal, reviewID string, input *UpdateReviewInput) (*domain.Review, error) {
	review, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("get review: %w", err)
	}

	if err := auth.RequireOwnerOrRole(p, review, domain.RoleNone); err != nil {
		return nil, err
	}

	if input.ReviewText != nil {
		text := strings.TrimSpace(*input.ReviewText)
		if text == "" {
			return nil, apperrors.InvalidInput("review text must not be empty")
		}
		review.ReviewText = text
	}
	if input.Rating != nil {
		if err := s.validateRating(*input.Rating); err != nil {
			return nil, err
		}
		review.Rating = *input.Rating
	}
	if input.Images != nil {
		review.Images = *input.Images
		if review.Images == nil {
			review.Images = []string{}
		}
	}
	review.UpdatedAt = s.now()

	if err := s.reviews.Update(ctx, review); err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}

	if err := s.producer.PublishReviewUpdated(ctx, review); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.updated event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review updated", slog.String("review_id", review.ID))

	return review, nil
}

// GetReview retrieves a review by its ID.
func (s *ReviewService) GetReview(ctx context.Context, id string) (*domain.Review, error) {
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get review: %w", err)
	}
	return review, nil
}

// ListByTour returns the reviews of a tour, newest first.
func (s *ReviewService) ListByTour(ctx context.Context, tourID string) ([]domain.Review, error) {
	reviews, err := s.reviews.ListByTour(ctx, tourID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, nil
}

// Like records the principal as liking a review.
func (s *ReviewService) Like(ctx context.Context, p domain.Principal, reviewID string) (*domain.Review, error) {
	if err := s.reviews.AddLike(ctx, reviewID, p.ID); err != nil {
		return nil, fmt.Errorf("like review: %w", err)
	}
	return s.GetReview(ctx, reviewID)
}

// Unlike removes the principal's like from a review.
func (s *ReviewService) Unlike(ctx context.Context, p domain.Principal, reviewID string) (*domain.Review, error) {
	if err := s.reviews.RemoveLike(ctx, reviewID, p.ID); err != nil {
		return nil, fmt.Errorf("unlike review: %w", err)
	}
	return s.GetReview(ctx, reviewID)
}

// AddReply attaches a reply by the principal to a review.
func (s *ReviewService) AddReply(ctx context.Context, p domain.Principal, reviewID, text string) (*domain.Reply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.InvalidInput("reply text is required")
	}

	now := s.now()
	reply := &domain.Reply{
		ID:        uuid.New().String(),
		ReviewID:  reviewID,
		UserID:    p.ID,
		Username:  p.Username,
		Text:      text,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.reviews.AddReply(ctx, reply); err != nil {
		return nil, fmt.Errorf("add reply: %w", err)
	}
	return reply, nil
}

// DeleteReply removes a reply. Only its author or an admin may delete it.
func (s *ReviewService) DeleteReply(ctx context.Context, p domain.Principal, reviewID, replyID string) error {
	reply, err := s.reviews.GetReply(ctx, reviewID, replyID)
	if err != nil {
		return fmt.Errorf("get reply: %w", err)
	}

	if err := auth.RequireOwnerOrRole(p, reply, domain.RoleAdmin); err != nil {
		return err
	}

	if err := s.reviews.DeleteReply(ctx, reviewID, replyID); err != nil {
		return fmt.Errorf("delete reply: %w", err)
	}
	return nil
}

// Reconcile repairs the tour link of a review. If the review exists it is
// linked to its tour; otherwise its id is purged from every tour list.
// Running it again has no further effect.
func (s *ReviewService) Reconcile(ctx context.Context, reviewID string) (*ReconcileResult, error) {
	review, err := s.reviews.GetByID(ctx, reviewID)
	switch {
	case err == nil:
		linked, err := s.tours.LinkReviewIfPresent(ctx, review.TourID, review.ID)
		if err != nil {
			return nil, fmt.Errorf("relink review: %w", err)
		}
		if linked {
			s.logger.InfoContext(ctx, "review relinked",
				slog.String("review_id", review.ID),
				slog.String("tour_id", review.TourID),
			)
			return &ReconcileResult{ReviewID: reviewID, Action: ReconcileLinked, ToursUpdated: 1}, nil
		}

		// Either the review was deleted after it was read or its tour is gone.
		if _, err := s.reviews.GetByID(ctx, reviewID); err == nil {
			return nil, fmt.Errorf("relink review: %w", apperrors.NotFound("tour", review.TourID))
		} else if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("get review: %w", err)
		}
		return s.purge(ctx, reviewID)

	case errors.Is(err, apperrors.ErrNotFound):
		return s.purge(ctx, reviewID)

	default:
		return nil, fmt.Errorf("get review: %w", err)
	}
}

func (s *ReviewService) purge(ctx context.Context, reviewID string) (*ReconcileResult, error) {
	n, err := s.tours.RemoveReviewIDEverywhere(ctx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("purge review id: %w", err)
	}
	s.logger.InfoContext(ctx, "stale review id purged",
		slog.String("review_id", reviewID),
		slog.Int64("tours_updated", n),
	)
	return &ReconcileResult{ReviewID: reviewID, Action: ReconcilePurged, ToursUpdated: n}, nil
}

// FinishDelete completes a delete that stopped after the unlink step.
func (s *ReviewService) FinishDelete(ctx context.Context, reviewID string) error {
	review, err := s.reviews.GetByID(ctx, reviewID)
	if errors.Is(err, apperrors.ErrNotFound) {
		if _, err := s.tours.RemoveReviewIDEverywhere(ctx, reviewID); err != nil {
			return fmt.Errorf("purge review id: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("get review: %w", err)
	}

	if err := s.unlink(ctx, review.TourID, review.ID); err != nil {
		return err
	}
	if err := s.reviews.Delete(ctx, review.ID); err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return fmt.Errorf("delete review: %w", err)
	}

	s.logger.InfoContext(ctx, "partially committed delete finished", slog.String("review_id", review.ID))
	return nil
}

// ListUnlinked returns reviews that exist but are missing from their tour's
// review list.
func (s *ReviewService) ListUnlinked(ctx context.Context) ([]domain.Review, error) {
	reviews, err := s.reviews.ListUnlinked(ctx)
	if err != nil {
		return nil, fmt.Errorf("list unlinked reviews: %w", err)
	}
	return reviews, nil
}
