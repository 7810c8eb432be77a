package repository

import (
	"context"
	"errors"

	"github.com/tiendatttt234/GoGo-Be/internal/domain"
)

// ErrSlugTaken is joined into the conflict error returned when a generated
// slug collides with an existing one, so callers can retry with a suffix.
var ErrSlugTaken = errors.New("slug already taken")

// TourFilter defines filter criteria for listing tours.
type TourFilter struct {
	Title    *string
	Featured *bool
	Offset   int
	Limit    int
}

// TourRepository defines the interface for tour persistence operations.
type TourRepository interface {
	// Create inserts a new tour into the store.
	Create(ctx context.Context, tour *domain.Tour) error

	// GetByID retrieves a tour, including its linked review ids and gallery.
	GetByID(ctx context.Context, id string) (*domain.Tour, error)

	// Exists reports whether a tour with the given id exists.
	Exists(ctx context.Context, id string) (bool, error)

	// List returns tours matching the filter, newest first, with the total count.
	List(ctx context.Context, filter TourFilter) ([]domain.Tour, int, error)

	// Update overwrites the tour's scalar fields. Gallery and review ids are
	// only changed through their dedicated atomic operations.
	Update(ctx context.Context, tour *domain.Tour) error

	// Delete removes a tour. Its reviews are removed with it.
	Delete(ctx context.Context, id string) error

	// Count returns the number of tours.
	Count(ctx context.Context) (int, error)

	// AddReviewID links reviewID to the tour in a single statement. Linking an
	// id that is already present is a no-op.
	AddReviewID(ctx context.Context, tourID, reviewID string) error

	// LinkReviewIfPresent links reviewID to the tour only if the review still
	// exists and belongs to it, checked in the same statement. It reports
	// whether the tour lists the review afterwards.
	LinkReviewIfPresent(ctx context.Context, tourID, reviewID string) (bool, error)

	// RemoveReviewID unlinks reviewID from the tour in a single statement.
	RemoveReviewID(ctx context.Context, tourID, reviewID string) error

	// RemoveReviewIDEverywhere unlinks reviewID from every tour that lists it
	// and returns how many tours changed.
	RemoveReviewIDEverywhere(ctx context.Context, reviewID string) (int64, error)

	// AddGalleryImage appends url to the tour's gallery.
	AddGalleryImage(ctx context.Context, tourID, url string) (*domain.Tour, error)

	// RemoveGalleryImage removes the gallery entry at the zero-based index.
	RemoveGalleryImage(ctx context.Context, tourID string, index int) (*domain.Tour, error)
}

// ReviewRepository defines the interface for review persistence operations.
type ReviewRepository interface {
	// Create inserts a new review into the store.
	Create(ctx context.Context, review *domain.Review) error

	// GetByID retrieves a review with its replies.
	GetByID(ctx context.Context, id string) (*domain.Review, error)

	// ListByTour returns every review whose tour is tourID, newest first.
	ListByTour(ctx context.Context, tourID string) ([]domain.Review, error)

	// ListByIDs returns the reviews with the given ids, newest first.
	ListByIDs(ctx context.Context, ids []string) ([]domain.Review, error)

	// Update overwrites the review's text, rating and images.
	Update(ctx context.Context, review *domain.Review) error

	// Delete removes a review and its replies, and strips its id from its
	// tour's list in the same statement.
	Delete(ctx context.Context, id string) error

	// AddLike adds userID to the review's likes if absent.
	AddLike(ctx context.Context, reviewID, userID string) error

	// RemoveLike removes userID from the review's likes.
	RemoveLike(ctx context.Context, reviewID, userID string) error

	// AddReply inserts a reply on a review.
	AddReply(ctx context.Context, reply *domain.Reply) error

	// GetReply retrieves a single reply of a review.
	GetReply(ctx context.Context, reviewID, replyID string) (*domain.Reply, error)

	// DeleteReply removes a reply from a review.
	DeleteReply(ctx context.Context, reviewID, replyID string) error

	// ListUnlinked returns reviews whose tour does not list their id.
	ListUnlinked(ctx context.Context) ([]domain.Review, error)

	// ReviewerStats groups reviews by username and orders by review count
	// descending, then username ascending. A limit <= 0 returns every group.
	ReviewerStats(ctx context.Context, limit int) ([]domain.ReviewerStats, error)
}

// BlogRepository defines the interface for blog persistence operations.
type BlogRepository interface {
	// Create inserts a new blog into the store.
	Create(ctx context.Context, blog *domain.Blog) error

	// GetByID retrieves a blog with its author summary.
	GetByID(ctx context.Context, id string) (*domain.Blog, error)

	// List returns a page of blogs, newest first, with the total count.
	List(ctx context.Context, offset, limit int) ([]domain.Blog, int, error)

	// ListFeatured returns up to limit featured blogs, newest first.
	ListFeatured(ctx context.Context, limit int) ([]domain.Blog, error)

	// Count returns the number of blogs.
	Count(ctx context.Context) (int, error)

	// Update overwrites the blog's editable fields.
	Update(ctx context.Context, blog *domain.Blog) error

	// Delete removes a blog.
	Delete(ctx context.Context, id string) error
}

// UserRepository defines the interface for user persistence operations.
type UserRepository interface {
	// Create inserts a new user into the store.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique identifier.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by their email address.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// List returns every user, newest first.
	List(ctx context.Context) ([]domain.User, error)

	// Update modifies an existing user in the store.
	Update(ctx context.Context, user *domain.User) error

	// Delete removes a user from the store.
	Delete(ctx context.Context, id string) error

	// Count returns the number of users.
	Count(ctx context.Context) (int, error)
}
