package postgres

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5"

	"github.com/tiendatttt234/GoGo-Be/internal/domain"
	"github.com/tiendatttt234/GoGo-Be/pkg/database"
	apperrors "github.com/tiendatttt234/GoGo-Be/pkg/errors"
)

const reviewColumns = `id, tour_id, user_id, username, review_text, rating, images, likes, created_at, updated_at`

const replyColumns = `id, review_id, user_id, username, text, created_at, updated_at`

// ReviewRepository implements repository.ReviewRepository using PostgreSQL.
type ReviewRepository struct {
	pool database.DBTX
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(pool database.DBTX) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

// Create inserts a new review. A review pointing at a missing tour is
// rejected by the tour_id foreign key.
func (r *ReviewRepository) Create(ctx context.Context, rv *domain.Review) (err error) {
	query := `
		INSERT INTO reviews (id, tour_id, user_id, username, review_text, rating, images, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	ctx, end := database.TraceQuery(ctx, "reviews", "Create", query)
	defer func() { end(err) }()

	if rv.Images == nil {
		rv.Images = []string{}
	}

	_, err = r.pool.Exec(ctx, query,
		rv.ID,
		rv.TourID,
		rv.UserID,
		rv.Username,
		rv.ReviewText,
		rv.Rating,
		rv.Images,
		rv.CreatedAt,
		rv.UpdatedAt,
	)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return apperrors.NotFound("tour", rv.TourID)
		}
		return fmt.Errorf("insert review: %w", err)
	}

	if rv.Likes == nil {
		rv.Likes = []string{}
	}
	if rv.Replies == nil {
		rv.Replies = []domain.Reply{}
	}

	return nil
}

// GetByID retrieves a review by its ID, with replies attached.
func (r *ReviewRepository) GetByID(ctx context.Context, id string) (rv *domain.Review, err error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "reviews", "GetByID", query)
	defer func() { end(err) }()

	rv, err = scanReview(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("review", id)
	}
	if err != nil {
		return nil, err
	}

	reviews := []domain.Review{*rv}
	if err = r.attachReplies(ctx, reviews); err != nil {
		return nil, err
	}
	return &reviews[0], nil
}

// ListByTour returns every review whose tour_id is tourID, newest first.
func (r *ReviewRepository) ListByTour(ctx context.Context, tourID string) (reviews []domain.Review, err error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE tour_id = $1 ORDER BY created_at DESC`

	ctx, end := database.TraceQuery(ctx, "reviews", "ListByTour", query)
	defer func() { end(err) }()

	reviews, err = r.queryReviews(ctx, query, tourID)
	if err != nil {
		return nil, err
	}
	if err = r.attachReplies(ctx, reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

// ListByIDs returns the reviews with the given ids, newest first. Unknown
// ids are skipped.
func (r *ReviewRepository) ListByIDs(ctx context.Context, ids []string) (reviews []domain.Review, err error) {
	if len(ids) == 0 {
		return []domain.Review{}, nil
	}

	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE id = ANY($1::uuid[]) ORDER BY created_at DESC`

	ctx, end := database.TraceQuery(ctx, "reviews", "ListByIDs", query)
	defer func() { end(err) }()

	reviews, err = r.queryReviews(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	if err = r.attachReplies(ctx, reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

// Update overwrites the editable fields of a review.
func (r *ReviewRepository) Update(ctx context.Context, rv *domain.Review) (err error) {
	query := `
		UPDATE reviews
		SET review_text = $1, rating = $2, images = $3, updated_at = $4
		WHERE id = $5`

	ctx, end := database.TraceQuery(ctx, "reviews", "Update", query)
	defer func() { end(err) }()

	if rv.Images == nil {
		rv.Images = []string{}
	}

	ct, err := r.pool.Exec(ctx, query, rv.ReviewText, rv.Rating, rv.Images, rv.UpdatedAt, rv.ID)
	if err != nil {
		return fmt.Errorf("update review: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("review", rv.ID)
	}

	return nil
}

// Delete removes a review and strips its id from its tour in one
// statement, so a relink that raced the earlier unlink cannot leave the id
// behind. Replies cascade.
func (r *ReviewRepository) Delete(ctx context.Context, id string) (err error) {
	query := `
		WITH deleted AS (
		    DELETE FROM reviews WHERE id = $1 RETURNING id, tour_id
		), unlinked AS (
		    UPDATE tours t
		    SET review_ids = array_remove(t.review_ids, d.id)
		    FROM deleted d
		    WHERE t.id = d.tour_id AND d.id = ANY(t.review_ids)
		)
		SELECT count(*) FROM deleted`

	ctx, end := database.TraceQuery(ctx, "reviews", "Delete", query)
	defer func() { end(err) }()

	var n int
	if err = r.pool.QueryRow(ctx, query, id).Scan(&n); err != nil {
		return fmt.Errorf("delete review: %w", err)
	}

	if n == 0 {
		return apperrors.NotFound("review", id)
	}

	return nil
}

// AddLike records userID as liking the review. Liking twice is a no-op.
func (r *ReviewRepository) AddLike(ctx context.Context, reviewID, userID string) (err error) {
	query := `
		UPDATE reviews
		SET likes = CASE
		        WHEN $2::uuid = ANY(likes) THEN likes
		        ELSE array_append(likes, $2::uuid)
		    END
		WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "reviews", "AddLike", query)
	defer func() { end(err) }()

	ct, err := r.pool.Exec(ctx, query, reviewID, userID)
	if err != nil {
		return fmt.Errorf("like review: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("review", reviewID)
	}

	return nil
}

// RemoveLike drops userID from the review's likes.
func (r *ReviewRepository) RemoveLike(ctx context.Context, reviewID, userID string) (err error) {
	query := `UPDATE reviews SET likes = array_remove(likes, $2::uuid) WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "reviews", "RemoveLike", query)
	defer func() { end(err) }()

	ct, err := r.pool.Exec(ctx, query, reviewID, userID)
	if err != nil {
		return fmt.Errorf("unlike review: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("review", reviewID)
	}

	return nil
}

// AddReply inserts a reply on a review.
func (r *ReviewRepository) AddReply(ctx context.Context, reply *domain.Reply) (err error) {
	query := `
		INSERT INTO review_replies (` + replyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	ctx, end := database.TraceQuery(ctx, "review_replies", "Create", query)
	defer func() { end(err) }()

	_, err = r.pool.Exec(ctx, query,
		reply.ID,
		reply.ReviewID,
		reply.UserID,
		reply.Username,
		reply.Text,
		reply.CreatedAt,
		reply.UpdatedAt,
	)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return apperrors.NotFound("review", reply.ReviewID)
		}
		return fmt.Errorf("insert reply: %w", err)
	}

	return nil
}

// GetReply retrieves a reply that belongs to reviewID.
func (r *ReviewRepository) GetReply(ctx context.Context, reviewID, replyID string) (reply *domain.Reply, err error) {
	query := `SELECT ` + replyColumns + ` FROM review_replies WHERE id = $1 AND review_id = $2`

	ctx, end := database.TraceQuery(ctx, "review_replies", "GetByID", query)
	defer func() { end(err) }()

	reply, err = scanReply(r.pool.QueryRow(ctx, query, replyID, reviewID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("reply", replyID)
	}
	return reply, err
}

// DeleteReply removes a reply from a review.
func (r *ReviewRepository) DeleteReply(ctx context.Context, reviewID, replyID string) (err error) {
	query := `DELETE FROM review_replies WHERE id = $1 AND review_id = $2`

	ctx, end := database.TraceQuery(ctx, "review_replies", "Delete", query)
	defer func() { end(err) }()

	ct, err := r.pool.Exec(ctx, query, replyID, reviewID)
	if err != nil {
		return fmt.Errorf("delete reply: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("reply", replyID)
	}

	return nil
}

// ListUnlinked returns reviews whose tour exists but does not list them.
func (r *ReviewRepository) ListUnlinked(ctx context.Context) (reviews []domain.Review, err error) {
	query := `
		SELECT r.id, r.tour_id, r.user_id, r.username, r.review_text, r.rating, r.images, r.likes,
		       r.created_at, r.updated_at
		FROM reviews r
		JOIN tours t ON t.id = r.tour_id
		WHERE NOT (r.id = ANY(t.review_ids))
		ORDER BY r.created_at ASC`

	ctx, end := database.TraceQuery(ctx, "reviews", "ListUnlinked", query)
	defer func() { end(err) }()

	return r.queryReviews(ctx, query)
}

// ReviewerStats aggregates reviews per username snapshot. Ties on count are
// broken by username so the order is stable.
func (r *ReviewRepository) ReviewerStats(ctx context.Context, limit int) (stats []domain.ReviewerStats, err error) {
	query := `
		SELECT username, count(*) AS review_count, avg(rating) AS average_rating
		FROM reviews
		GROUP BY username
		ORDER BY review_count DESC, username ASC`

	var args []any
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	ctx, end := database.TraceQuery(ctx, "reviews", "ReviewerStats", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("aggregate reviewers: %w", err)
	}
	defer rows.Close()

	stats = []domain.ReviewerStats{}
	for rows.Next() {
		var s domain.ReviewerStats
		if err = rows.Scan(&s.Username, &s.ReviewCount, &s.AverageRating); err != nil {
			return nil, fmt.Errorf("scan reviewer stats: %w", err)
		}
		s.AverageRating = math.Round(s.AverageRating*100) / 100
		stats = append(stats, s)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reviewer stats: %w", err)
	}

	return stats, nil
}

func (r *ReviewRepository) queryReviews(ctx context.Context, query string, args ...any) ([]domain.Review, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reviews: %w", err)
	}
	defer rows.Close()

	reviews := []domain.Review{}
	for rows.Next() {
		rv, scanErr := scanReview(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		reviews = append(reviews, *rv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review rows: %w", err)
	}

	return reviews, nil
}

// attachReplies loads the replies of every review in one query and assigns
// them in creation order.
func (r *ReviewRepository) attachReplies(ctx context.Context, reviews []domain.Review) error {
	if len(reviews) == 0 {
		return nil
	}

	ids := make([]string, len(reviews))
	index := make(map[string]int, len(reviews))
	for i, rv := range reviews {
		ids[i] = rv.ID
		index[rv.ID] = i
	}

	query := `SELECT ` + replyColumns + ` FROM review_replies WHERE review_id = ANY($1::uuid[]) ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("query replies: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		reply, scanErr := scanReply(rows)
		if scanErr != nil {
			return scanErr
		}
		if i, ok := index[reply.ReviewID]; ok {
			reviews[i].Replies = append(reviews[i].Replies, *reply)
		}
	}

	return rows.Err()
}

func scanReview(row pgx.Row) (*domain.Review, error) {
	var rv domain.Review
	err := row.Scan(
		&rv.ID,
		&rv.TourID,
		&rv.UserID,
		&rv.Username,
		&rv.ReviewText,
		&rv.Rating,
		&rv.Images,
		&rv.Likes,
		&rv.CreatedAt,
		&rv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan review: %w", err)
	}

	if rv.Images == nil {
		rv.Images = []string{}
	}
	if rv.Likes == nil {
		rv.Likes = []string{}
	}
	rv.Replies = []domain.Reply{}

	return &rv, nil
}

func scanReply(row pgx.Row) (*domain.Reply, error) {
	var reply domain.Reply
	err := row.Scan(
		&reply.ID,
		&reply.ReviewID,
		&reply.UserID,
		&reply.Username,
		&reply.Text,
		&reply.CreatedAt,
		&reply.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan reply: %w", err)
	}
	return &reply, nil
}
