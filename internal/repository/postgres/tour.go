package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/tiendatttt234/GoGo-Be/internal/domain"
	"github.com/tiendatttt234/GoGo-Be/internal/repository"
	"github.com/tiendatttt234/GoGo-Be/pkg/database"
	apperrors "github.com/tiendatttt234/GoGo-Be/pkg/errors"
)

const tourColumns = `id, title, slug, city, address, distance, price, max_group_size, description,
	photo, featured, gallery, review_ids, created_at, updated_at`

// TourRepository implements repository.TourRepository using PostgreSQL.
type TourRepository struct {
	pool database.DBTX
}

// NewTourRepository creates a new PostgreSQL-backed tour repository.
func NewTourRepository(pool database.DBTX) *TourRepository {
	return &TourRepository{pool: pool}
}

// Create inserts a new tour into the database.
func (r *TourRepository) Create(ctx context.Context, t *domain.Tour) (err error) {
	query := `
		INSERT INTO tours (id, title, slug, city, address, distance, price, max_group_size, description,
		                   photo, featured, gallery, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	ctx, end := database.TraceQuery(ctx, "tours", "Create", query)
	defer func() { end(err) }()

	if t.Gallery == nil {
		t.Gallery = []string{}
	}

	_, err = r.pool.Exec(ctx, query,
		t.ID,
		t.Title,
		t.Slug,
		t.City,
		t.Address,
		t.Distance,
		t.Price,
		t.MaxGroupSize,
		t.Description,
		t.Photo,
		t.Featured,
		t.Gallery,
		t.CreatedAt,
		t.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return tourConflict(err, t)
		}
		return fmt.Errorf("insert tour: %w", err)
	}

	return nil
}

// GetByID retrieves a tour by its ID.
func (r *TourRepository) GetByID(ctx context.Context, id string) (t *domain.Tour, err error) {
	query := `SELECT ` + tourColumns + ` FROM tours WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "tours", "GetByID", query)
	defer func() { end(err) }()

	t, err = scanTour(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("tour", id)
	}
	return t, err
}

// Exists reports whether a tour with the given ID exists.
func (r *TourRepository) Exists(ctx context.Context, id string) (exists bool, err error) {
	query := `SELECT EXISTS (SELECT 1 FROM tours WHERE id = $1)`

	ctx, end := database.TraceQuery(ctx, "tours", "Exists", query)
	defer func() { end(err) }()

	if err = r.pool.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check tour exists: %w", err)
	}
	return exists, nil
}

// List returns tours matching the filter along with the total count.
func (r *TourRepository) List(ctx context.Context, filter repository.TourFilter) (tours []domain.Tour, total int, err error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.Title != nil {
		conditions = append(conditions, fmt.Sprintf("title ILIKE $%d", argIndex))
		args = append(args, "%"+escapeLike(*filter.Title)+"%")
		argIndex++
	}

	if filter.Featured != nil {
		conditions = append(conditions, fmt.Sprintf("featured = $%d", argIndex))
		args = append(args, *filter.Featured)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	pageClause := ""
	if filter.Limit > 0 {
		pageClause = fmt.Sprintf("LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
		args = append(args, filter.Limit, max(filter.Offset, 0))
	}

	query := fmt.Sprintf(`
		SELECT %s,
		       count(*) OVER() AS total_count
		FROM tours
		%s
		ORDER BY created_at DESC
		%s`,
		tourColumns, whereClause, pageClause,
	)

	ctx, end := database.TraceQuery(ctx, "tours", "List", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list tours: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		t, scanErr := scanTour(rows, &total)
		if scanErr != nil {
			return nil, 0, scanErr
		}
		tours = append(tours, *t)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate tour rows: %w", err)
	}

	if tours == nil {
		tours = []domain.Tour{}
	}

	return tours, total, nil
}

// Update modifies the scalar fields of an existing tour.
func (r *TourRepository) Update(ctx context.Context, t *domain.Tour) (err error) {
	query := `
		UPDATE tours
		SET title = $1, slug = $2, city = $3, address = $4, distance = $5, price = $6,
		    max_group_size = $7, description = $8, photo = $9, featured = $10, updated_at = $11
		WHERE id = $12`

	ctx, end := database.TraceQuery(ctx, "tours", "Update", query)
	defer func() { end(err) }()

	ct, err := r.pool.Exec(ctx, query,
		t.Title,
		t.Slug,
		t.City,
		t.Address,
		t.Distance,
		t.Price,
		t.MaxGroupSize,
		t.Description,
		t.Photo,
		t.Featured,
		t.UpdatedAt,
		t.ID,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return tourConflict(err, t)
		}
		return fmt.Errorf("update tour: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("tour", t.ID)
	}

	return nil
}

// Delete removes a tour from the database by its ID. Reviews cascade.
func (r *TourRepository) Delete(ctx context.Context, id string) (err error) {
	query := `DELETE FROM tours WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "tours", "Delete", query)
	defer func() { end(err) }()

	ct, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete tour: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("tour", id)
	}

	return nil
}

// Count returns the number of tours.
func (r *TourRepository) Count(ctx context.Context) (n int, err error) {
	query := `SELECT count(*) FROM tours`

	ctx, end := database.TraceQuery(ctx, "tours", "Count", query)
	defer func() { end(err) }()

	if err = r.pool.QueryRow(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("count tours: %w", err)
	}
	return n, nil
}

// AddReviewID appends reviewID to the tour's review list unless it is
// already there. The check and the append happen in one UPDATE, so
// concurrent writers never drop each other's ids.
func (r *TourRepository) AddReviewID(ctx context.Context, tourID, reviewID string) (err error) {
	query := `
		UPDATE tours
		SET review_ids = CASE
		        WHEN $2::uuid = ANY(review_ids) THEN review_ids
		        ELSE array_append(review_ids, $2::uuid)
		    END
		WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "tours", "AddReviewID", query)
	defer func() { end(err) }()

	ct, err := r.pool.Exec(ctx, query, tourID, reviewID)
	if err != nil {
		return fmt.Errorf("link review %s to tour %s: %w", reviewID, tourID, err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("tour", tourID)
	}

	return nil
}

// LinkReviewIfPresent links reviewID to tourID only while the review row
// still exists and belongs to that tour. The review row is share-locked for
// the statement, so a concurrent delete either runs first and the link is
// skipped, or waits and strips the id afterwards. It reports whether the
// tour now lists the review.
func (r *TourRepository) LinkReviewIfPresent(ctx context.Context, tourID, reviewID string) (linked bool, err error) {
	query := `
		UPDATE tours
		SET review_ids = CASE
		        WHEN $2::uuid = ANY(review_ids) THEN review_ids
		        ELSE array_append(review_ids, $2::uuid)
		    END
		WHERE id = $1
		  AND EXISTS (
		        SELECT 1 FROM reviews
		        WHERE id = $2 AND tour_id = $1
		        FOR SHARE
		  )`

	ctx, end := database.TraceQuery(ctx, "tours", "LinkReviewIfPresent", query)
	defer func() { end(err) }()

	ct, err := r.pool.Exec(ctx, query, tourID, reviewID)
	if err != nil {
		return false, fmt.Errorf("relink review %s to tour %s: %w", reviewID, tourID, err)
	}
	return ct.RowsAffected() == 1, nil
}

// RemoveReviewID removes every occurrence of reviewID from the tour's list.
func (r *TourRepository) RemoveReviewID(ctx context.Context, tourID, reviewID string) (err error) {
	query := `UPDATE tours SET review_ids = array_remove(review_ids, $2::uuid) WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "tours", "RemoveReviewID", query)
	defer func() { end(err) }()

	ct, err := r.pool.Exec(ctx, query, tourID, reviewID)
	if err != nil {
		return fmt.Errorf("unlink review %s from tour %s: %w", reviewID, tourID, err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("tour", tourID)
	}

	return nil
}

// RemoveReviewIDEverywhere removes reviewID from every tour listing it.
func (r *TourRepository) RemoveReviewIDEverywhere(ctx context.Context, reviewID string) (n int64, err error) {
	query := `
		UPDATE tours
		SET review_ids = array_remove(review_ids, $1::uuid)
		WHERE $1::uuid = ANY(review_ids)`

	ctx, end := database.TraceQuery(ctx, "tours", "RemoveReviewIDEverywhere", query)
	defer func() { end(err) }()

	ct, err := r.pool.Exec(ctx, query, reviewID)
	if err != nil {
		return 0, fmt.Errorf("purge review %s from tours: %w", reviewID, err)
	}
	return ct.RowsAffected(), nil
}

// AddGalleryImage appends url to the tour's gallery and returns the tour.
func (r *TourRepository) AddGalleryImage(ctx context.Context, tourID, url string) (t *domain.Tour, err error) {
	query := `
		UPDATE tours
		SET gallery = array_append(gallery, $2), updated_at = now()
		WHERE id = $1
		RETURNING ` + tourColumns

	ctx, end := database.TraceQuery(ctx, "tours", "AddGalleryImage", query)
	defer func() { end(err) }()

	t, err = scanTour(r.pool.QueryRow(ctx, query, tourID, url))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("tour", tourID)
	}
	return t, err
}

// RemoveGalleryImage drops the gallery entry at the zero-based index.
// An index past the end of the gallery is invalid input.
func (r *TourRepository) RemoveGalleryImage(ctx context.Context, tourID string, index int) (t *domain.Tour, err error) {
	if index < 0 {
		return nil, apperrors.InvalidInput("invalid image index")
	}

	query := `
		UPDATE tours
		SET gallery = gallery[1:$2::int] || gallery[$2::int + 2:], updated_at = now()
		WHERE id = $1 AND cardinality(gallery) > $2::int
		RETURNING ` + tourColumns

	ctx, end := database.TraceQuery(ctx, "tours", "RemoveGalleryImage", query)
	defer func() { end(err) }()

	t, err = scanTour(r.pool.QueryRow(ctx, query, tourID, index))
	if !errors.Is(err, pgx.ErrNoRows) {
		return t, err
	}

	exists, existsErr := r.Exists(ctx, tourID)
	if existsErr != nil {
		return nil, existsErr
	}
	if !exists {
		return nil, apperrors.NotFound("tour", tourID)
	}
	return nil, apperrors.InvalidInput("invalid image index")
}

// scanTour reads one tour row. When total is given, the trailing
// total_count column is scanned into it.
func scanTour(row pgx.Row, total ...*int) (*domain.Tour, error) {
	var t domain.Tour

	dest := []any{
		&t.ID,
		&t.Title,
		&t.Slug,
		&t.City,
		&t.Address,
		&t.Distance,
		&t.Price,
		&t.MaxGroupSize,
		&t.Description,
		&t.Photo,
		&t.Featured,
		&t.Gallery,
		&t.ReviewIDs,
		&t.CreatedAt,
		&t.UpdatedAt,
	}
	if len(total) > 0 {
		dest = append(dest, total[0])
	}

	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan tour: %w", err)
	}

	if t.Gallery == nil {
		t.Gallery = []string{}
	}
	if t.ReviewIDs == nil {
		t.ReviewIDs = []string{}
	}
	t.Reviews = []domain.Review{}

	return &t, nil
}

func tourConflict(err error, t *domain.Tour) error {
	if database.ConstraintName(err) == "tours_slug_key" {
		return errors.Join(repository.ErrSlugTaken, apperrors.AlreadyExists("tour", "slug", t.Slug))
	}
	return apperrors.AlreadyExists("tour", "title", t.Title)
}

// escapeLike escapes LIKE wildcards so user input matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
